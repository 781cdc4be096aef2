//go:build !tinygo && cgo

package glview

import (
	"fmt"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/dynamit/glbuild"
	"github.com/soypat/dynamit/gldraw"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

// program is the compiled program of one chain along with its uniform locations.
type program struct {
	prog      glgl.Program
	translate int32
	light     int32
	objs      []*drawable
}

// drawable holds the GPU buffers of one object.
type drawable struct {
	obj                            *gldraw.Object
	vao                            uint32
	vertices, normals, colors, ebo uint32
	stride                         uint32
}

func run(roots []*gldraw.Object, cfg Config) error {
	window, term, err := startGLFW(cfg.Width, cfg.Height, cfg.Title)
	if err != nil {
		return err
	}
	defer term()
	progs := make([]*program, len(roots))
	for i, root := range roots {
		progs[i], err = newProgram(root, cfg.GLSLVersion)
		if err != nil {
			return fmt.Errorf("object %q: %w", root.Name(), err)
		}
	}
	gl.Enable(gl.DEPTH_TEST)

	start := glfw.GetTime()
	ctx := cfg.Context
	bg := cfg.Background
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if cfg.OnFrame != nil {
			if err := cfg.OnFrame(glfw.GetTime() - start); err != nil {
				return err
			}
		}
		width, height := window.GetFramebufferSize()
		gl.Viewport(0, 0, int32(width), int32(height))
		gl.ClearColor(bg[0], bg[1], bg[2], bg[3])
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		for _, p := range progs {
			if err := p.draw(cfg.Primitive); err != nil {
				return err
			}
		}
		window.SwapBuffers()
		glfw.PollEvents()
		time.Sleep(time.Second / 60)
	}
	return nil
}

func newProgram(root *gldraw.Object, version string) (*program, error) {
	src, err := root.Sources()
	if err != nil {
		return nil, err
	}
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   desktopSource(src.Vertex, version),
		Fragment: desktopSource(src.Fragment, version),
	})
	if err != nil {
		return nil, fmt.Errorf("%s\n%s\n\n%w", src.Vertex, src.Fragment, err)
	}
	prog.Bind()
	p := &program{prog: prog, translate: -1, light: -1}
	ing := root.Ingredients()
	if name, ok := ing.TranslationName(); ok {
		p.translate, err = prog.UniformLocation(name + "\x00")
		if err != nil {
			return nil, err
		}
	}
	if l, ok := ing.LightValue(); ok && l.Uniform {
		p.light, err = prog.UniformLocation(l.Name + "\x00")
		if err != nil {
			return nil, err
		}
	}
	err = root.Walk(func(obj *gldraw.Object) error {
		d := newDrawable(obj)
		p.objs = append(p.objs, d)
		return nil
	})
	return p, err
}

func newDrawable(obj *gldraw.Object) *drawable {
	d := &drawable{obj: obj}
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	ing := obj.Ingredients()
	if layout := obj.Layout(); layout != nil {
		gl.GenBuffers(1, &d.stride)
		gl.BindBuffer(gl.ARRAY_BUFFER, d.stride)
		upload(gl.ARRAY_BUFFER, obj.Interleaved())
		stride := int32(layout.Stride())
		for _, a := range layout.Attributes() {
			loc := uint32(a.Location)
			gl.EnableVertexAttribArray(loc)
			gl.VertexAttribPointer(loc, int32(a.Size), uint32(a.Type), a.Normalized, stride, gl.PtrOffset(a.Offset))
		}
	} else {
		if a, ok := ing.PositionAttrib(); ok {
			d.vertices = attribBuffer(a, obj.Vertices())
		}
		if a, ok := ing.NormalsAttrib(); ok {
			d.normals = attribBuffer(a, obj.Normals())
		}
		if a, ok := ing.ColorAttrib(); ok {
			d.colors = attribBuffer(a, obj.Colors())
		}
	}
	if _, _, ok := ing.IndexInfo(); ok {
		indices := obj.Indices()
		gl.GenBuffers(1, &d.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, d.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 4*len(indices), gl.Ptr(indices), gl.STATIC_DRAW)
	}
	obj.TakeDirty() // Everything was just uploaded.
	return d
}

func attribBuffer(a glbuild.LayoutAttrib, data []float32) uint32 {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	upload(gl.ARRAY_BUFFER, data)
	loc := uint32(a.Location)
	gl.EnableVertexAttribArray(loc)
	gl.VertexAttribPointer(loc, int32(a.Size), gl.FLOAT, a.Normalized, 0, gl.PtrOffset(0))
	return vbo
}

func upload(target uint32, data []float32) {
	if len(data) == 0 {
		gl.BufferData(target, 0, nil, gl.DYNAMIC_DRAW)
		return
	}
	gl.BufferData(target, 4*len(data), gl.Ptr(data), gl.DYNAMIC_DRAW)
}

func (p *program) draw(def glbuild.Primitive) error {
	p.prog.Bind()
	for _, d := range p.objs {
		obj := d.obj
		gl.BindVertexArray(d.vao)
		dirty := obj.TakeDirty()
		reupload(d.vertices, dirty&gldraw.DirtyVertices != 0, obj.Vertices())
		reupload(d.normals, dirty&gldraw.DirtyNormals != 0, obj.Normals())
		reupload(d.colors, dirty&gldraw.DirtyColors != 0, obj.Colors())
		reupload(d.stride, dirty&gldraw.DirtyStride != 0, obj.Interleaved())
		if p.translate >= 0 {
			v := uniformSource(obj, glbuild.Translation).Translation()
			gl.Uniform4f(p.translate, v[0], v[1], v[2], v[3])
		}
		if p.light >= 0 {
			v := uniformSource(obj, glbuild.Light).LightDirection()
			gl.Uniform3f(p.light, v[0], v[1], v[2])
		}
		dc, err := obj.DrawCall(def)
		if err != nil {
			return err
		}
		if dc.Indexed {
			gl.DrawElements(uint32(dc.Primitive), int32(dc.Count), uint32(dc.IndexType), gl.PtrOffset(0))
		} else {
			gl.DrawArrays(uint32(dc.Primitive), 0, int32(dc.Count))
		}
	}
	return nil
}

func reupload(vbo uint32, dirty bool, data []float32) {
	if vbo == 0 || !dirty {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	upload(gl.ARRAY_BUFFER, data)
}

// uniformSource returns obj if it carries the uniform ingredient, else its chain root.
func uniformSource(obj *gldraw.Object, field glbuild.Ingredient) *gldraw.Object {
	ing := obj.Ingredients()
	if ing.Has(field) {
		return obj
	}
	return obj.Root()
}

func startGLFW(width, height int, title string) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	window, err = glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}
