// Package glview opens a window and draws [gldraw.Object] chains with OpenGL.
// It requires cgo. Builds without it return an error from [Run].
package glview

import (
	"context"
	"errors"
	"strings"

	"github.com/soypat/dynamit/glbuild"
	"github.com/soypat/dynamit/gldraw"
)

// DefaultGLSLVersion replaces the GLSL ES pragma of composed sources since
// the window runs a desktop core profile context.
const DefaultGLSLVersion = "#version 410 core"

// Config configures the window opened by [Run].
type Config struct {
	Width, Height int
	Title         string
	Background    [4]float32
	// GLSLVersion replaces a "#version 300 es" pragma in object sources.
	// Empty means [DefaultGLSLVersion].
	GLSLVersion string
	// Primitive is drawn by objects that set none. The zero value draws
	// triangles; objects draw points with WithPrimitive(glbuild.Points).
	Primitive glbuild.Primitive
	// OnFrame is called before each frame with the seconds since start.
	// Returning an error stops the loop and is returned by Run.
	OnFrame func(t float64) error
	// Context cancels the render loop when done.
	Context context.Context
}

// Run draws roots and their chained successors until the window is closed.
func Run(roots []*gldraw.Object, cfg Config) error {
	if len(roots) == 0 {
		return errors.New("no objects to draw")
	}
	for _, root := range roots {
		if !root.IsRoot() {
			return gldraw.ErrNotChainRoot
		}
		if err := root.Walk((*gldraw.Object).Err); err != nil {
			return err
		}
	}
	cfg.defaults()
	return run(roots, cfg)
}

func (cfg *Config) defaults() {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 800, 800
	}
	if cfg.Title == "" {
		cfg.Title = "dynamit"
	}
	if cfg.GLSLVersion == "" {
		cfg.GLSLVersion = DefaultGLSLVersion
	}
	if cfg.Primitive == glbuild.Points {
		cfg.Primitive = glbuild.Triangles
	}
}

// desktopSource swaps the ES pragma for version and null terminates the result.
func desktopSource(src, version string) string {
	if rest, ok := strings.CutPrefix(src, glbuild.VersionES300+"\n"); ok {
		src = version + "\n" + rest
	}
	return src + "\x00"
}
