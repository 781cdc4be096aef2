// Package dynaux bundles the common output paths for polar cones: STL files,
// PNG previews of the profile and color schemes for them.
package dynaux

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"time"

	"github.com/soypat/dynamit"
	"github.com/soypat/dynamit/calc"
	"github.com/soypat/dynamit/glrender"
)

type RenderConfig struct {
	STLOutput io.Writer
	Silent    bool
}

// Render builds the cone configured by pb and writes it to the configured outputs.
func Render(pb dynamit.PolarBuilder, cfg RenderConfig) error {
	if cfg.STLOutput == nil {
		return errors.New("Render requires output parameter in config")
	}
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	watch := stopwatch()
	m, err := pb.BuildIndexed()
	if err != nil {
		return fmt.Errorf("building cone: %w", err)
	}
	log("built", len(m.Vertices), "vertices in", watch())
	reader, err := glrender.NewIndexedReader(m.Vertices, m.Indices)
	if err != nil {
		return err
	}
	watch = stopwatch()
	triangles, err := glrender.RenderAll(reader, nil)
	if err != nil {
		return fmt.Errorf("reading triangles: %w", err)
	}
	_, err = glrender.WriteBinarySTL(cfg.STLOutput, triangles)
	if err != nil {
		return fmt.Errorf("writing STL file: %w", err)
	}
	filename := "STL"
	if fp, ok := cfg.STLOutput.(*os.File); ok {
		filename = fp.Name()
	}
	log("wrote", len(triangles), "triangles to", filename, "in", watch())
	return nil
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// RenderPNGFile renders the top view of the profile given by formula as a
// square image of side picSize pixels and saves it to filename. The view is
// sized to fit the largest radius found over a full revolution of variable.
// If a nil color conversion function is passed then one is automatically chosen.
func RenderPNGFile(filename, formula, variable string, picSize int, colorConversion func(float32) color.Color) error {
	expr, err := calc.Compile(formula)
	if err != nil {
		return err
	}
	extent, err := MaxRadius(expr, variable, 360)
	if err != nil {
		return err
	}
	extent *= 1.1
	if colorConversion == nil {
		colorConversion = ColorConversionInigoQuilez(extent / 3)
	}
	img := image.NewRGBA(image.Rect(0, 0, picSize, picSize))
	renderer, err := glrender.NewImageRendererPolar(max(4096, picSize), colorConversion)
	if err != nil {
		return err
	}
	err = renderer.Render(expr, variable, extent, img)
	if err != nil {
		return err
	}
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = png.Encode(fp, img)
	if err != nil {
		return err
	}
	return fp.Sync()
}

// MaxRadius samples expr at n evenly spaced values of variable over [0, 2π)
// and returns the largest absolute radius.
func MaxRadius(expr *calc.Expression, variable string, n int) (float32, error) {
	if n < 1 {
		return 0, errors.New("need at least one sample")
	}
	var theta float64
	expr.BindFunc(variable, func() float64 { return theta })
	defer expr.Unbind(variable)
	var rmax float64
	for i := 0; i < n; i++ {
		theta = 2 * math.Pi * float64(i) / float64(n)
		r, err := expr.Eval()
		if err != nil {
			return 0, err
		}
		rmax = max(rmax, math.Abs(r))
	}
	if rmax == 0 || math.IsInf(rmax, 0) || math.IsNaN(rmax) {
		return 0, fmt.Errorf("degenerate profile radius %v", rmax)
	}
	return float32(rmax), nil
}
