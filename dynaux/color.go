package dynaux

import (
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
)

var red = color.RGBA{R: 255, A: 255}

// ColorConversionInigoQuilez creates a new color conversion using [Inigo Quilez]'s
// distance field coloring. A good value for characteristic distance is a third
// of the profile's largest radius. Returns red for NaN values.
//
// [Inigo Quilez]: https://iquilezles.org/articles/distfunctions2d/
func ColorConversionInigoQuilez(characteristicDistance float32) func(float32) color.Color {
	inv := 1. / characteristicDistance
	return func(d float32) color.Color {
		if math.IsNaN(d) {
			return red
		}
		d *= inv
		var c ms3.Vec
		if d > 0 {
			c = ms3.Vec{X: 0.9, Y: 0.6, Z: 0.3}
		} else {
			c = ms3.Vec{X: 0.65, Y: 0.85, Z: 1.0}
		}
		c = ms3.Scale(1-math.Exp(-6*math.Abs(d)), c)
		c = ms3.Scale(0.8+0.2*math.Cos(150*d), c)
		edge := 1 - ms1.SmoothStep(0, 0.01, math.Abs(d))
		return color.RGBA{
			R: channel(ms1.Interp(c.X, 1, edge)),
			G: channel(ms1.Interp(c.Y, 1, edge)),
			B: channel(ms1.Interp(c.Z, 1, edge)),
			A: 255,
		}
	}
}

// ColorConversionLinearGradient blends from c0 inside the profile to c1 outside
// over gradientLength centered on the profile edge. A zero length gives a hard edge.
func ColorConversionLinearGradient(gradientLength float32, c0, c1 color.Color) func(d float32) color.Color {
	r0, g0, b0, a0 := c0.RGBA()
	r1, g1, b1, a1 := c1.RGBA()
	return func(d float32) color.Color {
		var blend float32
		if gradientLength == 0 {
			if d >= 0 {
				blend = 1
			}
		} else {
			blend = ms1.Clamp(d/gradientLength+0.5, 0, 1)
		}
		return color.RGBA64{
			R: lerp16(r0, r1, blend),
			G: lerp16(g0, g1, blend),
			B: lerp16(b0, b1, blend),
			A: lerp16(a0, a1, blend),
		}
	}
}

func channel(v float32) uint8 { return uint8(ms1.Clamp(v, 0, 1) * 255) }

func lerp16(a, b uint32, t float32) uint16 {
	return uint16(ms1.Interp(float32(a), float32(b), t))
}
