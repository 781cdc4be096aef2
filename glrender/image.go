package glrender

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/chewxy/math32"
	"github.com/soypat/dynamit/calc"
	"github.com/soypat/geometry/ms2"
)

type setImage = interface {
	image.Image
	Set(x, y int, c color.Color)
}

// ImageRendererPolar rasterizes the top view of a polar profile r(θ). The
// value passed to the color conversion is the distance from the pixel to the
// origin minus the profile radius at the pixel's angle, negative inside the profile.
type ImageRendererPolar struct {
	conv func(d float32) color.Color
	pos  []ms2.Vec
	dist []float32
}

// NewImageRendererPolar instances a new [ImageRendererPolar]. A nil float->color conversion
// function results in a simple black-white color scheme where black is the interior of the profile.
func NewImageRendererPolar(evalBufferSize int, conversion func(float32) color.Color) (*ImageRendererPolar, error) {
	if evalBufferSize <= 64 {
		return nil, errors.New("too small evaluation buffer size")
	}
	if conversion == nil {
		conversion = func(d float32) color.Color {
			switch {
			case math32.IsNaN(d) || math32.IsInf(d, 0):
				return color.RGBA{R: 255, A: 255}
			case d > 0:
				return color.White
			default:
				return color.Black
			}
		}
	}
	ir := &ImageRendererPolar{
		conv: conversion,
		pos:  make([]ms2.Vec, evalBufferSize),
		dist: make([]float32, evalBufferSize),
	}
	return ir, nil
}

// Render maps the square [-extent, extent]² onto img and renders the profile
// given by expr. variable is bound to the pixel angle in [0, 2π) and
// unbound again before returning.
func (ir *ImageRendererPolar) Render(expr *calc.Expression, variable string, extent float32, img setImage) error {
	if extent <= 0 {
		return errors.New("non-positive extent")
	}
	imgBB := img.Bounds()
	dxi := imgBB.Dx()
	dyi := imgBB.Dy()
	if len(ir.dist) < dyi {
		return fmt.Errorf("require evaluation buffer (%d) to be at least of length of image rows (%d)", len(ir.dist), dyi)
	}
	var theta float64
	expr.BindFunc(variable, func() float64 { return theta })
	defer expr.Unbind(variable)
	dx := 2 * extent / float32(dxi)
	dy := 2 * extent / float32(dyi)
	xmin, ymax := -extent+dx/2, extent-dy/2 // Offset to center image.
	for i := 0; i < dxi; i++ {
		x := float32(i)*dx + xmin
		for j := 0; j < dyi; j++ {
			ir.pos[j] = ms2.Vec{X: x, Y: ymax - float32(j)*dy} // Image y axis points down.
		}
		for j, p := range ir.pos[:dyi] {
			theta = math.Mod(float64(math32.Atan2(p.Y, p.X))+2*math.Pi, 2*math.Pi)
			r, err := expr.Eval()
			if err != nil {
				return err
			}
			ir.dist[j] = ms2.Norm(p) - math32.Abs(float32(r))
		}
		conv := ir.conv
		for j := 0; j < dyi; j++ {
			img.Set(i+imgBB.Min.X, j+imgBB.Min.Y, conv(ir.dist[j]))
		}
	}
	return nil
}
