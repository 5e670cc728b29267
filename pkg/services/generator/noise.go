package generator

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// AddNoise simulates a scanned page: a small rotation, a brightness change
// and, each with probability one half, Gaussian pixel noise and blur.
func (g *Generator) AddNoise(img image.Image) image.Image {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	angle := g.uniform(-5, 5)
	out := imaging.CropCenter(imaging.Rotate(img, angle, color.White), w, h)

	factor := g.uniform(0.8, 1.2)
	out = imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp(float64(c.R) * factor),
			G: clamp(float64(c.G) * factor),
			B: clamp(float64(c.B) * factor),
			A: c.A,
		}
	})

	if g.rng.Float64() > 0.5 {
		out = g.gaussianNoise(out, g.uniform(5, 15))
	}

	if g.rng.Float64() > 0.5 {
		out = imaging.Blur(out, g.uniform(0.5, 1.5))
	}

	return out
}

// gaussianNoise runs sequentially: the generator's random source is not
// safe for the parallel callbacks of imaging.AdjustFunc.
func (g *Generator) gaussianNoise(img *image.NRGBA, sigma float64) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 0; i+3 < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = clamp(float64(out.Pix[i+c]) + g.rng.NormFloat64()*sigma)
		}
	}
	return out
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func clamp(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
