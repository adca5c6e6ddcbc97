package animation

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/smazurov/stripnode/internal/strip"
)

// cycle is the number of phase steps after which a kind repeats on an
// n-pixel strip. Zero means the kind does not use phase.
func cycle(k strip.Kind, n int) float64 {
	switch k {
	case strip.Scanner:
		if n < 2 {
			return 1
		}
		// Ping-pong: 0..n-1 and back, without repeating the ends.
		return float64(2 * (n - 1))
	case strip.Blink, strip.Breathe:
		return 2
	case strip.Rainbow:
		return 1
	default:
		return 0
	}
}

// Render fills dst with one frame of kind k drawn in base at the given phase.
// Phase is measured in periods since the mode became active.
func Render(dst []color.RGBA, k strip.Kind, base strip.Color, phase float64) {
	clear(dst)
	n := len(dst)
	if n == 0 {
		return
	}

	switch k {
	case strip.Off:
	case strip.Static:
		fill(dst, base.RGBA())
	case strip.Scanner:
		renderScanner(dst, base, phase)
	case strip.Blink:
		if int(phase)%2 == 0 {
			fill(dst, base.RGBA())
		}
	case strip.Breathe:
		renderBreathe(dst, base, phase)
	case strip.Rainbow:
		renderRainbow(dst, base, phase)
	}
}

// ScannerPosition returns the lit pixel of a bouncing scanner at phase.
func ScannerPosition(n int, phase float64) int {
	if n < 2 {
		return 0
	}
	step := int(phase) % (2 * (n - 1))
	if step < n {
		return step
	}
	return 2*(n-1) - step
}

func renderScanner(dst []color.RGBA, base strip.Color, phase float64) {
	pos := ScannerPosition(len(dst), phase)
	tail := base.Scale(1, 4).RGBA()
	if pos > 0 {
		dst[pos-1] = tail
	}
	if pos < len(dst)-1 {
		dst[pos+1] = tail
	}
	dst[pos] = base.RGBA()
}

func renderBreathe(dst []color.RGBA, base strip.Color, phase float64) {
	t := math.Mod(phase, 2)
	level := t
	if t > 1 {
		level = 2 - t
	}
	c := colorful.Color{}.BlendRgb(toColorful(base), level)
	fill(dst, fromColorful(c))
}

func renderRainbow(dst []color.RGBA, base strip.Color, phase float64) {
	_, _, v := toColorful(base).Hsv()
	offset := math.Mod(phase, 1) * 360
	n := float64(len(dst))
	for i := range dst {
		hue := math.Mod(offset+float64(i)*360/n, 360)
		dst[i] = fromColorful(colorful.Hsv(hue, 1, v))
	}
}

func fill(dst []color.RGBA, c color.RGBA) {
	for i := range dst {
		dst[i] = c
	}
}

func toColorful(c strip.Color) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func fromColorful(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}
