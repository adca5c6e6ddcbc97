package strip

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is an 8-bit RGB triple. Values are copied, never shared.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// White is the boot default base color.
var White = Color{R: 255, G: 255, B: 255}

// RGBA converts the color to the pixel type the hardware writers take.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
}

// Scale returns the color with every channel multiplied by num/den.
func (c Color) Scale(num, den int) Color {
	if den <= 0 {
		return Color{}
	}
	return Color{
		R: uint8(int(c.R) * num / den),
		G: uint8(int(c.G) * num / den),
		B: uint8(int(c.B) * num / den),
	}
}

// MarshalJSON encodes the color as {"r":..,"g":..,"b":..}.
func (c Color) MarshalJSON() ([]byte, error) {
	return fmt.Appendf(nil, `{"r":%d,"g":%d,"b":%d}`, c.R, c.G, c.B), nil
}

// String returns the color as "r,g,b".
func (c Color) String() string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

type colorBody struct {
	R *int64 `json:"r"`
	G *int64 `json:"g"`
	B *int64 `json:"b"`
}

// ParseColorJSON decodes a {"r":..,"g":..,"b":..} object. Every field is
// required and must be an integer in 0-255; nothing is clamped.
func ParseColorJSON(body []byte) (Color, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	var raw colorBody
	if err := dec.Decode(&raw); err != nil {
		return Color{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if dec.More() {
		return Color{}, fmt.Errorf("%w: trailing data after color object", ErrInvalidBody)
	}

	fields := []struct {
		name string
		v    *int64
	}{{"r", raw.R}, {"g", raw.G}, {"b", raw.B}}

	var out [3]uint8
	for i, f := range fields {
		if f.v == nil {
			return Color{}, fmt.Errorf("%w: missing field %q", ErrInvalidBody, f.name)
		}
		if *f.v < 0 || *f.v > 255 {
			return Color{}, fmt.Errorf("%w: field %q out of range: %d", ErrInvalidBody, f.name, *f.v)
		}
		out[i] = uint8(*f.v)
	}
	return Color{R: out[0], G: out[1], B: out[2]}, nil
}

// ParseColor parses the "r,g,b" form used by flags and config files.
func ParseColor(s string) (Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("%w: want r,g,b, got %q", ErrInvalidBody, s)
	}
	var out [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: channel %d: %v", ErrInvalidBody, i, err)
		}
		out[i] = uint8(v)
	}
	return Color{R: out[0], G: out[1], B: out[2]}, nil
}
