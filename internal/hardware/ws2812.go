//go:build tinygo

package hardware

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ws2812"
)

// ws2812Strip bit-bangs the strip's data line from a microcontroller pin.
type ws2812Strip struct {
	dev    ws2812.Device
	pixels int
}

func newWS2812(cfg Config) (Strip, error) {
	pin := machine.Pin(cfg.WS2812Pin)
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &ws2812Strip{dev: ws2812.New(pin)}, nil
}

func (s *ws2812Strip) SetPixelCount(n int) error {
	s.pixels = n
	return nil
}

func (s *ws2812Strip) Write(pixels []color.RGBA) error {
	if err := checkFrame(pixels, s.pixels); err != nil {
		return err
	}
	return s.dev.WriteColors(pixels)
}

// Close blanks the strip.
func (s *ws2812Strip) Close() error {
	return s.dev.WriteColors(make([]color.RGBA, s.pixels))
}
