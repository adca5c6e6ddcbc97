//go:build !tinygo

package hardware

import (
	"fmt"
	"image/color"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// spiStrip drives a WS281x strip by encoding the NRZ signal on an SPI MOSI line.
type spiStrip struct {
	port   spi.PortCloser
	dev    *nrzled.Dev
	pixels int
	buf    []byte
}

func newSPI(cfg Config) (Strip, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("open SPI port %q: %w", cfg.SPIPort, err)
	}
	return &spiStrip{port: port}, nil
}

func (s *spiStrip) SetPixelCount(n int) error {
	opts := nrzled.DefaultOpts
	opts.NumPixels = n
	opts.Channels = 3
	dev, err := nrzled.NewSPI(s.port, &opts)
	if err != nil {
		return fmt.Errorf("open nrzled on %s: %w", s.port, err)
	}
	s.dev = dev
	s.pixels = n
	s.buf = make([]byte, 3*n)
	return nil
}

func (s *spiStrip) Write(pixels []color.RGBA) error {
	if err := checkFrame(pixels, s.pixels); err != nil {
		return err
	}
	for i, px := range pixels {
		s.buf[3*i] = px.R
		s.buf[3*i+1] = px.G
		s.buf[3*i+2] = px.B
	}
	_, err := s.dev.Write(s.buf)
	return err
}

func (s *spiStrip) Close() error {
	if s.dev != nil {
		if err := s.dev.Halt(); err != nil {
			_ = s.port.Close()
			return err
		}
	}
	return s.port.Close()
}
