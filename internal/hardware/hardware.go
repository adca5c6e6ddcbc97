// Package hardware provides the pixel sinks the animation engine writes to.
//
// Backends are chosen by name through New. The SPI backend drives WS281x
// strips from Linux boards through periph; the ws2812 backend is only
// available in TinyGo builds.
package hardware

import (
	"errors"
	"image/color"
	"io"
)

// Strip is the hardware strip collaborator.
type Strip interface {
	// SetPixelCount sizes the strip. It is called once before the first Write.
	SetPixelCount(n int) error
	// Write pushes one frame. len(pixels) must equal the pixel count.
	Write(pixels []color.RGBA) error
	Close() error
}

var (
	// ErrNotSupported is returned for backends not compiled into this build.
	ErrNotSupported = errors.New("backend not supported in this build")
	// ErrFrameSize is returned when a frame does not match the pixel count.
	ErrFrameSize = errors.New("frame size does not match pixel count")
	// ErrNotSized is returned by Write before SetPixelCount.
	ErrNotSized = errors.New("pixel count not set")
)

// Backend names.
const (
	BackendNoop    = "noop"
	BackendMemory  = "memory"
	BackendConsole = "console"
	BackendSPI     = "spi"
	BackendWS2812  = "ws2812"
)

// Backends lists every backend name New accepts.
func Backends() []string {
	return []string{BackendNoop, BackendMemory, BackendConsole, BackendSPI, BackendWS2812}
}

// Config selects and configures a backend.
type Config struct {
	Backend string
	// SPIPort is a periph spireg name such as "SPI0.0"; empty picks the first port.
	SPIPort string
	// WS2812Pin is the TinyGo machine pin number driving the data line.
	WS2812Pin int
	// Console is where the console backend draws; nil means stdout.
	Console io.Writer
}

func checkFrame(pixels []color.RGBA, n int) error {
	if n == 0 {
		return ErrNotSized
	}
	if len(pixels) != n {
		return ErrFrameSize
	}
	return nil
}
