package hardware

import (
	"image/color"

	"github.com/smazurov/stripnode/internal/logging"
)

// noop implements Strip for hosts without a strip attached
type noop struct {
	logger logging.Logger
	pixels int
}

func newNoop(logger logging.Logger) *noop {
	if logger == nil {
		logger = logging.Discard()
	}
	return &noop{logger: logger}
}

// SetPixelCount records the size so Write can validate frames
func (n *noop) SetPixelCount(count int) error {
	n.pixels = count
	n.logger.Debug("Strip output not available (no-op)", "pixels", count)
	return nil
}

// Write validates the frame and drops it
func (n *noop) Write(pixels []color.RGBA) error {
	return checkFrame(pixels, n.pixels)
}

func (n *noop) Close() error { return nil }
