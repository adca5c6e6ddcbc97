package hardware

import (
	"fmt"
	"os"
	"strings"

	"github.com/smazurov/stripnode/internal/logging"
)

// New creates the strip backend named by cfg.Backend. An empty name selects
// the no-op backend.
func New(cfg Config, logger logging.Logger) (Strip, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	switch strings.ToLower(cfg.Backend) {
	case "", BackendNoop:
		logger.Info("Using no-op strip backend")
		return newNoop(logger), nil
	case BackendMemory:
		logger.Info("Using in-memory strip backend")
		return NewMemory(), nil
	case BackendConsole:
		w := cfg.Console
		if w == nil {
			w = os.Stdout
		}
		logger.Info("Using console strip backend")
		return NewConsole(w, true), nil
	case BackendSPI:
		logger.Info("Using SPI strip backend", "port", cfg.SPIPort)
		return newSPI(cfg)
	case BackendWS2812:
		logger.Info("Using ws2812 strip backend", "pin", cfg.WS2812Pin)
		return newWS2812(cfg)
	default:
		return nil, fmt.Errorf("unknown strip backend %q (want one of %s)",
			cfg.Backend, strings.Join(Backends(), ", "))
	}
}
