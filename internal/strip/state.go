package strip

import "fmt"

// Defaults is the boot state of a strip.
type Defaults struct {
	Power bool
	Mode  Mode
	Color Color
}

// DefaultDefaults returns power off, STATIC, white.
func DefaultDefaults() Defaults {
	return Defaults{
		Power: false,
		Mode:  Mode{Kind: Static},
		Color: White,
	}
}

// Snapshot is a value copy of a State.
type Snapshot struct {
	Power  bool
	Mode   Mode
	Color  Color
	Pixels int
}

// State is the single mutable strip aggregate. It is owned by the main loop;
// the router mutates it and the animation engine reads it. It is not safe for
// concurrent use.
type State struct {
	power  bool
	mode   Mode
	color  Color
	pixels int

	// epoch increments whenever the mode kind changes; the engine resets
	// phase when it observes a new epoch.
	epoch uint64
}

// NewState builds a state for a fixed number of pixels.
func NewState(pixels int, d Defaults) (*State, error) {
	if pixels <= 0 {
		return nil, fmt.Errorf("pixel count must be positive, got %d", pixels)
	}
	if err := d.Mode.Validate(); err != nil {
		return nil, fmt.Errorf("default mode: %w", err)
	}
	return &State{
		power:  d.Power,
		mode:   d.Mode,
		color:  d.Color,
		pixels: pixels,
	}, nil
}

// Power reports whether the strip is on.
func (s *State) Power() bool { return s.power }

// SetPower switches the strip on or off without touching mode or phase.
func (s *State) SetPower(on bool) { s.power = on }

// Mode returns the active mode.
func (s *State) Mode() Mode { return s.mode }

// SetMode replaces the active mode. An invalid mode leaves the state unchanged.
func (s *State) SetMode(m Mode) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.Kind != s.mode.Kind {
		s.epoch++
	}
	if !m.Kind.Periodic() {
		m.Period = 0
	}
	s.mode = m
	return nil
}

// Color returns the base color.
func (s *State) Color() Color { return s.color }

// SetColor replaces the base color.
func (s *State) SetColor(c Color) { s.color = c }

// PixelCount returns the fixed pixel count.
func (s *State) PixelCount() int { return s.pixels }

// Epoch returns the mode-switch counter.
func (s *State) Epoch() uint64 { return s.epoch }

// Snapshot copies the current state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Power:  s.power,
		Mode:   s.mode,
		Color:  s.color,
		Pixels: s.pixels,
	}
}

