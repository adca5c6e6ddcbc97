// Package animation turns strip state and elapsed time into pixel frames.
//
// The engine is driven once per main-loop iteration by Tick. It reads the
// strip state, never writes it, and hands each frame to an Output.
package animation

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/smazurov/stripnode/internal/strip"
)

// Output receives frames. Hardware backends implement it.
type Output interface {
	SetPixelCount(n int) error
	Write(pixels []color.RGBA) error
}

// maxStep caps how far one tick may advance phase, so a stalled loop or a
// clock jump does not fast-forward animations.
const maxStep = time.Minute

// Engine holds the phase of the active mode and the frame buffer.
type Engine struct {
	state *strip.State
	out   Output
	frame []color.RGBA

	phase   float64
	epoch   uint64
	last    time.Time
	started bool
}

// NewEngine sizes out to the strip and returns an engine reading state.
func NewEngine(state *strip.State, out Output) (*Engine, error) {
	n := state.PixelCount()
	if err := out.SetPixelCount(n); err != nil {
		return nil, fmt.Errorf("set pixel count %d: %w", n, err)
	}
	return &Engine{
		state: state,
		out:   out,
		frame: make([]color.RGBA, n),
		epoch: state.Epoch(),
	}, nil
}

// Tick advances phase to now, renders one frame and writes it. The first
// tick only establishes the time base. A mode change observed since the last
// tick restarts the new mode from phase zero; power, color and period changes
// leave phase alone. Phase advances while the strip is powered off.
func (e *Engine) Tick(now time.Time) error {
	e.advance(now)

	if e.state.Power() {
		Render(e.frame, e.state.Mode().Kind, e.state.Color(), e.phase)
	} else {
		clear(e.frame)
	}
	if err := e.out.Write(e.frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (e *Engine) advance(now time.Time) {
	elapsed := now.Sub(e.last)
	if !e.started {
		e.started = true
		elapsed = 0
	}
	e.last = now

	if epoch := e.state.Epoch(); epoch != e.epoch {
		e.epoch = epoch
		e.phase = 0
		return
	}

	mode := e.state.Mode()
	if !mode.Kind.Periodic() || elapsed <= 0 {
		return
	}
	elapsed = min(elapsed, maxStep)
	e.phase += float64(elapsed) / float64(mode.Period)
	if c := cycle(mode.Kind, len(e.frame)); c > 0 {
		e.phase = math.Mod(e.phase, c)
	}
}

// Phase returns the current phase in periods.
func (e *Engine) Phase() float64 { return e.phase }

// Frame returns the last rendered frame. The slice is reused by the next Tick.
func (e *Engine) Frame() []color.RGBA { return e.frame }
