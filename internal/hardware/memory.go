package hardware

import (
	"image/color"
	"slices"
	"sync"
)

// Memory keeps the last written frame. It is safe to read from other
// goroutines while the main loop writes.
type Memory struct {
	mu     sync.Mutex
	pixels int
	frame  []color.RGBA
	writes int
	closed bool
}

// NewMemory returns an unsized in-memory strip.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SetPixelCount(n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pixels = n
	m.frame = make([]color.RGBA, n)
	return nil
}

func (m *Memory) Write(pixels []color.RGBA) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkFrame(pixels, m.pixels); err != nil {
		return err
	}
	copy(m.frame, pixels)
	m.writes++
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Frame returns a copy of the last written frame.
func (m *Memory) Frame() []color.RGBA {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.frame)
}

// Writes returns how many frames were written.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
