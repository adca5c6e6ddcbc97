package hardware

import (
	"fmt"
	"image/color"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	litGlyph  = "●"
	darkGlyph = "·"
)

// Console draws frames as a row of colored glyphs on a terminal.
type Console struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	inline   bool
	pixels   int
	last     []color.RGBA
}

// NewConsole draws to w. Inline consoles redraw a single line and skip
// frames identical to the previous one; otherwise every frame gets its own
// line.
func NewConsole(w io.Writer, inline bool) *Console {
	return &Console{
		w:        w,
		renderer: lipgloss.NewRenderer(w),
		inline:   inline,
	}
}

func (c *Console) SetPixelCount(n int) error {
	c.pixels = n
	c.last = nil
	return nil
}

func (c *Console) Write(pixels []color.RGBA) error {
	if err := checkFrame(pixels, c.pixels); err != nil {
		return err
	}
	if c.inline && slices.Equal(pixels, c.last) {
		return nil
	}
	c.last = append(c.last[:0], pixels...)

	line := c.Render(pixels)
	var err error
	if c.inline {
		_, err = fmt.Fprint(c.w, "\r"+line)
	} else {
		_, err = fmt.Fprintln(c.w, line)
	}
	return err
}

// Render returns the glyph row for pixels without writing it.
func (c *Console) Render(pixels []color.RGBA) string {
	var b strings.Builder
	for _, px := range pixels {
		if px.R == 0 && px.G == 0 && px.B == 0 {
			b.WriteString(darkGlyph)
			continue
		}
		hex := fmt.Sprintf("#%02x%02x%02x", px.R, px.G, px.B)
		b.WriteString(c.renderer.NewStyle().Foreground(lipgloss.Color(hex)).Render(litGlyph))
	}
	return b.String()
}

func (c *Console) Close() error {
	if c.inline && c.last != nil {
		_, err := fmt.Fprintln(c.w)
		return err
	}
	return nil
}
