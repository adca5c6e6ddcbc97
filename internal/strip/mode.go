package strip

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
)

// Kind identifies an animation algorithm.
type Kind uint8

// Adding a mode means adding a Kind here, a row in kinds, and a case in the
// animation renderer.
const (
	Off Kind = iota
	Static
	Scanner
	Blink
	Breathe
	Rainbow
)

type kindInfo struct {
	name     string
	periodic bool
}

var kinds = [...]kindInfo{
	Off:     {name: "OFF"},
	Static:  {name: "STATIC"},
	Scanner: {name: "SCANNER", periodic: true},
	Blink:   {name: "BLINK", periodic: true},
	Breathe: {name: "BREATHE", periodic: true},
	Rainbow: {name: "RAINBOW", periodic: true},
}

// String returns the upper-case wire name of the kind.
func (k Kind) String() string {
	if int(k) < len(kinds) {
		return kinds[k].name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Periodic reports whether the kind advances with time and needs a period.
func (k Kind) Periodic() bool {
	return int(k) < len(kinds) && kinds[k].periodic
}

func (k Kind) valid() bool {
	return int(k) < len(kinds)
}

// Kinds returns every mode kind in registry order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	for i := range kinds {
		out[i] = Kind(i)
	}
	return out
}

// Names returns every mode name in registry order.
func Names() []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.name
	}
	return out
}

// LookupKind resolves a mode name, ignoring case.
func LookupKind(name string) (Kind, bool) {
	for i, k := range kinds {
		if strings.EqualFold(k.name, name) {
			return Kind(i), true
		}
	}
	return 0, false
}

// Mode is an animation kind plus its parameters. Period is zero for
// non-periodic kinds.
type Mode struct {
	Kind   Kind
	Period time.Duration
}

// Validate checks that a periodic mode carries a positive period.
func (m Mode) Validate() error {
	if !m.Kind.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidMode, m.Kind)
	}
	if m.Kind.Periodic() && m.Period <= 0 {
		return fmt.Errorf("%w: %s requires a positive period", ErrMissingParameter, m.Kind)
	}
	return nil
}

// String renders the mode in the same form ParseMode accepts.
func (m Mode) String() string {
	if m.Kind.Periodic() {
		return fmt.Sprintf("%s %d", m.Kind, m.Period.Milliseconds())
	}
	return m.Kind.String()
}

// ParseMode parses a "<mode-name> [period-ms]" body. The period is ignored
// for kinds that do not use one.
func ParseMode(body string) (Mode, error) {
	// Comments and quoting are not part of the body syntax.
	if i := strings.IndexAny(body, "#'\"\\"); i >= 0 {
		return Mode{}, fmt.Errorf("%w: unexpected %q in mode body", ErrInvalidMode, body[i])
	}
	tokens, err := shlex.Split(body)
	if err != nil {
		return Mode{}, fmt.Errorf("%w: %v", ErrInvalidMode, err)
	}
	if len(tokens) == 0 {
		return Mode{}, fmt.Errorf("%w: empty mode", ErrInvalidMode)
	}
	if len(tokens) > 2 {
		return Mode{}, fmt.Errorf("%w: unexpected arguments %q", ErrInvalidMode, tokens[2:])
	}

	kind, ok := LookupKind(tokens[0])
	if !ok {
		return Mode{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidMode, tokens[0])
	}
	if !kind.Periodic() {
		return Mode{Kind: kind}, nil
	}

	if len(tokens) < 2 {
		return Mode{}, fmt.Errorf("%w: %s requires a period in milliseconds", ErrMissingParameter, kind)
	}
	ms, err := strconv.ParseInt(tokens[1], 10, 32)
	if err != nil || ms <= 0 {
		return Mode{}, fmt.Errorf("%w: invalid period %q", ErrMissingParameter, tokens[1])
	}
	return Mode{Kind: kind, Period: time.Duration(ms) * time.Millisecond}, nil
}
