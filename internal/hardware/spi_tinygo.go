//go:build tinygo

package hardware

func newSPI(Config) (Strip, error) {
	return nil, ErrNotSupported
}
