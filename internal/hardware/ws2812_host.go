//go:build !tinygo

package hardware

func newWS2812(Config) (Strip, error) {
	return nil, ErrNotSupported
}
