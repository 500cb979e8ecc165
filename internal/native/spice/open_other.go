//go:build !(darwin || freebsd || linux || netbsd)

package spice

// Open always fails on this platform.
func Open(Options) (*Library, error) {
	return nil, ErrUnsupported
}
