//go:build darwin || freebsd || linux || netbsd

package spice

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// Open loads both shared objects, binds every routine and configures the
// error subsystem.
func Open(opts Options) (*Library, error) {
	opts = opts.withDefaults()

	cspice, err := purego.Dlopen(opts.CSPICEPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("spice: open %s: %w", opts.CSPICEPath, err)
	}
	erfa, err := purego.Dlopen(opts.ERFAPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("spice: open %s: %w", opts.ERFAPath, err)
	}

	l := &Library{}
	for _, s := range l.b.symbols() {
		handle := cspice
		if s.erfa {
			handle = erfa
		}
		addr, err := purego.Dlsym(handle, s.name)
		if err != nil {
			return nil, fmt.Errorf("spice: resolve %s: %w", s.name, err)
		}
		purego.RegisterFunc(s.fn, addr)
	}
	l.configure()
	return l, nil
}
