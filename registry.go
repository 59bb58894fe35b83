package pagefs

import "sync"

// standardBackend is the built-in backend over the host filesystem.
var standardBackend Backend = &FSBackend{name: "std", fs: osFS{}}

var (
	defaultMu      sync.RWMutex
	defaultBackend = standardBackend
)

// Standard returns the built-in host filesystem backend, whatever the
// current default is.
func Standard() Backend {
	return standardBackend
}

// Default returns the backend used when Open is given a nil backend.
func Default() Backend {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultBackend
}

// SetDefault replaces the default backend. Nil restores the standard one.
//
// Swapping does not affect handles that are already open. Hosts are expected
// to configure the default once at start-up; tests that need determinism
// should pass a backend explicitly instead.
func SetDefault(b Backend) {
	if b == nil {
		b = standardBackend
	}
	defaultMu.Lock()
	defaultBackend = b
	defaultMu.Unlock()
}
