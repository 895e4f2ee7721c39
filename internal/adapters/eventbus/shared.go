package eventbus

import (
	"sync"

	"github.com/rs/zerolog"
)

var (
	sharedOnce     sync.Once
	sharedRegistry *Registry
)

// Shared returns the process-wide registry, creating it on first use.
// It logs nowhere and is never torn down. Prefer NewRegistry and pass the
// registry to the components that need it.
func Shared() *Registry {
	sharedOnce.Do(func() {
		nopLogger := zerolog.Nop()
		sharedRegistry = NewRegistry(&nopLogger)
	})
	return sharedRegistry
}
