// factory.go implements the blob backend registry, mapping backend type
// strings to constructor functions and dispatching NewBlobs calls.
package storage

import (
	"fmt"

	"github.com/vendorguard/vendorguard/internal/config"
)

// FactoryFunc constructs a blob backend from configuration
type FactoryFunc func(*config.Config) (Blobs, error)

var factories = make(map[string]FactoryFunc)

// Register registers a blob backend factory
func Register(name string, factory FactoryFunc) {
	factories[name] = factory
}

// NewBlobs creates the configured evidence blob backend
func NewBlobs(cfg *config.Config) (Blobs, error) {
	factory, ok := factories[cfg.Storage.DefaultBackend]
	if !ok {
		return nil, fmt.Errorf("unsupported storage backend: %s (must be 'local')", cfg.Storage.DefaultBackend)
	}

	return factory(cfg)
}
