package plugin

import (
	"fmt"
	"sync"

	"github.com/rajgottipati/HyperSim-SDK/errors"
)

// Factory creates a plugin instance from dependencies. Factories must
// not perform I/O; the plugin's Initialize method receives the
// descriptor config and does any setup work.
type Factory func(deps Dependencies) (Plugin, error)

// Registry maps plugin names to factories. The set of loadable plugin
// kinds is fixed at pipeline construction: built-ins plus whatever the
// caller registered through WithFactory.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under the given name.
// Returns an error for empty names, nil factories, or duplicates.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Register", "factory name validation")
	}
	if factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Register", "factory function validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		msg := fmt.Errorf("factory %q is already registered", name)
		return errors.WrapInvalid(msg, "Registry", "Register", "duplicate factory check")
	}

	r.factories[name] = factory
	return nil
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	return factory, exists
}

// Names returns all registered factory names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
