package adapter

import (
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// Factory builds a fresh strategy instance. A nil logger means discard.
type Factory func(logger *slog.Logger) Adapter

var (
	registryMu sync.RWMutex
	strategies = make(map[string]Factory)
)

// Register makes a strategy available under name, replacing any earlier
// registration. Concrete adapters call it from init().
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	strategies[name] = factory
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := strategies[name]
	return f, ok
}

// NewAdapter builds the strategy registered under name. Each call returns a
// new instance, so connections are never shared between executions.
func NewAdapter(name string, logger *slog.Logger) (Adapter, error) {
	if name == "" {
		return nil, errors.New("adapter name not specified")
	}
	factory, ok := Lookup(name)
	if !ok {
		return nil, &UnknownAdapterError{Name: name, Available: Strategies()}
	}
	return factory(logger), nil
}

// Strategies returns the registered strategy names, sorted.
func Strategies() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(strategies))
}

// IsRegistered reports whether a strategy is available in this build.
func IsRegistered(name string) bool {
	_, ok := Lookup(name)
	return ok
}
