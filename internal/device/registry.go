package device

import (
	"fmt"
	"sync"
)

// Registry manages device providers and handles platform detection
type Registry struct {
	providers []Provider
	mu        sync.RWMutex
}

var (
	globalRegistry = &Registry{
		providers: make([]Provider, 0),
	}
)

// Register adds a provider to the global registry.
// Called from init() in the backend packages.
func Register(provider Provider) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.providers = append(globalRegistry.providers, provider)
}

// Detect returns the first available provider in registration order
func Detect() (Provider, error) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	for _, p := range globalRegistry.providers {
		if p.IsAvailable() {
			return p, nil
		}
	}

	return nil, fmt.Errorf("no compatible device detected (tried %d providers)", len(globalRegistry.providers))
}

// Get returns a provider by name, or nil if not found
func Get(name string) Provider {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	for _, p := range globalRegistry.providers {
		if p.Info().Name == name {
			return p
		}
	}

	return nil
}

// Providers returns all registered providers
func Providers() []Provider {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	providers := make([]Provider, len(globalRegistry.providers))
	copy(providers, globalRegistry.providers)
	return providers
}

// Resolve picks the named provider, or detects one when name is empty
func Resolve(name string) (Provider, error) {
	if name == "" {
		return Detect()
	}
	if p := Get(name); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("unknown device provider: %s", name)
}

// ClearProviders removes all registered providers (primarily for testing)
func ClearProviders() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.providers = make([]Provider, 0)
}
