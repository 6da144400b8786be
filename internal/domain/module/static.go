package module

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// StaticRegistry holds modules compiled into the binary
type StaticRegistry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewStaticRegistry creates an empty registry
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{modules: make(map[string]Module)}
}

// Register adds a module. Registering a specifier twice is a programming error.
func (r *StaticRegistry) Register(specifier string, mod Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modules[specifier]; exists {
		panic(fmt.Sprintf("module: duplicate registration of %q", specifier))
	}
	r.modules[specifier] = mod
}

// RegisterFunc adds a function module
func (r *StaticRegistry) RegisterFunc(specifier string, fn Func) {
	r.Register(specifier, fn)
}

// TryLoad returns the registered module or ErrNotFound
func (r *StaticRegistry) TryLoad(ctx context.Context, specifier string) (Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if mod, ok := r.modules[specifier]; ok {
		return mod, nil
	}
	return nil, fmt.Errorf("%s: %w", specifier, ErrNotFound)
}

// Specifiers returns the registered specifiers, sorted
func (r *StaticRegistry) Specifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.modules))
	for s := range r.modules {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// List returns registered specifiers matching a doublestar pattern
func (r *StaticRegistry) List(pattern string) ([]string, error) {
	return matchAll(r.Specifiers(), pattern)
}
