// Package testutil provides fakes and mocks shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/module"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/types"
)

// MockRegistry is a testify mock of module.Registry.
type MockRegistry struct {
	mock.Mock
}

// TryLoad mocks the TryLoad method.
func (m *MockRegistry) TryLoad(ctx context.Context, specifier string) (module.Module, error) {
	args := m.Called(ctx, specifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(module.Module), args.Error(1)
}

// FakeRegistry serves a fixed set of modules and records every lookup.
// Specifiers mapped to an error fail with it; unknown ones are not found.
type FakeRegistry struct {
	mu       sync.Mutex
	modules  map[string]module.Module
	failures map[string]error
	attempts []string
}

// NewFakeRegistry creates an empty fake registry.
func NewFakeRegistry() *FakeRegistry {
	return &FakeRegistry{
		modules:  make(map[string]module.Module),
		failures: make(map[string]error),
	}
}

// Add registers a module under specifier.
func (r *FakeRegistry) Add(specifier string, mod module.Module) *FakeRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[specifier] = mod
	return r
}

// Fail makes specifier fail to load with err.
func (r *FakeRegistry) Fail(specifier string, err error) *FakeRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[specifier] = err
	return r
}

// TryLoad implements module.Registry.
func (r *FakeRegistry) TryLoad(ctx context.Context, specifier string) (module.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, specifier)
	if err, ok := r.failures[specifier]; ok {
		return nil, err
	}
	if mod, ok := r.modules[specifier]; ok {
		return mod, nil
	}
	return nil, fmt.Errorf("%s: %w", specifier, module.ErrNotFound)
}

// Attempts returns the specifiers looked up so far, in order.
func (r *FakeRegistry) Attempts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.attempts...)
}

// Reset clears the recorded attempts.
func (r *FakeRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = nil
}

// Renderer returns a module that renders fragment and sets title.
func Renderer(title, fragment string) module.Module {
	return module.Func(func(ctx context.Context, lc module.LaunchContext, target module.Target) error {
		target.SetTitle(title)
		target.Render(fragment)
		return nil
	})
}

// Failing returns a module whose launch fails with err.
func Failing(err error) module.Module {
	return module.Func(func(ctx context.Context, lc module.LaunchContext, target module.Target) error {
		return err
	})
}

// Blocking returns a module that signals started and then waits for release
// or ctx before rendering.
func Blocking(started chan<- struct{}, release <-chan struct{}) module.Module {
	return module.Func(func(ctx context.Context, lc module.LaunchContext, target module.Target) error {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
		target.Render("released " + lc.Specifier)
		return nil
	})
}

// Target records what a module did to its mount node.
type Target struct {
	NodeID  string
	NodeKey types.InstanceKey

	mu        sync.Mutex
	title     string
	fragments []string
}

// NewTarget creates a recording target.
func NewTarget(id string, key types.InstanceKey) *Target {
	return &Target{NodeID: id, NodeKey: key}
}

func (t *Target) ID() string             { return t.NodeID }
func (t *Target) Key() types.InstanceKey { return t.NodeKey }

func (t *Target) SetTitle(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.title = title
}

func (t *Target) Render(fragment string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fragments = append(t.fragments, fragment)
}

// Title returns the last title set.
func (t *Target) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// Fragments returns everything rendered, in order.
func (t *Target) Fragments() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.fragments...)
}

// Key builds an instance key.
func Key(section, applicationID string) types.InstanceKey {
	return types.InstanceKey{OriginSection: section, ApplicationID: applicationID}
}
