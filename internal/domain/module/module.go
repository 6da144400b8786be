package module

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/types"
)

var (
	// ErrNotFound means a registry has no module for the specifier
	ErrNotFound = errors.New("module not found")
	// ErrNoModuleResolved means every candidate of a chain failed to load
	ErrNoModuleResolved = errors.New("no module resolved")
)

// LaunchContext is what a module learns about the action that launched it
type LaunchContext struct {
	Section       string `json:"section"`
	ApplicationID string `json:"application_id"`
	Specifier     string `json:"specifier"`
}

// Target is the mount node a module renders into
type Target interface {
	ID() string
	Key() types.InstanceKey
	SetTitle(title string)
	Render(fragment string)
}

// Module is a resolved feature module
type Module interface {
	Launch(ctx context.Context, lc LaunchContext, target Target) error
}

// Func adapts a function to Module
type Func func(ctx context.Context, lc LaunchContext, target Target) error

// Launch calls f
func (f Func) Launch(ctx context.Context, lc LaunchContext, target Target) error {
	return f(ctx, lc, target)
}

// Registry loads modules by specifier
type Registry interface {
	TryLoad(ctx context.Context, specifier string) (Module, error)
}

// ErrLaunchPanic wraps a panic raised by a module's Launch
var ErrLaunchPanic = errors.New("module panicked during launch")

// SafeLaunch runs mod.Launch and converts a panic into ErrLaunchPanic
func SafeLaunch(ctx context.Context, mod Module, lc LaunchContext, target Target) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: %v", lc.Specifier, ErrLaunchPanic, r)
		}
	}()
	return mod.Launch(ctx, lc, target)
}
