package module

import (
	"context"
	"errors"
	"fmt"
)

// Layered consults registries in order for each specifier
type Layered []Registry

// TryLoad returns the first layer's module. A load error in one layer is
// reported only if no later layer has the module either.
func (l Layered) TryLoad(ctx context.Context, specifier string) (Module, error) {
	var loadErr error
	for _, registry := range l {
		mod, err := registry.TryLoad(ctx, specifier)
		if err == nil {
			return mod, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if !errors.Is(err, ErrNotFound) && loadErr == nil {
			loadErr = err
		}
	}
	if loadErr != nil {
		return nil, loadErr
	}
	return nil, fmt.Errorf("%s: %w", specifier, ErrNotFound)
}
