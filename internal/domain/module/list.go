package module

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Lister is implemented by registries that can enumerate their specifiers
type Lister interface {
	List(pattern string) ([]string, error)
}

// List returns the union of every listable layer's matches, sorted
func (l Layered) List(pattern string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, registry := range l {
		lister, ok := registry.(Lister)
		if !ok {
			continue
		}
		specs, err := lister.List(pattern)
		if err != nil {
			return nil, err
		}
		for _, s := range specs {
			seen[s] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func matchAll(specifiers []string, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	out := make([]string, 0)
	for _, s := range specifiers {
		if ok, _ := doublestar.Match(pattern, s); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
