package module

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/monitoring"
)

// Attempt records one candidate tried during resolution
type Attempt struct {
	Specifier string        `json:"specifier"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	err       error
}

// Err returns the load error, nil for the successful attempt
func (a Attempt) Err() error { return a.err }

// Resolution is the result of walking a chain
type Resolution struct {
	Specifier string    `json:"specifier,omitempty"`
	Module    Module    `json:"-"`
	Attempts  []Attempt `json:"attempts"`
}

// Resolver walks candidate chains against a registry
type Resolver struct {
	registry Registry
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// NewResolver creates a resolver over registry
func NewResolver(registry Registry, logger *zap.Logger) *Resolver {
	return &Resolver{registry: registry, logger: logging.OrNop(logger)}
}

// WithMetrics adds metrics tracking to the resolver
func (r *Resolver) WithMetrics(metrics *monitoring.Metrics) *Resolver {
	r.metrics = metrics
	return r
}

// Resolve tries each candidate in order and returns the first that loads.
// The Resolution is returned on failure too so callers can report attempts.
func (r *Resolver) Resolve(ctx context.Context, chain []string) (*Resolution, error) {
	res := &Resolution{Attempts: make([]Attempt, 0, len(chain))}
	if len(chain) == 0 {
		r.metrics.RecordResolution("empty", 0)
		return res, fmt.Errorf("%w: empty candidate chain", ErrNoModuleResolved)
	}

	var errs []error
	for _, specifier := range chain {
		if err := ctx.Err(); err != nil {
			r.metrics.RecordResolution("cancelled", len(res.Attempts))
			return res, err
		}

		start := time.Now()
		mod, err := r.registry.TryLoad(ctx, specifier)
		attempt := Attempt{Specifier: specifier, Duration: time.Since(start), err: err}
		if err == nil && mod == nil {
			err = fmt.Errorf("%s: registry returned no module", specifier)
			attempt.err = err
		}
		if err != nil {
			attempt.Error = err.Error()
		}
		res.Attempts = append(res.Attempts, attempt)

		if err == nil {
			r.metrics.RecordLoadAttempt("loaded")
			r.metrics.RecordResolution("resolved", len(res.Attempts))
			res.Specifier = specifier
			res.Module = mod
			r.logger.Debug("module resolved",
				zap.String("specifier", specifier),
				zap.Int("depth", len(res.Attempts)))
			return res, nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			r.metrics.RecordResolution("cancelled", len(res.Attempts))
			return res, err
		}

		if errors.Is(err, ErrNotFound) {
			r.metrics.RecordLoadAttempt("not_found")
		} else {
			r.metrics.RecordLoadAttempt("error")
			r.logger.Warn("module failed to load",
				zap.String("specifier", specifier),
				zap.Error(err))
		}
		errs = append(errs, err)
	}

	r.metrics.RecordResolution("exhausted", len(res.Attempts))
	return res, fmt.Errorf("%w after %d candidates: %w", ErrNoModuleResolved, len(chain), errors.Join(errs...))
}
