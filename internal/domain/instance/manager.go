package instance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/window"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/id"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/types"
)

// Factory renders an application into its freshly created node
type Factory func(ctx context.Context, node *window.Node) error

// Manager owns the single active instance
type Manager struct {
	mu      sync.Mutex
	current *types.Instance // Protected by mu
	node    *window.Node    // Protected by mu

	totalMounts  int64 // Protected by mu
	replacements int64 // Protected by mu
	unmounts     int64 // Protected by mu

	window  *window.Window
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewManager creates a manager mounting into w
func NewManager(w *window.Window, logger *zap.Logger) *Manager {
	return &Manager{
		window: w,
		logger: logging.OrNop(logger),
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Mount removes the current instance, then creates a node tagged with key,
// attaches it and runs factory against it. If factory fails the node is
// detached and no instance remains.
func (m *Manager) Mount(ctx context.Context, key types.InstanceKey, specifier string, factory Factory) (*types.Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	replaced := m.removeLocked()

	node := m.window.NewNode(key)
	m.window.Attach(node)

	if err := factory(ctx, node); err != nil {
		m.window.Detach(node.ID())
		m.logger.Warn("instance launch failed",
			zap.String("section", key.OriginSection),
			zap.String("application", key.ApplicationID),
			zap.String("specifier", specifier),
			zap.Error(err))
		return nil, fmt.Errorf("launch %s: %w", specifier, err)
	}

	inst := &types.Instance{
		ID:        id.NewInstanceID().String(),
		Key:       key,
		Specifier: specifier,
		NodeID:    node.ID(),
		MountedAt: time.Now(),
	}
	m.current = inst
	m.node = node
	m.totalMounts++
	if replaced {
		m.replacements++
	}
	m.metrics.RecordMount(replaced)

	m.logger.Info("instance mounted",
		zap.String("instance", inst.ID),
		zap.String("section", key.OriginSection),
		zap.String("application", key.ApplicationID),
		zap.String("specifier", specifier),
		zap.Bool("replaced", replaced))

	instCopy := *inst
	return &instCopy, nil
}

// Unmount removes the current instance; it reports whether one existed
func (m *Manager) Unmount() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked()
}

// ShowTerminal removes the current instance and puts the window into the
// section's terminal state. It reports whether an instance was removed.
func (m *Manager) ShowTerminal(section, message, fallbackURL string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := m.removeLocked()
	m.window.ShowTerminal(section, message, fallbackURL)
	return removed
}

// removeLocked drops the current instance (must hold mu)
func (m *Manager) removeLocked() bool {
	if m.current == nil {
		return false
	}

	m.window.Detach(m.node.ID())
	m.logger.Debug("instance unmounted",
		zap.String("instance", m.current.ID),
		zap.String("section", m.current.Key.OriginSection))

	m.current = nil
	m.node = nil
	m.unmounts++
	m.metrics.RecordUnmount()
	return true
}

// Current returns a copy of the active instance
func (m *Manager) Current() (*types.Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, false
	}
	instCopy := *m.current
	return &instCopy, true
}

// Stats returns manager statistics
func (m *Manager) Stats() types.InstanceStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current *types.InstanceKey
	if m.current != nil {
		key := m.current.Key
		current = &key
	}

	return types.InstanceStats{
		Mounted:      m.current != nil,
		Current:      current,
		TotalMounts:  m.totalMounts,
		Replacements: m.replacements,
		Unmounts:     m.unmounts,
	}
}
