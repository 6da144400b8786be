package console

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/events"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/instance"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/module"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/window"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/id"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/types"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/utils"
)

var (
	// ErrNoSelection means the confirmed group has no selected program
	ErrNoSelection = errors.New("no program selected")
	// ErrConsoleClosed means no console is open
	ErrConsoleClosed = errors.New("console is not open")
	// ErrUnknownGroup means the open catalog has no such group
	ErrUnknownGroup = errors.New("unknown program group")
	// ErrUnknownProgram means the group has no such program
	ErrUnknownProgram = errors.New("unknown program")
	// ErrInvalidCatalog means Open was given an unusable document
	ErrInvalidCatalog = errors.New("invalid catalog document")
)

// Event types
const (
	EventOpened   = "console.opened"
	EventClosed   = "console.closed"
	EventSelected = "console.selected"
	EventNotice   = "console.notice"
)

const (
	promptMessage  = "Select a program before launching."
	failureMessage = "The program could not be started. Try again or open it directly."
)

// Mounter is the part of the instance manager the console drives
type Mounter interface {
	Mount(ctx context.Context, key types.InstanceKey, specifier string, factory instance.Factory) (*types.Instance, error)
	Unmount() bool
}

// Resolver walks a module candidate chain
type Resolver interface {
	Resolve(ctx context.Context, chain []string) (*module.Resolution, error)
}

// Result describes a confirmation
type Result struct {
	Instance    *types.Instance        `json:"instance,omitempty"`
	Specifier   string                 `json:"specifier,omitempty"`
	FallbackURL string                 `json:"fallback_url,omitempty"`
	Resolution  *module.Resolution     `json:"resolution,omitempty"`
	Console     *types.ConsoleSnapshot `json:"console"`
}

type console struct {
	id         string
	section    string
	doc        *types.CatalogDocument
	selections map[string]string
	notice     *types.Notice
}

// Manager owns the console singleton
type Manager struct {
	mu      sync.Mutex
	current *console // Protected by mu

	instances Mounter
	resolver  Resolver
	bus       *events.Bus
	logger    *zap.Logger
	metrics   *monitoring.Metrics
}

// NewManager creates a console manager. bus may be nil.
func NewManager(instances Mounter, resolver Resolver, bus *events.Bus, logger *zap.Logger) *Manager {
	if bus == nil {
		bus = events.NewBus(0)
	}
	return &Manager{
		instances: instances,
		resolver:  resolver,
		bus:       bus,
		logger:    logging.OrNop(logger),
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Open closes any open console and opens one for doc with nothing selected
func (m *Manager) Open(section string, doc *types.CatalogDocument) (*types.ConsoleSnapshot, error) {
	if err := utils.ValidateID(section, "section", true); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrInvalidCatalog)
	}

	c := &console{
		id:         id.NewConsoleID().String(),
		section:    section,
		doc:        cloneDocument(doc),
		selections: make(map[string]string, len(doc.ProgramGroups)),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeLocked()
	m.current = c
	m.metrics.SetConsoleOpen(true)

	snap := c.snapshot()
	m.bus.Publish(events.TopicConsole, EventOpened, snap)
	m.logger.Info("console opened",
		zap.String("console", c.id),
		zap.String("section", section),
		zap.Int("groups", len(c.doc.ProgramGroups)))
	return snap, nil
}

// Select records program as the choice for group; other groups are untouched
func (m *Manager) Select(group, program string) (*types.ConsoleSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.current
	if c == nil {
		return nil, ErrConsoleClosed
	}
	g, ok := c.doc.Group(group)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	if _, ok := g.Program(program); !ok {
		return nil, fmt.Errorf("%w: %q in group %q", ErrUnknownProgram, program, group)
	}

	c.selections[group] = program
	c.notice = nil

	m.bus.Publish(events.ConsoleTopic(c.id), EventSelected, map[string]string{"group": group, "program": program})
	return c.snapshot(), nil
}

// ConfirmLaunch launches the program selected in group.
//
// Without a selection it returns ErrNoSelection and sets a prompt notice;
// nothing else changes. Otherwise the current instance is removed, the
// program's chain is resolved and mounted, and the console closes. On
// failure the console stays open (it is reopened if it was closed meanwhile)
// with a retry notice, and the error wraps module.ErrNoModuleResolved or the
// launch error.
func (m *Manager) ConfirmLaunch(ctx context.Context, group string) (*Result, error) {
	return m.confirm(ctx, "", group)
}

// ConfirmSection is ConfirmLaunch pinned to the console opened for section.
// If no console is open, or the open one belongs to another section, it
// returns ErrConsoleClosed and changes nothing.
func (m *Manager) ConfirmSection(ctx context.Context, section, group string) (*Result, error) {
	return m.confirm(ctx, section, group)
}

func (m *Manager) confirm(ctx context.Context, expect, group string) (*Result, error) {
	m.mu.Lock()
	c := m.current
	if c == nil {
		m.mu.Unlock()
		return nil, ErrConsoleClosed
	}
	if expect != "" && c.section != expect {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: open console belongs to %q, not %q", ErrConsoleClosed, c.section, expect)
	}
	if _, ok := c.doc.Group(group); !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	program := c.selections[group]
	if program == "" {
		c.notice = &types.Notice{Kind: types.NoticePrompt, Message: promptMessage}
		m.bus.Publish(events.ConsoleTopic(c.id), EventNotice, *c.notice)
		snap := c.snapshot()
		m.mu.Unlock()

		m.metrics.RecordConfirm("no_selection")
		return &Result{Console: snap}, fmt.Errorf("%w in group %q", ErrNoSelection, group)
	}
	section := c.section
	m.mu.Unlock()

	m.instances.Unmount()

	res, err := m.resolver.Resolve(ctx, module.ProgramChain(section, program))
	if err != nil {
		m.metrics.RecordConfirm("unresolved")
		return m.fail(c, program, res, err)
	}

	key := types.InstanceKey{OriginSection: section, ApplicationID: program}
	lc := module.LaunchContext{Section: section, ApplicationID: program, Specifier: res.Specifier}
	inst, err := m.instances.Mount(ctx, key, res.Specifier, func(ctx context.Context, node *window.Node) error {
		return module.SafeLaunch(ctx, res.Module, lc, node)
	})
	if err != nil {
		m.metrics.RecordConfirm("launch_failed")
		return m.fail(c, program, res, err)
	}

	m.mu.Lock()
	if m.current == c {
		m.closeLocked()
	}
	m.mu.Unlock()

	m.metrics.RecordConfirm("mounted")
	m.logger.Info("program launched",
		zap.String("section", section),
		zap.String("program", program),
		zap.String("specifier", res.Specifier))

	return &Result{
		Instance:   inst,
		Specifier:  res.Specifier,
		Resolution: res,
		Console:    m.Snapshot(),
	}, nil
}

func (m *Manager) fail(c *console, program string, res *module.Resolution, cause error) (*Result, error) {
	fallback := module.FallbackURL(program, c.section)
	notice := &types.Notice{
		Kind:        types.NoticeFailure,
		Message:     failureMessage,
		Retry:       true,
		FallbackURL: fallback,
	}

	m.mu.Lock()
	switch m.current {
	case c:
		c.notice = notice
		m.bus.Publish(events.ConsoleTopic(c.id), EventNotice, *notice)
	case nil:
		c.notice = notice
		m.current = c
		m.metrics.SetConsoleOpen(true)
		m.bus.Publish(events.TopicConsole, EventOpened, c.snapshot())
	default:
		// Another console replaced this one; leave it alone
	}
	snap := m.current.snapshot()
	m.mu.Unlock()

	m.logger.Warn("program launch failed",
		zap.String("section", c.section),
		zap.String("program", program),
		zap.String("fallback", fallback),
		zap.Error(cause))

	return &Result{FallbackURL: fallback, Resolution: res, Console: snap}, cause
}

// Close closes the open console; closing when none is open is a no-op
func (m *Manager) Close() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked()
}

// closeLocked closes the current console (must hold mu)
func (m *Manager) closeLocked() bool {
	c := m.current
	if c == nil {
		return false
	}
	m.current = nil

	topic := events.ConsoleTopic(c.id)
	m.bus.Publish(topic, EventClosed, c.id)
	m.bus.CloseTopic(topic)
	m.bus.Publish(events.TopicConsole, EventClosed, map[string]string{"id": c.id, "section": c.section})
	m.metrics.SetConsoleOpen(false)

	m.logger.Debug("console closed", zap.String("console", c.id), zap.String("section", c.section))
	return true
}

// Subscribe listens to the open console. The subscription ends when that
// console closes or is replaced.
func (m *Manager) Subscribe() (*events.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrConsoleClosed
	}
	return m.bus.Subscribe(events.ConsoleTopic(m.current.id)), nil
}

// Snapshot returns the console view; State is closed when none is open
func (m *Manager) Snapshot() *types.ConsoleSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return &types.ConsoleSnapshot{State: types.ConsoleClosed}
	}
	return m.current.snapshot()
}

// Section returns the section of the open console
func (m *Manager) Section() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return "", false
	}
	return m.current.section, true
}

// snapshot must be called with the manager lock held
func (c *console) snapshot() *types.ConsoleSnapshot {
	selections := make(map[string]string, len(c.selections))
	for g, p := range c.selections {
		selections[g] = p
	}
	var notice *types.Notice
	if c.notice != nil {
		n := *c.notice
		notice = &n
	}
	return &types.ConsoleSnapshot{
		ID:         c.id,
		Section:    c.section,
		Title:      c.doc.Title,
		State:      types.ConsoleOpen,
		Groups:     cloneDocument(c.doc).ProgramGroups,
		Selections: selections,
		Notice:     notice,
	}
}

func cloneDocument(doc *types.CatalogDocument) *types.CatalogDocument {
	out := &types.CatalogDocument{Title: doc.Title}
	if doc.ProgramGroups != nil {
		out.ProgramGroups = make([]types.ProgramGroup, len(doc.ProgramGroups))
		for i, g := range doc.ProgramGroups {
			g.Programs = append([]types.Program(nil), g.Programs...)
			out.ProgramGroups[i] = g
		}
	}
	return out
}
