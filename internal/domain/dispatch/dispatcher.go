package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/catalog"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/console"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/module"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/window"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/types"
)

var (
	// ErrUnknownNavigationType is reported for an item whose type has no dispatch path
	ErrUnknownNavigationType = errors.New("unknown navigation type")
	// ErrDispatchInFlight is reported when the section already has a dispatch outstanding
	ErrDispatchInFlight = errors.New("dispatch already in flight for section")
	// ErrUnknownItem is returned for an id missing from the navigation catalog
	ErrUnknownItem = errors.New("unknown navigation item")
)

const (
	comingSoonMessage = "This section is coming soon."
	busyMessage       = "This section is still loading."
)

// Items looks up navigation items by id
type Items interface {
	Get(id string) (types.NavigationItem, bool)
}

// Consoles is the part of the console manager the dispatcher drives
type Consoles interface {
	Open(section string, doc *types.CatalogDocument) (*types.ConsoleSnapshot, error)
	ConfirmSection(ctx context.Context, section, group string) (*console.Result, error)
	Section() (string, bool)
}

// Instances is the part of the instance manager the dispatcher drives
type Instances interface {
	console.Mounter
	ShowTerminal(section, message, fallbackURL string) bool
}

// Dependencies are the collaborators a Dispatcher routes between
type Dependencies struct {
	Items     Items
	Fetcher   catalog.Fetcher
	Consoles  Consoles
	Instances Instances
	Resolver  console.Resolver
	Logger    *zap.Logger
	Metrics   *monitoring.Metrics
}

// Dispatcher is the entry point for navigation actions
type Dispatcher struct {
	items     Items
	fetcher   catalog.Fetcher
	consoles  Consoles
	instances Instances
	resolver  console.Resolver
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	mu       sync.Mutex
	inflight map[string]struct{} // Protected by mu
}

// New creates a dispatcher
func New(deps Dependencies) *Dispatcher {
	return &Dispatcher{
		items:     deps.Items,
		fetcher:   deps.Fetcher,
		consoles:  deps.Consoles,
		instances: deps.Instances,
		resolver:  deps.Resolver,
		logger:    logging.OrNop(deps.Logger),
		metrics:   deps.Metrics,
		inflight:  make(map[string]struct{}),
	}
}

// DispatchID dispatches the catalog item with id
func (d *Dispatcher) DispatchID(ctx context.Context, id string) (*types.Outcome, error) {
	if d.items == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	item, ok := d.items.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	return d.Dispatch(ctx, item), nil
}

// Dispatch handles one navigation action and reports what it left on screen
func (d *Dispatcher) Dispatch(ctx context.Context, item types.NavigationItem) *types.Outcome {
	section := item.ID
	timer := monitoring.NewTimer(d.metrics, string(item.Type))

	if !item.Type.Known() {
		d.logger.Warn("ignoring navigation item with unknown type",
			zap.String("section", section),
			zap.String("type", string(item.Type)))
		out := &types.Outcome{
			Kind:    types.OutcomeIgnored,
			Section: section,
			Err:     fmt.Errorf("%w: %q", ErrUnknownNavigationType, item.Type),
		}
		timer.Stop(string(out.Kind))
		return out
	}

	if !d.acquire(section) {
		timer.Stop(string(types.OutcomeBusy))
		return d.busy(section)
	}
	defer d.release(section)

	var out *types.Outcome
	switch item.Type {
	case types.NavApplicationsPackage:
		out = d.openConsole(ctx, section)
	case types.NavRunningBoard:
		out = d.mountChain(ctx, section, module.RunningBoardChain(section), module.FallbackURL(section, section))
	case types.NavTableReporting:
		out = d.mountChain(ctx, section, module.TableReportChain(section), "")
	}

	timer.Stop(string(out.Kind))
	return out
}

// Confirm launches the program selected in group of the open console
func (d *Dispatcher) Confirm(ctx context.Context, group string) *types.Outcome {
	timer := monitoring.NewTimer(d.metrics, "confirm")

	section, ok := d.consoles.Section()
	if !ok {
		timer.Stop(string(types.OutcomeIgnored))
		return &types.Outcome{Kind: types.OutcomeIgnored, Err: console.ErrConsoleClosed}
	}

	if !d.acquire(section) {
		timer.Stop(string(types.OutcomeBusy))
		return d.busy(section)
	}
	defer d.release(section)

	res, err := d.consoles.ConfirmSection(ctx, section, group)
	out := &types.Outcome{Section: section, Err: err}
	if res != nil {
		out.Console = res.Console
		out.Specifier = res.Specifier
		out.FallbackURL = res.FallbackURL
		out.Instance = res.Instance
	}

	switch {
	case err == nil:
		out.Kind = types.OutcomeMounted
	case errors.Is(err, console.ErrNoSelection):
		out.Kind = types.OutcomePrompt
		if out.Console != nil && out.Console.Notice != nil {
			out.Message = out.Console.Notice.Message
		}
	case errors.Is(err, console.ErrConsoleClosed), errors.Is(err, console.ErrUnknownGroup):
		out.Kind = types.OutcomeIgnored
	default:
		out.Kind = types.OutcomeFailed
		if out.Console != nil && out.Console.Notice != nil {
			out.Message = out.Console.Notice.Message
		}
	}

	timer.Stop(string(out.Kind))
	return out
}

// InFlight reports whether section has a dispatch outstanding
func (d *Dispatcher) InFlight(section string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inflight[section]
	return ok
}

func (d *Dispatcher) openConsole(ctx context.Context, section string) *types.Outcome {
	doc, err := d.fetcher.Fetch(ctx, section)
	if err != nil {
		d.logger.Warn("catalog unavailable", zap.String("section", section), zap.Error(err))
		return d.comingSoon(section, "", err)
	}

	snap, err := d.consoles.Open(section, doc)
	if err != nil {
		return d.comingSoon(section, "", err)
	}
	return &types.Outcome{Kind: types.OutcomeConsoleOpened, Section: section, Console: snap}
}

func (d *Dispatcher) mountChain(ctx context.Context, section string, chain []string, fallback string) *types.Outcome {
	res, err := d.resolver.Resolve(ctx, chain)
	if err != nil {
		d.logger.Warn("no module resolved",
			zap.String("section", section),
			zap.Strings("chain", chain),
			zap.Error(err))
		return d.comingSoon(section, fallback, err)
	}

	key := types.InstanceKey{OriginSection: section, ApplicationID: section}
	lc := module.LaunchContext{Section: section, ApplicationID: section, Specifier: res.Specifier}
	inst, err := d.instances.Mount(ctx, key, res.Specifier, func(ctx context.Context, node *window.Node) error {
		return module.SafeLaunch(ctx, res.Module, lc, node)
	})
	if err != nil {
		out := d.comingSoon(section, fallback, err)
		out.Specifier = res.Specifier
		return out
	}

	return &types.Outcome{
		Kind:      types.OutcomeMounted,
		Section:   section,
		Specifier: res.Specifier,
		Instance:  inst,
	}
}

func (d *Dispatcher) comingSoon(section, fallback string, err error) *types.Outcome {
	d.instances.ShowTerminal(section, comingSoonMessage, fallback)
	return &types.Outcome{
		Kind:        types.OutcomeComingSoon,
		Section:     section,
		FallbackURL: fallback,
		Message:     comingSoonMessage,
		Err:         err,
	}
}

func (d *Dispatcher) busy(section string) *types.Outcome {
	d.logger.Debug("dispatch rejected, section busy", zap.String("section", section))
	return &types.Outcome{
		Kind:    types.OutcomeBusy,
		Section: section,
		Message: busyMessage,
		Err:     fmt.Errorf("%w: %s", ErrDispatchInFlight, section),
	}
}

func (d *Dispatcher) acquire(section string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.inflight[section]; busy {
		return false
	}
	d.inflight[section] = struct{}{}
	return true
}

func (d *Dispatcher) release(section string) {
	d.mu.Lock()
	delete(d.inflight, section)
	d.mu.Unlock()
}
