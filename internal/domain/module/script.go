package module

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/dop251/goja"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/utils"
)

// ScriptPattern selects script modules below the registry root
const ScriptPattern = "**/*.js"

const (
	defaultLaunchTimeout = 5 * time.Second
	reindexDebounce      = 100 * time.Millisecond
)

var (
	// ErrLaunchTimeout is returned when a script runs past its launch timeout
	ErrLaunchTimeout = errors.New("module launch timed out")
	// ErrNoLaunch is returned for a script that does not define launch()
	ErrNoLaunch = errors.New("script does not define a launch function")
)

// ScriptOption configures a ScriptRegistry
type ScriptOption func(*ScriptRegistry)

// WithLaunchTimeout bounds every script execution
func WithLaunchTimeout(d time.Duration) ScriptOption {
	return func(r *ScriptRegistry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the registry logger; scripts' console output goes here too
func WithLogger(logger *zap.Logger) ScriptOption {
	return func(r *ScriptRegistry) {
		r.logger = logging.OrNop(logger)
	}
}

// ScriptRegistry serves JavaScript modules stored as {root}/{specifier}.js.
// A script defines a global launch(context, target) function; target offers
// render(html), title(text) and id.
type ScriptRegistry struct {
	root    string
	timeout time.Duration
	logger  *zap.Logger

	mu    sync.RWMutex
	index map[string]string // specifier -> file path
}

// NewScriptRegistry creates a registry rooted at root. Call Reindex before use.
func NewScriptRegistry(root string, opts ...ScriptOption) *ScriptRegistry {
	r := &ScriptRegistry{
		root:    root,
		timeout: defaultLaunchTimeout,
		logger:  zap.NewNop(),
		index:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the directory scripts are served from
func (r *ScriptRegistry) Root() string {
	return r.root
}

// Reindex rebuilds the specifier index from disk. A missing root yields an
// empty index.
func (r *ScriptRegistry) Reindex(ctx context.Context) error {
	index := make(map[string]string)

	if _, err := os.Stat(r.root); errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("module root does not exist", zap.String("root", r.root))
		r.swap(index)
		return nil
	}

	var mu sync.Mutex
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, r.root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(r.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if ok, _ := doublestar.Match(ScriptPattern, rel); !ok {
			return nil
		}

		specifier := strings.TrimSuffix(rel, ".js")
		if err := utils.ValidateSpecifier(specifier); err != nil {
			r.logger.Debug("skipping script with unusable name", zap.String("path", p), zap.Error(err))
			return nil
		}

		mu.Lock()
		index[specifier] = p
		mu.Unlock()
		return nil
	})
	if err != nil {
		return fmt.Errorf("index modules in %s: %w", r.root, err)
	}

	r.swap(index)
	r.logger.Info("module index built", zap.String("root", r.root), zap.Int("modules", len(index)))
	return nil
}

func (r *ScriptRegistry) swap(index map[string]string) {
	r.mu.Lock()
	r.index = index
	r.mu.Unlock()
}

// Len returns the number of indexed scripts
func (r *ScriptRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.index)
}

// List returns indexed specifiers matching a doublestar pattern, sorted
func (r *ScriptRegistry) List(pattern string) ([]string, error) {
	r.mu.RLock()
	specifiers := make([]string, 0, len(r.index))
	for specifier := range r.index {
		specifiers = append(specifiers, specifier)
	}
	r.mu.RUnlock()

	sort.Strings(specifiers)
	return matchAll(specifiers, pattern)
}

// TryLoad compiles the script for specifier and checks it defines launch.
// Unknown specifiers return ErrNotFound; compile or evaluation failures
// return other errors.
func (r *ScriptRegistry) TryLoad(ctx context.Context, specifier string) (Module, error) {
	if err := utils.ValidateSpecifier(specifier); err != nil {
		return nil, fmt.Errorf("%s: %w", specifier, ErrNotFound)
	}

	r.mu.RLock()
	path, ok := r.index[specifier]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", specifier, ErrNotFound)
	}

	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", specifier, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	program, err := goja.Compile(path, string(src), true)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", specifier, err)
	}

	mod := &scriptModule{registry: r, specifier: specifier, program: program}

	vm := r.newVM(specifier)
	stop := r.guard(ctx, vm)
	defer stop()
	if _, err := mod.launchFunc(vm); err != nil {
		return nil, err
	}
	return mod, nil
}

// Watch keeps the index current until ctx is done
func (r *ScriptRegistry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := r.watchTree(ctx, watcher); err != nil {
		return err
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						r.logger.Warn("failed to watch directory", zap.String("dir", event.Name), zap.Error(err))
					}
				}
			}
			pending = time.After(reindexDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("module watcher error", zap.Error(err))

		case <-pending:
			pending = nil
			if err := r.Reindex(ctx); err != nil && ctx.Err() == nil {
				r.logger.Warn("module reindex failed", zap.Error(err))
			}
		}
	}
}

func (r *ScriptRegistry) watchTree(ctx context.Context, watcher *fsnotify.Watcher) error {
	var mu sync.Mutex
	var dirs []string
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, r.root, func(p string, d os.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil && d.IsDir() {
			mu.Lock()
			dirs = append(dirs, p)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", r.root, err)
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	r.logger.Info("watching module root", zap.String("root", r.root), zap.Int("dirs", len(dirs)))
	return nil
}

func (r *ScriptRegistry) newVM(specifier string) *goja.Runtime {
	vm := goja.New()
	vm.SetMaxCallStackSize(1024)

	_ = vm.Set("require", goja.Undefined())
	_ = vm.Set("process", goja.Undefined())
	_ = vm.Set("module", goja.Undefined())
	_ = vm.Set("exports", goja.Undefined())

	logger := r.logger.With(zap.String("module", specifier))
	console := vm.NewObject()
	_ = console.Set("log", func(call goja.FunctionCall) goja.Value {
		logger.Debug(joinArgs(call))
		return goja.Undefined()
	})
	_ = console.Set("warn", func(call goja.FunctionCall) goja.Value {
		logger.Warn(joinArgs(call))
		return goja.Undefined()
	})
	_ = vm.Set("console", console)
	return vm
}

// guard interrupts vm on timeout or ctx cancellation; call the result when done
func (r *ScriptRegistry) guard(ctx context.Context, vm *goja.Runtime) func() {
	timer := time.AfterFunc(r.timeout, func() { vm.Interrupt(ErrLaunchTimeout) })
	stopCtx := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
	return func() {
		timer.Stop()
		stopCtx()
	}
}

func joinArgs(call goja.FunctionCall) string {
	parts := make([]string, len(call.Arguments))
	for i, arg := range call.Arguments {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}

type scriptModule struct {
	registry  *ScriptRegistry
	specifier string
	program   *goja.Program
}

// launchFunc evaluates the program in vm and returns its launch function
func (m *scriptModule) launchFunc(vm *goja.Runtime) (goja.Callable, error) {
	if _, err := vm.RunProgram(m.program); err != nil {
		return nil, scriptError(m.specifier, "evaluate", err)
	}
	launch, ok := goja.AssertFunction(vm.Get("launch"))
	if !ok {
		return nil, fmt.Errorf("%s: %w", m.specifier, ErrNoLaunch)
	}
	return launch, nil
}

// Launch runs the script in a fresh VM against target
func (m *scriptModule) Launch(ctx context.Context, lc LaunchContext, target Target) error {
	vm := m.registry.newVM(m.specifier)
	stop := m.registry.guard(ctx, vm)
	defer stop()

	launch, err := m.launchFunc(vm)
	if err != nil {
		return err
	}

	info := vm.NewObject()
	_ = info.Set("section", lc.Section)
	_ = info.Set("applicationId", lc.ApplicationID)
	_ = info.Set("specifier", lc.Specifier)

	mount := vm.NewObject()
	_ = mount.Set("id", target.ID())
	_ = mount.Set("render", func(call goja.FunctionCall) goja.Value {
		target.Render(call.Argument(0).String())
		return goja.Undefined()
	})
	_ = mount.Set("title", func(call goja.FunctionCall) goja.Value {
		target.SetTitle(call.Argument(0).String())
		return goja.Undefined()
	})

	if _, err := launch(goja.Undefined(), info, mount); err != nil {
		return scriptError(m.specifier, "launch", err)
	}
	return nil
}

func scriptError(specifier, phase string, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return fmt.Errorf("%s: %s: %w", specifier, phase, cause)
		}
	}
	return fmt.Errorf("%s: %s: %w", specifier, phase, err)
}
