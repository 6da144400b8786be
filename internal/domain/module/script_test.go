package module_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/module"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/testutil"
)

const prototypeScript = `
function launch(context, target) {
	target.title("Prototype: " + context.section);
	target.render("<section>" + context.section + " is on its way</section>");
}
`

func writeScript(t *testing.T, root, specifier, src string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(specifier)+".js")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

func newScriptRegistry(t *testing.T, root string, opts ...module.ScriptOption) *module.ScriptRegistry {
	t.Helper()
	registry := module.NewScriptRegistry(root, opts...)
	require.NoError(t, registry.Reindex(context.Background()))
	return registry
}

func TestScriptRegistryLaunch(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "prototype/handler", prototypeScript)
	writeScript(t, root, "applications/matter-intake/handler", `
function launch(context, target) {
	console.log("launching", context.applicationId);
	target.title("Matter Intake");
	target.render("<form id='" + target.id + "'>" + context.specifier + "</form>");
}
`)
	registry := newScriptRegistry(t, root)
	assert.Equal(t, 2, registry.Len())

	mod, err := registry.TryLoad(context.Background(), "applications/matter-intake/handler")
	require.NoError(t, err)

	target := testutil.NewTarget("node-1", testutil.Key("concierge", "matter-intake"))
	err = mod.Launch(context.Background(), module.LaunchContext{
		Section:       "concierge",
		ApplicationID: "matter-intake",
		Specifier:     "applications/matter-intake/handler",
	}, target)
	require.NoError(t, err)

	assert.Equal(t, "Matter Intake", target.Title())
	assert.Equal(t, []string{"<form id='node-1'>applications/matter-intake/handler</form>"}, target.Fragments())
}

func TestScriptRegistryNotFound(t *testing.T) {
	registry := newScriptRegistry(t, t.TempDir())

	_, err := registry.TryLoad(context.Background(), "operations/hub/operations_hub")
	assert.ErrorIs(t, err, module.ErrNotFound)

	_, err = registry.TryLoad(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, module.ErrNotFound)
}

func TestScriptRegistryMissingRoot(t *testing.T) {
	registry := newScriptRegistry(t, filepath.Join(t.TempDir(), "absent"))
	assert.Equal(t, 0, registry.Len())
}

func TestScriptRegistryLoadErrors(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "broken/handler", `function launch( {`)
	writeScript(t, root, "nolaunch/handler", `var launch = 42;`)
	writeScript(t, root, "throws/handler", `throw new Error("bad module");`)
	registry := newScriptRegistry(t, root)

	for _, specifier := range []string{"broken/handler", "nolaunch/handler", "throws/handler"} {
		t.Run(specifier, func(t *testing.T) {
			_, err := registry.TryLoad(context.Background(), specifier)
			require.Error(t, err)
			assert.NotErrorIs(t, err, module.ErrNotFound)
		})
	}

	_, err := registry.TryLoad(context.Background(), "nolaunch/handler")
	assert.ErrorIs(t, err, module.ErrNoLaunch)
}

func TestScriptRegistryLaunchTimeout(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "spin/handler", `function launch(context, target) { for (;;) {} }`)
	registry := newScriptRegistry(t, root, module.WithLaunchTimeout(50*time.Millisecond))

	mod, err := registry.TryLoad(context.Background(), "spin/handler")
	require.NoError(t, err)

	err = mod.Launch(context.Background(), module.LaunchContext{Specifier: "spin/handler"},
		testutil.NewTarget("n", testutil.Key("s", "s")))
	assert.ErrorIs(t, err, module.ErrLaunchTimeout)
}

func TestScriptRegistryLaunchCancelled(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "spin/handler", `function launch(context, target) { for (;;) {} }`)
	registry := newScriptRegistry(t, root, module.WithLaunchTimeout(time.Minute))

	mod, err := registry.TryLoad(context.Background(), "spin/handler")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = mod.Launch(ctx, module.LaunchContext{}, testutil.NewTarget("n", testutil.Key("s", "s")))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScriptRegistryList(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "prototype/handler", prototypeScript)
	writeScript(t, root, "concierge/hub/concierge_hub", prototypeScript)
	writeScript(t, root, "concierge/applications/matter-intake/handler", prototypeScript)
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	registry := newScriptRegistry(t, root)

	all, err := registry.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"concierge/applications/matter-intake/handler",
		"concierge/hub/concierge_hub",
		"prototype/handler",
	}, all)

	concierge, err := registry.List("concierge/**")
	require.NoError(t, err)
	assert.Len(t, concierge, 2)

	_, err = registry.List("[")
	assert.Error(t, err)
}

func TestScriptRegistryWatch(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "prototype/handler", prototypeScript)
	registry := newScriptRegistry(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- registry.Watch(ctx) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	assert.Eventually(t, func() bool {
		writeScript(t, root, "prototype/late", prototypeScript)
		_, err := registry.TryLoad(context.Background(), "prototype/late")
		return err == nil
	}, 5*time.Second, 250*time.Millisecond)
}
