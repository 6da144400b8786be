package module_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/module"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/testutil"
)

func TestResolveTriesInOrderAndStopsAtFirstSuccess(t *testing.T) {
	registry := testutil.NewFakeRegistry().
		Fail("a/handler", errors.New("syntax error")).
		Add("c/handler", testutil.Renderer("C", "c")).
		Add("d/handler", testutil.Renderer("D", "d"))

	res, err := module.NewResolver(registry, nil).Resolve(context.Background(),
		[]string{"a/handler", "b/handler", "c/handler", "d/handler"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a/handler", "b/handler", "c/handler"}, registry.Attempts())
	assert.Equal(t, "c/handler", res.Specifier)
	require.Len(t, res.Attempts, 3)
	assert.NotEmpty(t, res.Attempts[0].Error)
	assert.ErrorIs(t, res.Attempts[1].Err(), module.ErrNotFound)
	assert.NoError(t, res.Attempts[2].Err())
}

func TestResolveExhausted(t *testing.T) {
	boom := errors.New("boom")
	registry := testutil.NewFakeRegistry().Fail("b/handler", boom)

	res, err := module.NewResolver(registry, nil).Resolve(context.Background(), []string{"a/handler", "b/handler"})
	require.Error(t, err)
	assert.ErrorIs(t, err, module.ErrNoModuleResolved)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, module.ErrNotFound)
	assert.Len(t, res.Attempts, 2)
	assert.Nil(t, res.Module)
}

func TestResolveEmptyChain(t *testing.T) {
	_, err := module.NewResolver(testutil.NewFakeRegistry(), nil).Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, module.ErrNoModuleResolved)
}

func TestResolveStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	registry := new(testutil.MockRegistry)
	registry.On("TryLoad", mock.Anything, "a/handler").
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, fmt.Errorf("a/handler: %w", module.ErrNotFound))

	_, err := module.NewResolver(registry, nil).Resolve(ctx, []string{"a/handler", "b/handler"})
	assert.ErrorIs(t, err, context.Canceled)
	registry.AssertNumberOfCalls(t, "TryLoad", 1)
}

func TestResolveProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "candidates")
		present := rapid.SliceOfN(rapid.Bool(), n, n).Draw(t, "present")

		registry := testutil.NewFakeRegistry()
		chain := make([]string, n)
		first := -1
		for i := range chain {
			chain[i] = fmt.Sprintf("candidate%d/handler", i)
			if present[i] {
				registry.Add(chain[i], testutil.Renderer("", ""))
				if first < 0 {
					first = i
				}
			}
		}

		res, err := module.NewResolver(registry, nil).Resolve(context.Background(), chain)
		if first < 0 {
			if !errors.Is(err, module.ErrNoModuleResolved) {
				t.Fatalf("expected ErrNoModuleResolved, got %v", err)
			}
			if got := registry.Attempts(); len(got) != n {
				t.Fatalf("expected all %d candidates tried, got %v", n, got)
			}
			return
		}

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Specifier != chain[first] {
			t.Fatalf("resolved %s, want %s", res.Specifier, chain[first])
		}
		got := registry.Attempts()
		if len(got) != first+1 {
			t.Fatalf("attempted %v, want prefix of length %d", got, first+1)
		}
		for i, s := range got {
			if s != chain[i] {
				t.Fatalf("attempt %d was %s, want %s", i, s, chain[i])
			}
		}
	})
}

func TestChains(t *testing.T) {
	assert.Equal(t, []string{
		"operations/dashboard/operations_dashboard",
		"operations/hub/operations_hub",
		"applications/operations/handler",
		"prototype/handler",
	}, module.RunningBoardChain("operations"))

	chain := module.ProgramChain("concierge", "matter-intake")
	assert.Equal(t, []string{
		"concierge/applications/matter-intake/handler",
		"applications/matter-intake/handler",
	}, chain)
	for _, s := range chain {
		assert.Contains(t, s, "applications/matter-intake")
	}

	assert.Equal(t, []string{
		"shared/reporting/table_report",
		"finance/reporting/finance_report",
	}, module.TableReportChain("finance"))
}

func TestFallbackURL(t *testing.T) {
	assert.Equal(t, "/operations?section=operations", module.FallbackURL("operations", "operations"))
	assert.Equal(t, "/matter-intake?section=concierge", module.FallbackURL("matter-intake", "concierge"))
	assert.Equal(t, "/a%20b?section=x%26y", module.FallbackURL("a b", "x&y"))
}

func TestStaticRegistry(t *testing.T) {
	registry := module.NewStaticRegistry()
	registry.Register("prototype/handler", testutil.Renderer("Prototype", "<p>soon</p>"))

	mod, err := registry.TryLoad(context.Background(), "prototype/handler")
	require.NoError(t, err)
	assert.NotNil(t, mod)

	_, err = registry.TryLoad(context.Background(), "missing/handler")
	assert.ErrorIs(t, err, module.ErrNotFound)

	assert.Panics(t, func() {
		registry.Register("prototype/handler", testutil.Renderer("", ""))
	})

	specs, err := registry.List("prototype/**")
	require.NoError(t, err)
	assert.Equal(t, []string{"prototype/handler"}, specs)
}

func TestLayered(t *testing.T) {
	static := module.NewStaticRegistry()
	static.Register("shared/reporting/table_report", testutil.Renderer("static", ""))

	broken := errors.New("compile error")
	scripts := testutil.NewFakeRegistry().
		Add("shared/reporting/table_report", testutil.Renderer("script", "")).
		Add("prototype/handler", testutil.Renderer("script", "")).
		Fail("bad/handler", broken)

	layered := module.Layered{static, scripts}

	target := testutil.NewTarget("n1", testutil.Key("finance", "finance"))
	mod, err := layered.TryLoad(context.Background(), "shared/reporting/table_report")
	require.NoError(t, err)
	require.NoError(t, mod.Launch(context.Background(), module.LaunchContext{}, target))
	assert.Equal(t, "static", target.Title(), "static modules shadow scripts")

	_, err = layered.TryLoad(context.Background(), "prototype/handler")
	assert.NoError(t, err)

	_, err = layered.TryLoad(context.Background(), "bad/handler")
	assert.ErrorIs(t, err, broken)

	_, err = layered.TryLoad(context.Background(), "nowhere/handler")
	assert.ErrorIs(t, err, module.ErrNotFound)

	specs, err := layered.List("**")
	require.NoError(t, err)
	assert.Equal(t, []string{"shared/reporting/table_report"}, specs, "only listable layers contribute")
}

func TestBuiltinPrototype(t *testing.T) {
	builtins := module.Builtins()
	assert.Equal(t, []string{module.PrototypeSpecifier}, builtins.Specifiers())

	res, err := module.NewResolver(builtins, nil).Resolve(context.Background(), module.RunningBoardChain("ops<1>"))
	require.NoError(t, err)
	assert.Equal(t, module.PrototypeSpecifier, res.Specifier)
	assert.Len(t, res.Attempts, 4)

	target := testutil.NewTarget("node", testutil.Key("ops<1>", "ops<1>"))
	require.NoError(t, res.Module.Launch(context.Background(), module.LaunchContext{Section: "ops<1>"}, target))
	assert.Equal(t, "ops<1>", target.Title())
	require.Len(t, target.Fragments(), 1)
	assert.Contains(t, target.Fragments()[0], "ops&lt;1&gt;")
}
