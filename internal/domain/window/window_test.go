package window

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/events"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/id"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/types"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/utils"
)

func key(section, app string) types.InstanceKey {
	return types.InstanceKey{OriginSection: section, ApplicationID: app}
}

func TestAttachRenderDetach(t *testing.T) {
	bus := events.NewBus(16)
	sub := bus.Subscribe(events.TopicWindow)
	w := New(bus, nil)

	node := w.NewNode(key("concierge", "matter-intake"))
	assert.True(t, id.IsValid(node.ID()))
	w.Attach(node)
	node.SetTitle("Matter Intake")
	node.Render("<h1>Intake</h1>")

	view := w.Snapshot()
	assert.Equal(t, node.ID(), view.NodeID)
	require.NotNil(t, view.Key)
	assert.Equal(t, "concierge", view.Key.OriginSection)
	assert.Equal(t, "Matter Intake", view.Title)
	assert.Equal(t, "<h1>Intake</h1>", view.Content)

	assert.True(t, w.Detach(node.ID()))
	assert.False(t, w.Detach(node.ID()), "detach is idempotent")
	assert.Empty(t, w.Snapshot().NodeID)

	var kinds []string
	for len(sub.C()) > 0 {
		kinds = append(kinds, (<-sub.C()).Type)
	}
	assert.Equal(t, []string{EventAttached, EventTitled, EventRendered, EventDetached}, kinds)
}

func TestRenderSanitizes(t *testing.T) {
	w := New(nil, nil)
	node := w.NewNode(key("ops", "ops"))
	w.Attach(node)

	node.Render(`<p onclick="steal()">hi<script>alert(1)</script></p>`)

	assert.Equal(t, "<p>hi</p>", node.Content())
	assert.NotContains(t, w.Snapshot().Content, "script")
}

func TestSanitizeTruncatesOnRuneBoundary(t *testing.T) {
	w := New(nil, nil)

	// The size limit falls inside the two-byte "é"
	fragment := strings.Repeat("a", utils.MaxFragmentSize-1) + "é" + "tail"
	got := w.sanitize(fragment)

	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, utils.MaxFragmentSize-1)
	assert.Equal(t, strings.Repeat("a", utils.MaxFragmentSize-1), got)
}

func TestDetachOnlyRemovesAttachedNode(t *testing.T) {
	w := New(nil, nil)
	first := w.NewNode(key("a", "a"))
	second := w.NewNode(key("b", "b"))

	w.Attach(first)
	w.Attach(second)

	assert.False(t, w.Detach(first.ID()))
	attached, ok := w.Attached()
	require.True(t, ok)
	assert.Equal(t, second.ID(), attached)
}

func TestShowTerminal(t *testing.T) {
	w := New(nil, nil)
	node := w.NewNode(key("ops", "ops"))
	w.Attach(node)

	w.ShowTerminal("operations", "", "/operations?section=operations")

	view := w.Snapshot()
	assert.Empty(t, view.NodeID)
	require.NotNil(t, view.Terminal)
	assert.Equal(t, "operations", view.Terminal.Section)
	assert.Equal(t, DefaultComingSoon, view.Terminal.Message)
	assert.Equal(t, "/operations?section=operations", view.Terminal.FallbackURL)

	// A render into a detached node changes nothing on screen
	node.Render("<p>late</p>")
	assert.Nil(t, w.Snapshot().Key)

	w.Attach(w.NewNode(key("ops", "ops")))
	assert.Nil(t, w.Snapshot().Terminal, "attaching clears the terminal state")
}
