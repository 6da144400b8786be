// Package window models the engagement window: the single mount target into
// which resolved modules render.
//
// The window shows either one attached Node, a section-scoped terminal
// ("coming soon") state, or nothing. Fragments rendered into a node are
// sanitized before they are stored. Every change is published on the
// events.TopicWindow topic.
package window

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/events"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/module"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/id"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/types"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/utils"
)

// Event types published on events.TopicWindow
const (
	EventAttached = "window.attached"
	EventDetached = "window.detached"
	EventRendered = "window.rendered"
	EventTitled   = "window.titled"
	EventTerminal = "window.terminal"
)

// DefaultComingSoon is the terminal message shown when a section has nothing to mount
const DefaultComingSoon = "This section is coming soon."

var _ module.Target = (*Node)(nil)

// Terminal is the static end state shown in place of a module
type Terminal struct {
	Section     string `json:"section"`
	Message     string `json:"message"`
	FallbackURL string `json:"fallback_url,omitempty"`
}

// View is a snapshot of what the window shows
type View struct {
	NodeID    string             `json:"node_id,omitempty"`
	Key       *types.InstanceKey `json:"key,omitempty"`
	Title     string             `json:"title,omitempty"`
	Content   string             `json:"content,omitempty"`
	Terminal  *Terminal          `json:"terminal,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Window is the engagement window
type Window struct {
	mu        sync.RWMutex
	attached  *Node     // Protected by mu
	terminal  *Terminal // Protected by mu
	updatedAt time.Time // Protected by mu

	bus    *events.Bus
	policy *bluemonday.Policy
	logger *zap.Logger
}

// New creates an empty window publishing to bus (nil for no events)
func New(bus *events.Bus, logger *zap.Logger) *Window {
	return &Window{
		bus:       bus,
		policy:    bluemonday.UGCPolicy(),
		logger:    logging.OrNop(logger),
		updatedAt: time.Now(),
	}
}

// NewNode creates a fresh, unattached node tagged with key
func (w *Window) NewNode(key types.InstanceKey) *Node {
	return &Node{
		id:        id.NewNodeID().String(),
		key:       key,
		window:    w,
		createdAt: time.Now(),
	}
}

// Attach shows node, replacing whatever was shown
func (w *Window) Attach(node *Node) {
	w.mu.Lock()
	prev := w.attached
	w.attached = node
	w.terminal = nil
	w.updatedAt = time.Now()
	w.mu.Unlock()

	if prev != nil && prev != node {
		w.publish(EventDetached, prev.ID())
	}
	w.publish(EventAttached, node.view())
}

// Detach removes the node with nodeID if it is the one attached
func (w *Window) Detach(nodeID string) bool {
	w.mu.Lock()
	if w.attached == nil || w.attached.id != nodeID {
		w.mu.Unlock()
		return false
	}
	w.attached = nil
	w.updatedAt = time.Now()
	w.mu.Unlock()

	w.publish(EventDetached, nodeID)
	return true
}

// ShowTerminal replaces the window content with a section's terminal state.
// An attached node is detached.
func (w *Window) ShowTerminal(section, message, fallbackURL string) {
	if message == "" {
		message = DefaultComingSoon
	}
	terminal := &Terminal{Section: section, Message: message, FallbackURL: fallbackURL}

	w.mu.Lock()
	prev := w.attached
	w.attached = nil
	w.terminal = terminal
	w.updatedAt = time.Now()
	w.mu.Unlock()

	if prev != nil {
		w.publish(EventDetached, prev.ID())
	}
	w.publish(EventTerminal, *terminal)
	w.logger.Debug("terminal state shown", zap.String("section", section))
}

// Attached returns the attached node id, if any
func (w *Window) Attached() (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.attached == nil {
		return "", false
	}
	return w.attached.id, true
}

// Snapshot returns the current view
func (w *Window) Snapshot() View {
	w.mu.RLock()
	node, terminal, updated := w.attached, w.terminal, w.updatedAt
	w.mu.RUnlock()

	if node != nil {
		v := node.view()
		v.UpdatedAt = updated
		return v
	}
	v := View{UpdatedAt: updated}
	if terminal != nil {
		t := *terminal
		v.Terminal = &t
	}
	return v
}

func (w *Window) isAttached(n *Node) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.attached == n
}

func (w *Window) publish(eventType string, payload any) {
	if w.bus != nil {
		w.bus.Publish(events.TopicWindow, eventType, payload)
	}
}

func (w *Window) sanitize(fragment string) string {
	if len(fragment) > utils.MaxFragmentSize {
		w.logger.Warn("fragment truncated", zap.Int("size", len(fragment)))
		cut := utils.MaxFragmentSize
		for cut > 0 && !utf8.RuneStart(fragment[cut]) {
			cut--
		}
		fragment = fragment[:cut]
	}
	return w.policy.Sanitize(fragment)
}

// Node is a mount node a module renders into
type Node struct {
	id        string
	key       types.InstanceKey
	window    *Window
	createdAt time.Time

	mu      sync.Mutex
	title   string
	content string
}

// ID returns the node id
func (n *Node) ID() string { return n.id }

// Key returns the instance key the node is tagged with
func (n *Node) Key() types.InstanceKey { return n.key }

// SetTitle sets the node title
func (n *Node) SetTitle(title string) {
	n.mu.Lock()
	n.title = title
	n.mu.Unlock()

	if n.window.isAttached(n) {
		n.window.publish(EventTitled, map[string]string{"node_id": n.id, "title": title})
	}
}

// Render replaces the node content with the sanitized fragment
func (n *Node) Render(fragment string) {
	clean := n.window.sanitize(fragment)

	n.mu.Lock()
	n.content = clean
	n.mu.Unlock()

	if n.window.isAttached(n) {
		n.window.publish(EventRendered, map[string]string{"node_id": n.id, "content": clean})
	}
}

// Content returns the sanitized content
func (n *Node) Content() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.content
}

// Title returns the title
func (n *Node) Title() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.title
}

func (n *Node) view() View {
	n.mu.Lock()
	defer n.mu.Unlock()
	key := n.key
	return View{
		NodeID:    n.id,
		Key:       &key,
		Title:     n.title,
		Content:   n.content,
		UpdatedAt: n.createdAt,
	}
}
