package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/console"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/events"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/monitoring"
)

// Client message types
const (
	MsgPing               = "ping"
	MsgConsoleSubscribe   = "console.subscribe"
	MsgConsoleUnsubscribe = "console.unsubscribe"
)

const writeTimeout = 10 * time.Second

// Message is a client request
type Message struct {
	Type string `json:"type"`
}

// Consoles hands out subscriptions to the open console
type Consoles interface {
	Subscribe() (*events.Subscription, error)
}

var _ Consoles = (*console.Manager)(nil)

// Handler manages WebSocket connections
type Handler struct {
	bus      *events.Bus
	consoles Consoles
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(bus *events.Bus, consoles Consoles, logger *zap.Logger) *Handler {
	return &Handler{
		bus:      bus,
		consoles: consoles,
		logger:   logging.OrNop(logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // CORS middleware governs origins
			},
		},
	}
}

// WithMetrics adds metrics tracking to the handler
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	s := &session{conn: conn, handler: h}
	ctx, cancel := context.WithCancel(c.Request.Context())
	g, gctx := errgroup.WithContext(ctx)

	window := h.bus.Subscribe(events.TopicWindow)
	lifecycle := h.bus.Subscribe(events.TopicConsole)
	defer window.Close()
	defer lifecycle.Close()

	s.send("system", gin.H{"message": "Connected to Section Portal"})

	g.Go(func() error { return s.forward(gctx, window) })
	g.Go(func() error { return s.forward(gctx, lifecycle) })

	var consoleSub *events.Subscription
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read ended", zap.Error(err))
			}
			break
		}
		h.metrics.RecordWSMessage("in", msg.Type)

		switch msg.Type {
		case MsgPing:
			s.send("pong", nil)
		case MsgConsoleSubscribe:
			sub, err := h.consoles.Subscribe()
			if err != nil {
				s.sendError(err.Error())
				continue
			}
			if consoleSub != nil {
				consoleSub.Close()
			}
			consoleSub = sub
			g.Go(func() error { return s.forward(gctx, sub) })
			s.send("console.subscribed", gin.H{"topic": sub.Topic()})
		case MsgConsoleUnsubscribe:
			if consoleSub != nil {
				consoleSub.Close()
				consoleSub = nil
			}
			s.send("console.unsubscribed", nil)
		default:
			s.sendError("unknown message type")
		}
	}

	if consoleSub != nil {
		consoleSub.Close()
	}
	cancel()
	_ = g.Wait()
}

// session serializes writes to one connection
type session struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	handler *Handler
}

// forward relays a subscription until it closes or ctx ends
func (s *session) forward(ctx context.Context, sub *events.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.C():
			if !ok {
				return nil
			}
			if err := s.write(gin.H{
				"type":      ev.Type,
				"topic":     ev.Topic,
				"seq":       ev.Seq,
				"payload":   ev.Payload,
				"timestamp": ev.Timestamp.Unix(),
			}); err != nil {
				return err
			}
			s.handler.metrics.RecordWSMessage("out", ev.Type)
		}
	}
}

func (s *session) send(msgType string, fields gin.H) {
	msg := gin.H{"type": msgType, "timestamp": time.Now().Unix()}
	for k, v := range fields {
		msg[k] = v
	}
	if err := s.write(msg); err != nil {
		s.handler.logger.Debug("websocket write failed", zap.Error(err))
		return
	}
	s.handler.metrics.RecordWSMessage("out", msgType)
}

func (s *session) sendError(message string) {
	s.send("error", gin.H{"message": message})
}

func (s *session) write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}
