package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/catalog"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/console"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/dispatch"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/instance"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/module"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/navigation"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/window"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/types"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/utils"
)

const (
	serviceName    = "Section Portal Engine (Go)"
	serviceVersion = "0.3.0"

	// Navigation actions and confirmations may mount a module
	actionTimeout = 30 * time.Second
)

// Dependencies are the engine components the handlers expose
type Dependencies struct {
	Navigation *navigation.Catalog
	Dispatcher *dispatch.Dispatcher
	Consoles   *console.Manager
	Instances  *instance.Manager
	Window     *window.Window
	Catalogs   catalog.Fetcher
	Modules    module.Lister
	Logger     *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	navigation *navigation.Catalog
	dispatcher *dispatch.Dispatcher
	consoles   *console.Manager
	instances  *instance.Manager
	window     *window.Window
	catalogs   catalog.Fetcher
	modules    module.Lister
	logger     *zap.Logger
	startedAt  time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		navigation: deps.Navigation,
		dispatcher: deps.Dispatcher,
		consoles:   deps.Consoles,
		instances:  deps.Instances,
		window:     deps.Window,
		catalogs:   deps.Catalogs,
		modules:    deps.Modules,
		logger:     logging.OrNop(deps.Logger),
		startedAt:  time.Now(),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/navigation", h.ListNavigation)
	r.GET("/navigation/:id", h.GetNavigation)
	r.POST("/navigation/:id/dispatch", h.Dispatch)

	r.GET("/console", h.GetConsole)
	r.POST("/console/select", h.SelectProgram)
	r.POST("/console/confirm", h.ConfirmLaunch)
	r.DELETE("/console", h.CloseConsole)

	r.GET("/instance", h.GetInstance)
	r.DELETE("/instance", h.RemoveInstance)

	r.GET("/window", h.GetWindow)

	r.GET("/sections/:id/catalog", h.GetSectionCatalog)
	r.GET("/modules", h.ListModules)
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	_, attached := h.window.Attached()
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"uptime_seconds":   time.Since(h.startedAt).Seconds(),
		"navigation_items": h.navigation.Len(),
		"instance":         h.instances.Stats(),
		"console":          gin.H{"state": h.consoles.Snapshot().State},
		"window":           gin.H{"attached": attached},
	})
}

// ListNavigation lists the navigation catalog
func (h *Handlers) ListNavigation(c *gin.Context) {
	items := h.navigation.Items()
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": h.navigation.Len(),
	})
}

// GetNavigation returns one navigation item
func (h *Handlers) GetNavigation(c *gin.Context) {
	itemID := c.Param("id")
	if err := utils.ValidateID(itemID, "id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, ok := h.navigation.Get(itemID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "navigation item not found"})
		return
	}

	c.JSON(http.StatusOK, item)
}

// Dispatch performs the navigation action for an item
func (h *Handlers) Dispatch(c *gin.Context) {
	itemID := c.Param("id")
	if err := utils.ValidateID(itemID, "id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), actionTimeout)
	defer cancel()

	out, err := h.dispatcher.DispatchID(ctx, itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Debug("dispatched",
		zap.String("section", itemID),
		zap.String("outcome", string(out.Kind)))
	respondOutcome(c, out)
}

// GetConsole returns the program console
func (h *Handlers) GetConsole(c *gin.Context) {
	c.JSON(http.StatusOK, h.consoles.Snapshot())
}

// SelectRequest chooses a program within a group
type SelectRequest struct {
	Group   string `json:"group"`
	Program string `json:"program"`
}

// SelectProgram records a program choice in the open console
func (h *Handlers) SelectProgram(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidateName(req.Group, "group"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateID(req.Program, "program", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.consoles.Select(req.Group, req.Program)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// ConfirmRequest launches the selection of a group
type ConfirmRequest struct {
	Group string `json:"group"`
}

// ConfirmLaunch launches the program selected in a group
func (h *Handlers) ConfirmLaunch(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidateName(req.Group, "group"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), actionTimeout)
	defer cancel()

	respondOutcome(c, h.dispatcher.Confirm(ctx, req.Group))
}

// CloseConsole dismisses the program console
func (h *Handlers) CloseConsole(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"closed": h.consoles.Close()})
}

// GetInstance returns the mounted application
func (h *Handlers) GetInstance(c *gin.Context) {
	inst, ok := h.instances.Current()
	c.JSON(http.StatusOK, gin.H{
		"mounted":  ok,
		"instance": inst,
		"stats":    h.instances.Stats(),
	})
}

// RemoveInstance unmounts the mounted application
func (h *Handlers) RemoveInstance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"removed": h.instances.Unmount()})
}

// GetWindow returns what the engagement window shows
func (h *Handlers) GetWindow(c *gin.Context) {
	c.JSON(http.StatusOK, h.window.Snapshot())
}

// GetSectionCatalog fetches a section's program catalog without opening a console
func (h *Handlers) GetSectionCatalog(c *gin.Context) {
	sectionID := c.Param("id")
	if err := utils.ValidateID(sectionID, "id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.catalogs.Fetch(c.Request.Context(), sectionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// ListModules lists resolvable module specifiers, optionally filtered by a glob
func (h *Handlers) ListModules(c *gin.Context) {
	pattern := c.Query("pattern")

	specifiers, err := h.modules.List(pattern)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"modules": specifiers,
		"count":   len(specifiers),
	})
}

// outcomeResponse flattens an outcome and adds its error text
type outcomeResponse struct {
	*types.Outcome
	Error string `json:"error,omitempty"`
}

// respondOutcome writes an outcome. UI states are successful responses;
// only a rejected concurrent action is reported as a conflict.
func respondOutcome(c *gin.Context, out *types.Outcome) {
	resp := outcomeResponse{Outcome: out}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}

	status := http.StatusOK
	if out.Kind == types.OutcomeBusy {
		status = http.StatusConflict
	}
	c.JSON(status, resp)
}

func respondError(c *gin.Context, err error) {
	c.JSON(ErrorStatus(err), gin.H{"error": err.Error()})
}

// ErrorStatus maps an engine error to an HTTP status
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, dispatch.ErrUnknownItem),
		errors.Is(err, console.ErrUnknownGroup),
		errors.Is(err, console.ErrUnknownProgram):
		return http.StatusNotFound
	case errors.Is(err, console.ErrConsoleClosed),
		errors.Is(err, dispatch.ErrDispatchInFlight):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidSection):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
