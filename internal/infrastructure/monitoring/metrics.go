package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
//
// Every recording method is safe on a nil *Metrics so components can run
// without instrumentation in tests.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Dispatch metrics
	Dispatches       *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec

	// Resolver metrics
	ResolveAttempts *prometheus.CounterVec
	Resolutions     *prometheus.CounterVec
	ResolveDepth    prometheus.Histogram

	// Catalog metrics
	CatalogFetches       *prometheus.CounterVec
	CatalogFetchDuration *prometheus.HistogramVec

	// Console metrics
	ConsoleOpen     prometheus.Gauge
	ConsoleOpens    prometheus.Counter
	ConsoleConfirms *prometheus.CounterVec

	// Instance metrics
	InstanceMounted      prometheus.Gauge
	InstanceMounts       prometheus.Counter
	InstanceReplacements prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// Circuit breaker metrics
	BreakerState *prometheus.GaugeVec

	startTime time.Time
}

// NewMetrics creates a metrics collector on its own registry, so several
// engines (tests, embedded servers) can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		Dispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_dispatches_total",
				Help: "Navigation dispatches by navigation type and outcome",
			},
			[]string{"type", "outcome"},
		),
		DispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_dispatch_duration_seconds",
				Help:    "Navigation dispatch duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"type"},
		),

		ResolveAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_module_load_attempts_total",
				Help: "Module load attempts by result (loaded, not_found, error)",
			},
			[]string{"result"},
		),
		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_module_resolutions_total",
				Help: "Fallback chain resolutions by result (resolved, exhausted, cancelled)",
			},
			[]string{"result"},
		),
		ResolveDepth: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "portal_module_resolution_depth",
				Help:    "Zero-based chain position of the candidate that resolved",
				Buckets: []float64{0, 1, 2, 3, 4, 6, 8},
			},
		),

		CatalogFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_catalog_fetches_total",
				Help: "Program catalog fetches by source and status",
			},
			[]string{"source", "status"},
		),
		CatalogFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_catalog_fetch_duration_seconds",
				Help:    "Program catalog fetch duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		),

		ConsoleOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "portal_console_open",
				Help: "1 while the program console is open",
			},
		),
		ConsoleOpens: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_console_opens_total",
				Help: "Total number of console openings",
			},
		),
		ConsoleConfirms: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_console_confirms_total",
				Help: "Console confirmations by result (launched, no_selection, failed)",
			},
			[]string{"result"},
		),

		InstanceMounted: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "portal_instance_mounted",
				Help: "1 while an application instance is mounted",
			},
		),
		InstanceMounts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_instance_mounts_total",
				Help: "Total number of application mounts",
			},
		),
		InstanceReplacements: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_instance_replacements_total",
				Help: "Mounts that removed a previously mounted instance",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "portal_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "portal_circuit_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "portal_uptime_seconds",
			Help: "Engine uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry (tests gather from it)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDispatch records one navigation dispatch
func (m *Metrics) RecordDispatch(navType, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(navType, outcome).Inc()
	m.DispatchDuration.WithLabelValues(navType).Observe(duration.Seconds())
}

// RecordLoadAttempt records one candidate load attempt
func (m *Metrics) RecordLoadAttempt(result string) {
	if m == nil {
		return
	}
	m.ResolveAttempts.WithLabelValues(result).Inc()
}

// RecordResolution records the end of a fallback chain; depth is ignored unless resolved
func (m *Metrics) RecordResolution(result string, depth int) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(result).Inc()
	if result == "resolved" {
		m.ResolveDepth.Observe(float64(depth))
	}
}

// RecordCatalogFetch records a program catalog fetch
func (m *Metrics) RecordCatalogFetch(source, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CatalogFetches.WithLabelValues(source, status).Inc()
	m.CatalogFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// SetConsoleOpen records whether the console is open
func (m *Metrics) SetConsoleOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.ConsoleOpen.Set(1)
		m.ConsoleOpens.Inc()
		return
	}
	m.ConsoleOpen.Set(0)
}

// RecordConfirm records a console confirmation
func (m *Metrics) RecordConfirm(result string) {
	if m == nil {
		return
	}
	m.ConsoleConfirms.WithLabelValues(result).Inc()
}

// RecordMount records an instance mount
func (m *Metrics) RecordMount(replaced bool) {
	if m == nil {
		return
	}
	m.InstanceMounted.Set(1)
	m.InstanceMounts.Inc()
	if replaced {
		m.InstanceReplacements.Inc()
	}
}

// RecordUnmount records that no instance is mounted
func (m *Metrics) RecordUnmount() {
	if m == nil {
		return
	}
	m.InstanceMounted.Set(0)
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

// SetBreakerState records a circuit breaker state
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}
