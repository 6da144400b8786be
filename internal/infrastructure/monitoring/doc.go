/*
Package monitoring provides Prometheus metrics for the portal engine.

# Overview

Metrics live on a private registry owned by Metrics, exposed through
Handler. Recording methods are no-ops on a nil *Metrics.

# Metrics

- HTTP requests (count, latency by route template)
- Dispatches by navigation type and outcome
- Module load attempts, chain resolutions and resolution depth
- Program catalog fetches by source and status
- Console open state, openings and confirmations
- Instance mounts and replacements
- WebSocket connections and messages
- Circuit breaker state

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "running-board")
	// ... dispatch ...
	timer.Stop("mounted")
*/
package monitoring
