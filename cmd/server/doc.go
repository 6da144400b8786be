// Package main is the entry point for the Section Portal engine.
//
// The server turns navigation clicks into what the engagement window shows:
// a program console for application packages, a running board resolved
// through its fallback chain, a table report, or a "coming soon" state.
//
// Architecture:
//
//	Front-end → REST / WebSocket → Dispatcher → Console / Resolver → Instance → Window
//	                                         → Catalog fetcher (HTTP or disk)
//
// The server provides:
//   - REST API for navigation, console and instance state
//   - WebSocket stream of window and console events
//   - Script modules (JavaScript) with hot reindexing
//   - Prometheus metrics, rate limiting, gzip responses
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Catalogs from a service
//	./server -port 8000 -catalog-url https://catalogs.internal
//
//	# Local catalogs and modules with reload (colored logs, debug level)
//	./server -dev -catalog-dir ./configs/catalogs -modules ./modules -watch
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
