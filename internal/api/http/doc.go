// Package http provides HTTP handlers and routing for the portal REST API.
//
// Endpoints:
//   - Health: / and /health
//   - Navigation: /navigation, /navigation/:id, /navigation/:id/dispatch
//   - Console: /console, /console/select, /console/confirm
//   - Instance: /instance
//   - Window: /window
//   - Catalogs: /sections/:id/catalog
//   - Modules: /modules?pattern=
//
// Dispatches and confirmations answer with the outcome they produced. Failed
// lookups and launches are UI states (coming soon, retry notice) and return
// 200; a second action on a section that is still loading returns 409.
//
// Example Usage:
//
//	handlers := http.NewHandlers(http.Dependencies{Navigation: nav, Dispatcher: d, ...})
//	handlers.Register(router)
package http
