// Package types provides shared data structures for the portal engine.
//
// Core Types:
//   - NavigationItem: a navigable entry and the dispatch path it takes
//   - CatalogDocument, ProgramGroup, Program: a section's selectable programs
//   - InstanceKey, Instance: the single mounted application
//   - ConsoleSnapshot: the program console as the front-end renders it
//   - Outcome: the UI-visible result of a dispatch
//
// Example Usage:
//
//	item := types.NavigationItem{ID: "concierge", Type: types.NavApplicationsPackage}
//	outcome := dispatcher.Dispatch(ctx, item)
package types
