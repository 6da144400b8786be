/*
Package module resolves feature modules by specifier through ordered
fallback chains.

# Overview

A specifier is a slash-separated path such as "concierge/hub/concierge_hub".
A Registry maps specifiers to loadable modules; "not found" is the ordinary
signal to advance a chain. The Resolver tries candidates strictly in order,
stops at the first success and never mounts anything itself: the returned
Module exposes Launch, which callers run against a mount Target.

# Chains

	RunningBoardChain("ops")     ops/dashboard/ops_dashboard, ops/hub/ops_hub,
	                             applications/ops/handler, prototype/handler
	ProgramChain("ops", "x")     ops/applications/x/handler, applications/x/handler
	TableReportChain("ops")      shared/reporting/table_report, ops/reporting/ops_report

When a chain is exhausted, FallbackURL gives the last-resort route
"/{applicationId}?section={sectionId}".

# Registries

  - StaticRegistry: modules compiled into the binary.
  - ScriptRegistry: JavaScript modules under a root directory, run with goja.
  - Layered: several registries consulted in order per specifier.
*/
package module
