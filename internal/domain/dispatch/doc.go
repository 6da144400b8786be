/*
Package dispatch routes navigation actions to the console or the module
resolver according to the item's type.

	applications-package  fetch catalog -> open console ("coming soon" if the fetch fails)
	running-board         running-board chain -> mount (terminal state + fallback URL on failure)
	table-reporting       table-report chain -> mount (terminal state on failure)

Unknown types are logged and ignored. Every failure becomes an Outcome; no
error escapes Dispatch.

While a dispatch or confirmation for a section is outstanding, another one
for the same section is rejected as busy. Different sections proceed
concurrently; the instance and console slots serialize them, and the last
mount replaces the earlier one.
*/
package dispatch
