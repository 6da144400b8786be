/*
Package console implements the program console: a modal selection surface
built from a section's program catalog.

At most one console is open. Each program group is an independent radio set;
ConfirmLaunch turns the selection of one group into a mounted instance by
resolving the program's candidate chain and mounting the result through the
instance manager. A failed launch keeps the console open with a retry notice
and the fallback route.

Listeners subscribe to the open console only. Its subscriptions end when it
closes or is replaced, so nothing accumulates across opens.

	snap, _ := consoles.Open("concierge", doc)
	consoles.Select("Core", "matter-intake")
	res, err := consoles.ConfirmLaunch(ctx, "Core")
*/
package console
