package types

// OutcomeKind names the terminal UI state a dispatch produced
type OutcomeKind string

const (
	OutcomeConsoleOpened OutcomeKind = "console_opened"
	OutcomeMounted       OutcomeKind = "mounted"
	OutcomeComingSoon    OutcomeKind = "coming_soon"
	OutcomePrompt        OutcomeKind = "prompt"
	OutcomeFailed        OutcomeKind = "failed"
	OutcomeIgnored       OutcomeKind = "ignored"
	OutcomeBusy          OutcomeKind = "busy"
)

// Outcome is what a navigation action or console confirmation left on screen.
// Err carries the underlying condition for callers and is never serialized.
type Outcome struct {
	Kind        OutcomeKind      `json:"kind"`
	Section     string           `json:"section"`
	Specifier   string           `json:"specifier,omitempty"`
	FallbackURL string           `json:"fallback_url,omitempty"`
	Message     string           `json:"message,omitempty"`
	Console     *ConsoleSnapshot `json:"console,omitempty"`
	Instance    *Instance        `json:"instance,omitempty"`
	Err         error            `json:"-"`
}
