package types

// ConsoleState is the console singleton's lifecycle state
type ConsoleState string

const (
	ConsoleClosed ConsoleState = "closed"
	ConsoleOpen   ConsoleState = "open"
)

// NoticeKind classifies an inline console message
type NoticeKind string

const (
	NoticePrompt  NoticeKind = "prompt"
	NoticeFailure NoticeKind = "failure"
)

// Notice is an inline message shown inside the console
type Notice struct {
	Kind        NoticeKind `json:"kind"`
	Message     string     `json:"message"`
	Retry       bool       `json:"retry,omitempty"`
	FallbackURL string     `json:"fallback_url,omitempty"`
}

// ConsoleSnapshot is a read-only view of the program console
type ConsoleSnapshot struct {
	ID         string            `json:"id,omitempty"`
	Section    string            `json:"section,omitempty"`
	Title      string            `json:"title,omitempty"`
	State      ConsoleState      `json:"state"`
	Groups     []ProgramGroup    `json:"groups,omitempty"`
	Selections map[string]string `json:"selections,omitempty"`
	Notice     *Notice           `json:"notice,omitempty"`
}
