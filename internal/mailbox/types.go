package mailbox

import "time"

// Kind identifies who produced a chat message.
type Kind string

const (
	// KindAgent marks a message produced by a participant process.
	KindAgent Kind = "agent"

	// KindUser marks a message injected by the human operator.
	KindUser Kind = "user"
)

// Message represents a single entry in the shared chat log.
type Message struct {
	// Seq is the message's position in the log. Sequence numbers are
	// assigned on append and are gapless starting from 1.
	Seq       int64     `json:"seq"`
	Origin    string    `json:"origin"`
	Kind      Kind      `json:"kind"`
	Body      string    `json:"body"`
	Color     string    `json:"color,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IsUser returns true if the message came from the human operator.
func (m Message) IsUser() bool {
	return m.Kind == KindUser
}

// Valid message kinds for validation.
var validKinds = map[Kind]bool{
	KindAgent: true,
	KindUser:  true,
}

// ValidateKind returns true if the given kind is a known message kind.
func ValidateKind(k Kind) bool {
	return validKinds[k]
}
