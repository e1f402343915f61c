package mailbox

import "github.com/Iron-Ham/roundtable/internal/event"

// NewRoutedEvent creates an event.MessageRoutedEvent from a Message.
func NewRoutedEvent(msg Message) event.MessageRoutedEvent {
	return event.NewMessageRoutedEvent(msg.Seq, msg.Origin, string(msg.Kind), msg.Body, msg.Color)
}
