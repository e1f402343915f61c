// Package event defines the event types that decouple the collaboration
// core from its observers. The router and supervisor publish events; the
// CLI (or any other front end) subscribes without either side importing
// the other.
package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "message.routed", "participant.exited")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Message Events
// -----------------------------------------------------------------------------

// MessageRoutedEvent is emitted when a participant's completed turn has been
// assigned a sequence number, logged, and fanned out to the other participants.
type MessageRoutedEvent struct {
	baseEvent
	Seq    int64  // Sequence number assigned by the mailbox store
	Origin string // Participant name, or "user" for user-submitted messages
	Kind   string // "agent" or "user"
	Body   string // Message text as routed
	Color  string // Display color of the origin participant
}

// NewMessageRoutedEvent creates a MessageRoutedEvent.
func NewMessageRoutedEvent(seq int64, origin, kind, body, color string) MessageRoutedEvent {
	return MessageRoutedEvent{
		baseEvent: newBaseEvent("message.routed"),
		Seq:       seq,
		Origin:    origin,
		Kind:      kind,
		Body:      body,
		Color:     color,
	}
}

// DeliveryFailedEvent is emitted when fan-out to a single participant fails.
// Delivery failures are isolated: the message is already durably logged and
// the remaining participants still receive it.
type DeliveryFailedEvent struct {
	baseEvent
	Seq         int64  // Sequence number of the message that failed to deliver
	Participant string // Recipient whose input stream rejected the write
	Error       string // Description of the failure
}

// NewDeliveryFailedEvent creates a DeliveryFailedEvent.
func NewDeliveryFailedEvent(seq int64, participant, errMsg string) DeliveryFailedEvent {
	return DeliveryFailedEvent{
		baseEvent:   newBaseEvent("message.delivery_failed"),
		Seq:         seq,
		Participant: participant,
		Error:       errMsg,
	}
}

// -----------------------------------------------------------------------------
// Participant Lifecycle Events
// -----------------------------------------------------------------------------

// ParticipantStatus describes the lifecycle state reported by a status event.
type ParticipantStatus string

const (
	// StatusStarted indicates the participant process spawned and was primed.
	StatusStarted ParticipantStatus = "started"
	// StatusExited indicates the participant process exited.
	StatusExited ParticipantStatus = "exited"
	// StatusRestarting indicates a restart has been scheduled after an exit.
	StatusRestarting ParticipantStatus = "restarting"
	// StatusStopped indicates the participant was stopped and will not restart.
	StatusStopped ParticipantStatus = "stopped"
	// StatusMaxRetries indicates the restart budget is exhausted.
	StatusMaxRetries ParticipantStatus = "max retries reached"
	// StatusError indicates the participant failed to start.
	StatusError ParticipantStatus = "error"
)

// ParticipantStatusEvent is emitted whenever a participant's lifecycle state
// changes: spawn, exit, scheduled restart, terminal stop.
type ParticipantStatusEvent struct {
	baseEvent
	Participant string            // Participant name
	Status      ParticipantStatus // New lifecycle state
	ExitCode    int               // Exit code, meaningful only for StatusExited
	Detail      string            // Optional human-readable context
}

// NewParticipantStatusEvent creates a ParticipantStatusEvent.
func NewParticipantStatusEvent(participant string, status ParticipantStatus, exitCode int, detail string) ParticipantStatusEvent {
	return ParticipantStatusEvent{
		baseEvent:   newBaseEvent("participant.status"),
		Participant: participant,
		Status:      status,
		ExitCode:    exitCode,
		Detail:      detail,
	}
}

// ParticipantOutputEvent carries a sanitized fragment of a participant's raw
// process output, for observers that want to surface agent activity.
type ParticipantOutputEvent struct {
	baseEvent
	Participant string // Participant name
	Output      string // Output fragment with terminal escapes stripped
}

// NewParticipantOutputEvent creates a ParticipantOutputEvent.
func NewParticipantOutputEvent(participant, output string) ParticipantOutputEvent {
	return ParticipantOutputEvent{
		baseEvent:   newBaseEvent("participant.output"),
		Participant: participant,
		Output:      output,
	}
}

// -----------------------------------------------------------------------------
// Session Events
// -----------------------------------------------------------------------------

// PlanReadyEvent is emitted when the shared plan artifact becomes non-empty,
// signaling that a participant has written a converged plan.
type PlanReadyEvent struct {
	baseEvent
	Path string // Absolute path to the plan file
}

// NewPlanReadyEvent creates a PlanReadyEvent.
func NewPlanReadyEvent(path string) PlanReadyEvent {
	return PlanReadyEvent{
		baseEvent: newBaseEvent("plan.ready"),
		Path:      path,
	}
}

// SessionResetEvent is emitted after a session reset has stopped all
// participants and truncated the chat log.
type SessionResetEvent struct {
	baseEvent
	Workspace string // Workspace directory that was reset
}

// NewSessionResetEvent creates a SessionResetEvent.
func NewSessionResetEvent(workspace string) SessionResetEvent {
	return SessionResetEvent{
		baseEvent: newBaseEvent("session.reset"),
		Workspace: workspace,
	}
}
