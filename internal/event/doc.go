// Package event provides a pub-sub event bus for decoupled inter-component
// communication in Roundtable.
//
// The collaboration core (router, supervisor, session controller) publishes
// events; front ends subscribe to them. Neither side imports the other, so
// the CLI shell stays replaceable without touching the core.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Message events:
//   - [MessageRoutedEvent]: Emitted when a turn has been sequenced, logged, and fanned out
//   - [DeliveryFailedEvent]: Emitted when fan-out to one participant fails
//
// Participant lifecycle:
//   - [ParticipantStatusEvent]: Emitted on spawn, exit, scheduled restart, and terminal stop
//   - [ParticipantOutputEvent]: Emitted with sanitized fragments of raw process output
//
// Session:
//   - [PlanReadyEvent]: Emitted when the shared plan artifact becomes non-empty
//   - [SessionResetEvent]: Emitted after a session reset completes
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called synchronously
// and protected against panics - a panicking handler will not prevent other
// handlers from being called.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	// Subscribe to specific event types
//	bus.Subscribe("message.routed", func(e event.Event) {
//	    msg := e.(event.MessageRoutedEvent)
//	    fmt.Printf("[%d] %s: %s\n", msg.Seq, msg.Origin, msg.Body)
//	})
//
//	// Subscribe to all events (useful for logging)
//	bus.SubscribeAll(func(e event.Event) {
//	    log.Printf("Event: %s at %v", e.EventType(), e.Timestamp())
//	})
//
//	// Unsubscribe when done
//	id := bus.Subscribe("participant.status", handler)
//	bus.Unsubscribe(id)
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - message.routed, message.delivery_failed
//   - participant.status, participant.output
//   - plan.ready
//   - session.reset
package event
