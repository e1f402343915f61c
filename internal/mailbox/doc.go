// Package mailbox provides the filesystem-backed message plumbing for
// Roundtable sessions.
//
// Each session workspace holds an append-only JSONL chat log recording every
// routed message, plus an outbox directory with one drop-file per
// participant. Participants write outgoing messages into their drop-file;
// the router appends them to the chat log, clears the drop-file, and fans
// the message out to the other participants.
//
// # Architecture
//
//	{workspace}/
//	    chat.jsonl        -- append-only chat log, one message per line
//	    outbox/{name}.md  -- per-participant drop-file
//
// Sequence numbers are assigned on append and are gapless starting from 1,
// so the chat log doubles as the canonical ordering of the conversation.
//
// # Main Types
//
//   - [Message]: A single chat entry with sequence number, origin, kind, and body
//   - [Kind]: Who produced a message ([KindAgent] or [KindUser])
//   - [Store]: File-based chat log and drop-file storage with serialized appends
//
// # Basic Usage
//
//	store := mailbox.NewStore(workspaceDir)
//
//	// Append a message to the chat log
//	seq, err := store.Append(mailbox.Message{
//	    Origin: "alpha",
//	    Kind:   mailbox.KindAgent,
//	    Body:   "I think we should start with the parser.",
//	})
//
//	// Read a participant's drop-file and clear it
//	content, err := store.ReadDrop("alpha")
//	err = store.ClearDrop("alpha")
//
//	// Follow the chat log as it grows
//	cancel := store.Follow(func(msg mailbox.Message) {
//	    log.Printf("[%d] %s: %s", msg.Seq, msg.Origin, msg.Body)
//	})
//	defer cancel()
//
// # Thread Safety
//
// The [Store] type is safe for concurrent use within a single process via an
// internal mutex. Chat log writes use O_APPEND for POSIX atomicity on small
// JSONL lines.
package mailbox
