package mailbox

import (
	"fmt"
	"strings"
)

// FormatEnvelope wraps a routed message in a delimited envelope suitable
// for delivery to a participant's stdin. The envelope names the origin so
// the recipient can attribute the message, and carries the standing
// instruction for how to reply.
func FormatEnvelope(origin, body string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("===== message from %s =====\n", origin))
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n===== end of message =====\n")
	b.WriteString("To reply, write your complete response into your outbox file. Do not reply here.")
	return b.String()
}

// TranscriptOptions controls which messages FormatTranscript includes.
type TranscriptOptions struct {
	SinceSeq    int64  // Only messages with a higher sequence number (0 = all)
	Origin      string // Only messages from this origin (empty = all)
	Kind        Kind   // Only messages of this kind (empty = all)
	MaxMessages int    // Maximum messages to include, keeping the most recent (0 = unlimited)
}

// FilterMessages applies TranscriptOptions to a slice of messages and
// returns the matching subset. Filters are applied in order: sequence,
// origin, kind, then max messages.
func FilterMessages(messages []Message, opts TranscriptOptions) []Message {
	var result []Message
	for _, msg := range messages {
		if opts.SinceSeq > 0 && msg.Seq <= opts.SinceSeq {
			continue
		}
		if opts.Origin != "" && msg.Origin != opts.Origin {
			continue
		}
		if opts.Kind != "" && msg.Kind != opts.Kind {
			continue
		}
		result = append(result, msg)
	}

	if opts.MaxMessages > 0 && len(result) > opts.MaxMessages {
		result = result[len(result)-opts.MaxMessages:]
	}
	return result
}

// FormatTranscript renders messages as a human-readable conversation
// block suitable for injection into a prompt.
//
// Returns an empty string if there are no messages.
func FormatTranscript(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("<conversation>\n")
	for _, msg := range messages {
		b.WriteString(fmt.Sprintf("[%d] %s:\n", msg.Seq, msg.Origin))
		b.WriteString(strings.TrimSpace(msg.Body))
		b.WriteString("\n\n")
	}
	b.WriteString("</conversation>")
	return b.String()
}
