package mailbox

import (
	"strings"
	"testing"
)

func TestFormatEnvelope(t *testing.T) {
	result := FormatEnvelope("alpha", "let's split the work\n")

	if !strings.Contains(result, "===== message from alpha =====") {
		t.Errorf("envelope missing origin header: %s", result)
	}
	if !strings.Contains(result, "let's split the work") {
		t.Errorf("envelope missing body: %s", result)
	}
	if !strings.Contains(result, "===== end of message =====") {
		t.Errorf("envelope missing closing delimiter: %s", result)
	}
	if !strings.Contains(result, "outbox file") {
		t.Errorf("envelope missing reply instruction: %s", result)
	}

	// Body whitespace is trimmed so the delimiters hug the content
	if strings.Contains(result, "work\n\n=====") {
		t.Errorf("body trailing whitespace not trimmed: %q", result)
	}
}

func TestFormatEnvelope_UserOrigin(t *testing.T) {
	result := FormatEnvelope("user", "wrap it up")
	if !strings.Contains(result, "===== message from user =====") {
		t.Errorf("envelope missing user header: %s", result)
	}
}

func TestFilterMessages(t *testing.T) {
	messages := []Message{
		{Seq: 1, Origin: "alpha", Kind: KindAgent, Body: "one"},
		{Seq: 2, Origin: "beta", Kind: KindAgent, Body: "two"},
		{Seq: 3, Origin: "user", Kind: KindUser, Body: "three"},
		{Seq: 4, Origin: "alpha", Kind: KindAgent, Body: "four"},
	}

	tests := []struct {
		name     string
		opts     TranscriptOptions
		expected []int64
	}{
		{"no filters", TranscriptOptions{}, []int64{1, 2, 3, 4}},
		{"since seq", TranscriptOptions{SinceSeq: 2}, []int64{3, 4}},
		{"by origin", TranscriptOptions{Origin: "alpha"}, []int64{1, 4}},
		{"by kind", TranscriptOptions{Kind: KindUser}, []int64{3}},
		{"max messages keeps most recent", TranscriptOptions{MaxMessages: 2}, []int64{3, 4}},
		{"combined", TranscriptOptions{Origin: "alpha", MaxMessages: 1}, []int64{4}},
		{"no matches", TranscriptOptions{Origin: "gamma"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FilterMessages(messages, tt.opts)
			if len(result) != len(tt.expected) {
				t.Fatalf("got %d messages, want %d", len(result), len(tt.expected))
			}
			for i, seq := range tt.expected {
				if result[i].Seq != seq {
					t.Errorf("result[%d].Seq = %d, want %d", i, result[i].Seq, seq)
				}
			}
		})
	}
}

func TestFormatTranscript(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := FormatTranscript(nil); got != "" {
			t.Errorf("FormatTranscript(nil) = %q, want empty", got)
		}
	})

	t.Run("renders all messages", func(t *testing.T) {
		messages := []Message{
			{Seq: 1, Origin: "alpha", Body: "hello"},
			{Seq: 2, Origin: "beta", Body: "hi back"},
		}
		result := FormatTranscript(messages)

		if !strings.HasPrefix(result, "<conversation>") {
			t.Errorf("missing opening tag: %s", result)
		}
		if !strings.HasSuffix(result, "</conversation>") {
			t.Errorf("missing closing tag: %s", result)
		}
		if !strings.Contains(result, "[1] alpha:") || !strings.Contains(result, "[2] beta:") {
			t.Errorf("missing attribution lines: %s", result)
		}
		if !strings.Contains(result, "hello") || !strings.Contains(result, "hi back") {
			t.Errorf("missing bodies: %s", result)
		}
	})
}
