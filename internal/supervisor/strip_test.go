package supervisor

import (
	"bytes"
	"testing"
)

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "hello world", "hello world"},
		{"color codes", "\x1b[31mred\x1b[0m text", "red text"},
		{"cursor movement", "\x1b[2J\x1b[H(cleared)", "(cleared)"},
		{"osc title with bel", "\x1b]0;my title\x07after", "after"},
		{"osc with string terminator", "\x1b]8;;https://example.com\x1b\\link", "link"},
		{"carriage returns dropped", "progress 10%\rprogress 99%\r\n", "progress 10%progress 99%\n"},
		{"bracketed paste markers", "\x1b[?2004hinput\x1b[?2004l", "input"},
		{"two byte escape", "\x1bMreverse", "reverse"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripANSI([]byte(tt.input)); string(got) != tt.want {
				t.Errorf("StripANSI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripANSI_DoesNotMutateInput(t *testing.T) {
	input := []byte("keep\rme")
	original := append([]byte(nil), input...)

	StripANSI(input)

	if !bytes.Equal(input, original) {
		t.Errorf("input mutated to %q, want %q", input, original)
	}
}

func TestStripWriter(t *testing.T) {
	var buf bytes.Buffer
	w := stripWriter{&buf}

	n, err := w.Write([]byte("\x1b[32mok\x1b[0m\r\n"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len("\x1b[32mok\x1b[0m\r\n") {
		t.Errorf("Write() n = %d, want full input length", n)
	}
	if got := buf.String(); got != "ok\n" {
		t.Errorf("written = %q, want %q", got, "ok\n")
	}
}
