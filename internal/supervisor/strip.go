package supervisor

import (
	"io"
	"regexp"
)

// ansiPattern matches CSI sequences (colors, cursor movement), OSC
// sequences (window titles, hyperlinks), and lone two-byte escapes.
// Interactive CLIs repaint constantly, so raw pty output is unreadable
// without stripping these.
var ansiPattern = regexp.MustCompile(`\x1b\][^\x07\x1b]*(\x07|\x1b\\)|\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b[@-_]`)

// StripANSI removes terminal escape sequences and carriage returns from b.
func StripANSI(b []byte) []byte {
	b = ansiPattern.ReplaceAll(b, nil)
	// Repaints use bare carriage returns to overwrite lines; drop them so
	// the mirror log stays line oriented. Copy rather than filter in
	// place, the caller's buffer may be shared with other writers.
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c == '\r' {
			continue
		}
		out = append(out, c)
	}
	return out
}

// stripWriter wraps a writer and strips ANSI sequences from everything
// written through it. Sequences split across Write calls are not handled;
// the mirror log is diagnostic output, not a terminal recording.
type stripWriter struct {
	w io.Writer
}

func (s stripWriter) Write(p []byte) (int, error) {
	if _, err := s.w.Write(StripANSI(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}
