package supervisor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/Iron-Ham/roundtable/internal/errors"
)

// cursorPositionReply is the answer to the cursor position query (ESC[6n)
// that interactive CLIs commonly issue on startup. The reply is written
// unprompted right after spawn; a process that never asks simply reads a
// stray escape sequence, while one that does ask would otherwise hang
// waiting for a terminal that isn't there.
const cursorPositionReply = "\x1b[1;1R"

// ptyTransport runs a participant inside a pseudo-terminal, for agent CLIs
// that require an interactive terminal to operate.
type ptyTransport struct {
	cfg TransportConfig

	mu       sync.RWMutex
	cmd      *exec.Cmd
	ptmx     *os.File
	running  bool
	started  bool
	exitCode int
	waitDone chan struct{}
	waitOnce sync.Once
}

// newPtyTransport creates a pty transport from the given config.
func newPtyTransport(cfg TransportConfig) *ptyTransport {
	return &ptyTransport{cfg: cfg, exitCode: -1}
}

// Start launches the subprocess attached to a new pty sized from the config.
func (p *ptyTransport) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.ErrProcessAlreadyRunning
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cmd := exec.Command(p.cfg.Command, p.cfg.Args...)
	cmd.Dir = p.cfg.Dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	cmd.Env = append(cmd.Env, p.cfg.Env...)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(p.cfg.Rows),
		Cols: uint16(p.cfg.Cols),
	})
	if err != nil {
		return errors.Wrap(errors.ErrSpawnFailed, err.Error())
	}

	// Answer the startup cursor position query before the CLI can block
	// on it
	if _, err := ptmx.WriteString(cursorPositionReply); err != nil {
		_ = ptmx.Close()
		_ = cmd.Process.Kill()
		return fmt.Errorf("supervisor: prime pty: %w", err)
	}

	p.cmd = cmd
	p.ptmx = ptmx
	p.running = true
	p.started = true
	p.waitDone = make(chan struct{})
	p.waitOnce = sync.Once{}

	go p.drain()
	go p.reap()
	return nil
}

// drain copies pty output to the configured writer until the pty closes.
func (p *ptyTransport) drain() {
	if p.cfg.Output == nil {
		return
	}
	// The copy ends with an EIO when the child exits; that's the normal
	// pty close path on Linux
	_, _ = io.Copy(p.cfg.Output, p.ptmx)
}

// reap waits for the process to exit and records its exit code.
func (p *ptyTransport) reap() {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.running = false
	p.exitCode = exitCodeFromError(err)
	ptmx := p.ptmx
	p.mu.Unlock()

	_ = ptmx.Close()
	p.waitOnce.Do(func() { close(p.waitDone) })
}

// Send types the text into the pty, pauses, then sends the carriage return
// that submits it. Interactive CLIs treat a newline arriving in the same
// read as the text as a paste, so the pause is what makes the input count
// as a submission.
func (p *ptyTransport) Send(text string) error {
	p.mu.RLock()
	running := p.running
	ptmx := p.ptmx
	p.mu.RUnlock()

	if !running {
		return errors.ErrProcessNotRunning
	}

	if _, err := ptmx.WriteString(text); err != nil {
		return fmt.Errorf("supervisor: write to pty: %w", err)
	}
	time.Sleep(p.cfg.SubmitDelay)
	if _, err := ptmx.WriteString("\r"); err != nil {
		return fmt.Errorf("supervisor: submit to pty: %w", err)
	}
	return nil
}

// Stop sends SIGTERM, escalating to SIGKILL once the timeout elapses.
func (p *ptyTransport) Stop(timeout time.Duration) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cmd := p.cmd
	waitDone := p.waitDone
	p.mu.Unlock()

	_ = cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-waitDone:
		return nil
	case <-time.After(timeout):
	}

	_ = cmd.Process.Kill()
	<-waitDone
	return nil
}

// Wait blocks until the process exits and returns its exit code.
func (p *ptyTransport) Wait() int {
	p.mu.RLock()
	started := p.started
	waitDone := p.waitDone
	p.mu.RUnlock()

	if !started {
		return -1
	}
	<-waitDone

	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitCode
}

// IsRunning reports whether the process is currently alive.
func (p *ptyTransport) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// Resize changes the pty dimensions.
func (p *ptyTransport) Resize(rows, cols int) error {
	p.mu.RLock()
	running := p.running
	ptmx := p.ptmx
	p.mu.RUnlock()

	if !running {
		return nil
	}
	return pty.Setsize(ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// Verify interface implementation at compile time.
var _ Transport = (*ptyTransport)(nil)
