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

	"github.com/Iron-Ham/roundtable/internal/errors"
)

// pipeTransport runs a participant as a plain subprocess wired up through
// stdin/stdout pipes. Suitable for programs that read line-delimited input.
type pipeTransport struct {
	cfg TransportConfig

	mu       sync.RWMutex
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	running  bool
	started  bool
	exitCode int
	waitDone chan struct{}
	waitOnce sync.Once
}

// newPipeTransport creates a pipe transport from the given config.
func newPipeTransport(cfg TransportConfig) *pipeTransport {
	return &pipeTransport{cfg: cfg, exitCode: -1}
}

// Start launches the subprocess and begins draining its output.
func (p *pipeTransport) Start(ctx context.Context) error {
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
	cmd.Env = append(os.Environ(), p.cfg.Env...)
	if p.cfg.Output != nil {
		cmd.Stdout = p.cfg.Output
		cmd.Stderr = p.cfg.Output
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("supervisor: open stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrap(errors.ErrSpawnFailed, err.Error())
	}

	p.cmd = cmd
	p.stdin = stdin
	p.running = true
	p.started = true
	p.waitDone = make(chan struct{})
	p.waitOnce = sync.Once{}

	go p.reap()
	return nil
}

// reap waits for the process to exit and records its exit code.
func (p *pipeTransport) reap() {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.running = false
	p.exitCode = exitCodeFromError(err)
	p.mu.Unlock()

	p.waitOnce.Do(func() { close(p.waitDone) })
}

// Send writes one message to the process's stdin, newline terminated.
func (p *pipeTransport) Send(text string) error {
	p.mu.RLock()
	running := p.running
	stdin := p.stdin
	p.mu.RUnlock()

	if !running {
		return errors.ErrProcessNotRunning
	}

	if _, err := io.WriteString(stdin, text+"\n"); err != nil {
		return fmt.Errorf("supervisor: write to stdin: %w", err)
	}
	return nil
}

// Stop closes stdin and sends SIGTERM, escalating to SIGKILL once the
// timeout elapses.
func (p *pipeTransport) Stop(timeout time.Duration) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cmd := p.cmd
	stdin := p.stdin
	waitDone := p.waitDone
	p.mu.Unlock()

	_ = stdin.Close()
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
func (p *pipeTransport) Wait() int {
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
func (p *pipeTransport) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// exitCodeFromError extracts a process exit code from exec.Cmd.Wait's error.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Verify interface implementation at compile time.
var _ Transport = (*pipeTransport)(nil)
