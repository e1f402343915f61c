// Package supervisor manages the lifecycle of participant agent processes.
//
// Each participant runs as a subprocess behind a Transport: a pipe transport
// for plain stdin/stdout programs, or a pty transport for interactive agent
// CLIs that refuse to run without a terminal. The Supervisor spawns each
// process, waits out its settle delay, delivers its priming prompt, and then
// monitors it, restarting crashed participants with exponential backoff when
// their restart policy allows.
package supervisor

import (
	"context"
	"io"
	"time"
)

// Transport abstracts how the supervisor talks to one participant process.
//
// The typical lifecycle is:
//  1. Create a transport with newPipeTransport or newPtyTransport
//  2. Start the process with Start(ctx)
//  3. Deliver messages with Send(text)
//  4. Stop(timeout) for graceful shutdown, or Wait() for the exit code
type Transport interface {
	// Start launches the process and begins copying its output to the
	// configured writer.
	//
	// Returns ErrProcessAlreadyRunning if the process is already running.
	Start(ctx context.Context) error

	// Send delivers one message to the process. How the message is
	// submitted is transport specific: pipes append a newline, ptys
	// type the text and follow with a carriage return after a pause.
	//
	// Returns ErrProcessNotRunning if the process is not running.
	Send(text string) error

	// Stop terminates the process, first gracefully and then forcefully
	// once the timeout elapses. Safe to call on a process that already
	// exited.
	Stop(timeout time.Duration) error

	// Wait blocks until the process exits and returns its exit code,
	// or -1 if the exit code is unknown.
	//
	// Wait can be called concurrently from multiple goroutines.
	Wait() int

	// IsRunning reflects the actual state of the underlying process,
	// not just whether Start was called.
	IsRunning() bool
}

// TransportConfig holds the settings shared by all transport kinds.
type TransportConfig struct {
	// Command is the executable to launch.
	Command string

	// Args are the arguments passed to the command.
	Args []string

	// Dir is the working directory for the process.
	Dir string

	// Env entries are appended to the parent environment.
	Env []string

	// Output receives everything the process writes. Must be safe for
	// use from the transport's copy goroutine.
	Output io.Writer

	// Rows and Cols set the pty dimensions. Ignored by the pipe transport.
	Rows int
	Cols int

	// SubmitDelay is the pause between typing text into a pty and
	// sending the carriage return that submits it. Ignored by the pipe
	// transport.
	SubmitDelay time.Duration
}

// TransportFactory creates a Transport for the given mode ("pipe" or
// "pty"). The supervisor's default factory builds real process transports;
// tests substitute their own.
type TransportFactory func(mode string, cfg TransportConfig) (Transport, error)
