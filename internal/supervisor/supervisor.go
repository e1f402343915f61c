package supervisor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/roundtable/internal/config"
	"github.com/Iron-Ham/roundtable/internal/errors"
	"github.com/Iron-Ham/roundtable/internal/event"
	"github.com/Iron-Ham/roundtable/internal/logging"
)

// Options configures a Supervisor.
type Options struct {
	// Bus receives ParticipantStatusEvent and ParticipantOutputEvent
	// publications. Optional.
	Bus *event.Bus

	// Logger receives debug logging. Defaults to a no-op logger.
	Logger *logging.Logger

	// Factory creates transports. Defaults to real process transports;
	// tests substitute fakes.
	Factory TransportFactory
}

// Supervisor owns the participant processes of one session: it spawns them,
// primes them, tracks liveness, and restarts crashed participants according
// to their restart policy. It implements the router's delivery sink.
type Supervisor struct {
	workspace string
	cfg       config.SupervisorConfig
	bus       *event.Bus
	log       *logging.Logger
	factory   TransportFactory

	mu      sync.RWMutex
	handles map[string]*handle
}

// handle tracks one participant's process across restarts.
type handle struct {
	name        string
	participant config.ParticipantConfig
	priming     string
	settle      time.Duration
	output      io.Writer
	buffer      *RingBuffer
	mirror      *os.File

	mu         sync.RWMutex
	transport  Transport
	manualStop atomic.Bool
}

// transportRef returns the handle's current transport.
func (h *handle) transportRef() Transport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.transport
}

// setTransport swaps in a new transport after a restart.
func (h *handle) setTransport(t Transport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transport = t
}

// New creates a Supervisor for the given workspace.
func New(workspace string, cfg config.SupervisorConfig, opts Options) *Supervisor {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	if opts.Factory == nil {
		opts.Factory = defaultFactory
	}
	return &Supervisor{
		workspace: workspace,
		cfg:       cfg,
		bus:       opts.Bus,
		log:       opts.Logger.WithComponent("supervisor"),
		factory:   opts.Factory,
		handles:   make(map[string]*handle),
	}
}

// defaultFactory builds real process transports.
func defaultFactory(mode string, cfg TransportConfig) (Transport, error) {
	switch mode {
	case config.TransportPty:
		return newPtyTransport(cfg), nil
	case config.TransportPipe, "":
		return newPipeTransport(cfg), nil
	default:
		return nil, fmt.Errorf("supervisor: unknown transport %q", mode)
	}
}

// Start spawns a participant's process, waits out its settle delay, and
// delivers the priming text. It returns once the priming is delivered, so
// a nil error means the participant is up and has its instructions. The
// priming is retained and replayed verbatim if the participant is ever
// restarted.
func (s *Supervisor) Start(ctx context.Context, p config.ParticipantConfig, priming string) error {
	s.mu.Lock()
	if existing, ok := s.handles[p.Name]; ok && existing.transportRef() != nil && existing.transportRef().IsRunning() {
		s.mu.Unlock()
		return errors.NewParticipantError("already running", errors.ErrProcessAlreadyRunning).
			WithParticipant(p.Name)
	}

	h := &handle{
		name:        p.Name,
		participant: p,
		priming:     priming,
		settle:      p.Settle(&s.cfg),
		buffer:      NewRingBuffer(s.cfg.OutputBufferSize),
	}
	h.output = s.buildOutput(h)
	s.handles[p.Name] = h
	s.mu.Unlock()

	if err := s.spawn(ctx, h); err != nil {
		return err
	}

	s.publish(event.NewParticipantStatusEvent(p.Name, event.StatusStarted, 0, ""))
	s.log.Info("participant started", "participant", p.Name, "transport", p.Transport)

	go s.monitor(h)
	return nil
}

// buildOutput assembles the output writer chain for a participant: the
// ring buffer, optionally a per-participant mirror log with escape
// sequences stripped, and optionally output events on the bus.
func (s *Supervisor) buildOutput(h *handle) io.Writer {
	writers := []io.Writer{h.buffer}

	if s.cfg.MirrorOutput && s.workspace != "" {
		path := filepath.Join(s.workspace, h.name+".log")
		mirror, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			s.log.Warn("open mirror log", "participant", h.name, "error", err)
		} else {
			h.mirror = mirror
			writers = append(writers, stripWriter{mirror})
		}
	}

	if s.bus != nil {
		writers = append(writers, outputPublisher{bus: s.bus, name: h.name})
	}

	if len(writers) == 1 {
		return writers[0]
	}
	return io.MultiWriter(writers...)
}

// outputPublisher forwards output chunks to the event bus.
type outputPublisher struct {
	bus  *event.Bus
	name string
}

func (o outputPublisher) Write(p []byte) (int, error) {
	o.bus.Publish(event.NewParticipantOutputEvent(o.name, string(StripANSI(p))))
	return len(p), nil
}

// spawn creates a fresh transport for the handle, starts it, waits the
// settle delay, and delivers the priming text.
func (s *Supervisor) spawn(ctx context.Context, h *handle) error {
	t, err := s.factory(h.participant.Transport, TransportConfig{
		Command: h.participant.Command,
		Args:    h.participant.Args,
		Dir:     s.workspace,
		Env: []string{
			"ROUNDTABLE_PARTICIPANT=" + h.name,
			"ROUNDTABLE_WORKSPACE=" + s.workspace,
		},
		Output:      h.output,
		Rows:        s.cfg.PtyRows,
		Cols:        s.cfg.PtyCols,
		SubmitDelay: s.cfg.SubmitDelay(),
	})
	if err != nil {
		return err
	}

	if err := t.Start(ctx); err != nil {
		return errors.NewParticipantError("spawn failed", err).
			WithParticipant(h.name).
			WithTransport(h.participant.Transport)
	}
	h.setTransport(t)

	// Give the process time to boot before the priming lands; an
	// interactive CLI that is still drawing its first frame will eat or
	// mangle early input
	if h.settle > 0 {
		select {
		case <-time.After(h.settle):
		case <-ctx.Done():
			_ = t.Stop(s.cfg.StopTimeout())
			return ctx.Err()
		}
	}

	if err := t.Send(h.priming); err != nil {
		// A participant that never got its instructions must not linger as
		// a live, unsupervised process
		_ = t.Stop(s.cfg.StopTimeout())
		return errors.NewParticipantError("priming delivery failed", err).
			WithParticipant(h.name).
			WithTransport(h.participant.Transport)
	}
	return nil
}

// monitor watches a participant's process and applies its restart policy
// when it exits on its own.
func (s *Supervisor) monitor(h *handle) {
	pol := h.participant.Restart
	delay := pol.InitialDelay()
	attempts := 0

	for {
		code := h.transportRef().Wait()
		if h.manualStop.Load() {
			return
		}

		s.log.Warn("participant exited", "participant", h.name, "exit_code", code)
		s.publish(event.NewParticipantStatusEvent(h.name, event.StatusExited, code, ""))

		if !pol.Enabled {
			return
		}

		restarted := false
		for attempts < pol.MaxAttempts {
			attempts++
			s.publish(event.NewParticipantStatusEvent(h.name, event.StatusRestarting, 0,
				fmt.Sprintf("attempt %d of %d", attempts, pol.MaxAttempts)))

			time.Sleep(delay)
			delay = nextDelay(delay, pol.Multiplier, pol.MaxDelay())

			if h.manualStop.Load() {
				return
			}

			// The restarted process has none of its predecessor's
			// context, so spawn replays the original priming verbatim
			if err := s.spawn(context.Background(), h); err != nil {
				s.log.Error("restart failed", "participant", h.name, "attempt", attempts, "error", err)
				s.publish(event.NewParticipantStatusEvent(h.name, event.StatusError, 0, err.Error()))
				continue
			}

			s.publish(event.NewParticipantStatusEvent(h.name, event.StatusStarted, 0,
				fmt.Sprintf("restarted, attempt %d", attempts)))
			restarted = true
			break
		}

		if !restarted {
			s.log.Error("participant gave up restarting", "participant", h.name, "attempts", attempts)
			s.publish(event.NewParticipantStatusEvent(h.name, event.StatusMaxRetries, code,
				errors.ErrMaxRetries.Error()))
			return
		}
	}
}

// Send delivers text to a participant. Sending to a participant that is
// not running is a quiet no-op: messages race process exits, and a message
// lost to a dying process is indistinguishable from one lost in its stdin
// buffer anyway.
func (s *Supervisor) Send(name, text string) error {
	s.mu.RLock()
	h := s.handles[name]
	s.mu.RUnlock()

	if h == nil {
		return errors.NewParticipantError("unknown participant", errors.ErrParticipantNotFound).
			WithParticipant(name)
	}

	t := h.transportRef()
	if t == nil || !t.IsRunning() {
		s.log.Debug("dropping send to dead participant", "participant", name)
		return nil
	}

	if err := t.Send(text); err != nil {
		if errors.Is(err, errors.ErrProcessNotRunning) {
			return nil
		}
		return errors.NewParticipantError("send failed", err).WithParticipant(name)
	}
	return nil
}

// Deliver implements the router's sink over Send.
func (s *Supervisor) Deliver(participant, text string) error {
	return s.Send(participant, text)
}

// LiveParticipants returns the names of currently running participants,
// sorted for deterministic fan-out order.
func (s *Supervisor) LiveParticipants() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var live []string
	for name, h := range s.handles {
		if t := h.transportRef(); t != nil && t.IsRunning() {
			live = append(live, name)
		}
	}
	sort.Strings(live)
	return live
}

// IsRunning reports whether a participant's process is currently alive.
func (s *Supervisor) IsRunning(name string) bool {
	s.mu.RLock()
	h := s.handles[name]
	s.mu.RUnlock()

	if h == nil {
		return false
	}
	t := h.transportRef()
	return t != nil && t.IsRunning()
}

// Output returns a copy of the participant's recent output, or nil for an
// unknown participant.
func (s *Supervisor) Output(name string) []byte {
	s.mu.RLock()
	h := s.handles[name]
	s.mu.RUnlock()

	if h == nil {
		return nil
	}
	return h.buffer.Bytes()
}

// Stop terminates a participant without triggering its restart policy.
// Stopping an unknown or already-stopped participant succeeds.
func (s *Supervisor) Stop(name string) error {
	s.mu.RLock()
	h := s.handles[name]
	s.mu.RUnlock()

	if h == nil {
		return nil
	}

	h.manualStop.Store(true)
	t := h.transportRef()
	if t != nil && t.IsRunning() {
		if err := t.Stop(s.cfg.StopTimeout()); err != nil {
			return errors.NewParticipantError("stop failed", err).WithParticipant(name)
		}
		s.publish(event.NewParticipantStatusEvent(name, event.StatusStopped, 0, ""))
		s.log.Info("participant stopped", "participant", name)
	}

	if h.mirror != nil {
		_ = h.mirror.Close()
		h.mirror = nil
	}
	return nil
}

// StopAll terminates every participant. Used at session shutdown.
func (s *Supervisor) StopAll() {
	s.mu.RLock()
	names := make([]string, 0, len(s.handles))
	for name := range s.handles {
		names = append(names, name)
	}
	s.mu.RUnlock()

	sort.Strings(names)
	for _, name := range names {
		if err := s.Stop(name); err != nil {
			s.log.Error("stop participant", "participant", name, "error", err)
		}
	}
}

// Names returns all participant names the supervisor has ever started,
// running or not, sorted.
func (s *Supervisor) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.handles))
	for name := range s.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// publish sends an event to the bus if one is attached.
func (s *Supervisor) publish(e event.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

// nextDelay computes the backoff delay following cur: the current delay
// scaled by multiplier, capped at max.
func nextDelay(cur time.Duration, multiplier float64, max time.Duration) time.Duration {
	next := time.Duration(float64(cur) * multiplier)
	if next > max {
		return max
	}
	return next
}
