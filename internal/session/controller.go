// Package session ties the collaboration pieces together: it owns the
// workspace, starts and stops the participant roster, and carries a
// session's state across invocations.
package session

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/roundtable/internal/config"
	"github.com/Iron-Ham/roundtable/internal/event"
	"github.com/Iron-Ham/roundtable/internal/logging"
	"github.com/Iron-Ham/roundtable/internal/mailbox"
	"github.com/Iron-Ham/roundtable/internal/router"
	"github.com/Iron-Ham/roundtable/internal/supervisor"
)

// ParticipantResult reports the launch outcome for one participant.
type ParticipantResult struct {
	Name string
	Err  error
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	Bus    *event.Bus
	Logger *logging.Logger
}

// Controller runs one collaboration session: it locks the workspace,
// launches every configured participant with its priming prompt, starts
// message routing, and tears it all down again.
type Controller struct {
	cfg   *config.Config
	store *mailbox.Store
	sup   *supervisor.Supervisor
	rtr   *router.Router
	bus   *event.Bus
	log   *logging.Logger

	mu           sync.Mutex
	lock         *Lock
	running      bool
	implementing bool
}

// NewController creates a Controller over pre-wired collaborators.
func NewController(cfg *config.Config, store *mailbox.Store, sup *supervisor.Supervisor, rtr *router.Router, opts ControllerOptions) *Controller {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	return &Controller{
		cfg:   cfg,
		store: store,
		sup:   sup,
		rtr:   rtr,
		bus:   opts.Bus,
		log:   opts.Logger.WithComponent("session"),
	}
}

// Start brings up a session for the given challenge: workspace and outbox
// files, the message router, and every configured participant. Participants
// launch concurrently; one participant failing to start does not abort the
// others, and the per-participant outcomes come back in the result slice.
// Start returns an error only when nothing could be started at all.
func (c *Controller) Start(ctx context.Context, challenge string) ([]ParticipantResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil, fmt.Errorf("session: already running")
	}
	participants := c.cfg.Participants
	if len(participants) == 0 {
		return nil, fmt.Errorf("session: no participants configured")
	}

	workspace := c.store.Dir()
	if err := os.MkdirAll(workspace, 0755); err != nil {
		return nil, fmt.Errorf("session: create workspace: %w", err)
	}

	lock, err := AcquireLock(workspace, c.log)
	if err != nil {
		return nil, err
	}
	c.lock = lock

	// A new session starts from a blank slate: the previous run's chat
	// log, outbox leftovers, and plan must not leak into this conversation
	if err := c.store.ResetAll(); err != nil {
		c.releaseLocked()
		return nil, err
	}
	planPath := c.cfg.Workspace.PlanPath(workspace)
	if err := os.Remove(planPath); err != nil && !os.IsNotExist(err) {
		c.releaseLocked()
		return nil, fmt.Errorf("session: remove plan file: %w", err)
	}

	// Pre-create the outbox files so participants can open them by the
	// path in their priming, and so the watcher has the directory in place
	for _, p := range participants {
		if err := c.store.EnsureDrop(p.Name); err != nil {
			c.releaseLocked()
			return nil, err
		}
	}

	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.Name
	}
	if err := SaveState(workspace, &State{
		Challenge:    challenge,
		Participants: names,
		StartedAt:    time.Now(),
	}); err != nil {
		c.log.Warn("save session state", "error", err)
	}

	// Router first: a fast participant may finish its opening message
	// while slower peers are still settling
	if err := c.rtr.Start(); err != nil {
		c.releaseLocked()
		return nil, err
	}

	results := make([]ParticipantResult, len(participants))
	var wg sync.WaitGroup
	for i, p := range participants {
		wg.Go(func() {
			vars := PrimingVars(challenge, p, participants, c.store, planPath)
			priming := ExpandTemplate(c.template(), vars)
			err := c.sup.Start(ctx, p, priming)
			results[i] = ParticipantResult{Name: p.Name, Err: err}
			if err != nil {
				c.log.Error("participant failed to start", "participant", p.Name, "error", err)
			}
		})
	}
	wg.Wait()

	started := 0
	for _, r := range results {
		if r.Err == nil {
			started++
		}
	}
	if started == 0 {
		c.rtr.Stop()
		c.releaseLocked()
		return results, fmt.Errorf("session: no participant started")
	}

	c.running = true
	c.implementing = false
	c.log.Info("session started",
		"workspace", workspace,
		"participants", started,
		"failed", len(results)-started,
	)
	return results, nil
}

// template returns the priming template, falling back to the default when
// the config leaves it blank.
func (c *Controller) template() string {
	if strings.TrimSpace(c.cfg.Prompt.Template) != "" {
		return c.cfg.Prompt.Template
	}
	return config.DefaultTemplate
}

// Stop tears the session down: routing stops first so no fan-out races the
// process shutdown, then every participant is terminated. Stop is
// idempotent; stopping a session that never started is a no-op.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

func (c *Controller) stopLocked() error {
	if !c.running {
		c.releaseLocked()
		return nil
	}

	c.rtr.Stop()
	c.sup.StopAll()
	c.releaseLocked()
	c.running = false
	c.log.Info("session stopped", "workspace", c.store.Dir())
	return nil
}

// releaseLocked drops the workspace lock if held. Caller must hold c.mu.
func (c *Controller) releaseLocked() {
	if c.lock != nil {
		if err := c.lock.Release(); err != nil {
			c.log.Warn("release workspace lock", "error", err)
		}
		c.lock = nil
	}
}

// Reset stops the session, wipes the chat log and all outbox files, and
// removes any plan the previous round produced. The workspace directory
// itself survives, so sequence numbering restarts at 1 on the next run.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.stopLocked(); err != nil {
		return err
	}
	if err := c.store.ResetAll(); err != nil {
		return err
	}

	workspace := c.store.Dir()
	planPath := c.cfg.Workspace.PlanPath(workspace)
	if err := os.Remove(planPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session: remove plan file: %w", err)
	}

	c.implementing = false
	if state, err := LoadState(workspace); err == nil && state != nil {
		state.ResetAt = time.Now()
		state.Implementer = ""
		if err := SaveState(workspace, state); err != nil {
			c.log.Warn("save session state", "error", err)
		}
	}

	if c.bus != nil {
		c.bus.Publish(event.NewSessionResetEvent(workspace))
	}
	c.log.Info("session reset", "workspace", workspace)
	return nil
}

// SubmitUserMessage records an operator message in the shared log and fans
// it out to the whole roster. Returns the message's sequence number.
func (c *Controller) SubmitUserMessage(body string) (int64, error) {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()

	if !running {
		return 0, fmt.Errorf("session: not running")
	}
	return c.rtr.SubmitUserMessage(body)
}

// StartImplementation hands the agreed plan to one of the running
// participants: the named implementer is told to build it and every other
// participant is told to switch to reviewing. The kickoff goes out as a
// regular user message, so it lands in the shared log and fans out to the
// whole roster. Returns the kickoff's sequence number.
func (c *Controller) StartImplementation(implementer string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return 0, fmt.Errorf("session: not running")
	}
	if c.implementing {
		return 0, fmt.Errorf("session: implementation already started")
	}

	var others []string
	found := false
	for _, p := range c.cfg.Participants {
		if p.Name == implementer {
			found = true
			continue
		}
		others = append(others, p.Name)
	}
	if !found {
		return 0, fmt.Errorf("session: unknown participant %q", implementer)
	}

	msg := BuildImplementationKickoff(implementer, others, c.cfg.Workspace.PlanFile)
	seq, err := c.rtr.SubmitUserMessage(msg)
	if err != nil {
		return 0, err
	}
	c.implementing = true

	workspace := c.store.Dir()
	if state, err := LoadState(workspace); err == nil && state != nil {
		state.Implementer = implementer
		if err := SaveState(workspace, state); err != nil {
			c.log.Warn("save session state", "error", err)
		}
	}
	c.log.Info("implementation started", "implementer", implementer, "seq", seq)
	return seq, nil
}

// Running reports whether the session is currently up.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// HandoffToImplementer renders the prompt that hands the finished plan to
// a fresh implementer agent. It reads the plan file and the saved
// challenge but starts nothing and modifies nothing.
func (c *Controller) HandoffToImplementer() (string, error) {
	workspace := c.store.Dir()
	planPath := c.cfg.Workspace.PlanPath(workspace)

	plan, err := os.ReadFile(planPath)
	if err != nil {
		return "", fmt.Errorf("session: read plan: %w", err)
	}
	if strings.TrimSpace(string(plan)) == "" {
		return "", fmt.Errorf("session: plan file is empty")
	}

	challenge := ""
	if state, err := LoadState(workspace); err == nil && state != nil {
		challenge = state.Challenge
	}

	return BuildHandoff(challenge, string(plan)), nil
}
