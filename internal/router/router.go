package router

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/roundtable/internal/event"
	"github.com/Iron-Ham/roundtable/internal/logging"
	"github.com/Iron-Ham/roundtable/internal/mailbox"
)

// UserOrigin is the origin recorded for operator-submitted messages.
const UserOrigin = "user"

// Sink is where routed messages get delivered. The supervisor implements
// it over the participants' stdin streams.
type Sink interface {
	// Deliver sends text to a single participant. A delivery failure
	// affects only that participant; the router continues with the rest.
	Deliver(participant, text string) error

	// LiveParticipants returns the names of participants currently able
	// to receive deliveries.
	LiveParticipants() []string
}

// Options configures a Router.
type Options struct {
	// Quiet is the debounce window a drop-file must go without writes
	// before its content is routed.
	Quiet time.Duration

	// PlanPath is the shared plan artifact to watch. When it becomes
	// non-empty a PlanReadyEvent is published once. Empty disables
	// plan watching.
	PlanPath string

	// Colors maps participant names to display colors carried on
	// routed messages.
	Colors map[string]string

	// Bus receives MessageRoutedEvent, DeliveryFailedEvent, and
	// PlanReadyEvent publications. Optional.
	Bus *event.Bus

	// Logger receives debug logging. Defaults to a no-op logger.
	Logger *logging.Logger
}

// Router watches participant drop-files and moves settled messages through
// the shared chat log and out to the other participants.
type Router struct {
	store  *mailbox.Store
	sink   Sink
	bus    *event.Bus
	log    *logging.Logger
	colors map[string]string

	planPath  string
	planFired atomic.Bool

	debouncer *Debouncer
	watcher   *fsnotify.Watcher

	// processMu serializes Process calls so two drop-files settling at
	// the same moment cannot interleave their append/clear/fan-out.
	processMu sync.Mutex

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// New creates a Router over the given store and delivery sink.
func New(store *mailbox.Store, sink Sink, opts Options) *Router {
	if opts.Quiet <= 0 {
		opts.Quiet = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}

	r := &Router{
		store:    store,
		sink:     sink,
		bus:      opts.Bus,
		log:      opts.Logger.WithComponent("router"),
		colors:   opts.Colors,
		planPath: opts.PlanPath,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	r.debouncer = NewDebouncer(opts.Quiet, func(name string) {
		if err := r.Process(name); err != nil {
			r.log.Error("process drop-file", "participant", name, "error", err)
		}
	})
	return r
}

// Start begins watching the outbox directory (and the plan file's directory,
// if configured) for writes. It returns once the watches are registered.
func (r *Router) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("router: create watcher: %w", err)
	}
	r.watcher = watcher

	// The outbox must exist before it can be watched
	if err := os.MkdirAll(r.store.OutboxPath(), 0o755); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("router: create outbox: %w", err)
	}
	if err := watcher.Add(r.store.OutboxPath()); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("router: watch outbox: %w", err)
	}

	// fsnotify watches directories, so the plan file is observed through
	// its parent (the workspace root)
	if r.planPath != "" {
		if err := watcher.Add(r.store.Dir()); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("router: watch workspace: %w", err)
		}
	}

	go r.watchLoop()
	r.log.Info("router started", "outbox", r.store.OutboxPath(), "plan", r.planPath)
	return nil
}

// Stop shuts down the watcher and cancels pending debounce windows.
// Safe to call more than once.
func (r *Router) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		if r.watcher != nil {
			_ = r.watcher.Close()
			<-r.done
		}
		r.debouncer.Stop()
	})
}

// watchLoop processes filesystem events until Stop.
func (r *Router) watchLoop() {
	defer close(r.done)

	for {
		select {
		case <-r.stopCh:
			return

		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}

			// Only care about write/create operations
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if name := r.store.DropName(ev.Name); name != "" {
				r.debouncer.Touch(name)
				continue
			}
			if r.planPath != "" && ev.Name == r.planPath {
				r.checkPlan()
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.log.Warn("watcher error", "error", err)
		}
	}
}

// Process routes one participant's settled drop-file content: append it to
// the chat log, clear the drop-file, and deliver it to every other live
// participant. A drop-file that settles empty (or whitespace only) is
// ignored. Exported for callers that already know a drop-file is stable;
// the watcher invokes it via the debouncer.
func (r *Router) Process(name string) error {
	r.processMu.Lock()
	defer r.processMu.Unlock()

	content, err := r.store.ReadDrop(name)
	if err != nil {
		return err
	}
	body := strings.TrimSpace(content)
	if body == "" {
		return nil
	}

	msg := mailbox.Message{
		Origin: name,
		Kind:   mailbox.KindAgent,
		Body:   body,
		Color:  r.colors[name],
	}
	seq, err := r.store.Append(msg)
	if err != nil {
		return err
	}
	msg.Seq = seq

	if err := r.store.ClearDrop(name); err != nil {
		return err
	}

	r.log.Debug("routing message", "seq", seq, "origin", name, "bytes", len(body))
	r.fanOut(msg, name)
	return nil
}

// SubmitUserMessage appends an operator message to the chat log and
// delivers it to every live participant, including any the message may
// concern directly. Succeeds even when no participants are live; the
// message is still recorded.
func (r *Router) SubmitUserMessage(body string) (int64, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return 0, fmt.Errorf("router: user message is empty")
	}

	r.processMu.Lock()
	defer r.processMu.Unlock()

	msg := mailbox.Message{
		Origin: UserOrigin,
		Kind:   mailbox.KindUser,
		Body:   body,
	}
	seq, err := r.store.Append(msg)
	if err != nil {
		return 0, err
	}
	msg.Seq = seq

	r.log.Debug("routing user message", "seq", seq, "bytes", len(body))
	r.fanOut(msg, "")
	return seq, nil
}

// fanOut delivers a logged message to every live participant except the
// origin. Per-recipient failures are reported and skipped so one wedged
// participant cannot block the rest.
func (r *Router) fanOut(msg mailbox.Message, exclude string) {
	envelope := mailbox.FormatEnvelope(msg.Origin, msg.Body)

	for _, p := range r.sink.LiveParticipants() {
		if p == exclude {
			continue
		}
		if err := r.sink.Deliver(p, envelope); err != nil {
			r.log.Warn("delivery failed", "seq", msg.Seq, "participant", p, "error", err)
			if r.bus != nil {
				r.bus.Publish(event.NewDeliveryFailedEvent(msg.Seq, p, err.Error()))
			}
		}
	}

	if r.bus != nil {
		r.bus.Publish(mailbox.NewRoutedEvent(msg))
	}
}

// checkPlan publishes a PlanReadyEvent the first time the plan file is
// seen with non-empty content.
func (r *Router) checkPlan() {
	if r.planFired.Load() {
		return
	}

	data, err := os.ReadFile(r.planPath)
	if err != nil {
		return
	}
	if strings.TrimSpace(string(data)) == "" {
		return
	}

	if r.planFired.CompareAndSwap(false, true) {
		r.log.Info("plan file ready", "path", r.planPath)
		if r.bus != nil {
			r.bus.Publish(event.NewPlanReadyEvent(r.planPath))
		}
	}
}
