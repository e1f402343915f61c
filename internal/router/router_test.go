package router

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/roundtable/internal/event"
	"github.com/Iron-Ham/roundtable/internal/mailbox"
)

// delivery records a single fan-out delivery.
type delivery struct {
	to   string
	text string
}

// fakeSink implements Sink in memory for router tests.
type fakeSink struct {
	mu         sync.Mutex
	live       []string
	failFor    map[string]error
	deliveries []delivery
}

func newFakeSink(live ...string) *fakeSink {
	return &fakeSink{live: live, failFor: make(map[string]error)}
}

func (s *fakeSink) Deliver(participant, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failFor[participant]; err != nil {
		return err
	}
	s.deliveries = append(s.deliveries, delivery{to: participant, text: text})
	return nil
}

func (s *fakeSink) LiveParticipants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.live...)
}

func (s *fakeSink) delivered() []delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]delivery(nil), s.deliveries...)
}

func writeDrop(t *testing.T, store *mailbox.Store, name, content string) {
	t.Helper()
	if err := os.MkdirAll(store.OutboxPath(), 0o755); err != nil {
		t.Fatalf("create outbox: %v", err)
	}
	if err := os.WriteFile(store.DropPath(name), []byte(content), 0o644); err != nil {
		t.Fatalf("write drop: %v", err)
	}
}

func TestRouter_Process_FanOutExcludesOrigin(t *testing.T) {
	store := mailbox.NewStore(t.TempDir())
	sink := newFakeSink("alpha", "beta", "gamma")
	r := New(store, sink, Options{Colors: map[string]string{"alpha": "#ff0000"}})

	writeDrop(t, store, "alpha", "let's use a worker pool\n")

	if err := r.Process("alpha"); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// Message landed in the chat log with the origin's color
	messages, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].Seq != 1 {
		t.Errorf("Seq = %d, want 1", messages[0].Seq)
	}
	if messages[0].Origin != "alpha" {
		t.Errorf("Origin = %q, want %q", messages[0].Origin, "alpha")
	}
	if messages[0].Body != "let's use a worker pool" {
		t.Errorf("Body = %q, want %q", messages[0].Body, "let's use a worker pool")
	}
	if messages[0].Color != "#ff0000" {
		t.Errorf("Color = %q, want %q", messages[0].Color, "#ff0000")
	}

	// Drop-file was cleared
	content, err := store.ReadDrop("alpha")
	if err != nil {
		t.Fatalf("ReadDrop() error = %v", err)
	}
	if content != "" {
		t.Errorf("drop not cleared: %q", content)
	}

	// Everyone but the origin received the envelope
	got := sink.delivered()
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d: %v", len(got), got)
	}
	recipients := map[string]bool{}
	for _, d := range got {
		recipients[d.to] = true
		if !strings.Contains(d.text, "===== message from alpha =====") {
			t.Errorf("envelope missing origin header: %s", d.text)
		}
		if !strings.Contains(d.text, "let's use a worker pool") {
			t.Errorf("envelope missing body: %s", d.text)
		}
	}
	if recipients["alpha"] {
		t.Error("origin received its own message")
	}
	if !recipients["beta"] || !recipients["gamma"] {
		t.Errorf("expected beta and gamma, got %v", recipients)
	}
}

func TestRouter_Process_EmptyDropIgnored(t *testing.T) {
	store := mailbox.NewStore(t.TempDir())
	sink := newFakeSink("alpha", "beta")
	r := New(store, sink, Options{})

	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace only", "  \n\t\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeDrop(t, store, "alpha", tt.content)
			if err := r.Process("alpha"); err != nil {
				t.Fatalf("Process() error = %v", err)
			}

			messages, err := store.ReadAll()
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if len(messages) != 0 {
				t.Errorf("expected no logged messages, got %d", len(messages))
			}
			if got := sink.delivered(); len(got) != 0 {
				t.Errorf("expected no deliveries, got %v", got)
			}
		})
	}
}

func TestRouter_Process_MissingDrop(t *testing.T) {
	store := mailbox.NewStore(t.TempDir())
	r := New(store, newFakeSink("alpha"), Options{})

	// A fire for a participant whose drop-file never appeared is harmless
	if err := r.Process("ghost"); err != nil {
		t.Errorf("Process() error = %v", err)
	}
}

func TestRouter_Process_DeliveryFailureIsolated(t *testing.T) {
	store := mailbox.NewStore(t.TempDir())
	sink := newFakeSink("alpha", "beta", "gamma")
	sink.failFor["beta"] = fmt.Errorf("stdin closed")

	bus := event.NewBus()
	var mu sync.Mutex
	var failures []event.DeliveryFailedEvent
	bus.Subscribe("message.delivery_failed", func(e event.Event) {
		mu.Lock()
		failures = append(failures, e.(event.DeliveryFailedEvent))
		mu.Unlock()
	})

	r := New(store, sink, Options{Bus: bus})
	writeDrop(t, store, "alpha", "anyone alive?")

	if err := r.Process("alpha"); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// Gamma still got the message despite beta failing
	got := sink.delivered()
	if len(got) != 1 || got[0].to != "gamma" {
		t.Errorf("deliveries = %v, want one to gamma", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(failures) != 1 {
		t.Fatalf("expected 1 delivery failure event, got %d", len(failures))
	}
	if failures[0].Participant != "beta" {
		t.Errorf("failure participant = %q, want %q", failures[0].Participant, "beta")
	}
	if failures[0].Seq != 1 {
		t.Errorf("failure seq = %d, want 1", failures[0].Seq)
	}
}

func TestRouter_Process_PublishesRoutedEvent(t *testing.T) {
	store := mailbox.NewStore(t.TempDir())
	bus := event.NewBus()

	var mu sync.Mutex
	var routed []event.MessageRoutedEvent
	bus.Subscribe("message.routed", func(e event.Event) {
		mu.Lock()
		routed = append(routed, e.(event.MessageRoutedEvent))
		mu.Unlock()
	})

	r := New(store, newFakeSink("alpha", "beta"), Options{Bus: bus})
	writeDrop(t, store, "alpha", "observe me")

	if err := r.Process("alpha"); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(routed) != 1 {
		t.Fatalf("expected 1 routed event, got %d", len(routed))
	}
	if routed[0].Origin != "alpha" || routed[0].Body != "observe me" {
		t.Errorf("routed event = %+v", routed[0])
	}
}

func TestRouter_SubmitUserMessage_FansToAll(t *testing.T) {
	store := mailbox.NewStore(t.TempDir())
	sink := newFakeSink("alpha", "beta")
	r := New(store, sink, Options{})

	seq, err := r.SubmitUserMessage("  please add tests  ")
	if err != nil {
		t.Fatalf("SubmitUserMessage() error = %v", err)
	}
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}

	messages, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].Kind != mailbox.KindUser {
		t.Errorf("Kind = %q, want %q", messages[0].Kind, mailbox.KindUser)
	}
	if messages[0].Origin != UserOrigin {
		t.Errorf("Origin = %q, want %q", messages[0].Origin, UserOrigin)
	}
	if messages[0].Body != "please add tests" {
		t.Errorf("Body = %q, want %q (trimmed)", messages[0].Body, "please add tests")
	}

	// User messages go to every participant, no exclusion
	got := sink.delivered()
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	for _, d := range got {
		if !strings.Contains(d.text, "===== message from user =====") {
			t.Errorf("envelope missing user header: %s", d.text)
		}
	}
}

func TestRouter_SubmitUserMessage_NoLiveParticipants(t *testing.T) {
	store := mailbox.NewStore(t.TempDir())
	r := New(store, newFakeSink(), Options{})

	// Still recorded even with nobody to deliver to
	seq, err := r.SubmitUserMessage("for the record")
	if err != nil {
		t.Fatalf("SubmitUserMessage() error = %v", err)
	}
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}

	messages, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
}

func TestRouter_SubmitUserMessage_Empty(t *testing.T) {
	store := mailbox.NewStore(t.TempDir())
	r := New(store, newFakeSink("alpha"), Options{})

	if _, err := r.SubmitUserMessage("   \n"); err == nil {
		t.Error("expected error for empty user message, got nil")
	}
}

func TestRouter_WatchAndRoute(t *testing.T) {
	store := mailbox.NewStore(t.TempDir())
	sink := newFakeSink("alpha", "beta")
	r := New(store, sink, Options{Quiet: 50 * time.Millisecond})

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop()

	// Simulate an agent writing its message in two chunks
	writeDrop(t, store, "alpha", "hel")
	time.Sleep(10 * time.Millisecond)
	writeDrop(t, store, "alpha", "hello")

	// Wait for the debounce window to settle and the message to route
	deadline := time.Now().Add(3 * time.Second)
	for {
		if got := sink.delivered(); len(got) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for routed message")
		}
		time.Sleep(10 * time.Millisecond)
	}

	got := sink.delivered()
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 delivery, got %d: %v", len(got), got)
	}
	if got[0].to != "beta" {
		t.Errorf("delivered to %q, want %q", got[0].to, "beta")
	}
	if !strings.Contains(got[0].text, "hello") {
		t.Errorf("delivery missing full content: %s", got[0].text)
	}
	// The partial chunk must not have been routed separately
	if strings.Count(got[0].text, "hel") != 1 {
		t.Errorf("partial write leaked into delivery: %s", got[0].text)
	}

	messages, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(messages) != 1 || messages[0].Body != "hello" {
		t.Errorf("chat log = %+v, want single %q message", messages, "hello")
	}
}

func TestRouter_PlanReadyFiresOnce(t *testing.T) {
	dir := t.TempDir()
	store := mailbox.NewStore(dir)
	planPath := filepath.Join(dir, "PLAN_FINAL.md")

	bus := event.NewBus()
	var mu sync.Mutex
	ready := 0
	bus.Subscribe("plan.ready", func(event.Event) {
		mu.Lock()
		ready++
		mu.Unlock()
	})

	r := New(store, newFakeSink(), Options{Quiet: 20 * time.Millisecond, PlanPath: planPath, Bus: bus})
	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop()

	if err := os.WriteFile(planPath, []byte("# Final Plan\n1. build it\n"), 0o644); err != nil {
		t.Fatalf("write plan: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		mu.Lock()
		n := ready
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for plan.ready")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// A second write must not fire again
	if err := os.WriteFile(planPath, []byte("# Final Plan\n1. build it\n2. ship it\n"), 0o644); err != nil {
		t.Fatalf("rewrite plan: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if ready != 1 {
		t.Errorf("plan.ready fired %d times, want 1", ready)
	}
}

func TestRouter_StopIdempotent(t *testing.T) {
	store := mailbox.NewStore(t.TempDir())
	r := New(store, newFakeSink(), Options{})

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	r.Stop()
	r.Stop()
}
