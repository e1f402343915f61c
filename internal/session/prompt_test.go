package session

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/roundtable/internal/config"
	"github.com/Iron-Ham/roundtable/internal/mailbox"
)

func TestExpandTemplate(t *testing.T) {
	vars := map[string]string{
		PlaceholderChallenge: "build a parser",
		PlaceholderSelfName:  "alpha",
	}

	got := ExpandTemplate("You are {self_name}. Task: {challenge}.", vars)
	want := "You are alpha. Task: build a parser."
	if got != want {
		t.Errorf("ExpandTemplate() = %q, want %q", got, want)
	}
}

func TestExpandTemplate_UnresolvedPlaceholdersStayLiteral(t *testing.T) {
	vars := map[string]string{
		PlaceholderSelfName: "alpha",
	}

	got := ExpandTemplate("{self_name} writes to {outbox_file} about {custom_thing}", vars)
	if !strings.Contains(got, "{outbox_file}") {
		t.Errorf("ExpandTemplate() = %q, want {outbox_file} left literal", got)
	}
	if !strings.Contains(got, "{custom_thing}") {
		t.Errorf("ExpandTemplate() = %q, want {custom_thing} left literal", got)
	}
}

func TestExpandTemplate_EmptyVars(t *testing.T) {
	tmpl := "untouched {challenge} text"
	if got := ExpandTemplate(tmpl, nil); got != tmpl {
		t.Errorf("ExpandTemplate() = %q, want %q", got, tmpl)
	}
}

func TestPrimingVars(t *testing.T) {
	store := mailbox.NewStore("/ws")
	all := []config.ParticipantConfig{
		{Name: "alpha"},
		{Name: "beta"},
		{Name: "gamma"},
	}

	vars := PrimingVars("the task", all[1], all, store, "/ws/PLAN_FINAL.md")

	if vars[PlaceholderSelfName] != "beta" {
		t.Errorf("self_name = %q, want %q", vars[PlaceholderSelfName], "beta")
	}
	if vars[PlaceholderPeerNames] != "alpha, gamma" {
		t.Errorf("peer_names = %q, want %q", vars[PlaceholderPeerNames], "alpha, gamma")
	}
	if vars[PlaceholderOutbox] != store.DropPath("beta") {
		t.Errorf("outbox_file = %q, want %q", vars[PlaceholderOutbox], store.DropPath("beta"))
	}
	if vars[PlaceholderChallenge] != "the task" {
		t.Errorf("challenge = %q, want %q", vars[PlaceholderChallenge], "the task")
	}
	if vars[PlaceholderWorkspace] != "/ws" {
		t.Errorf("workspace = %q, want %q", vars[PlaceholderWorkspace], "/ws")
	}
}

func TestPrimingVars_SingleParticipant(t *testing.T) {
	store := mailbox.NewStore("/ws")
	all := []config.ParticipantConfig{{Name: "solo"}}

	vars := PrimingVars("task", all[0], all, store, "/ws/PLAN_FINAL.md")
	if vars[PlaceholderPeerNames] != "" {
		t.Errorf("peer_names = %q, want empty", vars[PlaceholderPeerNames])
	}
}

func TestDefaultTemplate_ExpandsClean(t *testing.T) {
	store := mailbox.NewStore("/ws")
	all := []config.ParticipantConfig{{Name: "alpha"}, {Name: "beta"}}

	vars := PrimingVars("design a cache", all[0], all, store, "/ws/PLAN_FINAL.md")
	got := ExpandTemplate(config.DefaultTemplate, vars)

	if strings.Contains(got, "{") {
		t.Errorf("expanded default template still contains braces:\n%s", got)
	}
	for _, want := range []string{"design a cache", "alpha", "beta"} {
		if !strings.Contains(got, want) {
			t.Errorf("expanded template missing %q", want)
		}
	}
}

func TestBuildHandoff(t *testing.T) {
	got := BuildHandoff("  make it fast  ", "1. profile\n2. fix\n")

	if !strings.Contains(got, "make it fast") {
		t.Errorf("handoff missing challenge: %q", got)
	}
	if !strings.Contains(got, "1. profile\n2. fix") {
		t.Errorf("handoff missing plan: %q", got)
	}
	if strings.Contains(got, "{challenge}") || strings.Contains(got, "{plan}") {
		t.Errorf("handoff has unexpanded placeholders: %q", got)
	}
}

func TestBuildImplementationKickoff(t *testing.T) {
	got := BuildImplementationKickoff("alpha", []string{"beta", "gamma"}, "PLAN_FINAL.md")

	for _, want := range []string{"alpha", "beta, gamma", "PLAN_FINAL.md"} {
		if !strings.Contains(got, want) {
			t.Errorf("kickoff missing %q: %q", want, got)
		}
	}
	if strings.Contains(got, "{") {
		t.Errorf("kickoff has unexpanded placeholders: %q", got)
	}
}

func TestBuildImplementationKickoff_NoPeers(t *testing.T) {
	got := BuildImplementationKickoff("solo", nil, "PLAN_FINAL.md")
	if !strings.Contains(got, "everyone else") {
		t.Errorf("kickoff = %q, want fallback reviewer text", got)
	}
}
