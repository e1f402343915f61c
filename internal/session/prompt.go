package session

import (
	"strings"

	"github.com/Iron-Ham/roundtable/internal/config"
	"github.com/Iron-Ham/roundtable/internal/mailbox"
)

// Template placeholders. Expansion replaces exactly these tokens; anything
// else that looks like a placeholder passes through untouched, so prompt
// authors can include literal braces without escaping.
const (
	PlaceholderChallenge = "{challenge}"
	PlaceholderSelfName  = "{self_name}"
	PlaceholderPeerNames = "{peer_names}"
	PlaceholderOutbox    = "{outbox_file}"
	PlaceholderPlanFile  = "{plan_file}"
	PlaceholderWorkspace = "{workspace}"
)

// ExpandTemplate substitutes the known placeholders in template with the
// values in vars. Placeholders missing from vars are left literal.
func ExpandTemplate(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for placeholder, value := range vars {
		pairs = append(pairs, placeholder, value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// PrimingVars builds the substitution map for one participant's priming
// prompt. Peer names exclude the participant itself.
func PrimingVars(challenge string, self config.ParticipantConfig, all []config.ParticipantConfig, store *mailbox.Store, planPath string) map[string]string {
	var peers []string
	for _, p := range all {
		if p.Name != self.Name {
			peers = append(peers, p.Name)
		}
	}
	return map[string]string{
		PlaceholderChallenge: challenge,
		PlaceholderSelfName:  self.Name,
		PlaceholderPeerNames: strings.Join(peers, ", "),
		PlaceholderOutbox:    store.DropPath(self.Name),
		PlaceholderPlanFile:  planPath,
		PlaceholderWorkspace: store.Dir(),
	}
}

// handoffTemplate frames the finished plan for a fresh implementer agent
// that took no part in the discussion.
const handoffTemplate = `You are implementing a plan that a team of agents already agreed on.

The original task:
{challenge}

The agreed plan:
{plan}

Implement the plan exactly as written. Where the plan is silent, use your
own judgment, but do not revisit decisions the plan already settles.`

// BuildHandoff renders the implementer handoff prompt. It is pure text
// assembly: no processes are started and no files are touched.
func BuildHandoff(challenge, plan string) string {
	return strings.NewReplacer(
		"{challenge}", strings.TrimSpace(challenge),
		"{plan}", strings.TrimSpace(plan),
	).Replace(handoffTemplate)
}

// kickoffTemplate turns one participant into the implementer and the rest
// into reviewers. It goes out as an ordinary user message.
const kickoffTemplate = `{implementer}: the plan in {plan_file} is agreed. Begin implementing it now.
{others}: stop proposing changes. Review {implementer}'s work as it lands and flag anything that deviates from the plan.`

// BuildImplementationKickoff renders the "you implement, others review"
// message for the given implementer and peer roster.
func BuildImplementationKickoff(implementer string, others []string, planFile string) string {
	othersText := strings.Join(others, ", ")
	if othersText == "" {
		othersText = "everyone else"
	}
	return strings.NewReplacer(
		"{implementer}", implementer,
		"{others}", othersText,
		"{plan_file}", planFile,
	).Replace(kickoffTemplate)
}
