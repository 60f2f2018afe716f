// internal/ledger/reader.go
//
// Typed, filterable read access over the structured stores. Every getter is
// readSection plus predicate filtering plus a limit, preserving store order
// (newest first for gating logs). Summaries recompute from current store
// state on every call; nothing is cached, so nothing can go stale. Read
// paths degrade to empty results: they back observability features that must
// not crash the surrounding tool.

package ledger

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// HandoffFilter narrows a handoff query. Zero values match everything.
type HandoffFilter struct {
	Status    string
	FromAgent string
	ToAgent   string
	Limit     int
}

// FeedbackFilter narrows a feedback query.
type FeedbackFilter struct {
	Status   string
	Target   string
	Severity string
	Limit    int
}

// SessionFilter narrows a session query.
type SessionFilter struct {
	AgentID string
	Status  string
	Limit   int
}

// DecisionFilter narrows a decision query.
type DecisionFilter struct {
	Agent string
	Scope string
	Limit int
}

// AssumptionFilter narrows an assumption query.
type AssumptionFilter struct {
	Agent  string
	Status string
	Limit  int
}

// BlockerFilter narrows a blocker query.
type BlockerFilter struct {
	Status       string
	BlockedAgent string
	Limit        int
}

// Handoffs returns handoff entries matching the filter.
func (l *Ledger) Handoffs(project string, f HandoffFilter) []Handoff {
	entries := decodeSection[Handoff](l.exchangeStore(project).ReadSection(KindHandoff))
	entries = keep(entries, func(h Handoff) bool {
		return matches(f.Status, h.Status) &&
			matches(f.FromAgent, h.FromAgent) &&
			matches(f.ToAgent, h.ToAgent)
	})
	return clip(entries, f.Limit)
}

// HandoffByID returns one handoff by id.
func (l *Ledger) HandoffByID(project, id string) (Handoff, error) {
	rec, err := l.exchangeStore(project).Find(KindHandoff, id)
	if err != nil {
		return Handoff{}, err
	}
	var h Handoff
	if err := fromRecord(rec, &h); err != nil {
		return Handoff{}, err
	}
	return h, nil
}

// PendingHandoffs returns pending handoffs, optionally scoped to a recipient.
func (l *Ledger) PendingHandoffs(project, toAgent string) []Handoff {
	return l.Handoffs(project, HandoffFilter{Status: "pending", ToAgent: toAgent})
}

// Feedback returns feedback tickets matching the filter.
func (l *Ledger) Feedback(project string, f FeedbackFilter) []Feedback {
	entries := decodeSection[Feedback](l.exchangeStore(project).ReadSection(KindFeedback))
	entries = keep(entries, func(e Feedback) bool {
		return matches(f.Status, e.Status) &&
			matches(f.Target, e.Target) &&
			matches(f.Severity, e.Severity)
	})
	return clip(entries, f.Limit)
}

// OpenFeedback returns open tickets, optionally scoped to a target agent.
func (l *Ledger) OpenFeedback(project, target string) []Feedback {
	return l.Feedback(project, FeedbackFilter{Status: "open", Target: target})
}

// Iterations returns iteration cycles, newest first.
func (l *Ledger) Iterations(project string, limit int) []Iteration {
	entries := decodeSection[Iteration](l.exchangeStore(project).ReadSection(KindIteration))
	return clip(entries, limit)
}

// Sessions returns session entries matching the filter.
func (l *Ledger) Sessions(project string, f SessionFilter) []Session {
	entries := decodeSection[Session](l.contextStore(project).ReadSection(KindSession))
	entries = keep(entries, func(s Session) bool {
		return matches(f.AgentID, s.AgentID) && matches(f.Status, s.Status)
	})
	return clip(entries, f.Limit)
}

// ActiveSession reads the current session from the active_session.md
// frontmatter. The second return is false when no session is active.
func (l *Ledger) ActiveSession(project string) (Session, bool) {
	data, err := os.ReadFile(l.cfg.ActiveSessionPath(project))
	if err != nil {
		return Session{}, false
	}
	fm, ok := frontmatter(string(data))
	if !ok {
		return Session{}, false
	}
	var parsed struct {
		AgentID   string `yaml:"agent_id"`
		AgentRole string `yaml:"agent_role"`
	}
	if err := yaml.Unmarshal([]byte(fm), &parsed); err != nil {
		return Session{}, false
	}
	if parsed.AgentID == "" || parsed.AgentRole == "" {
		return Session{}, false
	}
	return Session{AgentID: parsed.AgentID, AgentRole: parsed.AgentRole, Status: "active"}, true
}

// Decisions returns decision entries matching the filter.
func (l *Ledger) Decisions(project string, f DecisionFilter) []Decision {
	entries := decodeSection[Decision](l.contextStore(project).ReadSection(KindDecision))
	entries = keep(entries, func(d Decision) bool {
		return matches(f.Agent, d.Agent) && matches(f.Scope, d.Scope)
	})
	return clip(entries, f.Limit)
}

// Assumptions returns assumption entries matching the filter.
func (l *Ledger) Assumptions(project string, f AssumptionFilter) []Assumption {
	entries := decodeSection[Assumption](l.contextStore(project).ReadSection(KindAssumption))
	entries = keep(entries, func(a Assumption) bool {
		return matches(f.Agent, a.Agent) && matches(f.Status, a.Status)
	})
	return clip(entries, f.Limit)
}

// ActiveAssumptions returns assumptions still standing.
func (l *Ledger) ActiveAssumptions(project string) []Assumption {
	return l.Assumptions(project, AssumptionFilter{Status: "active"})
}

// Blockers returns blocker entries matching the filter.
func (l *Ledger) Blockers(project string, f BlockerFilter) []Blocker {
	entries := decodeSection[Blocker](l.contextStore(project).ReadSection(KindBlocker))
	entries = keep(entries, func(b Blocker) bool {
		if !matches(f.Status, b.Status) {
			return false
		}
		if f.BlockedAgent == "" {
			return true
		}
		for _, a := range b.BlockedAgents {
			if a == f.BlockedAgent {
				return true
			}
		}
		return false
	})
	return clip(entries, f.Limit)
}

// ActiveBlockers returns pending blockers, optionally scoped to one agent.
func (l *Ledger) ActiveBlockers(project, agent string) []Blocker {
	return l.Blockers(project, BlockerFilter{Status: "pending", BlockedAgent: agent})
}

// ProjectSummary is a point-in-time digest of the project's log state.
type ProjectSummary struct {
	PendingHandoffs   int
	OpenFeedback      int
	ActiveSession     *Session
	TotalDecisions    int
	ActiveAssumptions int
	ActiveBlockers    int
	TotalIterations   int
}

// Summary computes the project digest fresh from the stores.
func (l *Ledger) Summary(project string) ProjectSummary {
	s := ProjectSummary{
		PendingHandoffs:   len(l.PendingHandoffs(project, "")),
		OpenFeedback:      len(l.OpenFeedback(project, "")),
		TotalDecisions:    len(l.Decisions(project, DecisionFilter{})),
		ActiveAssumptions: len(l.ActiveAssumptions(project)),
		ActiveBlockers:    len(l.ActiveBlockers(project, "")),
		TotalIterations:   len(l.Iterations(project, 0)),
	}
	if sess, ok := l.ActiveSession(project); ok {
		s.ActiveSession = &sess
	}
	return s
}

// AgentContext is the digest of everything waiting on one agent.
type AgentContext struct {
	PendingHandoffsToMe []Handoff
	OpenFeedbackForMe   []Feedback
	BlockersAffectingMe []Blocker
	MySessions          []Session
	MyDecisions         []Decision
}

// AgentSummary computes the per-agent digest fresh from the stores.
func (l *Ledger) AgentSummary(project, agentID string) AgentContext {
	return AgentContext{
		PendingHandoffsToMe: l.PendingHandoffs(project, agentID),
		OpenFeedbackForMe:   l.OpenFeedback(project, agentID),
		BlockersAffectingMe: l.ActiveBlockers(project, agentID),
		MySessions:          l.Sessions(project, SessionFilter{AgentID: agentID, Limit: 3}),
		MyDecisions:         l.Decisions(project, DecisionFilter{Agent: agentID}),
	}
}

// matches treats an empty filter value as a wildcard.
func matches(want, got string) bool {
	return want == "" || want == got
}

func keep[T any](entries []T, pred func(T) bool) []T {
	out := entries[:0:0]
	for _, e := range entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

func clip[T any](entries []T, limit int) []T {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

// frontmatter extracts the yaml block between leading "---" fences.
func frontmatter(content string) (string, bool) {
	if !strings.HasPrefix(content, "---") {
		return "", false
	}
	rest := content[3:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}
