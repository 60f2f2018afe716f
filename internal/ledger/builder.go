// internal/ledger/builder.go
//
// Builders produce the (rendered markdown, structured record) pair for each
// entry kind. Pure except for timestamp capture: no I/O, no validation.
// Free-text titles are clipped in the rendered form only; the record always
// keeps the full value.

package ledger

import (
	"fmt"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05Z"

// Timestamp returns the current UTC time at second precision, ISO-8601.
func Timestamp() string {
	return time.Now().UTC().Format(timestampLayout)
}

// truncate clips s to max runes, appending an ellipsis when clipped.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// orDefault substitutes a placeholder for empty optional fields in rendered
// text. Records keep the raw (possibly empty) value.
func orDefault(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

var statusGlyphs = map[string]string{
	"pending":     "⏳ pending",
	"accepted":    "✅ accepted",
	"open":        "🔵 open",
	"resolved":    "✅ resolved",
	"wontfix":     "⚪ wontfix",
	"active":      "🔵 active",
	"completed":   "✅ completed",
	"paused":      "⏸️ paused",
	"validated":   "✅ validated",
	"invalidated": "❌ invalidated",
	"escalated":   "🔴 escalated",
}

var severityGlyphs = map[string]string{
	"low":      "🟢 low",
	"medium":   "🟡 medium",
	"high":     "🔴 high",
	"critical": "🚨 critical",
}

// glyph decorates a status value for rendered text. Unknown values pass
// through untouched so the document never lies about the raw status.
func glyph(table map[string]string, value string) string {
	if g, ok := table[strings.ToLower(value)]; ok {
		return g
	}
	return value
}

// assumption entries reuse the session glyph for "active" except the raw
// table maps it to 🔵; the original renders assumptions with ⚪.
func assumptionGlyph(status string) string {
	if strings.EqualFold(status, "active") {
		return "⚪ active"
	}
	return glyph(statusGlyphs, status)
}

// blocker entries render "pending" as 🟡 rather than the handoff ⏳.
func blockerGlyph(status string) string {
	if strings.EqualFold(status, "pending") {
		return "🟡 pending"
	}
	return glyph(statusGlyphs, status)
}

func artifactList(artifacts []string, empty string) string {
	if len(artifacts) == 0 {
		return "- " + empty
	}
	lines := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		lines = append(lines, fmt.Sprintf("- `%s`", a))
	}
	return strings.Join(lines, "\n")
}

// BuildHandoff renders a handoff entry for the exchange log.
func BuildHandoff(id, fromAgent, toAgent string, artifacts []string, notes, status string) (string, Handoff) {
	if status == "" {
		status = "pending"
	}
	entry := Handoff{
		ID:        id,
		Timestamp: Timestamp(),
		FromAgent: fromAgent,
		ToAgent:   toAgent,
		Status:    status,
		Artifacts: artifacts,
		Notes:     notes,
	}
	md := fmt.Sprintf(`### %s — %s → %s

| Field | Value |
|-------|-------|
| **Timestamp** | %s |
| **From Agent** | %s |
| **To Agent** | %s |
| **Status** | %s |

**Artifacts Included:**
%s

**Handoff Notes:**
%s

**Acceptance Notes:**
(pending acceptance)`,
		id, fromAgent, toAgent,
		entry.Timestamp, fromAgent, toAgent, glyph(statusGlyphs, status),
		artifactList(artifacts, "(none)"),
		orDefault(notes, "(none provided)"))
	return md, entry
}

// BuildFeedback renders a feedback ticket for the exchange log.
func BuildFeedback(id, reporter, target, severity, summary, status string) (string, Feedback) {
	if status == "" {
		status = "open"
	}
	entry := Feedback{
		ID:        id,
		Timestamp: Timestamp(),
		Reporter:  reporter,
		Target:    target,
		Severity:  severity,
		Status:    status,
		Summary:   summary,
	}
	md := fmt.Sprintf(`### %s — %s

| Field | Value |
|-------|-------|
| **Timestamp** | %s |
| **Reporter** | %s |
| **Target** | %s |
| **Severity** | %s |
| **Status** | %s |

**Summary:**
%s

**Resolution:**
(pending)`,
		id, truncate(summary, 40),
		entry.Timestamp, reporter, target,
		glyph(severityGlyphs, severity), glyph(statusGlyphs, status),
		summary)
	return md, entry
}

// BuildIteration renders an iteration entry for the exchange log.
func BuildIteration(id, trigger string, impactedAgents []string, versionBump, description string) (string, Iteration) {
	entry := Iteration{
		ID:             id,
		Timestamp:      Timestamp(),
		Trigger:        trigger,
		ImpactedAgents: impactedAgents,
		VersionBump:    versionBump,
		Description:    description,
	}
	impacted := "(none)"
	if len(impactedAgents) > 0 {
		impacted = strings.Join(impactedAgents, ", ")
	}
	md := fmt.Sprintf(`### %s — %s

| Field | Value |
|-------|-------|
| **Timestamp** | %s |
| **Trigger** | %s |
| **Impacted Agents** | %s |
| **Version Bump** | %s |

**Description:**
%s`,
		id, truncate(trigger, 30),
		entry.Timestamp, trigger, impacted,
		orDefault(versionBump, "(none)"),
		orDefault(description, "(none provided)"))
	return md, entry
}

// BuildSession renders a session entry for the context log.
func BuildSession(id, agentID, agentRole, status, summary string, artifacts []string) (string, Session) {
	if status == "" {
		status = "active"
	}
	entry := Session{
		ID:        id,
		Timestamp: Timestamp(),
		AgentID:   agentID,
		AgentRole: agentRole,
		Status:    status,
		Summary:   summary,
		Artifacts: artifacts,
	}
	duration := "completed"
	if strings.EqualFold(status, "active") {
		duration = "ongoing"
	}
	md := fmt.Sprintf(`### %s — %s (%s)

| Field | Value |
|-------|-------|
| **Timestamp** | %s |
| **Agent** | %s (%s) |
| **Duration** | %s |
| **Status** | %s |

**Summary:**
%s

**Artifacts Created:**
%s

**Key Outcomes:**
- (pending)`,
		id, agentID, agentRole,
		entry.Timestamp, agentID, agentRole, duration, glyph(statusGlyphs, status),
		orDefault(summary, "Session started."),
		artifactList(artifacts, "(in progress)"))
	return md, entry
}

// BuildDecision renders a decision entry for the context log or an agent's
// local context.
func BuildDecision(id, agent, title, rationale, impacts, scope string) (string, Decision) {
	if scope == "" {
		scope = "global"
	}
	entry := Decision{
		ID:        id,
		Timestamp: Timestamp(),
		Agent:     agent,
		Scope:     scope,
		Title:     title,
		Rationale: rationale,
		Impacts:   impacts,
	}
	md := fmt.Sprintf(`### %s — %s

| Field | Value |
|-------|-------|
| **Timestamp** | %s |
| **Agent** | %s |
| **Scope** | %s |

**Decision:**
%s

**Rationale:**
%s

**Impacts:**
%s`,
		id, title,
		entry.Timestamp, agent, scope,
		title, rationale,
		orDefault(impacts, "(none specified)"))
	return md, entry
}

// BuildAssumption renders an assumption entry for the context log.
func BuildAssumption(id, agent, assumption, rationale, reversalCondition, status string) (string, Assumption) {
	if status == "" {
		status = "active"
	}
	entry := Assumption{
		ID:                id,
		Timestamp:         Timestamp(),
		Agent:             agent,
		Status:            status,
		Assumption:        assumption,
		Rationale:         rationale,
		ReversalCondition: reversalCondition,
	}
	md := fmt.Sprintf(`### %s — %s

| Field | Value |
|-------|-------|
| **Timestamp** | %s |
| **Agent** | %s |
| **Status** | %s |

**Assumption:**
%s

**Rationale:**
%s

**Reversal Condition:**
%s`,
		id, truncate(assumption, 40),
		entry.Timestamp, agent, assumptionGlyph(status),
		assumption,
		orDefault(rationale, "(none provided)"),
		orDefault(reversalCondition, "(none specified)"))
	return md, entry
}

// BuildBlocker renders a blocker entry for the context log.
func BuildBlocker(id, reporter, title, description string, blockedAgents []string, requiredAction, status string) (string, Blocker) {
	if status == "" {
		status = "pending"
	}
	entry := Blocker{
		ID:             id,
		Timestamp:      Timestamp(),
		Reporter:       reporter,
		Title:          title,
		Description:    description,
		BlockedAgents:  blockedAgents,
		RequiredAction: requiredAction,
		Status:         status,
	}
	blocked := "(none)"
	impact := "(no agents blocked)"
	if len(blockedAgents) > 0 {
		blocked = strings.Join(blockedAgents, ", ")
		impact = fmt.Sprintf("Agents %s cannot proceed.", blocked)
	}
	md := fmt.Sprintf(`### %s — %s

| Field | Value |
|-------|-------|
| **Timestamp** | %s |
| **Reporter** | %s |
| **Blocked Agents** | %s |
| **Status** | %s |

**Description:**
%s

**Required Action:**
%s

**Impact:**
%s`,
		id, title,
		entry.Timestamp, reporter, blocked, blockerGlyph(status),
		description,
		orDefault(requiredAction, "(none specified)"),
		impact)
	return md, entry
}

// BuildTask renders a task checklist item for an agent's local context.
func BuildTask(id, title, status, output, notes string) (string, Task) {
	if status == "" {
		status = "active"
	}
	entry := Task{
		ID:        id,
		Timestamp: Timestamp(),
		Title:     title,
		Status:    status,
		Output:    output,
		Notes:     notes,
	}
	checkbox := "[ ]"
	switch strings.ToLower(status) {
	case "completed", "done":
		checkbox = "[x]"
	}
	md := fmt.Sprintf(`- %s **%s** — %s (%s)
  - Output: %s
  - Notes: %s`,
		checkbox, id, title, entry.Timestamp,
		orDefault(output, "(pending)"),
		orDefault(notes, "(none)"))
	return md, entry
}
