// internal/ledger/kind.go
//
// Entry kinds and the naming conventions attached to them: id prefixes,
// store section keys, and which log file each kind belongs to.

package ledger

import "strings"

// Kind categorizes a log entry.
type Kind string

const (
	KindHandoff    Kind = "HANDOFF"
	KindFeedback   Kind = "FEEDBACK"
	KindIteration  Kind = "ITERATION"
	KindSession    Kind = "SESSION"
	KindDecision   Kind = "DECISION"
	KindAssumption Kind = "ASSUMPTION"
	KindBlocker    Kind = "BLOCKER"
	KindTask       Kind = "TASK"
)

// LogType identifies which ledger a kind is recorded in.
type LogType string

const (
	// LogExchange holds the gating inter-agent logs. Its markdown view is
	// fully regenerated from the store on every write.
	LogExchange LogType = "exchange"

	// LogContext holds session narrative and project-level records. Its
	// markdown view is freeform and only edited by marker insertion.
	LogContext LogType = "context"
)

var idPrefixes = map[Kind]string{
	KindHandoff:    "HO",
	KindFeedback:   "FB",
	KindIteration:  "ITER",
	KindSession:    "SESS",
	KindDecision:   "DEC",
	KindAssumption: "ASSUMP",
	KindBlocker:    "BLK",
	KindTask:       "T",
}

var sectionKeys = map[Kind]string{
	KindHandoff:    "handoffs",
	KindFeedback:   "feedback",
	KindIteration:  "iterations",
	KindSession:    "sessions",
	KindDecision:   "decisions",
	KindAssumption: "assumptions",
	KindBlocker:    "blockers",
	KindTask:       "tasks",
}

// logSections lists the section keys each log type carries, in document order.
// Every store skeleton gets one empty sequence per key plus "archives". Tasks
// have no store section: they live only in agent context documents.
var logSections = map[LogType][]string{
	LogExchange: {"handoffs", "feedback", "iterations"},
	LogContext:  {"sessions", "decisions", "assumptions", "blockers"},
}

// ParseKind resolves a kind name case-insensitively.
func ParseKind(name string) (Kind, bool) {
	k := Kind(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := idPrefixes[k]; ok {
		return k, true
	}
	return "", false
}

// Prefix returns the id prefix for the kind, e.g. "HO" for handoffs.
// Unknown kinds fall back to their first three letters.
func (k Kind) Prefix() string {
	if p, ok := idPrefixes[k]; ok {
		return p
	}
	s := strings.ToUpper(string(k))
	if len(s) > 3 {
		s = s[:3]
	}
	return s
}

// LocalPrefix returns the per-agent-local id prefix, e.g. "DEC-L".
func (k Kind) LocalPrefix() string {
	return k.Prefix() + "-L"
}

// SectionKey returns the store section key for the kind, e.g. "handoffs".
func (k Kind) SectionKey() string {
	if key, ok := sectionKeys[k]; ok {
		return key
	}
	return strings.ToLower(string(k)) + "s"
}

// SectionName returns the document section name bounded by markers,
// e.g. "HANDOFFS" for <!-- SECTION:HANDOFFS:START -->.
func (k Kind) SectionName() string {
	return strings.ToUpper(k.SectionKey())
}

// LogType returns the ledger a kind belongs to.
func (k Kind) LogType() LogType {
	switch k {
	case KindHandoff, KindFeedback, KindIteration:
		return LogExchange
	default:
		return LogContext
	}
}

// kindForSection is the inverse of SectionKey for known kinds.
func kindForSection(section string) (Kind, bool) {
	for k, key := range sectionKeys {
		if key == section {
			return k, true
		}
	}
	return "", false
}
