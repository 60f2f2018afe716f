// internal/ledger/entry.go
//
// Typed records for each entry kind. The structured store speaks generic
// yaml mappings; these structs are converted to and from that shape only at
// the store boundary so the rest of the package works with named fields.

package ledger

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Handoff records one agent passing work to another.
type Handoff struct {
	ID        string   `yaml:"id"`
	Timestamp string   `yaml:"timestamp"`
	FromAgent string   `yaml:"from_agent"`
	ToAgent   string   `yaml:"to_agent"`
	Status    string   `yaml:"status"`
	Artifacts []string `yaml:"artifacts"`
	Notes     string   `yaml:"notes"`
}

// Feedback records a ticket raised against an agent's output.
type Feedback struct {
	ID        string `yaml:"id"`
	Timestamp string `yaml:"timestamp"`
	Reporter  string `yaml:"reporter"`
	Target    string `yaml:"target"`
	Severity  string `yaml:"severity"`
	Status    string `yaml:"status"`
	Summary   string `yaml:"summary"`
}

// Iteration records a rework cycle and which agents it touched.
type Iteration struct {
	ID             string   `yaml:"id"`
	Timestamp      string   `yaml:"timestamp"`
	Trigger        string   `yaml:"trigger"`
	ImpactedAgents []string `yaml:"impacted_agents"`
	VersionBump    string   `yaml:"version_bump"`
	Description    string   `yaml:"description"`
}

// Session records one working session of an agent.
type Session struct {
	ID        string   `yaml:"id"`
	Timestamp string   `yaml:"timestamp"`
	AgentID   string   `yaml:"agent_id"`
	AgentRole string   `yaml:"agent_role"`
	Status    string   `yaml:"status"`
	Summary   string   `yaml:"summary"`
	Artifacts []string `yaml:"artifacts"`
}

// Decision records a choice made during the project, global or agent-scoped.
type Decision struct {
	ID        string `yaml:"id"`
	Timestamp string `yaml:"timestamp"`
	Agent     string `yaml:"agent"`
	Scope     string `yaml:"scope"`
	Title     string `yaml:"title"`
	Rationale string `yaml:"rationale"`
	Impacts   string `yaml:"impacts"`
}

// Assumption records something taken as true until its reversal condition hits.
type Assumption struct {
	ID                string `yaml:"id"`
	Timestamp         string `yaml:"timestamp"`
	Agent             string `yaml:"agent"`
	Status            string `yaml:"status"`
	Assumption        string `yaml:"assumption"`
	Rationale         string `yaml:"rationale"`
	ReversalCondition string `yaml:"reversal_condition"`
}

// Blocker records work that cannot proceed until resolved.
type Blocker struct {
	ID             string   `yaml:"id"`
	Timestamp      string   `yaml:"timestamp"`
	Reporter       string   `yaml:"reporter"`
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	BlockedAgents  []string `yaml:"blocked_agents"`
	RequiredAction string   `yaml:"required_action"`
	Status         string   `yaml:"status"`
}

// Task records a single work item in an agent's local context.
type Task struct {
	ID        string `yaml:"id"`
	Timestamp string `yaml:"timestamp"`
	Title     string `yaml:"title"`
	Status    string `yaml:"status"`
	Output    string `yaml:"output"`
	Notes     string `yaml:"notes"`
}

// Record is the generic mapping shape the structured store holds.
type Record = map[string]any

// idFieldAliases are the field names, in precedence order, an entry id may
// live under. Newer stores always use "id"; legacy list-shaped stores used
// per-kind names.
var idFieldAliases = []string{"id", "handoff_id", "ticket_id", "iteration_id", "ref_id"}

// recordID extracts the id from a generic record, honoring legacy aliases.
func recordID(rec Record) string {
	for _, field := range idFieldAliases {
		if v, ok := rec[field]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// toRecord converts a typed entry into the store's generic mapping shape.
func toRecord(entry any) (Record, error) {
	data, err := yaml.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("ledger: encode record: %w", err)
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("ledger: reshape record: %w", err)
	}
	return rec, nil
}

// fromRecord decodes a generic mapping into a typed entry. Unknown fields are
// dropped; missing fields decode to zero values.
func fromRecord(rec Record, out any) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ledger: encode record: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("ledger: decode record: %w", err)
	}
	return nil
}

// decodeSection converts a slice of generic records into typed entries,
// skipping records that fail to decode. Read paths stay tolerant.
func decodeSection[T any](recs []Record) []T {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var entry T
		if err := fromRecord(rec, &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out
}
