// internal/ledger/writelog.go
//
// The subsystem's generic command surface: one operation that takes a
// project, a log file name, an entry kind, an optional pre-supplied id, a
// summary, and a status, and writes both representations.

package ledger

import (
	"fmt"

	"github.com/agentictools/agentlog/internal/config"
)

// LogRequest carries the inputs of one generic write.
type LogRequest struct {
	Project string
	LogFile string
	Kind    Kind
	// RefID, when set, is used verbatim instead of generating the next id.
	RefID   string
	Summary string
	Status  string
	// Extra holds kind-specific fields under the keys source, target, role,
	// artifacts, severity, trigger, impacted_agents, version_bump, rationale,
	// description, required_action.
	Extra map[string]any
}

// WriteLog writes one entry to the structured store and its document and
// returns both paths. The project directory must already exist.
func (l *Ledger) WriteLog(req LogRequest) (mdPath, storePath string, err error) {
	if _, err := l.requireProject(req.Project); err != nil {
		return "", "", err
	}
	mdPath, storePath = l.cfg.ResolveLogPaths(req.Project, req.LogFile)
	agent := config.ActiveAgent(l.cfg.ProjectIndexPath(req.Project))

	if req.Kind == KindTask {
		// Tasks have no store section; they go to the active agent's local
		// context document.
		owner := stringField(req.Extra, "source", agent)
		_, docPath, err := l.WriteAgentTask(req.Project, owner, req.Summary, req.Status, "", stringField(req.Extra, "description", ""))
		return docPath, "", err
	}

	store := NewStore(storePath, req.Kind.LogType(), req.Project)
	id := req.RefID
	if id == "" {
		id = NextID(storePath, mdPath, req.Kind)
	}

	md, entry, err := l.buildFromRequest(req, id, agent)
	if err != nil {
		return "", "", err
	}
	if err := l.appendTyped(store, req.Kind, entry); err != nil {
		return "", "", err
	}

	if req.Kind.LogType() == LogExchange {
		if err := RebuildExchangeDocument(store, mdPath); err != nil {
			l.log.Warnf("%v", &SyncWarning{Doc: mdPath, Err: err})
		}
	} else {
		l.syncArchive(mdPath, req.Kind.SectionName(), req.Kind, id, md)
	}
	return mdPath, storePath, nil
}

// buildFromRequest maps the generic request onto the kind's builder.
func (l *Ledger) buildFromRequest(req LogRequest, id, agent string) (string, any, error) {
	extra := req.Extra
	switch req.Kind {
	case KindHandoff:
		md, entry := BuildHandoff(id,
			stringField(extra, "source", "Unknown"),
			stringField(extra, "target", "Unknown"),
			stringsField(extra, "artifacts"),
			req.Summary, req.Status)
		return md, entry, nil
	case KindFeedback:
		md, entry := BuildFeedback(id,
			stringField(extra, "source", agent),
			stringField(extra, "target", "Unknown"),
			stringField(extra, "severity", ""),
			req.Summary, req.Status)
		return md, entry, nil
	case KindIteration:
		md, entry := BuildIteration(id,
			stringField(extra, "trigger", "manual"),
			stringsField(extra, "impacted_agents"),
			stringField(extra, "version_bump", ""),
			req.Summary)
		return md, entry, nil
	case KindSession:
		md, entry := BuildSession(id,
			stringField(extra, "source", agent),
			stringField(extra, "role", ""),
			req.Status, req.Summary,
			stringsField(extra, "artifacts"))
		return md, entry, nil
	case KindDecision:
		md, entry := BuildDecision(id, agent, req.Summary,
			stringField(extra, "rationale", ""),
			stringField(extra, "impacts", ""), "global")
		return md, entry, nil
	case KindAssumption:
		md, entry := BuildAssumption(id, agent, req.Summary,
			stringField(extra, "rationale", ""),
			stringField(extra, "reversal_condition", ""), req.Status)
		return md, entry, nil
	case KindBlocker:
		md, entry := BuildBlocker(id, agent, req.Summary,
			stringField(extra, "description", req.Summary),
			stringsField(extra, "impacted_agents"),
			stringField(extra, "required_action", ""), req.Status)
		return md, entry, nil
	default:
		return "", nil, fmt.Errorf("ledger: unknown entry kind %q", req.Kind)
	}
}

func stringField(extra map[string]any, key, fallback string) string {
	if extra == nil {
		return fallback
	}
	if s, ok := extra[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func stringsField(extra map[string]any, key string) []string {
	if extra == nil {
		return nil
	}
	switch v := extra[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}
