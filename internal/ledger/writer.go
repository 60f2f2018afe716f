// internal/ledger/writer.go
//
// High-level write operations. Every write is one complete synchronous
// sequence: build entry, generate id, rewrite the structured store, then
// bring the document in line. The store write is the success criterion; a
// document failure afterwards is reported as a sync warning and repaired by
// the next successful rebuild.

package ledger

import (
	"fmt"
	"os"

	"github.com/agentictools/agentlog/internal/config"
	"github.com/agentictools/agentlog/internal/logging"
)

// Ledger exposes the write and read contracts for one workspace.
type Ledger struct {
	cfg *config.Config
	log *logging.Logger
}

// New binds a Ledger to a workspace configuration. The logger may be nil.
func New(cfg *config.Config, log *logging.Logger) *Ledger {
	return &Ledger{cfg: cfg, log: log}
}

// Config returns the workspace configuration the ledger operates under.
func (l *Ledger) Config() *config.Config {
	return l.cfg
}

// requireProject fails fast when the project directory does not exist. Writes
// never create projects; that belongs to the surrounding tool.
func (l *Ledger) requireProject(project string) (string, error) {
	dir := l.cfg.ProjectDir(project)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("ledger: project %q: %w", project, ErrNotFound)
	}
	return dir, nil
}

// exchangeStore binds the exchange log's structured store for a project.
func (l *Ledger) exchangeStore(project string) *Store {
	return NewStore(l.cfg.ExchangeStorePath(project), LogExchange, project)
}

// contextStore binds the context log's structured store for a project.
func (l *Ledger) contextStore(project string) *Store {
	return NewStore(l.cfg.ContextStorePath(project), LogContext, project)
}

// syncExchange rebuilds the regenerable exchange document. Failures degrade
// to a warning: the store is already written and stays authoritative.
func (l *Ledger) syncExchange(project string, store *Store) {
	mdPath := l.cfg.ExchangeLogPath(project)
	if err := RebuildExchangeDocument(store, mdPath); err != nil {
		w := &SyncWarning{Doc: mdPath, Err: err}
		l.log.Warnf("%v", w)
	}
}

// syncArchive splices an entry into an archive document, degrading to a
// warning on failure.
func (l *Ledger) syncArchive(docPath, section string, kind Kind, id, body string) {
	if err := InsertArchiveEntry(docPath, section, kind, id, body); err != nil {
		w := &SyncWarning{Doc: docPath, Err: err}
		l.log.Warnf("%v", w)
	}
}

// WriteHandoff appends a handoff to the exchange log.
func (l *Ledger) WriteHandoff(project, fromAgent, toAgent string, artifacts []string, notes, status string) (string, string, error) {
	if _, err := l.requireProject(project); err != nil {
		return "", "", err
	}
	store := l.exchangeStore(project)
	mdPath := l.cfg.ExchangeLogPath(project)
	id := NextID(store.Path, mdPath, KindHandoff)
	_, entry := BuildHandoff(id, fromAgent, toAgent, artifacts, notes, status)
	if err := l.appendTyped(store, KindHandoff, entry); err != nil {
		return "", "", err
	}
	l.syncExchange(project, store)
	return id, mdPath, nil
}

// WriteFeedback appends a feedback ticket to the exchange log.
func (l *Ledger) WriteFeedback(project, reporter, target, severity, summary, status string) (string, string, error) {
	if _, err := l.requireProject(project); err != nil {
		return "", "", err
	}
	store := l.exchangeStore(project)
	mdPath := l.cfg.ExchangeLogPath(project)
	id := NextID(store.Path, mdPath, KindFeedback)
	_, entry := BuildFeedback(id, reporter, target, severity, summary, status)
	if err := l.appendTyped(store, KindFeedback, entry); err != nil {
		return "", "", err
	}
	l.syncExchange(project, store)
	return id, mdPath, nil
}

// WriteIteration appends an iteration cycle to the exchange log.
func (l *Ledger) WriteIteration(project, trigger string, impactedAgents []string, versionBump, description string) (string, string, error) {
	if _, err := l.requireProject(project); err != nil {
		return "", "", err
	}
	store := l.exchangeStore(project)
	mdPath := l.cfg.ExchangeLogPath(project)
	id := NextID(store.Path, mdPath, KindIteration)
	_, entry := BuildIteration(id, trigger, impactedAgents, versionBump, description)
	if err := l.appendTyped(store, KindIteration, entry); err != nil {
		return "", "", err
	}
	l.syncExchange(project, store)
	return id, mdPath, nil
}

// WriteSession appends a session to the context log.
func (l *Ledger) WriteSession(project, agentID, agentRole, status, summary string, artifacts []string) (string, string, error) {
	if _, err := l.requireProject(project); err != nil {
		return "", "", err
	}
	store := l.contextStore(project)
	mdPath := l.cfg.ContextLogPath(project)
	id := NextID(store.Path, mdPath, KindSession)
	md, entry := BuildSession(id, agentID, agentRole, status, summary, artifacts)
	if err := l.appendTyped(store, KindSession, entry); err != nil {
		return "", "", err
	}
	l.syncArchive(mdPath, KindSession.SectionName(), KindSession, id, md)
	return id, mdPath, nil
}

// WriteDecision appends a decision to the context log.
func (l *Ledger) WriteDecision(project, agent, title, rationale, impacts, scope string) (string, string, error) {
	if _, err := l.requireProject(project); err != nil {
		return "", "", err
	}
	store := l.contextStore(project)
	mdPath := l.cfg.ContextLogPath(project)
	id := NextID(store.Path, mdPath, KindDecision)
	md, entry := BuildDecision(id, agent, title, rationale, impacts, scope)
	if err := l.appendTyped(store, KindDecision, entry); err != nil {
		return "", "", err
	}
	l.syncArchive(mdPath, KindDecision.SectionName(), KindDecision, id, md)
	return id, mdPath, nil
}

// WriteAssumption appends an assumption to the context log.
func (l *Ledger) WriteAssumption(project, agent, assumption, rationale, reversalCondition, status string) (string, string, error) {
	if _, err := l.requireProject(project); err != nil {
		return "", "", err
	}
	store := l.contextStore(project)
	mdPath := l.cfg.ContextLogPath(project)
	id := NextID(store.Path, mdPath, KindAssumption)
	md, entry := BuildAssumption(id, agent, assumption, rationale, reversalCondition, status)
	if err := l.appendTyped(store, KindAssumption, entry); err != nil {
		return "", "", err
	}
	l.syncArchive(mdPath, KindAssumption.SectionName(), KindAssumption, id, md)
	return id, mdPath, nil
}

// WriteBlocker appends a blocker to the context log.
func (l *Ledger) WriteBlocker(project, reporter, title, description string, blockedAgents []string, requiredAction, status string) (string, string, error) {
	if _, err := l.requireProject(project); err != nil {
		return "", "", err
	}
	store := l.contextStore(project)
	mdPath := l.cfg.ContextLogPath(project)
	id := NextID(store.Path, mdPath, KindBlocker)
	md, entry := BuildBlocker(id, reporter, title, description, blockedAgents, requiredAction, status)
	if err := l.appendTyped(store, KindBlocker, entry); err != nil {
		return "", "", err
	}
	l.syncArchive(mdPath, KindBlocker.SectionName(), KindBlocker, id, md)
	return id, mdPath, nil
}

// WriteAgentTask appends a task checklist item to an agent's local context
// document. Tasks carry local ids (T-L-NNN) and have no store section.
func (l *Ledger) WriteAgentTask(project, agent, title, status, output, notes string) (string, string, error) {
	if _, err := l.requireProject(project); err != nil {
		return "", "", err
	}
	docPath := l.cfg.AgentContextPath(project, agent)
	id := NextLocalID(docPath, KindTask)
	md, _ := BuildTask(id, title, status, output, notes)
	if err := InsertArchiveEntry(docPath, KindTask.SectionName(), KindTask, id, md); err != nil {
		return "", "", fmt.Errorf("ledger: write task: %w", err)
	}
	return id, docPath, nil
}

// WriteLocalDecision records a decision in an agent's local context document
// under the DEC-L namespace, independent of the global decision ids.
func (l *Ledger) WriteLocalDecision(project, agent, title, rationale, impacts string) (string, string, error) {
	if _, err := l.requireProject(project); err != nil {
		return "", "", err
	}
	docPath := l.cfg.AgentContextPath(project, agent)
	id := NextLocalID(docPath, KindDecision)
	md, _ := BuildDecision(id, agent, title, rationale, impacts, "local")
	if err := InsertArchiveEntry(docPath, KindDecision.SectionName(), KindDecision, id, md); err != nil {
		return "", "", fmt.Errorf("ledger: write local decision: %w", err)
	}
	return id, docPath, nil
}

// WriteLocalAssumption records an assumption in an agent's local context
// document under the ASSUMP-L namespace.
func (l *Ledger) WriteLocalAssumption(project, agent, assumption, rationale, reversalCondition string) (string, string, error) {
	if _, err := l.requireProject(project); err != nil {
		return "", "", err
	}
	docPath := l.cfg.AgentContextPath(project, agent)
	id := NextLocalID(docPath, KindAssumption)
	md, _ := BuildAssumption(id, agent, assumption, rationale, reversalCondition, "active")
	if err := InsertArchiveEntry(docPath, KindAssumption.SectionName(), KindAssumption, id, md); err != nil {
		return "", "", fmt.Errorf("ledger: write local assumption: %w", err)
	}
	return id, docPath, nil
}

// UpdateStatus transitions an entry's status in place, preserving every other
// field, then resynchronizes the document.
func (l *Ledger) UpdateStatus(project string, kind Kind, id, status string) error {
	if _, err := l.requireProject(project); err != nil {
		return err
	}
	var store *Store
	if kind.LogType() == LogExchange {
		store = l.exchangeStore(project)
	} else {
		store = l.contextStore(project)
	}
	err := store.Update(kind, id, func(rec Record) {
		rec["status"] = status
	})
	if err != nil {
		return err
	}
	if kind.LogType() == LogExchange {
		l.syncExchange(project, store)
	}
	return nil
}

// appendTyped converts a typed entry to the store shape and prepends it:
// gating logs keep newest entries first.
func (l *Ledger) appendTyped(store *Store, kind Kind, entry any) error {
	rec, err := toRecord(entry)
	if err != nil {
		return err
	}
	return store.AppendRecord(kind, rec, Prepend)
}
