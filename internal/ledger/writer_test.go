package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentictools/agentlog/internal/config"
	"github.com/agentictools/agentlog/internal/logging"
)

func newTestLedger(t *testing.T) (*Ledger, *config.Config) {
	t.Helper()
	ws := t.TempDir()
	if err := os.MkdirAll(filepath.Join(ws, "demo"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.New(ws)
	return New(cfg, nil), cfg
}

func TestWriteHandoffScenario(t *testing.T) {
	led, cfg := newTestLedger(t)

	id, mdPath, err := led.WriteHandoff("demo", "A-01", "A-02", []string{"spec.md"}, "", "pending")
	if err != nil {
		t.Fatalf("WriteHandoff: %v", err)
	}
	if id != "HO-001" {
		t.Fatalf("id = %q, want HO-001", id)
	}
	if mdPath != cfg.ExchangeLogPath("demo") {
		t.Fatalf("mdPath = %q", mdPath)
	}

	h, err := led.HandoffByID("demo", "HO-001")
	if err != nil {
		t.Fatalf("HandoffByID: %v", err)
	}
	if h.FromAgent != "A-01" || h.ToAgent != "A-02" || h.Status != "pending" {
		t.Fatalf("stored handoff wrong: %+v", h)
	}

	content, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatal(err)
	}
	wantRow := fmt.Sprintf("| HO-001 | %s | A-01 | A-02 | spec.md | pending |", h.Timestamp)
	if !strings.Contains(string(content), wantRow) {
		t.Fatalf("document missing row %q:\n%s", wantRow, content)
	}
}

func TestSequentialIDsNoGaps(t *testing.T) {
	led, _ := newTestLedger(t)
	for i := 1; i <= 5; i++ {
		id, _, err := led.WriteHandoff("demo", "A-01", "A-02", nil, "", "pending")
		if err != nil {
			t.Fatal(err)
		}
		want := fmt.Sprintf("HO-%03d", i)
		if id != want {
			t.Fatalf("write %d produced id %q, want %q", i, id, want)
		}
	}
	if got := len(led.Handoffs("demo", HandoffFilter{})); got != 5 {
		t.Fatalf("stored %d handoffs, want 5", got)
	}
}

func TestTwoBlockersScenario(t *testing.T) {
	led, _ := newTestLedger(t)

	id1, _, err := led.WriteBlocker("demo", "A-01", "first", "desc", nil, "", "pending")
	if err != nil {
		t.Fatal(err)
	}
	id2, _, err := led.WriteBlocker("demo", "A-02", "second", "desc", nil, "", "pending")
	if err != nil {
		t.Fatal(err)
	}
	if id1 != "BLK-001" || id2 != "BLK-002" {
		t.Fatalf("ids = %q, %q", id1, id2)
	}
	active := led.ActiveBlockers("demo", "")
	if len(active) != 2 {
		t.Fatalf("active blockers = %d, want 2", len(active))
	}
}

func TestUpdateStatusScenario(t *testing.T) {
	led, cfg := newTestLedger(t)
	if _, _, err := led.WriteHandoff("demo", "A-01", "A-02", []string{"spec.md"}, "note", "pending"); err != nil {
		t.Fatal(err)
	}
	if err := led.UpdateStatus("demo", KindHandoff, "HO-001", "accepted"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	h, err := led.HandoffByID("demo", "HO-001")
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != "accepted" {
		t.Fatalf("status = %q, want accepted", h.Status)
	}
	if h.FromAgent != "A-01" || h.ToAgent != "A-02" || len(h.Artifacts) != 1 || h.Notes != "note" {
		t.Fatalf("update touched other fields: %+v", h)
	}

	content, err := os.ReadFile(cfg.ExchangeLogPath("demo"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "| accepted |") {
		t.Fatalf("rebuilt document does not reflect the new status:\n%s", content)
	}
}

func TestWriteSucceedsWhenDocumentSyncFails(t *testing.T) {
	ws := t.TempDir()
	if err := os.MkdirAll(filepath.Join(ws, "demo"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.New(ws)
	log, err := logging.New(ws)
	if err != nil {
		t.Fatal(err)
	}
	led := New(cfg, log)

	// A directory where the exchange document belongs makes every rebuild fail.
	if err := os.MkdirAll(cfg.ExchangeLogPath("demo"), 0o755); err != nil {
		t.Fatal(err)
	}

	id, _, err := led.WriteHandoff("demo", "A-01", "A-02", nil, "", "pending")
	if err != nil {
		t.Fatalf("store write must succeed despite document failure, got %v", err)
	}
	if id != "HO-001" {
		t.Fatalf("id = %q, want HO-001", id)
	}
	if _, err := led.HandoffByID("demo", "HO-001"); err != nil {
		t.Fatalf("store should hold the entry: %v", err)
	}

	if err := log.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(ws, ".agentlog", "logs", "agentlog.log"))
	if err != nil {
		t.Fatal(err)
	}
	logged := string(data)
	if !strings.Contains(logged, "WARN") || !strings.Contains(logged, "out of sync") {
		t.Fatalf("sync failure should be logged as a warning:\n%s", logged)
	}
}

func TestWriteFailsForMissingProject(t *testing.T) {
	led, _ := newTestLedger(t)
	if _, _, err := led.WriteHandoff("ghost", "A-01", "A-02", nil, "", "pending"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := led.UpdateStatus("ghost", KindHandoff, "HO-001", "accepted"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWriteSessionGoesToContextArchive(t *testing.T) {
	led, cfg := newTestLedger(t)
	id, mdPath, err := led.WriteSession("demo", "A-01", "builder", "active", "kickoff", nil)
	if err != nil {
		t.Fatal(err)
	}
	if id != "SESS-001" {
		t.Fatalf("id = %q", id)
	}
	if mdPath != cfg.ContextLogPath("demo") {
		t.Fatalf("mdPath = %q", mdPath)
	}
	content, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "<!-- ENTRY:SESSION:SESS-001:START -->") {
		t.Fatalf("context document missing session entry markers:\n%s", content)
	}

	// Second session sits above the first within the section.
	if _, _, err := led.WriteSession("demo", "A-02", "reviewer", "active", "", nil); err != nil {
		t.Fatal(err)
	}
	content, _ = os.ReadFile(mdPath)
	text := string(content)
	if strings.Index(text, "SESS-002") > strings.Index(text, "SESS-001") {
		t.Fatalf("newest session should be first:\n%s", text)
	}
}

func TestWriteAgentTaskLocalIDs(t *testing.T) {
	led, cfg := newTestLedger(t)
	id1, docPath, err := led.WriteAgentTask("demo", "A-01", "write tests", "active", "", "")
	if err != nil {
		t.Fatal(err)
	}
	id2, _, err := led.WriteAgentTask("demo", "A-01", "review spec", "active", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if id1 != "T-L-001" || id2 != "T-L-002" {
		t.Fatalf("ids = %q, %q", id1, id2)
	}
	if docPath != cfg.AgentContextPath("demo", "A-01") {
		t.Fatalf("docPath = %q", docPath)
	}

	// Another agent's namespace starts over.
	id3, _, err := led.WriteAgentTask("demo", "A-02", "own task", "active", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if id3 != "T-L-001" {
		t.Fatalf("per-agent local namespace leaked: %q", id3)
	}
}

func TestWriteLocalDecisionIndependentOfGlobal(t *testing.T) {
	led, _ := newTestLedger(t)
	if _, _, err := led.WriteDecision("demo", "A-01", "global choice", "because", "", "global"); err != nil {
		t.Fatal(err)
	}
	id, _, err := led.WriteLocalDecision("demo", "A-01", "local choice", "because", "")
	if err != nil {
		t.Fatal(err)
	}
	if id != "DEC-L-001" {
		t.Fatalf("local decision id = %q, want DEC-L-001", id)
	}
}

func TestWriteLogGenericSurface(t *testing.T) {
	led, cfg := newTestLedger(t)
	writeFile(t, cfg.ProjectIndexPath("demo"), "# demo\n\n**Active Agent:** A-03\n")

	mdPath, storePath, err := led.WriteLog(LogRequest{
		Project: "demo",
		LogFile: "exchange_log.md",
		Kind:    KindFeedback,
		Summary: "tables are misaligned",
		Status:  "open",
		Extra:   map[string]any{"target": "A-01", "severity": "medium"},
	})
	if err != nil {
		t.Fatalf("WriteLog: %v", err)
	}
	if mdPath != cfg.ExchangeLogPath("demo") || storePath != cfg.ExchangeStorePath("demo") {
		t.Fatalf("paths = %q, %q", mdPath, storePath)
	}
	fb := led.Feedback("demo", FeedbackFilter{})
	if len(fb) != 1 {
		t.Fatalf("feedback entries = %d, want 1", len(fb))
	}
	if fb[0].ID != "FB-001" || fb[0].Reporter != "A-03" || fb[0].Severity != "medium" {
		t.Fatalf("feedback record wrong: %+v", fb[0])
	}
}

func TestWriteLogHonorsSuppliedRefID(t *testing.T) {
	led, _ := newTestLedger(t)
	if _, _, err := led.WriteLog(LogRequest{
		Project: "demo",
		LogFile: "exchange_log.md",
		Kind:    KindHandoff,
		RefID:   "HO-040",
		Summary: "",
		Status:  "pending",
		Extra:   map[string]any{"source": "A-01", "target": "A-02"},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := led.HandoffByID("demo", "HO-040"); err != nil {
		t.Fatalf("pre-supplied id not used: %v", err)
	}
	// The generator continues past the supplied id.
	id, _, err := led.WriteHandoff("demo", "A-01", "A-02", nil, "", "pending")
	if err != nil {
		t.Fatal(err)
	}
	if id != "HO-041" {
		t.Fatalf("next id = %q, want HO-041", id)
	}
}

func TestWriteLogMissingProject(t *testing.T) {
	led, _ := newTestLedger(t)
	_, _, err := led.WriteLog(LogRequest{Project: "ghost", LogFile: "exchange_log.md", Kind: KindHandoff})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
