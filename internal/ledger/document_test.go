package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRebuildExchangeDocumentIsIdempotent(t *testing.T) {
	store := newTestStore(t, LogExchange)
	_, h := BuildHandoff("HO-001", "A-01", "A-02", []string{"spec.md"}, "", "pending")
	if err := store.AppendRecord(KindHandoff, mustRecord(t, h), Prepend); err != nil {
		t.Fatal(err)
	}
	_, f := BuildFeedback("FB-001", "A-02", "A-01", "high", "spec is unclear", "open")
	if err := store.AppendRecord(KindFeedback, mustRecord(t, f), Prepend); err != nil {
		t.Fatal(err)
	}

	mdPath := filepath.Join(filepath.Dir(store.Path), "exchange_log.md")
	if err := RebuildExchangeDocument(store, mdPath); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	first, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := RebuildExchangeDocument(store, mdPath); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	second, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Fatalf("rebuild is not byte-stable")
	}
}

func TestRebuildExchangeDocumentRows(t *testing.T) {
	store := newTestStore(t, LogExchange)
	_, h := BuildHandoff("HO-001", "A-01", "A-02", []string{"spec.md"}, "", "pending")
	if err := store.AppendRecord(KindHandoff, mustRecord(t, h), Prepend); err != nil {
		t.Fatal(err)
	}

	mdPath := filepath.Join(filepath.Dir(store.Path), "exchange_log.md")
	if err := RebuildExchangeDocument(store, mdPath); err != nil {
		t.Fatal(err)
	}
	content, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatal(err)
	}
	wantRow := "| HO-001 | " + h.Timestamp + " | A-01 | A-02 | spec.md | pending |"
	if !strings.Contains(string(content), wantRow) {
		t.Fatalf("document missing handoff row %q:\n%s", wantRow, content)
	}
	for _, heading := range []string{"## 1. Handoff Log", "## 2. Feedback Tickets", "## 3. Iteration Cycles"} {
		if !strings.Contains(string(content), heading) {
			t.Errorf("document missing %q", heading)
		}
	}
}

func TestRebuildDiscardsFreeformEdits(t *testing.T) {
	store := newTestStore(t, LogExchange)
	_, h := BuildHandoff("HO-001", "A-01", "A-02", nil, "", "pending")
	if err := store.AppendRecord(KindHandoff, mustRecord(t, h), Prepend); err != nil {
		t.Fatal(err)
	}
	mdPath := filepath.Join(filepath.Dir(store.Path), "exchange_log.md")
	writeFile(t, mdPath, "someone scribbled notes here\n")
	if err := RebuildExchangeDocument(store, mdPath); err != nil {
		t.Fatal(err)
	}
	content, _ := os.ReadFile(mdPath)
	if strings.Contains(string(content), "scribbled") {
		t.Fatalf("regenerable documents must not preserve freeform edits")
	}
}

func TestInsertArchiveEntryCreatesSkeleton(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "context_log.md")
	if err := InsertArchiveEntry(docPath, "DECISIONS", KindDecision, "DEC-001", "### DEC-001 — choose yaml"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	content, err := os.ReadFile(docPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"<!-- SECTION:DECISIONS:START -->",
		"<!-- SECTION:DECISIONS:END -->",
		"<!-- ENTRY:DECISION:DEC-001:START -->",
		"### DEC-001 — choose yaml",
	} {
		if !strings.Contains(string(content), want) {
			t.Errorf("skeleton document missing %q:\n%s", want, content)
		}
	}
}

func TestInsertArchiveEntryNewestFirstAndPreserving(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "context_log.md")
	freeform := "A paragraph of narrative the tool must never touch.\nIt spans lines."
	writeFile(t, docPath, `# Context Log

<!-- SECTION:DECISIONS:START -->
## Decisions
<!-- (Newest entries at top) -->

<!-- ENTRY:DECISION:DEC-001:START -->
### DEC-001 — first decision
<!-- ENTRY:DECISION:DEC-001:END -->
<!-- SECTION:DECISIONS:END -->

`+freeform+"\n")

	if err := InsertArchiveEntry(docPath, "DECISIONS", KindDecision, "DEC-002", "### DEC-002 — second decision"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	content, err := os.ReadFile(docPath)
	if err != nil {
		t.Fatal(err)
	}
	text := string(content)
	if !strings.Contains(text, freeform) {
		t.Fatalf("freeform narrative was altered:\n%s", text)
	}
	first := strings.Index(text, "DEC-002 — second")
	second := strings.Index(text, "DEC-001 — first")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("new entry should sit above the old one (new at %d, old at %d)", first, second)
	}
	endMarker := strings.Index(text, "<!-- SECTION:DECISIONS:END -->")
	if first > endMarker {
		t.Fatalf("new entry landed outside the section")
	}
}

func TestInsertArchiveEntrySynthesizesMissingSection(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "context_log.md")
	writeFile(t, docPath, `# Context Log

<!-- SECTION:SESSIONS:START -->
## Sessions
<!-- SECTION:SESSIONS:END -->
`)
	if err := InsertArchiveEntry(docPath, "BLOCKERS", KindBlocker, "BLK-001", "### BLK-001 — stuck"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	content, _ := os.ReadFile(docPath)
	text := string(content)
	if !strings.Contains(text, "<!-- SECTION:BLOCKERS:START -->") {
		t.Fatalf("missing synthesized section:\n%s", text)
	}
	if !strings.Contains(text, "<!-- SECTION:SESSIONS:START -->") {
		t.Fatalf("existing sections must be preserved")
	}
	if !strings.Contains(text, "### BLK-001 — stuck") {
		t.Fatalf("entry body missing")
	}
}

func TestInsertArchiveEntryNoMarkersAppendsAtEOF(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "notes.md")
	writeFile(t, docPath, "plain document without any markers\n")
	if err := InsertArchiveEntry(docPath, "TASKS", KindTask, "T-L-001", "- [ ] **T-L-001** — do it"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	content, _ := os.ReadFile(docPath)
	text := string(content)
	if !strings.HasPrefix(text, "plain document without any markers") {
		t.Fatalf("prior text must stay first:\n%s", text)
	}
	if !strings.Contains(text, "<!-- ENTRY:TASK:T-L-001:START -->") {
		t.Fatalf("entry block missing:\n%s", text)
	}
}

func TestReadDocumentSectionAndEntry(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "context_log.md")
	if err := InsertArchiveEntry(docPath, "DECISIONS", KindDecision, "DEC-001", "### DEC-001 — body text"); err != nil {
		t.Fatal(err)
	}
	if body := ReadDocumentSection(docPath, "DECISIONS"); !strings.Contains(body, "DEC-001 — body text") {
		t.Fatalf("section read missing entry: %q", body)
	}
	if body := ReadDocumentEntry(docPath, KindDecision, "DEC-001"); !strings.Contains(body, "body text") {
		t.Fatalf("entry read missing body: %q", body)
	}
	if body := ReadDocumentEntry(docPath, KindDecision, "DEC-404"); body != "" {
		t.Fatalf("missing entry should read empty, got %q", body)
	}
}

func TestUpdateDocumentMetadata(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "context_log.md")
	writeFile(t, docPath, "# Log\n\nlast_updated: 2026-01-01T00:00:00Z\nowner: A-01\n")
	if err := UpdateDocumentMetadata(docPath, map[string]string{"last_updated": "2026-02-02T00:00:00Z"}); err != nil {
		t.Fatal(err)
	}
	content, _ := os.ReadFile(docPath)
	text := string(content)
	if !strings.Contains(text, "last_updated: 2026-02-02T00:00:00Z") {
		t.Fatalf("metadata not updated:\n%s", text)
	}
	if !strings.Contains(text, "owner: A-01") {
		t.Fatalf("untouched metadata lost:\n%s", text)
	}
}
