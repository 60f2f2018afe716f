// internal/ledger/store.go
//
// Read/write access to one structured store file. Every mutation is a full
// read-modify-write of the whole document, committed with a write-then-rename
// so the file is never observed half-written. Acceptable while stores stay
// bounded by project activity; unbounded growth would force an append-only
// segment format instead.
//
// No locking. Callers serialize access per project (single-active-writer
// convention).

package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Position selects where Append places a record within its section.
type Position int

const (
	// Prepend inserts newest-first, the convention for gating logs.
	Prepend Position = iota
	// Append preserves strict arrival order, used for narrative archives.
	Append
)

// Store is bound to one structured store file for one (project, log) pair.
type Store struct {
	Path    string
	LogType LogType
	Project string
}

// NewStore binds a store to its yaml file.
func NewStore(path string, logType LogType, project string) *Store {
	return &Store{Path: path, LogType: logType, Project: project}
}

// skeleton builds a fresh store document with one empty sequence per kind of
// this log type.
func (s *Store) skeleton() map[string]any {
	now := Timestamp()
	doc := map[string]any{
		"project":      s.Project,
		"created":      now,
		"last_updated": now,
		"archives":     []any{},
	}
	for _, key := range logSections[s.LogType] {
		doc[key] = []any{}
	}
	return doc
}

// load reads and parses the store. A missing file returns (nil, false).
// Unparseable content is treated as an empty store: read tolerance beats
// failing the observability paths built on top of this.
func (s *Store) load() (map[string]any, bool) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, false
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err == nil && doc != nil {
		return doc, true
	}
	// Legacy list-shaped store: migrate once into the section mapping by
	// each entry's type tag. Never written back in list shape.
	var list []any
	if err := yaml.Unmarshal(data, &list); err == nil && list != nil {
		return s.migrateList(list), true
	}
	return nil, false
}

func (s *Store) migrateList(list []any) map[string]any {
	doc := s.skeleton()
	for _, e := range list {
		rec, ok := toGenericRecord(e)
		if !ok {
			continue
		}
		section := "archives"
		if t, _ := rec["type"].(string); t != "" {
			if kind, ok := ParseKind(t); ok && kind.LogType() == s.LogType {
				section = kind.SectionKey()
			}
		}
		entries, _ := doc[section].([]any)
		doc[section] = append(entries, any(rec))
	}
	return doc
}

// ReadSection returns the ordered records of a kind's section. Absent store
// or section reads as empty.
func (s *Store) ReadSection(kind Kind) []Record {
	doc, ok := s.load()
	if !ok {
		return nil
	}
	raw, _ := doc[kind.SectionKey()].([]any)
	records := make([]Record, 0, len(raw))
	for _, e := range raw {
		if rec, ok := toGenericRecord(e); ok {
			records = append(records, rec)
		}
	}
	return records
}

// Find locates a record by id within a kind's section.
func (s *Store) Find(kind Kind, id string) (Record, error) {
	for _, rec := range s.ReadSection(kind) {
		if recordID(rec) == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("ledger: %s %q: %w", kind.SectionKey(), id, ErrNotFound)
}

// AppendRecord inserts a record into the kind's section and bumps
// last_updated. The store file is created with a full section skeleton when
// absent.
func (s *Store) AppendRecord(kind Kind, rec Record, pos Position) error {
	doc, ok := s.load()
	if !ok {
		doc = s.skeleton()
	}
	key := kind.SectionKey()
	entries, _ := doc[key].([]any)
	if pos == Prepend {
		entries = append([]any{any(rec)}, entries...)
	} else {
		entries = append(entries, any(rec))
	}
	doc[key] = entries
	doc["last_updated"] = Timestamp()
	return s.write(doc)
}

// Update locates a record by id and replaces it in place via the mutation.
// Fields the mutation does not touch are preserved.
func (s *Store) Update(kind Kind, id string, mutate func(Record)) error {
	doc, ok := s.load()
	if !ok {
		return fmt.Errorf("ledger: %s %q: %w", kind.SectionKey(), id, ErrNotFound)
	}
	key := kind.SectionKey()
	entries, _ := doc[key].([]any)
	for i, e := range entries {
		rec, ok := toGenericRecord(e)
		if !ok || recordID(rec) != id {
			continue
		}
		mutate(rec)
		entries[i] = any(rec)
		doc[key] = entries
		doc["last_updated"] = Timestamp()
		return s.write(doc)
	}
	return fmt.Errorf("ledger: %s %q: %w", kind.SectionKey(), id, ErrNotFound)
}

// write stages the full document in memory and replaces the store file
// atomically. Failures here propagate: silently losing a store write risks
// permanent store/document divergence.
func (s *Store) write(doc map[string]any) error {
	node, err := s.orderedNode(doc)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(node)
	if err != nil {
		return fmt.Errorf("ledger: encode store: %w", err)
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ledger: ensure store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".store-*.yaml")
	if err != nil {
		return fmt.Errorf("ledger: stage store write: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ledger: stage store write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ledger: stage store write: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ledger: replace store: %w", err)
	}
	return nil
}

// orderedNode encodes the document with a stable, readable key order:
// metadata first, then this log type's sections, then archives, then anything
// else alphabetically. Plain map marshaling would sort everything.
func (s *Store) orderedNode(doc map[string]any) (*yaml.Node, error) {
	order := append([]string{"project", "created", "last_updated"}, logSections[s.LogType]...)
	order = append(order, "archives")

	seen := make(map[string]bool, len(order))
	for _, key := range order {
		seen[key] = true
	}
	var rest []string
	for key := range doc {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)

	root := &yaml.Node{Kind: yaml.MappingNode}
	appendKey := func(key string) error {
		val, ok := doc[key]
		if !ok {
			return nil
		}
		var valNode yaml.Node
		if err := valNode.Encode(val); err != nil {
			return fmt.Errorf("ledger: encode store key %q: %w", key, err)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&valNode)
		return nil
	}
	for _, key := range append(order, rest...) {
		if err := appendKey(key); err != nil {
			return nil, err
		}
	}
	return root, nil
}
