// internal/ledger/idgen.go
//
// Sequential id generation per (project, kind) namespace. The structured
// store is the primary source; document marker scanning is the fallback when
// the store is missing, unreadable, or holds no matching ids. Nothing in
// here returns an error: an unusable source means numbering starts at 1.

package ledger

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FormatID renders "{PREFIX}-{NNN}", zero-padded to at least three digits and
// growing naturally past 999.
func FormatID(prefix string, n int) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}

// extractNumericSuffix pulls the numeric portion out of an id like "HO-005".
// The prefix match is case-insensitive and the hyphen optional. Returns 0
// when the id does not carry the prefix.
func extractNumericSuffix(id, prefix string) int {
	if id == "" {
		return 0
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(prefix) + `-?(\d+)`)
	if err != nil {
		return 0
	}
	m := re.FindStringSubmatch(id)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// maxIDInStore scans the structured store for the highest numeric suffix of
// the kind's ids. Handles both the canonical section-mapping shape and the
// legacy list shape (migration input only). Any parse trouble reads as 0.
func maxIDInStore(storePath string, kind Kind) int {
	data, err := os.ReadFile(storePath)
	if err != nil {
		return 0
	}
	prefix := kind.Prefix()

	var sections map[string]any
	if err := yaml.Unmarshal(data, &sections); err == nil && sections != nil {
		entries, _ := sections[kind.SectionKey()].([]any)
		max := 0
		for _, e := range entries {
			rec, ok := toGenericRecord(e)
			if !ok {
				continue
			}
			if n := extractNumericSuffix(recordID(rec), prefix); n > max {
				max = n
			}
		}
		if max > 0 {
			return max
		}
	}

	var list []any
	if err := yaml.Unmarshal(data, &list); err != nil {
		return 0
	}
	max := 0
	for _, e := range list {
		rec, ok := toGenericRecord(e)
		if !ok {
			continue
		}
		id := recordID(rec)
		if !strings.Contains(strings.ToUpper(id), prefix) {
			continue
		}
		if n := extractNumericSuffix(id, prefix); n > max {
			max = n
		}
	}
	return max
}

// maxIDInDocument scans markdown for entry-boundary markers like
// <!-- ENTRY:HANDOFF:HO-003:START --> and returns the highest suffix seen.
func maxIDInDocument(docPath string, kind Kind, prefix string) int {
	content, err := os.ReadFile(docPath)
	if err != nil {
		return 0
	}
	pattern := `(?i)ENTRY:` + regexp.QuoteMeta(string(kind)) + `:` + regexp.QuoteMeta(prefix) + `-(\d+):START`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0
	}
	max := 0
	for _, m := range re.FindAllStringSubmatch(string(content), -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	return max
}

// NextID computes the next sequential id for the kind, preferring the
// structured store and falling back to document marker scanning.
func NextID(storePath, docPath string, kind Kind) string {
	max := maxIDInStore(storePath, kind)
	if max == 0 {
		max = maxIDInDocument(docPath, kind, kind.Prefix())
	}
	return FormatID(kind.Prefix(), max+1)
}

// NextLocalID computes the next per-agent-local id (e.g. DEC-L-004). Local
// ids live only in the agent's context document, scanned independently of the
// global namespace.
func NextLocalID(contextPath string, kind Kind) string {
	prefix := kind.LocalPrefix()
	max := maxIDInDocument(contextPath, kind, prefix)
	return FormatID(prefix, max+1)
}

// toGenericRecord coerces a decoded yaml value into a Record. yaml.v3
// decodes mappings into map[string]any under an any target, but nested
// shapes can surface map[any]any from older producers.
func toGenericRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		rec := make(Record, len(m))
		for k, val := range m {
			key, ok := k.(string)
			if !ok {
				continue
			}
			rec[key] = val
		}
		return rec, true
	default:
		return nil, false
	}
}
