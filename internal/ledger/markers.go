// internal/ledger/markers.go
//
// Locating named section boundaries in a document. Markers are HTML-comment
// pairs bounding a section:
//
//	<!-- SECTION:DECISIONS:START -->
//	## Decisions
//	<!-- (Newest entries at top) -->
//	...entries...
//	<!-- SECTION:DECISIONS:END -->
//
// Individual entries inside a section carry their own pair:
//
//	<!-- ENTRY:DECISION:DEC-003:START --> ... <!-- ENTRY:DECISION:DEC-003:END -->
//
// This is the only regex-driven text scanning on the write path, and only
// archive documents depend on it; the structured store never does.

package ledger

import (
	"fmt"
	"regexp"
	"strings"
)

// Section is the typed span of a marked document section.
type Section struct {
	Name string
	// Start and End are byte offsets of the START and END marker lines.
	Start int
	End   int
	// InsertAt is the offset where a new entry belongs: just past the start
	// marker, any heading line, any explanatory comment line, and blank lines.
	InsertAt int
	// Body is the text between the markers, trimmed.
	Body string
}

func sectionStartMarker(name string) string {
	return fmt.Sprintf("<!-- SECTION:%s:START -->", strings.ToUpper(name))
}

func sectionEndMarker(name string) string {
	return fmt.Sprintf("<!-- SECTION:%s:END -->", strings.ToUpper(name))
}

func entryStartMarker(kind Kind, id string) string {
	return fmt.Sprintf("<!-- ENTRY:%s:%s:START -->", kind, id)
}

func entryEndMarker(kind Kind, id string) string {
	return fmt.Sprintf("<!-- ENTRY:%s:%s:END -->", kind, id)
}

// findSection locates a named section's boundaries in a document.
func findSection(content, name string) (Section, bool) {
	upper := strings.ToUpper(name)
	startRe := regexp.MustCompile(`(?i)<!--\s*SECTION:` + regexp.QuoteMeta(upper) + `:START\s*-->`)
	endRe := regexp.MustCompile(`(?i)<!--\s*SECTION:` + regexp.QuoteMeta(upper) + `:END\s*-->`)

	startLoc := startRe.FindStringIndex(content)
	if startLoc == nil {
		return Section{}, false
	}
	end := len(content)
	if endLoc := endRe.FindStringIndex(content[startLoc[1]:]); endLoc != nil {
		end = startLoc[1] + endLoc[0]
	}

	sec := Section{
		Name:  upper,
		Start: startLoc[0],
		End:   end,
		Body:  strings.TrimSpace(content[startLoc[1]:end]),
	}
	sec.InsertAt = insertionPoint(content, startLoc[1], end)
	return sec, true
}

// insertionPoint walks forward from the start marker past the section
// heading, an explanatory comment line, and blank lines, staying within the
// section.
func insertionPoint(content string, from, limit int) int {
	pos := from
	// Step past the remainder of the marker line.
	pos = skipLine(content, pos, limit)

	seenHeading := false
	seenComment := false
	for pos < limit {
		lineEnd := lineEndAt(content, pos, limit)
		line := strings.TrimSpace(content[pos:lineEnd])
		switch {
		case line == "":
			// fall through to advance
		case !seenHeading && strings.HasPrefix(line, "#"):
			seenHeading = true
		case !seenComment && strings.HasPrefix(line, "<!--") && !strings.Contains(line, "SECTION:") && !strings.Contains(line, "ENTRY:"):
			seenComment = true
		default:
			return pos
		}
		pos = skipLine(content, pos, limit)
	}
	return pos
}

func lineEndAt(content string, pos, limit int) int {
	if i := strings.IndexByte(content[pos:limit], '\n'); i >= 0 {
		return pos + i
	}
	return limit
}

func skipLine(content string, pos, limit int) int {
	if i := strings.IndexByte(content[pos:limit], '\n'); i >= 0 {
		return pos + i + 1
	}
	return limit
}

// findEntry returns the rendered body of one marked entry, if present.
func findEntry(content string, kind Kind, id string) (string, bool) {
	pattern := `(?is)<!--\s*ENTRY:` + regexp.QuoteMeta(string(kind)) + `:` + regexp.QuoteMeta(id) + `:START\s*-->\n?(.*?)<!--\s*ENTRY:` + regexp.QuoteMeta(string(kind)) + `:` + regexp.QuoteMeta(id) + `:END\s*-->`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}
