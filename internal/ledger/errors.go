package ledger

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a missing project directory or ledger entry. Write
// operations surface it immediately; read operations prefer empty results.
var ErrNotFound = errors.New("not found")

// SyncWarning reports a document rebuild or patch that failed after the
// structured store was already written. The store stays authoritative and the
// document is repaired by the next successful rebuild, so callers treat this
// as a logged warning rather than a failure.
type SyncWarning struct {
	Doc string
	Err error
}

func (w *SyncWarning) Error() string {
	return fmt.Sprintf("document out of sync with store: %s: %v", w.Doc, w.Err)
}

func (w *SyncWarning) Unwrap() error {
	return w.Err
}
