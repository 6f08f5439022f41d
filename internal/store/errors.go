package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by lookups for ids the store does not hold.
var ErrNotFound = errors.New("record not found")

// ErrDocumentNotFound is returned by a Backend when no document has been
// written yet.  The store treats it as an empty store.
var ErrDocumentNotFound = errors.New("store document not found")

// ValidationError reports missing required intake fields.  No record is
// created when it is returned.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// PersistenceError reports a failure to read or write the store document.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}
