package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceUnavailable marks an external source that could not be reached
	// or returned a malformed top-level structure.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrNotFound marks a lookup with no match (device, inspection file).
	ErrNotFound = errors.New("not found")
)

// SchemaMismatchError reports required columns missing from a source snapshot.
type SchemaMismatchError struct {
	Source  string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: source=%s missing=[%s]", e.Source, strings.Join(e.Missing, ", "))
}

// AmbiguousMatchError reports a route/session with more than one distinct vehicle on the same date.
type AmbiguousMatchError struct {
	Route    string
	Session  Session
	Vehicles []string
	Kept     string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf(
		"ambiguous match: route=%s session=%s vehicles=[%s] kept=%s",
		e.Route, e.Session, strings.Join(e.Vehicles, ", "), e.Kept,
	)
}
