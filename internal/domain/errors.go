package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLoadFailed is returned when no selected source could be loaded.
	ErrLoadFailed = errors.New("no question source available")
	// ErrValidation indicates a malformed question entry.
	ErrValidation = errors.New("invalid question entry")
	// ErrInputRejected marks an answer for an answered or missing question.
	ErrInputRejected = errors.New("input rejected")
	// ErrNoBank is returned when a run is started before any bank was loaded.
	ErrNoBank = errors.New("question bank not loaded")
	// ErrUnknownScheme indicates a source URL no fetcher can handle.
	ErrUnknownScheme = errors.New("unsupported source scheme")
	// ErrSourceNotFound indicates the backing store has no such question set.
	ErrSourceNotFound = errors.New("question set not found")
)

// SourceFailure is the normalized failure of one source fetch.
type SourceFailure struct {
	SourceID string
	Message  string
}

func (f SourceFailure) String() string {
	return f.Message
}

// LoadError aggregates every per-source failure of a load where nothing succeeded.
type LoadError struct {
	Failures []SourceFailure
}

func (e *LoadError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Message)
	}
	return ErrLoadFailed.Error() + ":\n• " + strings.Join(msgs, "\n• ")
}

func (e *LoadError) Unwrap() error { return ErrLoadFailed }

// ValidationError points at the first malformed entry of a bank.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("entry %d: field %q %s", e.Index, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
