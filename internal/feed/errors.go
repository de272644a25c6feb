package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyContent rejects drafts with no content before any optimistic
	// state or remote call is made.
	ErrEmptyContent = errors.New("feed: content must not be empty")
	// ErrEntityNotFound indicates the target canonical id is not in the store.
	ErrEntityNotFound = errors.New("feed: entity not found")
	// ErrEntityBusy indicates another mutation on the same entity is still in
	// transit; callers disable the triggering control during that window.
	ErrEntityBusy = errors.New("feed: entity mutation already in flight")
	// ErrRemoteCall wraps a failed backend call after local rollback finished.
	ErrRemoteCall = errors.New("feed: remote call failed")
)

// EngineError carries a stable machine-readable code alongside the cause so
// the presentation layer can branch on failures without string matching.
type EngineError struct {
	code string
	err  error
}

func (e *EngineError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *EngineError) Unwrap() error {
	return e.err
}

// Code returns the machine-readable error code.
func (e *EngineError) Code() string {
	return e.code
}

func newEngineError(operation, reason string, cause error) error {
	return &EngineError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}
