/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages and the HTTP layer classify errors with errors.Is/As.

ERROR CATEGORIES:
  1. Configuration errors - malformed or incomplete recurrence parameters
  2. Not-found errors - the target does not exist or is not owned by the caller
  3. Invalid-state errors - transition from a terminal or conflicting state
  4. Store errors - uniqueness violations surfaced by the storage boundary

  None of these are retryable. Infrastructure failures (I/O, driver errors)
  are wrapped with fmt.Errorf and stay opaque.

USAGE:
    if errors.Is(err, generic.ErrInvalidState) {
        // already confirmed or skipped
    }

SEE ALSO:
  - schedule.go: raises ConfigurationError from Validate
  - resolution.go: raises NotFoundError and InvalidStateError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfiguration marks a recurrence rule that cannot be evaluated.
	ErrConfiguration = errors.New("invalid recurrence configuration")

	// ErrNotFound marks a missing or foreign-owned target.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks a transition out of a terminal or conflicting state.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrDuplicateTransaction is returned by the ledger when a transaction for
	// the same event already exists.
	ErrDuplicateTransaction = errors.New("transaction already recorded for event")

	// ErrStaleStatus is returned by a status-guarded update that matched no row.
	ErrStaleStatus = errors.New("event status changed concurrently")

	// ErrDuplicateIncomeRule is returned by SaveRule when the owner already
	// has another active income rule.
	ErrDuplicateIncomeRule = errors.New("owner already has an active income rule")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigurationError describes a missing or out-of-range rule parameter.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid recurrence configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid recurrence configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

func configErr(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError names the kind of object that could not be found.
type NotFoundError struct {
	Kind string // "event", "rule", "account"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidStateError describes a rejected lifecycle transition.
type InvalidStateError struct {
	EventID EventID
	From    EventStatus
	To      EventStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("event %s cannot move from %s to %s", e.EventID, e.From, e.To)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if the error is a rejected state transition.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
