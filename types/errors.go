package types

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a referenced pattern, experiment or user being absent.
// Wrap it with context: fmt.Errorf("pattern %s: %w", id, types.ErrNotFound).
var ErrNotFound = errors.New("not found")

// InsufficientPopulationError is returned when too few eligible users exist
// to form experiment groups.
type InsufficientPopulationError struct {
	Needed   int
	Eligible int
}

func (e *InsufficientPopulationError) Error() string {
	return fmt.Sprintf("insufficient population: need %d eligible users, have %d", e.Needed, e.Eligible)
}

// InvalidStateError is returned when an operation is attempted on a pattern
// or experiment in the wrong status.
type InvalidStateError struct {
	Entity string
	ID     string
	State  string
	Want   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s is %q, want %q", e.Entity, e.ID, e.State, e.Want)
}

// StoreError wraps an underlying read/write failure so callers can tell
// infrastructure trouble apart from domain failures.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
