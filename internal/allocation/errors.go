// internal/allocation/errors.go
package allocation

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any computation.
	ErrValidation = errors.New("validation failed")
	// ErrComputation marks a single pair that could not be scored.
	ErrComputation = errors.New("score computation failed")
	// ErrAllocationInvariant marks a logic defect detected during allocation.
	ErrAllocationInvariant = errors.New("allocation invariant violated")
)

const (
	StageConfig     = "config"
	StageScoring    = "scoring"
	StageMatching   = "matching"
	StageBoosting   = "boosting"
	StagePlanning   = "planning"
	StageAllocation = "allocation"
	StageReporting  = "reporting"
)

// StageError carries the stage and offending identifier of a failure.
type StageError struct {
	Stage  string
	ID     string
	Detail string
	Err    error
}

func (e *StageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %v (%s) [id=%s]", e.Stage, e.Err, e.Detail, e.ID)
	}
	return fmt.Sprintf("%s: %v (%s)", e.Stage, e.Err, e.Detail)
}

func (e *StageError) Unwrap() error { return e.Err }

func newValidationError(stage, id, format string, args ...interface{}) error {
	return &StageError{Stage: stage, ID: id, Detail: fmt.Sprintf(format, args...), Err: ErrValidation}
}

func newComputationError(id, format string, args ...interface{}) error {
	return &StageError{Stage: StageScoring, ID: id, Detail: fmt.Sprintf(format, args...), Err: ErrComputation}
}

func newInvariantError(id, format string, args ...interface{}) error {
	return &StageError{Stage: StageAllocation, ID: id, Detail: fmt.Sprintf(format, args...), Err: ErrAllocationInvariant}
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func IsInvariant(err error) bool { return errors.Is(err, ErrAllocationInvariant) }
