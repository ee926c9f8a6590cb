package workflow

import (
	"fmt"

	"github.com/yusufekamaulana/rsua-akreditasi/core/engine"
)

// ValidationError rejects a submission whose inputs are unusable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IllegalStateError rejects an operation applied out of order.
type IllegalStateError struct {
	Op   string
	From engine.Status
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("cannot %s incident in status %s", e.Op, e.From)
}

// ClassifierError wraps a prediction failure during submit. The
// submission is rolled back; the caller may retry later.
type ClassifierError struct {
	Err error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier failed: %v", e.Err)
}

func (e *ClassifierError) Unwrap() error {
	return e.Err
}
