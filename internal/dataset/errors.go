// Package dataset turns standardized raw rows into validated, typed
// drillhole tables. Loaders are atomic: any row-level failure rejects the
// whole batch and no partial table is ever returned.
package dataset

import (
	"errors"
	"fmt"
)

// MissingColumnError reports a required column absent across the entire
// batch. Column presence is judged with an "exists if any row has it"
// policy, so this only fires when no row carries the column.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s table missing column: %s", e.Table, e.Column)
}

// InvalidValueError reports a single row failing a required-value or
// numeric-finiteness check. Per the atomic-load policy it fails the whole
// load, not just the row.
type InvalidValueError struct {
	Table  string
	Row    int
	Column string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s table row %d: column %q %s", e.Table, e.Row, e.Column, e.Reason)
}

// OverlapError reports two intervals on the same hole overlapping in
// depth. Applied to geology tables only.
type OverlapError struct {
	Table  string
	HoleID string
	From   float64
	PrevTo float64
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s intervals overlap for hole %q: from=%g is less than previous to=%g",
		e.Table, e.HoleID, e.From, e.PrevTo)
}

// OpError wraps a lower-level failure with the name of the operation that
// triggered it, preserving the original as the cause.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *OpError) Unwrap() error { return e.Err }

// wrapOp annotates err with the operation name unless it is nil or already
// carries the same operation.
func wrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	var oe *OpError
	if errors.As(err, &oe) && oe.Op == op {
		return err
	}
	return &OpError{Op: op, Err: err}
}
