package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/taxon/internal/model"
	"github.com/roach88/taxon/internal/validate"
)

// Error represents a failure reported by a query or mutation.
//
// Every error returned by an Engine method is an *Error. Storage failures
// keep their cause reachable through Unwrap.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the engine operation that failed ("subtree", "move", ...).
	Op string

	// Message is a human-readable description.
	Message string

	// CategoryID is the category the operation was about, if any.
	CategoryID model.CategoryID

	// Related lists other categories involved: the proposed parent of a
	// rejected move, the children blocking a removal, or the competing
	// parent candidates.
	Related []model.CategoryID

	// Violation is set for INTEGRITY_VIOLATION errors raised by the
	// precommit validator.
	Violation *validate.Violation

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a referenced category does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeCycleDetected indicates a move would place a node under itself
	// or one of its descendants.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"

	// ErrCodeHasChildren indicates a reject-policy removal of a category
	// that still has descendants.
	ErrCodeHasChildren ErrorCode = "HAS_CHILDREN"

	// ErrCodeIntegrityViolation indicates the closure table breaks an
	// invariant.
	ErrCodeIntegrityViolation ErrorCode = "INTEGRITY_VIOLATION"

	// ErrCodeStorageUnavailable indicates the storage layer failed.
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"

	// ErrCodeInvalidArgument indicates a malformed name or policy.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Message)
	if e.CategoryID != 0 {
		msg = fmt.Sprintf("%s (category=%d)", msg, e.CategoryID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "" if
// there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound returns true if the error is a NOT_FOUND error.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsCycle returns true if the error is a CYCLE_DETECTED error.
func IsCycle(err error) bool {
	return CodeOf(err) == ErrCodeCycleDetected
}

// IsHasChildren returns true if the error is a HAS_CHILDREN error.
func IsHasChildren(err error) bool {
	return CodeOf(err) == ErrCodeHasChildren
}

// IsIntegrityViolation returns true if the error is an INTEGRITY_VIOLATION
// error.
func IsIntegrityViolation(err error) bool {
	return CodeOf(err) == ErrCodeIntegrityViolation
}

// IsStorageUnavailable returns true if the error is a STORAGE_UNAVAILABLE
// error.
func IsStorageUnavailable(err error) bool {
	return CodeOf(err) == ErrCodeStorageUnavailable
}

// IsInvalidArgument returns true if the error is an INVALID_ARGUMENT error.
func IsInvalidArgument(err error) bool {
	return CodeOf(err) == ErrCodeInvalidArgument
}

func notFoundError(op string, id model.CategoryID) *Error {
	return &Error{
		Code:       ErrCodeNotFound,
		Op:         op,
		Message:    "category does not exist",
		CategoryID: id,
	}
}

func cycleError(op string, id, newParent model.CategoryID) *Error {
	msg := fmt.Sprintf("cannot move under %d: it is a descendant of the moved category", newParent)
	if id == newParent {
		msg = "cannot move a category under itself"
	}
	return &Error{
		Code:       ErrCodeCycleDetected,
		Op:         op,
		Message:    msg,
		CategoryID: id,
		Related:    []model.CategoryID{newParent},
	}
}

func hasChildrenError(op string, id model.CategoryID, descendants []model.CategoryID) *Error {
	return &Error{
		Code:       ErrCodeHasChildren,
		Op:         op,
		Message:    fmt.Sprintf("category has %d descendant(s)", len(descendants)),
		CategoryID: id,
		Related:    descendants,
	}
}

func multipleParentsError(op string, id model.CategoryID, candidates []model.CategoryID) *Error {
	return &Error{
		Code:       ErrCodeIntegrityViolation,
		Op:         op,
		Message:    fmt.Sprintf("%d closest-ancestor candidates", len(candidates)),
		CategoryID: id,
		Related:    candidates,
	}
}

func violationError(op string, v *validate.Violation) *Error {
	return &Error{
		Code:      ErrCodeIntegrityViolation,
		Op:        op,
		Message:   "precommit validation failed",
		Related:   v.CategoryIDs,
		Violation: v,
		Err:       v,
	}
}

func invalidArgumentError(op string, err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidArgument,
		Op:      op,
		Message: "invalid argument",
		Err:     err,
	}
}

// classify converts whatever escaped a transaction into an *Error.
// Engine errors pass through; anything else came from the storage layer.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{
		Code:    ErrCodeStorageUnavailable,
		Op:      op,
		Message: "storage failure",
		Err:     err,
	}
}
