package syncer

import (
	"context"
	"errors"
	"fmt"

	"tenant-sync/core/docstore"
	"tenant-sync/core/entity"
	"tenant-sync/core/scope"
	"tenant-sync/core/tombstone"
)

// Code classifies a failed operation.
type Code string

const (
	CodeConnectivity     Code = "CONNECTIVITY"
	CodeBackendRejected  Code = "BACKEND_REJECTED"
	CodeValidation       Code = "VALIDATION"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeNotFound         Code = "NOT_FOUND"
	CodeAmbiguousCode    Code = "AMBIGUOUS_CODE"
	CodeProtected        Code = "PROTECTED"
	CodeNotConfirmed     Code = "NOT_CONFIRMED"
	CodeInProgress       Code = "IN_PROGRESS"
	CodeLocalStore       Code = "LOCAL_STORE"
	CodeInternal         Code = "INTERNAL"
)

// Error is a classified orchestrator failure.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// localErr marks a failure of the device-local store.
func localErr(msg string, err error) error {
	if err == nil {
		return nil
	}
	return newError(CodeLocalStore, msg, err)
}

// classify maps any error onto the orchestrator taxonomy.
func classify(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, context.Canceled):
		return newError(CodeConnectivity, "operation cancelled", err)
	case docstore.IsUnavailable(err):
		return newError(CodeConnectivity, "remote store unreachable", err)
	case docstore.IsBackendError(err):
		return newError(CodeBackendRejected, "remote store rejected the request", err)
	case errors.Is(err, tombstone.ErrProtected):
		return newError(CodeProtected, "identity is protected", err)
	case errors.Is(err, tombstone.ErrEmptyIdentity), errors.Is(err, entity.ErrUnknownKind), errors.Is(err, docstore.ErrInvalidRealm):
		return newError(CodeValidation, "invalid request", err)
	case errors.Is(err, scope.ErrPermissionDenied):
		return newError(CodePermissionDenied, "caller scope does not allow this", err)
	default:
		return newError(CodeInternal, "unexpected failure", err)
	}
}
