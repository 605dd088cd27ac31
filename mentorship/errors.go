package mentorship

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrRequestNotFound is returned when a request id resolves to nothing
var ErrRequestNotFound = goerrors.New("Request not found", goerrors.CategoryNotFound).
	WithTextCode("REQUEST_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrDuplicatePending allows one open request per (student, mentor) pair
var ErrDuplicatePending = goerrors.New("You already have a pending request to this mentor", goerrors.CategoryConflict).
	WithTextCode("DUPLICATE_PENDING_REQUEST").
	WithCode(goerrors.CodeConflict)

// ErrInvalidStatus rejects unknown status values at the boundary
var ErrInvalidStatus = goerrors.New("Invalid status. Must be accepted or rejected.", goerrors.CategoryValidation).
	WithTextCode("INVALID_REQUEST_STATUS").
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidTransition is returned when a requested status change is not allowed
var ErrInvalidTransition = goerrors.New("invalid request state transition", goerrors.CategoryValidation).
	WithTextCode("INVALID_REQUEST_TRANSITION").
	WithCode(goerrors.CodeBadRequest)

// ErrTerminalState is returned when attempting to move away from a decided request
var ErrTerminalState = goerrors.New("request is already decided", goerrors.CategoryConflict).
	WithTextCode("TERMINAL_REQUEST_STATE").
	WithCode(goerrors.CodeConflict)
