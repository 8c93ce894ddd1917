package weberr

import (
	"net/http"
)

// Stable machine-readable codes carried in every error body.
const (
	CodeResourceNotFound  = "RESOURCE_NOT_FOUND"
	CodeDuplicateResource = "DUPLICATE_RESOURCE"
	CodeStateConflict     = "STATE_CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeBadRequest        = "BAD_REQUEST"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeTooManyRequests   = "TOO_MANY_REQUESTS"
	CodeInternalError     = "INTERNAL_SERVER_ERROR"
)

// ErrorResponse is the one wire shape for every failure.
type ErrorResponse struct {
	Status  int                    `json:"status"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type RequestError struct {
	Err error
}

func (r *RequestError) Error() string { return r.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

func NewError(err error, status int, code string, msg string, opts ...Opt) error {
	e := &RequestError{Err: err}
	opts = append(opts, WithResponse(
		&ErrorResponse{Status: status, Code: code, Message: msg},
		status,
	))

	return Wrap(e, opts...)
}

func NotFound(err error, opts ...Opt) error {
	return NewError(
		err,
		http.StatusNotFound,
		CodeResourceNotFound,
		"the resource could not be found",
		opts...,
	)
}

func NotAuthorized(err error, opts ...Opt) error {
	return NewError(
		err,
		http.StatusUnauthorized,
		CodeUnauthorized,
		"not authorized to access resource",
		opts...,
	)
}

func Forbidden(err error, opts ...Opt) error {
	return NewError(
		err,
		http.StatusForbidden,
		CodeForbidden,
		"access denied",
		opts...,
	)
}

func BadRequest(err error, msg string, opts ...Opt) error {
	return NewError(
		err,
		http.StatusBadRequest,
		CodeBadRequest,
		msg,
		opts...,
	)
}

func StateConflict(err error, msg string, opts ...Opt) error {
	return NewError(
		err,
		http.StatusConflict,
		CodeStateConflict,
		msg,
		opts...,
	)
}

func Duplicate(err error, msg string, opts ...Opt) error {
	return NewError(
		err,
		http.StatusConflict,
		CodeDuplicateResource,
		msg,
		opts...,
	)
}

// Validation builds a 400 carrying per-field failures in the details map.
func Validation(err error, details map[string]interface{}, opts ...Opt) error {
	e := &RequestError{Err: err}
	opts = append(opts, WithResponse(
		&ErrorResponse{
			Status:  http.StatusBadRequest,
			Code:    CodeValidationFailed,
			Message: "input validation failed",
			Details: details,
		},
		http.StatusBadRequest,
	))

	return Wrap(e, opts...)
}
