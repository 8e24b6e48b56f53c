package lookup

import (
	"errors"
	"net/http"
)

// Code classifies every failure a lookup can produce. Provider adapters
// map their upstream status codes onto these; unknown upstream statuses
// become CodeUpstream.
type Code string

const (
	CodeValidation          Code = "validation_error"
	CodeInvalidKey          Code = "invalid_key"
	CodeNotFound            Code = "not_found"
	CodeForbiddenPlan       Code = "forbidden_plan"
	CodeInsufficientCredits Code = "insufficient_credits"
	CodeRateLimited         Code = "rate_limited"
	CodeUpstream            Code = "upstream_error"
)

// Error carries a taxonomy code plus a user-facing message. Messages are
// localized for the product's audience and never contain provider secrets.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// NewError creates a lookup error with the given code and message
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the taxonomy code from err, defaulting to CodeUpstream
func CodeOf(err error) Code {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return CodeUpstream
}

// MessageOf extracts the user-facing message from err
func MessageOf(err error) string {
	var le *Error
	if errors.As(err, &le) {
		return le.Message
	}
	return "Erro ao consultar o provedor externo"
}

// HTTPStatus maps a lookup error to the HTTP status returned to callers
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeInvalidKey:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbiddenPlan:
		return http.StatusForbidden
	case CodeInsufficientCredits:
		return http.StatusPaymentRequired
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
