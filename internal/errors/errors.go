package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrAlreadyRegistered is returned when registering an email that is already confirmed.
	ErrAlreadyRegistered = errors.New("Email has been registered already")
	// ErrInvalidLink covers forged, malformed and unknown-email confirmation
	// tokens alike, so responses carry no account-enumeration signal.
	ErrInvalidLink = errors.New("Confirmation link is invalid")
	// ErrInvalidCredentials covers unknown email, unconfirmed email and wrong
	// password with a single message, for the same reason.
	ErrInvalidCredentials = errors.New("Email and/or password are invalid")
	// ErrUnauthenticated is returned for a missing, invalid or expired session token.
	ErrUnauthenticated = errors.New("Please login as a valid user")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// FieldError points a validation failure at the offending request field.
type FieldError struct {
	Property string `json:"property"`
	Message  string `json:"message"`
}

// ValidationErrorResponse carries per-field validation details.
type ValidationErrorResponse struct {
	Error  string       `json:"error"`
	Code   string       `json:"code"`
	Fields []FieldError `json:"fields"`
}

// NewValidationErrorResponse builds the 400 payload for a set of field errors.
func NewValidationErrorResponse(fields []FieldError) ValidationErrorResponse {
	return ValidationErrorResponse{
		Error:  "validation failed",
		Code:   "VALIDATION_ERROR",
		Fields: fields,
	}
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrAlreadyRegistered):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "ALREADY_REGISTERED")
	case errors.Is(err, ErrInvalidLink):
		return NewHTTPError(http.StatusNotFound, err.Error(), "INVALID_LINK")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHENTICATED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
