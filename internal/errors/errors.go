package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUserNotFound is returned when no user matches an id or token.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the username is unknown or the password does not match.
	ErrInvalidCredentials = errors.New("wrong user or password combination")
	// ErrNotLoggedIn is returned when logout is attempted without a session token.
	ErrNotLoggedIn = errors.New("user is not logged in")
	// ErrForbidden is returned when a caller acts on another user's account.
	ErrForbidden = errors.New("not allowed to modify another user")
)

// Field names reported by DuplicateFieldError.
const (
	FieldUsername = "username"
	FieldName     = "name"
)

// DuplicateFieldError is returned when a user is created with a username
// and/or name that already exist.
type DuplicateFieldError struct {
	Fields []string
}

func (e *DuplicateFieldError) Error() string {
	verb := "is"
	if len(e.Fields) > 1 {
		verb = "are"
	}
	return fmt.Sprintf("The %s provided %s not unique. Therefore, the user could not be created!",
		strings.Join(e.Fields, " and the "), verb)
}

// NewDuplicateFieldError builds a DuplicateFieldError for the given fields.
func NewDuplicateFieldError(fields ...string) *DuplicateFieldError {
	return &DuplicateFieldError{Fields: fields}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Fields []string `json:"fields,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     []string
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
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var dup *DuplicateFieldError
	if errors.As(err, &dup) {
		httpErr := NewHTTPError(http.StatusBadRequest, dup.Error(), "DUPLICATE_FIELD")
		httpErr.Fields = dup.Fields
		return httpErr
	}

	switch {
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrNotLoggedIn):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "NOT_LOGGED_IN")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
