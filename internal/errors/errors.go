package errors

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"campus/internal/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a create hits a unique constraint.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCredentials is returned when the identifier or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid identifier or password")
	// ErrUnauthorized is the single message every authentication failure is reported with.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller's role does not allow the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrSessionNotFound is returned when no session matches a token.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidRole is returned when a role outside STUDENT/FACULTY/ADMIN is requested.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidStatus is returned for an unknown attendance status.
	ErrInvalidStatus = errors.New("invalid attendance status")
	// ErrNotStudent is returned when an operation requires a STUDENT user.
	ErrNotStudent = errors.New("user is not a student")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
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

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrAlreadyExists)
}

// IsNotFound reports whether err means the record is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case IsNotFound(err):
		return NewHTTPError(http.StatusNotFound, ErrNotFound.Error(), "NOT_FOUND")
	case IsDuplicate(err):
		return NewHTTPError(http.StatusConflict, ErrAlreadyExists.Error(), "ALREADY_EXISTS")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrSessionNotFound):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthorized.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, model.ErrInvalidSemesterDates):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_SEMESTER_DATES")
	case errors.Is(err, ErrInvalidRole):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_ROLE")
	case errors.Is(err, ErrInvalidStatus):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_STATUS")
	case errors.Is(err, ErrNotStudent):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "NOT_STUDENT")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
