package portalclient

import (
	"errors"
	"fmt"
)

// Error codes returned by the session API.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeNotFound         = "NOT_FOUND"
	CodeSessionCompleted = "SESSION_COMPLETED"
	CodeDuplicate        = "DUPLICATE"
	CodeServerError      = "SERVER_ERROR"
)

// ErrNoActiveSession is returned when the mirror holds no resumable session.
var ErrNoActiveSession = errors.New("no active session")

// APIError is an error envelope returned by the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Fields     map[string]string
	// RequestID is the correlation ID echoed by the server.
	RequestID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsCode reports whether err is an APIError carrying code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
