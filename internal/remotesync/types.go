package remotesync

import (
	"errors"
	"fmt"

	"github.com/nhle/novatasks/internal/model"
)

// SyncPath is the sync endpoint relative to the server base URL.
const SyncPath = "/api/sync"

// Payload is the body exchanged with the sync endpoint in both directions.
type Payload struct {
	Tasks []model.Task `json:"tasks"`
}

// PushResult is the server's reply to a push.
type PushResult struct {
	Inserted int `json:"inserted"`
}

// ErrorResponse is the error body returned by the sync server.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AuthError indicates the server rejected the API key.
type AuthError struct {
	URL     string
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth error (%s)", e.URL)
	}
	return fmt.Sprintf("auth error (%s): %s", e.URL, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
