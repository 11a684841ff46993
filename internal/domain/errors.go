package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNoProject marks an entry whose project name has no configured id.
var ErrNoProject = errors.New("no project id configured")

// ErrNoTask marks an entry that reached submission without a remote task.
var ErrNoTask = errors.New("no remote task resolved")

// ValidationError is one problem with one input entry. They are collected,
// never returned as the failure of an operation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Index   int    `json:"index"` // 1-based
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("entry %d: %s", e.Index, e.Message)
}

// MalformedDateError is returned for day labels that are not month-day-year.
type MalformedDateError struct {
	Token  string
	Reason string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date %q: %s", e.Token, e.Reason)
}

// RemoteError is a non-2xx answer from the project service.
type RemoteError struct {
	Op         string
	StatusCode int
	// Messages holds the server's embedded validation errors, if any.
	Messages []string
	Body     string
}

func (e *RemoteError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("%s: status %d:\n%s", e.Op, e.StatusCode, strings.Join(e.Messages, "\n"))
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Rejected reports whether the server refused the payload itself (HTTP 422).
func (e *RemoteError) Rejected() bool {
	return e.StatusCode == http.StatusUnprocessableEntity
}
