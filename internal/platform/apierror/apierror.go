// Package apierror carries failures reported by the LMS backend and turns any
// error into the message a user should see.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches any Error with status 404.
var ErrNotFound = errors.New("not found")

// Error is a non-2xx response from the backend. Detail is the human-readable
// message from the structured error payload, if the backend sent one.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("lms api error (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("lms api error (status %d)", e.Status)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Detailed is implemented by errors that carry a message meant for users,
// such as client-side validation failures.
type Detailed interface {
	UserMessage() string
}

// UserMessage returns the backend detail.
func (e *Error) UserMessage() string {
	return e.Detail
}

// Message returns the user-facing text for err: the backend detail or a
// validation message when present, otherwise fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var d Detailed
	if errors.As(err, &d) {
		if msg := d.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

// Status returns the HTTP status carried by err, or 0 when err did not come
// from a backend response.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
