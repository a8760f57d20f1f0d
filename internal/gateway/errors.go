package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches a RequestFailed with status 404.
var ErrNotFound = errors.New("not found")

// ErrInvalidRating is returned before any request for stars outside
// MinStars..MaxStars.
var ErrInvalidRating = errors.New("rating must be between 1 and 5 stars")

// RequestFailed reports a non-success HTTP status.
type RequestFailed struct {
	Status  int
	Message string
}

func (e *RequestFailed) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *RequestFailed) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// TransportError reports that the service could not be reached.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a response body that could not be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Message returns a human-readable description of a gateway failure.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var rf *RequestFailed
	if errors.As(err, &rf) {
		return rf.Message
	}
	var te *TransportError
	if errors.As(err, &te) {
		return "Couldn't reach the video service - check your connection"
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return "The video service sent an unreadable response"
	}
	return err.Error()
}
