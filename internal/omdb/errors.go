package omdb

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyQuery is returned when a lookup is issued without a query.
var ErrEmptyQuery = errors.New("omdb: query is empty")

// TransportError reports a request that never produced a usable response:
// the connection failed, the context ended, or the server answered with an
// HTTP error status and no message.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "transport error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: api returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a payload that could not be decoded or had an
// unexpected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "decode error"
	}
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RemoteError is a well-formed refusal from the API, such as an invalid key
// or a query matching too many titles.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e == nil {
		return "remote error"
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsDecode reports whether err is or wraps a *DecodeError.
func IsDecode(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

// IsRemote reports whether err is or wraps a *RemoteError.
func IsRemote(err error) bool {
	var target *RemoteError
	return errors.As(err, &target)
}

// isNotFoundMessage matches the API's "no match" refusals: "Movie not found!",
// "Series not found!", "Incorrect IMDb ID." and friends.
func isNotFoundMessage(msg string) bool {
	lower := strings.ToLower(strings.TrimSpace(msg))
	return strings.Contains(lower, "not found") || strings.HasPrefix(lower, "incorrect imdb id")
}
