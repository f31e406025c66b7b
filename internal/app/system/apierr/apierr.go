// Package apierr is the error taxonomy shared by the lifecycle service and
// the HTTP handlers.
//
// Services return *Error values carrying a Kind; handlers pass any error to
// Write, which picks the status code and response body. Internal details are
// logged, never sent to the client.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Kind classifies an error for the caller.
type Kind string

const (
	Invalid      Kind = "invalid"
	Conflict     Kind = "conflict"
	NotFound     Kind = "not found"
	Unauthorized Kind = "unauthorized"
	Forbidden    Kind = "forbidden"
	TooMany      Kind = "too many requests"
	Internal     Kind = "internal error"
)

// Error is a classified error. Op names the operation that failed
// (e.g. "lifecycle.Rename"); Msg is safe to show to clients.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.message(), e.Err)
	case e.Op != "":
		return e.Op + ": " + e.message()
	case e.Err != nil:
		return e.message() + ": " + e.Err.Error()
	default:
		return e.message()
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) message() string {
	if e.Msg != "" {
		return e.Msg
	}
	return string(e.Kind)
}

// New returns a classified error with a client-facing message.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err. The message stays generic for Internal errors.
func Wrap(kind Kind, op string, err error, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case Invalid, Conflict:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case TooMany:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Detail string `json:"detail"`
}

// Write renders err as {"detail": ...} with the mapped status.
func Write(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	kind := KindOf(err)
	status := Status(kind)

	detail := "Internal server error"
	var e *Error
	if errors.As(err, &e) && kind != Internal {
		detail = e.message()
	}

	if kind == Internal {
		if log != nil {
			log.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err))
		}
	}
	if kind == Unauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	WriteJSON(w, status, errorBody{Detail: detail})
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
