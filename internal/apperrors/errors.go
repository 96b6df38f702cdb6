// Package apperrors classifies failures so the pipeline can decide whether
// an entry is worth another attempt, and so users only ever see a message
// that is safe to print. The raw cause, which may quote request bodies or
// catalog text, stays reachable through errors.Unwrap for logs.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind string

const (
	KindTransient  Kind = "transient"
	KindRateLimit  Kind = "rate_limit"
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindBadRequest Kind = "bad_request"
	KindTimeout    Kind = "timeout"
	KindStorage    Kind = "storage"
)

type kindInfo struct {
	message string
	// retry marks kinds where a later attempt can succeed. Validation is
	// included because model output is non-deterministic.
	retry bool
}

var kinds = map[Kind]kindInfo{
	KindTransient:  {"The translation service had a temporary problem.", true},
	KindRateLimit:  {"The translation service is rate limiting requests.", true},
	KindAuth:       {"The API key was rejected.", false},
	KindValidation: {"The model returned an unusable translation.", true},
	KindBadRequest: {"The translation service refused the request.", false},
	KindTimeout:    {"The translation request timed out.", true},
	KindStorage:    {"The catalog could not be read or written.", false},
}

// Error pairs a Kind and a printable message with the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error. An empty message falls back to the kind's generic
// wording.
func New(kind Kind, message string, cause error) error {
	message = strings.TrimSpace(message)
	if message == "" {
		if message = kinds[kind].message; message == "" {
			message = "The request failed."
		}
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Transient(cause error) error { return New(KindTransient, "", cause) }

func Storage(cause error) error { return New(KindStorage, "", cause) }

// FromStatus turns an HTTP status from provider (its display name) into a
// classified error without echoing the response body.
func FromStatus(provider string, status int, cause error) error {
	var (
		kind Kind
		text string
	)
	switch {
	case status == http.StatusTooManyRequests:
		kind, text = KindRateLimit, "rate limit exceeded (HTTP 429), try again later"
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		kind, text = KindAuth, fmt.Sprintf("rejected the API key (HTTP %d)", status)
	case status == http.StatusNotFound:
		kind, text = KindBadRequest, "has no such model or endpoint (HTTP 404)"
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		kind, text = KindTimeout, fmt.Sprintf("timed out (HTTP %d)", status)
	case status >= 500:
		kind, text = KindTransient, fmt.Sprintf("is temporarily unavailable (HTTP %d)", status)
	default:
		kind, text = KindBadRequest, fmt.Sprintf("refused the request (HTTP %d)", status)
	}
	return New(kind, provider+" "+text+".", cause)
}

// FromTransport classifies failures that happen before any status arrives:
// DNS, refused connections, deadlines.
func FromTransport(provider string, cause error) error {
	if errors.Is(cause, context.DeadlineExceeded) {
		return New(KindTimeout, provider+" did not answer in time.", cause)
	}
	return New(KindTransient, provider+" could not be reached.", cause)
}

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// PublicMessage is the text to show a user. For classified errors it is the
// safe message even when err wraps it with more context.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	return ok && kinds[kind].retry
}

func IsAuth(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindAuth
}
