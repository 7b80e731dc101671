package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the closed classification of submission failures. Callers switch on
// it to pick a user-visible message; none of these are retried automatically.
type Kind int

const (
	// KindTransport covers network failures and anything unclassified.
	KindTransport Kind = iota
	// KindPermissionDenied means a bad API key or no access to the model.
	KindPermissionDenied
	// KindInvalidModel means the model is unknown or the request malformed.
	KindInvalidModel
	// KindQuotaExceeded means the API request limit was reached.
	KindQuotaExceeded
	// KindBlocked means the safety filter suppressed the response.
	KindBlocked
	// KindEmpty means the model returned nothing, with no stated reason.
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission_denied"
	case KindInvalidModel:
		return "invalid_model"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindBlocked:
		return "blocked"
	case KindEmpty:
		return "empty_response"
	default:
		return "transport"
	}
}

// SafetyRating is one itemized safety signal attached to a blocked response.
type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
}

// Error is a classified API failure.
type Error struct {
	Kind          Kind
	Message       string
	Reason        string // API status or safety block reason code
	SafetyRatings []SafetyRating

	err error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("gemini: %s (%s): %s", e.Kind, e.Reason, e.Message)
	}
	return fmt.Sprintf("gemini: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// KindOf extracts the failure kind from an error chain. Errors that did not
// come from this package classify as KindTransport.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindTransport
}

// apiErrorEnvelope is the standard Google API error body.
type apiErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// classify maps an HTTP failure onto the closed error taxonomy.
func classify(statusCode int, body []byte) *Error {
	var envelope apiErrorEnvelope
	_ = json.Unmarshal(body, &envelope)

	status := envelope.Error.Status
	message := envelope.Error.Message
	if message == "" {
		message = strings.TrimSpace(string(body))
		if message == "" {
			message = http.StatusText(statusCode)
		}
	}

	kind := KindTransport
	switch {
	case status == "PERMISSION_DENIED" || status == "UNAUTHENTICATED" ||
		statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		kind = KindPermissionDenied
	case status == "INVALID_ARGUMENT" || status == "NOT_FOUND" ||
		statusCode == http.StatusBadRequest || statusCode == http.StatusNotFound:
		kind = KindInvalidModel
	case status == "RESOURCE_EXHAUSTED" || statusCode == http.StatusTooManyRequests:
		kind = KindQuotaExceeded
	}

	return &Error{Kind: kind, Message: message, Reason: status}
}
