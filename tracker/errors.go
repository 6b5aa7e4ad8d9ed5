package tracker

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error response returned by the Tracker API.
type Kind int

const (
	// KindGeneric covers every unsuccessful status without a dedicated kind.
	KindGeneric Kind = iota
	// KindUnauthorized maps to HTTP 401.
	KindUnauthorized
	// KindForbidden maps to HTTP 403.
	KindForbidden
	// KindNotFound maps to HTTP 404.
	KindNotFound
	// KindConflict maps to HTTP 409.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	default:
		return "generic"
	}
}

// User-facing explanations attached to the specific kinds.
const (
	msgUnauthorized = "The user is not authorized. Check whether all the steps described in API access were completed."
	msgForbidden    = "You do not have sufficient rights to perform this action. Double-check permissions in the Tracker interface. You need the same permissions to perform the action via the API as in the interface."
	msgNotFound     = "The requested object was not found. You might have entered an incorrect object ID or key value."
	msgConflict     = "An issue with the same value of the unique parameter already exists."
)

// Sentinel errors, matched with errors.Is against any *APIError of the same kind.
var (
	ErrUnauthorized = &APIError{Kind: KindUnauthorized, StatusCode: http.StatusUnauthorized, Message: msgUnauthorized}
	ErrForbidden    = &APIError{Kind: KindForbidden, StatusCode: http.StatusForbidden, Message: msgForbidden}
	ErrNotFound     = &APIError{Kind: KindNotFound, StatusCode: http.StatusNotFound, Message: msgNotFound}
	ErrConflict     = &APIError{Kind: KindConflict, StatusCode: http.StatusConflict, Message: msgConflict}
	ErrGeneric      = &APIError{Kind: KindGeneric}
)

var (
	// ErrInvalidConfig is returned by NewClient when the client cannot be configured.
	ErrInvalidConfig = errors.New("invalid tracker configuration")
	// ErrConnClosed is returned by requests issued after Close.
	ErrConnClosed = errors.New("tracker connection is closed")
	// ErrDecode matches every *DecodeError.
	ErrDecode = errors.New("failed to decode response")
	// ErrUnbound is returned by convenience methods of objects that were not
	// decoded by a client.
	ErrUnbound = errors.New("object is not bound to a tracker client")
)

// APIError represents an unsuccessful Tracker API response.
type APIError struct {
	Kind       Kind
	StatusCode int
	Message    string
	// Body is the raw response body. It is only kept for KindGeneric.
	Body string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Kind == KindGeneric {
		return fmt.Sprintf("tracker API error: status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("tracker API error: %s: %s", e.Kind, e.Message)
}

// Is reports whether target is an *APIError of the same kind.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// IsNotFound checks if the error indicates a not found response
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if the error indicates an authentication failure
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden checks if the error indicates missing permissions
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsConflict checks if the error indicates a unique-value conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// Classify maps an HTTP status and response body to an error.
// Statuses below 300 are successful and yield nil.
func Classify(status int, body []byte) error {
	if status < http.StatusMultipleChoices {
		return nil
	}

	switch status {
	case http.StatusUnauthorized:
		return &APIError{Kind: KindUnauthorized, StatusCode: status, Message: msgUnauthorized}
	case http.StatusForbidden:
		return &APIError{Kind: KindForbidden, StatusCode: status, Message: msgForbidden}
	case http.StatusNotFound:
		return &APIError{Kind: KindNotFound, StatusCode: status, Message: msgNotFound}
	case http.StatusConflict:
		return &APIError{Kind: KindConflict, StatusCode: status, Message: msgConflict}
	default:
		return &APIError{Kind: KindGeneric, StatusCode: status, Body: string(body)}
	}
}

// DecodeError reports a response that does not match the requested type.
type DecodeError struct {
	Type  string
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("failed to decode %s: field %q: %v", e.Type, e.Field, e.Err)
	}
	return fmt.Sprintf("failed to decode %s: %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}
