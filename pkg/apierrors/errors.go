// Package apierrors translates API server responses and transport failures
// into typed errors that callers can branch on without string matching.
package apierrors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type Kind string

const (
	KindBadRequest           Kind = "BadRequest"
	KindUnauthenticated      Kind = "Unauthenticated"
	KindForbidden            Kind = "Forbidden"
	KindNotFound             Kind = "NotFound"
	KindConflict             Kind = "Conflict"
	KindAlreadyExists        Kind = "AlreadyExists"
	KindGone                 Kind = "Gone"
	KindInvalid              Kind = "Invalid"
	KindThrottled            Kind = "Throttled"
	KindServerError          Kind = "ServerError"
	KindTransportError       Kind = "TransportError"
	KindMalformedResponse    Kind = "MalformedResponse"
	KindCancelled            Kind = "Cancelled"
	KindInvalidRequest       Kind = "InvalidRequest"
	KindUnsupportedOperation Kind = "UnsupportedOperation"
)

// maxPayloadDiagnostics limits how much of an undecodable payload is kept on
// the error for diagnostics.
const maxPayloadDiagnostics = 256

// APIError is the error type surfaced by every operation of the client. It
// carries the HTTP status code and decoded Status body when a response was
// received, and the originating verb and path for diagnostics.
type APIError struct {
	Kind       Kind
	Code       int
	Status     *metav1.Status
	Verb       string
	Path       string
	Retryable  bool
	RetryAfter time.Duration
	Message    string

	cause error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.cause != nil {
		msg = e.cause.Error()
	}
	if e.Verb == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s (%s %s)", e.Kind, msg, e.Verb, e.Path)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest reports a request that could not be built. It is always
// returned before any network I/O happens.
func NewInvalidRequest(format string, a ...interface{}) *APIError {
	return &APIError{
		Kind:    KindInvalidRequest,
		Message: fmt.Sprintf(format, a...),
	}
}

// NewUnsupportedOperation reports a verb dispatched on a resource whose
// descriptor does not advertise the matching capability.
func NewUnsupportedOperation(verb, resource string) *APIError {
	return &APIError{
		Kind:    KindUnsupportedOperation,
		Verb:    verb,
		Message: fmt.Sprintf("resource %s does not support %s", resource, verb),
	}
}

// NewMalformedResponse reports a response body that could not be decoded.
// The first 256 bytes of the payload are kept for diagnostics.
func NewMalformedResponse(verb, path string, payload []byte, cause error) *APIError {
	if len(payload) > maxPayloadDiagnostics {
		payload = payload[:maxPayloadDiagnostics]
	}
	msg := fmt.Sprintf("unable to decode response payload %q", string(payload))
	if cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, cause.Error())
	}
	return &APIError{
		Kind:    KindMalformedResponse,
		Verb:    verb,
		Path:    path,
		Message: msg,
		cause:   cause,
	}
}

func NewTransportError(verb, path string, cause error) *APIError {
	return &APIError{
		Kind:      KindTransportError,
		Verb:      verb,
		Path:      path,
		Retryable: true,
		Message:   "transport failure",
		cause:     cause,
	}
}

func NewCancelled(verb, path string, cause error) *APIError {
	return &APIError{
		Kind:    KindCancelled,
		Verb:    verb,
		Path:    path,
		Message: "operation cancelled",
		cause:   cause,
	}
}

// FromResponse classifies a non-2xx response. The body is decoded as a
// Status object when possible; classification falls back to the HTTP status
// code alone when it is not.
func FromResponse(verb, path string, code int, header http.Header, body []byte) *APIError {
	var status *metav1.Status
	var decoded metav1.Status
	if len(body) > 0 && json.Unmarshal(body, &decoded) == nil && decoded.Kind == "Status" {
		status = &decoded
	}

	err := &APIError{
		Code:   code,
		Status: status,
		Verb:   verb,
		Path:   path,
	}
	if status != nil && status.Message != "" {
		err.Message = status.Message
	} else {
		err.Message = http.StatusText(code)
	}

	switch {
	case code == http.StatusBadRequest:
		err.Kind = KindBadRequest
	case code == http.StatusUnauthorized:
		err.Kind = KindUnauthenticated
	case code == http.StatusForbidden:
		err.Kind = KindForbidden
	case code == http.StatusNotFound:
		err.Kind = KindNotFound
	case code == http.StatusConflict:
		err.Kind = KindConflict
		if status != nil && status.Reason == metav1.StatusReasonAlreadyExists {
			err.Kind = KindAlreadyExists
		}
	case code == http.StatusGone:
		err.Kind = KindGone
	case code == http.StatusUnprocessableEntity:
		err.Kind = KindInvalid
	case code == http.StatusTooManyRequests:
		err.Kind = KindThrottled
		err.Retryable = true
		err.RetryAfter = retryAfter(header)
	case code >= 500:
		err.Kind = KindServerError
		err.Retryable = true
	default:
		err.Kind = KindBadRequest
	}
	return err
}

func retryAfter(header http.Header) time.Duration {
	if header == nil {
		return 0
	}
	seconds, err := strconv.Atoi(header.Get("Retry-After"))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
