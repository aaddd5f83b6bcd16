package apierrors

import (
	"errors"
	"time"
)

// KindOf returns the classified kind of err, or an empty Kind when err was
// not produced by this client.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

func isKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func IsBadRequest(err error) bool      { return isKind(err, KindBadRequest) }
func IsUnauthenticated(err error) bool { return isKind(err, KindUnauthenticated) }
func IsForbidden(err error) bool       { return isKind(err, KindForbidden) }
func IsNotFound(err error) bool        { return isKind(err, KindNotFound) }
func IsGone(err error) bool            { return isKind(err, KindGone) }
func IsInvalid(err error) bool         { return isKind(err, KindInvalid) }
func IsThrottled(err error) bool       { return isKind(err, KindThrottled) }
func IsServerError(err error) bool     { return isKind(err, KindServerError) }
func IsTransportError(err error) bool  { return isKind(err, KindTransportError) }
func IsCancelled(err error) bool       { return isKind(err, KindCancelled) }
func IsInvalidRequest(err error) bool  { return isKind(err, KindInvalidRequest) }

func IsMalformedResponse(err error) bool    { return isKind(err, KindMalformedResponse) }
func IsUnsupportedOperation(err error) bool { return isKind(err, KindUnsupportedOperation) }

// IsAlreadyExists reports the create-time conflict variant.
func IsAlreadyExists(err error) bool { return isKind(err, KindAlreadyExists) }

// IsConflict reports both plain conflicts and the AlreadyExists variant.
func IsConflict(err error) bool {
	kind := KindOf(err)
	return kind == KindConflict || kind == KindAlreadyExists
}

// IsRetryable reports whether the operation that produced err may be retried
// without changing the request.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return false
}

// RetryAfter returns the server-requested delay before retrying, if the
// response carried one.
func RetryAfter(err error) (time.Duration, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter, true
	}
	return 0, false
}
