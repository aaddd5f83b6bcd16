package apierrors

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromResponse(t *testing.T) {

	statusBody := func(reason, message string) []byte {
		body, _ := json.Marshal(map[string]interface{}{
			"kind":       "Status",
			"apiVersion": "v1",
			"status":     "Failure",
			"message":    message,
			"reason":     reason,
			"code":       409,
		})
		return body
	}

	t.Run("should classify status codes", func(t *testing.T) {
		for code, kind := range map[int]Kind{
			http.StatusBadRequest:          KindBadRequest,
			http.StatusUnauthorized:        KindUnauthenticated,
			http.StatusForbidden:           KindForbidden,
			http.StatusNotFound:            KindNotFound,
			http.StatusConflict:            KindConflict,
			http.StatusGone:                KindGone,
			http.StatusUnprocessableEntity: KindInvalid,
			http.StatusTooManyRequests:     KindThrottled,
			http.StatusInternalServerError: KindServerError,
			http.StatusServiceUnavailable:  KindServerError,
		} {
			// when
			err := FromResponse("get", "/api/v1/pods", code, nil, nil)

			// then
			assert.Equal(t, kind, err.Kind, "code %d", code)
			assert.Equal(t, code, err.Code)
		}
	})

	t.Run("should distinguish already exists from conflict", func(t *testing.T) {
		// when
		err := FromResponse("create", "/api/v1/pods", http.StatusConflict, nil,
			statusBody("AlreadyExists", "pods \"web\" already exists"))

		// then
		assert.Equal(t, KindAlreadyExists, err.Kind)
		assert.True(t, IsAlreadyExists(err))
		assert.True(t, IsConflict(err))
	})

	t.Run("should keep decoded status and its message", func(t *testing.T) {
		// when
		err := FromResponse("update", "/api/v1/pods/web", http.StatusConflict, nil,
			statusBody("Conflict", "the object has been modified"))

		// then
		require.NotNil(t, err.Status)
		assert.Equal(t, "the object has been modified", err.Message)
		assert.Contains(t, err.Error(), "update /api/v1/pods/web")
	})

	t.Run("should mark server errors retryable", func(t *testing.T) {
		// when
		err := FromResponse("get", "/api/v1/pods", http.StatusBadGateway, nil, nil)

		// then
		assert.True(t, IsRetryable(err))
	})

	t.Run("should honour retry after on throttling", func(t *testing.T) {
		// given
		header := http.Header{}
		header.Set("Retry-After", "7")

		// when
		err := FromResponse("list", "/api/v1/pods", http.StatusTooManyRequests, header, nil)

		// then
		assert.True(t, IsThrottled(err))
		assert.True(t, IsRetryable(err))
		delay, ok := RetryAfter(err)
		require.True(t, ok)
		assert.Equal(t, 7*time.Second, delay)
	})

	t.Run("should ignore malformed retry after", func(t *testing.T) {
		// given
		header := http.Header{}
		header.Set("Retry-After", "soon")

		// when
		err := FromResponse("list", "/api/v1/pods", http.StatusTooManyRequests, header, nil)

		// then
		_, ok := RetryAfter(err)
		assert.False(t, ok)
	})

	t.Run("should fall back to status text without a status body", func(t *testing.T) {
		// when
		err := FromResponse("get", "/api/v1/pods/web", http.StatusNotFound, nil, []byte("not json"))

		// then
		assert.Equal(t, KindNotFound, err.Kind)
		assert.Equal(t, http.StatusText(http.StatusNotFound), err.Message)
		assert.Nil(t, err.Status)
	})
}

func TestConstructors(t *testing.T) {

	t.Run("should truncate malformed payload diagnostics", func(t *testing.T) {
		// given
		payload := make([]byte, 1024)
		for i := range payload {
			payload[i] = 'x'
		}

		// when
		err := NewMalformedResponse("get", "/api/v1/pods", payload, nil)

		// then
		assert.True(t, IsMalformedResponse(err))
		assert.False(t, IsRetryable(err))
		assert.Less(t, len(err.Message), 512)
	})

	t.Run("should mark transport errors retryable", func(t *testing.T) {
		// when
		err := NewTransportError("get", "/api/v1/pods", assert.AnError)

		// then
		assert.True(t, IsTransportError(err))
		assert.True(t, IsRetryable(err))
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("should keep cancellation distinct from transport failure", func(t *testing.T) {
		// when
		err := NewCancelled("get", "/api/v1/pods", assert.AnError)

		// then
		assert.True(t, IsCancelled(err))
		assert.False(t, IsTransportError(err))
		assert.False(t, IsRetryable(err))
	})

	t.Run("should report unsupported operation", func(t *testing.T) {
		// when
		err := NewUnsupportedOperation("deletecollection", "namespaces.v1")

		// then
		assert.True(t, IsUnsupportedOperation(err))
		assert.Contains(t, err.Error(), "namespaces.v1")
	})

	t.Run("should return empty kind for foreign errors", func(t *testing.T) {
		assert.Equal(t, Kind(""), KindOf(assert.AnError))
		assert.False(t, IsRetryable(assert.AnError))
	})
}
