package watch

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/apierrors"
)

type collectingSink struct {
	mu     sync.Mutex
	events []Event
	errors []error
}

func (s *collectingSink) OnEvent(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *collectingSink) OnError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, err)
}

func (s *collectingSink) eventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *collectingSink) snapshot() ([]Event, []error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...), append([]error(nil), s.errors...)
}

// scriptedConnect replays one stream body per connection attempt and records
// the resource version each attempt resumed from.
type scriptedConnect struct {
	mu       sync.Mutex
	segments []string
	cursors  []string
}

func (c *scriptedConnect) connect(ctx context.Context, resourceVersion string) (io.ReadCloser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursors = append(c.cursors, resourceVersion)
	if len(c.segments) == 0 {
		return nil, apierrors.NewTransportError("watch", "pods", io.ErrUnexpectedEOF)
	}
	segment := c.segments[0]
	c.segments = c.segments[1:]
	return io.NopCloser(strings.NewReader(segment)), nil
}

func (c *scriptedConnect) seenCursors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.cursors...)
}

func podEvent(eventType, name, resourceVersion string) string {
	return `{"type":"` + eventType + `","object":{"kind":"Pod","metadata":{"name":"` + name + `","resourceVersion":"` + resourceVersion + `"}}}` + "\n"
}

func fastStrategy(policy Policy) RetryStrategy {
	return RetryStrategy{
		Policy:       policy,
		Backoff:      Fixed(time.Millisecond),
		InitialDelay: time.Millisecond,
		Jitter:       0,
	}
}

func waitForTermination(t *testing.T, task *Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("task did not terminate in time")
	}
	assert.Equal(t, StateTerminated, task.State())
}

func TestEngineDelivery(t *testing.T) {

	t.Run("should deliver events in stream order", func(t *testing.T) {
		// given
		connect := &scriptedConnect{segments: []string{
			podEvent("ADDED", "web-1", "101") + podEvent("MODIFIED", "web-1", "102") + podEvent("DELETED", "web-1", "103"),
		}}
		sink := &collectingSink{}
		engine := NewEngine("pods", connect.connect, WithRetryStrategy(fastStrategy(Never())))

		// when
		task := engine.Start(context.Background(), "", sink)
		waitForTermination(t, task)

		// then
		events, _ := sink.snapshot()
		require.Len(t, events, 3)
		assert.Equal(t, Added, events[0].Type)
		assert.Equal(t, Modified, events[1].Type)
		assert.Equal(t, Deleted, events[2].Type)
	})

	t.Run("should resume from the last observed resource version", func(t *testing.T) {
		// given
		connect := &scriptedConnect{segments: []string{
			podEvent("ADDED", "web-1", "101") + podEvent("MODIFIED", "web-1", "102") + podEvent("MODIFIED", "web-1", "103"),
			podEvent("MODIFIED", "web-1", "104"),
		}}
		sink := &collectingSink{}
		engine := NewEngine("pods", connect.connect, WithRetryStrategy(fastStrategy(MaxAttempts(1))))

		// when
		task := engine.Start(context.Background(), "100", sink)
		waitForTermination(t, task)

		// then
		events, _ := sink.snapshot()
		require.Len(t, events, 4)
		assert.Equal(t, []string{"100", "103"}, connect.seenCursors()[:2])
	})

	t.Run("should consume bookmarks silently by default", func(t *testing.T) {
		// given
		bookmark := `{"type":"BOOKMARK","object":{"kind":"Pod","metadata":{"resourceVersion":"200"}}}` + "\n"
		connect := &scriptedConnect{segments: []string{
			podEvent("ADDED", "web-1", "101") + bookmark,
			podEvent("MODIFIED", "web-1", "201"),
		}}
		sink := &collectingSink{}
		engine := NewEngine("pods", connect.connect, WithRetryStrategy(fastStrategy(MaxAttempts(1))))

		// when
		task := engine.Start(context.Background(), "", sink)
		waitForTermination(t, task)

		// then
		events, _ := sink.snapshot()
		require.Len(t, events, 2)
		assert.Equal(t, Added, events[0].Type)
		assert.Equal(t, Modified, events[1].Type)
		assert.Equal(t, []string{"", "200"}, connect.seenCursors()[:2])
	})

	t.Run("should forward bookmarks when requested", func(t *testing.T) {
		// given
		bookmark := `{"type":"BOOKMARK","object":{"kind":"Pod","metadata":{"resourceVersion":"200"}}}` + "\n"
		connect := &scriptedConnect{segments: []string{bookmark}}
		sink := &collectingSink{}
		engine := NewEngine("pods", connect.connect, WithRetryStrategy(fastStrategy(Never())), WithBookmarks())

		// when
		task := engine.Start(context.Background(), "", sink)
		waitForTermination(t, task)

		// then
		events, _ := sink.snapshot()
		require.Len(t, events, 1)
		assert.Equal(t, Bookmark, events[0].Type)
	})
}

func TestEngineReconnect(t *testing.T) {

	t.Run("should drop the cursor after an expired error event", func(t *testing.T) {
		// given
		goneEvent := `{"type":"ERROR","object":{"kind":"Status","status":"Failure","reason":"Expired","code":410}}` + "\n"
		connect := &scriptedConnect{segments: []string{
			podEvent("ADDED", "web-1", "101") + goneEvent,
			podEvent("ADDED", "web-1", "500"),
		}}
		sink := &collectingSink{}
		engine := NewEngine("pods", connect.connect, WithRetryStrategy(fastStrategy(MaxAttempts(1))))

		// when
		task := engine.Start(context.Background(), "", sink)
		waitForTermination(t, task)

		// then
		assert.Equal(t, []string{"", ""}, connect.seenCursors()[:2])
		events, _ := sink.snapshot()
		require.Len(t, events, 2)
	})

	t.Run("should forward non expired error events and keep going", func(t *testing.T) {
		// given
		errorEvent := `{"type":"ERROR","object":{"kind":"Status","status":"Failure","reason":"InternalError","code":500}}` + "\n"
		connect := &scriptedConnect{segments: []string{
			podEvent("ADDED", "web-1", "101") + errorEvent,
			podEvent("MODIFIED", "web-1", "102"),
		}}
		sink := &collectingSink{}
		engine := NewEngine("pods", connect.connect, WithRetryStrategy(fastStrategy(MaxAttempts(1))))

		// when
		task := engine.Start(context.Background(), "", sink)
		waitForTermination(t, task)

		// then
		events, errors := sink.snapshot()
		require.Len(t, events, 2)
		require.NotEmpty(t, errors)
		assert.True(t, apierrors.IsServerError(errors[0]))
	})

	t.Run("should emit a terminal error once the budget is spent", func(t *testing.T) {
		// given
		connect := &scriptedConnect{segments: []string{
			podEvent("ADDED", "web-1", "101"),
		}}
		sink := &collectingSink{}
		engine := NewEngine("pods", connect.connect, WithRetryStrategy(fastStrategy(MaxAttempts(2))))

		// when
		task := engine.Start(context.Background(), "", sink)
		waitForTermination(t, task)

		// then
		_, errors := sink.snapshot()
		require.NotEmpty(t, errors)
		last := errors[len(errors)-1]
		assert.Contains(t, last.Error(), "retry budget exhausted")
	})

	t.Run("should terminate on non retryable connect errors", func(t *testing.T) {
		// given
		forbidden := apierrors.FromResponse("watch", "/api/v1/pods", 403, nil, nil)
		connect := func(ctx context.Context, resourceVersion string) (io.ReadCloser, error) {
			return nil, forbidden
		}
		sink := &collectingSink{}
		engine := NewEngine("pods", connect, WithRetryStrategy(fastStrategy(Forever())))

		// when
		task := engine.Start(context.Background(), "", sink)
		waitForTermination(t, task)

		// then
		_, errors := sink.snapshot()
		require.Len(t, errors, 1)
		assert.True(t, apierrors.IsForbidden(errors[0]))
	})

	t.Run("should drop the cursor when the connect attempt reports gone", func(t *testing.T) {
		// given
		var cursors []string
		var mu sync.Mutex
		gone := apierrors.FromResponse("watch", "/api/v1/pods", 410, nil, nil)
		calls := 0
		connect := func(ctx context.Context, resourceVersion string) (io.ReadCloser, error) {
			mu.Lock()
			defer mu.Unlock()
			cursors = append(cursors, resourceVersion)
			calls++
			if calls == 1 {
				return nil, gone
			}
			if calls == 2 {
				return io.NopCloser(strings.NewReader(podEvent("ADDED", "web-1", "500"))), nil
			}
			return nil, apierrors.NewTransportError("watch", "pods", io.ErrUnexpectedEOF)
		}
		sink := &collectingSink{}
		engine := NewEngine("pods", connect, WithRetryStrategy(fastStrategy(MaxAttempts(2))))

		// when
		task := engine.Start(context.Background(), "300", sink)
		waitForTermination(t, task)

		// then
		mu.Lock()
		defer mu.Unlock()
		require.GreaterOrEqual(t, len(cursors), 2)
		assert.Equal(t, "300", cursors[0])
		assert.Equal(t, "", cursors[1])
	})
}

func TestEngineCancellation(t *testing.T) {

	t.Run("should stop immediately when cancelled mid stream", func(t *testing.T) {
		// given
		reader, writer := io.Pipe()
		connect := func(ctx context.Context, resourceVersion string) (io.ReadCloser, error) {
			return reader, nil
		}
		sink := &collectingSink{}
		engine := NewEngine("pods", connect, WithRetryStrategy(fastStrategy(Forever())))
		task := engine.Start(context.Background(), "", sink)

		_, err := writer.Write([]byte(podEvent("ADDED", "web-1", "101")))
		require.NoError(t, err)
		require.Eventually(t, func() bool { return sink.eventCount() == 1 }, 5*time.Second, 5*time.Millisecond)

		// when
		task.Cancel()
		writer.CloseWithError(io.ErrClosedPipe)
		waitForTermination(t, task)

		// then
		events, _ := sink.snapshot()
		assert.Len(t, events, 1)
	})

	t.Run("should not reconnect after cancellation during backoff", func(t *testing.T) {
		// given
		var calls int
		var mu sync.Mutex
		connect := func(ctx context.Context, resourceVersion string) (io.ReadCloser, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			return io.NopCloser(strings.NewReader("")), nil
		}
		sink := &collectingSink{}
		strategy := RetryStrategy{
			Policy:       Forever(),
			Backoff:      Fixed(time.Hour),
			InitialDelay: time.Hour,
			Jitter:       0,
		}
		engine := NewEngine("pods", connect, WithRetryStrategy(strategy))
		task := engine.Start(context.Background(), "", sink)

		require.Eventually(t, func() bool {
			return task.State() == StateReconnecting
		}, 5*time.Second, 5*time.Millisecond)

		// when
		task.Cancel()
		waitForTermination(t, task)

		// then
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 1, calls)
	})

	t.Run("should make cancellation idempotent", func(t *testing.T) {
		// given
		connect := &scriptedConnect{segments: []string{""}}
		engine := NewEngine("pods", connect.connect, WithRetryStrategy(fastStrategy(Never())))
		task := engine.Start(context.Background(), "", &collectingSink{})
		waitForTermination(t, task)

		// when / then
		task.Cancel()
		task.Cancel()
		assert.Equal(t, StateTerminated, task.State())
	})
}
