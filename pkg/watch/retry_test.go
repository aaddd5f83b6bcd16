package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy(t *testing.T) {

	t.Run("should never allow reconnects for never", func(t *testing.T) {
		assert.False(t, Never().allows(1))
	})

	t.Run("should cap attempts for max attempts", func(t *testing.T) {
		policy := MaxAttempts(3)

		assert.True(t, policy.allows(1))
		assert.True(t, policy.allows(3))
		assert.False(t, policy.allows(4))
	})

	t.Run("should always allow reconnects for forever", func(t *testing.T) {
		assert.True(t, Forever().allows(1000000))
	})
}

func TestBackOff(t *testing.T) {

	t.Run("should produce constant delays for fixed backoff", func(t *testing.T) {
		// given
		strategy := RetryStrategy{
			Policy:       Forever(),
			Backoff:      Fixed(5 * time.Second),
			InitialDelay: time.Second,
			Jitter:       0,
		}

		// when
		b := strategy.newBackOff()

		// then
		for i := 0; i < 5; i++ {
			assert.Equal(t, 5*time.Second, b.NextBackOff())
		}
	})

	t.Run("should grow monotonically and cap at max for exponential backoff", func(t *testing.T) {
		// given
		strategy := RetryStrategy{
			Policy:       Forever(),
			Backoff:      Exponential(2, 8*time.Second),
			InitialDelay: time.Second,
			Jitter:       0,
		}

		// when
		b := strategy.newBackOff()

		// then
		previous := time.Duration(0)
		for i := 0; i < 10; i++ {
			delay := b.NextBackOff()
			assert.GreaterOrEqual(t, delay, previous)
			assert.LessOrEqual(t, delay, 8*time.Second)
			previous = delay
		}
		assert.Equal(t, 8*time.Second, previous)
	})

	t.Run("should restart the curve after reset", func(t *testing.T) {
		// given
		strategy := RetryStrategy{
			Policy:       Forever(),
			Backoff:      Exponential(2, 8*time.Second),
			InitialDelay: time.Second,
			Jitter:       0,
		}
		b := strategy.newBackOff()
		for i := 0; i < 4; i++ {
			b.NextBackOff()
		}

		// when
		b.Reset()

		// then
		assert.Equal(t, time.Second, b.NextBackOff())
	})

	t.Run("should keep jittered delays within the configured fraction", func(t *testing.T) {
		// given
		strategy := RetryStrategy{
			Policy:       Forever(),
			Backoff:      Fixed(time.Second),
			InitialDelay: time.Second,
			Jitter:       0.2,
		}

		// when
		b := strategy.newBackOff()

		// then
		for i := 0; i < 20; i++ {
			delay := b.NextBackOff()
			assert.GreaterOrEqual(t, delay, 800*time.Millisecond)
			assert.LessOrEqual(t, delay, 1200*time.Millisecond)
		}
	})

	t.Run("should default to ten fixed attempts", func(t *testing.T) {
		// when
		strategy := DefaultRetryStrategy()

		// then
		assert.True(t, strategy.Policy.allows(10))
		assert.False(t, strategy.Policy.allows(11))
		assert.Equal(t, 0.2, strategy.Jitter)
	})
}
