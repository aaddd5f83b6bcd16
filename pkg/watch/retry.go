package watch

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// PolicyKind bounds how many reconnect attempts a watch task may make.
type PolicyKind int

const (
	PolicyNever PolicyKind = iota
	PolicyMaxAttempts
	PolicyForever
)

type Policy struct {
	kind        PolicyKind
	maxAttempts int
}

func Never() Policy {
	return Policy{kind: PolicyNever}
}

func MaxAttempts(n int) Policy {
	return Policy{kind: PolicyMaxAttempts, maxAttempts: n}
}

func Forever() Policy {
	return Policy{kind: PolicyForever}
}

// allows reports whether reconnect attempt n (1-based) is within budget.
func (p Policy) allows(attempt int) bool {
	switch p.kind {
	case PolicyForever:
		return true
	case PolicyMaxAttempts:
		return attempt <= p.maxAttempts
	default:
		return false
	}
}

type backoffKind int

const (
	backoffFixed backoffKind = iota
	backoffExponential
)

// BackoffSpec shapes the delay between reconnect attempts.
type BackoffSpec struct {
	kind       backoffKind
	fixedDelay time.Duration
	multiplier float64
	maxDelay   time.Duration
}

func Fixed(d time.Duration) BackoffSpec {
	return BackoffSpec{kind: backoffFixed, fixedDelay: d}
}

func Exponential(multiplier float64, maxDelay time.Duration) BackoffSpec {
	return BackoffSpec{kind: backoffExponential, multiplier: multiplier, maxDelay: maxDelay}
}

// RetryStrategy governs watch reconnection: how often, how long between
// attempts and how much random noise to add.
type RetryStrategy struct {
	Policy Policy
	Backoff BackoffSpec
	// InitialDelay seeds the exponential curve and is the delay before the
	// first reconnect under Exponential backoff. Fixed backoff ignores it and
	// waits its own delay before every reconnect, the first included.
	InitialDelay time.Duration
	// Jitter is the fraction of each delay added or subtracted as uniform
	// random noise, in [0.0, 1.0].
	Jitter float64
}

// DefaultRetryStrategy matches the defaults callers get when passing the
// zero value nowhere: ten attempts, five seconds apart, twenty percent
// jitter.
func DefaultRetryStrategy() RetryStrategy {
	return RetryStrategy{
		Policy:       MaxAttempts(10),
		Backoff:      Fixed(5 * time.Second),
		InitialDelay: time.Second,
		Jitter:       0.2,
	}
}

// newBackOff materializes the strategy as an exponential backoff. A fixed
// delay is an exponential curve with multiplier one.
func (s RetryStrategy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.RandomizationFactor = s.Jitter
	b.MaxElapsedTime = 0
	switch s.Backoff.kind {
	case backoffFixed:
		b.InitialInterval = s.Backoff.fixedDelay
		b.MaxInterval = s.Backoff.fixedDelay
		b.Multiplier = 1
	case backoffExponential:
		b.InitialInterval = s.InitialDelay
		b.MaxInterval = s.Backoff.maxDelay
		b.Multiplier = s.Backoff.multiplier
	}
	b.Reset()
	return b
}
