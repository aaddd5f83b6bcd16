package watch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/apierrors"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/logger"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/metrics"
)

// ConnectFunc opens one watch connection resuming from the given resource
// version; an empty version starts from the server's current state. The
// engine owns the returned stream.
type ConnectFunc func(ctx context.Context, resourceVersion string) (io.ReadCloser, error)

// Engine drives one watch loop: connect, decode newline-delimited events,
// track the resume cursor and reconnect per the retry strategy.
type Engine struct {
	resource         string
	connect          ConnectFunc
	strategy         RetryStrategy
	forwardBookmarks bool
	log              logger.Interface
	hooks            metrics.Hooks
}

type EngineOption interface {
	apply(*Engine)
}

type engineOptionFunc func(*Engine)

func (f engineOptionFunc) apply(e *Engine) {
	f(e)
}

// WithRetryStrategy overrides the default reconnect behaviour.
func WithRetryStrategy(strategy RetryStrategy) EngineOption {
	return engineOptionFunc(func(e *Engine) {
		e.strategy = strategy
	})
}

// WithBookmarks forwards bookmark events to the sink instead of consuming
// them silently.
func WithBookmarks() EngineOption {
	return engineOptionFunc(func(e *Engine) {
		e.forwardBookmarks = true
	})
}

// WithLogger routes engine logging to the given logger.
func WithLogger(log logger.Interface) EngineOption {
	return engineOptionFunc(func(e *Engine) {
		e.log = logger.NewOptionalLogger(log)
	})
}

// WithMetrics routes event and reconnect observations to the given hooks.
func WithMetrics(hooks metrics.Hooks) EngineOption {
	return engineOptionFunc(func(e *Engine) {
		e.hooks = hooks
	})
}

// NewEngine builds an engine for one resource. resource names the watched
// plural for logging and metrics; connect opens one connection attempt.
func NewEngine(resource string, connect ConnectFunc, opts ...EngineOption) *Engine {
	e := &Engine{
		resource: resource,
		connect:  connect,
		strategy: DefaultRetryStrategy(),
		log:      logger.NewOptionalLogger(nil),
		hooks:    metrics.Nop(),
	}
	for _, opt := range opts {
		opt.apply(e)
	}
	return e
}

// Start launches the watch loop and returns its task handle immediately.
// initialResourceVersion seeds the resume cursor; events flow to sink until
// the task terminates.
func (e *Engine) Start(ctx context.Context, initialResourceVersion string, sink Sink) *Task {
	ctx, cancel := context.WithCancel(ctx)
	task := newTask(cancel)
	go e.run(ctx, task, initialResourceVersion, loggingSink{Sink: sink, engine: e})
	return task
}

// loggingSink logs every error the engine reports before passing it on, so
// that sinks which drop errors still leave a trace.
type loggingSink struct {
	Sink
	engine *Engine
}

func (s loggingSink) OnError(err error) {
	s.engine.log.Infof("watch %s: %s", s.engine.resource, err)
	s.Sink.OnError(err)
}

// streamOutcome tells the reconnect loop how a stream segment ended.
type streamOutcome struct {
	// dropCursor forces the next attempt to start from the server's
	// current state.
	dropCursor bool
	// terminal carries an error that must end the task.
	terminal error
}

func (e *Engine) run(ctx context.Context, task *Task, resourceVersion string, sink Sink) {
	defer task.terminate()

	backOff := e.strategy.newBackOff()
	attempt := 0
	connected := false

	for {
		if ctx.Err() != nil {
			return
		}
		task.transition(StateConnecting)
		stream, err := e.connect(ctx, resourceVersion)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if apierrors.IsGone(err) {
				e.log.Infof("watch %s: resume cursor expired, restarting from current state", e.resource)
				resourceVersion = ""
			} else if !apierrors.IsRetryable(err) {
				sink.OnError(err)
				return
			} else {
				e.log.Infof("watch %s: connection attempt failed: %s", e.resource, err)
			}
		} else {
			if connected {
				e.hooks.ObserveWatchReconnect(e.resource)
			}
			connected = true
			task.transition(StateStreaming)
			outcome := e.consume(ctx, stream, &resourceVersion, sink, backOff, &attempt)
			stream.Close()
			if outcome.terminal != nil {
				sink.OnError(outcome.terminal)
				return
			}
			if outcome.dropCursor {
				resourceVersion = ""
			}
		}

		if ctx.Err() != nil {
			return
		}
		attempt++
		if !e.strategy.Policy.allows(attempt) {
			exhausted := apierrors.NewTransportError("watch", e.resource, errRetryBudgetExhausted)
			exhausted.Message = errRetryBudgetExhausted.Error()
			sink.OnError(exhausted)
			return
		}
		task.transition(StateReconnecting)
		if !sleep(ctx, backOff.NextBackOff()) {
			return
		}
	}
}

// consume decodes one stream segment until it ends. The resume cursor and
// attempt counter are updated in place as events arrive.
func (e *Engine) consume(ctx context.Context, stream io.Reader, resourceVersion *string, sink Sink, backOff *backoff.ExponentialBackOff, attempt *int) streamOutcome {
	decoder := json.NewDecoder(stream)
	for {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			if ctx.Err() != nil {
				return streamOutcome{}
			}
			if err != io.EOF {
				e.log.Infof("watch %s: stream interrupted: %s", e.resource, err)
			}
			return streamOutcome{}
		}

		switch event.Type {
		case Error:
			return e.handleErrorEvent(event, sink)
		case Bookmark:
			if rv := resourceVersionOf(event.Object); rv != "" {
				*resourceVersion = rv
			}
			*attempt = 0
			backOff.Reset()
			if e.forwardBookmarks {
				sink.OnEvent(event)
				e.hooks.ObserveWatchEvent(e.resource, string(event.Type))
			}
		default:
			if rv := resourceVersionOf(event.Object); rv != "" {
				*resourceVersion = rv
			}
			*attempt = 0
			backOff.Reset()
			sink.OnEvent(event)
			e.hooks.ObserveWatchEvent(e.resource, string(event.Type))
		}
	}
}

// handleErrorEvent classifies an in-stream error object. An expired resume
// cursor restarts the watch from the server's current state; anything else
// is surfaced and the connection retried.
func (e *Engine) handleErrorEvent(event Event, sink Sink) streamOutcome {
	status := metav1.Status{}
	if err := json.Unmarshal(event.Object, &status); err != nil {
		sink.OnError(apierrors.NewMalformedResponse("watch", e.resource, event.Object, err))
		return streamOutcome{}
	}
	if status.Code == http.StatusGone {
		e.log.Infof("watch %s: resume cursor expired, restarting from current state", e.resource)
		return streamOutcome{dropCursor: true}
	}
	sink.OnError(apierrors.FromResponse("watch", e.resource, int(status.Code), nil, event.Object))
	return streamOutcome{}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
