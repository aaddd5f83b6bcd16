package client

import (
	"context"
	"encoding/json"
	"io"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/apierrors"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/logger"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/resource"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/rest"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/watch"
)

// TypedEvent is a watch event decoded into the handle's resource type. For
// bookmark events only the object's resourceVersion is populated.
type TypedEvent[T any] struct {
	Type   watch.EventType
	Object *T
}

// TypedSink receives decoded events and errors from one watch task. Calls
// are serialized per task.
type TypedSink[T any] interface {
	OnEvent(event TypedEvent[T])
	OnError(err error)
}

type typedEventFuncSink[T any] struct {
	fn func(TypedEvent[T])
}

func (s typedEventFuncSink[T]) OnEvent(event TypedEvent[T]) {
	s.fn(event)
}

func (s typedEventFuncSink[T]) OnError(error) {}

// TypedEventFunc adapts an event-only callback to a TypedSink. Errors are
// logged by the engine and suppressed.
func TypedEventFunc[T any](fn func(TypedEvent[T])) TypedSink[T] {
	return typedEventFuncSink[T]{fn: fn}
}

// decodingSink bridges the untyped engine to a typed sink.
type decodingSink[T any] struct {
	resource string
	sink     TypedSink[T]
	log      logger.Interface
}

func (s decodingSink[T]) OnEvent(event watch.Event) {
	out := new(T)
	if err := json.Unmarshal(event.Object, out); err != nil {
		decodeErr := apierrors.NewMalformedResponse("watch", s.resource, event.Object, err)
		s.log.Infof("watch %s: %s", s.resource, decodeErr)
		s.sink.OnError(decodeErr)
		return
	}
	s.sink.OnEvent(TypedEvent[T]{Type: event.Type, Object: out})
}

func (s decodingSink[T]) OnError(err error) {
	s.sink.OnError(err)
}

func (h handle[T]) watch(ctx context.Context, ns rest.NamespaceSelector, opts rest.ListOptions, sink TypedSink[T], engineOpts ...watch.EngineOption) (*watch.Task, error) {
	if err := h.require(resource.Watchable, rest.VerbWatch); err != nil {
		return nil, err
	}

	// Validate request construction before the task starts so that
	// malformed selectors surface synchronously.
	if _, err := rest.NewWatch(h.descriptor, ns, opts); err != nil {
		return nil, err
	}

	connect := func(ctx context.Context, resourceVersion string) (io.ReadCloser, error) {
		attemptOpts := opts
		attemptOpts.ResourceVersion = resourceVersion
		req, err := rest.NewWatch(h.descriptor, ns, attemptOpts)
		if err != nil {
			return nil, err
		}
		return h.client.streaming.Stream(ctx, req)
	}

	defaults := []watch.EngineOption{
		watch.WithLogger(h.client.log),
		watch.WithMetrics(h.client.hooks),
	}
	if opts.AllowWatchBookmarks {
		defaults = append(defaults, watch.WithBookmarks())
	}
	engineOpts = append(defaults, engineOpts...)
	engine := watch.NewEngine(h.descriptor.Plural, connect, engineOpts...)
	return engine.Start(ctx, opts.ResourceVersion, decodingSink[T]{resource: h.descriptor.Plural, sink: sink, log: h.client.log}), nil
}

// Watch starts a watch over the selected namespace and returns its task
// handle immediately. opts.ResourceVersion seeds the resume cursor; pass a
// retry strategy through watch.WithRetryStrategy.
func (r *NamespacedResource[T]) Watch(ctx context.Context, ns rest.NamespaceSelector, opts rest.ListOptions, sink TypedSink[T], engineOpts ...watch.EngineOption) (*watch.Task, error) {
	return r.watch(ctx, ns, opts, sink, engineOpts...)
}

// Watch starts a watch over the cluster-wide collection.
func (r *ClusterResource[T]) Watch(ctx context.Context, opts rest.ListOptions, sink TypedSink[T], engineOpts ...watch.EngineOption) (*watch.Task, error) {
	return r.watch(ctx, rest.DefaultNamespace(), opts, sink, engineOpts...)
}
