// Package client is the top-level entry point: it owns the transport, the
// descriptor registry and the typed resource handles built on top of them.
// Handles are cheap and safe for concurrent use; one Client per cluster is
// the intended shape.
package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/blang/semver/v4"
	"github.com/pkg/errors"
	restclient "k8s.io/client-go/rest"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/config"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/logger"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/metrics"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/resource"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/rest"
)

// Client talks to one API server. The buffered transport serves single
// requests; the streaming transport, which carries no client-side timeout,
// serves watches and followed logs.
type Client struct {
	transport *rest.Transport
	streaming *rest.Transport
	registry  *resource.Registry
	log       logger.Interface
	hooks     metrics.Hooks
}

type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

type options struct {
	registry       *resource.Registry
	log            logger.Interface
	hooks          metrics.Hooks
	requestTimeout time.Duration
	userAgent      string
}

// WithRegistry replaces the built-in descriptor registry.
func WithRegistry(registry *resource.Registry) Option {
	return optionFunc(func(o *options) {
		o.registry = registry
	})
}

// WithLogger routes client logging to the given logger.
func WithLogger(log logger.Interface) Option {
	return optionFunc(func(o *options) {
		o.log = logger.NewOptionalLogger(log)
	})
}

// WithMetrics routes request and watch observations to the given hooks.
func WithMetrics(hooks metrics.Hooks) Option {
	return optionFunc(func(o *options) {
		o.hooks = hooks
	})
}

// WithRequestTimeout bounds every buffered request. Watches are unaffected.
func WithRequestTimeout(timeout time.Duration) Option {
	return optionFunc(func(o *options) {
		o.requestTimeout = timeout
	})
}

// WithUserAgent overrides the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return optionFunc(func(o *options) {
		o.userAgent = ua
	})
}

const defaultRequestTimeout = 30 * time.Second

// NewFromKubeconfig builds a client from a kubeconfig source.
func NewFromKubeconfig(kubeconfigSource config.KubeconfigSource, opts ...Option) (*Client, error) {
	restConfig, err := config.RestConfig(kubeconfigSource)
	if err != nil {
		return nil, errors.Wrap(err, "while resolving kubeconfig")
	}
	return NewFromRestConfig(restConfig, opts...)
}

// NewInCluster builds a client from the service-account credentials mounted
// into a pod.
func NewInCluster(opts ...Option) (*Client, error) {
	restConfig, err := config.InClusterRestConfig()
	if err != nil {
		return nil, errors.Wrap(err, "while resolving in-cluster config")
	}
	return NewFromRestConfig(restConfig, opts...)
}

// NewFromRestConfig builds a client from an already resolved REST config.
func NewFromRestConfig(restConfig *restclient.Config, opts ...Option) (*Client, error) {
	o := &options{
		registry:       resource.WellKnown(),
		log:            logger.NewOptionalLogger(nil),
		hooks:          metrics.Nop(),
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt.apply(o)
	}

	buffered, err := config.Connect(restConfig, o.requestTimeout)
	if err != nil {
		return nil, err
	}
	streaming, err := config.StreamingConnection(restConfig)
	if err != nil {
		return nil, err
	}

	userAgent := o.userAgent
	if userAgent == "" {
		userAgent = buffered.UserAgent
	}

	transportOpts := []rest.TransportOption{
		rest.WithUserAgent(userAgent),
		rest.WithLogger(o.log),
		rest.WithMetrics(o.hooks),
	}
	return &Client{
		transport: rest.NewTransport(buffered.BaseURL, buffered.Client, transportOpts...),
		streaming: rest.NewTransport(streaming.BaseURL, streaming.Client, transportOpts...),
		registry:  o.registry,
		log:       o.log,
		hooks:     o.hooks,
	}, nil
}

// NewWithTransport builds a client around explicit transports, as used by
// tests and callers with bespoke HTTP stacks.
func NewWithTransport(transport, streaming *rest.Transport, opts ...Option) *Client {
	o := &options{
		registry: resource.WellKnown(),
		log:      logger.NewOptionalLogger(nil),
		hooks:    metrics.Nop(),
	}
	for _, opt := range opts {
		opt.apply(o)
	}
	if streaming == nil {
		streaming = transport
	}
	return &Client{
		transport: transport,
		streaming: streaming,
		registry:  o.registry,
		log:       o.log,
		hooks:     o.hooks,
	}
}

// Registry exposes the descriptors this client dispatches on.
func (c *Client) Registry() *resource.Registry {
	return c.registry
}

type versionInfo struct {
	GitVersion string `json:"gitVersion"`
	Major      string `json:"major"`
	Minor      string `json:"minor"`
	Platform   string `json:"platform"`
}

// ServerVersion fetches and parses the API server's version.
func (c *Client) ServerVersion(ctx context.Context) (semver.Version, error) {
	req := &rest.Request{
		Verb:    rest.VerbGet,
		Method:  http.MethodGet,
		Path:    "/version",
		Headers: http.Header{"Accept": []string{"application/json"}},
	}
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return semver.Version{}, err
	}
	var info versionInfo
	if err := rest.DecodeInto(rest.VerbGet, "/version", resp.Body, &info); err != nil {
		return semver.Version{}, err
	}
	parsed, err := semver.ParseTolerant(strings.TrimPrefix(info.GitVersion, "v"))
	if err != nil {
		return semver.Version{}, errors.Wrapf(err, "while parsing server version %q", info.GitVersion)
	}
	return parsed, nil
}
