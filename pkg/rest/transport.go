package rest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/apierrors"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/logger"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/metrics"
)

// maxErrorBodyBytes bounds how much of an error response body is read for
// diagnostics.
const maxErrorBodyBytes = 64 * 1024

// Transport performs Requests against one API server. It owns the base URL,
// the underlying HTTP client and the observation hooks; it holds no
// per-resource state and is safe for concurrent use.
type Transport struct {
	baseURL   *url.URL
	client    *http.Client
	userAgent string
	log       logger.Interface
	hooks     metrics.Hooks
}

type TransportOption interface {
	apply(*Transport)
}

type transportOptionFunc func(*Transport)

func (f transportOptionFunc) apply(t *Transport) {
	f(t)
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) TransportOption {
	return transportOptionFunc(func(t *Transport) {
		t.userAgent = ua
	})
}

// WithLogger routes request logging to the given logger.
func WithLogger(log logger.Interface) TransportOption {
	return transportOptionFunc(func(t *Transport) {
		t.log = logger.NewOptionalLogger(log)
	})
}

// WithMetrics routes request and watch observations to the given hooks.
func WithMetrics(hooks metrics.Hooks) TransportOption {
	return transportOptionFunc(func(t *Transport) {
		t.hooks = hooks
	})
}

// NewTransport builds a transport for the API server at baseURL. client may
// carry authentication and TLS configuration; a nil client falls back to
// http.DefaultClient.
func NewTransport(baseURL *url.URL, client *http.Client, opts ...TransportOption) *Transport {
	if client == nil {
		client = http.DefaultClient
	}
	t := &Transport{
		baseURL: baseURL,
		client:  client,
		log:     logger.NewOptionalLogger(nil),
		hooks:   metrics.Nop(),
	}
	for _, opt := range opts {
		opt.apply(t)
	}
	return t
}

// Response is a fully buffered HTTP response with a success status.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (t *Transport) httpRequest(ctx context.Context, req *Request) (*http.Request, error) {
	target := *t.baseURL
	target.Path = strings.TrimSuffix(target.Path, "/") + req.Path
	target.RawQuery = req.Query.Encode()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, apierrors.NewInvalidRequest("building %s request for %s: %v", req.Verb, req.Path, err)
	}
	for key, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	if t.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}
	return httpReq, nil
}

func (t *Transport) roundTrip(ctx context.Context, req *Request) (*http.Response, error) {
	httpReq, err := t.httpRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.hooks.ObserveRequest(string(req.Verb), req.Path, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, apierrors.NewCancelled(string(req.Verb), req.Path, ctx.Err())
		}
		return nil, apierrors.NewTransportError(string(req.Verb), req.Path, err)
	}
	t.hooks.ObserveRequest(string(req.Verb), req.Path, resp.StatusCode, time.Since(start))
	t.log.Infof("%s %s -> %d", req.Method, req.Path, resp.StatusCode)
	return resp, nil
}

func responseError(req *Request, resp *http.Response) error {
	defer resp.Body.Close()
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return apierrors.FromResponse(string(req.Verb), req.Path, resp.StatusCode, resp.Header, payload)
}

// Do performs the request and buffers the response body. A non-2xx status
// is classified into an API error and never returned as a Response.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := t.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(req, resp)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apierrors.NewCancelled(string(req.Verb), req.Path, ctx.Err())
		}
		return nil, apierrors.NewTransportError(string(req.Verb), req.Path, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// Stream performs the request and hands the caller the live response body,
// as needed by watches and followed logs. The caller owns the ReadCloser.
func (t *Transport) Stream(ctx context.Context, req *Request) (io.ReadCloser, error) {
	resp, err := t.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(req, resp)
	}
	return resp.Body, nil
}
