package rest

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/apierrors"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/resource"
)

// Verb names the client-level operation a request performs. It is carried
// through to errors and metrics, independent of the HTTP method.
type Verb string

const (
	VerbGet              Verb = "get"
	VerbList             Verb = "list"
	VerbWatch            Verb = "watch"
	VerbCreate           Verb = "create"
	VerbUpdate           Verb = "update"
	VerbPatch            Verb = "patch"
	VerbDelete           Verb = "delete"
	VerbDeleteCollection Verb = "deletecollection"
)

const (
	contentTypeJSON  = "application/json"
	acceptWatchJSON  = "application/json;stream=watch, application/json"
	headerAccept     = "Accept"
	headerContentType = "Content-Type"
)

// Request is a fully resolved single HTTP exchange, ready for the transport.
// Builders below are the only way to obtain one.
type Request struct {
	Verb    Verb
	Method  string
	Path    string
	Query   url.Values
	Headers http.Header
	Body    []byte
}

// URL joins the request path and encoded query.
func (r *Request) URL() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

func newRequest(verb Verb, method, path string, query url.Values) *Request {
	headers := http.Header{}
	headers.Set(headerAccept, contentTypeJSON)
	return &Request{Verb: verb, Method: method, Path: path, Query: query, Headers: headers}
}

func requireName(d resource.Descriptor, verb Verb, name string) error {
	if name == "" {
		return apierrors.NewInvalidRequest("resource %s: %s requires an object name", d, verb)
	}
	return nil
}

// requireConcreteNamespace rejects the all-namespaces selector for verbs that
// address a single collection or object.
func requireConcreteNamespace(d resource.Descriptor, verb Verb, ns NamespaceSelector) error {
	if d.Namespaced() && ns.All() {
		return apierrors.NewInvalidRequest("resource %s: %s cannot span all namespaces", d, verb)
	}
	return nil
}

// NewGet builds a single-object read.
func NewGet(d resource.Descriptor, ns NamespaceSelector, name string, opts GetOptions) (*Request, error) {
	if err := requireName(d, VerbGet, name); err != nil {
		return nil, err
	}
	if err := requireConcreteNamespace(d, VerbGet, ns); err != nil {
		return nil, err
	}
	path, err := ResolvePath(d, ns, name, "")
	if err != nil {
		return nil, err
	}
	return newRequest(VerbGet, http.MethodGet, path, opts.query()), nil
}

// NewList builds a collection read. The all-namespaces selector is allowed
// for namespaced resources and lists across every namespace.
func NewList(d resource.Descriptor, ns NamespaceSelector, opts ListOptions) (*Request, error) {
	path, err := ResolvePath(d, ns, "", "")
	if err != nil {
		return nil, err
	}
	query, err := opts.query()
	if err != nil {
		return nil, err
	}
	return newRequest(VerbList, http.MethodGet, path, query), nil
}

// NewWatch builds a single watch connection attempt. ResourceVersion in opts
// is the resume cursor; AllowWatchBookmarks requests bookmark events.
func NewWatch(d resource.Descriptor, ns NamespaceSelector, opts ListOptions) (*Request, error) {
	path, err := ResolvePath(d, ns, "", "")
	if err != nil {
		return nil, err
	}
	query, err := opts.query()
	if err != nil {
		return nil, err
	}
	query.Set("watch", "true")
	if opts.AllowWatchBookmarks {
		query.Set("allowWatchBookmarks", "true")
	}
	req := newRequest(VerbWatch, http.MethodGet, path, query)
	req.Headers.Set(headerAccept, acceptWatchJSON)
	return req, nil
}

// NewCreate builds an object creation from an encoded body.
func NewCreate(d resource.Descriptor, ns NamespaceSelector, body []byte, opts CreateOptions) (*Request, error) {
	if err := requireConcreteNamespace(d, VerbCreate, ns); err != nil {
		return nil, err
	}
	path, err := ResolvePath(d, ns, "", "")
	if err != nil {
		return nil, err
	}
	req := newRequest(VerbCreate, http.MethodPost, path, dryRunQuery(opts.DryRun))
	req.Headers.Set(headerContentType, contentTypeJSON)
	req.Body = body
	return req, nil
}

// NewUpdate builds a full-object replacement.
func NewUpdate(d resource.Descriptor, ns NamespaceSelector, name string, body []byte, opts UpdateOptions) (*Request, error) {
	if err := requireName(d, VerbUpdate, name); err != nil {
		return nil, err
	}
	if err := requireConcreteNamespace(d, VerbUpdate, ns); err != nil {
		return nil, err
	}
	path, err := ResolvePath(d, ns, name, "")
	if err != nil {
		return nil, err
	}
	req := newRequest(VerbUpdate, http.MethodPut, path, dryRunQuery(opts.DryRun))
	req.Headers.Set(headerContentType, contentTypeJSON)
	req.Body = body
	return req, nil
}

// NewPatch builds a partial update; the patch type doubles as Content-Type.
func NewPatch(d resource.Descriptor, ns NamespaceSelector, name string, pt PatchType, patch []byte, opts PatchOptions) (*Request, error) {
	if err := requireName(d, VerbPatch, name); err != nil {
		return nil, err
	}
	if err := requireConcreteNamespace(d, VerbPatch, ns); err != nil {
		return nil, err
	}
	path, err := ResolvePath(d, ns, name, "")
	if err != nil {
		return nil, err
	}
	req := newRequest(VerbPatch, http.MethodPatch, path, dryRunQuery(opts.DryRun))
	req.Headers.Set(headerContentType, string(pt))
	req.Body = patch
	return req, nil
}

func deleteBody(opts DeleteOptions) ([]byte, error) {
	wire := metav1.DeleteOptions{
		TypeMeta:           metav1.TypeMeta{APIVersion: "v1", Kind: "DeleteOptions"},
		GracePeriodSeconds: opts.GracePeriodSeconds,
	}
	if opts.PropagationPolicy != "" {
		policy := metav1.DeletionPropagation(opts.PropagationPolicy)
		wire.PropagationPolicy = &policy
	}
	if opts.Preconditions != nil {
		wire.Preconditions = &metav1.Preconditions{}
		if opts.Preconditions.UID != "" {
			uid := types.UID(opts.Preconditions.UID)
			wire.Preconditions.UID = &uid
		}
		if opts.Preconditions.ResourceVersion != "" {
			rv := opts.Preconditions.ResourceVersion
			wire.Preconditions.ResourceVersion = &rv
		}
	}
	if opts.DryRun {
		wire.DryRun = []string{"All"}
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, errors.Wrap(err, "while encoding delete options")
	}
	return body, nil
}

// NewDelete builds a single-object deletion. Grace period, propagation
// policy and preconditions travel in the request body.
func NewDelete(d resource.Descriptor, ns NamespaceSelector, name string, opts DeleteOptions) (*Request, error) {
	if err := requireName(d, VerbDelete, name); err != nil {
		return nil, err
	}
	if err := requireConcreteNamespace(d, VerbDelete, ns); err != nil {
		return nil, err
	}
	path, err := ResolvePath(d, ns, name, "")
	if err != nil {
		return nil, err
	}
	body, err := deleteBody(opts)
	if err != nil {
		return nil, err
	}
	req := newRequest(VerbDelete, http.MethodDelete, path, url.Values{})
	req.Headers.Set(headerContentType, contentTypeJSON)
	req.Body = body
	return req, nil
}

// NewDeleteCollection builds a filtered collection deletion. List options
// select the victims; delete options travel in the body.
func NewDeleteCollection(d resource.Descriptor, ns NamespaceSelector, listOpts ListOptions, opts DeleteOptions) (*Request, error) {
	if err := requireConcreteNamespace(d, VerbDeleteCollection, ns); err != nil {
		return nil, err
	}
	path, err := ResolvePath(d, ns, "", "")
	if err != nil {
		return nil, err
	}
	query, err := listOpts.query()
	if err != nil {
		return nil, err
	}
	body, err := deleteBody(opts)
	if err != nil {
		return nil, err
	}
	req := newRequest(VerbDeleteCollection, http.MethodDelete, path, query)
	req.Headers.Set(headerContentType, contentTypeJSON)
	req.Body = body
	return req, nil
}

// NewSubresourceGet builds a read of a named subresource such as status or
// scale.
func NewSubresourceGet(d resource.Descriptor, ns NamespaceSelector, name, subresource string) (*Request, error) {
	if err := requireName(d, VerbGet, name); err != nil {
		return nil, err
	}
	if err := requireConcreteNamespace(d, VerbGet, ns); err != nil {
		return nil, err
	}
	path, err := ResolvePath(d, ns, name, subresource)
	if err != nil {
		return nil, err
	}
	return newRequest(VerbGet, http.MethodGet, path, url.Values{}), nil
}

// NewSubresourceUpdate builds a replacement of a named subresource.
func NewSubresourceUpdate(d resource.Descriptor, ns NamespaceSelector, name, subresource string, body []byte, opts UpdateOptions) (*Request, error) {
	if err := requireName(d, VerbUpdate, name); err != nil {
		return nil, err
	}
	if err := requireConcreteNamespace(d, VerbUpdate, ns); err != nil {
		return nil, err
	}
	path, err := ResolvePath(d, ns, name, subresource)
	if err != nil {
		return nil, err
	}
	req := newRequest(VerbUpdate, http.MethodPut, path, dryRunQuery(opts.DryRun))
	req.Headers.Set(headerContentType, contentTypeJSON)
	req.Body = body
	return req, nil
}

// NewSubresourcePost builds a creation against a named subresource, as used
// by pod eviction.
func NewSubresourcePost(d resource.Descriptor, ns NamespaceSelector, name, subresource string, body []byte) (*Request, error) {
	if err := requireName(d, VerbCreate, name); err != nil {
		return nil, err
	}
	if err := requireConcreteNamespace(d, VerbCreate, ns); err != nil {
		return nil, err
	}
	path, err := ResolvePath(d, ns, name, subresource)
	if err != nil {
		return nil, err
	}
	req := newRequest(VerbCreate, http.MethodPost, path, url.Values{})
	req.Headers.Set(headerContentType, contentTypeJSON)
	req.Body = body
	return req, nil
}

// NewLogs builds a pod log read. With opts.Follow set the response is an
// unbounded stream.
func NewLogs(d resource.Descriptor, ns NamespaceSelector, name string, opts LogOptions) (*Request, error) {
	if err := requireName(d, VerbGet, name); err != nil {
		return nil, err
	}
	if err := requireConcreteNamespace(d, VerbGet, ns); err != nil {
		return nil, err
	}
	path, err := ResolvePath(d, ns, name, resource.SubresourceLog)
	if err != nil {
		return nil, err
	}
	req := newRequest(VerbGet, http.MethodGet, path, opts.query())
	req.Headers.Set(headerAccept, "text/plain")
	return req, nil
}
