package client

import (
	"context"
	"encoding/json"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/apierrors"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/resource"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/rest"
)

// ResourceOrStatus is the result of a delete: the server either returns the
// deleted object or a bare status acknowledgement. Exactly one field is set.
type ResourceOrStatus[T any] struct {
	Resource *T
	Status   *metav1.Status
}

// handle carries the state shared by both resource flavours.
type handle[T any] struct {
	client     *Client
	descriptor resource.Descriptor
}

// NamespacedResource is a typed handle on one namespace-scoped resource
// kind. Its verbs are gated by the descriptor's capabilities; dispatching an
// unsupported verb fails before any request is sent.
type NamespacedResource[T any] struct {
	handle[T]
}

// ClusterResource is a typed handle on one cluster-scoped resource kind.
type ClusterResource[T any] struct {
	handle[T]
}

// NewNamespacedResource builds a handle for a namespace-scoped descriptor.
func NewNamespacedResource[T any](c *Client, d resource.Descriptor) (*NamespacedResource[T], error) {
	if !d.Namespaced() {
		return nil, apierrors.NewInvalidRequest("resource %s is cluster scoped, use a cluster handle", d)
	}
	return &NamespacedResource[T]{handle[T]{client: c, descriptor: d}}, nil
}

// NewClusterResource builds a handle for a cluster-scoped descriptor.
func NewClusterResource[T any](c *Client, d resource.Descriptor) (*ClusterResource[T], error) {
	if d.Namespaced() {
		return nil, apierrors.NewInvalidRequest("resource %s is namespace scoped, use a namespaced handle", d)
	}
	return &ClusterResource[T]{handle[T]{client: c, descriptor: d}}, nil
}

func (h handle[T]) require(capability resource.Capabilities, verb rest.Verb) error {
	if !h.descriptor.Capabilities.Has(capability) {
		return apierrors.NewUnsupportedOperation(string(verb), h.descriptor.String())
	}
	return nil
}

func (h handle[T]) encode(obj *T) ([]byte, error) {
	body, err := json.Marshal(obj)
	if err != nil {
		return nil, apierrors.NewInvalidRequest("encoding %s body: %v", h.descriptor, err)
	}
	return body, nil
}

type namedObject struct {
	Metadata struct {
		Name string `json:"name"`
	} `json:"metadata"`
}

// nameOf extracts the object name from an encoded body, as update addresses
// objects by the name carried in their metadata.
func (h handle[T]) nameOf(body []byte) (string, error) {
	var named namedObject
	if err := json.Unmarshal(body, &named); err != nil || named.Metadata.Name == "" {
		return "", apierrors.NewInvalidRequest("resource %s: object metadata carries no name", h.descriptor)
	}
	return named.Metadata.Name, nil
}

func (h handle[T]) get(ctx context.Context, ns rest.NamespaceSelector, name string, opts rest.GetOptions) (*T, error) {
	if err := h.require(resource.Readable, rest.VerbGet); err != nil {
		return nil, err
	}
	req, err := rest.NewGet(h.descriptor, ns, name, opts)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := rest.DecodeInto(req.Verb, req.Path, resp.Body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h handle[T]) list(ctx context.Context, ns rest.NamespaceSelector, opts rest.ListOptions) (*resource.List[T], error) {
	if err := h.require(resource.Listable, rest.VerbList); err != nil {
		return nil, err
	}
	req, err := rest.NewList(h.descriptor, ns, opts)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	out := &resource.List[T]{}
	if err := rest.DecodeInto(req.Verb, req.Path, resp.Body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h handle[T]) create(ctx context.Context, ns rest.NamespaceSelector, obj *T, opts rest.CreateOptions) (*T, error) {
	if err := h.require(resource.Creatable, rest.VerbCreate); err != nil {
		return nil, err
	}
	body, err := h.encode(obj)
	if err != nil {
		return nil, err
	}
	req, err := rest.NewCreate(h.descriptor, ns, body, opts)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := rest.DecodeInto(req.Verb, req.Path, resp.Body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h handle[T]) update(ctx context.Context, ns rest.NamespaceSelector, obj *T, opts rest.UpdateOptions) (*T, error) {
	if err := h.require(resource.Replaceable, rest.VerbUpdate); err != nil {
		return nil, err
	}
	body, err := h.encode(obj)
	if err != nil {
		return nil, err
	}
	name, err := h.nameOf(body)
	if err != nil {
		return nil, err
	}
	req, err := rest.NewUpdate(h.descriptor, ns, name, body, opts)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := rest.DecodeInto(req.Verb, req.Path, resp.Body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h handle[T]) patch(ctx context.Context, ns rest.NamespaceSelector, name string, pt rest.PatchType, patch []byte, opts rest.PatchOptions) (*T, error) {
	if err := h.require(resource.Patchable, rest.VerbPatch); err != nil {
		return nil, err
	}
	req, err := rest.NewPatch(h.descriptor, ns, name, pt, patch, opts)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := rest.DecodeInto(req.Verb, req.Path, resp.Body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h handle[T]) delete(ctx context.Context, ns rest.NamespaceSelector, name string, opts rest.DeleteOptions) (ResourceOrStatus[T], error) {
	if err := h.require(resource.Deletable, rest.VerbDelete); err != nil {
		return ResourceOrStatus[T]{}, err
	}
	req, err := rest.NewDelete(h.descriptor, ns, name, opts)
	if err != nil {
		return ResourceOrStatus[T]{}, err
	}
	resp, err := h.client.transport.Do(ctx, req)
	if err != nil {
		return ResourceOrStatus[T]{}, err
	}
	out := new(T)
	status, err := rest.DecodeStatus(req.Verb, req.Path, resp.Body, out)
	if err != nil {
		return ResourceOrStatus[T]{}, err
	}
	if status != nil {
		return ResourceOrStatus[T]{Status: status}, nil
	}
	return ResourceOrStatus[T]{Resource: out}, nil
}

func (h handle[T]) deleteAll(ctx context.Context, ns rest.NamespaceSelector, listOpts rest.ListOptions, opts rest.DeleteOptions) (*metav1.Status, error) {
	if err := h.require(resource.CollectionDeletable, rest.VerbDeleteCollection); err != nil {
		return nil, err
	}
	req, err := rest.NewDeleteCollection(h.descriptor, ns, listOpts, opts)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	status, err := rest.DecodeStatus(req.Verb, req.Path, resp.Body, nil)
	if err != nil {
		return nil, err
	}
	if status == nil {
		status = &metav1.Status{Status: metav1.StatusSuccess}
	}
	return status, nil
}

// Namespaced flavour: every verb takes the namespace selector first.

func (r *NamespacedResource[T]) Get(ctx context.Context, ns rest.NamespaceSelector, name string, opts rest.GetOptions) (*T, error) {
	return r.get(ctx, ns, name, opts)
}

func (r *NamespacedResource[T]) List(ctx context.Context, ns rest.NamespaceSelector, opts rest.ListOptions) (*resource.List[T], error) {
	return r.list(ctx, ns, opts)
}

func (r *NamespacedResource[T]) Create(ctx context.Context, ns rest.NamespaceSelector, obj *T, opts rest.CreateOptions) (*T, error) {
	return r.create(ctx, ns, obj, opts)
}

func (r *NamespacedResource[T]) Update(ctx context.Context, ns rest.NamespaceSelector, obj *T, opts rest.UpdateOptions) (*T, error) {
	return r.update(ctx, ns, obj, opts)
}

func (r *NamespacedResource[T]) Patch(ctx context.Context, ns rest.NamespaceSelector, name string, pt rest.PatchType, patch []byte, opts rest.PatchOptions) (*T, error) {
	return r.patch(ctx, ns, name, pt, patch, opts)
}

func (r *NamespacedResource[T]) Delete(ctx context.Context, ns rest.NamespaceSelector, name string, opts rest.DeleteOptions) (ResourceOrStatus[T], error) {
	return r.delete(ctx, ns, name, opts)
}

func (r *NamespacedResource[T]) DeleteAll(ctx context.Context, ns rest.NamespaceSelector, listOpts rest.ListOptions, opts rest.DeleteOptions) (*metav1.Status, error) {
	return r.deleteAll(ctx, ns, listOpts, opts)
}

// Cluster flavour: verbs address the cluster-wide collection directly.

func (r *ClusterResource[T]) Get(ctx context.Context, name string, opts rest.GetOptions) (*T, error) {
	return r.get(ctx, rest.DefaultNamespace(), name, opts)
}

func (r *ClusterResource[T]) List(ctx context.Context, opts rest.ListOptions) (*resource.List[T], error) {
	return r.list(ctx, rest.DefaultNamespace(), opts)
}

func (r *ClusterResource[T]) Create(ctx context.Context, obj *T, opts rest.CreateOptions) (*T, error) {
	return r.create(ctx, rest.DefaultNamespace(), obj, opts)
}

func (r *ClusterResource[T]) Update(ctx context.Context, obj *T, opts rest.UpdateOptions) (*T, error) {
	return r.update(ctx, rest.DefaultNamespace(), obj, opts)
}

func (r *ClusterResource[T]) Patch(ctx context.Context, name string, pt rest.PatchType, patch []byte, opts rest.PatchOptions) (*T, error) {
	return r.patch(ctx, rest.DefaultNamespace(), name, pt, patch, opts)
}

func (r *ClusterResource[T]) Delete(ctx context.Context, name string, opts rest.DeleteOptions) (ResourceOrStatus[T], error) {
	return r.delete(ctx, rest.DefaultNamespace(), name, opts)
}

func (r *ClusterResource[T]) DeleteAll(ctx context.Context, listOpts rest.ListOptions, opts rest.DeleteOptions) (*metav1.Status, error) {
	return r.deleteAll(ctx, rest.DefaultNamespace(), listOpts, opts)
}
