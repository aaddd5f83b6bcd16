package client

import (
	"context"
	"encoding/json"

	autoscalingv1 "k8s.io/api/autoscaling/v1"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/apierrors"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/resource"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/rest"
)

func (h handle[T]) getStatus(ctx context.Context, ns rest.NamespaceSelector, name string) (*T, error) {
	if err := h.require(resource.StatusHaving, rest.VerbGet); err != nil {
		return nil, err
	}
	req, err := rest.NewSubresourceGet(h.descriptor, ns, name, resource.SubresourceStatus)
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

// updateStatus replaces the status subresource with the one carried by obj.
// The server ignores spec changes on this path.
func (h handle[T]) updateStatus(ctx context.Context, ns rest.NamespaceSelector, obj *T, opts rest.UpdateOptions) (*T, error) {
	if err := h.require(resource.StatusHaving, rest.VerbUpdate); err != nil {
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
	req, err := rest.NewSubresourceUpdate(h.descriptor, ns, name, resource.SubresourceStatus, body, opts)
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

func (h handle[T]) getScale(ctx context.Context, ns rest.NamespaceSelector, name string) (*autoscalingv1.Scale, error) {
	if err := h.require(resource.Scalable, rest.VerbGet); err != nil {
		return nil, err
	}
	req, err := rest.NewSubresourceGet(h.descriptor, ns, name, resource.SubresourceScale)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	scale := &autoscalingv1.Scale{}
	if err := rest.DecodeInto(req.Verb, req.Path, resp.Body, scale); err != nil {
		return nil, err
	}
	return scale, nil
}

func (h handle[T]) updateScale(ctx context.Context, ns rest.NamespaceSelector, name string, scale *autoscalingv1.Scale, opts rest.UpdateOptions) (*autoscalingv1.Scale, error) {
	if err := h.require(resource.Scalable, rest.VerbUpdate); err != nil {
		return nil, err
	}
	body, err := json.Marshal(scale)
	if err != nil {
		return nil, apierrors.NewInvalidRequest("encoding %s scale body: %v", h.descriptor, err)
	}
	req, err := rest.NewSubresourceUpdate(h.descriptor, ns, name, resource.SubresourceScale, body, opts)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	out := &autoscalingv1.Scale{}
	if err := rest.DecodeInto(req.Verb, req.Path, resp.Body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *NamespacedResource[T]) GetStatus(ctx context.Context, ns rest.NamespaceSelector, name string) (*T, error) {
	return r.getStatus(ctx, ns, name)
}

func (r *NamespacedResource[T]) UpdateStatus(ctx context.Context, ns rest.NamespaceSelector, obj *T, opts rest.UpdateOptions) (*T, error) {
	return r.updateStatus(ctx, ns, obj, opts)
}

func (r *NamespacedResource[T]) GetScale(ctx context.Context, ns rest.NamespaceSelector, name string) (*autoscalingv1.Scale, error) {
	return r.getScale(ctx, ns, name)
}

func (r *NamespacedResource[T]) UpdateScale(ctx context.Context, ns rest.NamespaceSelector, name string, scale *autoscalingv1.Scale, opts rest.UpdateOptions) (*autoscalingv1.Scale, error) {
	return r.updateScale(ctx, ns, name, scale, opts)
}

func (r *ClusterResource[T]) GetStatus(ctx context.Context, name string) (*T, error) {
	return r.getStatus(ctx, rest.DefaultNamespace(), name)
}

func (r *ClusterResource[T]) UpdateStatus(ctx context.Context, obj *T, opts rest.UpdateOptions) (*T, error) {
	return r.updateStatus(ctx, rest.DefaultNamespace(), obj, opts)
}
