package client

import (
	"context"
	"encoding/json"
	"io"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	policyv1 "k8s.io/api/policy/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/apierrors"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/resource"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/rest"
)

// PodClient is the pod handle plus the pod-only subresources: logs and
// eviction.
type PodClient struct {
	*NamespacedResource[corev1.Pod]
}

// Pods returns the typed pod handle.
func Pods(c *Client) *PodClient {
	r, _ := NewNamespacedResource[corev1.Pod](c, resource.Pods())
	return &PodClient{r}
}

// StreamLog opens the pod's log stream. With opts.Follow set the stream
// stays open until cancelled; the caller owns the ReadCloser either way.
func (p *PodClient) StreamLog(ctx context.Context, ns rest.NamespaceSelector, name string, opts rest.LogOptions) (io.ReadCloser, error) {
	if err := p.require(resource.Loggable, rest.VerbGet); err != nil {
		return nil, err
	}
	req, err := rest.NewLogs(p.descriptor, ns, name, opts)
	if err != nil {
		return nil, err
	}
	return p.client.streaming.Stream(ctx, req)
}

// GetLog buffers the pod's log into a string. opts.Follow is ignored here;
// use StreamLog to follow.
func (p *PodClient) GetLog(ctx context.Context, ns rest.NamespaceSelector, name string, opts rest.LogOptions) (string, error) {
	opts.Follow = false
	stream, err := p.StreamLog(ctx, ns, name, opts)
	if err != nil {
		return "", err
	}
	defer stream.Close()
	content, err := io.ReadAll(stream)
	if err != nil {
		if ctx.Err() != nil {
			return "", apierrors.NewCancelled(string(rest.VerbGet), p.descriptor.String(), ctx.Err())
		}
		return "", apierrors.NewTransportError(string(rest.VerbGet), p.descriptor.String(), err)
	}
	return string(content), nil
}

// Evict asks the API server to evict the pod, honouring pod disruption
// budgets. deleteOpts may carry grace period and preconditions.
func (p *PodClient) Evict(ctx context.Context, ns rest.NamespaceSelector, name string, deleteOpts *rest.DeleteOptions) (*metav1.Status, error) {
	if err := p.require(resource.Evictable, rest.VerbCreate); err != nil {
		return nil, err
	}
	eviction := policyv1.Eviction{
		TypeMeta: metav1.TypeMeta{APIVersion: "policy/v1", Kind: "Eviction"},
		ObjectMeta: metav1.ObjectMeta{
			Name: name,
		},
	}
	if !ns.All() {
		eviction.ObjectMeta.Namespace = ns.Name()
	}
	if deleteOpts != nil {
		wire := metav1.DeleteOptions{GracePeriodSeconds: deleteOpts.GracePeriodSeconds}
		if deleteOpts.PropagationPolicy != "" {
			policy := metav1.DeletionPropagation(deleteOpts.PropagationPolicy)
			wire.PropagationPolicy = &policy
		}
		if deleteOpts.Preconditions != nil {
			wire.Preconditions = &metav1.Preconditions{}
			if deleteOpts.Preconditions.UID != "" {
				uid := types.UID(deleteOpts.Preconditions.UID)
				wire.Preconditions.UID = &uid
			}
			if deleteOpts.Preconditions.ResourceVersion != "" {
				rv := deleteOpts.Preconditions.ResourceVersion
				wire.Preconditions.ResourceVersion = &rv
			}
		}
		eviction.DeleteOptions = &wire
	}
	body, err := json.Marshal(eviction)
	if err != nil {
		return nil, apierrors.NewInvalidRequest("encoding eviction body: %v", err)
	}
	req, err := rest.NewSubresourcePost(p.descriptor, ns, name, resource.SubresourceEviction, body)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.transport.Do(ctx, req)
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

// DeploymentClient is the deployment handle plus the rollout-restart
// extension.
type DeploymentClient struct {
	*NamespacedResource[appsv1.Deployment]
}

// Deployments returns the typed deployment handle.
func Deployments(c *Client) *DeploymentClient {
	r, _ := NewNamespacedResource[appsv1.Deployment](c, resource.Deployments())
	return &DeploymentClient{r}
}

const restartedAtAnnotation = "kubectl.kubernetes.io/restartedAt"

// Restart triggers a rolling restart by stamping the pod template with a
// restart annotation, the same mechanism kubectl rollout restart uses.
func (d *DeploymentClient) Restart(ctx context.Context, ns rest.NamespaceSelector, name string) (*appsv1.Deployment, error) {
	patch := map[string]interface{}{
		"spec": map[string]interface{}{
			"template": map[string]interface{}{
				"metadata": map[string]interface{}{
					"annotations": map[string]string{
						restartedAtAnnotation: time.Now().UTC().Format(time.RFC3339),
					},
				},
			},
		},
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return nil, apierrors.NewInvalidRequest("encoding restart patch: %v", err)
	}
	return d.Patch(ctx, ns, name, rest.StrategicMergePatch, body, rest.PatchOptions{})
}

// Typed handles for the remaining well-known resources.

func NamespacesClient(c *Client) *ClusterResource[corev1.Namespace] {
	r, _ := NewClusterResource[corev1.Namespace](c, resource.Namespaces())
	return r
}

func NodesClient(c *Client) *ClusterResource[corev1.Node] {
	r, _ := NewClusterResource[corev1.Node](c, resource.Nodes())
	return r
}

func ServicesClient(c *Client) *NamespacedResource[corev1.Service] {
	r, _ := NewNamespacedResource[corev1.Service](c, resource.Services())
	return r
}

func ConfigMapsClient(c *Client) *NamespacedResource[corev1.ConfigMap] {
	r, _ := NewNamespacedResource[corev1.ConfigMap](c, resource.ConfigMaps())
	return r
}

func SecretsClient(c *Client) *NamespacedResource[corev1.Secret] {
	r, _ := NewNamespacedResource[corev1.Secret](c, resource.Secrets())
	return r
}
