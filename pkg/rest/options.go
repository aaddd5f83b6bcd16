// Package rest builds and performs single HTTP requests against a
// Kubernetes API server: path resolution, query assembly, transport and
// response decoding. It knows nothing about typed resources; callers hand
// it descriptors and raw bodies.
package rest

import (
	"net/url"
	"strconv"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/selector"
)

const DefaultNamespaceName = "default"

type namespaceKind int

const (
	namespaceDefault namespaceKind = iota
	namespaceAll
	namespaceNamed
)

// NamespaceSelector determines the namespace path prefix of a request. The
// zero value selects the "default" namespace.
type NamespaceSelector struct {
	kind namespaceKind
	name string
}

func AllNamespaces() NamespaceSelector {
	return NamespaceSelector{kind: namespaceAll}
}

func DefaultNamespace() NamespaceSelector {
	return NamespaceSelector{kind: namespaceDefault}
}

func InNamespace(name string) NamespaceSelector {
	return NamespaceSelector{kind: namespaceNamed, name: name}
}

// All reports whether the selector spans every namespace.
func (n NamespaceSelector) All() bool {
	return n.kind == namespaceAll
}

// Name returns the concrete namespace name. It must not be called for the
// all-namespaces selector.
func (n NamespaceSelector) Name() string {
	if n.kind == namespaceDefault {
		return DefaultNamespaceName
	}
	return n.name
}

// GetOptions are the knobs of single-object reads.
type GetOptions struct {
	Pretty bool
	// ResourceVersion requests a read at least as fresh as the given
	// cursor; empty means a quorum read.
	ResourceVersion string
}

func (o GetOptions) query() url.Values {
	values := url.Values{}
	if o.Pretty {
		values.Set("pretty", "true")
	}
	if o.ResourceVersion != "" {
		values.Set("resourceVersion", o.ResourceVersion)
	}
	return values
}

// ListOptions are the knobs of list and watch operations.
type ListOptions struct {
	LabelSelector []selector.Requirement
	FieldSelector []selector.FieldRequirement
	// ResourceVersion is the opaque server-defined cursor to list or
	// resume from.
	ResourceVersion string
	// Limit enables pagination when positive.
	Limit int64
	// Continue is the continuation token from a previous page.
	Continue string
	// TimeoutSeconds bounds the server-side duration of the call. For
	// watches it is re-applied on every attempt.
	TimeoutSeconds int64
	// AllowWatchBookmarks requests bookmark events; ignored on list.
	AllowWatchBookmarks bool
	Pretty              bool
}

func (o ListOptions) query() (url.Values, error) {
	values := url.Values{}
	if len(o.LabelSelector) > 0 {
		encoded, err := selector.Encode(o.LabelSelector)
		if err != nil {
			return nil, err
		}
		values.Set("labelSelector", encoded)
	}
	if len(o.FieldSelector) > 0 {
		encoded, err := selector.EncodeFields(o.FieldSelector)
		if err != nil {
			return nil, err
		}
		values.Set("fieldSelector", encoded)
	}
	if o.ResourceVersion != "" {
		values.Set("resourceVersion", o.ResourceVersion)
	}
	if o.Limit > 0 {
		values.Set("limit", strconv.FormatInt(o.Limit, 10))
	}
	if o.Continue != "" {
		values.Set("continue", o.Continue)
	}
	if o.TimeoutSeconds > 0 {
		values.Set("timeoutSeconds", strconv.FormatInt(o.TimeoutSeconds, 10))
	}
	if o.Pretty {
		values.Set("pretty", "true")
	}
	return values, nil
}

type PropagationPolicy string

const (
	PropagationOrphan     PropagationPolicy = "Orphan"
	PropagationBackground PropagationPolicy = "Background"
	PropagationForeground PropagationPolicy = "Foreground"
)

// Preconditions must hold for a delete to proceed.
type Preconditions struct {
	UID             string
	ResourceVersion string
}

// DeleteOptions are the knobs of delete and delete-collection operations.
type DeleteOptions struct {
	GracePeriodSeconds *int64
	PropagationPolicy  PropagationPolicy
	Preconditions      *Preconditions
	DryRun             bool
}

// CreateOptions, UpdateOptions and PatchOptions carry the write-verb knobs.
type CreateOptions struct {
	DryRun bool
}

type UpdateOptions struct {
	DryRun bool
}

type PatchOptions struct {
	DryRun bool
}

func dryRunQuery(dryRun bool) url.Values {
	values := url.Values{}
	if dryRun {
		values.Set("dryRun", "All")
	}
	return values
}

// PatchType selects the patch strategy; its value doubles as the request
// Content-Type.
type PatchType string

const (
	JSONPatch           PatchType = "application/json-patch+json"
	MergePatch          PatchType = "application/merge-patch+json"
	StrategicMergePatch PatchType = "application/strategic-merge-patch+json"
	ApplyPatch          PatchType = "application/apply-patch+yaml"
)

// LogOptions are the knobs of the pod log subresource.
type LogOptions struct {
	Container    string
	Follow       bool
	Previous     bool
	SinceSeconds int64
	TailLines    *int64
	Timestamps   bool
}

func (o LogOptions) query() url.Values {
	values := url.Values{}
	if o.Container != "" {
		values.Set("container", o.Container)
	}
	if o.Follow {
		values.Set("follow", "true")
	}
	if o.Previous {
		values.Set("previous", "true")
	}
	if o.SinceSeconds > 0 {
		values.Set("sinceSeconds", strconv.FormatInt(o.SinceSeconds, 10))
	}
	if o.TailLines != nil {
		values.Set("tailLines", strconv.FormatInt(*o.TailLines, 10))
	}
	if o.Timestamps {
		values.Set("timestamps", "true")
	}
	return values
}
