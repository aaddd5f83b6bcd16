package rest

import (
	"strings"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/apierrors"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/resource"
)

// ResolvePath builds the URL path for a request against the given
// descriptor. name and subresource are optional; an empty string means the
// request targets a collection. The returned path never carries a trailing
// slash and never contains an empty segment.
func ResolvePath(d resource.Descriptor, ns NamespaceSelector, name, subresource string) (string, error) {
	segments := make([]string, 0, 8)
	if d.Group == "" {
		segments = append(segments, "api", d.Version)
	} else {
		segments = append(segments, "apis", d.Group, d.Version)
	}

	switch {
	case d.Scope == resource.ClusterScoped:
		segments = append(segments, d.Plural)
	case ns.All():
		if name != "" {
			return "", apierrors.NewInvalidRequest("resource %s: named reads across all namespaces are not expressible", d)
		}
		segments = append(segments, d.Plural)
	default:
		if ns.Name() == "" {
			return "", apierrors.NewInvalidRequest("resource %s: namespace name must not be empty", d)
		}
		segments = append(segments, "namespaces", ns.Name(), d.Plural)
	}

	if name != "" {
		segments = append(segments, name)
	}

	if subresource != "" {
		if name == "" {
			return "", apierrors.NewInvalidRequest("resource %s: subresource %q requires an object name", d, subresource)
		}
		suffix, ok := d.SubresourcePath(subresource)
		if !ok {
			return "", apierrors.NewInvalidRequest("resource %s does not expose subresource %q", d, subresource)
		}
		segments = append(segments, suffix)
	}

	for _, s := range segments {
		if s == "" {
			return "", apierrors.NewInvalidRequest("resource %s resolves to a path with an empty segment", d)
		}
	}
	return "/" + strings.Join(segments, "/"), nil
}
