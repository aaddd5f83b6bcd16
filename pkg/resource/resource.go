// Package resource holds the static metadata describing Kubernetes API
// resources: group/version coordinates, scope, supported verbs and
// subresources. Descriptors are registered once at startup and treated as
// immutable afterwards.
package resource

import (
	"fmt"
	"sort"
	"strings"
)

type Scope string

const (
	ClusterScoped   Scope = "Cluster"
	NamespaceScoped Scope = "Namespaced"
)

// Capabilities is a bit set of the verbs a resource supports.
type Capabilities uint32

const (
	Readable Capabilities = 1 << iota
	Listable
	Creatable
	Replaceable
	Patchable
	Deletable
	CollectionDeletable
	StatusHaving
	Scalable
	Watchable
	Loggable
	Evictable
)

var capabilityNames = map[Capabilities]string{
	Readable:            "Readable",
	Listable:            "Listable",
	Creatable:           "Creatable",
	Replaceable:         "Replaceable",
	Patchable:           "Patchable",
	Deletable:           "Deletable",
	CollectionDeletable: "CollectionDeletable",
	StatusHaving:        "StatusHaving",
	Scalable:            "Scalable",
	Watchable:           "Watchable",
	Loggable:            "Loggable",
	Evictable:           "Evictable",
}

func (c Capabilities) Has(want Capabilities) bool {
	return c&want == want
}

func (c Capabilities) String() string {
	var names []string
	for cap, name := range capabilityNames {
		if c.Has(cap) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

// capabilitySubresources maps capabilities that imply a subresource to the
// subresource name that must be registered alongside them.
var capabilitySubresources = map[Capabilities]string{
	StatusHaving: "status",
	Scalable:     "scale",
	Loggable:     "log",
	Evictable:    "eviction",
}

// Descriptor describes one kind/version of a Kubernetes resource.
type Descriptor struct {
	Group        string            `json:"group"`
	Version      string            `json:"version"`
	Plural       string            `json:"plural"`
	Singular     string            `json:"singular,omitempty"`
	Kind         string            `json:"kind"`
	Scope        Scope             `json:"scope"`
	Capabilities Capabilities      `json:"-"`
	Subresources map[string]string `json:"subresources,omitempty"`
}

// GroupVersion returns the apiVersion form of the descriptor coordinates,
// i.e. "v1" for the core group and "apps/v1" for named groups.
func (d Descriptor) GroupVersion() string {
	if d.Group == "" {
		return d.Version
	}
	return d.Group + "/" + d.Version
}

func (d Descriptor) Namespaced() bool {
	return d.Scope == NamespaceScoped
}

// SubresourcePath returns the path suffix registered for the given
// subresource name.
func (d Descriptor) SubresourcePath(name string) (string, bool) {
	suffix, ok := d.Subresources[name]
	return suffix, ok
}

func (d Descriptor) String() string {
	if d.Group == "" {
		return fmt.Sprintf("%s.%s", d.Plural, d.Version)
	}
	return fmt.Sprintf("%s.%s.%s", d.Plural, d.Version, d.Group)
}

// Validate checks internal consistency of the descriptor. Capabilities that
// imply a subresource require that subresource to be registered.
func (d Descriptor) Validate() error {
	if d.Version == "" {
		return fmt.Errorf("descriptor %s: version must not be empty", d.Plural)
	}
	if d.Plural == "" {
		return fmt.Errorf("descriptor %s/%s: plural must not be empty", d.Group, d.Version)
	}
	if d.Kind == "" {
		return fmt.Errorf("descriptor %s: kind must not be empty", d.String())
	}
	if d.Scope != ClusterScoped && d.Scope != NamespaceScoped {
		return fmt.Errorf("descriptor %s: invalid scope %q", d.String(), d.Scope)
	}
	for cap, subresource := range capabilitySubresources {
		if d.Capabilities.Has(cap) {
			if _, ok := d.Subresources[subresource]; !ok {
				return fmt.Errorf("descriptor %s: capability %s requires subresource %q to be registered",
					d.String(), capabilityNames[cap], subresource)
			}
		}
	}
	return nil
}
