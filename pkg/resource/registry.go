package resource

import (
	"fmt"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// Registry is the flat set of descriptors known to a client. It is populated
// during setup and read-only afterwards.
type Registry struct {
	descriptors map[string]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{descriptors: map[string]Descriptor{}}
}

func registryKey(group, version, plural string) string {
	return group + "/" + version + "/" + plural
}

func (r *Registry) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	key := registryKey(d.Group, d.Version, d.Plural)
	if _, exists := r.descriptors[key]; exists {
		return fmt.Errorf("descriptor %s already registered", d.String())
	}
	r.descriptors[key] = d
	return nil
}

// MustRegister registers descriptors and panics on conflict or validation
// failure. Intended for process-start registration of static catalogs.
func (r *Registry) MustRegister(descriptors ...Descriptor) {
	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Lookup(group, version, plural string) (Descriptor, bool) {
	d, ok := r.descriptors[registryKey(group, version, plural)]
	return d, ok
}

func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	return out
}

type yamlDescriptor struct {
	Group        string            `json:"group"`
	Version      string            `json:"version"`
	Plural       string            `json:"plural"`
	Singular     string            `json:"singular"`
	Kind         string            `json:"kind"`
	Scope        Scope             `json:"scope"`
	Capabilities []string          `json:"capabilities"`
	Subresources map[string]string `json:"subresources"`
}

type yamlDescriptorList struct {
	Descriptors []yamlDescriptor `json:"descriptors"`
}

// DescriptorsFromYAML parses a descriptor catalog of the form:
//
//	descriptors:
//	  - group: example.com
//	    version: v1
//	    plural: widgets
//	    kind: Widget
//	    scope: Namespaced
//	    capabilities: [Readable, Listable, Watchable]
//
// It allows registering custom resources without any discovery round-trip.
func DescriptorsFromYAML(content []byte) ([]Descriptor, error) {
	var list yamlDescriptorList
	if err := yaml.Unmarshal(content, &list); err != nil {
		return nil, errors.Wrap(err, "failed to parse descriptor catalog")
	}

	descriptors := make([]Descriptor, 0, len(list.Descriptors))
	for _, y := range list.Descriptors {
		capabilities, err := parseCapabilities(y.Capabilities)
		if err != nil {
			return nil, err
		}
		d := Descriptor{
			Group:        y.Group,
			Version:      y.Version,
			Plural:       y.Plural,
			Singular:     y.Singular,
			Kind:         y.Kind,
			Scope:        y.Scope,
			Capabilities: capabilities,
			Subresources: y.Subresources,
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

func parseCapabilities(names []string) (Capabilities, error) {
	var set Capabilities
	for _, name := range names {
		found := false
		for cap, capName := range capabilityNames {
			if capName == name {
				set |= cap
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown capability %q", name)
		}
	}
	return set, nil
}
