package resource

const (
	SubresourceStatus   = "status"
	SubresourceScale    = "scale"
	SubresourceLog      = "log"
	SubresourceEviction = "eviction"
	SubresourceExec     = "exec"
)

const crudCapabilities = Readable | Listable | Creatable | Replaceable |
	Patchable | Deletable | Watchable

// Pods returns the descriptor for core/v1 Pods.
func Pods() Descriptor {
	return Descriptor{
		Version:      "v1",
		Plural:       "pods",
		Singular:     "pod",
		Kind:         "Pod",
		Scope:        NamespaceScoped,
		Capabilities: crudCapabilities | CollectionDeletable | StatusHaving | Loggable | Evictable,
		Subresources: map[string]string{
			SubresourceStatus:   SubresourceStatus,
			SubresourceLog:      SubresourceLog,
			SubresourceEviction: SubresourceEviction,
			SubresourceExec:     SubresourceExec,
		},
	}
}

// Namespaces returns the descriptor for core/v1 Namespaces. Namespaces do
// not support collection deletion.
func Namespaces() Descriptor {
	return Descriptor{
		Version:      "v1",
		Plural:       "namespaces",
		Singular:     "namespace",
		Kind:         "Namespace",
		Scope:        ClusterScoped,
		Capabilities: crudCapabilities | StatusHaving,
		Subresources: map[string]string{SubresourceStatus: SubresourceStatus},
	}
}

func Nodes() Descriptor {
	return Descriptor{
		Version:      "v1",
		Plural:       "nodes",
		Singular:     "node",
		Kind:         "Node",
		Scope:        ClusterScoped,
		Capabilities: crudCapabilities | CollectionDeletable | StatusHaving,
		Subresources: map[string]string{SubresourceStatus: SubresourceStatus},
	}
}

func Services() Descriptor {
	return Descriptor{
		Version:      "v1",
		Plural:       "services",
		Singular:     "service",
		Kind:         "Service",
		Scope:        NamespaceScoped,
		Capabilities: crudCapabilities | StatusHaving,
		Subresources: map[string]string{SubresourceStatus: SubresourceStatus},
	}
}

func ConfigMaps() Descriptor {
	return Descriptor{
		Version:      "v1",
		Plural:       "configmaps",
		Singular:     "configmap",
		Kind:         "ConfigMap",
		Scope:        NamespaceScoped,
		Capabilities: crudCapabilities | CollectionDeletable,
	}
}

func Secrets() Descriptor {
	return Descriptor{
		Version:      "v1",
		Plural:       "secrets",
		Singular:     "secret",
		Kind:         "Secret",
		Scope:        NamespaceScoped,
		Capabilities: crudCapabilities | CollectionDeletable,
	}
}

func Events() Descriptor {
	return Descriptor{
		Version:      "v1",
		Plural:       "events",
		Singular:     "event",
		Kind:         "Event",
		Scope:        NamespaceScoped,
		Capabilities: crudCapabilities | CollectionDeletable,
	}
}

func Deployments() Descriptor {
	return Descriptor{
		Group:        "apps",
		Version:      "v1",
		Plural:       "deployments",
		Singular:     "deployment",
		Kind:         "Deployment",
		Scope:        NamespaceScoped,
		Capabilities: crudCapabilities | CollectionDeletable | StatusHaving | Scalable,
		Subresources: map[string]string{
			SubresourceStatus: SubresourceStatus,
			SubresourceScale:  SubresourceScale,
		},
	}
}

func ReplicaSets() Descriptor {
	return Descriptor{
		Group:        "apps",
		Version:      "v1",
		Plural:       "replicasets",
		Singular:     "replicaset",
		Kind:         "ReplicaSet",
		Scope:        NamespaceScoped,
		Capabilities: crudCapabilities | CollectionDeletable | StatusHaving | Scalable,
		Subresources: map[string]string{
			SubresourceStatus: SubresourceStatus,
			SubresourceScale:  SubresourceScale,
		},
	}
}

func StatefulSets() Descriptor {
	return Descriptor{
		Group:        "apps",
		Version:      "v1",
		Plural:       "statefulsets",
		Singular:     "statefulset",
		Kind:         "StatefulSet",
		Scope:        NamespaceScoped,
		Capabilities: crudCapabilities | CollectionDeletable | StatusHaving | Scalable,
		Subresources: map[string]string{
			SubresourceStatus: SubresourceStatus,
			SubresourceScale:  SubresourceScale,
		},
	}
}

func Jobs() Descriptor {
	return Descriptor{
		Group:        "batch",
		Version:      "v1",
		Plural:       "jobs",
		Singular:     "job",
		Kind:         "Job",
		Scope:        NamespaceScoped,
		Capabilities: crudCapabilities | CollectionDeletable | StatusHaving,
		Subresources: map[string]string{SubresourceStatus: SubresourceStatus},
	}
}

// WellKnown returns a registry pre-populated with the descriptors above.
func WellKnown() *Registry {
	r := NewRegistry()
	r.MustRegister(
		Pods(),
		Namespaces(),
		Nodes(),
		Services(),
		ConfigMaps(),
		Secrets(),
		Events(),
		Deployments(),
		ReplicaSets(),
		StatefulSets(),
		Jobs(),
	)
	return r
}
