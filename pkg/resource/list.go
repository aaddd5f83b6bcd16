package resource

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// List is the generic list envelope returned by list operations. Items carry
// the element type of the handle that produced the list.
type List[T any] struct {
	Kind       string          `json:"kind,omitempty"`
	APIVersion string          `json:"apiVersion,omitempty"`
	Metadata   metav1.ListMeta `json:"metadata,omitempty"`
	Items      []T             `json:"items"`
}

// ResourceVersion returns the list-level resource version, usable as the
// starting point for a subsequent watch.
func (l List[T]) ResourceVersion() string {
	return l.Metadata.ResourceVersion
}

// Continue returns the opaque continuation token for the next page, empty
// when the list is complete.
func (l List[T]) Continue() string {
	return l.Metadata.Continue
}
