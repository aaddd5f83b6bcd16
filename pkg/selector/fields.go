package selector

import (
	"strings"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/apierrors"
)

// FieldRequirement is a single field selector term. Field selectors support
// equality and inequality only.
type FieldRequirement struct {
	path    string
	value   string
	negated bool
}

func FieldEq(path, value string) FieldRequirement {
	return FieldRequirement{path: path, value: value}
}

func FieldNeq(path, value string) FieldRequirement {
	return FieldRequirement{path: path, value: value, negated: true}
}

func (r FieldRequirement) Path() string {
	return r.path
}

func (r FieldRequirement) Value() string {
	return r.value
}

// EncodeFields serializes field requirements joined by commas, in caller
// order, duplicates preserved.
func EncodeFields(requirements []FieldRequirement) (string, error) {
	var b strings.Builder
	for i, r := range requirements {
		if r.path == "" {
			return "", apierrors.NewInvalidRequest("field selector path must not be empty")
		}
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(r.path)
		if r.negated {
			b.WriteString("!=")
		} else {
			b.WriteString("=")
		}
		b.WriteString(r.value)
	}
	return b.String(), nil
}
