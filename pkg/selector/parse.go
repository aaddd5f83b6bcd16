package selector

import (
	"strings"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/apierrors"
)

// Parse converts a labelSelector wire string back into requirements,
// preserving order and duplicates. Parse(Encode(reqs)) is identity for any
// valid requirement list.
func Parse(encoded string) ([]Requirement, error) {
	if encoded == "" {
		return nil, nil
	}

	var requirements []Requirement
	for _, term := range splitTerms(encoded) {
		requirement, err := parseTerm(strings.TrimSpace(term))
		if err != nil {
			return nil, err
		}
		requirements = append(requirements, requirement)
	}
	return requirements, nil
}

// splitTerms splits on commas outside of parenthesized value sets.
func splitTerms(encoded string) []string {
	var terms []string
	depth := 0
	start := 0
	for i, c := range encoded {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				terms = append(terms, encoded[start:i])
				start = i + 1
			}
		}
	}
	return append(terms, encoded[start:])
}

func parseTerm(term string) (Requirement, error) {
	if term == "" {
		return Requirement{}, apierrors.NewInvalidRequest("empty label selector term")
	}

	if strings.HasPrefix(term, "!") {
		return DoesNotExist(strings.TrimSpace(term[1:])), nil
	}

	if idx := strings.Index(term, " notin "); idx >= 0 {
		values, err := parseValueSet(term[idx+len(" notin "):])
		if err != nil {
			return Requirement{}, err
		}
		return NotIn(strings.TrimSpace(term[:idx]), values...), nil
	}

	if idx := strings.Index(term, " in "); idx >= 0 {
		values, err := parseValueSet(term[idx+len(" in "):])
		if err != nil {
			return Requirement{}, err
		}
		return In(strings.TrimSpace(term[:idx]), values...), nil
	}

	if idx := strings.Index(term, "!="); idx >= 0 {
		return Neq(term[:idx], term[idx+2:]), nil
	}

	if idx := strings.Index(term, "="); idx >= 0 {
		return Eq(term[:idx], term[idx+1:]), nil
	}

	return Exists(term), nil
}

func parseValueSet(set string) ([]string, error) {
	set = strings.TrimSpace(set)
	if !strings.HasPrefix(set, "(") || !strings.HasSuffix(set, ")") {
		return nil, apierrors.NewInvalidRequest("malformed label selector value set %q", set)
	}
	inner := set[1 : len(set)-1]
	if inner == "" {
		return nil, apierrors.NewInvalidRequest("label selector value set %q must not be empty", set)
	}
	values := strings.Split(inner, ",")
	for i := range values {
		values[i] = strings.TrimSpace(values[i])
	}
	return values, nil
}
