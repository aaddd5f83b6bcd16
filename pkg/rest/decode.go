package rest

import (
	"encoding/json"

	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/apierrors"
)

// DecodeInto unmarshals a successful response body into out. An empty body
// or undecodable payload is reported as a malformed response, never as a
// zero-valued object.
func DecodeInto(verb Verb, path string, body []byte, out interface{}) error {
	if len(body) == 0 {
		return apierrors.NewMalformedResponse(string(verb), path, body, errors.New("empty response body"))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apierrors.NewMalformedResponse(string(verb), path, body, err)
	}
	return nil
}

type kindProbe struct {
	Kind       string `json:"kind"`
	APIVersion string `json:"apiVersion"`
}

// DecodeStatus interprets a 2xx body that may be either an object of the
// expected type or a metav1.Status, as delete and eviction return both
// shapes. It returns the status when the body is one, otherwise nil, and
// leaves out untouched in the status case.
func DecodeStatus(verb Verb, path string, body []byte, out interface{}) (*metav1.Status, error) {
	if len(body) == 0 {
		return nil, apierrors.NewMalformedResponse(string(verb), path, body, errors.New("empty response body"))
	}
	var probe kindProbe
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, apierrors.NewMalformedResponse(string(verb), path, body, err)
	}
	if probe.Kind == "Status" {
		status := &metav1.Status{}
		if err := json.Unmarshal(body, status); err != nil {
			return nil, apierrors.NewMalformedResponse(string(verb), path, body, err)
		}
		return status, nil
	}
	if out == nil {
		return nil, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, apierrors.NewMalformedResponse(string(verb), path, body, err)
	}
	return nil, nil
}
