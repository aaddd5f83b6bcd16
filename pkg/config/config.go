// Package config resolves cluster connection settings into the base URL and
// HTTP client the transport needs. Credential handling, TLS material and
// exec plugins are delegated to the kubeconfig machinery; this package never
// inspects them.
package config

import (
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	restclient "k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// KubeconfigSource points at cluster credentials, either as a file path or
// as inline content. At least one of the two must be set; when both are,
// Path is used and Content is ignored.
type KubeconfigSource struct {
	Path    string
	Content string
}

// RestConfig resolves the kubeconfig source into a client-go REST config.
func RestConfig(kubeconfigSource KubeconfigSource) (*restclient.Config, error) {
	pathSet := notEmpty(kubeconfigSource.Path)
	contentSet := notEmpty(kubeconfigSource.Content)

	if !pathSet && !contentSet {
		return nil, errors.New("Either kubeconfig path or kubeconfig content property must be set")
	}

	if pathSet {
		return clientcmd.BuildConfigFromFlags("", kubeconfigSource.Path)
	}
	return clientcmd.RESTConfigFromKubeConfig([]byte(kubeconfigSource.Content))
}

// InClusterRestConfig resolves the service-account credentials mounted into
// a pod.
func InClusterRestConfig() (*restclient.Config, error) {
	return restclient.InClusterConfig()
}

// Connection is the resolved transport input: where to connect and with
// which HTTP client. The client carries TLS material, credentials and the
// per-request timeout.
type Connection struct {
	BaseURL   *url.URL
	Client    *http.Client
	UserAgent string
}

// Connect turns a REST config into a ready transport connection. timeout
// bounds every single request; zero means no client-side bound.
func Connect(cfg *restclient.Config, timeout time.Duration) (*Connection, error) {
	baseURL, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, errors.Wrapf(err, "while parsing API server host %q", cfg.Host)
	}
	if baseURL.Scheme == "" {
		baseURL.Scheme = "https"
	}

	roundTripper, err := restclient.TransportFor(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "while building HTTP transport from REST config")
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = restclient.DefaultKubernetesUserAgent()
	}

	return &Connection{
		BaseURL: baseURL,
		Client: &http.Client{
			Transport: roundTripper,
			Timeout:   timeout,
		},
		UserAgent: userAgent,
	}, nil
}

// StreamingConnection is like Connect but without a client-side timeout, as
// required for watches and followed log streams. Credentials and TLS
// material are shared with the regular connection.
func StreamingConnection(cfg *restclient.Config) (*Connection, error) {
	return Connect(cfg, 0)
}

func notEmpty(property string) bool {
	return property != ""
}
