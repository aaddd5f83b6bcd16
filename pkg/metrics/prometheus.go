package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusHooks implements Hooks on top of a Prometheus registry. Request
// paths are deliberately not a label; they are unbounded.
type PrometheusHooks struct {
	requestDuration *prometheus.HistogramVec
	watchEvents     *prometheus.CounterVec
	watchReconnects *prometheus.CounterVec
}

// NewPrometheus builds hooks and registers their collectors with registerer.
func NewPrometheus(registerer prometheus.Registerer) (*PrometheusHooks, error) {
	hooks := &PrometheusHooks{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kube_client_request_duration_seconds",
			Help:    "Duration of API server requests by verb and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"verb", "code"}),
		watchEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kube_client_watch_events_total",
			Help: "Watch events delivered to sinks by resource and event type.",
		}, []string{"resource", "type"}),
		watchReconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kube_client_watch_reconnects_total",
			Help: "Watch connections re-established by resource.",
		}, []string{"resource"}),
	}
	collectors := []prometheus.Collector{
		hooks.requestDuration,
		hooks.watchEvents,
		hooks.watchReconnects,
	}
	for _, collector := range collectors {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return hooks, nil
}

func (h *PrometheusHooks) ObserveRequest(verb, path string, code int, duration time.Duration) {
	h.requestDuration.WithLabelValues(verb, strconv.Itoa(code)).Observe(duration.Seconds())
}

func (h *PrometheusHooks) ObserveWatchEvent(resource, eventType string) {
	h.watchEvents.WithLabelValues(resource, eventType).Inc()
}

func (h *PrometheusHooks) ObserveWatchReconnect(resource string) {
	h.watchReconnects.WithLabelValues(resource).Inc()
}

// Handler serves the metrics of gatherer over HTTP, for callers that do not
// already expose a metrics endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
