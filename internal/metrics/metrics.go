package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OutcomeOK labels a successful prediction; failures are labelled with
// their error kind.
const OutcomeOK = "ok"

// Metrics holds the service's collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	duration    prometheus.Histogram
	modelInfo   *prometheus.GaugeVec
}

// New registers every collector, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chargecast_predictions_total",
			Help: "Predictions served, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chargecast_prediction_duration_seconds",
			Help:    "Time spent running the prediction pipeline.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		modelInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chargecast_model_info",
			Help: "The loaded model artifact (always 1).",
		}, []string{"name", "version"}),
	}

	m.registry.MustRegister(
		m.predictions,
		m.duration,
		m.modelInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePrediction records one pipeline run.
func (m *Metrics) ObservePrediction(outcome string, elapsed time.Duration) {
	m.predictions.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// SetModel records the model being served.
func (m *Metrics) SetModel(name string, version int) {
	m.modelInfo.Reset()
	m.modelInfo.WithLabelValues(name, strconv.Itoa(version)).Set(1)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
