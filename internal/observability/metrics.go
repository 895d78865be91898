package observability

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for the pipeline stages.
type Observer interface {
	RecordAuthorization(duration time.Duration, err error)
	RecordAnalysis(fileType, status string, duration time.Duration)
	RecordResolve(outcome string, duration time.Duration)
}

// Resolve outcomes reported to RecordResolve.
const (
	ResolveNotReady  = "not_ready"
	ResolveProcessed = "processed"
	ResolveError     = "error"
	ResolveFailed    = "failed"
)

// PrometheusObserver exports pipeline metrics to Prometheus.
type PrometheusObserver struct {
	stageDuration  *prometheus.HistogramVec
	authorizations *prometheus.CounterVec
	analyses       *prometheus.CounterVec
	resolves       *prometheus.CounterVec
}

// NewPrometheusObserver registers the pipeline metrics on reg.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "file_analysis"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Latency of authorize, analyze and resolve operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		authorizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorizations_total",
			Help:      "Upload capabilities requested, by result.",
		}, []string{"result"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Result records written, by file type and status.",
		}, []string{"file_type", "status"}),
		resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolves_total",
			Help:      "Result lookups, by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{o.stageDuration, o.authorizations, o.analyses, o.resolves} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, fmt.Errorf("register pipeline metric: %w", err)
		}
	}
	return o, nil
}

func (o *PrometheusObserver) RecordAuthorization(duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.stageDuration.WithLabelValues("authorize").Observe(duration.Seconds())
	result := "ok"
	if err != nil {
		result = "failed"
	}
	o.authorizations.WithLabelValues(result).Inc()
}

func (o *PrometheusObserver) RecordAnalysis(fileType, status string, duration time.Duration) {
	if o == nil {
		return
	}
	if fileType == "" {
		fileType = "unknown"
	}
	o.stageDuration.WithLabelValues("analyze").Observe(duration.Seconds())
	o.analyses.WithLabelValues(fileType, status).Inc()
}

func (o *PrometheusObserver) RecordResolve(outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	o.stageDuration.WithLabelValues("resolve").Observe(duration.Seconds())
	o.resolves.WithLabelValues(outcome).Inc()
}

type nopObserver struct{}

func (nopObserver) RecordAuthorization(time.Duration, error)     {}
func (nopObserver) RecordAnalysis(string, string, time.Duration) {}
func (nopObserver) RecordResolve(string, time.Duration)          {}

// NopObserver discards all telemetry.
func NopObserver() Observer {
	return nopObserver{}
}

var _ Observer = (*PrometheusObserver)(nil)
