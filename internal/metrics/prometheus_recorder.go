package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	httpRequests  *prom.CounterVec
	rebuilds      *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics
// (idempotent). A nil registry creates a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "blogbuilder",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "blogbuilder",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blogbuilder",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blogbuilder",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.httpRequests = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blogbuilder",
			Name:      "http_requests_total",
			Help:      "Served HTTP requests by status code",
		}, []string{"code"})
		pr.rebuilds = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "blogbuilder",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of watch/scheduled rebuilds by trigger and result",
			Buckets:   prom.DefBuckets,
		}, []string{"trigger", "result"})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome, pr.httpRequests, pr.rebuilds)
	})
	return pr
}

func (pr *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	pr.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	pr.buildDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	pr.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (pr *PrometheusRecorder) IncBuildOutcome(outcome string) {
	pr.buildOutcome.WithLabelValues(outcome).Inc()
}

func (pr *PrometheusRecorder) IncHTTPRequest(code int) {
	pr.httpRequests.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (pr *PrometheusRecorder) ObserveRebuild(trigger string, d time.Duration, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	pr.rebuilds.WithLabelValues(trigger, result).Observe(d.Seconds())
}

// Handler exposes the recorder's registry over HTTP.
func (pr *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(pr.registry, promhttp.HandlerOpts{})
}

// Gather is a test hook returning the current metric families.
func (pr *PrometheusRecorder) Gather() (map[string]bool, error) {
	families, err := pr.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names, nil
}
