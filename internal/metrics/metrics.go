// Package metrics holds the Prometheus metrics for the analysis pipeline.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MikeSquared-Agency/minutes/internal/extractor"
	"github.com/MikeSquared-Agency/minutes/internal/processor"
)

// Outcome status label values.
const (
	StatusDone        = "done"
	StatusParseFailed = "parse_failed"
	StatusFailed      = "failed"
)

// Metrics holds all Prometheus metrics for minutes.
type Metrics struct {
	AnalysesTotal     *prometheus.CounterVec
	AnalysisSeconds   *prometheus.HistogramVec
	CompletionsTotal  *prometheus.CounterVec
	CompletionSeconds *prometheus.HistogramVec
}

// New creates and registers the metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AnalysesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minutes_analyses_total",
				Help: "Total finished analyses by meeting type and status",
			},
			[]string{"meeting_type", "status"},
		),
		AnalysisSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "minutes_analysis_seconds",
				Help:    "End-to-end analysis latency including both completion calls",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"status"},
		),
		CompletionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minutes_completions_total",
				Help: "Total completion API calls",
			},
			[]string{"model", "status"},
		),
		CompletionSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "minutes_completion_seconds",
				Help:    "Completion API call latency",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"model"},
		),
	}
}

// ObserveOutcome records one finished analysis.
func (m *Metrics) ObserveOutcome(o *processor.Outcome, elapsed time.Duration) {
	meetingType, status := "none", StatusFailed
	if o.Succeeded() {
		meetingType = o.Category.String()
		status = StatusDone
		if o.Extraction.Failed() {
			status = StatusParseFailed
		}
	}
	m.AnalysesTotal.WithLabelValues(meetingType, status).Inc()
	m.AnalysisSeconds.WithLabelValues(status).Observe(elapsed.Seconds())
}

// InstrumentCompleter wraps c so every call is counted and timed.
func (m *Metrics) InstrumentCompleter(c extractor.Completer) extractor.Completer {
	return &instrumentedCompleter{next: c, m: m}
}

type instrumentedCompleter struct {
	next extractor.Completer
	m    *Metrics
}

func (ic *instrumentedCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	start := time.Now()
	out, err := ic.next.Complete(ctx, model, prompt)
	ic.m.CompletionSeconds.WithLabelValues(model).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "error"
	}
	ic.m.CompletionsTotal.WithLabelValues(model, status).Inc()
	return out, err
}
