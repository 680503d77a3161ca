package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MikeSquared-Agency/minutes/internal/extractor"
	"github.com/MikeSquared-Agency/minutes/internal/processor"
)

type stubCompleter struct {
	err error
}

func (s stubCompleter) Complete(context.Context, string, string) (string, error) {
	return "商談", s.err
}

func TestObserveOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	now := time.Now()
	m.ObserveOutcome(&processor.Outcome{ID: uuid.New(), Timestamp: now, Category: extractor.SalesMeeting,
		Extraction: extractor.Extraction{Record: map[string]any{}}}, time.Second)
	m.ObserveOutcome(&processor.Outcome{ID: uuid.New(), Timestamp: now, Category: extractor.GeneralMeeting,
		Extraction: extractor.ParseModelJSON("not json")}, time.Second)
	m.ObserveOutcome(processor.FailedOutcome(uuid.New(), now, "boom"), time.Second)

	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("sales", StatusDone)); got != 1 {
		t.Errorf("expected 1 sales done, got %v", got)
	}
	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("general", StatusParseFailed)); got != 1 {
		t.Errorf("expected 1 general parse failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("none", StatusFailed)); got != 1 {
		t.Errorf("expected 1 failed, got %v", got)
	}
	if got := testutil.CollectAndCount(m.AnalysisSeconds); got != 3 {
		t.Errorf("expected 3 latency series, got %d", got)
	}
}

func TestInstrumentCompleter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	ok := m.InstrumentCompleter(stubCompleter{})
	if out, err := ok.Complete(context.Background(), "gpt-4o-mini", "p"); err != nil || out != "商談" {
		t.Fatalf("unexpected passthrough result %q %v", out, err)
	}

	failing := m.InstrumentCompleter(stubCompleter{err: errors.New("api error 500")})
	if _, err := failing.Complete(context.Background(), "gpt-4o-mini", "p"); err == nil {
		t.Fatal("expected error to pass through")
	}

	if got := testutil.ToFloat64(m.CompletionsTotal.WithLabelValues("gpt-4o-mini", "success")); got != 1 {
		t.Errorf("expected 1 successful completion, got %v", got)
	}
	if got := testutil.ToFloat64(m.CompletionsTotal.WithLabelValues("gpt-4o-mini", "error")); got != 1 {
		t.Errorf("expected 1 failed completion, got %v", got)
	}
}

func TestNew_RegistersFamilies(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveOutcome(processor.FailedOutcome(uuid.New(), time.Now(), "x"), time.Millisecond)
	_, _ = m.InstrumentCompleter(stubCompleter{}).Complete(context.Background(), "m", "p")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	expected := map[string]bool{
		"minutes_analyses_total":     false,
		"minutes_analysis_seconds":   false,
		"minutes_completions_total":  false,
		"minutes_completion_seconds": false,
	}
	for _, fam := range families {
		if _, ok := expected[fam.GetName()]; ok {
			expected[fam.GetName()] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("Metric %s not found in registry", name)
		}
	}
}
