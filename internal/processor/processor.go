package processor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/minutes/internal/hermes"
)

// Recorder persists finished outcomes.
type Recorder interface {
	SaveAnalysis(ctx context.Context, o *Outcome, source string) error
}

// Publisher emits outcome events.
type Publisher interface {
	Publish(subject string, data any) error
}

// Notifier posts a human-readable summary of an outcome.
type Notifier interface {
	PostOutcome(ctx context.Context, o *Outcome, source string) (string, error)
}

// Observer records outcome metrics.
type Observer interface {
	ObserveOutcome(o *Outcome, elapsed time.Duration)
}

// Sinks are the optional destinations an outcome is delivered to. Nil fields
// are skipped.
type Sinks struct {
	Store    Recorder
	Events   Publisher
	Notifier Notifier
	Metrics  Observer
}

// Processor runs the pipeline and fans the outcome out to the configured
// sinks. Sink failures are logged and never change the outcome.
type Processor struct {
	pipeline *Pipeline
	sinks    Sinks
	logger   *slog.Logger
}

func New(p *Pipeline, sinks Sinks, logger *slog.Logger) *Processor {
	return &Processor{pipeline: p, sinks: sinks, logger: logger}
}

// Process analyses transcript and delivers the outcome. source identifies
// where the transcript came from (a file path, "api", a NATS subject).
func (p *Processor) Process(ctx context.Context, transcript, source string) (*Outcome, error) {
	start := time.Now()
	outcome, err := p.pipeline.Run(ctx, transcript)
	if err != nil {
		return nil, err
	}
	if p.sinks.Metrics != nil {
		p.sinks.Metrics.ObserveOutcome(outcome, time.Since(start))
	}
	p.deliver(ctx, outcome, source)
	return outcome, nil
}

func (p *Processor) deliver(ctx context.Context, o *Outcome, source string) {
	logger := p.logger.With("analysis_id", o.ID.String())

	if p.sinks.Store != nil {
		if err := p.sinks.Store.SaveAnalysis(ctx, o, source); err != nil {
			logger.Error("persistence failed", "error", err)
		}
	}

	if p.sinks.Events != nil {
		subject := hermes.SubjectAnalysisCompleted
		if !o.Succeeded() {
			subject = hermes.SubjectAnalysisFailed
		}
		if err := p.sinks.Events.Publish(subject, hermes.AnalysisEvent{
			AnalysisID:  o.ID.String(),
			Source:      source,
			Succeeded:   o.Succeeded(),
			MeetingType: meetingType(o),
			Outcome:     o,
		}); err != nil {
			logger.Warn("failed to publish analysis event", "subject", subject, "error", err)
		}
	}

	if p.sinks.Notifier != nil {
		if _, err := p.sinks.Notifier.PostOutcome(ctx, o, source); err != nil {
			logger.Warn("notification failed", "error", err)
		}
	}
}

func meetingType(o *Outcome) string {
	if !o.Succeeded() {
		return ""
	}
	return o.Category.Label()
}

// HandleTranscriptSubmitted is the NATS handler for
// hermes.SubjectTranscriptSubmitted.
func (p *Processor) HandleTranscriptSubmitted(subject string, data []byte) {
	var evt hermes.TranscriptSubmitted
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse transcript event", "subject", subject, "error", err)
		return
	}

	source := evt.Source
	if source == "" {
		source = subject
	}

	p.logger.Info("processing transcript", "source", source, "transcript_len", len(evt.Transcript))

	if _, err := p.Process(context.Background(), evt.Transcript, source); err != nil {
		if errors.Is(err, ErrEmptyTranscript) {
			p.logger.Warn("skipping empty transcript", "source", source)
			return
		}
		p.logger.Error("processing failed", "source", source, "error", err)
	}
}
