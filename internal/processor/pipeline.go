package processor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/minutes/internal/extractor"
)

// ErrEmptyTranscript is returned before any completion call when the
// transcript is empty or whitespace only.
var ErrEmptyTranscript = errors.New("transcript is empty")

// Pipeline runs classify-then-extract for one transcript per call. It holds no
// per-run state, so concurrent Run calls are independent.
type Pipeline struct {
	classifier *extractor.Classifier
	extractor  *extractor.Extractor
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline wires both stages to the same completion client and model.
func NewPipeline(llm extractor.Completer, model string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		classifier: extractor.NewClassifier(llm, model, logger),
		extractor:  extractor.New(llm, model, logger),
		logger:     logger,
		now:        time.Now,
	}
}

// Run classifies transcript, extracts the matching record and returns the
// outcome. A completion failure at either stage yields a failed Outcome with
// the provider message in Details; only ErrEmptyTranscript is returned as an
// error.
func (p *Pipeline) Run(ctx context.Context, transcript string) (*Outcome, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrEmptyTranscript
	}

	id := uuid.New()
	logger := p.logger.With("analysis_id", id.String())

	cls, err := p.classifier.Classify(ctx, transcript)
	if err != nil {
		return p.fail(logger, id, err), nil
	}

	ext, err := p.extractor.Extract(ctx, cls.Category, transcript)
	if err != nil {
		return p.fail(logger, id, err), nil
	}

	logger.Info("analysis complete",
		"category", cls.Category.String(),
		"parse_failed", ext.Failed(),
	)

	return &Outcome{
		ID:                 id,
		Timestamp:          p.now().UTC(),
		Category:           cls.Category,
		ClassifierResponse: cls.Response,
		Extraction:         ext,
	}, nil
}

func (p *Pipeline) fail(logger *slog.Logger, id uuid.UUID, err error) *Outcome {
	logger.Error("analysis failed", "error", err)

	details := err.Error()
	var pe *extractor.ProviderError
	if errors.As(err, &pe) {
		details = pe.Err.Error()
	}
	return FailedOutcome(id, p.now(), details)
}
