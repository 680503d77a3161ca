package extractor

import (
	"context"
	"log/slog"

	"github.com/MikeSquared-Agency/minutes/internal/prompt"
)

type Extractor struct {
	llm    Completer
	model  string
	logger *slog.Logger
}

func New(llm Completer, model string, logger *slog.Logger) *Extractor {
	return &Extractor{llm: llm, model: model, logger: logger}
}

// Extract dispatches to the extractor for cat.
func (e *Extractor) Extract(ctx context.Context, cat Category, transcript string) (Extraction, error) {
	if cat == SalesMeeting {
		return e.ExtractSales(ctx, transcript)
	}
	return e.ExtractGeneral(ctx, transcript)
}

// ExtractSales pulls the five-section sales record out of transcript.
func (e *Extractor) ExtractSales(ctx context.Context, transcript string) (Extraction, error) {
	return e.run(ctx, prompt.SalesExtraction, transcript)
}

// ExtractGeneral pulls discussion points, conclusion and todos out of
// transcript.
func (e *Extractor) ExtractGeneral(ctx context.Context, transcript string) (Extraction, error) {
	return e.run(ctx, prompt.GeneralExtraction, transcript)
}

func (e *Extractor) run(ctx context.Context, id prompt.ID, transcript string) (Extraction, error) {
	e.logger.Info("extracting from transcript", "template", id.String(), "transcript_len", len(transcript))

	raw, err := e.llm.Complete(ctx, e.model, prompt.Build(id, transcript))
	if err != nil {
		return Extraction{}, &ProviderError{Stage: id.String(), Err: err}
	}

	ext := ParseModelJSON(raw)
	if ext.Failed() {
		e.logger.Error("failed to parse extraction response",
			"template", id.String(),
			"raw", raw,
		)
		return ext, nil
	}

	e.logger.Info("extraction complete", "template", id.String())
	return ext, nil
}
