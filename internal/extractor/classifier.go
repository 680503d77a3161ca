package extractor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/minutes/internal/prompt"
)

type Classifier struct {
	llm    Completer
	model  string
	logger *slog.Logger
}

func NewClassifier(llm Completer, model string, logger *slog.Logger) *Classifier {
	return &Classifier{llm: llm, model: model, logger: logger}
}

// Classification is the classifier decision together with the trimmed model
// text it was derived from.
type Classification struct {
	Category Category
	Response string
}

// Classify asks the model whether transcript is a sales meeting. Completion
// failures are returned as *ProviderError without retry.
func (c *Classifier) Classify(ctx context.Context, transcript string) (Classification, error) {
	c.logger.Info("classifying meeting", "model", c.model, "transcript_len", len(transcript))

	raw, err := c.llm.Complete(ctx, c.model, prompt.Build(prompt.Classification, transcript))
	if err != nil {
		return Classification{}, &ProviderError{Stage: "classification", Err: err}
	}

	resp := strings.TrimSpace(raw)
	cat := Interpret(resp)

	c.logger.Info("classification complete", "category", cat.String(), "response", resp)
	return Classification{Category: cat, Response: resp}, nil
}
