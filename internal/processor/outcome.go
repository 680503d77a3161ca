package processor

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/minutes/internal/extractor"
)

// FailureMessage is the fixed "error" field of a failed outcome; the
// underlying cause goes in Details.
const FailureMessage = "処理中にエラーが発生しました"

// TimestampLayout matches ISO 8601 UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Outcome is the terminal result of one pipeline run. Exactly one of the
// done fields (Category, Extraction) or the failed field (Details) is
// meaningful, as reported by Succeeded.
type Outcome struct {
	ID        uuid.UUID
	Timestamp time.Time

	Category           extractor.Category
	ClassifierResponse string
	Extraction         extractor.Extraction

	failed  bool
	Details string
}

// FailedOutcome builds the failure form of an Outcome.
func FailedOutcome(id uuid.UUID, ts time.Time, details string) *Outcome {
	return &Outcome{ID: id, Timestamp: ts.UTC(), failed: true, Details: details}
}

func (o *Outcome) Succeeded() bool {
	return !o.failed
}

type doneEnvelope struct {
	MeetingType   string               `json:"meetingType" yaml:"meetingType"`
	ExtractedInfo extractor.Extraction `json:"extractedInfo" yaml:"extractedInfo"`
	Timestamp     string               `json:"timestamp" yaml:"timestamp"`
}

type failedEnvelope struct {
	Error     string `json:"error" yaml:"error"`
	Details   string `json:"details" yaml:"details"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// Envelope returns the serialisable form of the outcome.
func (o *Outcome) Envelope() any {
	ts := o.Timestamp.UTC().Format(TimestampLayout)
	if o.failed {
		return failedEnvelope{Error: FailureMessage, Details: o.Details, Timestamp: ts}
	}
	return doneEnvelope{MeetingType: o.Category.Label(), ExtractedInfo: o.Extraction, Timestamp: ts}
}

// MarshalJSON leaves HTML characters unescaped so raw model text in a parse
// failure is stored verbatim. json.Marshal callers still get escaping applied
// over the result.
func (o *Outcome) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(o.Envelope()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (o *Outcome) MarshalYAML() (any, error) {
	return o.Envelope(), nil
}
