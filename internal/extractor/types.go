package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Completer is the completion service boundary. Implementations return the
// raw response text for a single prompt.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Category is the meeting type decided by the classifier.
type Category int

const (
	GeneralMeeting Category = iota
	SalesMeeting
)

// SalesMarker is the token whose presence in the classifier response selects
// SalesMeeting.
const SalesMarker = "商談"

const generalLabel = "その他のミーティング"

// Label is the wire form used in the result envelope.
func (c Category) Label() string {
	if c == SalesMeeting {
		return SalesMarker
	}
	return generalLabel
}

func (c Category) String() string {
	if c == SalesMeeting {
		return "sales"
	}
	return "general"
}

// ParseCategory accepts either a Label or a String form.
func ParseCategory(s string) (Category, bool) {
	switch s {
	case SalesMarker, "sales":
		return SalesMeeting, true
	case generalLabel, "general":
		return GeneralMeeting, true
	}
	return GeneralMeeting, false
}

// Interpret maps free-form classifier text to a category. Any response that
// contains SalesMarker, even inside a longer sentence, is a sales meeting;
// everything else is general.
func Interpret(response string) Category {
	if strings.Contains(strings.TrimSpace(response), SalesMarker) {
		return SalesMeeting
	}
	return GeneralMeeting
}

// ParseFailureTag is the fixed error marker carried by every ParseFailure.
const ParseFailureTag = "JSON解析に失敗しました"

// ParseFailure records model output that was not valid JSON after fence
// stripping. RawResponse is the untouched model text.
type ParseFailure struct {
	Error       string `json:"error"`
	RawResponse string `json:"raw_response"`
}

// Extraction is either a parsed record or a ParseFailure. Check Failed before
// reading Record.
type Extraction struct {
	Record  any
	Failure *ParseFailure
}

func (e Extraction) Failed() bool {
	return e.Failure != nil
}

func (e Extraction) MarshalJSON() ([]byte, error) {
	if e.Failure != nil {
		return marshalRaw(e.Failure)
	}
	return marshalRaw(e.Record)
}

// marshalRaw leaves &, < and > unescaped so raw model text survives intact;
// callers that want HTML escaping get it from their own encoder.
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalYAML renders the same shape as MarshalJSON.
func (e Extraction) MarshalYAML() (any, error) {
	if e.Failure != nil {
		return map[string]string{"error": e.Failure.Error, "raw_response": e.Failure.RawResponse}, nil
	}
	return yamlValue(e.Record), nil
}

// yamlValue converts json.Number leaves so they encode as YAML numbers
// rather than strings.
func yamlValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = yamlValue(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = yamlValue(x)
		}
		return out
	default:
		return v
	}
}

// ProviderError is a completion call failure at a named pipeline stage.
type ProviderError struct {
	Stage string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
