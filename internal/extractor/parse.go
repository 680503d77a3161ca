package extractor

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
)

var (
	taggedFence = regexp.MustCompile("```json\n?")
	bareFence   = regexp.MustCompile("```\n?")
)

// StripFences removes every ```json and ``` marker (each with an optional
// trailing newline) and trims the result.
func StripFences(raw string) string {
	s := taggedFence.ReplaceAllString(raw, "")
	s = bareFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParseModelJSON parses a model response as strict JSON after fence stripping.
// Malformed output becomes a ParseFailure holding raw unchanged; it is never
// returned as an error.
func ParseModelJSON(raw string) Extraction {
	v, err := decodeStrict(StripFences(raw))
	if err != nil {
		return Extraction{Failure: &ParseFailure{Error: ParseFailureTag, RawResponse: raw}}
	}
	return Extraction{Record: v}
}

// decodeStrict accepts exactly one JSON value. Numbers stay json.Number so
// re-encoding reproduces the model's digits.
func decodeStrict(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}
