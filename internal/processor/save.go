package processor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EncodeIndent renders the outcome envelope as two-space indented JSON
// without HTML escaping.
func EncodeIndent(o *Outcome) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o); err != nil {
		return nil, fmt.Errorf("encode outcome: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ResultFilename is analysis_result_<timestamp>.json with ':' and '.' in the
// timestamp replaced by '-'.
func ResultFilename(o *Outcome) string {
	ts := o.Timestamp.UTC().Format(TimestampLayout)
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return "analysis_result_" + ts + ".json"
}

// SaveResult writes the outcome envelope into dir and returns the file path.
func SaveResult(dir string, o *Outcome) (string, error) {
	b, err := EncodeIndent(o)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create result dir: %w", err)
	}
	path := filepath.Join(dir, ResultFilename(o))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	return path, nil
}
