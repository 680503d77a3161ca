package backfill

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultStateFile is created inside the backfill directory unless a state
// path is given.
const DefaultStateFile = ".minutes-backfill-state.json"

// State tracks progress for resumable backfill runs.
type State struct {
	StartedAt       time.Time `json:"started_at"`
	LastProcessedAt time.Time `json:"last_processed_at"`
	FilesProcessed  []string  `json:"files_processed"`
	Fingerprints    []string  `json:"fingerprints"`
	FilesRemaining  int       `json:"files_remaining"`
	Errors          []string  `json:"errors"`

	path string // not serialized
}

// LoadState loads the backfill state from path, or returns a fresh state
// that will be written there.
func LoadState(path string) (*State, error) {
	path = expandHome(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{
				StartedAt: time.Now().UTC(),
				path:      path,
			}, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	s.path = path
	return &s, nil
}

// Save persists the state to disk.
func (s *State) Save() error {
	s.LastProcessedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	return os.WriteFile(s.path, data, 0o644)
}

func (s *State) Path() string {
	return s.path
}

// IsProcessed returns true if the given file has already been processed.
func (s *State) IsProcessed(path string) bool {
	for _, f := range s.FilesProcessed {
		if f == path {
			return true
		}
	}
	return false
}

// MarkProcessed records a file as processed along with its content
// fingerprint.
func (s *State) MarkProcessed(path, fingerprint string) {
	s.FilesProcessed = append(s.FilesProcessed, path)
	if fingerprint == "" {
		return
	}
	for _, fp := range s.Fingerprints {
		if fp == fingerprint {
			return
		}
	}
	s.Fingerprints = append(s.Fingerprints, fingerprint)
}

// AddError records a processing error.
func (s *State) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
