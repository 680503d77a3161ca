package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/minutes/internal/processor"
)

var ErrNotFound = errors.New("analysis not found")

// Analysis is a stored outcome. Envelope is the JSON result envelope exactly
// as returned to the caller.
type Analysis struct {
	ID                 uuid.UUID
	Source             string
	MeetingType        string
	Succeeded          bool
	ParseFailed        bool
	ClassifierResponse string
	Envelope           json.RawMessage
	CreatedAt          time.Time
}

// encodeEnvelope returns the envelope bytes served by the API. json.Marshal
// would re-escape HTML characters in the raw model text.
func encodeEnvelope(o *processor.Outcome) ([]byte, error) {
	b, err := o.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return b, nil
}

// SaveAnalysis writes one outcome row.
func (s *Store) SaveAnalysis(ctx context.Context, o *processor.Outcome, source string) error {
	envelope, err := encodeEnvelope(o)
	if err != nil {
		return err
	}

	var meetingType *string
	parseFailed := false
	if o.Succeeded() {
		label := o.Category.Label()
		meetingType = &label
		parseFailed = o.Extraction.Failed()
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO analyses (id, source, meeting_type, succeeded, parse_failed, classifier_response, envelope, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, source, meetingType, o.Succeeded(), parseFailed, o.ClassifierResponse, envelope, o.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetAnalysis loads one stored outcome by id.
func (s *Store) GetAnalysis(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	var (
		a           Analysis
		meetingType *string
		envelope    []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, source, meeting_type, succeeded, parse_failed, classifier_response, envelope, created_at
		FROM analyses WHERE id = $1`, id,
	).Scan(&a.ID, &a.Source, &meetingType, &a.Succeeded, &a.ParseFailed, &a.ClassifierResponse, &envelope, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	if meetingType != nil {
		a.MeetingType = *meetingType
	}
	a.Envelope = envelope
	return &a, nil
}

// ListRecent returns the newest analyses first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Analysis, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source, COALESCE(meeting_type, ''), succeeded, parse_failed, classifier_response, envelope, created_at
		FROM analyses ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		var envelope []byte
		if err := rows.Scan(&a.ID, &a.Source, &a.MeetingType, &a.Succeeded, &a.ParseFailed, &a.ClassifierResponse, &envelope, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		a.Envelope = envelope
		out = append(out, a)
	}
	return out, rows.Err()
}
