//go:build integration

package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/minutes/internal/extractor"
	"github.com/MikeSquared-Agency/minutes/internal/processor"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_SaveAndGetAnalysis(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	o := &processor.Outcome{
		ID:                 uuid.New(),
		Timestamp:          time.Now().UTC().Truncate(time.Millisecond),
		Category:           extractor.SalesMeeting,
		ClassifierResponse: "これは商談です",
		Extraction:         extractor.ParseModelJSON(`{"関係構築とヒアリング": {"会議の参加者": null}}`),
	}
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM analyses WHERE id = $1", o.ID)
	})

	if err := s.SaveAnalysis(ctx, o, "integration-test"); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	got, err := s.GetAnalysis(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}
	if got.MeetingType != "商談" {
		t.Errorf("expected meeting_type 商談, got %q", got.MeetingType)
	}
	if !got.Succeeded || got.ParseFailed {
		t.Errorf("unexpected flags succeeded=%v parse_failed=%v", got.Succeeded, got.ParseFailed)
	}
	if got.Source != "integration-test" {
		t.Errorf("unexpected source %q", got.Source)
	}

	var env map[string]any
	if err := json.Unmarshal(got.Envelope, &env); err != nil {
		t.Fatalf("envelope is not JSON: %v", err)
	}
	if env["meetingType"] != "商談" {
		t.Errorf("unexpected envelope %v", env)
	}
}

func TestIntegration_SaveFailedAnalysis(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	o := processor.FailedOutcome(uuid.New(), time.Now(), "api error 500: server_error: boom")
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM analyses WHERE id = $1", o.ID)
	})

	if err := s.SaveAnalysis(ctx, o, "integration-test"); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	got, err := s.GetAnalysis(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}
	if got.Succeeded || got.MeetingType != "" {
		t.Errorf("expected failed row without meeting type, got %+v", got)
	}

	recent, err := s.ListRecent(ctx, 50)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	found := false
	for _, a := range recent {
		if a.ID == o.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected failed analysis in recent list")
	}
}

func TestIntegration_GetAnalysisNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetAnalysis(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
