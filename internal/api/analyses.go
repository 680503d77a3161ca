package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/minutes/internal/processor"
	"github.com/MikeSquared-Agency/minutes/internal/store"
)

const (
	maxTranscriptBytes = 10 << 20
	defaultListLimit   = 20
	maxListLimit       = 200
)

type createRequest struct {
	Transcript string `json:"transcript"`
	Source     string `json:"source,omitempty"`
}

// createAnalysis handles POST /api/v1/analyses. The body is either JSON
// {"transcript": "..."} or the transcript as plain text.
func (s *Server) createAnalysis(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTranscriptBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "transcript too large")
			return
		}
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	req := createRequest{Transcript: string(body), Source: "api"}
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		req = createRequest{}
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		if req.Source == "" {
			req.Source = "api"
		}
	}

	outcome, err := s.analyzer.Process(r.Context(), req.Transcript, req.Source)
	if errors.Is(err, processor.ErrEmptyTranscript) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("X-Analysis-ID", outcome.ID.String())
	code := http.StatusOK
	if !outcome.Succeeded() {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, outcome)
}

// getAnalysis handles GET /api/v1/analyses/{id}.
func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.lookup == nil {
		writeError(w, http.StatusNotImplemented, "analysis storage is not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid analysis id")
		return
	}

	a, err := s.lookup.GetAnalysis(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("X-Analysis-ID", a.ID.String())
	writeJSON(w, http.StatusOK, a.Envelope)
}

type analysisSummary struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	MeetingType string          `json:"meeting_type,omitempty"`
	Succeeded   bool            `json:"succeeded"`
	ParseFailed bool            `json:"parse_failed"`
	CreatedAt   time.Time       `json:"created_at"`
	Result      json.RawMessage `json:"result"`
}

// listAnalyses handles GET /api/v1/analyses?limit=N, newest first.
func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.lookup == nil {
		writeError(w, http.StatusNotImplemented, "analysis storage is not configured")
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	rows, err := s.lookup.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]analysisSummary, 0, len(rows))
	for _, a := range rows {
		out = append(out, analysisSummary{
			ID:          a.ID.String(),
			Source:      a.Source,
			MeetingType: a.MeetingType,
			Succeeded:   a.Succeeded,
			ParseFailed: a.ParseFailed,
			CreatedAt:   a.CreatedAt,
			Result:      a.Envelope,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
