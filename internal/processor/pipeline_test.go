package processor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/minutes/internal/extractor"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedLLM answers the classification prompt and the extraction prompts
// with fixed text, and counts calls.
type scriptedLLM struct {
	mu sync.Mutex

	classify    string
	extract     string
	classifyErr error
	extractErr  error

	calls   int
	prompts []string
}

func (s *scriptedLLM) Complete(_ context.Context, _ string, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if strings.Contains(prompt, "のどちらかで答えてください") {
		return s.classify, s.classifyErr
	}
	return s.extract, s.extractErr
}

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 890_000_000, time.UTC)

func newTestPipeline(llm extractor.Completer) *Pipeline {
	p := NewPipeline(llm, "gpt-4o-mini", discardLogger())
	p.now = func() time.Time { return fixedNow }
	return p
}

func TestRun_ScenarioA_Sales(t *testing.T) {
	llm := &scriptedLLM{
		classify: "これは商談です",
		extract:  `{"関係構築とヒアリング": {"会議の参加者": null}}`,
	}

	out, err := newTestPipeline(llm).Run(context.Background(), "営業: 本日はご提案に伺いました")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Succeeded() {
		t.Fatalf("expected success, got failure %q", out.Details)
	}
	if out.Category != extractor.SalesMeeting {
		t.Errorf("expected sales meeting, got %v", out.Category)
	}
	want := map[string]any{"関係構築とヒアリング": map[string]any{"会議の参加者": nil}}
	if !reflect.DeepEqual(out.Extraction.Record, want) {
		t.Errorf("record = %#v, want %#v", out.Extraction.Record, want)
	}
	if !strings.Contains(llm.prompts[1], "BANT情報") {
		t.Error("expected sales extraction prompt for second call")
	}
	if out.ClassifierResponse != "これは商談です" {
		t.Errorf("unexpected classifier response %q", out.ClassifierResponse)
	}
}

func TestRun_ScenarioB_GeneralFenced(t *testing.T) {
	llm := &scriptedLLM{
		classify: "社内の技術ミーティングです",
		extract:  "```json\n{\"結論\": \"延期\"}\n```",
	}

	out, err := newTestPipeline(llm).Run(context.Background(), "開発: 認証機能の進捗です")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Category != extractor.GeneralMeeting {
		t.Errorf("expected general meeting, got %v", out.Category)
	}
	if !reflect.DeepEqual(out.Extraction.Record, map[string]any{"結論": "延期"}) {
		t.Errorf("unexpected record %#v", out.Extraction.Record)
	}
	if !strings.Contains(llm.prompts[1], "次やるTodo") {
		t.Error("expected general extraction prompt for second call")
	}
}

func TestRun_ScenarioC_ParseFailureIsDone(t *testing.T) {
	llm := &scriptedLLM{classify: "その他のミーティング", extract: "not json at all"}

	out, err := newTestPipeline(llm).Run(context.Background(), "t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Succeeded() {
		t.Fatal("parse failure must not fail the run")
	}
	if !out.Extraction.Failed() {
		t.Fatal("expected parse failure extraction")
	}
	if out.Extraction.Failure.RawResponse != "not json at all" {
		t.Errorf("unexpected raw response %q", out.Extraction.Failure.RawResponse)
	}
}

func TestRun_ScenarioD_ClassificationProviderError(t *testing.T) {
	llm := &scriptedLLM{classifyErr: errors.New("api error 401: invalid_api_key: Incorrect API key provided")}

	out, err := newTestPipeline(llm).Run(context.Background(), "t")
	if err != nil {
		t.Fatalf("provider errors must be an outcome, got error %v", err)
	}
	if out.Succeeded() {
		t.Fatal("expected failed outcome")
	}
	if out.Details != "api error 401: invalid_api_key: Incorrect API key provided" {
		t.Errorf("expected original message, got %q", out.Details)
	}
	if llm.calls != 1 {
		t.Errorf("expected no extraction after failed classification, got %d calls", llm.calls)
	}
}

func TestRun_ExtractionProviderError(t *testing.T) {
	llm := &scriptedLLM{classify: "商談", extractErr: errors.New("context deadline exceeded")}

	out, err := newTestPipeline(llm).Run(context.Background(), "t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Succeeded() {
		t.Fatal("expected failed outcome")
	}
	if out.Details != "context deadline exceeded" {
		t.Errorf("unexpected details %q", out.Details)
	}
	if llm.calls != 2 {
		t.Errorf("expected exactly two calls without retry, got %d", llm.calls)
	}
}

func TestRun_EmptyTranscriptMakesNoCalls(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t\n", "　"} {
		llm := &scriptedLLM{classify: "商談", extract: "{}"}

		out, err := newTestPipeline(llm).Run(context.Background(), in)
		if !errors.Is(err, ErrEmptyTranscript) {
			t.Errorf("%q: expected ErrEmptyTranscript, got %v", in, err)
		}
		if out != nil {
			t.Errorf("%q: expected nil outcome", in)
		}
		if llm.calls != 0 {
			t.Errorf("%q: expected zero completion calls, got %d", in, llm.calls)
		}
	}
}

func TestRun_RoutingIsPureFunctionOfResponse(t *testing.T) {
	tests := []struct {
		resp  string
		sales bool
	}{
		{"商談", true},
		{"この会議は商談です。", true},
		{"商談ではなく、その他のミーティングです", true},
		{"その他のミーティング", false},
		{"社内会議", false},
		{"", false},
	}
	for _, tt := range tests {
		resp, sales := tt.resp, tt.sales
		llm := &scriptedLLM{classify: resp, extract: "{}"}
		out, err := newTestPipeline(llm).Run(context.Background(), "t")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		usedSales := strings.Contains(llm.prompts[1], "BANT情報")
		if usedSales != sales {
			t.Errorf("%q: sales extractor used = %v, want %v", resp, usedSales, sales)
		}
		if (out.Category == extractor.SalesMeeting) != sales {
			t.Errorf("%q: unexpected category %v", resp, out.Category)
		}
	}
}

func TestOutcome_JSONEnvelope(t *testing.T) {
	llm := &scriptedLLM{classify: "商談", extract: `{"価格": "月額5万円"}`}
	out, _ := newTestPipeline(llm).Run(context.Background(), "t")

	b, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"meetingType":"商談","extractedInfo":{"価格":"月額5万円"},"timestamp":"2025-03-04T05:06:07.890Z"}`
	if string(b) != want {
		t.Errorf("got %s\nwant %s", b, want)
	}

	failed := FailedOutcome(out.ID, fixedNow, "boom")
	b, err = json.Marshal(failed)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want = `{"error":"処理中にエラーが発生しました","details":"boom","timestamp":"2025-03-04T05:06:07.890Z"}`
	if string(b) != want {
		t.Errorf("got %s\nwant %s", b, want)
	}
}

func TestRun_ConcurrentRunsAreIndependent(t *testing.T) {
	llm := &scriptedLLM{classify: "商談", extract: `{"a": 1}`}
	p := newTestPipeline(llm)

	var wg sync.WaitGroup
	ids := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := p.Run(context.Background(), "t")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			ids <- out.ID.String()
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate analysis id %s", id)
		}
		seen[id] = true
	}
	if llm.calls != 16 {
		t.Errorf("expected 16 calls, got %d", llm.calls)
	}
}
