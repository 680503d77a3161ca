package backfill

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/minutes/internal/extractor"
	"github.com/MikeSquared-Agency/minutes/internal/processor"
)

// Analyzer runs one transcript through the pipeline and its sinks.
type Analyzer interface {
	Process(ctx context.Context, transcript, source string) (*processor.Outcome, error)
}

// SummaryPoster posts the batch summary. *slack.Poster satisfies it.
type SummaryPoster interface {
	PostThread(ctx context.Context, threadTS, text string) error
}

// Config holds the backfill command configuration.
type Config struct {
	Dir        string
	Pattern    string    // base-name glob, default "*.txt"
	Since      time.Time // skip files modified before Since
	Until      time.Time // skip files modified after Until
	DryRun     bool
	BatchSize  int           // files per batch; 0 disables pausing
	Pause      time.Duration // pause between batches
	StatePath  string        // default <Dir>/.minutes-backfill-state.json
	SaveResult bool
	ResultDir  string
}

// Runner analyzes every transcript file under a directory, skipping files
// and contents already handled by an earlier run.
type Runner struct {
	cfg      Config
	analyzer Analyzer
	poster   SummaryPoster
	logger   *slog.Logger
}

// NewRunner creates a backfill runner. poster may be nil.
func NewRunner(cfg Config, analyzer Analyzer, poster SummaryPoster, logger *slog.Logger) *Runner {
	if cfg.Pattern == "" {
		cfg.Pattern = "*.txt"
	}
	if cfg.StatePath == "" {
		cfg.StatePath = filepath.Join(cfg.Dir, DefaultStateFile)
	}
	if cfg.ResultDir == "" {
		cfg.ResultDir = "."
	}
	return &Runner{cfg: cfg, analyzer: analyzer, poster: poster, logger: logger}
}

// Run executes the backfill and returns its report. State is saved after
// every file so an interrupted run resumes where it stopped.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	state, err := LoadState(r.cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	files, err := r.discoverFiles()
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}

	report := &Report{Discovered: len(files)}
	seen := newSeenSet(state.Fingerprints)
	inBatch := 0

	var pending []string
	for _, path := range files {
		if state.IsProcessed(path) {
			report.Skipped++
			continue
		}
		pending = append(pending, path)
	}
	state.FilesRemaining = len(pending)

	r.logger.Info("files to process",
		"discovered", len(files),
		"pending", len(pending),
		"already_processed", report.Skipped,
		"dry_run", r.cfg.DryRun,
	)

	for _, path := range pending {
		select {
		case <-ctx.Done():
			r.logger.Info("backfill interrupted, saving state")
			r.saveState(state)
			r.postSummary(ctx, report)
			return report, ctx.Err()
		default:
		}

		sum, fingerprint, ok := r.processFile(ctx, path, seen, report)
		if ok {
			report.Files = append(report.Files, sum)
		}

		// Failed analyses stay unprocessed so the next run retries them. A
		// duplicate always matches a successful analysis since failed
		// fingerprints are released.
		state.FilesRemaining--
		if !r.cfg.DryRun && fingerprint != "" {
			if !ok || sum.Succeeded {
				state.MarkProcessed(path, fingerprint)
			} else {
				state.AddError(fmt.Sprintf("analyze %s: %s", path, sum.Details))
			}
			r.saveState(state)
		}

		if !ok {
			continue
		}
		inBatch++
		if r.cfg.BatchSize > 0 && inBatch >= r.cfg.BatchSize && r.cfg.Pause > 0 {
			r.logger.Info("batch complete, pausing", "files_in_batch", inBatch, "pause", r.cfg.Pause)
			inBatch = 0
			select {
			case <-ctx.Done():
				r.saveState(state)
				r.postSummary(ctx, report)
				return report, ctx.Err()
			case <-time.After(r.cfg.Pause):
			}
		}
	}

	r.postSummary(ctx, report)

	r.logger.Info("backfill complete",
		"analyzed", report.Analyzed,
		"sales", report.Sales,
		"general", report.General,
		"parse_failures", report.ParseFails,
		"failed", report.Failed,
		"duplicates", report.Duplicates,
		"dry_run", r.cfg.DryRun,
	)
	return report, nil
}

// processFile analyzes one file. ok is false when the file was skipped
// (unreadable, empty, duplicate or dry run) rather than analyzed.
func (r *Runner) processFile(ctx context.Context, path string, seen seenSet, report *Report) (FileSummary, string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("failed to read transcript", "path", path, "error", err)
		report.Skipped++
		return FileSummary{}, "", false
	}

	transcript := string(data)
	if strings.TrimSpace(transcript) == "" {
		r.logger.Warn("skipping empty transcript", "path", path)
		report.Skipped++
		return FileSummary{}, "", false
	}

	fingerprint := Fingerprint(transcript)
	if !seen.claim(fingerprint) {
		r.logger.Info("skipping duplicate transcript", "path", path)
		report.Duplicates++
		return FileSummary{}, fingerprint, false
	}

	if r.cfg.DryRun {
		r.logger.Info("dry run, would analyze", "path", path, "transcript_len", len(transcript))
		report.Skipped++
		return FileSummary{}, fingerprint, false
	}

	r.logger.Info("processing file", "path", path, "transcript_len", len(transcript))

	outcome, err := r.analyzer.Process(ctx, transcript, path)
	if errors.Is(err, processor.ErrEmptyTranscript) {
		report.Skipped++
		return FileSummary{}, fingerprint, false
	}

	sum := FileSummary{Path: path, Date: modDate(path)}
	if err != nil {
		seen.release(fingerprint)
		sum.Details = err.Error()
		report.Failed++
		return sum, fingerprint, true
	}

	sum.AnalysisID = outcome.ID.String()
	sum.Succeeded = outcome.Succeeded()
	report.Analyzed++

	if !outcome.Succeeded() {
		seen.release(fingerprint)
		sum.Details = outcome.Details
		report.Failed++
		return sum, fingerprint, true
	}

	sum.MeetingType = outcome.Category.Label()
	sum.ParseFailed = outcome.Extraction.Failed()
	if sum.ParseFailed {
		report.ParseFails++
	}
	if outcome.Category == extractor.SalesMeeting {
		report.Sales++
	} else {
		report.General++
	}

	if r.cfg.SaveResult {
		saved, err := processor.SaveResult(r.cfg.ResultDir, outcome)
		if err != nil {
			r.logger.Warn("failed to save result", "path", path, "error", err)
		} else {
			r.logger.Info("result saved", "path", path, "result", saved)
		}
	}

	return sum, fingerprint, true
}

func (r *Runner) saveState(state *State) {
	if err := state.Save(); err != nil {
		r.logger.Warn("failed to save backfill state", "path", state.Path(), "error", err)
	}
}

// postSummary posts the run summary to Slack, or logs it when no poster is
// configured.
func (r *Runner) postSummary(ctx context.Context, report *Report) {
	if len(report.Files) == 0 {
		return
	}

	text := FormatSummary(report)

	if r.poster == nil {
		r.logger.Info("backfill summary (no Slack configured)", "summary", text)
		return
	}

	if err := r.poster.PostThread(ctx, "", text); err != nil {
		r.logger.Warn("failed to post backfill summary to Slack, logging instead",
			"error", err,
			"summary", text,
		)
	}
}

// FormatSummary formats a report with files grouped by modification date.
func FormatSummary(report *Report) string {
	byDate := make(map[string][]FileSummary)
	for _, f := range report.Files {
		date := f.Date
		if date == "" {
			date = "unknown"
		}
		byDate[date] = append(byDate[date], f)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var sb strings.Builder
	sb.WriteString("*Minutes Backfill Summary*\n")
	fmt.Fprintf(&sb, "%d analyzed (%d 商談, %d その他), %d failed, %d duplicates skipped\n",
		report.Analyzed, report.Sales, report.General, report.Failed, report.Duplicates)

	for _, date := range dates {
		files := byDate[date]
		fmt.Fprintf(&sb, "\n*%s* (%d files)\n", date, len(files))
		for _, f := range files {
			name := filepath.Base(f.Path)
			switch {
			case !f.Succeeded:
				fmt.Fprintf(&sb, "  - %s: failed (%s)\n", name, f.Details)
			case f.ParseFailed:
				fmt.Fprintf(&sb, "  - %s: %s, JSON parse failed\n", name, f.MeetingType)
			default:
				fmt.Fprintf(&sb, "  - %s: %s\n", name, f.MeetingType)
			}
		}
	}

	return sb.String()
}

// discoverFiles walks Dir for files whose base name matches Pattern and whose
// modification time is within [Since, Until]. The result is sorted.
func (r *Runner) discoverFiles() ([]string, error) {
	dir := expandHome(r.cfg.Dir)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	if _, err := filepath.Match(r.cfg.Pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", r.cfg.Pattern, err)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.logger.Warn("error walking backfill dir", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(r.cfg.Pattern, d.Name()); !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !r.inDateRange(info.ModTime()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func (r *Runner) inDateRange(t time.Time) bool {
	if !r.cfg.Since.IsZero() && t.Before(r.cfg.Since) {
		return false
	}
	if !r.cfg.Until.IsZero() && t.After(r.cfg.Until) {
		return false
	}
	return true
}

func modDate(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return info.ModTime().Format("2006-01-02")
}
