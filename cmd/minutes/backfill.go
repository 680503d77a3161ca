package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/minutes/internal/backfill"
	"github.com/MikeSquared-Agency/minutes/internal/config"
	"github.com/MikeSquared-Agency/minutes/internal/openai"
	"github.com/MikeSquared-Agency/minutes/internal/processor"
)

const dateLayout = "2006-01-02"

func newBackfillCommand() *cobra.Command {
	var (
		pattern   string
		since     string
		until     string
		dryRun    bool
		batchSize int
		pause     time.Duration
		statePath string
	)

	cmd := &cobra.Command{
		Use:   "backfill <dir>",
		Short: "Analyze every transcript file under a directory",
		Long: `backfill walks a directory for transcript files and analyzes each one that
has not been processed by an earlier run. Progress is kept in a state file so
an interrupted run resumes where it stopped; transcripts with identical
content are analyzed once. Outcomes go to the same sinks as serve (database,
NATS, Slack) when configured, and to RESULT_DIR when SAVE_RESULT=true.`,
		Example: `  minutes backfill ./transcripts
  minutes backfill ./transcripts --since 2025-01-01 --dry-run
  minutes backfill ./exports --pattern '*.vtt.txt' --batch-size 10 --pause 30s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bc := backfill.Config{
				Dir:       args[0],
				Pattern:   pattern,
				DryRun:    dryRun,
				BatchSize: batchSize,
				Pause:     pause,
				StatePath: statePath,
			}
			var err error
			if bc.Since, err = parseDate(since); err != nil {
				return fmt.Errorf("--since: %w", err)
			}
			if bc.Until, err = parseDate(until); err != nil {
				return fmt.Errorf("--until: %w", err)
			}
			if !bc.Until.IsZero() {
				bc.Until = bc.Until.Add(24*time.Hour - time.Nanosecond)
			}
			cmd.SilenceUsage = true
			return runBackfill(cmd, config.Load(), bc)
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "*.txt", "File name glob for transcripts")
	cmd.Flags().StringVar(&since, "since", "", "Only files modified on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "Only files modified on or before this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be analyzed without calling the model")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Pause after this many analyses (0 = never)")
	cmd.Flags().DurationVar(&pause, "pause", 30*time.Second, "Pause between batches")
	cmd.Flags().StringVar(&statePath, "state", "", "State file path (default <dir>/"+backfill.DefaultStateFile+")")

	return cmd
}

func runBackfill(cmd *cobra.Command, cfg config.Config, bc backfill.Config) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	logger := setupLogging(cfg.LogLevel, cmd.ErrOrStderr(), false)

	bc.SaveResult = cfg.SaveResult
	bc.ResultDir = cfg.ResultDir

	b, err := connectBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	llm := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	pipeline := processor.NewPipeline(llm, cfg.OpenAIModel, logger)
	proc := processor.New(pipeline, b.sinks(), logger)

	var poster backfill.SummaryPoster
	if b.poster != nil {
		poster = b.poster
	}

	report, err := backfill.NewRunner(bc, proc, poster, logger).Run(ctx)
	if report != nil {
		fprintf(out, "\n=== Backfill Summary ===\n")
		fprintf(out, "Files discovered: %d\n", report.Discovered)
		fprintf(out, "Analyzed: %d (商談 %d, その他 %d)\n", report.Analyzed, report.Sales, report.General)
		fprintf(out, "JSON parse failures: %d\n", report.ParseFails)
		fprintf(out, "Failed: %d\n", report.Failed)
		fprintf(out, "Skipped: %d\n", report.Skipped)
		fprintf(out, "Duplicates: %d\n", report.Duplicates)
		if bc.DryRun {
			fprintf(out, "Mode: DRY RUN (no model calls)\n")
		}
	}
	return err
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, s, time.Local)
}
