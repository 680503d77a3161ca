package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/minutes/internal/config"
	"github.com/MikeSquared-Agency/minutes/internal/openai"
	"github.com/MikeSquared-Agency/minutes/internal/processor"
)

const ruleWidth = 50

var errEmptyFile = errors.New("エラー: 文字起こしテキストが空です")

func newAnalyzeCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a transcript file and print the result envelope",
		Example: `  minutes analyze transcript.txt
  minutes analyze sample_sales.txt -o yaml
  SAVE_RESULT=true minutes analyze sample_meeting.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output format %q (json|yaml)", output)
			}
			cmd.SilenceUsage = true
			return runAnalyze(cmd, config.Load(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")

	return cmd
}

func runAnalyze(cmd *cobra.Command, cfg config.Config, path, output string) error {
	out := cmd.OutOrStdout()
	logger := setupLogging(cfg.LogLevel, cmd.ErrOrStderr(), false)

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ファイル読み込みエラー: %w", err)
	}
	transcript := string(b)
	fprintf(out, "ファイル \"%s\" から文字起こしを読み込みました\n", path)

	if strings.TrimSpace(transcript) == "" {
		return errEmptyFile
	}

	printEnvReport(out)
	fprintln(out, "文字起こし分析を開始します...")
	printRule(out)

	llm := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	pipeline := processor.NewPipeline(llm, cfg.OpenAIModel, logger)
	proc := processor.New(pipeline, processor.Sinks{}, logger)

	outcome, err := proc.Process(cmd.Context(), transcript, path)
	if errors.Is(err, processor.ErrEmptyTranscript) {
		return errEmptyFile
	}
	if err != nil {
		return err
	}

	fprintln(out)
	printRule(out)
	fprintln(out, "分析結果:")
	printRule(out)
	if err := writeOutcome(out, outcome, output); err != nil {
		return err
	}

	if cfg.SaveResult {
		saved, err := processor.SaveResult(cfg.ResultDir, outcome)
		if err != nil {
			return err
		}
		fprintf(out, "\n結果を %s に保存しました\n", saved)
	}
	return nil
}

func writeOutcome(w io.Writer, o *processor.Outcome, output string) error {
	if output == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(o); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}

	b, err := processor.EncodeIndent(o)
	if err != nil {
		return err
	}
	fprintln(w, string(b))
	return nil
}

func printRule(w io.Writer) {
	fprintln(w, strings.Repeat("=", ruleWidth))
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func fprintf(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, format, a...)
}
