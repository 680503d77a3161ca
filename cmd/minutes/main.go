package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/minutes/internal/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "minutes",
		Short: "Classify meeting transcripts and extract structured minutes",
		Long: `minutes sends a meeting transcript to an OpenAI-compatible chat completion
API, decides whether it is a sales meeting (商談) or another kind of meeting,
and extracts a structured JSON record for that meeting type.

Configuration is read from the environment and from a .env file in the
working directory.`,
	}

	root.AddCommand(newAnalyzeCommand())
	root.AddCommand(newServeCommand())
	root.AddCommand(newBackfillCommand())
	root.AddCommand(newEnvCommand())

	return root
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show the configuration environment with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Load()
			printEnvReport(cmd.OutOrStdout())
			return nil
		},
	}
}

func printEnvReport(w io.Writer) {
	printRule(w)
	fprintln(w, ".envファイルの内容:")
	printRule(w)
	for _, line := range config.EnvReport(os.Getenv) {
		fprintln(w, line)
	}
	printRule(w)
}

func setupLogging(level string, w io.Writer, jsonOutput bool) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
