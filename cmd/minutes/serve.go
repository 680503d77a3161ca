package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/minutes/internal/api"
	"github.com/MikeSquared-Agency/minutes/internal/config"
	"github.com/MikeSquared-Agency/minutes/internal/hermes"
	"github.com/MikeSquared-Agency/minutes/internal/metrics"
	"github.com/MikeSquared-Agency/minutes/internal/openai"
	"github.com/MikeSquared-Agency/minutes/internal/processor"
	"github.com/MikeSquared-Agency/minutes/internal/store"
)

const subscriberQueue = "minutes"

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the NATS transcript subscriber",
		Long: `serve exposes POST /api/v1/analyses over HTTP. When NATS_URL is set it also
analyzes every transcript published on minutes.transcript.submitted and
publishes the outcome. DATABASE_URL and SLACK_BOT_TOKEN/SLACK_CHANNEL enable
persistence and Slack summaries.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runServe(cmd.Context(), config.Load())
		},
	}
}

func runServe(parent context.Context, cfg config.Config) error {
	logger := setupLogging(cfg.LogLevel, os.Stdout, true)
	logger.Info("minutes starting", "port", cfg.Port, "model", cfg.OpenAIModel)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OpenAIAPIKey == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	llm := m.InstrumentCompleter(openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL))
	logger.Info("openai client ready", "model", cfg.OpenAIModel, "base_url", cfg.OpenAIBaseURL)

	b, err := connectBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	var lookup api.Lookup
	if b.db != nil {
		lookup = b.db
		reg.MustRegister(store.NewPoolStatsCollector(b.db, "minutes"))
	}

	sinks := b.sinks()
	sinks.Metrics = m

	pipeline := processor.NewPipeline(llm, cfg.OpenAIModel, logger)
	proc := processor.New(pipeline, sinks, logger)

	if b.bus != nil {
		if err := b.bus.Subscribe(hermes.SubjectTranscriptSubmitted, subscriberQueue, proc.HandleTranscriptSubmitted); err != nil {
			return fmt.Errorf("subscribe transcripts: %w", err)
		}
	}

	srv := api.NewServer(cfg.APIToken, cfg.OpenAIModel, proc, lookup)
	srv.MountMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("minutes ready", "port", cfg.Port)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	logger.Info("minutes stopped")
	return nil
}
