package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docoutline/internal/api"
	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/pipeline"
)

const (
	statsWindow = 15 * time.Minute
	runTTL      = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API server.

Endpoints:
  GET  /health          liveness check
  POST /api/outline     multipart "file" -> outline JSON
  POST /api/analyze     multipart "files", "persona", "job" -> analysis JSON
  GET  /api/stats       rolling processing latency
  GET  /api/runs/{id}   per-document report of a recent request

When api_key is set, /api routes require "Authorization: Bearer <key>".
Changes to log_level in the config file apply without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd); err != nil {
			return err
		}
		ctx := cmd.Context()

		stats := pipeline.NewLatencyStats(statsWindow)
		runs := pipeline.NewRunStore(runTTL)
		proc := pipeline.NewProcessor(cfg, logger, stats)
		srv := api.NewServer(proc, runs, stats, logger, cfg)

		config.Watch(v, logger, func(c config.Config) {
			if level, err := config.ParseLevel(c.LogLevel); err == nil {
				logLevel.Set(level)
			}
		})
		go cleanupRuns(ctx, runs)

		httpServer := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      srv,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			logger.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
		}()

		logger.Info("starting docoutline", "port", cfg.Port, "auth", cfg.APIKey != "", "ocr", cfg.OCREnabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func cleanupRuns(ctx context.Context, runs *pipeline.RunStore) {
	ticker := time.NewTicker(runTTL / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runs.Cleanup()
		}
	}
}

func init() {
	serveCmd.Flags().String("port", "", "port to listen on")
	serveCmd.Flags().Bool("no-ocr", false, "disable the OCR title fallback")
	rootCmd.AddCommand(serveCmd)
}
