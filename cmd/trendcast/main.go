// Package main provides the trendcast CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"trendcast/internal/adapter/storage"
	"trendcast/internal/config"
	"trendcast/internal/display"
	"trendcast/internal/server"
	"trendcast/internal/service/listening"
	"trendcast/internal/service/scheduler"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// overrides are CLI flags that take precedence over the environment
type overrides struct {
	dataDir string
	outDir  string
	topN    int
}

func (o overrides) apply(cfg *config.Config) {
	if o.dataDir != "" {
		cfg.Pipeline.DataDir = o.dataDir
	}
	if o.outDir != "" {
		cfg.Pipeline.PredictionsDir = o.outDir
	}
	if o.topN > 0 {
		cfg.Pipeline.TopN = o.topN
	}
}

// newRootCmd creates the root command for the trendcast CLI.
func newRootCmd() *cobra.Command {
	var o overrides

	rootCmd := &cobra.Command{
		Use:           "trendcast",
		Short:         "Predict trending hashtags from social media posts",
		Long:          "Trendcast scores raw Instagram, TikTok and Facebook posts into ranked hashtag trend predictions.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.SetVersionTemplate("trendcast version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&o.dataDir, "data-dir", "", "Directory holding the raw platform files (default $DATA_DIR or data)")
	rootCmd.PersistentFlags().StringVar(&o.outDir, "out-dir", "", "Directory the predictions are written to (default $PREDICTIONS_DIR or predictions)")
	rootCmd.PersistentFlags().IntVar(&o.topN, "top", 0, "Trends kept per ranking (default $TREND_TOP_N or 10)")

	rootCmd.AddCommand(newPredictCmd(&o))
	rootCmd.AddCommand(newScheduleCmd(&o))
	rootCmd.AddCommand(newServeCmd(&o))

	return rootCmd
}

// loadConfig reads the configuration and builds the logger
func loadConfig(o *overrides) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	o.apply(&cfg)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	return cfg, logger, nil
}

func newPredictor(cfg config.Config, logger *slog.Logger) (*listening.TrendPredictor, *storage.FileStore) {
	source := storage.NewPostSource(cfg.Pipeline.DataDir, logger)
	files := storage.NewFileStore(cfg.Pipeline.PredictionsDir, logger)
	predictor := listening.NewTrendPredictor(
		source,
		files,
		listening.TrendPredictorConfig{
			TopN:     cfg.Pipeline.TopN,
			HalfLife: cfg.Pipeline.HalfLifeHours,
		},
		logger,
	)
	return predictor, files
}

// newPredictCmd creates the predict subcommand, the one-shot batch run.
func newPredictCmd(o *overrides) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run the prediction pipeline once",
		Long:  "Read the raw platform files, score hashtags and write the four prediction files.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(o)
			if err != nil {
				return err
			}

			predictor, files := newPredictor(cfg, logger)
			result, err := predictor.Run(cmd.Context())
			if err != nil {
				return err
			}

			if !quiet {
				fmt.Fprint(cmd.OutOrStdout(), display.NewSummaryFormatter(cfg.Pipeline.TopN).Format(result))
				fmt.Fprintf(cmd.OutOrStdout(), "\nPredictions saved in %s\n", files.Dir())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the summary")

	return cmd
}

// newScheduleCmd creates the schedule subcommand.
func newScheduleCmd(o *overrides) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Rerun the pipeline periodically and archive every run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(o)
			if err != nil {
				return err
			}
			if interval > 0 {
				cfg.Scheduler.Interval = interval
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			predictor, _ := newPredictor(cfg, logger)
			deps, err := connectBackends(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			sched := newScheduler(cfg, predictor, deps, logger)
			if err := sched.Start(ctx); err != nil {
				return err
			}
			logger.Info("scheduler started", "interval", cfg.Scheduler.Interval)

			<-ctx.Done()
			logger.Info("shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return sched.Stop(shutdownCtx)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between runs (default $SCHEDULER_INTERVAL or 24h)")

	return cmd
}

// newServeCmd creates the serve subcommand.
func newServeCmd(o *overrides) *cobra.Command {
	var withScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prediction files over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(o)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			predictor, files := newPredictor(cfg, logger)
			deps, err := connectBackends(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			sched := newScheduler(cfg, predictor, deps, logger)
			if withScheduler {
				if err := sched.Start(ctx); err != nil {
					return err
				}
			}

			srvDeps := server.Dependencies{
				Artifacts:     files,
				Runner:        sched,
				EventsSubject: deps.eventsSubject,
				Logger:        logger,
			}
			if deps.nats != nil {
				srvDeps.Events = deps.nats
			}
			httpServer := server.NewServer(cfg.Server, srvDeps)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting HTTP server", "host", cfg.Server.Host, "port", cfg.Server.Port)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutdown signal received")
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("HTTP server error: %w", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", "error", err)
			}
			if withScheduler {
				if err := sched.Stop(shutdownCtx); err != nil {
					logger.Error("scheduler shutdown error", "error", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withScheduler, "schedule", false, "Also rerun the pipeline on the scheduler interval")

	return cmd
}

func newScheduler(
	cfg config.Config,
	predictor *listening.TrendPredictor,
	deps *backends,
	logger *slog.Logger,
) *scheduler.Scheduler {
	var store scheduler.RunStore
	if deps.store != nil {
		store = deps.store
	}
	var publisher scheduler.EventPublisher
	if deps.publisher != nil {
		publisher = deps.publisher
	}

	return scheduler.NewScheduler(
		predictor,
		store,
		publisher,
		scheduler.Config{
			Interval:   cfg.Scheduler.Interval,
			ArchiveRaw: cfg.Scheduler.ArchiveRaw,
			Retry: scheduler.RetryPolicy{
				Attempts: uint(cfg.Scheduler.RetryAttempts),
				Delay:    cfg.Scheduler.RetryDelay,
				MaxDelay: cfg.Scheduler.RetryMaxDelay,
			},
		},
		logger,
	)
}
