package cmd

import (
	"context"
	"errors"
	"net/http"
	"pqrsdf-sla/dashboard"
	"pqrsdf-sla/jobs"
	"pqrsdf-sla/metrics"
	"pqrsdf-sla/models"
	"pqrsdf-sla/notify"
	"pqrsdf-sla/server"
	"pqrsdf-sla/source"
	"pqrsdf-sla/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	refreshJob = "refresh"
	notifyJob  = "notify"
)

func newServeCmd() *cobra.Command {
	var f filterFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API, refreshing on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), f)
		},
	}
	addFilterFlags(cmd, &f)
	return cmd
}

func runServe(ctx context.Context, f filterFlags) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts, err := buildOptions(cfg, f)
	if err != nil {
		return err
	}
	src, err := source.New(cfg.Source, logger)
	if err != nil {
		return err
	}
	builder := dashboard.NewBuilder(src, logger)

	var runs store.Store
	if cfg.Database.URL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.Database.URL, cfg.Database.Schema, logger)
		if err != nil {
			return fail(logger, "failed to open run history", err)
		}
		defer pg.Close()
		runs = pg
	}

	render := func(ctx context.Context, o dashboard.Options) (*models.Report, error) {
		return builder.Build(ctx, now(cfg), o)
	}
	srv := server.New(render, opts, runs, logger)

	scheduler := jobs.NewScheduler(cfg.Source.Timeout*2, logger)
	err = scheduler.Register(refreshJob, cfg.Schedule.Refresh, func(ctx context.Context) error {
		report, err := render(ctx, opts)
		if err != nil {
			return err
		}
		srv.SetReport(report)
		metrics.RecordReport(report)
		if runs != nil {
			return runs.SaveReport(ctx, report)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if cfg.Notify.SMTPHost != "" && cfg.Schedule.Notify != "" {
		buckets, err := notify.ParseBuckets(cfg.Notify.Buckets)
		if err != nil {
			return err
		}
		notifier := notify.NewNotifier(notify.NewSMTPSender(cfg.Notify), buckets, logger)
		err = scheduler.Register(notifyJob, cfg.Schedule.Notify, func(ctx context.Context) error {
			report := srv.Latest()
			if report == nil {
				logger.Warn("skipping digests: no report rendered yet")
				return nil
			}
			_, err := notifier.Notify(ctx, report)
			return err
		})
		if err != nil {
			return err
		}
	}

	// The first render happens before listening; a failure is logged by the
	// scheduler and retried on the next tick.
	_ = scheduler.RunNow(refreshJob)
	for _, job := range scheduler.ListJobs() {
		logger.Info("job scheduled", zap.String("job", job.Name), zap.String("schedule", job.Schedule))
	}
	scheduler.Start()
	defer scheduler.Stop()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fail(logger, "server error", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
