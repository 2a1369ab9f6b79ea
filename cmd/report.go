package cmd

import (
	"context"
	"fmt"
	"os"
	"pqrsdf-sla/config"
	"pqrsdf-sla/dashboard"
	"pqrsdf-sla/formatter"
	"pqrsdf-sla/metrics"
	"pqrsdf-sla/models"
	"pqrsdf-sla/notify"
	"pqrsdf-sla/source"
	"pqrsdf-sla/store"

	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type reportFlags struct {
	filterFlags
	asOf    string
	format  string
	output  string
	store   bool
	notify  bool
	pushURL string
}

func newReportCmd() *cobra.Command {
	var f reportFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render compliance indicators once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.asOf, "as-of", "", "evaluate deadlines as of this date (YYYY-MM-DD, default today)")
	flags.StringVar(&f.format, "format", formatter.FormatNameText, "output format: text|json|csv|xlsx")
	flags.StringVarP(&f.output, "output", "o", "", "write output to file instead of stdout")
	flags.BoolVar(&f.store, "store", false, "save the run to the database configured in database.url")
	flags.BoolVar(&f.notify, "notify", false, "email per-area digests of cases that need attention")
	flags.StringVar(&f.pushURL, "push-url", "", "Pushgateway URL to push metrics to (overrides metrics.push_url)")
	addFilterFlags(cmd, &f.filterFlags)

	return cmd
}

func addFilterFlags(cmd *cobra.Command, f *filterFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.groupBy, "group-by", string(models.GroupByArea), "group indicators by: area|category|period")
	flags.IntSliceVar(&f.years, "year", nil, "only cases filed in these years")
	flags.StringSliceVar(&f.months, "month", nil, "only cases filed in these months (number or Spanish name)")
	flags.StringSliceVar(&f.categories, "category", nil, "only these categories")
	flags.StringSliceVar(&f.areas, "area", nil, "only these areas")
	flags.StringSliceVar(&f.buckets, "bucket", nil, "only cases in these urgency buckets")
	flags.BoolVar(&f.allCategories, "all-categories", false, "count every category toward compliance, not only sla.categories")
}

func runReport(ctx context.Context, f reportFlags) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts, err := buildOptions(cfg, f.filterFlags)
	if err != nil {
		return err
	}
	asOf, err := parseAsOf(f.asOf, now(cfg))
	if err != nil {
		return err
	}

	src, err := source.New(cfg.Source, logger)
	if err != nil {
		return err
	}
	report, err := dashboard.NewBuilder(src, logger).Build(ctx, asOf, opts)
	if err != nil {
		return fail(logger, "render failed", err)
	}
	metrics.RecordReport(report)

	out, err := formatter.Format(report, f.format)
	if err != nil {
		return err
	}
	if err := writeOutput(f.output, out); err != nil {
		return fail(logger, "failed to write output", err)
	}

	if f.store {
		if err := storeReport(ctx, cfg, report, logger); err != nil {
			return fail(logger, "failed to store run", err)
		}
	}

	if f.notify {
		if err := notifyReport(ctx, cfg, report, logger); err != nil {
			return fail(logger, "failed to send digests", err)
		}
	}

	pushURL := f.pushURL
	if pushURL == "" {
		pushURL = cfg.Metrics.PushURL
	}
	if pushURL != "" {
		if err := push.New(pushURL, "pqrsdf_sla").Gatherer(metrics.Registry).Push(); err != nil {
			logger.Warn("error pushing to Pushgateway", zap.String("url", pushURL), zap.Error(err))
		} else {
			logger.Info("metrics pushed to Pushgateway", zap.String("url", pushURL))
		}
	}
	return nil
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func storeReport(ctx context.Context, cfg *config.Config, report *models.Report, logger *zap.Logger) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is not set")
	}
	s, err := store.NewPostgresStore(ctx, cfg.Database.URL, cfg.Database.Schema, logger)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveReport(ctx, report)
}

func notifyReport(ctx context.Context, cfg *config.Config, report *models.Report, logger *zap.Logger) error {
	buckets, err := notify.ParseBuckets(cfg.Notify.Buckets)
	if err != nil {
		return err
	}
	n := notify.NewNotifier(notify.NewSMTPSender(cfg.Notify), buckets, logger)
	_, err = n.Notify(ctx, report)
	return err
}
