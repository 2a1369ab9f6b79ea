// Package cmd wires configuration, sources and outputs into the pqrsdf-sla
// command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"pqrsdf-sla/config"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile      string
	casesPath    string
	holidaysPath string
)

var rootCmd = &cobra.Command{
	Use:   "pqrsdf-sla",
	Short: "SLA deadline and compliance indicators for PQRSDF cases",
	Long: `pqrsdf-sla classifies petitions, complaints, claims, suggestions and
reports by deadline urgency and computes SLA compliance indicators per area,
category or period, counting business days against a holiday calendar.`,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, TOML or JSON)")
	rootCmd.PersistentFlags().StringVar(&casesPath, "cases", "", "cases CSV file or URL (overrides source.cases_*)")
	rootCmd.PersistentFlags().StringVar(&holidaysPath, "holidays", "", "holidays CSV file or URL (overrides source.holidays_*)")

	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newServeCmd())
}

// setup loads configuration, applies source overrides and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	applySourceOverrides(&cfg.Source, casesPath, holidaysPath)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := cfg.InitLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func applySourceOverrides(src *config.SourceConfig, cases, holidays string) {
	if cases != "" {
		if isURL(cases) {
			src.CasesURL, src.CasesFile = cases, ""
		} else {
			src.CasesURL, src.CasesFile = "", cases
		}
	}
	if holidays != "" {
		if isURL(holidays) {
			src.HolidaysURL, src.HolidaysFile = holidays, ""
		} else {
			src.HolidaysURL, src.HolidaysFile = "", holidays
		}
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// now returns the current time in the configured SLA time zone, so that
// "today" matches the calendar date at the office.
func now(cfg *config.Config) time.Time {
	return time.Now().In(cfg.Location())
}

func fail(logger *zap.Logger, msg string, err error) error {
	if logger != nil {
		logger.Error(msg, zap.Error(err))
	}
	return fmt.Errorf("%s: %w", msg, err)
}
