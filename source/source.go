// Package source fetches the raw case and holiday sheets. A Source is an
// explicitly constructed handle passed to whoever needs data; nothing in this
// package keeps process-wide state.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"pqrsdf-sla/config"
	"pqrsdf-sla/metrics"
	"pqrsdf-sla/models"
	"pqrsdf-sla/parser"
	"time"

	"go.uber.org/zap"
)

// Source provides raw case and holiday records.
type Source interface {
	Cases(ctx context.Context) ([]models.RawRecord, error)
	Holidays(ctx context.Context) ([]models.RawRecord, error)
}

// FileSource reads both sheets from local CSV files. An empty HolidaysPath
// means no holidays.
type FileSource struct {
	CasesPath    string
	HolidaysPath string
}

// NewFileSource creates a FileSource.
func NewFileSource(casesPath, holidaysPath string) *FileSource {
	return &FileSource{CasesPath: casesPath, HolidaysPath: holidaysPath}
}

func (s *FileSource) Cases(ctx context.Context) ([]models.RawRecord, error) {
	return readFile(ctx, "cases", s.CasesPath)
}

func (s *FileSource) Holidays(ctx context.Context) ([]models.RawRecord, error) {
	if s.HolidaysPath == "" {
		return []models.RawRecord{}, nil
	}
	return readFile(ctx, "holidays", s.HolidaysPath)
}

func readFile(ctx context.Context, sheet, path string) ([]models.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		metrics.SourceFetchDurationSeconds.WithLabelValues(sheet).Observe(time.Since(start).Seconds())
	}()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s file: %w", sheet, err)
	}
	defer file.Close()

	records, err := parser.ReadRecords(file)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s file: %w", sheet, err)
	}
	return records, nil
}

// SheetSource downloads both sheets as CSV over HTTP, e.g. from a
// spreadsheet's "export?format=csv" URL. An empty HolidaysURL means no
// holidays.
type SheetSource struct {
	CasesURL    string
	HolidaysURL string

	client *http.Client
	logger *zap.Logger
}

// NewSheetSource creates a SheetSource whose requests are bounded by timeout.
func NewSheetSource(casesURL, holidaysURL string, timeout time.Duration, logger *zap.Logger) *SheetSource {
	return &SheetSource{
		CasesURL:    casesURL,
		HolidaysURL: holidaysURL,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

func (s *SheetSource) Cases(ctx context.Context) ([]models.RawRecord, error) {
	return s.fetch(ctx, "cases", s.CasesURL)
}

func (s *SheetSource) Holidays(ctx context.Context) ([]models.RawRecord, error) {
	if s.HolidaysURL == "" {
		return []models.RawRecord{}, nil
	}
	return s.fetch(ctx, "holidays", s.HolidaysURL)
}

func (s *SheetSource) fetch(ctx context.Context, sheet, url string) ([]models.RawRecord, error) {
	start := time.Now()
	defer func() {
		metrics.SourceFetchDurationSeconds.WithLabelValues(sheet).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error building %s request: %w", sheet, err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", sheet, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%s sheet returned status %d", sheet, resp.StatusCode)
	}

	records, err := parser.ReadRecords(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s sheet: %w", sheet, err)
	}

	s.logger.Debug("sheet fetched",
		zap.String("sheet", sheet),
		zap.Int("records", len(records)),
		zap.Duration("duration", time.Since(start)))
	return records, nil
}

// New picks the source described by cfg: URLs when a cases URL is set,
// local files otherwise.
func New(cfg config.SourceConfig, logger *zap.Logger) (Source, error) {
	switch {
	case cfg.CasesURL != "":
		return NewSheetSource(cfg.CasesURL, cfg.HolidaysURL, cfg.Timeout, logger), nil
	case cfg.CasesFile != "":
		return NewFileSource(cfg.CasesFile, cfg.HolidaysFile), nil
	default:
		return nil, fmt.Errorf("no case source configured: set source.cases_url or source.cases_file")
	}
}
