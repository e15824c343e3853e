package marketdata

import (
	"context"
	"fmt"
	"slices"

	"github.com/rxtech-lab/argo-klines/internal/types"
	"github.com/rxtech-lab/argo-klines/pkg/errors"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/gapfill"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/store"
	"go.uber.org/zap"
)

// PublishParams selects the CSV files copied into the database.
// Empty lists select everything.
type PublishParams struct {
	Symbols   []string `validate:"dive,required"`
	Intervals []string `validate:"dive,required"`
}

// PublishReport describes the publication of one CSV file.
type PublishReport struct {
	Symbol   string
	Interval types.Interval
	Table    string
	Read     int
	Written  int
	// Rejected is set when the database refused the file's rows with an IntegrityError.
	Rejected bool
}

// PublishCSV appends the contents of the CSV store to the DuckDB store. Only rows newer than
// what the database holds for a symbol are inserted, so publishing is repeatable.
// A failing file does not stop the others; failures are joined into the returned error.
func (c *Client) PublishCSV(ctx context.Context, params PublishParams) ([]PublishReport, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid publish parameters", err)
	}

	entries, err := c.csvStore.Entries()
	if err != nil {
		return nil, err
	}

	var (
		reports  []PublishReport
		failures []error
	)

	for _, entry := range entries {
		if !selected(params.Symbols, entry.Symbol) || !selected(params.Intervals, string(entry.Interval)) {
			continue
		}

		report, err := c.publishEntry(ctx, entry)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", entry.Path, err))

			continue
		}

		reports = append(reports, report)
	}

	return reports, errors.Join(failures...)
}

func (c *Client) publishEntry(ctx context.Context, entry store.CSVEntry) (PublishReport, error) {
	report := PublishReport{
		Symbol:   entry.Symbol,
		Interval: entry.Interval,
		Table:    entry.Interval.Table(),
	}

	candles, err := c.csvStore.Load(ctx, entry.Symbol, entry.Interval)
	if err != nil {
		return report, err
	}

	report.Read = len(candles)

	written, err := c.dbStore.Append(ctx, candles, entry.Symbol, entry.Interval)
	if errors.IsIntegrityError(err) {
		report.Rejected = true
	} else if err != nil {
		return report, err
	}

	report.Written = written

	c.logger.Info("Published csv file",
		zap.String("path", entry.Path),
		zap.String("table", report.Table),
		zap.Int("read", report.Read),
		zap.Int("written", report.Written),
	)

	return report, nil
}

// FillParams selects where FillCSVDirectory reads and writes.
type FillParams struct {
	SourceDir string `validate:"required"`
	DestDir   string `validate:"required,nefield=SourceDir"`
}

// FillReport describes the gap-filling of one CSV file.
type FillReport struct {
	Symbol   string
	Interval types.Interval
	Before   int
	After    int
	Written  int
}

// FillCSVDirectory gap-fills every kline file of SourceDir over the file's own time span at
// the interval named in its file name, and appends the dense series to DestDir.
func (c *Client) FillCSVDirectory(ctx context.Context, params FillParams) ([]FillReport, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid fill parameters", err)
	}

	src, err := store.NewCSVStore(params.SourceDir, c.logger)
	if err != nil {
		return nil, err
	}

	dst, err := store.NewCSVStore(params.DestDir, c.logger)
	if err != nil {
		return nil, err
	}

	entries, err := src.Entries()
	if err != nil {
		return nil, err
	}

	reports := make([]FillReport, 0, len(entries))

	for _, entry := range entries {
		candles, err := src.Load(ctx, entry.Symbol, entry.Interval)
		if err != nil {
			return reports, err
		}

		if len(candles) == 0 {
			c.logger.Debug("Skipping empty csv file", zap.String("path", entry.Path))

			continue
		}

		filled, err := c.filler.Fill(gapfill.FillRequest{
			Symbol: entry.Symbol,
			Points: candles,
			Begin:  entry.Interval.Align(candles[0].Time),
			End:    types.LastTime(candles),
			Step:   entry.Interval.Duration(),
		})
		if err != nil {
			return reports, err
		}

		written, err := dst.Append(ctx, filled, entry.Symbol, entry.Interval)
		if err != nil {
			return reports, err
		}

		report := FillReport{
			Symbol:   entry.Symbol,
			Interval: entry.Interval,
			Before:   len(candles),
			After:    len(filled),
			Written:  written,
		}
		reports = append(reports, report)

		c.logger.Info("Filled csv file",
			zap.String("path", entry.Path),
			zap.Int("before", report.Before),
			zap.Int("after", report.After),
		)
	}

	return reports, nil
}

func selected(allow []string, value string) bool {
	return len(allow) == 0 || slices.Contains(allow, value)
}
