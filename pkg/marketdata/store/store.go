package store

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-klines/internal/types"
	"github.com/rxtech-lab/argo-klines/pkg/errors"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/gapfill"
)

// TimeSeriesStore persists candle series per (symbol, interval).
// Writes are monotonic: a store only ever appends candles newer than what it holds.
type TimeSeriesStore interface {
	// Load returns the stored series of symbol, ascending by time.
	// A symbol without data yields an empty series.
	Load(ctx context.Context, symbol string, interval types.Interval) ([]types.Candle, error)
	// Append deduplicates series by timestamp (last wins), keeps only candles strictly
	// newer than LastTimestamp and writes them in ascending order.
	// It returns the number of candles written.
	Append(ctx context.Context, series []types.Candle, symbol string, interval types.Interval) (int, error)
	// LastTimestamp returns the newest stored timestamp of symbol, or None when nothing is stored.
	LastTimestamp(ctx context.Context, symbol string, interval types.Interval) (optional.Option[time.Time], error)
	// QueryRange reindexes symbols onto the shared grid [begin, end] at the interval step,
	// forward-filling every symbol independently.
	QueryRange(ctx context.Context, symbols []string, interval types.Interval, begin time.Time, end time.Time) (*gapfill.Frame, error)
	// Close releases the resources held by the store.
	Close() error
}

// prepareAppend validates series and returns the candles an append must write:
// deduplicated, strictly newer than last and ascending.
func prepareAppend(series []types.Candle, symbol string, interval types.Interval, last optional.Option[time.Time]) ([]types.Candle, error) {
	if symbol == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "symbol is required")
	}

	if !interval.Valid() {
		return nil, errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval: %s", interval)
	}

	normalized := make([]types.Candle, 0, len(series))

	for _, candle := range series {
		switch candle.Symbol {
		case "":
			candle.Symbol = symbol
		case symbol:
		default:
			return nil, errors.Newf(errors.ErrCodeInvalidParameter, "candle of %s appended to %s series", candle.Symbol, symbol)
		}

		candle.Time = candle.Time.UTC()
		normalized = append(normalized, candle)
	}

	deduped := gapfill.Dedup(normalized)
	if last.IsNone() {
		return deduped, nil
	}

	cutoff := last.Unwrap()

	// deduped is ascending, so everything after the first newer candle is newer too
	for i, candle := range deduped {
		if candle.Time.After(cutoff) {
			return deduped[i:], nil
		}
	}

	return nil, nil
}

// newQueryGrid builds the grid a range query is reindexed onto.
func newQueryGrid(symbols []string, interval types.Interval, begin time.Time, end time.Time) (gapfill.TimeGrid, error) {
	if len(symbols) == 0 {
		return gapfill.TimeGrid{}, errors.New(errors.ErrCodeMissingParameter, "at least one symbol is required")
	}

	if !interval.Valid() {
		return gapfill.TimeGrid{}, errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval: %s", interval)
	}

	return gapfill.NewTimeGrid(begin, end, interval.Duration())
}

// latest returns the newest timestamp of an ascending series.
func latest(series []types.Candle) optional.Option[time.Time] {
	if len(series) == 0 {
		return optional.None[time.Time]()
	}

	return optional.Some(types.LastTime(series))
}
