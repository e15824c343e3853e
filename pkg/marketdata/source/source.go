package source

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-klines/internal/types"
)

// KlineSource fetches historical klines from an exchange.
type KlineSource interface {
	// FetchKlines returns the klines of symbol whose open time lies in [start, end],
	// ordered ascending by open time. An empty result is not an error.
	// example:
	// FetchKlines(ctx, "BTCUSDT", types.IntervalOneMinute, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC))
	FetchKlines(ctx context.Context, symbol string, interval types.Interval, start time.Time, end time.Time) ([]types.Candle, error)
}

// HorizonSource is implemented by sources that can report the newest kline they hold.
type HorizonSource interface {
	// LatestKlineTime returns the open time of the most recent kline of symbol.
	LatestKlineTime(ctx context.Context, symbol string, interval types.Interval) (time.Time, error)
}
