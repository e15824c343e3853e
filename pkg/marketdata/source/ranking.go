package source

import (
	"context"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-klines/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// monthlyInterval is Binance's one-month kline interval. It is only used for ranking and is
// not a sync interval.
const monthlyInterval = "1M"

// SymbolVolume is a symbol with its traded quote volume over the ranking window.
type SymbolVolume struct {
	Symbol      string          `json:"symbol"`
	QuoteVolume decimal.Decimal `json:"quoteVolume"`
}

// Ranker orders exchange symbols by how much they trade.
type Ranker struct {
	source *BinanceSource
	now    func() time.Time
}

// NewRanker creates a Ranker using the source's API client and rate limiter.
func NewRanker(source *BinanceSource) *Ranker {
	return &Ranker{
		source: source,
		now:    time.Now,
	}
}

// TopByQuoteVolume ranks the trading symbols quoted in quoteAsset by the sum of close*volume
// over the monthly klines of the last months months, and returns the n largest
// (all of them when n <= 0). Symbols whose klines cannot be fetched are skipped.
func (r *Ranker) TopByQuoteVolume(ctx context.Context, quoteAsset string, months int, n int) ([]SymbolVolume, error) {
	if months <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "months must be positive, got %d", months)
	}

	symbols, err := r.source.apiClient.ExchangeSymbols(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to fetch Binance exchange info", err)
	}

	since := r.now().UTC().AddDate(0, -months, 0)

	ranked := make([]SymbolVolume, 0, len(symbols))

	for _, s := range symbols {
		if s.QuoteAsset != quoteAsset || s.Status != "TRADING" {
			continue
		}

		if err := r.source.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		klines, err := r.source.apiClient.NewKlinesService().
			Symbol(s.Symbol).
			Interval(monthlyInterval).
			StartTime(since.UnixMilli()).
			Do(ctx)
		if err != nil {
			r.source.logger.Warn("Skipping symbol in ranking", zap.String("symbol", s.Symbol), zap.Error(err))

			continue
		}

		total := decimal.Zero

		for _, k := range klines {
			closePrice, err := decimal.NewFromString(k.Close)
			if err != nil {
				continue
			}

			volume, err := decimal.NewFromString(k.Volume)
			if err != nil {
				continue
			}

			total = total.Add(closePrice.Mul(volume))
		}

		ranked = append(ranked, SymbolVolume{Symbol: s.Symbol, QuoteVolume: total})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].QuoteVolume.GreaterThan(ranked[j].QuoteVolume)
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	return ranked, nil
}
