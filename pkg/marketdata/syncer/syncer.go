package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-klines/internal/logger"
	"github.com/rxtech-lab/argo-klines/internal/types"
	"github.com/rxtech-lab/argo-klines/pkg/errors"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/gapfill"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/source"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config configures a Syncer.
type Config struct {
	// OldestDate is where a symbol without stored data starts syncing.
	OldestDate time.Time `yaml:"oldest_date" json:"oldestDate" validate:"required"`
	// MaxBatchCandles bounds the number of candles requested per fetch window.
	MaxBatchCandles int `yaml:"max_batch_candles" json:"maxBatchCandles" validate:"min=1"`
	// Workers bounds the number of symbols synced concurrently by SyncAll.
	Workers int `yaml:"workers" json:"workers" validate:"min=1,max=64"`
}

// DefaultConfig returns the default sync configuration: history from 2020-01-01 in windows of
// 28800 candles (20 days of minutes).
func DefaultConfig() Config {
	return Config{
		OldestDate:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxBatchCandles: 28800,
		Workers:         4,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid syncer config", err)
	}

	return nil
}

// Result describes one sync run of a symbol.
type Result struct {
	RunID    uuid.UUID
	Symbol   string
	Interval types.Interval
	// Candles is the raw series fetched during the run, ascending.
	Candles []types.Candle
	// Batches is the number of fetch windows requested.
	Batches int
	// Written is the number of candles the store accepted.
	Written int
	// Skipped is the number of candles of batches the store rejected with an IntegrityError.
	Skipped int
	// From and To bound the range the run had to cover. From is after To when the symbol
	// was already up to date.
	From time.Time
	To   time.Time
}

// ProgressFunc receives the progress of a sync in grid points covered out of total.
type ProgressFunc func(symbol string, current float64, total float64)

// Syncer brings stored candle series up to date with a KlineSource.
type Syncer struct {
	source source.KlineSource
	store  store.TimeSeriesStore
	config Config
	logger *logger.Logger

	now        func() time.Time
	onProgress ProgressFunc

	mu      sync.Mutex
	running map[string]struct{}
}

// NewSyncer creates a Syncer writing what src returns into st.
func NewSyncer(src source.KlineSource, st store.TimeSeriesStore, config Config, log *logger.Logger) (*Syncer, error) {
	if src == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "kline source is required")
	}

	if st == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "time series store is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	config.OldestDate = config.OldestDate.UTC()

	return &Syncer{
		source:  src,
		store:   st,
		config:  config,
		logger:  log.Named("syncer"),
		now:     time.Now,
		running: make(map[string]struct{}),
	}, nil
}

// OnProgress registers fn to be called after every fetch window.
func (s *Syncer) OnProgress(fn ProgressFunc) {
	s.onProgress = fn
}

// Sync fetches every closed candle of symbol newer than the store's last timestamp up to the
// source's horizon, appending each window to the store as it arrives.
// Running it twice is harmless: the second run finds nothing left to fetch.
// On failure the returned Result still describes the windows completed before the error.
func (s *Syncer) Sync(ctx context.Context, symbol string, interval types.Interval) (*Result, error) {
	if symbol == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "symbol is required")
	}

	if !interval.Valid() {
		return nil, errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval: %s", interval)
	}

	key := symbol + "@" + string(interval)
	if !s.acquire(key) {
		return nil, errors.Newf(errors.ErrCodeSyncInProgress, "sync of %s is already running", key)
	}
	defer s.release(key)

	result := &Result{
		RunID:    uuid.New(),
		Symbol:   symbol,
		Interval: interval,
	}

	log := s.logger.With(
		zap.String("run_id", result.RunID.String()),
		zap.String("symbol", symbol),
		zap.String("interval", string(interval)),
	)

	bin := interval.Duration()

	last, err := s.store.LastTimestamp(ctx, symbol, interval)
	if err != nil {
		return nil, err
	}

	next := interval.Align(s.config.OldestDate)
	if last.IsSome() {
		next = last.Unwrap().Add(bin)
	}

	horizon, err := s.horizon(ctx, symbol, interval)
	if err != nil {
		return nil, err
	}

	result.From = next
	result.To = horizon

	if next.After(horizon) {
		log.Debug("Already up to date", zap.Time("horizon", horizon))

		return result, nil
	}

	total := float64(horizon.Sub(next)/bin + 1)
	candles := make([]types.Candle, 0, min(int(total), s.config.MaxBatchCandles))

	log.Info("Starting sync", zap.Time("from", next), zap.Time("to", horizon), zap.Float64("expected", total))

	for !next.After(horizon) {
		windowEnd := next.Add(time.Duration(s.config.MaxBatchCandles-1) * bin)
		if windowEnd.After(horizon) {
			windowEnd = horizon
		}

		raw, err := s.source.FetchKlines(ctx, symbol, interval, next, windowEnd)
		if err != nil {
			result.Candles = candles

			return result, errors.NewSourceUnavailableError(symbol, string(interval), next, windowEnd, err)
		}

		result.Batches++

		if len(raw) == 0 {
			log.Debug("Empty window", zap.Time("start", next), zap.Time("end", windowEnd))

			next = windowEnd.Add(bin)
			s.progress(symbol, result.From, next, bin, total)

			continue
		}

		batch := gapfill.Dedup(raw)

		newest := types.LastTime(batch)
		if newest.Before(next) {
			result.Candles = candles

			return result, errors.NewStalledSyncError(symbol, string(interval), next, newest)
		}

		batch = clip(batch, next, windowEnd)
		if len(batch) == 0 {
			next = windowEnd.Add(bin)
			s.progress(symbol, result.From, next, bin, total)

			continue
		}

		written, err := s.store.Append(ctx, batch, symbol, interval)
		switch {
		case errors.IsIntegrityError(err):
			log.Warn("Store rejected batch, continuing", zap.Int("count", len(batch)), zap.Error(err))

			result.Skipped += len(batch)
		case err != nil:
			result.Candles = candles

			return result, err
		}

		result.Written += written
		candles = append(candles, batch...)
		next = types.LastTime(batch).Add(bin)

		s.progress(symbol, result.From, next, bin, total)
	}

	result.Candles = candles

	log.Info("Sync finished",
		zap.Int("batches", result.Batches),
		zap.Int("fetched", len(candles)),
		zap.Int("written", result.Written),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

// SyncAll syncs symbols concurrently, at most Workers at a time. A failing symbol does not
// stop the others; the failures are joined into the returned error.
// results[i] belongs to the i-th distinct symbol.
func (s *Syncer) SyncAll(ctx context.Context, symbols []string, interval types.Interval) ([]*Result, error) {
	symbols = distinct(symbols)
	results := make([]*Result, len(symbols))
	failures := make([]error, len(symbols))

	var g errgroup.Group

	g.SetLimit(s.config.Workers)

	for i, symbol := range symbols {
		g.Go(func() error {
			result, err := s.Sync(ctx, symbol, interval)
			results[i] = result

			if err != nil {
				s.logger.Error("Sync failed", zap.String("symbol", symbol), zap.Error(err))
				failures[i] = fmt.Errorf("%s: %w", symbol, err)
			}

			return nil
		})
	}

	_ = g.Wait()

	return results, errors.Join(failures...)
}

// horizon returns the open time of the newest closed candle. The candle still being formed
// is left for a later run because appends never rewrite it.
func (s *Syncer) horizon(ctx context.Context, symbol string, interval types.Interval) (time.Time, error) {
	bin := interval.Duration()

	hs, ok := s.source.(source.HorizonSource)
	if !ok {
		return interval.Align(s.now()).Add(-bin), nil
	}

	latest, err := hs.LatestKlineTime(ctx, symbol, interval)
	if err != nil {
		now := s.now().UTC()

		return time.Time{}, errors.NewSourceUnavailableError(symbol, string(interval), now, now, err)
	}

	return interval.Align(latest).Add(-bin), nil
}

func (s *Syncer) progress(symbol string, from time.Time, next time.Time, bin time.Duration, total float64) {
	if s.onProgress == nil {
		return
	}

	s.onProgress(symbol, min(float64(next.Sub(from)/bin), total), total)
}

func (s *Syncer) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.running[key]; ok {
		return false
	}

	s.running[key] = struct{}{}

	return true
}

func (s *Syncer) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.running, key)
}

// clip keeps the candles of an ascending batch that lie in [start, end].
func clip(batch []types.Candle, start time.Time, end time.Time) []types.Candle {
	out := batch[:0:0]

	for _, candle := range batch {
		if candle.Time.Before(start) || candle.Time.After(end) {
			continue
		}

		out = append(out, candle)
	}

	return out
}

func distinct(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))

	for _, symbol := range symbols {
		if _, ok := seen[symbol]; ok {
			continue
		}

		seen[symbol] = struct{}{}
		out = append(out, symbol)
	}

	return out
}
