package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-klines/internal/logger"
	"github.com/rxtech-lab/argo-klines/internal/types"
	"github.com/rxtech-lab/argo-klines/pkg/errors"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/gapfill"
	"go.uber.org/zap"
)

const csvFileSuffix = "-data.csv"

// csvTimeLayouts are accepted when reading the date column. Files written by this
// package use the first one.
var csvTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// csvTime is the date column of a kline file.
type csvTime struct {
	time.Time
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (t csvTime) MarshalCSV() (string, error) {
	return t.UTC().Format(time.RFC3339), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (t *csvTime) UnmarshalCSV(value string) error {
	value = strings.TrimSpace(value)

	for _, layout := range csvTimeLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			t.Time = parsed.UTC()

			return nil
		}
	}

	return fmt.Errorf("unrecognised date %q", value)
}

// csvRow is one line of a kline file.
type csvRow struct {
	Date         csvTime `csv:"date"`
	Open         float64 `csv:"open"`
	High         float64 `csv:"high"`
	Low          float64 `csv:"low"`
	Close        float64 `csv:"close"`
	Volume       float64 `csv:"volume"`
	CurrencyCode string  `csv:"currency_code"`
}

func (r csvRow) candle(symbol string) types.Candle {
	if r.CurrencyCode != "" {
		symbol = r.CurrencyCode
	}

	return types.Candle{
		Symbol: symbol,
		Time:   r.Date.Time,
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
	}
}

func newCSVRow(c types.Candle) csvRow {
	return csvRow{
		Date:         csvTime{Time: c.Time},
		Open:         c.Open,
		High:         c.High,
		Low:          c.Low,
		Close:        c.Close,
		Volume:       c.Volume,
		CurrencyCode: c.Symbol,
	}
}

// CSVFileName returns the file name holding symbol at interval, e.g. BTCUSDT-1m-data.csv.
func CSVFileName(symbol string, interval types.Interval) string {
	return fmt.Sprintf("%s-%s%s", symbol, interval, csvFileSuffix)
}

// ParseCSVFileName splits a kline file name into its symbol and interval.
func ParseCSVFileName(name string) (string, types.Interval, bool) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, csvFileSuffix) {
		return "", "", false
	}

	stem := strings.TrimSuffix(base, csvFileSuffix)

	idx := strings.LastIndex(stem, "-")
	if idx <= 0 {
		return "", "", false
	}

	interval, err := types.ParseInterval(stem[idx+1:])
	if err != nil {
		return "", "", false
	}

	return stem[:idx], interval, true
}

// CSVEntry is one kline file of a CSVStore.
type CSVEntry struct {
	Symbol   string
	Interval types.Interval
	Path     string
}

// CSVStore keeps one CSV file per (symbol, interval) in a directory.
// The newest timestamp of each file is cached after its first read, so the store
// assumes it is the only writer of its directory.
type CSVStore struct {
	dir    string
	logger *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	last  map[string]optional.Option[time.Time]
}

// NewCSVStore creates a CSV store rooted at dir, creating the directory if needed.
func NewCSVStore(dir string, log *logger.Logger) (*CSVStore, error) {
	if dir == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "csv store directory is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create csv store directory %s", dir)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &CSVStore{
		dir:    dir,
		logger: log.Named("csv_store"),
		locks:  make(map[string]*sync.Mutex),
		last:   make(map[string]optional.Option[time.Time]),
	}, nil
}

// Dir returns the store directory.
func (s *CSVStore) Dir() string {
	return s.dir
}

// Path returns the file path of symbol at interval.
func (s *CSVStore) Path(symbol string, interval types.Interval) string {
	return filepath.Join(s.dir, CSVFileName(symbol, interval))
}

// Entries lists the kline files in the store directory, sorted by symbol then interval.
// Files that do not follow the naming scheme are ignored.
func (s *CSVStore) Entries() ([]CSVEntry, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+csvFileSuffix))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list csv files", err)
	}

	entries := make([]CSVEntry, 0, len(matches))

	for _, path := range matches {
		symbol, interval, ok := ParseCSVFileName(path)
		if !ok {
			s.logger.Debug("Ignoring csv file", zap.String("path", path))

			continue
		}

		entries = append(entries, CSVEntry{Symbol: symbol, Interval: interval, Path: path})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Symbol != entries[j].Symbol {
			return entries[i].Symbol < entries[j].Symbol
		}

		return entries[i].Interval.BinSize() < entries[j].Interval.BinSize()
	})

	return entries, nil
}

// Load implements TimeSeriesStore.
func (s *CSVStore) Load(ctx context.Context, symbol string, interval types.Interval) ([]types.Candle, error) {
	path := s.Path(symbol, interval)

	lock := s.lock(path)
	lock.Lock()
	defer lock.Unlock()

	series, err := s.read(ctx, path, symbol)
	if err != nil {
		return nil, err
	}

	s.remember(path, latest(series))

	return series, nil
}

// Append implements TimeSeriesStore. New files get a header; existing files are only
// ever extended.
func (s *CSVStore) Append(ctx context.Context, series []types.Candle, symbol string, interval types.Interval) (int, error) {
	path := s.Path(symbol, interval)

	lock := s.lock(path)
	lock.Lock()
	defer lock.Unlock()

	last, err := s.lastTime(ctx, path, symbol)
	if err != nil {
		return 0, err
	}

	pending, err := prepareAppend(series, symbol, interval, last)
	if err != nil {
		return 0, err
	}

	if len(pending) == 0 {
		return 0, nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to open %s", path)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to stat %s", path)
	}

	rows := make([]csvRow, 0, len(pending))
	for _, candle := range pending {
		rows = append(rows, newCSVRow(candle))
	}

	if info.Size() == 0 {
		err = gocsv.Marshal(rows, file)
	} else {
		err = gocsv.MarshalWithoutHeaders(rows, file)
	}

	if err != nil {
		s.forget(path)

		return 0, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to write %s", path)
	}

	s.remember(path, optional.Some(types.LastTime(pending)))

	s.logger.Debug("Appended candles",
		zap.String("path", path),
		zap.Int("count", len(pending)),
		zap.Time("last", types.LastTime(pending)),
	)

	return len(pending), nil
}

// LastTimestamp implements TimeSeriesStore.
func (s *CSVStore) LastTimestamp(ctx context.Context, symbol string, interval types.Interval) (optional.Option[time.Time], error) {
	path := s.Path(symbol, interval)

	lock := s.lock(path)
	lock.Lock()
	defer lock.Unlock()

	return s.lastTime(ctx, path, symbol)
}

// QueryRange implements TimeSeriesStore.
func (s *CSVStore) QueryRange(ctx context.Context, symbols []string, interval types.Interval, begin time.Time, end time.Time) (*gapfill.Frame, error) {
	grid, err := newQueryGrid(symbols, interval, begin, end)
	if err != nil {
		return nil, err
	}

	series := make(map[string][]types.Candle, len(symbols))

	for _, symbol := range symbols {
		candles, err := s.Load(ctx, symbol, interval)
		if err != nil {
			return nil, err
		}

		series[symbol] = candles
	}

	return gapfill.BuildFrame(grid, symbols, series), nil
}

// Close implements TimeSeriesStore.
func (s *CSVStore) Close() error {
	return nil
}

func (s *CSVStore) lock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[path] = lock
	}

	return lock
}

// lastTime returns the newest timestamp of path, decoding the file only on a cache miss.
// The caller holds the path lock.
func (s *CSVStore) lastTime(ctx context.Context, path string, symbol string) (optional.Option[time.Time], error) {
	s.mu.Lock()
	cached, ok := s.last[path]
	s.mu.Unlock()

	if ok {
		return cached, nil
	}

	series, err := s.read(ctx, path, symbol)
	if err != nil {
		return optional.None[time.Time](), err
	}

	last := latest(series)
	s.remember(path, last)

	return last, nil
}

func (s *CSVStore) remember(path string, last optional.Option[time.Time]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last[path] = last
}

func (s *CSVStore) forget(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.last, path)
}

// read decodes path, returning its candles deduplicated and ascending.
// The caller holds the path lock.
func (s *CSVStore) read(ctx context.Context, path string, symbol string) ([]types.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return []types.Candle{}, nil
	}

	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to open %s", path)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to stat %s", path)
	}

	if info.Size() == 0 {
		return []types.Candle{}, nil
	}

	var rows []csvRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse %s", path)
	}

	candles := make([]types.Candle, 0, len(rows))
	for _, row := range rows {
		candles = append(candles, row.candle(symbol))
	}

	deduped := gapfill.Dedup(candles)
	if deduped == nil {
		return []types.Candle{}, nil
	}

	return deduped, nil
}
