package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-klines/internal/logger"
	"github.com/rxtech-lab/argo-klines/internal/types"
	"github.com/rxtech-lab/argo-klines/pkg/errors"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/gapfill"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/source"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/store"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/syncer"
)

// StoreType selects the store a sync writes into.
type StoreType string

const (
	StoreCSV    StoreType = "csv"
	StoreDuckDB StoreType = "duckdb"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	// StoreType is the store Sync writes into and Query reads from.
	StoreType StoreType `validate:"required,oneof=csv duckdb"`
	// DataPath is the directory of the CSV store.
	DataPath string `validate:"required"`
	// DatabasePath is the DuckDB database file. Empty opens an in-memory database.
	DatabasePath string
	Binance      source.BinanceConfig
	Sync         syncer.Config
}

// DefaultClientConfig returns a configuration syncing into CSV files under dataPath.
func DefaultClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		StoreType:    StoreCSV,
		DataPath:     dataPath,
		DatabasePath: "",
		Binance:      source.DefaultBinanceConfig(),
		Sync:         syncer.DefaultConfig(),
	}
}

// SyncParams holds the parameters of a single-symbol sync.
type SyncParams struct {
	Symbol   string `validate:"required"`
	Interval string `validate:"required"`
}

// SyncAllParams holds the parameters of a multi-symbol sync.
type SyncAllParams struct {
	Symbols  []string `validate:"required,min=1,dive,required"`
	Interval string   `validate:"required"`
}

// QueryParams holds the parameters of a range query.
type QueryParams struct {
	Symbols  []string  `validate:"required,min=1,dive,required"`
	Interval string    `validate:"required"`
	Start    time.Time `validate:"required"`
	End      time.Time `validate:"required,gtefield=Start"`
}

// TopParams holds the parameters of a symbol ranking.
type TopParams struct {
	QuoteAsset string `validate:"required"`
	Months     int    `validate:"min=1"`
	Limit      int    `validate:"min=0"`
}

// Client is the market data client: it syncs klines from Binance into the configured store
// and serves gap-filled range queries from it.
type Client struct {
	config   ClientConfig
	validate *validator.Validate
	logger   *logger.Logger

	ranker   *source.Ranker
	filler   *gapfill.Filler
	csvStore *store.CSVStore
	dbStore  *store.DuckDBStore
	syncer   *syncer.Syncer
}

// NewClient creates a new market data client backed by the Binance REST API.
func NewClient(config ClientConfig, log *logger.Logger) (*Client, error) {
	binanceSource, err := source.NewBinanceSource(config.Binance, log)
	if err != nil {
		return nil, err
	}

	client, err := NewClientWithSource(config, binanceSource, log)
	if err != nil {
		return nil, err
	}

	client.ranker = source.NewRanker(binanceSource)

	return client, nil
}

// NewClientWithSource creates a client on top of an existing kline source.
func NewClientWithSource(config ClientConfig, src source.KlineSource, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	csvStore, err := store.NewCSVStore(config.DataPath, log)
	if err != nil {
		return nil, err
	}

	dbStore, err := store.NewDuckDBStore(config.DatabasePath, log)
	if err != nil {
		return nil, err
	}

	client := &Client{
		config:   config,
		validate: validate,
		logger:   log.Named("marketdata"),
		filler:   gapfill.NewFiller(gapfill.DefaultConfig()),
		csvStore: csvStore,
		dbStore:  dbStore,
	}

	client.syncer, err = syncer.NewSyncer(src, client.primaryStore(), config.Sync, log)
	if err != nil {
		dbStore.Close()

		return nil, err
	}

	return client, nil
}

// OnProgress forwards sync progress to fn.
func (c *Client) OnProgress(fn syncer.ProgressFunc) {
	c.syncer.OnProgress(fn)
}

// CSVStore returns the CSV store of the client.
func (c *Client) CSVStore() *store.CSVStore {
	return c.csvStore
}

// DuckDBStore returns the DuckDB store of the client.
func (c *Client) DuckDBStore() *store.DuckDBStore {
	return c.dbStore
}

// Sync brings one symbol up to date in the configured store.
func (c *Client) Sync(ctx context.Context, params SyncParams) (*syncer.Result, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid sync parameters", err)
	}

	interval, err := parseInterval(params.Interval)
	if err != nil {
		return nil, err
	}

	return c.syncer.Sync(ctx, params.Symbol, interval)
}

// SyncAll brings several symbols up to date concurrently.
func (c *Client) SyncAll(ctx context.Context, params SyncAllParams) ([]*syncer.Result, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid sync parameters", err)
	}

	interval, err := parseInterval(params.Interval)
	if err != nil {
		return nil, err
	}

	return c.syncer.SyncAll(ctx, params.Symbols, interval)
}

// Query returns the stored candles of symbols on a shared grid, forward-filled per symbol.
func (c *Client) Query(ctx context.Context, params QueryParams) (*gapfill.Frame, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid query parameters", err)
	}

	interval, err := parseInterval(params.Interval)
	if err != nil {
		return nil, err
	}

	return c.primaryStore().QueryRange(ctx, params.Symbols, interval, params.Start, params.End)
}

// TopSymbols ranks the symbols quoted in params.QuoteAsset by recent quote volume.
func (c *Client) TopSymbols(ctx context.Context, params TopParams) ([]source.SymbolVolume, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid ranking parameters", err)
	}

	if c.ranker == nil {
		return nil, errors.New(errors.ErrCodeInvalidProvider, "symbol ranking requires the Binance source")
	}

	return c.ranker.TopByQuoteVolume(ctx, params.QuoteAsset, params.Months, params.Limit)
}

// Close releases the stores.
func (c *Client) Close() error {
	return errors.Join(c.csvStore.Close(), c.dbStore.Close())
}

func (c *Client) primaryStore() store.TimeSeriesStore {
	if c.config.StoreType == StoreDuckDB {
		return c.dbStore
	}

	return c.csvStore
}

func parseInterval(value string) (types.Interval, error) {
	interval, err := types.ParseInterval(value)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInterval, fmt.Sprintf("invalid interval %q", value), err)
	}

	return interval, nil
}
