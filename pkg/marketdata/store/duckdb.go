package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-klines/internal/logger"
	"github.com/rxtech-lab/argo-klines/internal/types"
	"github.com/rxtech-lab/argo-klines/internal/version"
	"github.com/rxtech-lab/argo-klines/pkg/errors"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/gapfill"
	"go.uber.org/zap"
)

var candleColumns = []string{`"date"`, "open", "high", "low", "close", "volume", "currency_code"}

const (
	metaTable        = "klines_meta"
	schemaVersionKey = "schema_version"
)

// DuckDBStore keeps candles in one table per interval class, keyed by (currency_code, date).
type DuckDBStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType

	mu     sync.Mutex
	tables map[string]bool
}

// NewDuckDBStore opens the DuckDB database at path. An empty path opens an in-memory database.
func NewDuckDBStore(path string, log *logger.Logger) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open DuckDB database %q", path)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to connect to DuckDB database %q", path)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	d := &DuckDBStore{
		db:     db,
		logger: log.Named("duckdb_store"),
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		tables: make(map[string]bool),
	}

	if err := d.checkSchema(context.Background()); err != nil {
		db.Close()

		return nil, err
	}

	return d, nil
}

// checkSchema stamps a new database with the current schema version, or verifies that an
// existing database was written with a compatible one.
func (d *DuckDBStore) checkSchema(ctx context.Context) error {
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key VARCHAR PRIMARY KEY, value VARCHAR NOT NULL)`, metaTable)
	if _, err := d.db.ExecContext(ctx, create); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create metadata table", err)
	}

	query, args, err := d.sq.
		Select("value").
		From(metaTable).
		Where(squirrel.Eq{"key": schemaVersionKey}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	var stored string

	err = d.db.QueryRowContext(ctx, query, args...).Scan(&stored)
	if stderrors.Is(err, sql.ErrNoRows) {
		insert, args, err := d.sq.
			Insert(metaTable).
			Columns("key", "value").
			Values(schemaVersionKey, version.SchemaVersion).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert: %w", err)
		}

		if _, err := d.db.ExecContext(ctx, insert, args...); err != nil {
			return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to record schema version", err)
		}

		return nil
	}

	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to read schema version", err)
	}

	if err := version.CheckSchemaCompatibility(version.SchemaVersion, stored); err != nil {
		return errors.Wrap(errors.ErrCodeIncompatibleSchema, "incompatible DuckDB database", err)
	}

	return nil
}

// SchemaVersion returns the schema version recorded in the database.
func (d *DuckDBStore) SchemaVersion(ctx context.Context) (string, error) {
	query, args, err := d.sq.Select("value").From(metaTable).Where(squirrel.Eq{"key": schemaVersionKey}).ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build query: %w", err)
	}

	var stored string
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&stored); err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to read schema version", err)
	}

	return stored, nil
}

// EnsureTable creates the table of interval's class if it does not exist yet.
func (d *DuckDBStore) EnsureTable(ctx context.Context, interval types.Interval) error {
	if !interval.Valid() {
		return errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval: %s", interval)
	}

	table := interval.Table()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tables[table] {
		return nil
	}

	// Squirrel has no DDL support
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			"date" TIMESTAMP NOT NULL,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			currency_code VARCHAR NOT NULL,
			PRIMARY KEY (currency_code, "date")
		)
	`, quoteIdent(table))

	if _, err := d.db.ExecContext(ctx, query); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create table %s", table)
	}

	d.tables[table] = true

	return nil
}

// Load implements TimeSeriesStore.
func (d *DuckDBStore) Load(ctx context.Context, symbol string, interval types.Interval) ([]types.Candle, error) {
	if err := d.EnsureTable(ctx, interval); err != nil {
		return nil, err
	}

	query, args, err := d.sq.
		Select(candleColumns...).
		From(quoteIdent(interval.Table())).
		Where(squirrel.Eq{"currency_code": symbol}).
		OrderBy(`"date" ASC`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return d.query(ctx, query, args...)
}

// Append implements TimeSeriesStore. The whole batch is inserted in one transaction; a key
// collision rolls it back and returns an IntegrityError.
func (d *DuckDBStore) Append(ctx context.Context, series []types.Candle, symbol string, interval types.Interval) (int, error) {
	last, err := d.LastTimestamp(ctx, symbol, interval)
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

	table := interval.Table()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to begin transaction", err)
	}

	placeholders := make([]interface{}, len(candleColumns))

	query, _, err := d.sq.
		Insert(quoteIdent(table)).
		Columns(candleColumns...).
		Values(placeholders...).
		ToSql()
	if err != nil {
		tx.Rollback()

		return 0, fmt.Errorf("failed to build insert: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()

		return 0, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, c := range pending {
		if _, err = stmt.ExecContext(ctx, c.Time, c.Open, c.High, c.Low, c.Close, c.Volume, c.Symbol); err != nil {
			break
		}
	}

	if err != nil {
		tx.Rollback()

		if isConstraintViolation(err) {
			integrityErr := errors.NewIntegrityError(symbol, table, err)
			d.logger.Warn("Rejected batch violating table constraints",
				zap.String("symbol", symbol),
				zap.String("table", table),
				zap.Int("count", len(pending)),
				zap.Error(err),
			)

			return 0, integrityErr
		}

		return 0, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to insert %s candles into %s", symbol, table)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to commit %s candles into %s", symbol, table)
	}

	d.logger.Debug("Appended candles",
		zap.String("symbol", symbol),
		zap.String("table", table),
		zap.Int("count", len(pending)),
	)

	return len(pending), nil
}

// LastTimestamp implements TimeSeriesStore.
func (d *DuckDBStore) LastTimestamp(ctx context.Context, symbol string, interval types.Interval) (optional.Option[time.Time], error) {
	if err := d.EnsureTable(ctx, interval); err != nil {
		return optional.None[time.Time](), err
	}

	query, args, err := d.sq.
		Select(`MAX("date")`).
		From(quoteIdent(interval.Table())).
		Where(squirrel.Eq{"currency_code": symbol}).
		ToSql()
	if err != nil {
		return optional.None[time.Time](), fmt.Errorf("failed to build query: %w", err)
	}

	var last sql.NullTime
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&last); err != nil {
		return optional.None[time.Time](), errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read last timestamp of %s", symbol)
	}

	if !last.Valid {
		return optional.None[time.Time](), nil
	}

	return optional.Some(last.Time.UTC()), nil
}

// QueryRange implements TimeSeriesStore. Each symbol is seeded with its newest candle before
// begin so the first grid rows carry a value when one exists.
func (d *DuckDBStore) QueryRange(ctx context.Context, symbols []string, interval types.Interval, begin time.Time, end time.Time) (*gapfill.Frame, error) {
	grid, err := newQueryGrid(symbols, interval, begin, end)
	if err != nil {
		return nil, err
	}

	if err := d.EnsureTable(ctx, interval); err != nil {
		return nil, err
	}

	table := quoteIdent(interval.Table())

	query, args, err := d.sq.
		Select(candleColumns...).
		From(table).
		Where(squirrel.And{
			squirrel.Eq{"currency_code": symbols},
			squirrel.GtOrEq{`"date"`: grid.Begin},
			squirrel.LtOrEq{`"date"`: grid.End},
		}).
		OrderBy(`"date" ASC`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	candles, err := d.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	series := make(map[string][]types.Candle, len(symbols))

	for _, symbol := range symbols {
		seedQuery, seedArgs, err := d.sq.
			Select(candleColumns...).
			From(table).
			Where(squirrel.And{
				squirrel.Eq{"currency_code": symbol},
				squirrel.Lt{`"date"`: grid.Begin},
			}).
			OrderBy(`"date" DESC`).
			Limit(1).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build query: %w", err)
		}

		seed, err := d.query(ctx, seedQuery, seedArgs...)
		if err != nil {
			return nil, err
		}

		series[symbol] = seed
	}

	for _, candle := range candles {
		series[candle.Symbol] = append(series[candle.Symbol], candle)
	}

	return gapfill.BuildFrame(grid, symbols, series), nil
}

// Symbols lists the symbols stored for interval's class.
func (d *DuckDBStore) Symbols(ctx context.Context, interval types.Interval) ([]string, error) {
	if err := d.EnsureTable(ctx, interval); err != nil {
		return nil, err
	}

	query, args, err := d.sq.
		Select("DISTINCT currency_code").
		From(quoteIdent(interval.Table())).
		OrderBy("currency_code ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

// Close implements TimeSeriesStore.
func (d *DuckDBStore) Close() error {
	return d.db.Close()
}

func (d *DuckDBStore) query(ctx context.Context, query string, args ...interface{}) ([]types.Candle, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query candles", err)
	}
	defer rows.Close()

	candles := []types.Candle{}

	for rows.Next() {
		var c types.Candle

		if err := rows.Scan(&c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.Symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle", err)
		}

		c.Time = c.Time.UTC()
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate candles", err)
	}

	return candles, nil
}

// isConstraintViolation reports whether err is a DuckDB primary key or constraint failure.
func isConstraintViolation(err error) bool {
	var duckErr *duckdb.Error
	if stderrors.As(err, &duckErr) && duckErr.Type == duckdb.ErrorTypeConstraint {
		return true
	}

	return strings.Contains(err.Error(), "Constraint Error")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
