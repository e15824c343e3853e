package source

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-klines/internal/logger"
	"github.com/rxtech-lab/argo-klines/internal/types"
	"github.com/rxtech-lab/argo-klines/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxKlinesPerRequest is the largest page the Binance klines endpoint returns.
const maxKlinesPerRequest = 1000

// BinanceKlinesService is the subset of the go-binance klines service used by BinanceSource.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Limit(limit int) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient is the subset of the go-binance client used by BinanceSource and Ranker.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
	ExchangeSymbols(ctx context.Context) ([]binance.Symbol, error)
}

// BinanceConfig configures the Binance kline source.
type BinanceConfig struct {
	ApiKey    string `yaml:"api_key" json:"apiKey"`
	SecretKey string `yaml:"api_secret_key" json:"secretKey"`
	// PageLimit is the number of klines requested per call.
	PageLimit int `yaml:"page_limit" json:"pageLimit" validate:"min=1,max=1000"`
	// RequestsPerMinute paces calls to the API. Zero disables pacing.
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requestsPerMinute" validate:"min=0"`
}

// DefaultBinanceConfig returns a public-data configuration.
func DefaultBinanceConfig() BinanceConfig {
	return BinanceConfig{
		ApiKey:            "",
		SecretKey:         "",
		PageLimit:         maxKlinesPerRequest,
		RequestsPerMinute: 600,
	}
}

// BinanceSource implements KlineSource and HorizonSource on the Binance spot klines endpoint.
type BinanceSource struct {
	apiClient BinanceAPIClient
	config    BinanceConfig
	limiter   *rate.Limiter
	logger    *logger.Logger
}

// NewBinanceSource creates a Binance source backed by the go-binance REST client.
func NewBinanceSource(config BinanceConfig, log *logger.Logger) (*BinanceSource, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid binance source config", err)
	}

	client := binance.NewClient(config.ApiKey, config.SecretKey)

	return NewBinanceSourceWithAPI(&binanceAPIAdapter{client: client}, config, log), nil
}

// NewBinanceSourceWithAPI creates a Binance source on top of an existing API client.
func NewBinanceSourceWithAPI(api BinanceAPIClient, config BinanceConfig, log *logger.Logger) *BinanceSource {
	if config.PageLimit <= 0 || config.PageLimit > maxKlinesPerRequest {
		config.PageLimit = maxKlinesPerRequest
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(config.RequestsPerMinute)/60.0), 1)
	}

	return &BinanceSource{
		apiClient: api,
		config:    config,
		limiter:   limiter,
		logger:    log.Named("binance"),
	}
}

// FetchKlines downloads the klines of symbol with open time in [start, end].
// Binance caps every response, so the range is paged: each page starts one millisecond after
// the previous page's last open time.
func (s *BinanceSource) FetchKlines(ctx context.Context, symbol string, interval types.Interval, start time.Time, end time.Time) ([]types.Candle, error) {
	if !interval.Valid() {
		return nil, errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval for Binance: %s", interval)
	}

	if end.Before(start) {
		return nil, nil
	}

	startMillis := start.UnixMilli()
	endMillis := end.UnixMilli()

	expected := int(end.Sub(start)/interval.Duration()) + 1
	candles := make([]types.Candle, 0, min(expected, 32*maxKlinesPerRequest))

	currentStart := startMillis

	for currentStart <= endMillis {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		klines, err := s.apiClient.NewKlinesService().
			Symbol(symbol).
			Interval(string(interval)).
			StartTime(currentStart).
			EndTime(endMillis).
			Limit(s.config.PageLimit).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s %s klines from Binance", symbol, interval)
		}

		page, err := convertKlines(symbol, klines)
		if err != nil {
			return nil, err
		}

		candles = append(candles, page...)

		s.logger.Debug("Fetched klines page",
			zap.String("symbol", symbol),
			zap.String("interval", string(interval)),
			zap.Int64("start", currentStart),
			zap.Int("count", len(klines)),
		)

		// a short page is the last page
		if len(klines) < s.config.PageLimit {
			break
		}

		currentStart = klines[len(klines)-1].OpenTime + 1
	}

	return candles, nil
}

// LatestKlineTime returns the open time of the newest kline Binance has for symbol.
func (s *BinanceSource) LatestKlineTime(ctx context.Context, symbol string, interval types.Interval) (time.Time, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return time.Time{}, err
	}

	klines, err := s.apiClient.NewKlinesService().
		Symbol(symbol).
		Interval(string(interval)).
		Limit(1).
		Do(ctx)
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch latest %s %s kline from Binance", symbol, interval)
	}

	if len(klines) == 0 {
		return time.Time{}, errors.Newf(errors.ErrCodeNoDataFound, "Binance returned no klines for %s %s", symbol, interval)
	}

	return time.UnixMilli(klines[len(klines)-1].OpenTime).UTC(), nil
}

// convertKlines converts Binance kline data to candles.
func convertKlines(symbol string, klines []*binance.Kline) ([]types.Candle, error) {
	out := make([]types.Candle, 0, len(klines))

	for _, k := range klines {
		values := [5]float64{}

		for i, raw := range [5]string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q for %s at %d", raw, symbol, k.OpenTime)
			}

			values[i] = v
		}

		out = append(out, types.Candle{
			Symbol: symbol,
			Time:   time.UnixMilli(k.OpenTime).UTC(), // Using OpenTime as the timestamp for the bar
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}

	return out, nil
}

// binanceAPIAdapter adapts *binance.Client to BinanceAPIClient.
type binanceAPIAdapter struct {
	client *binance.Client
}

func (a *binanceAPIAdapter) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesServiceAdapter{service: a.client.NewKlinesService()}
}

func (a *binanceAPIAdapter) ExchangeSymbols(ctx context.Context) ([]binance.Symbol, error) {
	info, err := a.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, err
	}

	return info.Symbols, nil
}

type binanceKlinesServiceAdapter struct {
	service *binance.KlinesService
}

func (a *binanceKlinesServiceAdapter) Symbol(symbol string) BinanceKlinesService {
	a.service.Symbol(symbol)

	return a
}

func (a *binanceKlinesServiceAdapter) Interval(interval string) BinanceKlinesService {
	a.service.Interval(interval)

	return a
}

func (a *binanceKlinesServiceAdapter) StartTime(startTime int64) BinanceKlinesService {
	a.service.StartTime(startTime)

	return a
}

func (a *binanceKlinesServiceAdapter) EndTime(endTime int64) BinanceKlinesService {
	a.service.EndTime(endTime)

	return a
}

func (a *binanceKlinesServiceAdapter) Limit(limit int) BinanceKlinesService {
	a.service.Limit(limit)

	return a
}

func (a *binanceKlinesServiceAdapter) Do(ctx context.Context) ([]*binance.Kline, error) {
	return a.service.Do(ctx)
}
