package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-klines/internal/types"
)

// DataGenerator produces synthetic kline series for tests. The same seed always yields
// the same series.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a DataGenerator seeded with seed.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig describes a synthetic kline series.
type GeneratorConfig struct {
	Symbol    string
	StartTime time.Time
	Interval  types.Interval
	Count     int
	// Price is the open of the first candle.
	Price float64
	// Sigma is the standard deviation of the log return of one candle.
	Sigma float64
	// Volume is the mean base asset volume of one candle.
	Volume float64
}

// DefaultConfig returns 1000 one-minute BTCUSDT-like candles from 2020-01-01.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:    "TESTUSDT",
		StartTime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:  types.IntervalOneMinute,
		Count:     1000,
		Price:     7200,
		Sigma:     0.001,
		Volume:    25,
	}
}

// Generate returns Count contiguous candles. Each candle opens at the previous close and
// its high and low bracket the open and close.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Candle {
	series := make([]types.Candle, 0, config.Count)
	bin := config.Interval.Duration()
	open := config.Price

	for i := range config.Count {
		close := open * math.Exp(config.Sigma*g.rng.NormFloat64())
		wick := open * config.Sigma * g.rng.ExpFloat64()

		series = append(series, types.Candle{
			Symbol: config.Symbol,
			Time:   config.StartTime.Add(time.Duration(i) * bin),
			Open:   round(open, 2),
			High:   round(math.Max(open, close)+wick/2, 2),
			Low:    round(math.Min(open, close)-wick/2, 2),
			Close:  round(close, 2),
			Volume: round(config.Volume*g.rng.ExpFloat64(), 6),
		})

		open = close
	}

	return series
}

// GenerateWithGaps returns a Generate series with each inner candle dropped with probability
// dropRate, as for bins without trades. The first and last candle are always kept.
func (g *DataGenerator) GenerateWithGaps(config GeneratorConfig, dropRate float64) []types.Candle {
	full := g.Generate(config)
	if len(full) <= 2 {
		return full
	}

	sparse := []types.Candle{full[0]}

	for _, candle := range full[1 : len(full)-1] {
		if g.rng.Float64() >= dropRate {
			sparse = append(sparse, candle)
		}
	}

	return append(sparse, full[len(full)-1])
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))

	return math.Round(v*scale) / scale
}
