package types

import "time"

// Candle is one OHLCV kline. A candle is identified by (Symbol, Time) where Time is the
// open time of its bucket.
type Candle struct {
	Symbol string    `json:"symbol" csv:"currency_code"`
	Time   time.Time `json:"time" csv:"date"`
	Open   float64   `json:"open" csv:"open"`
	High   float64   `json:"high" csv:"high"`
	Low    float64   `json:"low" csv:"low"`
	Close  float64   `json:"close" csv:"close"`
	Volume float64   `json:"volume" csv:"volume"`
}

// Key returns the identity of the candle.
func (c Candle) Key() CandleKey {
	return CandleKey{Symbol: c.Symbol, Time: c.Time.UnixMilli()}
}

// At returns a copy of the candle moved to t.
func (c Candle) At(t time.Time) Candle {
	c.Time = t

	return c
}

// CandleKey identifies a stored candle.
type CandleKey struct {
	Symbol string
	Time   int64
}

// LastTime returns the open time of the newest candle, or the zero time for an empty series.
// The series must be sorted ascending.
func LastTime(series []Candle) time.Time {
	if len(series) == 0 {
		return time.Time{}
	}

	return series[len(series)-1].Time
}
