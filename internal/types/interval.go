package types

import (
	"fmt"
	"strings"
	"time"
)

// Interval is a kline interval in exchange notation.
type Interval string

const (
	IntervalOneMinute      Interval = "1m"
	IntervalThreeMinutes   Interval = "3m"
	IntervalFiveMinutes    Interval = "5m"
	IntervalFifteenMinutes Interval = "15m"
	IntervalThirtyMinutes  Interval = "30m"
	IntervalOneHour        Interval = "1h"
	IntervalTwoHours       Interval = "2h"
	IntervalFourHours      Interval = "4h"
	IntervalSixHours       Interval = "6h"
	IntervalEightHours     Interval = "8h"
	IntervalTwelveHours    Interval = "12h"
	IntervalOneDay         Interval = "1d"
)

var binSizes = map[Interval]int{
	IntervalOneMinute:      1,
	IntervalThreeMinutes:   3,
	IntervalFiveMinutes:    5,
	IntervalFifteenMinutes: 15,
	IntervalThirtyMinutes:  30,
	IntervalOneHour:        60,
	IntervalTwoHours:       120,
	IntervalFourHours:      240,
	IntervalSixHours:       360,
	IntervalEightHours:     480,
	IntervalTwelveHours:    720,
	IntervalOneDay:         1440,
}

// Intervals returns all supported intervals, shortest first.
func Intervals() []Interval {
	return []Interval{
		IntervalOneMinute, IntervalThreeMinutes, IntervalFiveMinutes, IntervalFifteenMinutes,
		IntervalThirtyMinutes, IntervalOneHour, IntervalTwoHours, IntervalFourHours,
		IntervalSixHours, IntervalEightHours, IntervalTwelveHours, IntervalOneDay,
	}
}

// ParseInterval validates s and returns it as an Interval.
func ParseInterval(s string) (Interval, error) {
	interval := Interval(strings.TrimSpace(s))
	if !interval.Valid() {
		return "", fmt.Errorf("unsupported interval: %q", s)
	}

	return interval, nil
}

// Valid reports whether the interval is supported.
func (i Interval) Valid() bool {
	_, ok := binSizes[i]

	return ok
}

// BinSize returns the number of minutes in one bin. Unknown intervals return 0.
func (i Interval) BinSize() int {
	return binSizes[i]
}

// Duration returns the grid step of the interval.
func (i Interval) Duration() time.Duration {
	return time.Duration(i.BinSize()) * time.Minute
}

// Table returns the relational table holding candles of this interval class.
func (i Interval) Table() string {
	switch i {
	case IntervalOneMinute:
		return "minutely"
	case IntervalOneHour:
		return "hourly"
	case IntervalOneDay:
		return "daily"
	default:
		return fmt.Sprintf("klines_%s", i)
	}
}

// Align rounds t down to the interval grid (UTC).
func (i Interval) Align(t time.Time) time.Time {
	step := i.Duration()
	if step <= 0 {
		return t.UTC()
	}

	return t.UTC().Truncate(step)
}

func (i Interval) String() string {
	return string(i)
}
