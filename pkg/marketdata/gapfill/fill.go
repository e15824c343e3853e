package gapfill

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-klines/internal/types"
	"github.com/rxtech-lab/argo-klines/pkg/errors"
)

// Config holds the immutable settings of a Filler.
type Config struct {
	// DefaultStep is used when a FillRequest does not carry its own step.
	DefaultStep time.Duration
}

// DefaultConfig fills minute grids unless told otherwise.
func DefaultConfig() Config {
	return Config{DefaultStep: time.Minute}
}

// FillRequest describes one gap-fill operation.
type FillRequest struct {
	// Symbol is stamped on every output candle. When empty the symbol of the source point is kept.
	Symbol string
	// Points is the raw series. It may be unsorted, sparse or contain duplicate timestamps.
	Points []types.Candle
	Begin  time.Time
	End    time.Time
	// Step is the grid frequency. Zero means Config.DefaultStep.
	Step time.Duration
	// Fallback is used for every grid point when Points is empty.
	Fallback optional.Option[types.Candle]
}

// Filler produces dense candle series on a uniform grid.
type Filler struct {
	config Config
}

// NewFiller creates a Filler.
func NewFiller(config Config) *Filler {
	return &Filler{config: config}
}

// Fill reindexes the request's points onto the grid [Begin, End] and fills every missing
// grid point:
//
//   - points between two known values are linearly interpolated by time
//   - points before the first known value take that value (back-fill)
//   - points after the last known value keep the last value
//
// Duplicate timestamps are resolved last-write-wins. Known points outside the grid are
// still used as interpolation anchors.
func (f *Filler) Fill(req FillRequest) ([]types.Candle, error) {
	step := req.Step
	if step == 0 {
		step = f.config.DefaultStep
	}

	grid, err := NewTimeGrid(req.Begin, req.End, step)
	if err != nil {
		return nil, err
	}

	known := Dedup(req.Points)
	out := make([]types.Candle, grid.Len())

	if len(known) == 0 {
		if req.Fallback.IsNone() {
			return nil, errors.NewInsufficientDataErrorf(1, 0, req.Symbol,
				"cannot fill %d grid points for %q: no data and no fallback value", grid.Len(), req.Symbol)
		}

		fallback := req.Fallback.Unwrap()
		for i := range out {
			out[i] = stamp(fallback, req.Symbol, grid.At(i))
		}

		return out, nil
	}

	for i := range out {
		t := grid.At(i)
		// first known point at or after t
		next := sort.Search(len(known), func(j int) bool {
			return !known[j].Time.Before(t)
		})

		switch {
		case next < len(known) && known[next].Time.Equal(t):
			out[i] = stamp(known[next], req.Symbol, t)
		case next == 0:
			out[i] = stamp(known[0], req.Symbol, t)
		case next == len(known):
			out[i] = stamp(known[len(known)-1], req.Symbol, t)
		default:
			out[i] = interpolate(known[next-1], known[next], t)
			if req.Symbol != "" {
				out[i].Symbol = req.Symbol
			}
		}
	}

	return out, nil
}

// Dedup returns the series sorted by time with one candle per timestamp.
// The later occurrence in the input wins.
func Dedup(points []types.Candle) []types.Candle {
	if len(points) == 0 {
		return nil
	}

	index := make(map[int64]int, len(points))
	out := make([]types.Candle, 0, len(points))

	for _, p := range points {
		key := p.Time.UnixNano()
		if at, ok := index[key]; ok {
			out[at] = p

			continue
		}

		index[key] = len(out)
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})

	return out
}

func interpolate(prev, next types.Candle, t time.Time) types.Candle {
	span := float64(next.Time.Sub(prev.Time))
	w := float64(t.Sub(prev.Time)) / span

	lerp := func(a, b float64) float64 {
		return a + (b-a)*w
	}

	return types.Candle{
		Symbol: prev.Symbol,
		Time:   t,
		Open:   lerp(prev.Open, next.Open),
		High:   lerp(prev.High, next.High),
		Low:    lerp(prev.Low, next.Low),
		Close:  lerp(prev.Close, next.Close),
		Volume: lerp(prev.Volume, next.Volume),
	}
}

func stamp(c types.Candle, symbol string, t time.Time) types.Candle {
	if symbol != "" {
		c.Symbol = symbol
	}

	return c.At(t)
}
