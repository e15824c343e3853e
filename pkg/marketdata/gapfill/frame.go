package gapfill

import (
	"sort"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-klines/internal/types"
)

// Frame holds several symbols reindexed onto one shared grid.
// Columns[symbol][i] is the candle at Grid.At(i), or None where the symbol has no value yet.
type Frame struct {
	Grid    TimeGrid
	Symbols []string
	Columns map[string][]optional.Option[types.Candle]
}

// BuildFrame forward-fills every symbol's series onto grid independently.
// Symbols without any data get an all-None column.
func BuildFrame(grid TimeGrid, symbols []string, series map[string][]types.Candle) *Frame {
	ordered := append([]string(nil), symbols...)
	sort.Strings(ordered)

	frame := &Frame{
		Grid:    grid,
		Symbols: ordered,
		Columns: make(map[string][]optional.Option[types.Candle], len(ordered)),
	}

	for _, symbol := range ordered {
		frame.Columns[symbol] = ReindexForwardFill(series[symbol], grid)
	}

	return frame
}

// ReindexForwardFill places points on grid and carries the most recent value forward into
// empty grid points. It never fills backwards: grid points before the first point are None.
// A point between two grid points is visible from the next grid point on.
func ReindexForwardFill(points []types.Candle, grid TimeGrid) []optional.Option[types.Candle] {
	known := Dedup(points)
	out := make([]optional.Option[types.Candle], grid.Len())

	j := 0
	last := optional.None[types.Candle]()

	for i := range out {
		t := grid.At(i)
		for j < len(known) && !known[j].Time.After(t) {
			last = optional.Some(known[j])
			j++
		}

		if last.IsNone() {
			out[i] = optional.None[types.Candle]()

			continue
		}

		out[i] = optional.Some(last.Unwrap().At(t))
	}

	return out
}

// Len returns the number of grid rows.
func (f *Frame) Len() int {
	return f.Grid.Len()
}

// Column returns the cells for symbol, or nil when the symbol is not part of the frame.
func (f *Frame) Column(symbol string) []optional.Option[types.Candle] {
	return f.Columns[symbol]
}

// Dense returns the filled candles of symbol, skipping leading None cells.
func (f *Frame) Dense(symbol string) []types.Candle {
	column := f.Columns[symbol]
	out := make([]types.Candle, 0, len(column))

	for _, cell := range column {
		if cell.IsSome() {
			out = append(out, cell.Unwrap())
		}
	}

	return out
}

// Complete reports whether every cell of every symbol holds a value.
func (f *Frame) Complete() bool {
	for _, column := range f.Columns {
		for _, cell := range column {
			if cell.IsNone() {
				return false
			}
		}
	}

	return true
}
