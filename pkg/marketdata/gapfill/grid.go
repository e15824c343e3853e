package gapfill

import (
	"time"

	"github.com/rxtech-lab/argo-klines/pkg/errors"
)

// TimeGrid is the ordered set of instants Begin, Begin+Step, ... up to and including End
// when End lies on the grid.
type TimeGrid struct {
	Begin time.Time
	End   time.Time
	Step  time.Duration
}

// NewTimeGrid creates a grid and validates its bounds.
func NewTimeGrid(begin, end time.Time, step time.Duration) (TimeGrid, error) {
	grid := TimeGrid{Begin: begin.UTC(), End: end.UTC(), Step: step}
	if err := grid.Validate(); err != nil {
		return TimeGrid{}, err
	}

	return grid, nil
}

// Validate checks that the grid has a positive step and End is not before Begin.
func (g TimeGrid) Validate() error {
	if g.Step <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "grid step must be positive, got %s", g.Step)
	}

	if g.End.Before(g.Begin) {
		return errors.Newf(errors.ErrCodeInvalidParameter, "grid end %s is before begin %s",
			g.End.Format(time.RFC3339), g.Begin.Format(time.RFC3339))
	}

	return nil
}

// Len returns the number of grid points, (End-Begin)/Step + 1.
func (g TimeGrid) Len() int {
	if g.Step <= 0 || g.End.Before(g.Begin) {
		return 0
	}

	return int(g.End.Sub(g.Begin)/g.Step) + 1
}

// At returns the i-th grid point.
func (g TimeGrid) At(i int) time.Time {
	return g.Begin.Add(time.Duration(i) * g.Step)
}

// Last returns the final grid point, which is End rounded down onto the grid.
func (g TimeGrid) Last() time.Time {
	return g.At(g.Len() - 1)
}

// Index returns the position of t on the grid, or -1 if t is not a grid point.
func (g TimeGrid) Index(t time.Time) int {
	if g.Step <= 0 || t.Before(g.Begin) || t.After(g.End) {
		return -1
	}

	offset := t.Sub(g.Begin)
	if offset%g.Step != 0 {
		return -1
	}

	return int(offset / g.Step)
}

// Points returns every grid point in order.
func (g TimeGrid) Points() []time.Time {
	points := make([]time.Time, g.Len())
	for i := range points {
		points[i] = g.At(i)
	}

	return points
}
