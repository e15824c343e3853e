package syncer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-klines/internal/types"
	"github.com/rxtech-lab/argo-klines/mocks"
	"github.com/rxtech-lab/argo-klines/pkg/errors"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/source"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/store"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

var t0 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func minute(m int) time.Time {
	return t0.Add(time.Duration(m) * time.Minute)
}

func candles(symbol string, minutes ...int) []types.Candle {
	out := make([]types.Candle, 0, len(minutes))
	for _, m := range minutes {
		price := float64(100 + m)
		out = append(out, types.Candle{Symbol: symbol, Time: minute(m), Open: price, High: price, Low: price, Close: price, Volume: 1})
	}

	return out
}

// at matches a time.Time argument by instant.
type at time.Time

func (a at) Matches(x any) bool {
	t, ok := x.(time.Time)

	return ok && t.Equal(time.Time(a))
}

func (a at) String() string {
	return "is " + time.Time(a).Format(time.RFC3339)
}

// fakeSource serves klines from memory and records requested windows and served candles.
type fakeSource struct {
	mu      sync.Mutex
	series  map[string][]types.Candle
	fail    map[string]error
	windows [][2]time.Time
	served  map[time.Time]int
	calls   int
	// failOn makes the n-th call (1-based) fail when set.
	failOn int
}

func (f *fakeSource) FetchKlines(_ context.Context, symbol string, _ types.Interval, start time.Time, end time.Time) ([]types.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.windows = append(f.windows, [2]time.Time{start, end})

	if err := f.fail[symbol]; err != nil {
		return nil, err
	}

	if f.failOn > 0 && f.calls == f.failOn {
		return nil, fmt.Errorf("502 bad gateway")
	}

	if f.served == nil {
		f.served = make(map[time.Time]int)
	}

	var out []types.Candle

	for _, c := range f.series[symbol] {
		if !c.Time.Before(start) && !c.Time.After(end) {
			out = append(out, c)
			f.served[c.Time]++
		}
	}

	return out, nil
}

func (f *fakeSource) assertServedOnce(suite *SyncerTestSuite) {
	for ts, n := range f.served {
		suite.Equal(1, n, "candle %s fetched %d times", ts.Format(time.RFC3339), n)
	}
}

// horizonSource combines mocked fetch and horizon lookups.
type horizonSource struct {
	*mocks.MockKlineSource
	*mocks.MockHorizonSource
}

type SyncerTestSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	mockSource *mocks.MockKlineSource
	mockStore  *mocks.MockTimeSeriesStore
	ctx        context.Context
}

func TestSyncerSuite(t *testing.T) {
	suite.Run(t, new(SyncerTestSuite))
}

func (suite *SyncerTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.mockSource = mocks.NewMockKlineSource(suite.ctrl)
	suite.mockStore = mocks.NewMockTimeSeriesStore(suite.ctrl)
	suite.ctx = context.Background()
}

func (suite *SyncerTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

// newSyncer builds a syncer with three-candle windows whose newest closed candle opens at
// minute lastClosed.
func (suite *SyncerTestSuite) newSyncer(src source.KlineSource, st store.TimeSeriesStore, lastClosed int) *Syncer {
	config := DefaultConfig()
	config.OldestDate = t0
	config.MaxBatchCandles = 3

	syncer, err := NewSyncer(src, st, config, nil)
	suite.Require().NoError(err)

	syncer.now = func() time.Time { return minute(lastClosed + 1).Add(30 * time.Second) }

	return syncer
}

func (suite *SyncerTestSuite) expectWindow(from, to int, result []types.Candle) {
	suite.mockSource.EXPECT().
		FetchKlines(gomock.Any(), "BTCUSDT", types.IntervalOneMinute, at(minute(from)), at(minute(to))).
		Return(result, nil).
		Times(1)
}

func (suite *SyncerTestSuite) TestConfigValidation() {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "default", mutate: func(c *Config) {}, wantErr: false},
		{name: "zero batch", mutate: func(c *Config) { c.MaxBatchCandles = 0 }, wantErr: true},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: true},
		{name: "missing oldest date", mutate: func(c *Config) { c.OldestDate = time.Time{} }, wantErr: true},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := DefaultConfig()
			tc.mutate(&config)

			err := config.Validate()
			if tc.wantErr {
				suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
			} else {
				suite.NoError(err)
			}
		})
	}

	suite.Equal(28800, DefaultConfig().MaxBatchCandles)
	suite.Equal(t0, DefaultConfig().OldestDate)
}

func (suite *SyncerTestSuite) TestNewSyncerRequiresCollaborators() {
	_, err := NewSyncer(nil, suite.mockStore, DefaultConfig(), nil)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))

	_, err = NewSyncer(suite.mockSource, nil, DefaultConfig(), nil)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (suite *SyncerTestSuite) TestFreshSyncInWindows() {
	syncer := suite.newSyncer(suite.mockSource, suite.mockStore, 7)

	suite.mockStore.EXPECT().LastTimestamp(gomock.Any(), "BTCUSDT", types.IntervalOneMinute).Return(optional.None[time.Time](), nil)

	gomock.InOrder(
		suite.mockSource.EXPECT().FetchKlines(gomock.Any(), "BTCUSDT", types.IntervalOneMinute, at(minute(0)), at(minute(2))).Return(candles("BTCUSDT", 0, 1, 2), nil),
		suite.mockStore.EXPECT().Append(gomock.Any(), candles("BTCUSDT", 0, 1, 2), "BTCUSDT", types.IntervalOneMinute).Return(3, nil),
		suite.mockSource.EXPECT().FetchKlines(gomock.Any(), "BTCUSDT", types.IntervalOneMinute, at(minute(3)), at(minute(5))).Return(candles("BTCUSDT", 3, 4, 5), nil),
		suite.mockStore.EXPECT().Append(gomock.Any(), candles("BTCUSDT", 3, 4, 5), "BTCUSDT", types.IntervalOneMinute).Return(3, nil),
		suite.mockSource.EXPECT().FetchKlines(gomock.Any(), "BTCUSDT", types.IntervalOneMinute, at(minute(6)), at(minute(7))).Return(candles("BTCUSDT", 6, 7), nil),
		suite.mockStore.EXPECT().Append(gomock.Any(), candles("BTCUSDT", 6, 7), "BTCUSDT", types.IntervalOneMinute).Return(2, nil),
	)

	var progress [][2]float64

	syncer.OnProgress(func(symbol string, current, total float64) {
		suite.Equal("BTCUSDT", symbol)
		progress = append(progress, [2]float64{current, total})
	})

	result, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(candles("BTCUSDT", 0, 1, 2, 3, 4, 5, 6, 7), result.Candles)
	suite.Equal(3, result.Batches)
	suite.Equal(8, result.Written)
	suite.Equal(minute(0), result.From)
	suite.Equal(minute(7), result.To)
	suite.NotEmpty(result.RunID.String())

	suite.Equal([][2]float64{{3, 8}, {6, 8}, {8, 8}}, progress)
}

func (suite *SyncerTestSuite) TestResumeFromLastTimestamp() {
	syncer := suite.newSyncer(suite.mockSource, suite.mockStore, 7)

	suite.mockStore.EXPECT().LastTimestamp(gomock.Any(), "BTCUSDT", types.IntervalOneMinute).Return(optional.Some(minute(4)), nil)
	suite.expectWindow(5, 7, candles("BTCUSDT", 5, 6, 7))
	suite.mockStore.EXPECT().Append(gomock.Any(), candles("BTCUSDT", 5, 6, 7), "BTCUSDT", types.IntervalOneMinute).Return(3, nil)

	result, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(candles("BTCUSDT", 5, 6, 7), result.Candles)
}

func (suite *SyncerTestSuite) TestAlreadyUpToDate() {
	syncer := suite.newSyncer(suite.mockSource, suite.mockStore, 7)

	suite.mockStore.EXPECT().LastTimestamp(gomock.Any(), "BTCUSDT", types.IntervalOneMinute).Return(optional.Some(minute(7)), nil)

	result, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Empty(result.Candles)
	suite.Zero(result.Batches)
}

func (suite *SyncerTestSuite) TestHorizonFromSource() {
	horizon := mocks.NewMockHorizonSource(suite.ctrl)
	syncer := suite.newSyncer(horizonSource{MockKlineSource: suite.mockSource, MockHorizonSource: horizon}, suite.mockStore, 100)

	suite.mockStore.EXPECT().LastTimestamp(gomock.Any(), "BTCUSDT", types.IntervalOneMinute).Return(optional.Some(minute(0)), nil)
	// minute 3 is still forming
	horizon.EXPECT().LatestKlineTime(gomock.Any(), "BTCUSDT", types.IntervalOneMinute).Return(minute(3), nil)
	suite.expectWindow(1, 2, candles("BTCUSDT", 1, 2))
	suite.mockStore.EXPECT().Append(gomock.Any(), gomock.Any(), "BTCUSDT", types.IntervalOneMinute).Return(2, nil)

	result, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(minute(2), result.To)
	suite.Len(result.Candles, 2)
}

func (suite *SyncerTestSuite) TestHorizonUnavailable() {
	horizon := mocks.NewMockHorizonSource(suite.ctrl)
	syncer := suite.newSyncer(horizonSource{MockKlineSource: suite.mockSource, MockHorizonSource: horizon}, suite.mockStore, 100)

	suite.mockStore.EXPECT().LastTimestamp(gomock.Any(), "BTCUSDT", types.IntervalOneMinute).Return(optional.None[time.Time](), nil)
	horizon.EXPECT().LatestKlineTime(gomock.Any(), "BTCUSDT", types.IntervalOneMinute).Return(time.Time{}, fmt.Errorf("timeout"))

	_, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.True(errors.IsSourceUnavailableError(err))
}

func (suite *SyncerTestSuite) TestEmptyWindowAdvances() {
	syncer := suite.newSyncer(suite.mockSource, suite.mockStore, 5)

	suite.mockStore.EXPECT().LastTimestamp(gomock.Any(), "BTCUSDT", types.IntervalOneMinute).Return(optional.None[time.Time](), nil)
	suite.expectWindow(0, 2, nil)
	suite.expectWindow(3, 5, candles("BTCUSDT", 4))
	suite.mockStore.EXPECT().Append(gomock.Any(), candles("BTCUSDT", 4), "BTCUSDT", types.IntervalOneMinute).Return(1, nil)
	// minute 5 had no trades yet
	suite.expectWindow(5, 5, nil)

	result, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(candles("BTCUSDT", 4), result.Candles)
	suite.Equal(3, result.Batches)
}

func (suite *SyncerTestSuite) TestPartialBatchIsNotAStall() {
	syncer := suite.newSyncer(suite.mockSource, suite.mockStore, 5)

	suite.mockStore.EXPECT().LastTimestamp(gomock.Any(), "BTCUSDT", types.IntervalOneMinute).Return(optional.None[time.Time](), nil)
	suite.expectWindow(0, 2, candles("BTCUSDT", 0, 1))
	suite.mockStore.EXPECT().Append(gomock.Any(), candles("BTCUSDT", 0, 1), "BTCUSDT", types.IntervalOneMinute).Return(2, nil)
	suite.expectWindow(2, 4, nil)
	suite.expectWindow(5, 5, candles("BTCUSDT", 5))
	suite.mockStore.EXPECT().Append(gomock.Any(), candles("BTCUSDT", 5), "BTCUSDT", types.IntervalOneMinute).Return(1, nil)

	result, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(candles("BTCUSDT", 0, 1, 5), result.Candles)
}

func (suite *SyncerTestSuite) TestStalledSync() {
	syncer := suite.newSyncer(suite.mockSource, suite.mockStore, 9)

	suite.mockStore.EXPECT().LastTimestamp(gomock.Any(), "BTCUSDT", types.IntervalOneMinute).Return(optional.Some(minute(4)), nil)
	// the source keeps answering with data the store already has
	suite.expectWindow(5, 7, candles("BTCUSDT", 3, 4))

	result, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().Error(err)
	suite.True(errors.IsStalledSyncError(err))
	suite.True(errors.HasCode(err, errors.ErrCodeSyncStalled))
	suite.Empty(result.Candles)

	var stalled *errors.StalledSyncError
	suite.Require().True(errors.As(err, &stalled))
	suite.Equal(minute(5), stalled.Cursor)
	suite.Equal(minute(4), stalled.Last)
}

func (suite *SyncerTestSuite) TestSourceFailureKeepsCompletedBatches() {
	syncer := suite.newSyncer(suite.mockSource, suite.mockStore, 7)

	suite.mockStore.EXPECT().LastTimestamp(gomock.Any(), "BTCUSDT", types.IntervalOneMinute).Return(optional.None[time.Time](), nil)
	suite.expectWindow(0, 2, candles("BTCUSDT", 0, 1, 2))
	suite.mockStore.EXPECT().Append(gomock.Any(), candles("BTCUSDT", 0, 1, 2), "BTCUSDT", types.IntervalOneMinute).Return(3, nil)
	suite.mockSource.EXPECT().
		FetchKlines(gomock.Any(), "BTCUSDT", types.IntervalOneMinute, at(minute(3)), at(minute(5))).
		Return(nil, fmt.Errorf("503 service unavailable"))

	result, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().Error(err)
	suite.True(errors.IsSourceUnavailableError(err))
	suite.Contains(err.Error(), "503")
	suite.Equal(candles("BTCUSDT", 0, 1, 2), result.Candles)

	var unavailable *errors.SourceUnavailableError
	suite.Require().True(errors.As(err, &unavailable))
	suite.Equal(minute(3), unavailable.Start)
	suite.Equal(minute(5), unavailable.End)
}

func (suite *SyncerTestSuite) TestIntegrityErrorIsNotFatal() {
	syncer := suite.newSyncer(suite.mockSource, suite.mockStore, 5)

	suite.mockStore.EXPECT().LastTimestamp(gomock.Any(), "BTCUSDT", types.IntervalOneMinute).Return(optional.None[time.Time](), nil)
	suite.expectWindow(0, 2, candles("BTCUSDT", 0, 1, 2))
	suite.mockStore.EXPECT().
		Append(gomock.Any(), candles("BTCUSDT", 0, 1, 2), "BTCUSDT", types.IntervalOneMinute).
		Return(0, errors.NewIntegrityError("BTCUSDT", "minutely", fmt.Errorf("Constraint Error: duplicate key")))
	suite.expectWindow(3, 5, candles("BTCUSDT", 3, 4, 5))
	suite.mockStore.EXPECT().Append(gomock.Any(), candles("BTCUSDT", 3, 4, 5), "BTCUSDT", types.IntervalOneMinute).Return(3, nil)

	result, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(3, result.Skipped)
	suite.Equal(3, result.Written)
	suite.Len(result.Candles, 6)
}

func (suite *SyncerTestSuite) TestStoreFailureIsFatal() {
	syncer := suite.newSyncer(suite.mockSource, suite.mockStore, 5)

	suite.mockStore.EXPECT().LastTimestamp(gomock.Any(), "BTCUSDT", types.IntervalOneMinute).Return(optional.None[time.Time](), nil)
	suite.expectWindow(0, 2, candles("BTCUSDT", 0, 1, 2))
	suite.mockStore.EXPECT().
		Append(gomock.Any(), gomock.Any(), "BTCUSDT", types.IntervalOneMinute).
		Return(0, errors.New(errors.ErrCodeMarketDataWriteFailed, "disk full"))

	_, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataWriteFailed))
}

func (suite *SyncerTestSuite) TestDropsCandlesOutsideWindow() {
	syncer := suite.newSyncer(suite.mockSource, suite.mockStore, 2)

	suite.mockStore.EXPECT().LastTimestamp(gomock.Any(), "BTCUSDT", types.IntervalOneMinute).Return(optional.Some(minute(0)), nil)
	// a sloppy source returns the stored candle, a duplicate and one past the window
	raw := append(candles("BTCUSDT", 0, 1, 2, 2), candles("BTCUSDT", 3)...)
	suite.expectWindow(1, 2, raw)
	suite.mockStore.EXPECT().Append(gomock.Any(), candles("BTCUSDT", 1, 2), "BTCUSDT", types.IntervalOneMinute).Return(2, nil)

	result, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(candles("BTCUSDT", 1, 2), result.Candles)
}

func (suite *SyncerTestSuite) TestRejectsConcurrentSyncOfSameKey() {
	syncer := suite.newSyncer(suite.mockSource, suite.mockStore, 5)
	suite.True(syncer.acquire("BTCUSDT@1m"))

	_, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.True(errors.HasCode(err, errors.ErrCodeSyncInProgress))

	syncer.release("BTCUSDT@1m")
	suite.True(syncer.acquire("BTCUSDT@1m"))
}

func (suite *SyncerTestSuite) TestInvalidArguments() {
	syncer := suite.newSyncer(suite.mockSource, suite.mockStore, 5)

	_, err := syncer.Sync(suite.ctx, "", types.IntervalOneMinute)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))

	_, err = syncer.Sync(suite.ctx, "BTCUSDT", types.Interval("7m"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidInterval))
}

func (suite *SyncerTestSuite) TestIdempotentAgainstCSVStore() {
	csvStore, err := store.NewCSVStore(suite.T().TempDir(), nil)
	suite.Require().NoError(err)

	generator := mocks.NewDataGenerator(1)
	config := mocks.DefaultConfig()
	config.Symbol = "BTCUSDT"
	config.StartTime = t0
	config.Count = 50

	src := &fakeSource{series: map[string][]types.Candle{"BTCUSDT": generator.GenerateWithGaps(config, 0.2)}}
	syncer := suite.newSyncer(src, csvStore, 49)
	syncer.config.MaxBatchCandles = 7

	first, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(src.series["BTCUSDT"], first.Candles)

	stored, err := csvStore.Load(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(src.series["BTCUSDT"], stored)

	second, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Empty(second.Candles)
	suite.Zero(second.Batches)

	again, err := csvStore.Load(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(stored, again)

	src.assertServedOnce(suite)

	for i := 1; i < len(src.windows); i++ {
		suite.True(src.windows[i][0].After(src.windows[i-1][0]), "window %d does not move forward", i)
	}
}

func (suite *SyncerTestSuite) TestResumesAfterInterruption() {
	csvStore, err := store.NewCSVStore(suite.T().TempDir(), nil)
	suite.Require().NoError(err)

	full := candles("BTCUSDT", 0, 1, 2, 3, 4, 5, 6, 7, 8)
	src := &fakeSource{series: map[string][]types.Candle{"BTCUSDT": full[:4]}}

	// the exchange only has minutes 0-3 at first
	syncer := suite.newSyncer(src, csvStore, 3)
	_, err = syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)

	src.series["BTCUSDT"] = full
	syncer.now = func() time.Time { return minute(9) }

	result, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(full[4:], result.Candles)

	stored, err := csvStore.Load(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(full, stored)
}

func (suite *SyncerTestSuite) TestResumesAfterSourceFailure() {
	csvStore, err := store.NewCSVStore(suite.T().TempDir(), nil)
	suite.Require().NoError(err)

	full := candles("BTCUSDT", 0, 1, 2, 3, 4, 5, 6, 7, 8)
	src := &fakeSource{series: map[string][]types.Candle{"BTCUSDT": full}, failOn: 2}
	syncer := suite.newSyncer(src, csvStore, 8)

	first, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().Error(err)
	suite.True(errors.IsSourceUnavailableError(err))
	suite.Equal(full[:3], first.Candles)

	last, err := csvStore.LastTimestamp(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(minute(2), last.Unwrap())

	src.failOn = 0
	before := len(src.windows)

	second, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(full[3:], second.Candles)
	suite.Equal(minute(3), src.windows[before][0])

	stored, err := csvStore.Load(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(full, stored)

	src.assertServedOnce(suite)
}

func (suite *SyncerTestSuite) TestSkipsFormingCandle() {
	csvStore, err := store.NewCSVStore(suite.T().TempDir(), nil)
	suite.Require().NoError(err)

	src := &fakeSource{series: map[string][]types.Candle{"BTCUSDT": candles("BTCUSDT", 0, 1, 2, 3)}}
	syncer := suite.newSyncer(src, csvStore, 2)

	result, err := syncer.Sync(suite.ctx, "BTCUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(candles("BTCUSDT", 0, 1, 2), result.Candles)
	suite.Equal(minute(2), result.To)
}

func (suite *SyncerTestSuite) TestSyncAll() {
	csvStore, err := store.NewCSVStore(suite.T().TempDir(), nil)
	suite.Require().NoError(err)

	src := &fakeSource{
		series: map[string][]types.Candle{
			"BTCUSDT": candles("BTCUSDT", 0, 1, 2, 3),
			"ETHUSDT": candles("ETHUSDT", 1, 3),
		},
		fail: map[string]error{"XRPUSDT": fmt.Errorf("banned")},
	}

	syncer := suite.newSyncer(src, csvStore, 3)
	syncer.config.Workers = 2

	results, err := syncer.SyncAll(suite.ctx, []string{"BTCUSDT", "ETHUSDT", "XRPUSDT", "BTCUSDT"}, types.IntervalOneMinute)
	suite.Require().Error(err)
	suite.Contains(err.Error(), "XRPUSDT")
	suite.True(errors.IsSourceUnavailableError(err))

	suite.Require().Len(results, 3)
	suite.Len(results[0].Candles, 4)
	suite.Len(results[1].Candles, 2)
	suite.Empty(results[2].Candles)

	last, err := csvStore.LastTimestamp(suite.ctx, "ETHUSDT", types.IntervalOneMinute)
	suite.Require().NoError(err)
	suite.Equal(minute(3), last.Unwrap())
}
