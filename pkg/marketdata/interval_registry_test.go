package marketdata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type IntervalRegistryTestSuite struct {
	suite.Suite
}

func TestIntervalRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(IntervalRegistryTestSuite))
}

func (suite *IntervalRegistryTestSuite) TestGetSupportedIntervals() {
	intervals := GetSupportedIntervals()

	suite.Len(intervals, 12)
	suite.Equal(IntervalInfo{Name: "1m", Minutes: 1, Table: "minutely"}, intervals[0])
	suite.Equal(IntervalInfo{Name: "1d", Minutes: 1440, Table: "daily"}, intervals[len(intervals)-1])

	for i := 1; i < len(intervals); i++ {
		suite.Greater(intervals[i].Minutes, intervals[i-1].Minutes)
	}
}

func (suite *IntervalRegistryTestSuite) TestGetIntervalInfo() {
	info, err := GetIntervalInfo("1h")
	suite.Require().NoError(err)
	suite.Equal(IntervalInfo{Name: "1h", Minutes: 60, Table: "hourly"}, info)

	info, err = GetIntervalInfo("15m")
	suite.Require().NoError(err)
	suite.Equal("klines_15m", info.Table)

	_, err = GetIntervalInfo("1w")
	suite.Error(err)
}

func (suite *IntervalRegistryTestSuite) TestGetJobConfigSchema() {
	testCases := []struct {
		kind     JobKind
		expected []string
	}{
		{kind: JobSync, expected: []string{"symbols", "interval"}},
		{kind: JobQuery, expected: []string{"symbols", "interval", "startDate", "endDate"}},
	}

	for _, tc := range testCases {
		suite.Run(string(tc.kind), func() {
			schemaJSON, err := GetJobConfigSchema(tc.kind)
			suite.Require().NoError(err)

			var schema map[string]interface{}
			suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &schema))

			properties, ok := schema["properties"].(map[string]interface{})
			suite.Require().True(ok, "schema should have properties")

			for _, field := range tc.expected {
				suite.Contains(properties, field)
			}
		})
	}

	_, err := GetJobConfigSchema("download")
	suite.Error(err)
	suite.Contains(err.Error(), "unsupported job")
}

func (suite *IntervalRegistryTestSuite) TestParseJobConfig() {
	parsed, err := ParseJobConfig(JobSync, `{"symbols": ["BTCUSDT"], "interval": "1m"}`)
	suite.Require().NoError(err)

	syncConfig, ok := parsed.(*SyncJobConfig)
	suite.Require().True(ok)
	suite.Equal([]string{"BTCUSDT"}, syncConfig.Symbols)

	parsed, err = ParseJobConfig(JobQuery, `{
		"symbols": ["BTCUSDT"],
		"interval": "1m",
		"startDate": "2024-01-01T00:00:00Z",
		"endDate": "2024-01-01T00:10:00Z"
	}`)
	suite.Require().NoError(err)
	suite.IsType(&QueryJobConfig{}, parsed)

	_, err = ParseJobConfig("download", `{}`)
	suite.Error(err)
}
