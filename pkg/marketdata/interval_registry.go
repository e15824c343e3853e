package marketdata

import (
	"fmt"

	"github.com/rxtech-lab/argo-klines/internal/types"
	"github.com/rxtech-lab/argo-klines/pkg/utils"
)

// JobKind names a JSON job configuration.
type JobKind string

const (
	JobSync  JobKind = "sync"
	JobQuery JobKind = "query"
)

// IntervalInfo contains metadata about a supported kline interval.
type IntervalInfo struct {
	Name    string `json:"name"`
	Minutes int    `json:"minutes"`
	Table   string `json:"table"`
}

// GetSupportedIntervals returns every supported interval, shortest first.
func GetSupportedIntervals() []IntervalInfo {
	intervals := types.Intervals()
	infos := make([]IntervalInfo, 0, len(intervals))

	for _, interval := range intervals {
		infos = append(infos, intervalInfo(interval))
	}

	return infos
}

// GetIntervalInfo returns metadata for a specific interval.
func GetIntervalInfo(name string) (IntervalInfo, error) {
	interval, err := types.ParseInterval(name)
	if err != nil {
		return IntervalInfo{}, err
	}

	return intervalInfo(interval), nil
}

// GetJobConfigSchema returns the JSON schema of a job configuration.
func GetJobConfigSchema(kind JobKind) (string, error) {
	switch kind {
	case JobSync:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return utils.GetSchemaFromConfig(SyncJobConfig{})
	case JobQuery:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return utils.GetSchemaFromConfig(QueryJobConfig{})
	default:
		return "", fmt.Errorf("unsupported job: %s", kind)
	}
}

// ParseJobConfig parses a JSON configuration string for the given job.
// Returns the parsed config as an interface{} which can be type-asserted to the specific config type.
func ParseJobConfig(kind JobKind, jsonConfig string) (interface{}, error) {
	switch kind {
	case JobSync:
		return ParseSyncJobConfig(jsonConfig)
	case JobQuery:
		return ParseQueryJobConfig(jsonConfig)
	default:
		return nil, fmt.Errorf("unsupported job: %s", kind)
	}
}

func intervalInfo(interval types.Interval) IntervalInfo {
	return IntervalInfo{
		Name:    interval.String(),
		Minutes: interval.BinSize(),
		Table:   interval.Table(),
	}
}
