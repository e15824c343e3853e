package marketdata

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// BaseJobConfig contains the fields shared by all job configurations.
type BaseJobConfig struct {
	Symbols  []string `json:"symbols" jsonschema:"title=Symbols,description=Trading pairs to process (e.g. BTCUSDT),required,minItems=1" validate:"required,min=1,dive,required"`
	Interval string   `json:"interval" jsonschema:"title=Interval,description=Kline interval,required,enum=1m,enum=3m,enum=5m,enum=15m,enum=30m,enum=1h,enum=2h,enum=4h,enum=6h,enum=8h,enum=12h,enum=1d" validate:"required,oneof=1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d"`
}

// SyncJobConfig describes a sync job submitted as JSON.
type SyncJobConfig struct {
	BaseJobConfig
}

// QueryJobConfig describes a range query submitted as JSON.
type QueryJobConfig struct {
	BaseJobConfig

	StartDate string `json:"startDate" jsonschema:"title=Start Date,description=First grid point (RFC3339),format=date-time,required" validate:"required"`
	EndDate   string `json:"endDate" jsonschema:"title=End Date,description=Last grid point (RFC3339),format=date-time,required" validate:"required"`
}

// Validate validates the BaseJobConfig fields.
func (c *BaseJobConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// Validate validates the SyncJobConfig.
func (c *SyncJobConfig) Validate() error {
	return c.BaseJobConfig.Validate()
}

// Validate validates the QueryJobConfig.
func (c *QueryJobConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	start, err := time.Parse(time.RFC3339, c.StartDate)
	if err != nil {
		return fmt.Errorf("invalid startDate format, expected RFC3339: %w", err)
	}

	end, err := time.Parse(time.RFC3339, c.EndDate)
	if err != nil {
		return fmt.Errorf("invalid endDate format, expected RFC3339: %w", err)
	}

	if end.Before(start) {
		return fmt.Errorf("endDate %s is before startDate %s", c.EndDate, c.StartDate)
	}

	return c.BaseJobConfig.Validate()
}

// ToSyncAllParams converts a SyncJobConfig to SyncAllParams.
func (c *SyncJobConfig) ToSyncAllParams() SyncAllParams {
	return SyncAllParams{
		Symbols:  c.Symbols,
		Interval: c.Interval,
	}
}

// ToQueryParams converts a QueryJobConfig to QueryParams.
func (c *QueryJobConfig) ToQueryParams() (QueryParams, error) {
	start, err := time.Parse(time.RFC3339, c.StartDate)
	if err != nil {
		return QueryParams{}, fmt.Errorf("failed to parse startDate: %w", err)
	}

	end, err := time.Parse(time.RFC3339, c.EndDate)
	if err != nil {
		return QueryParams{}, fmt.Errorf("failed to parse endDate: %w", err)
	}

	return QueryParams{
		Symbols:  c.Symbols,
		Interval: c.Interval,
		Start:    start.UTC(),
		End:      end.UTC(),
	}, nil
}

// ParseSyncJobConfig parses JSON into a SyncJobConfig.
func ParseSyncJobConfig(jsonConfig string) (*SyncJobConfig, error) {
	var config SyncJobConfig
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ParseQueryJobConfig parses JSON into a QueryJobConfig.
func ParseQueryJobConfig(jsonConfig string) (*QueryJobConfig, error) {
	var config QueryJobConfig
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
