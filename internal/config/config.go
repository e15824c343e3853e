package config

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-klines/pkg/errors"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/source"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/syncer"
	"github.com/rxtech-lab/argo-klines/pkg/utils"
	"gopkg.in/yaml.v3"
)

const (
	envAPIKey            = "API_KEY"
	envAPISecretKey      = "API_SECRET_KEY"
	envDBURL             = "DB_URL"
	envDataPath          = "DATA_PATH"
	envSupportedCoinList = "SUPPORTED_COIN_LIST"

	// DefaultCoinListFile is read when no coin list is configured.
	DefaultCoinListFile = "supported_coin_list"

	duckdbScheme = "duckdb://"
)

// DatabaseConfig locates the relational store.
type DatabaseConfig struct {
	// URL is a DuckDB file path, optionally prefixed with duckdb://. Empty means in-memory.
	URL string `yaml:"db_url" json:"db_url" jsonschema:"title=Database URL,description=DuckDB database file (duckdb://path or plain path)"`
}

// DataConfig locates the CSV store.
type DataConfig struct {
	Path  string               `yaml:"path" json:"path" jsonschema:"title=Data Path,description=Directory of the CSV kline files" validate:"required"`
	Store marketdata.StoreType `yaml:"store" json:"store" jsonschema:"title=Store,description=Store synced into and queried,enum=csv,enum=duckdb" validate:"required,oneof=csv duckdb"`
}

// Config is the application configuration of the klines command.
type Config struct {
	Binance  source.BinanceConfig `yaml:"binance" json:"binance" jsonschema:"title=Binance,description=Binance REST API settings"`
	Database DatabaseConfig       `yaml:"database" json:"database"`
	Data     DataConfig           `yaml:"data" json:"data"`
	Sync     syncer.Config        `yaml:"sync" json:"sync" jsonschema:"title=Sync,description=Incremental sync settings"`
	// SupportedCoinList is the default symbol set of multi-symbol commands.
	SupportedCoinList []string `yaml:"supported_coin_list" json:"supported_coin_list" jsonschema:"title=Supported Coins,description=Symbols synced when none are given" validate:"dive,required"`
	// CoinListFile is read when SupportedCoinList is empty after overrides.
	CoinListFile string `yaml:"coin_list_file" json:"coin_list_file" jsonschema:"title=Coin List File,description=File with one symbol per line"`
	LogLevel     string `yaml:"log_level" json:"log_level" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Binance:           source.DefaultBinanceConfig(),
		Database:          DatabaseConfig{URL: ""},
		Data:              DataConfig{Path: "data", Store: marketdata.StoreCSV},
		Sync:              syncer.DefaultConfig(),
		SupportedCoinList: nil,
		CoinListFile:      DefaultCoinListFile,
		LogLevel:          "info",
	}
}

// Load reads the YAML file at path over the defaults, applies environment overrides and
// the coin list file, and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "read config %s", path)
		}

		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "parse config %s", path)
		}
	}

	c.applyEnv()

	if len(c.SupportedCoinList) == 0 && c.CoinListFile != "" {
		coins, err := ReadCoinList(c.CoinListFile)
		if err != nil {
			return nil, err
		}

		c.SupportedCoinList = coins
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envAPIKey); v != "" {
		c.Binance.ApiKey = v
	}

	if v := os.Getenv(envAPISecretKey); v != "" {
		c.Binance.SecretKey = v
	}

	if v := os.Getenv(envDBURL); v != "" {
		c.Database.URL = v
	}

	if v := os.Getenv(envDataPath); v != "" {
		c.Data.Path = v
	}

	if v := os.Getenv(envSupportedCoinList); v != "" {
		c.SupportedCoinList = splitCoins(v)
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return nil
}

// ToClientConfig converts the configuration to a market data client configuration.
func (c *Config) ToClientConfig() marketdata.ClientConfig {
	return marketdata.ClientConfig{
		StoreType:    c.Data.Store,
		DataPath:     c.Data.Path,
		DatabasePath: strings.TrimPrefix(c.Database.URL, duckdbScheme),
		Binance:      c.Binance,
		Sync:         c.Sync,
	}
}

// Coins returns symbols when given, otherwise the supported coin list.
func (c *Config) Coins(symbols []string) []string {
	if len(symbols) > 0 {
		return symbols
	}

	return c.SupportedCoinList
}

// Schema returns the JSON schema of the configuration file.
func Schema() (string, error) {
	//nolint:exhaustruct // Empty struct is intentional for schema generation
	return utils.GetSchemaFromConfig(Config{},
		utils.WithTitle("klines-config", "Configuration schema of the klines command"),
		utils.WithIndent(),
	)
}

// ReadCoinList reads one symbol per line from path. Blank lines, lines starting with # and
// repeated symbols are skipped. A missing file yields an empty list.
func ReadCoinList(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("open coin list: %w", err)
	}
	defer f.Close()

	var coins []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || slices.Contains(coins, line) {
			continue
		}

		coins = append(coins, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read coin list: %w", err)
	}

	return coins, nil
}

// splitCoins splits a whitespace or comma separated list.
func splitCoins(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})

	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if !slices.Contains(out, field) {
			out = append(out, field)
		}
	}

	return out
}
