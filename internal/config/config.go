package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"bribecast/internal/logging"
	"bribecast/internal/types"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Prices    PricesConfig    `mapstructure:"prices"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Subgraph  SubgraphConfig  `mapstructure:"subgraph"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// SchedulerConfig governs the update cadence.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// EthereumConfig covers on-chain data access.
type EthereumConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// PricesConfig captures DefiLlama connectivity.
type PricesConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// SnapshotConfig captures snapshot hub and score API connectivity.
type SnapshotConfig struct {
	HubURL         string        `mapstructure:"hub_url"`
	ScoreURL       string        `mapstructure:"score_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// SubgraphConfig captures the bribe subgraph endpoints.
type SubgraphConfig struct {
	VotiumURL      string        `mapstructure:"votium_url"`
	HiddenHandURL  string        `mapstructure:"hiddenhand_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// PipelineConfig selects the pairs the pipeline covers and the network used
// for price lookups.
type PipelineConfig struct {
	Pairs   []string `mapstructure:"pairs"`
	Network string   `mapstructure:"network"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxRounds int `mapstructure:"max_rounds"`
}

// Pair is one parsed platform/protocol pair.
type Pair struct {
	Platform types.Platform
	Protocol types.Protocol
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BRIBECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "bribecast")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "15m")
	v.SetDefault("scheduler.advisory_lock_key", int64(0x62726962))
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("ethereum.request_timeout", "10s")

	v.SetDefault("prices.base_url", "https://coins.llama.fi/prices")
	v.SetDefault("prices.request_timeout", "10s")
	v.SetDefault("prices.user_agent", "bribecast/1.0")

	v.SetDefault("snapshot.hub_url", "https://hub.snapshot.org/graphql")
	v.SetDefault("snapshot.score_url", "https://score.snapshot.org/api/scores")
	v.SetDefault("snapshot.request_timeout", "15s")
	v.SetDefault("snapshot.user_agent", "bribecast/1.0")

	v.SetDefault("subgraph.request_timeout", "15s")
	v.SetDefault("subgraph.user_agent", "bribecast/1.0")

	v.SetDefault("pipeline.pairs", []string{"votium:cvx-crv", "hh:aura-bal"})
	v.SetDefault("pipeline.network", "ethereum")

	v.SetDefault("export.max_rounds", 500)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Export.MaxRounds <= 0 {
		return fmt.Errorf("export.max_rounds must be greater than zero")
	}
	if len(c.Pipeline.Pairs) == 0 {
		return fmt.Errorf("pipeline.pairs must not be empty")
	}
	if _, err := c.ParsePairs(); err != nil {
		return err
	}
	return nil
}

// ParsePairs parses pipeline.pairs entries of the form "platform:protocol".
func (c *Config) ParsePairs() ([]Pair, error) {
	pairs := make([]Pair, 0, len(c.Pipeline.Pairs))
	for _, raw := range c.Pipeline.Pairs {
		pair, err := ParsePair(raw)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// ParsePair parses a single "platform:protocol" pair.
func ParsePair(raw string) (Pair, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return Pair{}, fmt.Errorf("invalid pair %q, expected platform:protocol", raw)
	}
	platform, err := types.ParsePlatform(parts[0])
	if err != nil {
		return Pair{}, err
	}
	protocol, err := types.ParseProtocol(parts[1])
	if err != nil {
		return Pair{}, err
	}
	return Pair{Platform: platform, Protocol: protocol}, nil
}

// Network returns the configured price-lookup network.
func (c *Config) Network() types.Network {
	return types.Network(c.Pipeline.Network)
}
