// Package config loads the matching engine's deployment configuration —
// per-symbol tick/lot sizes and fee overrides, plus the ambient adapters'
// settings — from file, environment, and defaults via viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/engine"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/eventjournal"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// PairConfig is the on-disk/env shape of one symbol's entry, using plain
// floats since viper/mapstructure do not decode decimal.Decimal directly.
type PairConfig struct {
	Symbol    string  `mapstructure:"symbol"`
	TickSize  float64 `mapstructure:"tick_size"`
	LotSize   float64 `mapstructure:"lot_size"`
	MakerRate float64 `mapstructure:"maker_rate"`
	TakerRate float64 `mapstructure:"taker_rate"`
}

// KafkaConfig configures the trade-event republisher.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	Group   string   `mapstructure:"group"`
}

// ServerConfig configures the HTTP/WebSocket transport.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// RedisConfig configures the cross-instance last-price cache. It is
// strictly an accelerator for read replicas; Enabled false (the default)
// means the engine never dials Redis at all.
type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	DB      int    `mapstructure:"db"`
}

// TradingConfig is the fully-decoded configuration for one engine process.
type TradingConfig struct {
	Pairs           []PairConfig        `mapstructure:"pairs"`
	MaxCascadeDepth int                 `mapstructure:"max_cascade_depth"`
	SnapshotDir     string              `mapstructure:"snapshot_dir"`
	EventJournal    eventjournal.Config `mapstructure:"-"`
	Kafka           KafkaConfig         `mapstructure:"kafka"`
	Server          ServerConfig        `mapstructure:"server"`
	Redis           RedisConfig         `mapstructure:"redis"`
}

// Default returns the baseline configuration used when no file or
// environment override is present, mirroring the teacher's default symbol
// set and journal location.
func Default() *TradingConfig {
	return &TradingConfig{
		Pairs: []PairConfig{
			{Symbol: "BTC/USDT", TickSize: 0.01, LotSize: 0.00001},
			{Symbol: "ETH/USDT", TickSize: 0.01, LotSize: 0.0001},
		},
		MaxCascadeDepth: 64,
		SnapshotDir:     "./data/snapshots",
		EventJournal: eventjournal.Config{
			FilePath:   "./data/trades.jsonl",
			BufferSize: 1000,
		},
		Kafka: KafkaConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   "trading.trades",
			Group:   "matching-engine",
		},
		Server: ServerConfig{ListenAddr: ":8080"},
		Redis:  RedisConfig{Enabled: false, Addr: "localhost:6379", DB: 0},
	}
}

// Load reads configuration from path (if non-empty), environment variables
// prefixed MATCHING_ENGINE_, and falls back to Default for anything unset.
// Environment keys use underscores in place of dots, e.g.
// MATCHING_ENGINE_MAX_CASCADE_DEPTH.
func Load(path string) (*TradingConfig, error) {
	v := viper.New()
	def := Default()

	v.SetDefault("pairs", def.Pairs)
	v.SetDefault("max_cascade_depth", def.MaxCascadeDepth)
	v.SetDefault("snapshot_dir", def.SnapshotDir)
	v.SetDefault("kafka.enabled", def.Kafka.Enabled)
	v.SetDefault("kafka.brokers", def.Kafka.Brokers)
	v.SetDefault("kafka.topic", def.Kafka.Topic)
	v.SetDefault("kafka.group", def.Kafka.Group)
	v.SetDefault("server.listen_addr", def.Server.ListenAddr)
	v.SetDefault("redis.enabled", def.Redis.Enabled)
	v.SetDefault("redis.addr", def.Redis.Addr)
	v.SetDefault("redis.db", def.Redis.DB)
	v.SetDefault("event_journal.file_path", def.EventJournal.FilePath)
	v.SetDefault("event_journal.buffer_size", def.EventJournal.BufferSize)

	v.SetEnvPrefix("MATCHING_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg TradingConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.EventJournal.FilePath = v.GetString("event_journal.file_path")
	cfg.EventJournal.BufferSize = v.GetInt("event_journal.buffer_size")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants Load cannot express through viper defaults
// alone.
func (c *TradingConfig) Validate() error {
	if c.MaxCascadeDepth <= 0 {
		return fmt.Errorf("max_cascade_depth must be positive")
	}
	if len(c.Pairs) == 0 {
		return fmt.Errorf("at least one pair must be configured")
	}
	for _, p := range c.Pairs {
		if p.Symbol == "" {
			return fmt.Errorf("pair symbol cannot be empty")
		}
		if p.TickSize <= 0 {
			return fmt.Errorf("tick_size must be positive for pair %s", p.Symbol)
		}
		if p.LotSize <= 0 {
			return fmt.Errorf("lot_size must be positive for pair %s", p.Symbol)
		}
	}
	return nil
}

// SymbolConfigs converts the decoded pairs into engine.SymbolConfig values.
func (c *TradingConfig) SymbolConfigs() []engine.SymbolConfig {
	out := make([]engine.SymbolConfig, 0, len(c.Pairs))
	for _, p := range c.Pairs {
		cfg := engine.SymbolConfig{
			Symbol:   p.Symbol,
			TickSize: decimal.NewFromFloat(p.TickSize),
			LotSize:  decimal.NewFromFloat(p.LotSize),
		}
		if p.MakerRate > 0 || p.TakerRate > 0 {
			cfg.HasFeeOverride = true
			cfg.MakerRate = decimal.NewFromFloat(p.MakerRate)
			cfg.TakerRate = decimal.NewFromFloat(p.TakerRate)
		}
		out = append(out, cfg)
	}
	return out
}

// shutdownGracePeriod bounds how long cmd/ waits on SIGINT/SIGTERM for the
// HTTP server to finish in-flight requests (http.Server.Shutdown) before it
// moves on to the rest of shutdown.
const shutdownGracePeriod = 5 * time.Second

// ShutdownGracePeriod exposes shutdownGracePeriod to cmd/.
func ShutdownGracePeriod() time.Duration { return shutdownGracePeriod }
