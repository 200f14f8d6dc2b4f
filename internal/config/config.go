// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/swap-router/internal/types"
	"github.com/rovshanmuradov/swap-router/internal/utils/logger"
)

// Backends of the account store.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

type Config struct {
	Store         StoreConfig   `mapstructure:"store"`
	Log           logger.Config `mapstructure:"log"`
	MetricsListen string        `mapstructure:"metrics_listen"`
	EventBuffer   int           `mapstructure:"event_buffer"`
	ComputeLevel  string        `mapstructure:"compute_level"`
	// GlobalManager may replace the vault admin. Empty keeps the admin fixed.
	GlobalManager string        `mapstructure:"global_manager"`
	Keeper        KeeperConfig  `mapstructure:"keeper"`
}

type StoreConfig struct {
	Backend       string `mapstructure:"backend"`
	Path          string `mapstructure:"path"`
	BusyTimeoutMs int    `mapstructure:"busy_timeout_ms"`
}

type KeeperConfig struct {
	Enabled        bool         `mapstructure:"enabled"`
	Operator       string       `mapstructure:"operator"`
	IntervalMs     int          `mapstructure:"interval_ms"`
	Workers        int          `mapstructure:"workers"`
	Retries        int          `mapstructure:"retries"`
	PlatformFeeBps uint16       `mapstructure:"platform_fee_bps"`
	Shared         bool         `mapstructure:"shared"`
	Pairs          []PairConfig `mapstructure:"pairs"`
}

// PairConfig pins the venue pool the keeper quotes and routes a mint pair through.
type PairConfig struct {
	InputMint          string `mapstructure:"input_mint"`
	OutputMint         string `mapstructure:"output_mint"`
	SwapType           string `mapstructure:"swap_type"`
	Pool               string `mapstructure:"pool"`
	ProtocolFeeAccount string `mapstructure:"protocol_fee_account"`
}

const (
	DefaultEventBuffer   = 256
	DefaultBusyTimeoutMs = 5000
	DefaultIntervalMs    = 2000
	DefaultWorkers       = 4
	DefaultRetries       = 3
	EnvPrefix            = "SWAP_ROUTER"
)

// Interval returns the keeper scan period.
func (k KeeperConfig) Interval() time.Duration {
	return time.Duration(k.IntervalMs) * time.Millisecond
}

// LoadConfig reads path (if not empty) and applies SWAP_ROUTER_* overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"store.backend":           StoreMemory,
		"store.path":              "",
		"store.busy_timeout_ms":   DefaultBusyTimeoutMs,
		"log.file":                logger.DefaultConfig().LogFile,
		"log.max_size":            logger.DefaultConfig().MaxSize,
		"log.max_age":             logger.DefaultConfig().MaxAge,
		"log.max_backups":         logger.DefaultConfig().MaxBackups,
		"log.compress":            logger.DefaultConfig().Compress,
		"log.development":         false,
		"metrics_listen":          "",
		"event_buffer":            DefaultEventBuffer,
		"compute_level":           string(types.PriorityExtreme),
		"global_manager":          "",
		"keeper.enabled":          false,
		"keeper.operator":         "",
		"keeper.shared":           false,
		"keeper.platform_fee_bps": 0,
		"keeper.interval_ms":      DefaultIntervalMs,
		"keeper.workers":          DefaultWorkers,
		"keeper.retries":          DefaultRetries,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	switch cfg.Store.Backend {
	case StoreMemory:
	case StoreSQLite:
		if cfg.Store.Path == "" {
			return errors.New("store.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if cfg.Store.BusyTimeoutMs < 0 {
		return errors.New("invalid store.busy_timeout_ms")
	}
	if cfg.EventBuffer <= 0 {
		return errors.New("invalid event_buffer")
	}
	if _, err := types.ComputeUnits(types.PriorityLevel(cfg.ComputeLevel)); err != nil {
		return err
	}
	if _, err := cfg.GlobalManagerKey(); err != nil {
		return err
	}
	return validateKeeper(&cfg.Keeper)
}

// GlobalManagerKey parses global_manager. An empty value yields the zero key.
func (c *Config) GlobalManagerKey() (solana.PublicKey, error) {
	if c.GlobalManager == "" {
		return solana.PublicKey{}, nil
	}
	key, err := solana.PublicKeyFromBase58(c.GlobalManager)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid global_manager: %w", err)
	}
	if key.IsZero() {
		return solana.PublicKey{}, errors.New("global_manager must not be the zero key")
	}
	return key, nil
}

func validateKeeper(k *KeeperConfig) error {
	if !k.Enabled {
		return nil
	}
	if _, err := solana.PublicKeyFromBase58(k.Operator); err != nil {
		return fmt.Errorf("invalid keeper.operator: %w", err)
	}
	if k.IntervalMs <= 0 {
		return errors.New("invalid keeper.interval_ms")
	}
	if k.Workers <= 0 {
		return errors.New("invalid keeper.workers")
	}
	if k.Retries < 0 {
		return errors.New("invalid keeper.retries")
	}
	if k.PlatformFeeBps > types.BpsDenominator {
		return errors.New("invalid keeper.platform_fee_bps")
	}
	for i, p := range k.Pairs {
		for name, key := range map[string]string{"input_mint": p.InputMint, "output_mint": p.OutputMint, "pool": p.Pool} {
			if _, err := solana.PublicKeyFromBase58(key); err != nil {
				return fmt.Errorf("keeper.pairs[%d].%s: %w", i, name, err)
			}
		}
		if _, err := types.ParseSwapType(p.SwapType); err != nil {
			return fmt.Errorf("keeper.pairs[%d].swap_type: %w", i, err)
		}
	}
	return nil
}
