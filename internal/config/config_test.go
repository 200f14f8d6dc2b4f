// internal/config/config_test.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validConfigJSON = `{
    "store": {"backend": "sqlite", "path": "/tmp/router.db", "busy_timeout_ms": 250},
    "log": {"file": "test.log", "development": true},
    "metrics_listen": ":9102",
    "compute_level": "high",
    "global_manager": "%s",
    "keeper": {
        "enabled": true,
        "operator": "%s",
        "interval_ms": 500,
        "workers": 2,
        "pairs": [
            {"input_mint": "%s", "output_mint": "%s", "swap_type": "raydium", "pool": "%s"}
        ]
    }
}`

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func key() string { return solana.NewWallet().PublicKey().String() }

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, DefaultBusyTimeoutMs, cfg.Store.BusyTimeoutMs)
	assert.Equal(t, DefaultEventBuffer, cfg.EventBuffer)
	assert.Equal(t, "extreme", cfg.ComputeLevel)
	assert.Equal(t, "routerd.log", cfg.Log.LogFile)
	assert.False(t, cfg.Keeper.Enabled)
	manager, err := cfg.GlobalManagerKey()
	require.NoError(t, err)
	assert.True(t, manager.IsZero())
	assert.Equal(t, DefaultWorkers, cfg.Keeper.Workers)
	assert.Equal(t, int64(DefaultIntervalMs), cfg.Keeper.Interval().Milliseconds())
}

func TestLoadConfigFile(t *testing.T) {
	manager, operator, mint, pool := key(), key(), key(), key()
	path := writeConfig(t, fmt.Sprintf(validConfigJSON, manager, operator, mint, mint, pool))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, 250, cfg.Store.BusyTimeoutMs)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, "high", cfg.ComputeLevel)
	assert.Equal(t, operator, cfg.Keeper.Operator)
	managerKey, err := cfg.GlobalManagerKey()
	require.NoError(t, err)
	assert.Equal(t, manager, managerKey.String())
	assert.Equal(t, DefaultRetries, cfg.Keeper.Retries)
	require.Len(t, cfg.Keeper.Pairs, 1)
	assert.Equal(t, pool, cfg.Keeper.Pairs[0].Pool)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SWAP_ROUTER_EVENT_BUFFER", "32")
	t.Setenv("SWAP_ROUTER_KEEPER_WORKERS", "9")
	t.Setenv("SWAP_ROUTER_STORE_BACKEND", "memory")

	operator, mint, pool := key(), key(), key()
	cfg, err := LoadConfig(writeConfig(t, fmt.Sprintf(validConfigJSON, key(), operator, mint, mint, pool)))
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.EventBuffer)
	assert.Equal(t, 9, cfg.Keeper.Workers)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"sqlite without path", `{"store": {"backend": "sqlite"}}`},
		{"unknown backend", `{"store": {"backend": "postgres"}}`},
		{"compute level", `{"compute_level": "ludicrous"}`},
		{"event buffer", `{"event_buffer": 0}`},
		{"global manager", `{"global_manager": "nope"}`},
		{"zero global manager", `{"global_manager": "11111111111111111111111111111111"}`},
		{"keeper operator", `{"keeper": {"enabled": true, "operator": "nope"}}`},
		{"keeper fee", `{"keeper": {"enabled": true, "operator": "` + key() + `", "platform_fee_bps": 10001}}`},
		{"pair swap type", `{"keeper": {"enabled": true, "operator": "` + key() + `", "pairs": [{"input_mint": "` + key() + `", "output_mint": "` + key() + `", "pool": "` + key() + `", "swap_type": "orca"}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
