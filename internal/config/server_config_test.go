package config_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/go-chapay/internal/config"
)

func TestPrintServiceEnv(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()
	serialized, err := json.MarshalIndent(cfg, "", "  ")
	require.NoError(t, err)

	// Secrets stay out of the env dump.
	assert.NotContains(t, string(serialized), "Password")
	assert.NotContains(t, string(serialized), "Secret")
}

func TestDefaultServiceConfig(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()

	assert.Equal(t, ":8560", cfg.Echo.ListenAddress)
	assert.Equal(t, uint64(1337), cfg.Relay.ChainID)
	assert.Equal(t, "http://localhost:8545", cfg.Relay.UpstreamURL)
	assert.True(t, cfg.Relay.EnableSponsorship)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.NATS.Enabled)
}

func TestServiceConfigFromEnv(t *testing.T) {
	t.Setenv("RELAY_CHAIN_ID", "119")
	t.Setenv("RELAY_ALLOWED_FEE_TOKENS", "0x000000000000000000000000000000000000fee1, 0x000000000000000000000000000000000000fee2")
	t.Setenv("RELAY_DAILY_SPONSOR_CAP", "50")
	t.Setenv("SERVER_ECHO_LISTEN_ADDRESS", ":9999")

	cfg := config.DefaultServiceConfigFromEnv()

	assert.Equal(t, uint64(119), cfg.Relay.ChainID)
	assert.Equal(t, []string{
		"0x000000000000000000000000000000000000fee1",
		"0x000000000000000000000000000000000000fee2",
	}, cfg.Relay.AllowedFeeTokens)
	assert.Equal(t, 50, cfg.Relay.DailySponsorCap)
	assert.Equal(t, ":9999", cfg.Echo.ListenAddress)
}

func TestDatabaseConnectionString(t *testing.T) {
	db := config.Database{
		Host:     "localhost",
		Port:     5432,
		Username: "chapay",
		Password: "secret",
		Database: "relay",
		AdditionalParams: map[string]string{
			"sslmode":         "disable",
			"connect_timeout": "5",
		},
	}

	assert.Equal(t,
		"host=localhost port=5432 user=chapay password=secret dbname=relay connect_timeout=5 sslmode=disable",
		db.ConnectionString())
}
