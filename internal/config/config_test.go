package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rcerrors "github.com/trufnetwork/rootcred/internal/errors"
)

const (
	testEAS      = "0xc300aeEadd60999933468738c9F5d7e9c0671e1C"
	testRegistry = "0x679c62956cD2801AbAbF80e9D430F18859eea2D5"
	testSchema   = "0x1111111111111111111111111111111111111111111111111111111111111111"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultRPCURL, cfg.RPCURL)
	assert.Equal(t, int64(31), cfg.ChainID)
	assert.Equal(t, DefaultExplorerURL, cfg.ExplorerURL)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("FileThenEnvironment", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "rootcred.yaml")
		content := `
rpc_url: https://rpc.example.org
eas_contract: ` + testEAS + `
schema_uid: ` + testSchema + `
confirmation:
  poll_interval: 1s
server:
  addr: ":9090"
  issue_rate_per_minute: 3
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		t.Setenv(EnvRPCURL, "https://override.example.org")
		t.Setenv(EnvPrefix+"CHAIN_ID", "30")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://override.example.org", cfg.RPCURL)
		assert.Equal(t, int64(30), cfg.ChainID)
		assert.Equal(t, testEAS, cfg.EASContract)
		assert.Equal(t, testSchema, cfg.SchemaUID)
		assert.Equal(t, time.Second, cfg.Confirmation.PollInterval)
		assert.Equal(t, 15*time.Second, cfg.Confirmation.MaxPollInterval, "unset values keep defaults")
		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, 3, cfg.Server.IssueRatePerMinute)
		require.NoError(t, cfg.Validate())
	})

	t.Run("NestedEnvironment", func(t *testing.T) {
		t.Setenv(EnvPrivateKey, "abc")
		t.Setenv(EnvPrefix+"HTTP_ADDR", "127.0.0.1:1")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "abc", cfg.Wallet.PrivateKey)
		assert.Equal(t, "127.0.0.1:1", cfg.Server.Addr)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "bad rpc", mutate: func(c *Config) { c.RPCURL = "ftp://x" }, errMsg: EnvRPCURL},
		{name: "chain id", mutate: func(c *Config) { c.ChainID = 0 }, errMsg: "chain id"},
		{name: "eas address", mutate: func(c *Config) { c.EASContract = "0x123" }, errMsg: EnvEASContract},
		{name: "registry address", mutate: func(c *Config) { c.SchemaRegistryContract = "nope" }, errMsg: EnvSchemaRegistryContract},
		{name: "schema uid", mutate: func(c *Config) { c.SchemaUID = "0x12" }, errMsg: EnvSchemaUID},
		{name: "poll", mutate: func(c *Config) { c.Confirmation.MaxPollInterval = time.Millisecond }, errMsg: "poll"},
		{name: "cron", mutate: func(c *Config) { c.Server.HealthProbeSchedule = "every now and then" }, errMsg: "health probe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, rcerrors.ErrConfiguration))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestAccessors(t *testing.T) {
	t.Run("MissingValuesAreConfigurationErrors", func(t *testing.T) {
		cfg := Default()

		_, err := cfg.EASAddress()
		require.ErrorIs(t, err, rcerrors.ErrConfiguration)
		assert.Contains(t, err.Error(), EnvEASContract)

		_, err = cfg.CredentialSchemaUID()
		require.ErrorIs(t, err, rcerrors.ErrConfiguration)
		assert.Contains(t, err.Error(), EnvSchemaUID)

		_, err = cfg.SchemaRegistryAddress()
		require.ErrorIs(t, err, rcerrors.ErrConfiguration)
	})

	t.Run("RegistryFallsBackToEAS", func(t *testing.T) {
		cfg := Default()
		cfg.EASContract = testEAS

		addr, err := cfg.SchemaRegistryAddress()
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(testEAS), addr)

		cfg.SchemaRegistryContract = testRegistry
		addr, err = cfg.SchemaRegistryAddress()
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(testRegistry), addr)
	})
}

func TestReadiness(t *testing.T) {
	cfg := Default()
	r := cfg.Readiness()
	assert.False(t, r.Reads)
	assert.False(t, r.Writes)
	assert.Len(t, r.Missing, 3)

	cfg.EASContract = testEAS
	cfg.SchemaUID = testSchema
	cfg.Wallet.PrivateKey = "abc"
	r = cfg.Readiness()
	assert.True(t, r.Reads)
	assert.True(t, r.Writes)
	assert.Empty(t, r.Missing)
}
