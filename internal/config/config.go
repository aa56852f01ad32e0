// Package config loads rootcred settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	rcerrors "github.com/trufnetwork/rootcred/internal/errors"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "ROOTCRED_"

// Fully qualified environment variable names, used in error messages.
const (
	EnvRPCURL                 = EnvPrefix + "RPC_URL"
	EnvEASContract            = EnvPrefix + "EAS_CONTRACT"
	EnvSchemaUID              = EnvPrefix + "SCHEMA_UID"
	EnvSchemaRegistryContract = EnvPrefix + "SCHEMA_REGISTRY_CONTRACT"
	EnvPrivateKey             = EnvPrefix + "PRIVATE_KEY"
	EnvKeystorePath           = EnvPrefix + "KEYSTORE_PATH"
)

// Rootstock Testnet defaults.
const (
	DefaultRPCURL      = "https://public-node.testnet.rsk.co"
	DefaultChainID     = 31
	DefaultChainName   = "Rootstock Testnet"
	DefaultExplorerURL = "https://explorer.testnet.rsk.co"
)

var bytes32Pattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

type Config struct {
	RPCURL                 string `yaml:"rpc_url" env:"RPC_URL"`
	ChainID                int64  `yaml:"chain_id" env:"CHAIN_ID"`
	EASContract            string `yaml:"eas_contract" env:"EAS_CONTRACT"`
	SchemaUID              string `yaml:"schema_uid" env:"SCHEMA_UID"`
	SchemaRegistryContract string `yaml:"schema_registry_contract" env:"SCHEMA_REGISTRY_CONTRACT"`
	ExplorerURL            string `yaml:"explorer_url" env:"EXPLORER_URL"`

	Wallet       WalletConfig       `yaml:"wallet"`
	Confirmation ConfirmationConfig `yaml:"confirmation"`
	Server       ServerConfig       `yaml:"server"`
	Logger       LoggerConfig       `yaml:"logger"`
}

// WalletConfig selects the key material the wallet session can connect with.
type WalletConfig struct {
	PrivateKey       string `yaml:"private_key" env:"PRIVATE_KEY"`
	KeystorePath     string `yaml:"keystore_path" env:"KEYSTORE_PATH"`
	KeystorePassword string `yaml:"keystore_password" env:"KEYSTORE_PASSWORD"`
}

// ConfirmationConfig controls receipt polling after an attestation is sent.
type ConfirmationConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval" env:"CONFIRMATION_POLL_INTERVAL"`
	MaxPollInterval time.Duration `yaml:"max_poll_interval" env:"CONFIRMATION_MAX_POLL_INTERVAL"`
}

type ServerConfig struct {
	Addr                string        `yaml:"addr" env:"HTTP_ADDR"`
	ReadTimeout         time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT"`
	WriteTimeout        time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT"`
	IssueRatePerMinute  int           `yaml:"issue_rate_per_minute" env:"ISSUE_RATE_PER_MINUTE"`
	HealthProbeSchedule string        `yaml:"health_probe_schedule" env:"HEALTH_PROBE_SCHEDULE"`
}

type LoggerConfig struct {
	Development bool `yaml:"development" env:"LOG_DEVELOPMENT"`
}

// Default returns the Rootstock Testnet configuration without any contract
// addresses or keys.
func Default() *Config {
	return &Config{
		RPCURL:      DefaultRPCURL,
		ChainID:     DefaultChainID,
		ExplorerURL: DefaultExplorerURL,
		Confirmation: ConfirmationConfig{
			PollInterval:    2 * time.Second,
			MaxPollInterval: 15 * time.Second,
		},
		Server: ServerConfig{
			Addr:                ":8080",
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        3 * time.Minute,
			IssueRatePerMinute:  10,
			HealthProbeSchedule: "@every 30s",
		},
	}
}

// Load builds the configuration from defaults, then path (if not empty), then
// the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

// Validate rejects malformed values. Unset optional values are not errors;
// see Readiness.
func (c *Config) Validate() error {
	var problems []string

	if err := validateURL(c.RPCURL, "http", "https", "ws", "wss"); err != nil {
		problems = append(problems, fmt.Sprintf("%s: %v", EnvRPCURL, err))
	}
	if c.ChainID <= 0 {
		problems = append(problems, fmt.Sprintf("chain id must be positive, got %d", c.ChainID))
	}
	if c.EASContract != "" && !common.IsHexAddress(c.EASContract) {
		problems = append(problems, fmt.Sprintf("%s: %q is not a hex address", EnvEASContract, c.EASContract))
	}
	if c.SchemaRegistryContract != "" && !common.IsHexAddress(c.SchemaRegistryContract) {
		problems = append(problems, fmt.Sprintf("%s: %q is not a hex address", EnvSchemaRegistryContract, c.SchemaRegistryContract))
	}
	if c.SchemaUID != "" && !bytes32Pattern.MatchString(c.SchemaUID) {
		problems = append(problems, fmt.Sprintf("%s: %q is not a 32-byte hex value", EnvSchemaUID, c.SchemaUID))
	}
	if err := validateURL(c.ExplorerURL, "http", "https"); err != nil {
		problems = append(problems, fmt.Sprintf("explorer url: %v", err))
	}
	if c.Confirmation.PollInterval <= 0 || c.Confirmation.MaxPollInterval < c.Confirmation.PollInterval {
		problems = append(problems, "confirmation poll intervals must be positive and max >= initial")
	}
	if c.Server.IssueRatePerMinute < 0 {
		problems = append(problems, "issue rate per minute cannot be negative")
	}
	if c.Server.HealthProbeSchedule != "" {
		if _, err := cron.ParseStandard(c.Server.HealthProbeSchedule); err != nil {
			problems = append(problems, fmt.Sprintf("health probe schedule: %v", err))
		}
	}

	if len(problems) > 0 {
		return rcerrors.Configuration("invalid configuration", fmt.Errorf("%s", strings.Join(problems, "; ")))
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("unsupported url %q", raw)
}

// EASAddress returns the attestation contract address.
func (c *Config) EASAddress() (common.Address, error) {
	if c.EASContract == "" {
		return common.Address{}, rcerrors.MissingConfig(EnvEASContract)
	}
	return common.HexToAddress(c.EASContract), nil
}

// SchemaRegistryAddress returns the registry override, or the attestation
// contract address when no override is set.
func (c *Config) SchemaRegistryAddress() (common.Address, error) {
	if c.SchemaRegistryContract != "" {
		return common.HexToAddress(c.SchemaRegistryContract), nil
	}
	return c.EASAddress()
}

// CredentialSchemaUID returns the schema identifier new attestations are made under.
func (c *Config) CredentialSchemaUID() (common.Hash, error) {
	if c.SchemaUID == "" {
		return common.Hash{}, rcerrors.MissingConfig(EnvSchemaUID)
	}
	return common.HexToHash(c.SchemaUID), nil
}
