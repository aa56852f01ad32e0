package wallet

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/keystore"

	"github.com/trufnetwork/rootcred/internal/config"
)

// Connector is one way of obtaining a wallet account.
type Connector interface {
	ID() string
	Name() string
	// Ready reports whether Connect is expected to succeed without further input.
	Ready() bool
	Connect(ctx context.Context) (Account, error)
}

// PrivateKeyConnector connects with a raw hex private key.
type PrivateKeyConnector struct {
	hexKey string
}

func NewPrivateKeyConnector(hexKey string) *PrivateKeyConnector {
	return &PrivateKeyConnector{hexKey: hexKey}
}

func (c *PrivateKeyConnector) ID() string   { return "private-key" }
func (c *PrivateKeyConnector) Name() string { return "Private Key" }
func (c *PrivateKeyConnector) Ready() bool  { return c.hexKey != "" }

func (c *PrivateKeyConnector) Connect(ctx context.Context) (Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewKeySignerFromHex(c.hexKey)
}

// KeystoreConnector connects by decrypting a go-ethereum keystore file.
type KeystoreConnector struct {
	path     string
	password string
}

func NewKeystoreConnector(path, password string) *KeystoreConnector {
	return &KeystoreConnector{path: path, password: password}
}

func (c *KeystoreConnector) ID() string   { return "keystore" }
func (c *KeystoreConnector) Name() string { return "Keystore File" }

func (c *KeystoreConnector) Ready() bool {
	if c.path == "" {
		return false
	}
	info, err := os.Stat(c.path)
	return err == nil && !info.IsDir()
}

func (c *KeystoreConnector) Connect(ctx context.Context) (Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}
	key, err := keystore.DecryptKey(data, c.password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore: %w", err)
	}
	return NewKeySigner(key.PrivateKey)
}

// ConnectorsFromConfig lists the connectors the configuration provides key
// material for, keystore first.
func ConnectorsFromConfig(cfg config.WalletConfig) []Connector {
	var connectors []Connector
	if cfg.KeystorePath != "" {
		connectors = append(connectors, NewKeystoreConnector(cfg.KeystorePath, cfg.KeystorePassword))
	}
	if cfg.PrivateKey != "" {
		connectors = append(connectors, NewPrivateKeyConnector(cfg.PrivateKey))
	}
	return connectors
}
