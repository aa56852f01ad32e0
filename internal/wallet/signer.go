package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account is a connected wallet account able to sign transactions.
type Account interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// KeySigner signs transactions with a secp256k1 private key held in memory.
// It is safe for concurrent use; Close drops the key.
type KeySigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	mu         sync.RWMutex
}

// NewKeySigner wraps an ECDSA private key.
func NewKeySigner(privateKey *ecdsa.PrivateKey) (*KeySigner, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	return &KeySigner{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// NewKeySignerFromHex parses a hex private key, with or without 0x prefix.
func NewKeySignerFromHex(hexKey string) (*KeySigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("private key cannot be empty")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return NewKeySigner(key)
}

// Address returns the account address derived from the public key.
func (s *KeySigner) Address() common.Address {
	return s.address
}

// SignTx signs tx for chainID using the latest signer rules for that chain.
func (s *KeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.privateKey == nil {
		return nil, fmt.Errorf("wallet is disconnected")
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("chain id must be positive")
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// Close forgets the private key. Later signing attempts fail.
func (s *KeySigner) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.privateKey = nil
}
