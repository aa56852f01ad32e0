package eas

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Backend is the part of an Ethereum RPC client the attestation client uses.
// *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// DialFunc opens a Backend for an RPC endpoint.
type DialFunc func(ctx context.Context, rawURL string) (Backend, error)

// DialEthClient dials rawURL with go-ethereum's ethclient.
func DialEthClient(ctx context.Context, rawURL string) (Backend, error) {
	client, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Dialer holds the one RPC connection shared by an application session.
type Dialer struct {
	url  string
	dial DialFunc

	mu      sync.Mutex
	backend Backend
}

func NewDialer(rawURL string, dial DialFunc) *Dialer {
	if dial == nil {
		dial = DialEthClient
	}
	return &Dialer{url: rawURL, dial: dial}
}

// Backend returns the session connection, dialing it on first use.
func (d *Dialer) Backend(ctx context.Context) (Backend, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.backend != nil {
		return d.backend, nil
	}
	b, err := d.dial(ctx, d.url)
	if err != nil {
		return nil, err
	}
	d.backend = b
	return b, nil
}

// Close releases the session connection. A later Backend call dials again.
func (d *Dialer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.backend != nil {
		d.backend.Close()
		d.backend = nil
	}
}

// Circuit breaker configuration for read calls.
const (
	DefaultBreakerMaxRequests  = 3
	DefaultBreakerInterval     = 30 * time.Second
	DefaultBreakerTimeout      = 30 * time.Second
	DefaultBreakerFailureRatio = 0.6
)

// newReadBreaker trips when most recent read calls failed, so a dead RPC
// endpoint fails fast instead of hanging every lookup. It never retries.
func newReadBreaker(logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "eas-read",
		MaxRequests: DefaultBreakerMaxRequests,
		Interval:    DefaultBreakerInterval,
		Timeout:     DefaultBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= DefaultBreakerMaxRequests && failureRatio >= DefaultBreakerFailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}
