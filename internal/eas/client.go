// Package eas talks to the Ethereum Attestation Service contracts.
//
// A Client builds a short-lived ReadClient or SigningClient for every
// operation, on top of the RPC connection its Dialer shares across the
// session. Nothing else is kept between calls.
package eas

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	pkgerrors "github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/trufnetwork/rootcred/internal/config"
	rcerrors "github.com/trufnetwork/rootcred/internal/errors"
	"github.com/trufnetwork/rootcred/internal/metrics"
	"github.com/trufnetwork/rootcred/internal/tracing"
	"github.com/trufnetwork/rootcred/internal/wallet"
)

// WalletProvider is the injected wallet a SigningClient signs with.
type WalletProvider interface {
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	Signer(ctx context.Context) (wallet.Account, error)
}

type Client struct {
	cfg     *config.Config
	dialer  *Dialer
	wallet  WalletProvider
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics metrics.Recorder
}

var _ Service = (*Client)(nil)

type Option func(*Client)

// WithWallet attaches the wallet used for writes.
func WithWallet(w WalletProvider) Option {
	return func(c *Client) { c.wallet = w }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(c *Client) { c.metrics = m }
}

func NewClient(cfg *config.Config, dialer *Dialer, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		dialer:  dialer,
		logger:  zap.NewNop(),
		metrics: metrics.NewNoOpMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("eas")
	c.breaker = newReadBreaker(c.logger)
	return c
}

// ReadClient queries the EAS contract without signing.
type ReadClient struct {
	contract common.Address
	backend  Backend
	breaker  *gobreaker.CircuitBreaker
}

// SigningClient sends transactions signed by the connected wallet account.
type SigningClient struct {
	ReadClient
	account wallet.Account
	chainID *big.Int
	confirm config.ConfirmationConfig
	logger  *zap.Logger
}

// BuildReadClient binds a ReadClient to the session connection. A missing
// contract address fails before any network access.
func (c *Client) BuildReadClient(ctx context.Context) (_ *ReadClient, err error) {
	ctx, end := tracing.TraceOp(ctx, tracing.OpBuildReadClient)
	defer func() { end(err) }()

	contract, err := c.cfg.EASAddress()
	if err != nil {
		return nil, err
	}
	backend, err := c.dialer.Backend(ctx)
	if err != nil {
		return nil, rcerrors.Chain(pkgerrors.Wrap(err, "connect to RPC endpoint"))
	}
	return &ReadClient{contract: contract, backend: backend, breaker: c.breaker}, nil
}

// BuildSigningClient requests account access from the wallet and binds a
// SigningClient to the EAS contract.
func (c *Client) BuildSigningClient(ctx context.Context) (*SigningClient, error) {
	contract, err := c.cfg.EASAddress()
	if err != nil {
		return nil, err
	}
	return c.buildSigningClient(ctx, contract)
}

func (c *Client) buildSigningClient(ctx context.Context, contract common.Address) (_ *SigningClient, err error) {
	ctx, end := tracing.TraceOp(ctx, tracing.OpBuildSigningClient)
	defer func() { end(err) }()

	if c.wallet == nil {
		return nil, rcerrors.Environment(wallet.NoWalletMessage)
	}

	accounts, err := c.wallet.RequestAccounts(ctx)
	if err != nil {
		return nil, rcerrors.Chain(err)
	}
	if len(accounts) == 0 {
		return nil, rcerrors.Environment(wallet.NoWalletMessage)
	}
	account, err := c.wallet.Signer(ctx)
	if err != nil {
		return nil, rcerrors.Chain(err)
	}

	backend, err := c.dialer.Backend(ctx)
	if err != nil {
		return nil, rcerrors.Chain(pkgerrors.Wrap(err, "connect to RPC endpoint"))
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, rcerrors.Chain(pkgerrors.Wrap(err, "read chain id"))
	}
	if chainID.Int64() != c.cfg.ChainID {
		return nil, rcerrors.Environment(fmt.Sprintf(
			"RPC endpoint serves chain %s, expected chain %d.", chainID, c.cfg.ChainID))
	}

	return &SigningClient{
		ReadClient: ReadClient{contract: contract, backend: backend, breaker: c.breaker},
		account:    account,
		chainID:    chainID,
		confirm:    c.cfg.Confirmation,
		logger:     c.logger,
	}, nil
}

// call runs a read-only contract call through the circuit breaker.
func (r *ReadClient) call(ctx context.Context, to common.Address, input []byte) ([]byte, error) {
	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

// Address returns the account the client signs with.
func (s *SigningClient) Address() common.Address {
	return s.account.Address()
}
