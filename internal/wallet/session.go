// Package wallet manages the wallet session rootcred signs attestations with.
//
// A Session moves between Disconnected, Connecting, Connected and
// Disconnecting. Connect picks the first ready connector, falling back to the
// first listed one. The session doubles as the wallet provider of the
// attestation client: RequestAccounts connects on demand.
package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"go.uber.org/zap"

	rcerrors "github.com/trufnetwork/rootcred/internal/errors"
)

// NoWalletMessage is shown when signing is attempted without any wallet.
const NoWalletMessage = "No injected wallet found. Configure a private key or keystore to sign attestations."

// Status is the connection state of a Session.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusDisconnecting
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnecting:
		return "disconnecting"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{StatusDisconnected, StatusConnecting, StatusConnected, StatusDisconnecting} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown wallet status %q", text)
}

// State is a snapshot of a Session for display.
type State struct {
	Status    Status `json:"status"`
	Address   string `json:"address,omitempty"`
	Display   string `json:"display,omitempty"`
	Connector string `json:"connector,omitempty"`
	Error     string `json:"error,omitempty"`
}

type closer interface {
	Close()
}

type Session struct {
	logger     *zap.Logger
	connectors []Connector

	mu        sync.Mutex
	status    Status
	account   Account
	connector Connector
	lastErr   error
}

func NewSession(logger *zap.Logger, connectors ...Connector) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		logger:     logger.Named("wallet"),
		connectors: connectors,
	}
}

// Connectors returns the available connectors in preference order.
func (s *Session) Connectors() []Connector {
	return append([]Connector(nil), s.connectors...)
}

// pickConnector prefers a connector that reports ready and falls back to the first one.
func (s *Session) pickConnector() (Connector, bool) {
	if c, ok := lo.Find(s.connectors, func(c Connector) bool { return c.Ready() }); ok {
		return c, true
	}
	if len(s.connectors) == 0 {
		return nil, false
	}
	return s.connectors[0], true
}

// Connect establishes a session. With no connectors it logs and returns nil
// without changing state. Connecting an already connected session is a no-op.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusConnected || s.status == StatusConnecting {
		s.mu.Unlock()
		return nil
	}
	connector, ok := s.pickConnector()
	if !ok {
		s.mu.Unlock()
		s.logger.Error("no wallet connectors are available")
		return nil
	}
	s.status = StatusConnecting
	s.lastErr = nil
	s.mu.Unlock()

	account, err := connector.Connect(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = StatusDisconnected
		s.lastErr = err
		s.logger.Error("wallet connect failed", zap.String("connector", connector.ID()), zap.Error(err))
		return err
	}
	s.status = StatusConnected
	s.account = account
	s.connector = connector
	s.logger.Info("wallet connected",
		zap.String("connector", connector.ID()),
		zap.String("address", TruncateAddress(account.Address().Hex())))
	return nil
}

// Disconnect tears down the active session.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusConnected {
		s.mu.Unlock()
		return nil
	}
	s.status = StatusDisconnecting
	account := s.account
	s.mu.Unlock()

	if c, ok := account.(closer); ok {
		c.Close()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusDisconnected
	s.account = nil
	s.connector = nil
	s.lastErr = nil
	s.logger.Info("wallet disconnected")
	return ctx.Err()
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// State returns a display snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{Status: s.status}
	if s.account != nil {
		st.Address = s.account.Address().Hex()
		st.Display = TruncateAddress(st.Address)
	}
	if s.connector != nil {
		st.Connector = s.connector.Name()
	}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	return st
}

// RequestAccounts returns the connected account, connecting first if needed.
func (s *Session) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if len(s.connectors) == 0 {
		return nil, rcerrors.Environment(NoWalletMessage)
	}
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return nil, fmt.Errorf("wallet is not connected")
	}
	return []common.Address{s.account.Address()}, nil
}

// Signer returns the connected account.
func (s *Session) Signer(ctx context.Context) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return nil, fmt.Errorf("wallet is not connected")
	}
	return s.account, nil
}

// TruncateAddress shortens an address to its first 6 and last 4 characters.
func TruncateAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}
