// Package server exposes issuance, verification and the wallet session over a
// small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/trufnetwork/rootcred/internal/config"
	"github.com/trufnetwork/rootcred/internal/eas"
	"github.com/trufnetwork/rootcred/internal/metrics"
	"github.com/trufnetwork/rootcred/internal/wallet"
)

// Attestations is the attestation backend the API serves.
type Attestations interface {
	eas.Submitter
	eas.Fetcher
}

// WalletSession is the wallet session shared by every request.
type WalletSession interface {
	State() wallet.State
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// Prober reports the latest block of the RPC endpoint.
type Prober interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) (uint64, error)

func (f ProberFunc) BlockNumber(ctx context.Context) (uint64, error) { return f(ctx) }

type Server struct {
	cfg          *config.Config
	attestations Attestations
	wallet       WalletSession
	prober       Prober
	limiter      *rate.Limiter
	logger       *zap.Logger
	metrics      metrics.Recorder
	now          func() time.Time

	health *healthTracker
	cron   *cron.Cron
	http   *http.Server
}

type Option func(*Server)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(s *Server) { s.metrics = m }
}

// WithProber enables the scheduled RPC health probe.
func WithProber(p Prober) Option {
	return func(s *Server) { s.prober = p }
}

// WithClock sets the clock used for expiration checks and health timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(cfg *config.Config, attestations Attestations, session WalletSession, opts ...Option) *Server {
	s := &Server{
		cfg:          cfg,
		attestations: attestations,
		wallet:       session,
		logger:       zap.NewNop(),
		metrics:      metrics.NewNoOpMetrics(),
		now:          time.Now,
		health:       &healthTracker{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("server")
	s.limiter = newIssueLimiter(cfg.Server.IssueRatePerMinute)

	s.http = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// newIssueLimiter allows perMinute issuances per minute with bursts of the
// same size. A non-positive rate disables limiting.
func newIssueLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// Handler returns the API routes wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/schema", s.handleSchema)
	mux.HandleFunc("POST /api/credentials", s.handleIssue)
	mux.HandleFunc("GET /api/attestations/{uid}", s.handleVerify)
	mux.HandleFunc("GET /api/wallet", s.handleWallet)
	mux.HandleFunc("POST /api/wallet/connect", s.handleWalletConnect)
	mux.HandleFunc("POST /api/wallet/disconnect", s.handleWalletDisconnect)
	return s.withRequestID(s.withLogging(mux))
}

// Start runs the health probe schedule and serves until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	if s.prober != nil && s.cfg.Server.HealthProbeSchedule != "" {
		s.cron = cron.New()
		if _, err := s.cron.AddFunc(s.cfg.Server.HealthProbeSchedule, func() { s.Probe(context.Background()) }); err != nil {
			return err
		}
		s.cron.Start()
		go s.Probe(ctx)
	}

	s.logger.Info("starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the probe schedule and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	return s.http.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}
