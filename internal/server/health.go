package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/trufnetwork/rootcred/internal/config"
)

const probeTimeout = 10 * time.Second

type healthTracker struct {
	mu        sync.RWMutex
	probed    bool
	healthy   bool
	block     uint64
	latency   time.Duration
	lastProbe time.Time
	lastError string
}

// HealthResponse reports the service and RPC endpoint state.
type HealthResponse struct {
	Status    string           `json:"status"`
	ChainID   int64            `json:"chainId"`
	Readiness config.Readiness `json:"readiness"`
	RPC       *RPCHealth       `json:"rpc,omitempty"`
}

type RPCHealth struct {
	Healthy   bool      `json:"healthy"`
	Block     uint64    `json:"block,omitempty"`
	Latency   string    `json:"latency"`
	CheckedAt time.Time `json:"checkedAt"`
	Error     string    `json:"error,omitempty"`
}

// Probe reads the latest block number and records the outcome.
func (s *Server) Probe(ctx context.Context) {
	if s.prober == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	started := time.Now()
	block, err := s.prober.BlockNumber(ctx)
	latency := time.Since(started)
	s.metrics.RecordRPCHealth(ctx, err == nil, latency)

	s.health.mu.Lock()
	defer s.health.mu.Unlock()
	s.health.probed = true
	s.health.healthy = err == nil
	s.health.latency = latency
	s.health.lastProbe = s.now()
	s.health.lastError = ""
	if err != nil {
		s.health.lastError = err.Error()
		s.logger.Warn("RPC health probe failed", zap.Error(err))
		return
	}
	s.health.block = block
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		ChainID:   s.cfg.ChainID,
		Readiness: s.cfg.Readiness(),
	}

	s.health.mu.RLock()
	if s.health.probed {
		resp.RPC = &RPCHealth{
			Healthy:   s.health.healthy,
			Block:     s.health.block,
			Latency:   s.health.latency.String(),
			CheckedAt: s.health.lastProbe,
			Error:     s.health.lastError,
		}
	}
	s.health.mu.RUnlock()

	status := http.StatusOK
	if resp.RPC != nil && !resp.RPC.Healthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
