package server

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	rcerrors "github.com/trufnetwork/rootcred/internal/errors"
	"github.com/trufnetwork/rootcred/internal/issuer"
	"github.com/trufnetwork/rootcred/internal/schema"
	"github.com/trufnetwork/rootcred/internal/verifier"
)

const maxBodyBytes = 64 << 10

// RateLimitedMessage is returned when issuance exceeds the configured rate.
const RateLimitedMessage = "Too many credential requests. Try again shortly."

// SchemaResponse describes the credential schema in use.
type SchemaResponse struct {
	Definition  string         `json:"definition"`
	Fields      []schema.Field `json:"fields"`
	UID         string         `json:"uid,omitempty"`
	ComputedUID string         `json:"computedUid"`
}

// statusFor maps an error kind to the HTTP status reported for it.
func statusFor(err error) int {
	switch rcerrors.KindOf(err) {
	case rcerrors.KindValidation:
		return http.StatusBadRequest
	case rcerrors.KindConfiguration, rcerrors.KindEnvironment:
		return http.StatusServiceUnavailable
	case rcerrors.KindChain:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SchemaResponse{
		Definition:  schema.Credentials.String(),
		Fields:      schema.Credentials.Fields(),
		UID:         s.cfg.SchemaUID,
		ComputedUID: schema.Credentials.UID(common.Address{}, true).Hex(),
	})
}

func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		s.metrics.RecordIssueRejected(r.Context(), "rate_limited")
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: RateLimitedMessage})
		return
	}

	var form issuer.Form
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	view := issuer.New(s.attestations, s.cfg.ExplorerURL,
		issuer.WithLogger(s.logger.With(zap.String("request_id", RequestID(r.Context())))),
		issuer.WithMetrics(s.metrics))
	view.SetForm(form)

	if err := view.Submit(r.Context()); err != nil {
		writeJSON(w, statusFor(err), view.State())
		return
	}
	writeJSON(w, http.StatusCreated, view.State())
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	view := verifier.New(s.attestations,
		verifier.WithClock(s.now),
		verifier.WithLogger(s.logger.With(zap.String("request_id", RequestID(r.Context())))),
		verifier.WithMetrics(s.metrics))

	if err := view.Verify(r.Context(), r.PathValue("uid")); err != nil {
		writeJSON(w, statusFor(err), view.State())
		return
	}

	state := view.State()
	if state.Phase == verifier.PhaseNotFound {
		writeJSON(w, http.StatusNotFound, state)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.wallet.State())
}

func (s *Server) handleWalletConnect(w http.ResponseWriter, r *http.Request) {
	if err := s.wallet.Connect(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, s.wallet.State())
		return
	}
	writeJSON(w, http.StatusOK, s.wallet.State())
}

func (s *Server) handleWalletDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.wallet.Disconnect(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.wallet.State())
}
