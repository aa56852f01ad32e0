package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/trufnetwork/rootcred/internal/config"
	"github.com/trufnetwork/rootcred/internal/eas"
	rcerrors "github.com/trufnetwork/rootcred/internal/errors"
	"github.com/trufnetwork/rootcred/internal/schema"
	"github.com/trufnetwork/rootcred/internal/wallet"
)

var knownUID = "0x" + strings.Repeat("0c", 32)

type fakeAttestations struct {
	submitted []eas.CredentialPayload
	submitErr error
	fetchErr  error
	stored    map[string]*eas.Attestation
}

func (f *fakeAttestations) SubmitAttestation(ctx context.Context, payload eas.CredentialPayload) (*eas.IssueResult, error) {
	f.submitted = append(f.submitted, payload)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &eas.IssueResult{UID: knownUID, TransactionHash: "0x" + strings.Repeat("0d", 32)}, nil
}

func (f *fakeAttestations) FetchAttestation(ctx context.Context, uid string) (*eas.Attestation, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.stored[uid], nil
}

type testServer struct {
	srv          *Server
	handler      http.Handler
	attestations *fakeAttestations
	session      *wallet.Session
}

func newTestServer(t *testing.T, mutate func(*config.Config), opts ...Option) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.EASContract = "0xc300aeEadd60999933468738c9F5d7e9c0671e1C"
	cfg.SchemaUID = "0x" + strings.Repeat("11", 32)
	if mutate != nil {
		mutate(cfg)
	}

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)

	ts := &testServer{
		attestations: &fakeAttestations{stored: map[string]*eas.Attestation{}},
		session:      wallet.NewSession(logger, wallet.NewPrivateKeyConnector(common.Bytes2Hex(crypto.FromECDSA(key)))),
	}
	opts = append([]Option{WithLogger(logger), WithClock(func() time.Time { return time.Unix(1717300000, 0) })}, opts...)
	ts.srv = New(cfg, ts.attestations, ts.session, opts...)
	ts.handler = ts.srv.Handler()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

type issueResponse struct {
	Phase        string `json:"phase"`
	UID          string `json:"uid"`
	ExplorerLink string `json:"explorerLink"`
	Error        string `json:"error"`
}

type verifyResponse struct {
	Phase  string `json:"phase"`
	Error  string `json:"error"`
	Result *struct {
		Status     string            `json:"status"`
		Attester   string            `json:"attester"`
		Credential map[string]string `json:"credential"`
	} `json:"result"`
}

func validForm() map[string]string {
	return map[string]string{
		"recipient":       "0xAbC0000000000000000000000000000000000123",
		"studentName":     "Ada Lovelace",
		"degreeName":      "B.Sc.",
		"institutionName": "RootCred University",
		"dateAwarded":     "2024-06-01",
	}
}

func TestIssueCredential(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/credentials", validForm())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[issueResponse](t, rec)
	assert.Equal(t, "success", resp.Phase)
	assert.Equal(t, knownUID, resp.UID)
	assert.Equal(t, "https://explorer.testnet.rsk.co/attestation/"+knownUID, resp.ExplorerLink)

	require.Len(t, ts.attestations.submitted, 1)
	assert.Equal(t, int64(1717200000), ts.attestations.submitted[0].DateAwarded)
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestIssueCredentialErrors(t *testing.T) {
	t.Run("InvalidDate", func(t *testing.T) {
		ts := newTestServer(t, nil)
		form := validForm()
		form["dateAwarded"] = "someday"
		rec := ts.do(t, http.MethodPost, "/api/credentials", form)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Please provide a valid award date.", decode[issueResponse](t, rec).Error)
		assert.Empty(t, ts.attestations.submitted)
	})

	t.Run("UnknownField", func(t *testing.T) {
		ts := newTestServer(t, nil)
		form := validForm()
		form["gpa"] = "4.0"
		rec := ts.do(t, http.MethodPost, "/api/credentials", form)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("NoWallet", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.attestations.submitErr = rcerrors.Environment(wallet.NoWalletMessage)
		rec := ts.do(t, http.MethodPost, "/api/credentials", validForm())
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, wallet.NoWalletMessage, decode[issueResponse](t, rec).Error)
	})

	t.Run("Reverted", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.attestations.submitErr = rcerrors.Chain(errors.New("transaction 0x01 reverted"))
		rec := ts.do(t, http.MethodPost, "/api/credentials", validForm())
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "error", decode[issueResponse](t, rec).Phase)
	})

	t.Run("RateLimited", func(t *testing.T) {
		ts := newTestServer(t, func(c *config.Config) { c.Server.IssueRatePerMinute = 1 })
		require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/credentials", validForm()).Code)
		rec := ts.do(t, http.MethodPost, "/api/credentials", validForm())
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Len(t, ts.attestations.submitted, 1)
	})
}

func TestVerifyAttestation(t *testing.T) {
	ts := newTestServer(t, nil)
	data, err := schema.EncodeCredential(schema.Credential{
		Recipient:       common.HexToAddress("0xAbC0000000000000000000000000000000000123"),
		StudentName:     "Ada Lovelace",
		DegreeName:      "B.Sc.",
		InstitutionName: "RootCred University",
		DateAwarded:     1717200000,
	})
	require.NoError(t, err)
	attester := common.HexToAddress("0x00000000000000000000000000000000000000Aa")
	ts.attestations.stored[knownUID] = &eas.Attestation{
		UID:            common.HexToHash(knownUID),
		Time:           1717250000,
		RevocationTime: 1717260000,
		Attester:       attester,
		Data:           data,
	}

	t.Run("Found", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/attestations/"+knownUID, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[verifyResponse](t, rec)
		assert.Equal(t, "found", resp.Phase)
		require.NotNil(t, resp.Result)
		assert.Equal(t, "Revoked", resp.Result.Status)
		assert.Equal(t, attester.Hex(), resp.Result.Attester)
		assert.Equal(t, "Ada Lovelace", resp.Result.Credential["studentName"])
	})

	t.Run("NotFound", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/attestations/0x"+strings.Repeat("00", 32), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "No attestation found for that UID.", decode[verifyResponse](t, rec).Error)
	})

	t.Run("MissingContract", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.attestations.fetchErr = rcerrors.MissingConfig(config.EnvEASContract)
		rec := ts.do(t, http.MethodGet, "/api/attestations/"+knownUID, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Nil(t, decode[verifyResponse](t, rec).Result)
	})
}

func TestSchemaEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/api/schema", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[SchemaResponse](t, rec)
	assert.Equal(t, schema.CredentialDefinition, resp.Definition)
	require.Len(t, resp.Fields, 5)
	assert.Equal(t, schema.Field{Name: "recipient", Type: "address"}, resp.Fields[0])
	assert.Equal(t, schema.Credentials.UID(common.Address{}, true).Hex(), resp.ComputedUID)
}

func TestWalletEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	state := decode[wallet.State](t, ts.do(t, http.MethodGet, "/api/wallet", nil))
	assert.Equal(t, wallet.StatusDisconnected, state.Status)

	rec := ts.do(t, http.MethodPost, "/api/wallet/connect", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var connected struct {
		Status  string `json:"status"`
		Address string `json:"address"`
		Display string `json:"display"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &connected))
	assert.Equal(t, "connected", connected.Status)
	assert.Equal(t, wallet.TruncateAddress(connected.Address), connected.Display)

	rec = ts.do(t, http.MethodPost, "/api/wallet/disconnect", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, wallet.StatusDisconnected, ts.session.Status())

	assert.Equal(t, http.StatusMethodNotAllowed, ts.do(t, http.MethodGet, "/api/wallet/connect", nil).Code)
}

func TestHealth(t *testing.T) {
	t.Run("BeforeFirstProbe", func(t *testing.T) {
		ts := newTestServer(t, func(c *config.Config) { c.Wallet = config.WalletConfig{} })
		rec := ts.do(t, http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[HealthResponse](t, rec)
		assert.Equal(t, "healthy", resp.Status)
		assert.Nil(t, resp.RPC)
		assert.True(t, resp.Readiness.Reads)
		assert.False(t, resp.Readiness.Writes)
	})

	t.Run("ProbeFailure", func(t *testing.T) {
		ts := newTestServer(t, nil, WithProber(ProberFunc(func(ctx context.Context) (uint64, error) {
			return 0, errors.New("connection refused")
		})))
		ts.srv.Probe(context.Background())

		rec := ts.do(t, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		resp := decode[HealthResponse](t, rec)
		require.NotNil(t, resp.RPC)
		assert.False(t, resp.RPC.Healthy)
		assert.Equal(t, "connection refused", resp.RPC.Error)
	})

	t.Run("ProbeSuccess", func(t *testing.T) {
		ts := newTestServer(t, nil, WithProber(ProberFunc(func(ctx context.Context) (uint64, error) {
			return 6021234, nil
		})))
		ts.srv.Probe(context.Background())

		resp := decode[HealthResponse](t, ts.do(t, http.MethodGet, "/health", nil))
		require.NotNil(t, resp.RPC)
		assert.True(t, resp.RPC.Healthy)
		assert.Equal(t, uint64(6021234), resp.RPC.Block)
	})
}

func TestRequestIDIsPropagated(t *testing.T) {
	ts := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/schema", nil)
	req.Header.Set(RequestIDHeader, "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/api/schema", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}
