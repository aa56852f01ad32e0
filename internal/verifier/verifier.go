// Package verifier looks up credential attestations by UID and derives their
// display status.
package verifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/trufnetwork/rootcred/internal/eas"
	rcerrors "github.com/trufnetwork/rootcred/internal/errors"
	"github.com/trufnetwork/rootcred/internal/metrics"
	"github.com/trufnetwork/rootcred/internal/schema"
)

const (
	NotFoundMessage = "No attestation found for that UID."
	FallbackMessage = "Unable to load attestation."
	UnknownDate     = "Unknown"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseFound
	PhaseNotFound
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseFound:
		return "found"
	case PhaseNotFound:
		return "not_found"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Status of a credential at the time it was read.
type Status string

const (
	StatusValid   Status = "Valid"
	StatusRevoked Status = "Revoked"
	StatusExpired Status = "Expired"
)

// DeriveStatus applies the EAS lifecycle rules: a revocation wins over an
// expiration, and an expiration of zero never expires. Expirations are
// compared as unsigned seconds so values past MaxInt64 stay in the future.
func DeriveStatus(revocationTime, expirationTime uint64, now time.Time) Status {
	nowUnix := now.Unix()
	switch {
	case revocationTime > 0:
		return StatusRevoked
	case expirationTime != 0 && nowUnix > 0 && expirationTime < uint64(nowUnix):
		return StatusExpired
	default:
		return StatusValid
	}
}

// DecodedCredential holds the attestation payload keyed by schema field, each
// value rendered as text.
type DecodedCredential struct {
	Recipient       string `mapstructure:"recipient" json:"recipient"`
	StudentName     string `mapstructure:"studentName" json:"studentName"`
	DegreeName      string `mapstructure:"degreeName" json:"degreeName"`
	InstitutionName string `mapstructure:"institutionName" json:"institutionName"`
	DateAwarded     string `mapstructure:"dateAwarded" json:"dateAwarded"`
}

// Result is what a successful lookup shows.
type Result struct {
	UID         string            `json:"uid"`
	Status      Status            `json:"status"`
	Attester    string            `json:"attester"`
	IssuedAt    uint64            `json:"issuedAt"`
	Credential  DecodedCredential `json:"credential"`
	DateAwarded string            `json:"dateAwardedDisplay"`
	Issued      string            `json:"issuedDisplay"`
}

type State struct {
	Phase  Phase   `json:"phase"`
	Input  string  `json:"input"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

type View struct {
	fetcher eas.Fetcher
	now     func() time.Time
	logger  *zap.Logger
	metrics metrics.Recorder

	mu    sync.Mutex
	state State
}

type Option func(*View)

func WithLogger(logger *zap.Logger) Option {
	return func(v *View) { v.logger = logger }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(v *View) { v.metrics = m }
}

// WithClock sets the clock used for expiration checks.
func WithClock(now func() time.Time) Option {
	return func(v *View) { v.now = now }
}

func New(fetcher eas.Fetcher, opts ...Option) *View {
	v := &View{
		fetcher: fetcher,
		now:     time.Now,
		logger:  zap.NewNop(),
		metrics: metrics.NewNoOpMetrics(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.Named("verifier")
	return v
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// CanSubmit reports whether a new lookup may start.
func (v *View) CanSubmit() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Phase != PhaseLoading
}

// Verify looks up the attestation identified by input. Not finding one is
// not an error. The previous result stays visible while loading.
func (v *View) Verify(ctx context.Context, input string) error {
	uid := strings.TrimSpace(input)

	v.mu.Lock()
	v.state = State{Phase: PhaseLoading, Input: uid, Result: v.state.Result}
	v.mu.Unlock()

	started := time.Now()
	att, err := v.fetcher.FetchAttestation(ctx, uid)
	if err != nil {
		v.metrics.RecordVerify(ctx, "error", time.Since(started))
		v.fail(err)
		return err
	}
	if att == nil {
		v.metrics.RecordVerify(ctx, "not_found", time.Since(started))
		v.mu.Lock()
		v.state = State{Phase: PhaseNotFound, Input: uid, Error: NotFoundMessage}
		v.mu.Unlock()
		return nil
	}

	result, err := v.describe(att)
	if err != nil {
		v.metrics.RecordVerify(ctx, "error", time.Since(started))
		v.fail(err)
		return err
	}
	v.metrics.RecordVerify(ctx, "found", time.Since(started))

	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = State{Phase: PhaseFound, Input: uid, Result: result}
	v.logger.Debug("attestation found", zap.String("uid", result.UID), zap.String("status", string(result.Status)))
	return nil
}

func (v *View) fail(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Phase = PhaseError
	v.state.Result = nil
	v.state.Error = rcerrors.Message(err, FallbackMessage)
	v.logger.Warn("attestation lookup failed", zap.String("uid", v.state.Input), zap.Error(err))
}

func (v *View) describe(att *eas.Attestation) (*Result, error) {
	credential, err := Decode(att.Data)
	if err != nil {
		return nil, err
	}
	return &Result{
		UID:         att.UID.Hex(),
		Status:      DeriveStatus(att.RevocationTime, att.ExpirationTime, v.now()),
		Attester:    att.Attester.Hex(),
		IssuedAt:    att.Time,
		Credential:  credential,
		DateAwarded: FormatDateFromSeconds(credential.DateAwarded),
		Issued:      formatTimestamp(att.Time),
	}, nil
}

// Decode maps attestation data encoded with the credential schema onto a
// DecodedCredential.
func Decode(data []byte) (DecodedCredential, error) {
	values, err := schema.Credentials.DecodeData(data)
	if err != nil {
		return DecodedCredential{}, rcerrors.Validation(fmt.Sprintf("attestation data does not match the credential schema: %v", err))
	}
	fields := lo.Associate(values, func(v schema.Value) (string, any) {
		return v.Name, valueText(v.Value)
	})

	var out DecodedCredential
	if err := mapstructure.Decode(fields, &out); err != nil {
		return DecodedCredential{}, rcerrors.Validation(err.Error())
	}
	return out, nil
}

func valueText(value any) string {
	switch v := value.(type) {
	case common.Address:
		return v.Hex()
	case string:
		return v
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// FormatDateFromSeconds renders a Unix timestamp given as decimal text as a
// UTC calendar date, or "Unknown" when it is missing or not positive.
func FormatDateFromSeconds(value string) string {
	seconds, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || seconds <= 0 {
		return UnknownDate
	}
	return time.Unix(seconds, 0).UTC().Format("2006-01-02")
}

func formatTimestamp(seconds uint64) string {
	if seconds == 0 {
		return UnknownDate
	}
	return time.Unix(int64(seconds), 0).UTC().Format(time.RFC3339)
}
