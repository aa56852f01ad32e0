// Package issuer drives credential issuance: a five-field form, award date
// conversion and the Idle, Submitting, Success and Error phases of a
// submission.
package issuer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-sql/civil"
	"go.uber.org/zap"

	"github.com/trufnetwork/rootcred/internal/eas"
	rcerrors "github.com/trufnetwork/rootcred/internal/errors"
	"github.com/trufnetwork/rootcred/internal/metrics"
)

const (
	InvalidDateMessage = "Please provide a valid award date."
	FallbackMessage    = "Unable to issue credential."
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Form holds the raw issuer input.
type Form struct {
	Recipient       string `json:"recipient"`
	StudentName     string `json:"studentName"`
	DegreeName      string `json:"degreeName"`
	InstitutionName string `json:"institutionName"`
	DateAwarded     string `json:"dateAwarded"`
}

// State is a snapshot of the view. Only the fields of the current phase are set.
type State struct {
	Phase           Phase  `json:"phase"`
	Form            Form   `json:"form"`
	UID             string `json:"uid,omitempty"`
	TransactionHash string `json:"transactionHash,omitempty"`
	ExplorerLink    string `json:"explorerLink,omitempty"`
	Error           string `json:"error,omitempty"`
}

type View struct {
	submitter   eas.Submitter
	explorerURL string
	logger      *zap.Logger
	metrics     metrics.Recorder
	listener    func(State)

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

// WithListener calls fn with every state the view enters during Submit.
func WithListener(fn func(State)) Option {
	return func(v *View) { v.listener = fn }
}

func New(submitter eas.Submitter, explorerURL string, opts ...Option) *View {
	v := &View{
		submitter:   submitter,
		explorerURL: explorerURL,
		logger:      zap.NewNop(),
		metrics:     metrics.NewNoOpMetrics(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.Named("issuer")
	return v
}

// SetForm replaces the form contents.
func (v *View) SetForm(form Form) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Form = form
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// CanSubmit reports whether the submit control is enabled.
func (v *View) CanSubmit() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Phase != PhaseSubmitting
}

// Submit issues the credential in the form. The returned error is the one
// that moved the view to PhaseError; its message is also in the state.
// An invalid award date fails without entering PhaseSubmitting and without
// any network call. A submission is never retried.
func (v *View) Submit(ctx context.Context) error {
	form := v.State().Form

	dateAwarded, err := ParseAwardDate(form.DateAwarded)
	if err != nil {
		v.metrics.RecordIssueRejected(ctx, "invalid_date")
		v.logger.Warn("credential rejected", zap.Error(err))
		v.transition(State{Phase: PhaseError, Form: form, Error: err.Error()})
		return err
	}
	v.transition(State{Phase: PhaseSubmitting, Form: form})

	started := time.Now()
	result, err := v.submitter.SubmitAttestation(ctx, eas.CredentialPayload{
		Recipient:       form.Recipient,
		StudentName:     form.StudentName,
		DegreeName:      form.DegreeName,
		InstitutionName: form.InstitutionName,
		DateAwarded:     dateAwarded,
	})
	if err == nil && result == nil {
		err = rcerrors.Chain(fmt.Errorf("attestation client returned no result"))
	}
	if err != nil {
		v.metrics.RecordIssue(ctx, "error", time.Since(started))
		v.logger.Warn("credential issuance failed", zap.Error(err))
		v.transition(State{Phase: PhaseError, Form: form, Error: rcerrors.Message(err, FallbackMessage)})
		return err
	}
	v.metrics.RecordIssue(ctx, "success", time.Since(started))
	v.logger.Info("credential issued", zap.String("uid", result.UID))

	v.transition(State{
		Phase:           PhaseSuccess,
		UID:             result.UID,
		TransactionHash: result.TransactionHash,
		ExplorerLink:    eas.ExplorerLink(v.explorerURL, result.UID),
	})
	return nil
}

// transition replaces the state and reports it to the listener, if any.
func (v *View) transition(next State) {
	v.mu.Lock()
	v.state = next
	v.mu.Unlock()
	if v.listener != nil {
		v.listener(next)
	}
}

// ParseAwardDate converts a calendar date (YYYY-MM-DD, read as UTC midnight)
// or an RFC 3339 timestamp into Unix seconds. Anything that does not land
// strictly after the epoch is rejected.
func ParseAwardDate(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)

	var seconds int64
	if d, err := civil.ParseDate(raw); err == nil {
		seconds = d.In(time.UTC).Unix()
	} else if t, err := time.Parse(time.RFC3339, raw); err == nil {
		seconds = t.Unix()
	} else {
		return 0, rcerrors.Validation(InvalidDateMessage)
	}

	if seconds <= 0 {
		return 0, rcerrors.Validation(InvalidDateMessage)
	}
	return seconds, nil
}
