package eas

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	rcerrors "github.com/trufnetwork/rootcred/internal/errors"
	"github.com/trufnetwork/rootcred/internal/schema"
)

// ZeroUID references no previous attestation.
var ZeroUID = common.Hash{}

// CredentialPayload is the issuer-provided credential before encoding.
type CredentialPayload struct {
	Recipient       string `json:"recipient"`
	StudentName     string `json:"studentName"`
	DegreeName      string `json:"degreeName"`
	InstitutionName string `json:"institutionName"`
	DateAwarded     int64  `json:"dateAwarded"`
}

// Credential converts the payload into the typed schema credential.
func (p CredentialPayload) Credential() (schema.Credential, error) {
	if !common.IsHexAddress(p.Recipient) {
		return schema.Credential{}, rcerrors.Validation("invalid recipient address \"" + p.Recipient + "\"")
	}
	if p.DateAwarded < 0 {
		return schema.Credential{}, rcerrors.Validation("dateAwarded must not be negative")
	}
	return schema.Credential{
		Recipient:       common.HexToAddress(p.Recipient),
		StudentName:     p.StudentName,
		DegreeName:      p.DegreeName,
		InstitutionName: p.InstitutionName,
		DateAwarded:     uint64(p.DateAwarded),
	}, nil
}

// IssueResult identifies a confirmed attestation.
type IssueResult struct {
	UID             string `json:"uid"`
	TransactionHash string `json:"transactionHash,omitempty"`
}

// Attestation is an attestation record as stored by the EAS contract.
type Attestation struct {
	UID            common.Hash    `json:"uid"`
	Schema         common.Hash    `json:"schema"`
	Time           uint64         `json:"time"`
	ExpirationTime uint64         `json:"expirationTime"`
	RevocationTime uint64         `json:"revocationTime"`
	RefUID         common.Hash    `json:"refUID"`
	Recipient      common.Address `json:"recipient"`
	Attester       common.Address `json:"attester"`
	Revocable      bool           `json:"revocable"`
	Data           hexutil.Bytes  `json:"data"`
}

// Submitter is the write path the issuer view depends on.
type Submitter interface {
	SubmitAttestation(ctx context.Context, payload CredentialPayload) (*IssueResult, error)
}

// Fetcher is the read path the verify view depends on.
type Fetcher interface {
	FetchAttestation(ctx context.Context, uid string) (*Attestation, error)
}

// Service is everything rootcred needs from an attestation backend.
type Service interface {
	Submitter
	Fetcher
	EncodeCredential(payload CredentialPayload) ([]byte, error)
	RegisterSchema(ctx context.Context) (common.Hash, error)
}

// EncodeCredential serializes payload in credential schema order.
func EncodeCredential(payload CredentialPayload) ([]byte, error) {
	c, err := payload.Credential()
	if err != nil {
		return nil, err
	}
	return schema.EncodeCredential(c)
}

// ParseUID parses a 0x-prefixed 32-byte hex identifier.
func ParseUID(raw string) (common.Hash, error) {
	raw = strings.TrimSpace(raw)
	b, err := hexutil.Decode(raw)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, rcerrors.Validation("invalid attestation UID \"" + raw + "\"")
	}
	return common.BytesToHash(b), nil
}

// ExplorerLink returns the explorer page for an attestation UID.
func ExplorerLink(baseURL, uid string) string {
	return strings.TrimRight(baseURL, "/") + "/attestation/" + uid
}
