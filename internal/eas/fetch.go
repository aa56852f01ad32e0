package eas

import (
	"context"
	"fmt"

	gethAbi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	rcerrors "github.com/trufnetwork/rootcred/internal/errors"
	"github.com/trufnetwork/rootcred/internal/tracing"
)

// FetchAttestation looks up an attestation by UID. A record with an empty UID
// means the attestation does not exist and yields nil without error.
func (c *Client) FetchAttestation(ctx context.Context, uid string) (att *Attestation, err error) {
	ctx, end := tracing.TraceOp(ctx, tracing.OpFetchAttestation, attribute.String("uid", uid))
	defer func() {
		end(err)
		if err != nil && rcerrors.KindOf(err) == rcerrors.KindChain {
			c.metrics.RecordChainError(ctx, "fetch", rcerrors.Classify(err))
		}
	}()

	id, err := ParseUID(uid)
	if err != nil {
		return nil, err
	}
	reader, err := c.BuildReadClient(ctx)
	if err != nil {
		return nil, err
	}

	att, err = reader.GetAttestation(ctx, id)
	if err != nil {
		return nil, err
	}
	if att.UID == ZeroUID {
		return nil, nil
	}
	return att, nil
}

// GetAttestation returns the raw record the contract stores for uid. Unknown
// UIDs come back as a zero record.
func (r *ReadClient) GetAttestation(ctx context.Context, uid common.Hash) (*Attestation, error) {
	input, err := easABI.Pack(methodGetAttestation, [32]byte(uid))
	if err != nil {
		return nil, fmt.Errorf("abi encode getAttestation: %w", err)
	}

	output, err := r.call(ctx, r.contract, input)
	if err != nil {
		return nil, rcerrors.Chain(pkgerrors.Wrap(err, "call getAttestation"))
	}

	values, err := easABI.Unpack(methodGetAttestation, output)
	if err != nil {
		return nil, rcerrors.Chain(pkgerrors.Wrap(err, "decode getAttestation result"))
	}
	if len(values) != 1 {
		return nil, rcerrors.Chain(fmt.Errorf("getAttestation returned %d values", len(values)))
	}

	tuple := *gethAbi.ConvertType(values[0], new(attestationTuple)).(*attestationTuple)
	return tuple.toAttestation(), nil
}
