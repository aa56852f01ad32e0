package eas

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	rcerrors "github.com/trufnetwork/rootcred/internal/errors"
	"github.com/trufnetwork/rootcred/internal/schema"
	"github.com/trufnetwork/rootcred/internal/tracing"
)

var errReceiptPending = stderrors.New("transaction receipt not yet available")

// EncodeCredential implements Service.
func (c *Client) EncodeCredential(payload CredentialPayload) ([]byte, error) {
	return EncodeCredential(payload)
}

// SubmitAttestation attests payload under the configured credential schema
// and waits for the transaction to be mined. New attestations never expire,
// are revocable, reference no previous attestation and transfer no value.
func (c *Client) SubmitAttestation(ctx context.Context, payload CredentialPayload) (result *IssueResult, err error) {
	ctx, end := tracing.TraceOp(ctx, tracing.OpSubmitAttestation)
	defer func() {
		end(err)
		if err != nil && rcerrors.KindOf(err) == rcerrors.KindChain {
			c.metrics.RecordChainError(ctx, "submit", rcerrors.Classify(err))
		}
	}()

	schemaUID, err := c.cfg.CredentialSchemaUID()
	if err != nil {
		return nil, err
	}

	credential, err := payload.Credential()
	if err != nil {
		return nil, err
	}

	signing, err := c.BuildSigningClient(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := schema.EncodeCredential(credential)
	if err != nil {
		return nil, rcerrors.Validation(err.Error())
	}

	return signing.Attest(ctx, schemaUID, credential.Recipient, encoded)
}

// Attest sends an attest transaction and returns the new attestation UID.
func (s *SigningClient) Attest(ctx context.Context, schemaUID common.Hash, recipient common.Address, data []byte) (*IssueResult, error) {
	input, err := easABI.Pack(methodAttest, attestationRequest{
		Schema: schemaUID,
		Data: attestationRequestData{
			Recipient:      recipient,
			ExpirationTime: 0,
			Revocable:      true,
			RefUID:         ZeroUID,
			Data:           data,
			Value:          big.NewInt(0),
		},
	})
	if err != nil {
		return nil, rcerrors.Validation(fmt.Sprintf("abi encode attest: %v", err))
	}

	receipt, err := s.transact(ctx, s.contract, input)
	if err != nil {
		return nil, err
	}

	uid, err := s.attestedUID(receipt)
	if err != nil {
		return nil, rcerrors.Chain(err)
	}

	s.logger.Info("attestation confirmed",
		zap.String("uid", uid.Hex()),
		zap.String("tx", receipt.TxHash.Hex()),
		zap.Uint64("block", receipt.BlockNumber.Uint64()))

	return &IssueResult{UID: uid.Hex(), TransactionHash: receipt.TxHash.Hex()}, nil
}

// attestedUID reads the UID from the Attested event the contract emitted.
func (s *SigningClient) attestedUID(receipt *types.Receipt) (common.Hash, error) {
	event := easABI.Events[eventAttested]
	for _, lg := range receipt.Logs {
		if lg == nil || lg.Address != s.contract || len(lg.Topics) == 0 || lg.Topics[0] != event.ID {
			continue
		}
		values, err := event.Inputs.NonIndexed().Unpack(lg.Data)
		if err != nil {
			return common.Hash{}, pkgerrors.Wrap(err, "decode Attested event")
		}
		if len(values) != 1 {
			return common.Hash{}, fmt.Errorf("Attested event carries %d values", len(values))
		}
		uid, ok := values[0].([32]byte)
		if !ok {
			return common.Hash{}, fmt.Errorf("Attested event uid has type %T", values[0])
		}
		return common.Hash(uid), nil
	}
	return common.Hash{}, fmt.Errorf("transaction %s emitted no Attested event", receipt.TxHash.Hex())
}

// transact signs and sends a legacy transaction calling to with input, then
// waits for its receipt. Rootstock does not support dynamic fee transactions.
func (s *SigningClient) transact(ctx context.Context, to common.Address, input []byte) (*types.Receipt, error) {
	from := s.account.Address()

	nonce, err := s.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, rcerrors.Chain(pkgerrors.Wrap(err, "read account nonce"))
	}
	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, rcerrors.Chain(pkgerrors.Wrap(err, "suggest gas price"))
	}
	gas, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:     from,
		To:       &to,
		GasPrice: gasPrice,
		Value:    big.NewInt(0),
		Data:     input,
	})
	if err != nil {
		return nil, rcerrors.Chain(pkgerrors.Wrap(err, "estimate gas"))
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(0),
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     input,
	})
	signed, err := s.account.SignTx(tx, s.chainID)
	if err != nil {
		return nil, rcerrors.Chain(err)
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return nil, rcerrors.Chain(pkgerrors.Wrap(err, "send transaction"))
	}
	s.logger.Debug("transaction sent",
		zap.String("tx", signed.Hash().Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas))

	receipt, err := s.waitMined(ctx, signed.Hash())
	if err != nil {
		return nil, rcerrors.Chain(pkgerrors.Wrapf(err, "wait for transaction %s", signed.Hash().Hex()))
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, rcerrors.Chain(fmt.Errorf("transaction %s reverted", signed.Hash().Hex()))
	}
	return receipt, nil
}

// waitMined polls for the receipt of hash with exponential backoff until it
// is available or ctx ends. Only ethereum.NotFound is retried.
func (s *SigningClient) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return tracing.Traced(ctx, tracing.OpWaitReceipt, func(ctx context.Context) (*types.Receipt, error) {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = s.confirm.PollInterval
		b.MaxInterval = s.confirm.MaxPollInterval
		b.MaxElapsedTime = 0

		started := time.Now()
		receipt, err := backoff.RetryWithData(func() (*types.Receipt, error) {
			r, err := s.backend.TransactionReceipt(ctx, hash)
			if stderrors.Is(err, ethereum.NotFound) {
				return nil, errReceiptPending
			}
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			return r, nil
		}, backoff.WithContext(b, ctx))
		if err != nil {
			return nil, err
		}

		s.logger.Debug("transaction mined",
			zap.String("tx", hash.Hex()),
			zap.Duration("waited", time.Since(started)))
		return receipt, nil
	}, attribute.String("tx", hash.Hex()))
}
