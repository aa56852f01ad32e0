package eas

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	rcerrors "github.com/trufnetwork/rootcred/internal/errors"
	"github.com/trufnetwork/rootcred/internal/schema"
	"github.com/trufnetwork/rootcred/internal/tracing"
)

// RegisterSchema registers the credential schema, revocable and without a
// resolver, and returns its UID. The UID is deterministic, so registering an
// existing schema reverts in the registry.
func (c *Client) RegisterSchema(ctx context.Context) (uid common.Hash, err error) {
	ctx, end := tracing.TraceOp(ctx, tracing.OpRegisterSchema)
	defer func() {
		end(err)
		if err != nil && rcerrors.KindOf(err) == rcerrors.KindChain {
			c.metrics.RecordChainError(ctx, "register_schema", rcerrors.Classify(err))
		}
	}()

	registry, err := c.cfg.SchemaRegistryAddress()
	if err != nil {
		return common.Hash{}, err
	}
	signing, err := c.buildSigningClient(ctx, registry)
	if err != nil {
		return common.Hash{}, err
	}

	resolver := common.Address{}
	input, err := schemaRegistryABI.Pack(methodRegister, schema.Credentials.String(), resolver, true)
	if err != nil {
		return common.Hash{}, rcerrors.Validation(err.Error())
	}

	receipt, err := signing.transact(ctx, registry, input)
	if err != nil {
		return common.Hash{}, err
	}

	uid = schema.Credentials.UID(resolver, true)
	c.logger.Info("schema registered",
		zap.String("schema_uid", uid.Hex()),
		zap.String("tx", receipt.TxHash.Hex()))
	return uid, nil
}
