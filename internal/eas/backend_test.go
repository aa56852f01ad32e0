package eas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	gethAbi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// fakeBackend emulates an EAS deployment well enough to attest and read back.
type fakeBackend struct {
	mu sync.Mutex

	chainID      int64
	attestations map[common.Hash]attestationTuple
	receipts     map[common.Hash]*types.Receipt
	sent         []*types.Transaction

	pendingPolls int   // NotFound answers before a receipt is returned
	revert       bool  // mine transactions as failed
	callErr      error // returned by CallContract
	calls        int
	now          uint64
	closed       bool
}

var _ Backend = (*fakeBackend)(nil)

func newFakeBackend(chainID int64) *fakeBackend {
	return &fakeBackend{
		chainID:      chainID,
		attestations: make(map[common.Hash]attestationTuple),
		receipts:     make(map[common.Hash]*types.Receipt),
		now:          1717300000,
	}
}

func (f *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(f.chainID), nil
}

func (f *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.sent)), nil
}

func (f *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if f.callErr != nil {
		return nil, f.callErr
	}
	method := easABI.Methods[methodGetAttestation]
	if len(msg.Data) < 4 || !bytes.Equal(msg.Data[:4], method.ID) {
		return nil, errors.New("execution reverted: unknown selector")
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	uid := common.Hash(args[0].([32]byte))
	return method.Outputs.Pack(f.attestations[uid])
}

func (f *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.sent)), nil
}

func (f *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(60_000_000), nil
}

func (f *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 300_000, nil
}

func (f *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(f.chainID)), tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	f.sent = append(f.sent, tx)

	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(int64(len(f.sent))),
	}
	if f.revert {
		receipt.Status = types.ReceiptStatusFailed
		f.receipts[tx.Hash()] = receipt
		return nil
	}

	attest := easABI.Methods[methodAttest]
	if bytes.HasPrefix(tx.Data(), attest.ID) {
		values, err := attest.Inputs.Unpack(tx.Data()[4:])
		if err != nil {
			return err
		}
		req := *gethAbi.ConvertType(values[0], new(attestationRequest)).(*attestationRequest)
		uid := crypto.Keccak256Hash(tx.Hash().Bytes())

		f.attestations[uid] = attestationTuple{
			Uid:            uid,
			Schema:         req.Schema,
			Time:           f.now,
			ExpirationTime: req.Data.ExpirationTime,
			RefUID:         req.Data.RefUID,
			Recipient:      req.Data.Recipient,
			Attester:       sender,
			Revocable:      req.Data.Revocable,
			Data:           req.Data.Data,
		}
		receipt.Logs = []*types.Log{{
			Address: *tx.To(),
			Topics: []common.Hash{
				easABI.Events[eventAttested].ID,
				common.BytesToHash(req.Data.Recipient.Bytes()),
				common.BytesToHash(sender.Bytes()),
				common.Hash(req.Schema),
			},
			Data:   uid.Bytes(),
			TxHash: tx.Hash(),
		}}
	}

	f.receipts[tx.Hash()] = receipt
	return nil
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pendingPolls > 0 {
		f.pendingPolls--
		return nil, ethereum.NotFound
	}
	r, ok := f.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeBackend) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// revoke marks uid revoked at ts.
func (f *fakeBackend) revoke(uid common.Hash, ts uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.attestations[uid]
	t.RevocationTime = ts
	f.attestations[uid] = t
}
