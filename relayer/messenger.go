// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package relayer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/l2-relayer/l2context"
	"github.com/offchainlabs/l2-relayer/xdomain"
)

var ErrRelayReorged = errors.New("relay transaction no longer in the canonical L1 chain")

// Submitter sends relayMessage transactions to L1 and waits for them.
type Submitter interface {
	SubmitRelay(ctx context.Context, opts *bind.TransactOpts, l1Messenger common.Address, msg *xdomain.CrossDomainMessage, blockCtx *l2context.BlockContext, proof *xdomain.CrossDomainMessageProof) (*types.Transaction, error)
	WaitForConfirmations(ctx context.Context, tx *types.Transaction, confirmations uint64) (*types.Receipt, error)
}

// L1Backend is implemented by *ethclient.Client.
type L1Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BlockNumber(ctx context.Context) (uint64, error)
}

// proofArg is the _proof tuple of the L1 relayMessage call.
type proofArg struct {
	StateRoot          [32]byte
	StateTrieWitness   []byte
	StorageTrieWitness []byte
}

// L1Messenger talks to the L1 cross domain messenger through a bound contract.
type L1Messenger struct {
	backend      L1Backend
	pollInterval func() time.Duration
}

func NewL1Messenger(backend L1Backend, config ConfigFetcher) *L1Messenger {
	return &L1Messenger{
		backend:      backend,
		pollInterval: func() time.Duration { return config().ConfirmationPollInterval },
	}
}

func (m *L1Messenger) SubmitRelay(ctx context.Context, opts *bind.TransactOpts, l1Messenger common.Address, msg *xdomain.CrossDomainMessage, blockCtx *l2context.BlockContext, proof *xdomain.CrossDomainMessageProof) (*types.Transaction, error) {
	contract := bind.NewBoundContract(l1Messenger, *xdomain.L1MessengerABI(), m.backend, m.backend, m.backend)
	txOpts := *opts
	txOpts.Context = ctx
	return contract.Transact(
		&txOpts,
		"relayMessage",
		msg.Target,
		msg.Sender,
		msg.Message,
		new(big.Int).SetUint64(msg.MessageNonce),
		blockCtx.Tx,
		blockCtx.Receipt,
		proofArg{
			StateRoot:          proof.StateRoot,
			StateTrieWitness:   proof.StateTrieWitness,
			StorageTrieWitness: proof.StorageTrieWitness,
		},
	)
}

// WaitForConfirmations waits until tx is mined and buried under confirmations-1 further blocks.
// A reverted transaction is re-executed as a call so the returned error carries the revert
// reason.
func (m *L1Messenger) WaitForConfirmations(ctx context.Context, tx *types.Transaction, confirmations uint64) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, m.backend, tx)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, m.detailTxError(ctx, tx, receipt)
	}
	if confirmations <= 1 {
		return receipt, nil
	}
	target := receipt.BlockNumber.Uint64() + confirmations - 1
	for {
		head, err := m.backend.BlockNumber(ctx)
		if err != nil {
			return nil, err
		}
		if head >= target {
			break
		}
		timer := time.NewTimer(m.pollInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	final, err := m.backend.TransactionReceipt(ctx, tx.Hash())
	if errors.Is(err, ethereum.NotFound) {
		return nil, fmt.Errorf("%w: %v", ErrRelayReorged, tx.Hash())
	}
	if err != nil {
		return nil, err
	}
	if final.BlockHash != receipt.BlockHash {
		log.Warn("relay transaction moved to another L1 block", "tx", tx.Hash(), "from", receipt.BlockHash, "to", final.BlockHash)
	}
	return final, nil
}

func (m *L1Messenger) detailTxError(ctx context.Context, tx *types.Transaction, receipt *types.Receipt) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	signer := types.LatestSignerForChainID(tx.ChainId())
	from, err := types.Sender(signer, tx)
	if err != nil {
		return fmt.Errorf("relay tx %v reverted, sender unknown: %w", tx.Hash(), err)
	}
	callMsg := ethereum.CallMsg{
		From:  from,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	if _, err = m.backend.CallContract(ctx, callMsg, receipt.BlockNumber); err == nil {
		return fmt.Errorf("relay tx %v reverted but call succeeded", tx.Hash())
	}
	callMsg.Gas = 0
	if _, err = m.backend.CallContract(ctx, callMsg, receipt.BlockNumber); err == nil {
		return fmt.Errorf("%w for relay tx %v", vm.ErrOutOfGas, tx.Hash())
	}
	return fmt.Errorf("relay tx %v reverted: %w", tx.Hash(), err)
}
