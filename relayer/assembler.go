// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package relayer

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/offchainlabs/l2-relayer/l2context"
	"github.com/offchainlabs/l2-relayer/util/stateproof"
	"github.com/offchainlabs/l2-relayer/xdomain"
)

var ErrReceiptNotFound = errors.New("L2 receipt not found")

// StorageProver is implemented by *stateproof.Prover.
type StorageProver interface {
	Prove(ctx context.Context, blockNumber uint64, address common.Address, slot common.Hash) (*stateproof.Result, error)
}

type MessageWithProof struct {
	Message *xdomain.CrossDomainMessage
	Proof   *xdomain.CrossDomainMessageProof
	Slot    common.Hash
}

// Assembler pairs every message of an L2 transaction with a proof that the
// L2ToL1MessagePasser recorded it, taken at the transaction's block.
type Assembler struct {
	config     ConfigFetcher
	chain      *xdomain.ChainConfig
	l2         L2Reader
	discoverer *Discoverer
	prover     StorageProver
}

func NewAssembler(config ConfigFetcher, chain *xdomain.ChainConfig, l2 L2Reader, discoverer *Discoverer, prover StorageProver) *Assembler {
	return &Assembler{
		config:     config,
		chain:      chain,
		l2:         l2,
		discoverer: discoverer,
		prover:     prover,
	}
}

// committedReceipt fetches the receipt of txHash and its state root. Both a missing receipt and
// a receipt without a state root are reported as ErrReceiptNotFound.
func (a *Assembler) committedReceipt(ctx context.Context, txHash common.Hash) (*l2context.Receipt, common.Hash, error) {
	receipt, err := a.l2.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, common.Hash{}, fmt.Errorf("%w: %v", ErrReceiptNotFound, txHash)
	}
	if err != nil {
		return nil, common.Hash{}, err
	}
	root, ok := receipt.StateRoot()
	if !ok {
		return nil, common.Hash{}, fmt.Errorf("%w: receipt of %v has no state root yet", ErrReceiptNotFound, txHash)
	}
	if receipt.BlockNumber == nil {
		return nil, common.Hash{}, fmt.Errorf("%w: receipt of %v has no block number", ErrReceiptNotFound, txHash)
	}
	return receipt, root, nil
}

// Assemble returns the messages of txHash with their proofs, in emission order.
func (a *Assembler) Assemble(ctx context.Context, txHash common.Hash, messenger common.Address) ([]*MessageWithProof, error) {
	tx, err := fetchTransaction(ctx, a.l2, txHash)
	if err != nil {
		return nil, err
	}
	receipt, root, err := a.committedReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}
	return a.assemble(ctx, tx, receipt.Number().Uint64(), root, messenger)
}

func (a *Assembler) assemble(ctx context.Context, tx *l2context.Transaction, blockNumber uint64, root common.Hash, messenger common.Address) ([]*MessageWithProof, error) {
	messages, err := a.discoverer.DiscoverInTransaction(ctx, messenger, tx)
	if err != nil {
		return nil, err
	}
	txHash := tx.Hash
	config := a.config()
	passer := a.chain.L2ToL1MessagePasser
	results := make([]*MessageWithProof, len(messages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.ProofParallelism)
	for i, msg := range messages {
		i, msg := i, msg
		g.Go(func() error {
			slot, err := xdomain.DeriveStorageSlot(msg, messenger)
			if err != nil {
				return err
			}
			res, err := a.prover.Prove(gctx, blockNumber, passer, slot)
			if err != nil {
				return fmt.Errorf("proving message %v of %v: %w", msg.MessageNonce, txHash, err)
			}
			if config.VerifyProofs {
				if err := stateproof.Verify(root, passer, slot, res); err != nil {
					return fmt.Errorf("proof of message %v of %v: %w", msg.MessageNonce, txHash, err)
				}
			}
			results[i] = &MessageWithProof{
				Message: msg,
				Proof: &xdomain.CrossDomainMessageProof{
					StateRoot:          root,
					StateTrieWitness:   res.AccountProof,
					StorageTrieWitness: res.StorageProof,
				},
				Slot: slot,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug("assembled message proofs", "tx", txHash, "block", blockNumber, "messages", len(results))
	return results, nil
}
