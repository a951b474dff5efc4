// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package relayer

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/l2-relayer/l2context"
	"github.com/offchainlabs/l2-relayer/xdomain"
)

var ErrTransactionNotFound = errors.New("L2 transaction not found")

// L2Reader is implemented by *l2context.Client.
type L2Reader interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (*l2context.Transaction, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*l2context.Receipt, error)
}

// LogFilterer is implemented by *ethclient.Client.
type LogFilterer interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// BlockRef selects a single L2 block by hash or, when Hash is nil, by number.
type BlockRef struct {
	Number uint64
	Hash   *common.Hash
}

func BlockByNumber(number uint64) BlockRef {
	return BlockRef{Number: number}
}

func BlockByHash(hash common.Hash) BlockRef {
	return BlockRef{Hash: &hash}
}

func (b BlockRef) String() string {
	if b.Hash != nil {
		return b.Hash.Hex()
	}
	return fmt.Sprintf("#%d", b.Number)
}

func (b BlockRef) filter(messenger common.Address) ethereum.FilterQuery {
	q := ethereum.FilterQuery{
		Addresses: []common.Address{messenger},
		Topics:    [][]common.Hash{{xdomain.SentMessageTopic}},
	}
	if b.Hash != nil {
		q.BlockHash = b.Hash
	} else {
		n := new(big.Int).SetUint64(b.Number)
		q.FromBlock = n
		q.ToBlock = n
	}
	return q
}

// Discoverer finds SentMessage events of the L2 messenger.
//
// Discovery is block granular and relies on every L2 block holding a single user transaction.
// Messages from other transactions in the same block are returned too; a warning is logged when
// that happens.
type Discoverer struct {
	l2   L2Reader
	logs LogFilterer
}

func NewDiscoverer(l2 L2Reader, logs LogFilterer) *Discoverer {
	return &Discoverer{l2: l2, logs: logs}
}

// DiscoverByTransaction resolves txHash to its block and returns the messages emitted there.
func (d *Discoverer) DiscoverByTransaction(ctx context.Context, messenger common.Address, txHash common.Hash) ([]*xdomain.CrossDomainMessage, error) {
	tx, err := fetchTransaction(ctx, d.l2, txHash)
	if err != nil {
		return nil, err
	}
	return d.DiscoverInTransaction(ctx, messenger, tx)
}

// DiscoverInTransaction is DiscoverByTransaction for a transaction already fetched from L2.
func (d *Discoverer) DiscoverInTransaction(ctx context.Context, messenger common.Address, tx *l2context.Transaction) ([]*xdomain.CrossDomainMessage, error) {
	if !tx.Included() {
		return nil, fmt.Errorf("%w: %v is not in a block", ErrTransactionNotFound, tx.Hash)
	}
	ref := BlockByNumber(tx.BlockNumber.ToInt().Uint64())
	if tx.BlockHash != nil {
		ref = BlockByHash(*tx.BlockHash)
	}
	txHash := tx.Hash
	return d.discover(ctx, messenger, ref, &txHash)
}

func fetchTransaction(ctx context.Context, l2 L2Reader, txHash common.Hash) (*l2context.Transaction, error) {
	tx, err := l2.TransactionByHash(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, fmt.Errorf("%w: %v", ErrTransactionNotFound, txHash)
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// DiscoverByBlock returns the messages emitted in one block, in emission order.
func (d *Discoverer) DiscoverByBlock(ctx context.Context, messenger common.Address, ref BlockRef) ([]*xdomain.CrossDomainMessage, error) {
	return d.discover(ctx, messenger, ref, nil)
}

func (d *Discoverer) discover(ctx context.Context, messenger common.Address, ref BlockRef, txHash *common.Hash) ([]*xdomain.CrossDomainMessage, error) {
	logs, err := d.logs.FilterLogs(ctx, ref.filter(messenger))
	if err != nil {
		return nil, err
	}
	var messages []*xdomain.CrossDomainMessage
	seenTxs := make(map[common.Hash]struct{})
	for i := range logs {
		lg := &logs[i]
		if lg.Removed {
			continue
		}
		seenTxs[lg.TxHash] = struct{}{}
		payload, err := xdomain.UnpackSentMessage(lg)
		if err != nil {
			return nil, fmt.Errorf("unpacking SentMessage in tx %v: %w", lg.TxHash, err)
		}
		if payload == nil {
			log.Debug("skipping SentMessage without payload", "tx", lg.TxHash, "index", lg.Index)
			continue
		}
		msg, err := xdomain.DecodeMessage(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding SentMessage in tx %v: %w", lg.TxHash, err)
		}
		messages = append(messages, msg)
	}
	if txHash != nil {
		for seen := range seenTxs {
			if seen != *txHash {
				log.Warn("block holds messages of more than one transaction, all are attributed to the requested one", "block", ref, "requested", *txHash, "other", seen)
			}
		}
	} else if len(seenTxs) > 1 {
		log.Warn("block holds messages of more than one transaction", "block", ref, "transactions", len(seenTxs))
	}
	return messages, nil
}

// MessageTx is an L2 transaction that emitted at least one SentMessage event.
type MessageTx struct {
	TxHash      common.Hash
	BlockNumber uint64
}

// MessageTransactions lists the message emitting transactions of blocks [from, to] in order
// of first emission.
func (d *Discoverer) MessageTransactions(ctx context.Context, messenger common.Address, from, to uint64) ([]MessageTx, error) {
	q := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{messenger},
		Topics:    [][]common.Hash{{xdomain.SentMessageTopic}},
	}
	logs, err := d.logs.FilterLogs(ctx, q)
	if err != nil {
		return nil, err
	}
	var txs []MessageTx
	seen := make(map[common.Hash]struct{})
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		if _, ok := seen[lg.TxHash]; ok {
			continue
		}
		seen[lg.TxHash] = struct{}{}
		txs = append(txs, MessageTx{TxHash: lg.TxHash, BlockNumber: lg.BlockNumber})
	}
	return txs, nil
}
