// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package relayer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/offchainlabs/l2-relayer/util/stopwaiter"
)

var watcherNextBlockGauge = metrics.NewRegisteredGauge("relayer/watcher/nextblock", nil)

// HeadReader is implemented by *ethclient.Client.
type HeadReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// Watcher follows the L2 head and relays every message emitting transaction it finds. Its
// cursor lives in memory only; a block is scanned again until all of its messages are relayed.
type Watcher struct {
	stopwaiter.StopWaiter
	config      WatcherConfigFetcher
	relayConfig ConfigFetcher
	relayer     *Relayer
	discoverer  *Discoverer
	head        HeadReader
	l2Messenger common.Address
	l1Messenger common.Address
	nextBlock   atomic.Uint64
}

func NewWatcher(config WatcherConfigFetcher, relayConfig ConfigFetcher, relayer *Relayer, discoverer *Discoverer, head HeadReader, l2Messenger, l1Messenger common.Address) *Watcher {
	w := &Watcher{
		config:      config,
		relayConfig: relayConfig,
		relayer:     relayer,
		discoverer:  discoverer,
		head:        head,
		l2Messenger: l2Messenger,
		l1Messenger: l1Messenger,
	}
	w.nextBlock.Store(config().StartBlock)
	return w
}

func (w *Watcher) Start(ctxIn context.Context) {
	w.StopWaiter.Start(ctxIn, w)
	w.CallIteratively(func(ctx context.Context) time.Duration {
		if err := w.poll(ctx); err != nil && ctx.Err() == nil {
			log.Warn("relay watcher poll failed", "nextBlock", w.NextBlock(), "err", err)
		}
		return w.config().PollInterval
	})
}

// NextBlock is the first L2 block not yet fully relayed.
func (w *Watcher) NextBlock() uint64 {
	return w.nextBlock.Load()
}

func (w *Watcher) poll(ctx context.Context) error {
	head, err := w.head.BlockNumber(ctx)
	if err != nil {
		return err
	}
	config := w.config()
	for from := w.NextBlock(); from <= head && ctx.Err() == nil; from = w.NextBlock() {
		to := head
		if config.MaxBlockSpan > 0 && to-from+1 > config.MaxBlockSpan {
			to = from + config.MaxBlockSpan - 1
		}
		done, err := w.processRange(ctx, from, to)
		if err != nil || !done {
			return err
		}
	}
	return nil
}

// processRange relays the transactions of [from, to] and advances the cursor past every block
// that has been fully relayed. It reports whether the whole range was.
func (w *Watcher) processRange(ctx context.Context, from, to uint64) (bool, error) {
	txs, err := w.discoverer.MessageTransactions(ctx, w.l2Messenger, from, to)
	if err != nil {
		return false, err
	}
	relayConfig := w.relayConfig()
	for _, tx := range txs {
		w.advance(tx.BlockNumber)
		results, err := w.relayer.Relay(ctx, tx.TxHash, w.l1Messenger, relayConfig.MaxRetries, relayConfig.Confirmations)
		if err != nil {
			return false, err
		}
		for _, res := range results {
			if !res.Outcome.Resolved() {
				log.Warn("message not relayed, will rescan its block", "l2Tx", tx.TxHash, "block", tx.BlockNumber, "nonce", res.Message.MessageNonce, "outcome", res.Outcome)
				return false, nil
			}
		}
	}
	w.advance(to + 1)
	return true, nil
}

func (w *Watcher) advance(block uint64) {
	if block > w.nextBlock.Load() {
		w.nextBlock.Store(block)
		watcherNextBlockGauge.Update(int64(block))
	}
}
