// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package relayer discovers L2 to L1 messages, proves their inclusion in L2 state and submits
// them to the L1 cross domain messenger.
package relayer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/offchainlabs/l2-relayer/l2context"
	"github.com/offchainlabs/l2-relayer/xdomain"
)

var (
	relaySuccessCounter        = metrics.NewRegisteredCounter("relayer/messages/success", nil)
	relayAlreadyRelayedCounter = metrics.NewRegisteredCounter("relayer/messages/alreadyrelayed", nil)
	relayFailedCounter         = metrics.NewRegisteredCounter("relayer/messages/failed", nil)
	relayCancelledCounter      = metrics.NewRegisteredCounter("relayer/messages/cancelled", nil)
	relayAttemptsCounter       = metrics.NewRegisteredCounter("relayer/attempts", nil)
	relayRetriesCounter        = metrics.NewRegisteredCounter("relayer/retries", nil)
	relayCacheHitCounter       = metrics.NewRegisteredCounter("relayer/relayedcache/hits", nil)
)

var (
	ErrSignerLocked   = errors.New("L1 signer is locked by another relayer")
	ErrSignerLockLost = errors.New("lost the L1 signer lock")
)

type Outcome uint8

const (
	OutcomeNotSent Outcome = iota
	OutcomeSuccess
	OutcomeAlreadyRelayed
	OutcomeFailed
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotSent:
		return "not-sent"
	case OutcomeSuccess:
		return "success"
	case OutcomeAlreadyRelayed:
		return "already-relayed"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// Resolved reports whether the message needs no further relaying.
func (o Outcome) Resolved() bool {
	return o == OutcomeSuccess || o == OutcomeAlreadyRelayed
}

// RelayResult tracks one message through submission. Errors holds every error seen while
// submitting it, the last one being the reason for a Failed outcome.
type RelayResult struct {
	Message  *xdomain.CrossDomainMessage
	Proof    *xdomain.CrossDomainMessageProof
	Outcome  Outcome
	Errors   []error
	Receipt  *types.Receipt
	L1TxHash common.Hash
	Attempts int
}

func (r *RelayResult) conclude(outcome Outcome) {
	if r.Outcome != OutcomeNotSent {
		panic(fmt.Sprintf("relay outcome of message %v already %v, cannot become %v", r.Message.MessageNonce, r.Outcome, outcome))
	}
	r.Outcome = outcome
	switch outcome {
	case OutcomeSuccess:
		relaySuccessCounter.Inc(1)
	case OutcomeAlreadyRelayed:
		relayAlreadyRelayedCounter.Inc(1)
	case OutcomeFailed:
		relayFailedCounter.Inc(1)
	case OutcomeCancelled:
		relayCancelledCounter.Inc(1)
	}
}

// SignerLock is implemented by *redislock.Simple.
type SignerLock interface {
	AttemptLock(ctx context.Context) bool
	KeepAlive(ctx context.Context) (stop func())
	Release(ctx context.Context)
}

type Relayer struct {
	config     ConfigFetcher
	chain      *xdomain.ChainConfig
	l2         L2Reader
	assembler  *Assembler
	submitter  Submitter
	txOpts     *bind.TransactOpts
	classifier *ErrorClassifier
	signerLock SignerLock
	// keyed by L1 messenger and message slot, nil when disabled
	relayed *lru.Cache[relayedKey, common.Hash]

	// OnSubmitted, when set, is called with every relay transaction accepted by L1 before
	// confirmations are awaited.
	OnSubmitted func(result *RelayResult, tx *types.Transaction)
}

type relayedKey struct {
	l1Messenger common.Address
	slot        common.Hash
}

// NewRelayer builds a relayer. signerLock may be nil when a single instance uses the signer.
func NewRelayer(config ConfigFetcher, chain *xdomain.ChainConfig, l2 L2Reader, assembler *Assembler, submitter Submitter, txOpts *bind.TransactOpts, signerLock SignerLock) (*Relayer, error) {
	classifier, err := NewErrorClassifier(config().TransientErrors)
	if err != nil {
		return nil, err
	}
	var relayed *lru.Cache[relayedKey, common.Hash]
	if size := config().RelayedCacheSize; size > 0 {
		relayed, err = lru.New[relayedKey, common.Hash](size)
		if err != nil {
			return nil, err
		}
	}
	return &Relayer{
		config:     config,
		chain:      chain,
		l2:         l2,
		assembler:  assembler,
		submitter:  submitter,
		txOpts:     txOpts,
		classifier: classifier,
		signerLock: signerLock,
		relayed:    relayed,
	}, nil
}

// Relay submits every message of l2TxHash to l1Messenger, one at a time in emission order.
//
// Failures before the first submission are returned as an error. Once submitting, each message
// ends with its own outcome. A Failed or Cancelled message stops the batch and the remaining
// results stay NotSent.
func (r *Relayer) Relay(ctx context.Context, l2TxHash common.Hash, l1Messenger common.Address, maxRetries int, confirmations uint64) ([]*RelayResult, error) {
	tx, err := fetchTransaction(ctx, r.l2, l2TxHash)
	if err != nil {
		return nil, err
	}
	receipt, root, err := r.assembler.committedReceipt(ctx, l2TxHash)
	if err != nil {
		return nil, err
	}
	blockCtx, err := l2context.BuildContext(tx, receipt, r.chain)
	if err != nil {
		return nil, err
	}
	pairs, err := r.assembler.assemble(ctx, tx, receipt.Number().Uint64(), root, r.chain.L2CrossDomainMessenger)
	if err != nil {
		return nil, err
	}
	results := make([]*RelayResult, len(pairs))
	pending := 0
	for i, pair := range pairs {
		results[i] = &RelayResult{Message: pair.Message, Proof: pair.Proof}
		if r.relayed == nil {
			pending++
			continue
		}
		if l1Tx, ok := r.relayed.Get(relayedKey{l1Messenger, pair.Slot}); ok {
			relayCacheHitCounter.Inc(1)
			results[i].L1TxHash = l1Tx
			results[i].conclude(OutcomeAlreadyRelayed)
		} else {
			pending++
		}
	}
	if pending == 0 {
		log.Info("no messages to relay", "l2Tx", l2TxHash, "alreadyRelayed", len(results))
		return results, nil
	}

	if r.signerLock != nil {
		if !r.signerLock.AttemptLock(ctx) {
			return nil, ErrSignerLocked
		}
		stopRefresh := r.signerLock.KeepAlive(ctx)
		defer func() {
			stopRefresh()
			r.signerLock.Release(context.WithoutCancel(ctx))
		}()
	}

	for i, result := range results {
		if result.Outcome.Resolved() {
			continue
		}
		r.relayMessage(ctx, result, blockCtx, l1Messenger, maxRetries, confirmations)
		if r.relayed != nil && result.Outcome.Resolved() {
			r.relayed.Add(relayedKey{l1Messenger, pairs[i].Slot}, result.L1TxHash)
		}
		log.Info("relayed message", "l2Tx", l2TxHash, "nonce", result.Message.MessageNonce, "target", result.Message.Target, "outcome", result.Outcome, "attempts", result.Attempts, "l1Tx", result.L1TxHash)
		if !result.Outcome.Resolved() {
			break
		}
	}
	return results, nil
}

func (r *Relayer) relayMessage(ctx context.Context, result *RelayResult, blockCtx *l2context.BlockContext, l1Messenger common.Address, maxRetries int, confirmations uint64) {
	retries := 0
	for {
		if r.signerLock != nil && !r.signerLock.AttemptLock(ctx) {
			result.Errors = append(result.Errors, ErrSignerLockLost)
			result.conclude(OutcomeFailed)
			return
		}
		result.Attempts++
		relayAttemptsCounter.Inc(1)
		receipt, err := r.submit(ctx, result, blockCtx, l1Messenger, confirmations)
		if receipt != nil {
			result.Receipt = receipt
		}
		if err == nil {
			result.conclude(OutcomeSuccess)
			return
		}
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, err)
			result.conclude(OutcomeCancelled)
			return
		}
		kind := r.classifier.Classify(err)
		if kind == ErrorKindAlreadyRelayed {
			result.conclude(OutcomeAlreadyRelayed)
			return
		}
		result.Errors = append(result.Errors, err)
		if !kind.Transient() || retries >= maxRetries {
			log.Warn("relaying message failed", "nonce", result.Message.MessageNonce, "kind", kind, "attempts", result.Attempts, "err", err)
			result.conclude(OutcomeFailed)
			return
		}
		retries++
		relayRetriesCounter.Inc(1)
		log.Warn("transient error relaying message, retrying", "nonce", result.Message.MessageNonce, "kind", kind, "retry", retries, "maxRetries", maxRetries, "err", err)
		if err := sleepContext(ctx, r.config().RetryBackoff); err != nil {
			result.Errors = append(result.Errors, err)
			result.conclude(OutcomeCancelled)
			return
		}
	}
}

func (r *Relayer) submit(ctx context.Context, result *RelayResult, blockCtx *l2context.BlockContext, l1Messenger common.Address, confirmations uint64) (*types.Receipt, error) {
	tx, err := r.submitter.SubmitRelay(ctx, r.txOpts, l1Messenger, result.Message, blockCtx, result.Proof)
	if err != nil {
		return nil, err
	}
	result.L1TxHash = tx.Hash()
	if r.OnSubmitted != nil {
		r.OnSubmitted(result, tx)
	}
	return r.submitter.WaitForConfirmations(ctx, tx, confirmations)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
