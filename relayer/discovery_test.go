// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package relayer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/offchainlabs/l2-relayer/util/testhelpers"
	"github.com/offchainlabs/l2-relayer/xdomain"
)

func TestDiscoverTwoMessagesInEmissionOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	targetA := testhelpers.RandomAddress()
	targetB := testhelpers.RandomAddress()
	first := messageTo(targetA, 5)
	second := messageTo(targetB, 6)
	env.l2.addTx(t, 3, messageTo(testhelpers.RandomAddress(), 1))
	txHash := env.l2.addTx(t, 4, first, second)

	discoverer := NewDiscoverer(env.l2, env.l2)
	messenger := env.chain.L2CrossDomainMessenger
	messages, err := discoverer.DiscoverByTransaction(ctx, messenger, txHash)
	Require(t, err)
	if diff := cmp.Diff([]*xdomain.CrossDomainMessage{first, second}, messages); diff != "" {
		Fail(t, "unexpected messages", diff)
	}

	byNumber, err := discoverer.DiscoverByBlock(ctx, messenger, BlockByNumber(4))
	Require(t, err)
	byHash, err := discoverer.DiscoverByBlock(ctx, messenger, BlockByHash(blockHashOf(4)))
	Require(t, err)
	if diff := cmp.Diff(messages, byNumber); diff != "" {
		Fail(t, "discovery by number differs", diff)
	}
	if diff := cmp.Diff(messages, byHash); diff != "" {
		Fail(t, "discovery by hash differs", diff)
	}
}

func TestDiscoverSkipsEventsWithoutPayload(t *testing.T) {
	env := newTestEnv(t, nil)
	msg := testhelpers.RandomMessage(9)
	txHash := env.l2.addTx(t, 2, nil, msg)

	messages, err := NewDiscoverer(env.l2, env.l2).DiscoverByTransaction(context.Background(), env.chain.L2CrossDomainMessenger, txHash)
	Require(t, err)
	if len(messages) != 1 || messages[0].MessageNonce != 9 {
		Fail(t, "expected only the message with a payload", messages)
	}
}

func TestDiscoverTransactionNotFound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	discoverer := NewDiscoverer(env.l2, env.l2)
	messenger := env.chain.L2CrossDomainMessenger

	_, err := discoverer.DiscoverByTransaction(ctx, messenger, testhelpers.RandomHash())
	if !errors.Is(err, ErrTransactionNotFound) {
		Fail(t, "expected ErrTransactionNotFound, got", err)
	}

	pending := env.l2.addTx(t, 2, testhelpers.RandomMessage(0))
	tx := env.l2.transaction(pending)
	tx.BlockNumber = nil
	tx.BlockHash = nil
	_, err = discoverer.DiscoverByTransaction(ctx, messenger, pending)
	if !errors.Is(err, ErrTransactionNotFound) {
		Fail(t, "expected ErrTransactionNotFound for pending tx, got", err)
	}
}

// Blocks are assumed to hold one user transaction. When they do not, messages of neighbouring
// transactions are attributed to the requested one.
func TestDiscoverMultipleTransactionsInBlock(t *testing.T) {
	env := newTestEnv(t, nil)
	own := testhelpers.RandomMessage(1)
	foreign := testhelpers.RandomMessage(2)
	txHash := env.l2.addTx(t, 8, own)
	env.l2.addTx(t, 8, foreign)

	messages, err := NewDiscoverer(env.l2, env.l2).DiscoverByTransaction(context.Background(), env.chain.L2CrossDomainMessenger, txHash)
	Require(t, err)
	if len(messages) != 2 || messages[0].MessageNonce != 1 || messages[1].MessageNonce != 2 {
		Fail(t, "expected messages of both transactions", messages)
	}
}

func TestMessageTransactions(t *testing.T) {
	env := newTestEnv(t, nil)
	first := env.l2.addTx(t, 2, testhelpers.RandomMessage(0), testhelpers.RandomMessage(1))
	second := env.l2.addTx(t, 5, testhelpers.RandomMessage(2))
	env.l2.addTx(t, 9, testhelpers.RandomMessage(3))

	txs, err := NewDiscoverer(env.l2, env.l2).MessageTransactions(context.Background(), env.chain.L2CrossDomainMessenger, 0, 6)
	Require(t, err)
	expected := []MessageTx{{TxHash: first, BlockNumber: 2}, {TxHash: second, BlockNumber: 5}}
	if diff := cmp.Diff(expected, txs); diff != "" {
		Fail(t, "unexpected transactions", diff)
	}
}
