// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package relayer

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/go-cmp/cmp"

	"github.com/offchainlabs/l2-relayer/util/stateproof"
	"github.com/offchainlabs/l2-relayer/util/testhelpers"
	"github.com/offchainlabs/l2-relayer/xdomain"
)

func TestAssembleIsDeterministic(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	messages := []*xdomain.CrossDomainMessage{
		testhelpers.RandomMessage(0),
		testhelpers.RandomMessage(1),
		testhelpers.RandomMessage(2),
	}
	txHash := env.l2.addTx(t, 12, messages...)
	messenger := env.chain.L2CrossDomainMessenger

	first, err := env.assembler.Assemble(ctx, txHash, messenger)
	Require(t, err)
	second, err := env.assembler.Assemble(ctx, txHash, messenger)
	Require(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		Fail(t, "assembling twice gave different proofs", diff)
	}

	root, _ := env.l2.receipt(txHash).StateRoot()
	for i, pair := range first {
		if pair.Message.MessageNonce != messages[i].MessageNonce {
			Fail(t, "position", i, "holds nonce", pair.Message.MessageNonce)
		}
		slot, err := xdomain.DeriveStorageSlot(messages[i], messenger)
		Require(t, err)
		if pair.Slot != slot {
			Fail(t, "unexpected slot for message", i)
		}
		if pair.Proof.StateRoot != root {
			Fail(t, "proof not tied to the receipt state root")
		}
	}
	for _, call := range env.prover.calls {
		if call.block != 12 || call.address != xdomain.L2ToL1MessagePasserAddress {
			Fail(t, "unexpected proof request", call)
		}
	}
}

func TestAssembleReceiptWithoutStateRoot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	txHash := env.l2.addTx(t, 3, testhelpers.RandomMessage(0))
	env.l2.receipt(txHash).Root = hexutil.Bytes{}

	_, err := env.assembler.Assemble(ctx, txHash, env.chain.L2CrossDomainMessenger)
	if !errors.Is(err, ErrReceiptNotFound) {
		Fail(t, "expected ErrReceiptNotFound, got", err)
	}
	if env.prover.callCount() != 0 || env.l2.filterCalls != 0 {
		Fail(t, "RPCs issued before the missing state root was detected")
	}

	_, err = env.assembler.Assemble(ctx, testhelpers.RandomHash(), env.chain.L2CrossDomainMessenger)
	if !errors.Is(err, ErrTransactionNotFound) {
		Fail(t, "expected ErrTransactionNotFound for unknown tx, got", err)
	}
}

func TestAssemblePropagatesProofErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	txHash := env.l2.addTx(t, 3, testhelpers.RandomMessage(0))
	proverErr := errors.New("request timed out")
	env.prover.err = proverErr

	_, err := env.assembler.Assemble(context.Background(), txHash, env.chain.L2CrossDomainMessenger)
	if !errors.Is(err, proverErr) {
		Fail(t, "expected prover error, got", err)
	}
}

func TestAssembleVerifiesProofs(t *testing.T) {
	env := newTestEnv(t, nil)
	env.config.VerifyProofs = true
	txHash := env.l2.addTx(t, 3, testhelpers.RandomMessage(0))

	_, err := env.assembler.Assemble(context.Background(), txHash, env.chain.L2CrossDomainMessenger)
	if !errors.Is(err, stateproof.ErrInvalidProof) {
		Fail(t, "expected fabricated proof to be rejected, got", err)
	}
}

func TestAssembleUsesInjectedChainConfig(t *testing.T) {
	env := newTestEnv(t, nil)
	env.chain.L2ToL1MessagePasser = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	txHash := env.l2.addTx(t, 3, testhelpers.RandomMessage(0))

	_, err := env.assembler.Assemble(context.Background(), txHash, env.chain.L2CrossDomainMessenger)
	Require(t, err)
	if env.prover.calls[0].address != env.chain.L2ToL1MessagePasser {
		Fail(t, "proof requested for", env.prover.calls[0].address)
	}
}
