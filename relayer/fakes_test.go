// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package relayer

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/offchainlabs/l2-relayer/l2context"
	"github.com/offchainlabs/l2-relayer/util/stateproof"
	"github.com/offchainlabs/l2-relayer/util/testhelpers"
	"github.com/offchainlabs/l2-relayer/xdomain"
)

func Require(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	testhelpers.RequireImpl(t, err, printables...)
}

func Fail(t *testing.T, printables ...interface{}) {
	t.Helper()
	testhelpers.FailImpl(t, printables...)
}

// fakeL2 is an in-memory L2 node serving NVM transactions, receipts and messenger logs.
type fakeL2 struct {
	mutex       sync.Mutex
	chain       *xdomain.ChainConfig
	txs         map[common.Hash]*l2context.Transaction
	receipts    map[common.Hash]*l2context.Receipt
	logs        []types.Log
	head        uint64
	filterCalls int
	txLookups   int
}

func newFakeL2(chain *xdomain.ChainConfig) *fakeL2 {
	return &fakeL2{
		chain:    chain,
		txs:      make(map[common.Hash]*l2context.Transaction),
		receipts: make(map[common.Hash]*l2context.Receipt),
	}
}

func blockHashOf(number uint64) common.Hash {
	return crypto.Keccak256Hash(new(big.Int).SetUint64(number).Bytes(), []byte("block"))
}

// addTx records a sequencer transaction in block that emitted one SentMessage per payload. A nil
// payload produces an event without data.
func (f *fakeL2) addTx(t *testing.T, block uint64, messages ...*xdomain.CrossDomainMessage) common.Hash {
	t.Helper()
	f.mutex.Lock()
	defer f.mutex.Unlock()
	txHash := testhelpers.RandomHash()
	blockHash := blockHashOf(block)
	origin := testhelpers.RandomAddress()
	f.txs[txHash] = &l2context.Transaction{
		Hash:           txHash,
		BlockHash:      &blockHash,
		BlockNumber:    (*hexutil.Big)(new(big.Int).SetUint64(block)),
		QueueOrigin:    xdomain.SequencerQueueOrigin,
		L1TxOrigin:     &origin,
		L1BlockNumber:  (*hexutil.Big)(big.NewInt(int64(block) + 1000)),
		L1Timestamp:    (*hexutil.Big)(big.NewInt(1700000000)),
		RawTransaction: testhelpers.RandomSlice(80),
	}
	f.receipts[txHash] = &l2context.Receipt{
		TxHash:      txHash,
		BlockHash:   blockHash,
		BlockNumber: (*hexutil.Big)(new(big.Int).SetUint64(block)),
		Root:        testhelpers.RandomHash().Bytes(),
	}
	for _, msg := range messages {
		var data []byte
		if msg != nil {
			encoded, err := xdomain.EncodeMessage(msg)
			Require(t, err)
			data, err = xdomain.PackSentMessageData(encoded)
			Require(t, err)
		}
		f.logs = append(f.logs, types.Log{
			Address:     f.chain.L2CrossDomainMessenger,
			Topics:      []common.Hash{xdomain.SentMessageTopic},
			Data:        data,
			BlockNumber: block,
			BlockHash:   blockHash,
			TxHash:      txHash,
			Index:       uint(len(f.logs)),
		})
	}
	if block > f.head {
		f.head = block
	}
	return txHash
}

func (f *fakeL2) receipt(hash common.Hash) *l2context.Receipt {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.receipts[hash]
}

func (f *fakeL2) transactionLookups() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.txLookups
}

func (f *fakeL2) transaction(hash common.Hash) *l2context.Transaction {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.txs[hash]
}

func (f *fakeL2) TransactionByHash(_ context.Context, hash common.Hash) (*l2context.Transaction, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.txLookups++
	tx, ok := f.txs[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return tx, nil
}

func (f *fakeL2) TransactionReceipt(_ context.Context, hash common.Hash) (*l2context.Receipt, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	receipt, ok := f.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (f *fakeL2) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.filterCalls++
	var res []types.Log
	for _, lg := range f.logs {
		if q.BlockHash != nil && lg.BlockHash != *q.BlockHash {
			continue
		}
		if q.FromBlock != nil && lg.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		if q.ToBlock != nil && lg.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		if len(q.Addresses) > 0 && lg.Address != q.Addresses[0] {
			continue
		}
		if len(q.Topics) > 0 && len(q.Topics[0]) > 0 && lg.Topics[0] != q.Topics[0][0] {
			continue
		}
		res = append(res, lg)
	}
	return res, nil
}

func (f *fakeL2) BlockNumber(context.Context) (uint64, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.head, nil
}

type proveCall struct {
	block   uint64
	address common.Address
	slot    common.Hash
}

// fakeProver derives witnesses from its inputs, so equal requests get equal proofs.
type fakeProver struct {
	mutex sync.Mutex
	calls []proveCall
	err   error
}

func (p *fakeProver) Prove(_ context.Context, blockNumber uint64, address common.Address, slot common.Hash) (*stateproof.Result, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.calls = append(p.calls, proveCall{blockNumber, address, slot})
	if p.err != nil {
		return nil, p.err
	}
	number := new(big.Int).SetUint64(blockNumber).Bytes()
	return &stateproof.Result{
		AccountProof: crypto.Keccak256(number, address.Bytes()),
		StorageProof: crypto.Keccak256(number, slot.Bytes()),
	}, nil
}

func (p *fakeProver) callCount() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.calls)
}

type submission struct {
	messenger common.Address
	msg       *xdomain.CrossDomainMessage
	blockCtx  *l2context.BlockContext
	proof     *xdomain.CrossDomainMessageProof
}

// fakeSubmitter answers each submission with the error returned by respond, nil meaning the
// relay transaction gets mined successfully. confirming runs while a confirmation is awaited.
type fakeSubmitter struct {
	mutex       sync.Mutex
	respond     func(msg *xdomain.CrossDomainMessage, attempt int) error
	confirming  func()
	submissions []submission
	attempts    map[uint64]int
}

func (s *fakeSubmitter) SubmitRelay(ctx context.Context, opts *bind.TransactOpts, l1Messenger common.Address, msg *xdomain.CrossDomainMessage, blockCtx *l2context.BlockContext, proof *xdomain.CrossDomainMessageProof) (*types.Transaction, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.attempts == nil {
		s.attempts = make(map[uint64]int)
	}
	s.attempts[msg.MessageNonce]++
	s.submissions = append(s.submissions, submission{l1Messenger, msg, blockCtx, proof})
	if s.respond != nil {
		if err := s.respond(msg, s.attempts[msg.MessageNonce]); err != nil {
			return nil, err
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return types.NewTx(&types.LegacyTx{Nonce: uint64(len(s.submissions)), Data: msg.Message}), nil
}

func (s *fakeSubmitter) WaitForConfirmations(ctx context.Context, tx *types.Transaction, confirmations uint64) (*types.Receipt, error) {
	if s.confirming != nil {
		s.confirming()
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: tx.Hash(), BlockNumber: big.NewInt(1)}, nil
}

func (s *fakeSubmitter) attemptsFor(nonce uint64) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.attempts[nonce]
}

func (s *fakeSubmitter) submittedNonces() []uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	nonces := make([]uint64, len(s.submissions))
	for i, sub := range s.submissions {
		nonces[i] = sub.msg.MessageNonce
	}
	return nonces
}

type testEnv struct {
	config    Config
	chain     xdomain.ChainConfig
	l2        *fakeL2
	prover    *fakeProver
	submitter *fakeSubmitter
	assembler *Assembler
	relayer   *Relayer
}

func newTestEnv(t *testing.T, lock SignerLock) *testEnv {
	t.Helper()
	env := &testEnv{
		config:    TestConfig,
		chain:     xdomain.DefaultChainConfig,
		prover:    &fakeProver{},
		submitter: &fakeSubmitter{},
	}
	env.l2 = newFakeL2(&env.chain)
	fetcher := func() *Config { return &env.config }
	discoverer := NewDiscoverer(env.l2, env.l2)
	env.assembler = NewAssembler(fetcher, &env.chain, env.l2, discoverer, env.prover)
	opts := &bind.TransactOpts{From: testhelpers.RandomAddress()}
	var err error
	env.relayer, err = NewRelayer(fetcher, &env.chain, env.l2, env.assembler, env.submitter, opts, lock)
	Require(t, err)
	return env
}

func messageTo(target common.Address, nonce uint64) *xdomain.CrossDomainMessage {
	msg := testhelpers.RandomMessage(nonce)
	msg.Target = target
	return msg
}

var errRevertBadProof = errors.New("execution reverted: Provided message could not be verified.")
