// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package stateproof

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/stretchr/testify/require"
)

// orderedNodes collects proof nodes in the order the trie emits them, root first.
type orderedNodes struct {
	nodes [][]byte
}

func (o *orderedNodes) Put(_ []byte, value []byte) error {
	o.nodes = append(o.nodes, common.CopyBytes(value))
	return nil
}

func (o *orderedNodes) Delete([]byte) error {
	return nil
}

func (o *orderedNodes) hex() []string {
	res := make([]string, len(o.nodes))
	for i, node := range o.nodes {
		res[i] = hexutil.Encode(node)
	}
	return res
}

type testState struct {
	root        common.Hash
	storageRoot common.Hash
	accountTrie *trie.Trie
	storageTrie *trie.Trie
}

func newTrie() *trie.Trie {
	return trie.NewEmpty(trie.NewDatabase(rawdb.NewMemoryDatabase(), nil))
}

// buildState creates a state with address holding storage slots set to one.
func buildState(t *testing.T, address common.Address, slots ...common.Hash) *testState {
	t.Helper()
	storage := newTrie()
	for _, slot := range slots {
		value, err := rlp.EncodeToBytes([]byte{1})
		require.NoError(t, err)
		require.NoError(t, storage.Update(crypto.Keccak256(slot.Bytes()), value))
	}
	storageRoot := storage.Hash()
	accountRLP, err := rlp.EncodeToBytes(&account{
		Nonce:    0,
		Balance:  big.NewInt(0),
		Root:     storageRoot,
		CodeHash: types.EmptyCodeHash.Bytes(),
	})
	require.NoError(t, err)
	accounts := newTrie()
	require.NoError(t, accounts.Update(crypto.Keccak256(address.Bytes()), accountRLP))
	// a second account so the state trie is more than a single leaf
	require.NoError(t, accounts.Update(crypto.Keccak256(common.HexToAddress("0x1234").Bytes()), accountRLP))
	return &testState{
		root:        accounts.Hash(),
		storageRoot: storageRoot,
		accountTrie: accounts,
		storageTrie: storage,
	}
}

type fakeFetcher struct {
	state   *testState
	calls   int
	lastKey []string
	lastNum *big.Int
	err     error
}

func (f *fakeFetcher) GetProof(_ context.Context, address common.Address, keys []string, blockNumber *big.Int) (*gethclient.AccountResult, error) {
	f.calls++
	f.lastKey = keys
	f.lastNum = blockNumber
	if f.err != nil {
		return nil, f.err
	}
	var accountNodes, storageNodes orderedNodes
	if err := f.state.accountTrie.Prove(crypto.Keccak256(address.Bytes()), &accountNodes); err != nil {
		return nil, err
	}
	result := &gethclient.AccountResult{
		Address:      address,
		AccountProof: accountNodes.hex(),
		StorageHash:  f.state.storageRoot,
	}
	for _, key := range keys {
		if err := f.state.storageTrie.Prove(crypto.Keccak256(common.HexToHash(key).Bytes()), &storageNodes); err != nil {
			return nil, err
		}
		result.StorageProof = append(result.StorageProof, gethclient.StorageResult{
			Key:   key,
			Value: big.NewInt(1),
			Proof: storageNodes.hex(),
		})
	}
	return result, nil
}

func TestProveEncodesNodeLists(t *testing.T) {
	address := common.HexToAddress("0x4200000000000000000000000000000000000000")
	slot := crypto.Keccak256Hash([]byte("slot"))
	fetcher := &fakeFetcher{state: buildState(t, address, slot)}
	prover := NewProver(fetcher)

	res, err := prover.Prove(context.Background(), 77, address, slot)
	require.NoError(t, err)
	require.Equal(t, 1, fetcher.calls)
	require.Equal(t, []string{slot.Hex()}, fetcher.lastKey)
	require.Equal(t, uint64(77), fetcher.lastNum.Uint64())

	var accountNodes [][]byte
	require.NoError(t, rlp.DecodeBytes(res.AccountProof, &accountNodes))
	require.Equal(t, res.AccountProofNodes, accountNodes)
	var storageNodes [][]byte
	require.NoError(t, rlp.DecodeBytes(res.StorageProof, &storageNodes))
	require.Equal(t, res.StorageProofNodes, storageNodes)

	again, err := prover.Prove(context.Background(), 77, address, slot)
	require.NoError(t, err)
	require.True(t, bytes.Equal(res.AccountProof, again.AccountProof))
	require.True(t, bytes.Equal(res.StorageProof, again.StorageProof))
}

func TestProvePropagatesProviderErrors(t *testing.T) {
	providerErr := errors.New("connection refused")
	prover := NewProver(&fakeFetcher{err: providerErr})
	_, err := prover.Prove(context.Background(), 1, common.Address{}, common.Hash{})
	require.ErrorIs(t, err, providerErr)
}

func TestVerify(t *testing.T) {
	address := common.HexToAddress("0x4200000000000000000000000000000000000000")
	slot := crypto.Keccak256Hash([]byte("sent"))
	state := buildState(t, address, slot, crypto.Keccak256Hash([]byte("other")))
	prover := NewProver(&fakeFetcher{state: state})

	res, err := prover.Prove(context.Background(), 1, address, slot)
	require.NoError(t, err)
	require.NoError(t, Verify(state.root, address, slot, res))

	err = Verify(crypto.Keccak256Hash([]byte("wrong root")), address, slot, res)
	require.ErrorIs(t, err, ErrInvalidProof)

	unsent := crypto.Keccak256Hash([]byte("never sent"))
	res, err = prover.Prove(context.Background(), 1, address, unsent)
	require.NoError(t, err)
	err = Verify(state.root, address, unsent, res)
	require.ErrorIs(t, err, ErrSlotNotSet)
}
