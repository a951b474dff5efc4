// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package stateproof

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
)

var (
	ErrInvalidProof   = errors.New("invalid merkle proof")
	ErrAccountMissing = errors.New("account not present in state")
	ErrSlotNotSet     = errors.New("storage slot not set")
)

// account mirrors the consensus RLP layout of a state trie leaf.
type account struct {
	Nonce    uint64
	Balance  *big.Int
	Root     common.Hash
	CodeHash []byte
}

func proofDB(nodes [][]byte) *memorydb.Database {
	db := memorydb.New()
	for _, node := range nodes {
		// memorydb never fails on Put
		_ = db.Put(crypto.Keccak256(node), node)
	}
	return db
}

// Verify checks res against stateRoot: the account proof must lead to address, the storage
// proof must lead from the account's storage root to slot, and the slot must hold a non-zero
// value.
func Verify(stateRoot common.Hash, address common.Address, slot common.Hash, res *Result) error {
	accountRLP, err := trie.VerifyProof(stateRoot, crypto.Keccak256(address.Bytes()), proofDB(res.AccountProofNodes))
	if err != nil {
		return fmt.Errorf("%w: account %v: %v", ErrInvalidProof, address, err)
	}
	if len(accountRLP) == 0 {
		return fmt.Errorf("%w: %v at root %v", ErrAccountMissing, address, stateRoot)
	}
	var acc account
	if err := rlp.DecodeBytes(accountRLP, &acc); err != nil {
		return fmt.Errorf("%w: decoding account %v: %v", ErrInvalidProof, address, err)
	}
	if res.StorageHash != (common.Hash{}) && res.StorageHash != acc.Root {
		return fmt.Errorf("%w: storage hash %v does not match account root %v", ErrInvalidProof, res.StorageHash, acc.Root)
	}
	valueRLP, err := trie.VerifyProof(acc.Root, crypto.Keccak256(slot.Bytes()), proofDB(res.StorageProofNodes))
	if err != nil {
		return fmt.Errorf("%w: slot %v: %v", ErrInvalidProof, slot, err)
	}
	if len(valueRLP) == 0 {
		return fmt.Errorf("%w: %v", ErrSlotNotSet, slot)
	}
	var value []byte
	if err := rlp.DecodeBytes(valueRLP, &value); err != nil {
		return fmt.Errorf("%w: decoding slot value: %v", ErrInvalidProof, err)
	}
	if new(big.Int).SetBytes(value).Sign() == 0 {
		return fmt.Errorf("%w: %v", ErrSlotNotSet, slot)
	}
	return nil
}
