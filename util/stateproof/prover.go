// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package stateproof fetches and checks Merkle-Patricia account and storage proofs.
package stateproof

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
)

var ErrNoStorageProof = errors.New("provider returned no storage proof")

// ProofFetcher is the eth_getProof surface of an L2 node. *gethclient.Client implements it.
type ProofFetcher interface {
	GetProof(ctx context.Context, account common.Address, keys []string, blockNumber *big.Int) (*gethclient.AccountResult, error)
}

// Result holds a single-slot proof in both its raw and RLP-encoded form.
type Result struct {
	AccountProof []byte
	StorageProof []byte

	AccountProofNodes [][]byte
	StorageProofNodes [][]byte
	StorageHash       common.Hash
	StorageValue      *big.Int
}

type Prover struct {
	fetcher ProofFetcher
}

func NewProver(fetcher ProofFetcher) *Prover {
	return &Prover{fetcher: fetcher}
}

// Prove requests an account and storage proof for exactly one slot of address at blockNumber
// and RLP-encodes both node lists. Provider errors are returned as is.
func (p *Prover) Prove(ctx context.Context, blockNumber uint64, address common.Address, slot common.Hash) (*Result, error) {
	res, err := p.fetcher.GetProof(ctx, address, []string{slot.Hex()}, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return nil, err
	}
	if len(res.StorageProof) == 0 {
		return nil, fmt.Errorf("%w for slot %v of %v at block %v", ErrNoStorageProof, slot, address, blockNumber)
	}
	accountNodes, err := decodeNodes(res.AccountProof)
	if err != nil {
		return nil, fmt.Errorf("account proof: %w", err)
	}
	storageNodes, err := decodeNodes(res.StorageProof[0].Proof)
	if err != nil {
		return nil, fmt.Errorf("storage proof: %w", err)
	}
	accountRLP, err := rlp.EncodeToBytes(accountNodes)
	if err != nil {
		return nil, err
	}
	storageRLP, err := rlp.EncodeToBytes(storageNodes)
	if err != nil {
		return nil, err
	}
	log.Debug("fetched storage proof", "address", address, "slot", slot, "block", blockNumber, "accountNodes", len(accountNodes), "storageNodes", len(storageNodes))
	return &Result{
		AccountProof:      accountRLP,
		StorageProof:      storageRLP,
		AccountProofNodes: accountNodes,
		StorageProofNodes: storageNodes,
		StorageHash:       res.StorageHash,
		StorageValue:      res.StorageProof[0].Value,
	}, nil
}

func decodeNodes(hexNodes []string) ([][]byte, error) {
	nodes := make([][]byte, 0, len(hexNodes))
	for i, node := range hexNodes {
		decoded, err := hexutil.Decode(node)
		if err != nil {
			return nil, fmt.Errorf("node %v: %w", i, err)
		}
		nodes = append(nodes, decoded)
	}
	return nodes, nil
}
