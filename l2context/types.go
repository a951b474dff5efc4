// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package l2context reads NVM-specific transaction and receipt fields from an L2 node and
// turns them into the block context the L1 messenger verifies.
package l2context

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Transaction is an L2 transaction together with the fields the NVM adds to the
// eth_getTransactionByHash response.
type Transaction struct {
	Hash           common.Hash     `json:"hash"`
	BlockHash      *common.Hash    `json:"blockHash"`
	BlockNumber    *hexutil.Big    `json:"blockNumber"`
	QueueOrigin    string          `json:"queueOrigin"`
	L1TxOrigin     *common.Address `json:"l1TxOrigin"`
	L1BlockNumber  *hexutil.Big    `json:"l1BlockNumber"`
	L1Timestamp    *hexutil.Big    `json:"l1Timestamp"`
	RawTransaction hexutil.Bytes   `json:"rawTransaction"`
}

// Included reports whether the node associates the transaction with a block.
func (t *Transaction) Included() bool {
	return t.BlockNumber != nil
}

// Receipt is an L2 receipt including the post-transaction state root and the NVM extras.
type Receipt struct {
	TxHash             common.Hash     `json:"transactionHash"`
	BlockHash          common.Hash     `json:"blockHash"`
	BlockNumber        *hexutil.Big    `json:"blockNumber"`
	Status             *hexutil.Uint64 `json:"status"`
	Root               hexutil.Bytes   `json:"root"`
	NvmTransactionHash *common.Hash    `json:"nvmTransactionHash"`
	OperatorSignature  hexutil.Bytes   `json:"operatorSignature"`
}

// StateRoot returns the state root committed with the receipt, if the node recorded one.
func (r *Receipt) StateRoot() (common.Hash, bool) {
	if len(r.Root) != common.HashLength {
		return common.Hash{}, false
	}
	return common.BytesToHash(r.Root), true
}

// Number returns the receipt's L2 block number, or nil when the node did not report one.
func (r *Receipt) Number() *big.Int {
	if r.BlockNumber == nil {
		return nil
	}
	return r.BlockNumber.ToInt()
}
