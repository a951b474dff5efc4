// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l2context

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/l2-relayer/xdomain"
)

var ErrIncompleteL2Data = errors.New("incomplete L2 data")

const (
	QueueOriginSequencer uint8 = 0
	QueueOriginL1        uint8 = 1
)

// NVMTransaction is the _nvmTx tuple of the L1 relayMessage call.
type NVMTransaction struct {
	Timestamp     *big.Int
	BlockNumber   *big.Int
	L1QueueOrigin uint8
	L1TxOrigin    common.Address
	Entrypoint    common.Address
	GasLimit      *big.Int
	Data          []byte
}

// NVMReceipt is the _nvmReceipt tuple of the L1 relayMessage call.
type NVMReceipt struct {
	Index              *big.Int
	StateRoot          [32]byte
	NvmTransactionHash [32]byte
	OperatorSignature  []byte
}

type BlockContext struct {
	Tx      NVMTransaction
	Receipt NVMReceipt
}

func incomplete(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrIncompleteL2Data, fmt.Sprintf(format, args...))
}

// BuildContext packages tx and its receipt into the structures the L1 verifier expects.
func BuildContext(tx *Transaction, receipt *Receipt, chain *xdomain.ChainConfig) (*BlockContext, error) {
	if tx == nil || receipt == nil {
		return nil, incomplete("transaction and receipt are both required")
	}
	if tx.L1Timestamp == nil {
		return nil, incomplete("transaction %v has no l1Timestamp", tx.Hash)
	}
	if tx.L1BlockNumber == nil {
		return nil, incomplete("transaction %v has no l1BlockNumber", tx.Hash)
	}
	if len(tx.RawTransaction) == 0 {
		return nil, incomplete("transaction %v has no rawTransaction", tx.Hash)
	}
	if tx.QueueOrigin == "" {
		return nil, incomplete("transaction %v has no queueOrigin", tx.Hash)
	}
	if receipt.BlockNumber == nil {
		return nil, incomplete("receipt of %v has no block number", receipt.TxHash)
	}
	stateRoot, ok := receipt.StateRoot()
	if !ok {
		return nil, incomplete("receipt of %v has no state root", receipt.TxHash)
	}

	queueOrigin := QueueOriginL1
	if tx.QueueOrigin == chain.SequencerQueueOrigin {
		queueOrigin = QueueOriginSequencer
	}
	var l1TxOrigin common.Address
	if tx.L1TxOrigin != nil {
		l1TxOrigin = *tx.L1TxOrigin
	}
	var nvmTxHash common.Hash
	if receipt.NvmTransactionHash != nil {
		nvmTxHash = *receipt.NvmTransactionHash
	}
	signature := common.CopyBytes(receipt.OperatorSignature)
	if len(signature) == 0 {
		signature = make([]byte, 32)
	}

	return &BlockContext{
		Tx: NVMTransaction{
			Timestamp:     new(big.Int).Set(tx.L1Timestamp.ToInt()),
			BlockNumber:   new(big.Int).Set(tx.L1BlockNumber.ToInt()),
			L1QueueOrigin: queueOrigin,
			L1TxOrigin:    l1TxOrigin,
			Entrypoint:    chain.SequencerEntrypoint,
			GasLimit:      new(big.Int).SetUint64(chain.NVMGasLimit),
			Data:          common.CopyBytes(tx.RawTransaction),
		},
		Receipt: NVMReceipt{
			Index:              new(big.Int).Set(receipt.Number()),
			StateRoot:          stateRoot,
			NvmTransactionHash: nvmTxHash,
			OperatorSignature:  signature,
		},
	}, nil
}
