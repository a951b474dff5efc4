// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package xdomain

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// L2CrossDomainMessengerMetaData contains the parts of the NVM_L2CrossDomainMessenger ABI the
// relayer needs: the SentMessage event and the relayMessage calldata layout it carries.
var L2CrossDomainMessengerMetaData = &bind.MetaData{
	ABI: `[
	{"anonymous":false,"inputs":[{"indexed":false,"internalType":"bytes","name":"message","type":"bytes"}],"name":"SentMessage","type":"event"},
	{"inputs":[{"internalType":"address","name":"_target","type":"address"},{"internalType":"address","name":"_sender","type":"address"},{"internalType":"bytes","name":"_message","type":"bytes"},{"internalType":"uint256","name":"_messageNonce","type":"uint256"}],"name":"relayMessage","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`,
}

// L1CrossDomainMessengerMetaData contains the relayMessage entry point of iNVM_L1CrossDomainMessenger.
var L1CrossDomainMessengerMetaData = &bind.MetaData{
	ABI: `[
	{"inputs":[
		{"internalType":"address","name":"_target","type":"address"},
		{"internalType":"address","name":"_sender","type":"address"},
		{"internalType":"bytes","name":"_message","type":"bytes"},
		{"internalType":"uint256","name":"_messageNonce","type":"uint256"},
		{"components":[
			{"internalType":"uint256","name":"timestamp","type":"uint256"},
			{"internalType":"uint256","name":"blockNumber","type":"uint256"},
			{"internalType":"enum Lib_NVMCodec.QueueOrigin","name":"l1QueueOrigin","type":"uint8"},
			{"internalType":"address","name":"l1TxOrigin","type":"address"},
			{"internalType":"address","name":"entrypoint","type":"address"},
			{"internalType":"uint256","name":"gasLimit","type":"uint256"},
			{"internalType":"bytes","name":"data","type":"bytes"}
		],"internalType":"struct Lib_NVMCodec.Transaction","name":"_nvmTx","type":"tuple"},
		{"components":[
			{"internalType":"uint256","name":"index","type":"uint256"},
			{"internalType":"bytes32","name":"stateRoot","type":"bytes32"},
			{"internalType":"bytes32","name":"nvmTransactionHash","type":"bytes32"},
			{"internalType":"bytes","name":"operatorSignature","type":"bytes"}
		],"internalType":"struct Lib_NVMCodec.Receipt","name":"_nvmReceipt","type":"tuple"},
		{"components":[
			{"internalType":"bytes32","name":"stateRoot","type":"bytes32"},
			{"internalType":"bytes","name":"stateTrieWitness","type":"bytes"},
			{"internalType":"bytes","name":"storageTrieWitness","type":"bytes"}
		],"internalType":"struct iNVM_L1CrossDomainMessenger.L2MessageInclusionProof","name":"_proof","type":"tuple"}
	],"name":"relayMessage","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`,
}

const (
	relayMessageMethod = "relayMessage"
	sentMessageEvent   = "SentMessage"
)

var (
	l2MessengerABI *abi.ABI
	l1MessengerABI *abi.ABI

	// SentMessageTopic is topic[0] of the L2 messenger's SentMessage event.
	SentMessageTopic common.Hash
)

func init() {
	var err error
	l2MessengerABI, err = L2CrossDomainMessengerMetaData.GetAbi()
	if err != nil {
		panic(err)
	}
	l1MessengerABI, err = L1CrossDomainMessengerMetaData.GetAbi()
	if err != nil {
		panic(err)
	}
	SentMessageTopic = l2MessengerABI.Events[sentMessageEvent].ID
	if SentMessageTopic != crypto.Keccak256Hash([]byte("SentMessage(bytes)")) {
		panic("unexpected SentMessage topic")
	}
}

// L1MessengerABI returns the parsed L1 messenger ABI.
func L1MessengerABI() *abi.ABI {
	return l1MessengerABI
}
