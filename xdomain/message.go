// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package xdomain

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrMalformedMessage = errors.New("malformed cross domain message")

// CrossDomainMessage is one L2 to L1 call intent as emitted by the L2 messenger.
type CrossDomainMessage struct {
	Target       common.Address
	Sender       common.Address
	Message      []byte
	MessageNonce uint64
}

func (m *CrossDomainMessage) String() string {
	return fmt.Sprintf("CrossDomainMessage{target: %v, sender: %v, nonce: %v, len: %v}", m.Target, m.Sender, m.MessageNonce, len(m.Message))
}

// CrossDomainMessageProof proves that a message's storage slot was set in the
// L2ToL1MessagePasser at StateRoot.
type CrossDomainMessageProof struct {
	StateRoot          common.Hash
	StateTrieWitness   []byte
	StorageTrieWitness []byte
}

// EncodeMessage returns the relayMessage calldata the L2 messenger builds for msg. The L2
// messenger hashes exactly these bytes, so any deviation yields a proof for the wrong slot.
func EncodeMessage(msg *CrossDomainMessage) ([]byte, error) {
	return l2MessengerABI.Pack(
		relayMessageMethod,
		msg.Target,
		msg.Sender,
		msg.Message,
		new(big.Int).SetUint64(msg.MessageNonce),
	)
}

// DecodeMessage parses relayMessage calldata back into a CrossDomainMessage.
func DecodeMessage(calldata []byte) (*CrossDomainMessage, error) {
	method := l2MessengerABI.Methods[relayMessageMethod]
	if len(calldata) < 4 || !bytes.Equal(calldata[:4], method.ID) {
		return nil, fmt.Errorf("%w: calldata does not start with the relayMessage selector", ErrMalformedMessage)
	}
	values, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if len(values) != 4 {
		return nil, fmt.Errorf("%w: expected 4 arguments, got %v", ErrMalformedMessage, len(values))
	}
	target, ok1 := values[0].(common.Address)
	sender, ok2 := values[1].(common.Address)
	message, ok3 := values[2].([]byte)
	nonce, ok4 := values[3].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, fmt.Errorf("%w: unexpected argument types", ErrMalformedMessage)
	}
	if !nonce.IsUint64() {
		return nil, fmt.Errorf("%w: nonce %v out of range", ErrMalformedMessage, nonce)
	}
	return &CrossDomainMessage{
		Target:       target,
		Sender:       sender,
		Message:      message,
		MessageNonce: nonce.Uint64(),
	}, nil
}

// UnpackSentMessage extracts the message payload of a SentMessage log. A nil payload with a
// nil error means the event carried no message.
func UnpackSentMessage(lg *types.Log) ([]byte, error) {
	if len(lg.Topics) == 0 || lg.Topics[0] != SentMessageTopic {
		return nil, fmt.Errorf("log %v/%v is not a SentMessage event", lg.TxHash, lg.Index)
	}
	if len(lg.Data) == 0 {
		return nil, nil
	}
	values, err := l2MessengerABI.Unpack(sentMessageEvent, lg.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, nil
	}
	payload, ok := values[0].([]byte)
	if !ok || len(payload) == 0 {
		return nil, nil
	}
	return payload, nil
}

// PackSentMessageData ABI-encodes payload as the data of a SentMessage event.
func PackSentMessageData(payload []byte) ([]byte, error) {
	return l2MessengerABI.Events[sentMessageEvent].Inputs.NonIndexed().Pack(payload)
}

// MessageSlot computes the L2ToL1MessagePasser storage slot that records encodedMessage as sent
// by messenger. The passer stores sentMessages[keccak256(message ++ sender)] = true in a mapping
// at storage slot 0, so the slot is keccak256(key ++ uint256(0)).
func MessageSlot(encodedMessage []byte, messenger common.Address) common.Hash {
	key := crypto.Keccak256(encodedMessage, messenger.Bytes())
	return crypto.Keccak256Hash(key, common.Hash{}.Bytes())
}

// DeriveStorageSlot encodes msg and returns its MessageSlot.
func DeriveStorageSlot(msg *CrossDomainMessage, messenger common.Address) (common.Hash, error) {
	encoded, err := EncodeMessage(msg)
	if err != nil {
		return common.Hash{}, err
	}
	return MessageSlot(encoded, messenger), nil
}
