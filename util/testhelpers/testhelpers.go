// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package testhelpers

import (
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/l2-relayer/util/colors"
	"github.com/offchainlabs/l2-relayer/xdomain"
)

// Fail a test should an error occur
func RequireImpl(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	if err != nil {
		t.Fatal(colors.Red, printables, err, colors.Clear)
	}
}

func FailImpl(t *testing.T, printables ...interface{}) {
	t.Helper()
	t.Fatal(colors.Red, printables, colors.Clear)
}

func RandomizeSlice(slice []byte) []byte {
	_, err := rand.Read(slice)
	if err != nil {
		panic(err)
	}
	return slice
}

func RandomSlice(size uint64) []byte {
	return RandomizeSlice(make([]byte, size))
}

func RandomHash() common.Hash {
	var hash common.Hash
	RandomizeSlice(hash[:])
	return hash
}

func RandomAddress() common.Address {
	var address common.Address
	RandomizeSlice(address[:])
	return address
}

// RandomMessage returns a cross domain message with random addresses and payload.
func RandomMessage(nonce uint64) *xdomain.CrossDomainMessage {
	return &xdomain.CrossDomainMessage{
		Target:       RandomAddress(),
		Sender:       RandomAddress(),
		Message:      RandomSlice(uint64(rand.Intn(200) + 1)),
		MessageNonce: nonce,
	}
}
