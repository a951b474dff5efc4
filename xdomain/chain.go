// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package xdomain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	flag "github.com/spf13/pflag"
)

// Well known NVM predeploy addresses.
var (
	L2ToL1MessagePasserAddress    = common.HexToAddress("0x4200000000000000000000000000000000000000")
	SequencerEntrypointAddress    = common.HexToAddress("0x4200000000000000000000000000000000000005")
	L2CrossDomainMessengerAddress = common.HexToAddress("0x4200000000000000000000000000000000000007")
)

const (
	// DefaultNVMGasLimit is the gas limit the L1 verifier expects in the NVM transaction struct.
	DefaultNVMGasLimit uint64 = 11_000_000
	// SequencerQueueOrigin is the queueOrigin tag L2 nodes report for sequencer transactions.
	SequencerQueueOrigin = "sequencer"
)

// ChainConfig holds the protocol constants of one L2 deployment. It is built once and passed
// by pointer; nothing mutates it after construction.
type ChainConfig struct {
	L2ToL1MessagePasser    common.Address
	L2CrossDomainMessenger common.Address
	SequencerEntrypoint    common.Address
	NVMGasLimit            uint64
	SequencerQueueOrigin   string
}

var DefaultChainConfig = ChainConfig{
	L2ToL1MessagePasser:    L2ToL1MessagePasserAddress,
	L2CrossDomainMessenger: L2CrossDomainMessengerAddress,
	SequencerEntrypoint:    SequencerEntrypointAddress,
	NVMGasLimit:            DefaultNVMGasLimit,
	SequencerQueueOrigin:   SequencerQueueOrigin,
}

// ChainConfigOpts is the string form of ChainConfig used by the config layer.
type ChainConfigOpts struct {
	L2ToL1MessagePasser    string `koanf:"l2-to-l1-message-passer"`
	L2CrossDomainMessenger string `koanf:"l2-cross-domain-messenger"`
	SequencerEntrypoint    string `koanf:"sequencer-entrypoint"`
	NVMGasLimit            uint64 `koanf:"nvm-gas-limit"`
	SequencerQueueOrigin   string `koanf:"sequencer-queue-origin"`
}

var DefaultChainConfigOpts = ChainConfigOpts{
	L2ToL1MessagePasser:    DefaultChainConfig.L2ToL1MessagePasser.Hex(),
	L2CrossDomainMessenger: DefaultChainConfig.L2CrossDomainMessenger.Hex(),
	SequencerEntrypoint:    DefaultChainConfig.SequencerEntrypoint.Hex(),
	NVMGasLimit:            DefaultChainConfig.NVMGasLimit,
	SequencerQueueOrigin:   DefaultChainConfig.SequencerQueueOrigin,
}

func ChainConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".l2-to-l1-message-passer", DefaultChainConfigOpts.L2ToL1MessagePasser, "address of the L2ToL1MessagePasser predeploy")
	f.String(prefix+".l2-cross-domain-messenger", DefaultChainConfigOpts.L2CrossDomainMessenger, "address of the L2CrossDomainMessenger predeploy")
	f.String(prefix+".sequencer-entrypoint", DefaultChainConfigOpts.SequencerEntrypoint, "address of the sequencer entrypoint predeploy")
	f.Uint64(prefix+".nvm-gas-limit", DefaultChainConfigOpts.NVMGasLimit, "gas limit reported in the NVM transaction context")
	f.String(prefix+".sequencer-queue-origin", DefaultChainConfigOpts.SequencerQueueOrigin, "queue origin tag of sequencer transactions")
}

func parseAddress(name, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s address %q", name, value)
	}
	return common.HexToAddress(value), nil
}

// ChainConfig validates the options and returns the immutable chain configuration.
func (o *ChainConfigOpts) ChainConfig() (*ChainConfig, error) {
	var err error
	c := &ChainConfig{
		NVMGasLimit:          o.NVMGasLimit,
		SequencerQueueOrigin: o.SequencerQueueOrigin,
	}
	if c.L2ToL1MessagePasser, err = parseAddress("l2-to-l1-message-passer", o.L2ToL1MessagePasser); err != nil {
		return nil, err
	}
	if c.L2CrossDomainMessenger, err = parseAddress("l2-cross-domain-messenger", o.L2CrossDomainMessenger); err != nil {
		return nil, err
	}
	if c.SequencerEntrypoint, err = parseAddress("sequencer-entrypoint", o.SequencerEntrypoint); err != nil {
		return nil, err
	}
	if c.NVMGasLimit == 0 {
		return nil, errors.New("nvm-gas-limit must be positive")
	}
	if c.SequencerQueueOrigin == "" {
		return nil, errors.New("sequencer-queue-origin must not be empty")
	}
	return c, nil
}
