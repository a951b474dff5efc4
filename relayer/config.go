// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package relayer

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	flag "github.com/spf13/pflag"
)

type Config struct {
	L1Messenger              string        `koanf:"l1-messenger"`
	TxHash                   string        `koanf:"tx-hash"`
	MaxRetries               int           `koanf:"max-retries"`
	Confirmations            uint64        `koanf:"confirmations"`
	RetryBackoff             time.Duration `koanf:"retry-backoff"`
	ConfirmationPollInterval time.Duration `koanf:"confirmation-poll-interval"`
	ProofParallelism         int           `koanf:"proof-parallelism"`
	VerifyProofs             bool          `koanf:"verify-proofs"`
	TransientErrors          string        `koanf:"transient-errors"`
	RelayedCacheSize         int           `koanf:"relayed-cache-size"`
}

type ConfigFetcher func() *Config

var DefaultConfig = Config{
	MaxRetries:               5,
	Confirmations:            1,
	RetryBackoff:             time.Second,
	ConfirmationPollInterval: time.Second,
	ProofParallelism:         4,
	VerifyProofs:             true,
	RelayedCacheSize:         1024,
}

var TestConfig = Config{
	MaxRetries:               3,
	Confirmations:            1,
	RetryBackoff:             time.Millisecond,
	ConfirmationPollInterval: time.Millisecond,
	ProofParallelism:         2,
	VerifyProofs:             false,
	RelayedCacheSize:         0,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".l1-messenger", DefaultConfig.L1Messenger, "address of the L1 cross domain messenger")
	f.String(prefix+".tx-hash", DefaultConfig.TxHash, "relay the messages of this L2 transaction and exit")
	f.Int(prefix+".max-retries", DefaultConfig.MaxRetries, "resubmissions of a message after transient errors before it is marked failed")
	f.Uint64(prefix+".confirmations", DefaultConfig.Confirmations, "L1 confirmations to wait for after a relay transaction is mined")
	f.Duration(prefix+".retry-backoff", DefaultConfig.RetryBackoff, "delay before resubmitting after a transient error")
	f.Duration(prefix+".confirmation-poll-interval", DefaultConfig.ConfirmationPollInterval, "how often to poll the L1 head while waiting for confirmations")
	f.Int(prefix+".proof-parallelism", DefaultConfig.ProofParallelism, "maximum concurrent storage proof requests")
	f.Bool(prefix+".verify-proofs", DefaultConfig.VerifyProofs, "check storage proofs against the L2 state root before submitting them")
	f.String(prefix+".transient-errors", DefaultConfig.TransientErrors, "regular expression of additional L1 errors to retry")
	f.Int(prefix+".relayed-cache-size", DefaultConfig.RelayedCacheSize, "number of relayed messages remembered so rescans skip them (0 = disabled)")
}

func (c *Config) Validate() error {
	if c.MaxRetries < 0 {
		return errors.New("max-retries cannot be negative")
	}
	if c.RelayedCacheSize < 0 {
		return errors.New("relayed-cache-size cannot be negative")
	}
	if c.ProofParallelism < 1 {
		return errors.New("proof-parallelism must be at least 1")
	}
	if c.L1Messenger != "" && !common.IsHexAddress(c.L1Messenger) {
		return fmt.Errorf("invalid l1-messenger address %q", c.L1Messenger)
	}
	if c.TxHash != "" {
		if _, err := c.ParsedTxHash(); err != nil {
			return err
		}
	}
	if _, err := NewErrorClassifier(c.TransientErrors); err != nil {
		return err
	}
	return nil
}

func (c *Config) ParsedTxHash() (common.Hash, error) {
	var hash common.Hash
	if err := hash.UnmarshalText([]byte(c.TxHash)); err != nil {
		return common.Hash{}, fmt.Errorf("invalid tx-hash %q: %w", c.TxHash, err)
	}
	return hash, nil
}

type WatcherConfig struct {
	Enable       bool          `koanf:"enable"`
	StartBlock   uint64        `koanf:"start-block"`
	PollInterval time.Duration `koanf:"poll-interval"`
	MaxBlockSpan uint64        `koanf:"max-block-span"`
}

type WatcherConfigFetcher func() *WatcherConfig

var DefaultWatcherConfig = WatcherConfig{
	Enable:       false,
	StartBlock:   0,
	PollInterval: 5 * time.Second,
	MaxBlockSpan: 1000,
}

func WatcherConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Bool(prefix+".enable", DefaultWatcherConfig.Enable, "follow the L2 head and relay every message")
	f.Uint64(prefix+".start-block", DefaultWatcherConfig.StartBlock, "first L2 block to scan")
	f.Duration(prefix+".poll-interval", DefaultWatcherConfig.PollInterval, "how often to check the L2 head")
	f.Uint64(prefix+".max-block-span", DefaultWatcherConfig.MaxBlockSpan, "maximum number of L2 blocks scanned in one log query")
}
