// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/l2-relayer/cmd/genericconf"
	"github.com/offchainlabs/l2-relayer/cmd/util/confighelpers"
	"github.com/offchainlabs/l2-relayer/relayer"
	"github.com/offchainlabs/l2-relayer/util/redislock"
	"github.com/offchainlabs/l2-relayer/xdomain"
)

type L1Config struct {
	URL     string                   `koanf:"url"`
	ChainID uint64                   `koanf:"chain-id"`
	Wallet  genericconf.WalletConfig `koanf:"wallet"`
}

var L1ConfigDefault = L1Config{
	URL:     "",
	ChainID: 0,
	Wallet:  genericconf.WalletConfigDefault,
}

func L1ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".url", L1ConfigDefault.URL, "L1 node RPC url")
	f.Uint64(prefix+".chain-id", L1ConfigDefault.ChainID, "expected L1 chain id (0 = accept what the node reports)")
	genericconf.WalletConfigAddOptions(prefix+".wallet", f, "")
}

type L2Config struct {
	URL string `koanf:"url"`
}

var L2ConfigDefault = L2Config{
	URL: "",
}

func L2ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".url", L2ConfigDefault.URL, "L2 node RPC url")
}

type SignerLockConfig struct {
	RedisUrl string           `koanf:"redis-url"`
	Lock     redislock.Config `koanf:"lock"`
}

var SignerLockConfigDefault = SignerLockConfig{
	RedisUrl: "",
	Lock:     redislock.DefaultConfig,
}

func SignerLockConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".redis-url", SignerLockConfigDefault.RedisUrl, "redis url used to share the L1 signer between relayer instances (empty = no lock)")
	redislock.ConfigAddOptions(prefix+".lock", f)
}

type RelayerConfig struct {
	Conf          genericconf.ConfConfig          `koanf:"conf"`
	LogLevel      string                          `koanf:"log-level"`
	LogType       string                          `koanf:"log-type"`
	FileLogging   genericconf.FileLoggingConfig   `koanf:"file-logging"`
	L1            L1Config                        `koanf:"l1"`
	L2            L2Config                        `koanf:"l2"`
	Chain         xdomain.ChainConfigOpts         `koanf:"chain"`
	Relay         relayer.Config                  `koanf:"relay"`
	Watch         relayer.WatcherConfig           `koanf:"watch"`
	SignerLock    SignerLockConfig                `koanf:"signer-lock"`
	Metrics       bool                            `koanf:"metrics"`
	MetricsServer genericconf.MetricsServerConfig `koanf:"metrics-server"`
}

var RelayerConfigDefault = RelayerConfig{
	Conf:          genericconf.ConfConfigDefault,
	LogLevel:      "info",
	LogType:       "plaintext",
	FileLogging:   genericconf.DefaultFileLoggingConfig,
	L1:            L1ConfigDefault,
	L2:            L2ConfigDefault,
	Chain:         xdomain.DefaultChainConfigOpts,
	Relay:         relayer.DefaultConfig,
	Watch:         relayer.DefaultWatcherConfig,
	SignerLock:    SignerLockConfigDefault,
	Metrics:       false,
	MetricsServer: genericconf.MetricsServerConfigDefault,
}

func RelayerConfigAddOptions(f *flag.FlagSet) {
	genericconf.ConfConfigAddOptions("conf", f)
	f.String("log-level", RelayerConfigDefault.LogLevel, "log level, valid values are CRIT, ERROR, WARN, INFO, DEBUG, TRACE")
	f.String("log-type", RelayerConfigDefault.LogType, "log type (plaintext or json)")
	genericconf.FileLoggingConfigAddOptions("file-logging", f)
	L1ConfigAddOptions("l1", f)
	L2ConfigAddOptions("l2", f)
	xdomain.ChainConfigAddOptions("chain", f)
	relayer.ConfigAddOptions("relay", f)
	relayer.WatcherConfigAddOptions("watch", f)
	SignerLockConfigAddOptions("signer-lock", f)
	f.Bool("metrics", RelayerConfigDefault.Metrics, "enable metrics")
	genericconf.MetricsServerAddOptions("metrics-server", f)
}

func (c *RelayerConfig) Validate() error {
	if c.L1.URL == "" {
		return errors.New("--l1.url is required")
	}
	if c.L2.URL == "" {
		return errors.New("--l2.url is required")
	}
	if c.Relay.L1Messenger == "" {
		return errors.New("--relay.l1-messenger is required")
	}
	if c.Relay.TxHash == "" && !c.Watch.Enable {
		return errors.New("either --relay.tx-hash or --watch.enable must be set")
	}
	if c.Relay.TxHash != "" && c.Watch.Enable {
		return errors.New("--relay.tx-hash and --watch.enable are mutually exclusive")
	}
	if c.Watch.Enable && c.Watch.MaxBlockSpan == 0 {
		return errors.New("--watch.max-block-span must be positive")
	}
	if _, err := c.Chain.ChainConfig(); err != nil {
		return fmt.Errorf("invalid chain config: %w", err)
	}
	return c.Relay.Validate()
}

// ParseRelayer reads the configuration from args, files and the environment. When --conf.dump
// is set the active configuration is written to dumpOut with secrets blanked.
func ParseRelayer(args []string, dumpOut io.Writer) (*RelayerConfig, error) {
	f := flag.NewFlagSet("", flag.ContinueOnError)

	RelayerConfigAddOptions(f)

	k, err := confighelpers.BeginCommonParse(f, args)
	if err != nil {
		return nil, err
	}

	var relayerConfig RelayerConfig
	if err := confighelpers.EndCommonParse(k, &relayerConfig); err != nil {
		return nil, err
	}

	// Don't print wallet passwords
	if relayerConfig.Conf.Dump {
		err = confighelpers.DumpConfig(k, dumpOut, map[string]interface{}{
			"l1.wallet.password":    "",
			"l1.wallet.private-key": "",
		})
		if err != nil {
			return nil, err
		}
	}

	return &relayerConfig, nil
}
