// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Command relayer proves L2 to L1 messages against the L2 state and relays them to the L1
// cross domain messenger, either for a single L2 transaction or by following the L2 head.
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"github.com/offchainlabs/l2-relayer/cmd/genericconf"
	"github.com/offchainlabs/l2-relayer/cmd/util"
	"github.com/offchainlabs/l2-relayer/cmd/util/confighelpers"
	"github.com/offchainlabs/l2-relayer/l2context"
	"github.com/offchainlabs/l2-relayer/relayer"
	"github.com/offchainlabs/l2-relayer/util/colors"
	"github.com/offchainlabs/l2-relayer/util/redislock"
	"github.com/offchainlabs/l2-relayer/util/redisutil"
	"github.com/offchainlabs/l2-relayer/util/stateproof"
)

func printSampleUsage(progname string) {
	fmt.Printf("\n")
	fmt.Printf("Sample usage:                  %s --help \n", progname)
	fmt.Printf("Relay one transaction:         %s --l1.url <url> --l2.url <url> --relay.l1-messenger <address> --l1.wallet.private-key <key> --relay.tx-hash <hash>\n", progname)
	fmt.Printf("Relay continuously:            %s --l1.url <url> --l2.url <url> --relay.l1-messenger <address> --l1.wallet.private-key <key> --watch.enable\n", progname)
}

func main() {
	os.Exit(mainImpl())
}

func mainImpl() int {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	config, err := ParseRelayer(os.Args[1:], os.Stdout)
	if err != nil {
		confighelpers.PrintErrorAndExit(err, printSampleUsage)
	}
	if config.Conf.Dump {
		return 0
	}
	if err := config.Validate(); err != nil {
		confighelpers.PrintErrorAndExit(err, printSampleUsage)
	}

	if err := genericconf.InitLog(config.LogType, config.LogLevel, &config.FileLogging, genericconf.DefaultPathResolver("")); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		return 1
	}
	if err := util.StartMetrics(config.Metrics, &config.MetricsServer); err != nil {
		log.Error("error starting metrics", "err", err)
		return 1
	}

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigint
		log.Info("shutting down because of sigint")
		cancelFunc()
	}()

	if err := startup(ctx, config); err != nil {
		log.Error("relayer stopped", "err", err)
		return 1
	}
	return 0
}

type components struct {
	relayer    *relayer.Relayer
	discoverer *relayer.Discoverer
	l2Head     relayer.HeadReader
}

func buildComponents(ctx context.Context, config *RelayerConfig, l1Rpc, l2Rpc *rpc.Client) (*components, error) {
	chain, err := config.Chain.ChainConfig()
	if err != nil {
		return nil, err
	}
	l1Client := ethclient.NewClient(l1Rpc)
	l1ChainId, err := l1Client.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error getting L1 chain id")
	}
	if config.L1.ChainID != 0 && l1ChainId.Uint64() != config.L1.ChainID {
		return nil, fmt.Errorf("L1 node reports chain id %v, expected %v", l1ChainId, config.L1.ChainID)
	}
	txOpts, err := genericconf.OpenWallet("l1", &config.L1.Wallet, new(big.Int).Set(l1ChainId))
	if err != nil {
		return nil, err
	}

	relayFetcher := func() *relayer.Config { return &config.Relay }
	l2Client := ethclient.NewClient(l2Rpc)
	l2Reader := l2context.NewClient(l2Rpc)
	discoverer := relayer.NewDiscoverer(l2Reader, l2Client)
	prover := stateproof.NewProver(gethclient.New(l2Rpc))
	assembler := relayer.NewAssembler(relayFetcher, chain, l2Reader, discoverer, prover)
	submitter := relayer.NewL1Messenger(l1Client, relayFetcher)

	res := &components{discoverer: discoverer, l2Head: l2Client}
	var signerLock relayer.SignerLock
	if config.SignerLock.RedisUrl != "" {
		redisClient, err := redisutil.RedisClientFromURL(config.SignerLock.RedisUrl)
		if err != nil {
			return nil, err
		}
		lock, err := redislock.NewSimple(redisClient, func() *redislock.Config { return &config.SignerLock.Lock })
		if err != nil {
			return nil, err
		}
		signerLock = lock
	}
	res.relayer, err = relayer.NewRelayer(relayFetcher, chain, l2Reader, assembler, submitter, txOpts, signerLock)
	if err != nil {
		return nil, err
	}
	res.relayer.OnSubmitted = func(result *relayer.RelayResult, tx *types.Transaction) {
		log.Info("submitted relay transaction", "nonce", result.Message.MessageNonce, "l1Tx", tx.Hash(), "attempt", result.Attempts)
	}
	return res, nil
}

func startup(ctx context.Context, config *RelayerConfig) error {
	l1Rpc, err := rpc.DialContext(ctx, config.L1.URL)
	if err != nil {
		return errors.Wrap(err, "error connecting to L1")
	}
	defer l1Rpc.Close()
	l2Rpc, err := rpc.DialContext(ctx, config.L2.URL)
	if err != nil {
		return errors.Wrap(err, "error connecting to L2")
	}
	defer l2Rpc.Close()

	comps, err := buildComponents(ctx, config, l1Rpc, l2Rpc)
	if err != nil {
		return err
	}
	l1Messenger := common.HexToAddress(config.Relay.L1Messenger)

	if !config.Watch.Enable {
		txHash, err := config.Relay.ParsedTxHash()
		if err != nil {
			return err
		}
		results, err := comps.relayer.Relay(ctx, txHash, l1Messenger, config.Relay.MaxRetries, config.Relay.Confirmations)
		if err != nil {
			return err
		}
		return reportResults(txHash, results)
	}

	chain, err := config.Chain.ChainConfig()
	if err != nil {
		return err
	}
	watcher := relayer.NewWatcher(
		func() *relayer.WatcherConfig { return &config.Watch },
		func() *relayer.Config { return &config.Relay },
		comps.relayer, comps.discoverer, comps.l2Head, chain.L2CrossDomainMessenger, l1Messenger,
	)
	watcher.Start(ctx)
	log.Info("watching L2 for messages", "startBlock", config.Watch.StartBlock, "l1Messenger", l1Messenger)
	<-ctx.Done()
	watcher.StopAndWait()
	log.Info("relay watcher stopped", "nextBlock", watcher.NextBlock())
	return nil
}

func reportResults(txHash common.Hash, results []*relayer.RelayResult) error {
	if len(results) == 0 {
		fmt.Printf("%sno messages in %v%s\n", colors.Yellow, txHash, colors.Clear)
		return nil
	}
	unresolved := 0
	for _, result := range results {
		color := colors.Mint
		if !result.Outcome.Resolved() {
			color = colors.Red
			unresolved++
		}
		fmt.Printf("%snonce %v -> %v: %v (attempts %v, l1 tx %v)%s\n", color, result.Message.MessageNonce, result.Message.Target, result.Outcome, result.Attempts, result.L1TxHash, colors.Clear)
		for _, err := range result.Errors {
			fmt.Printf("    %v\n", err)
		}
	}
	if unresolved > 0 {
		return fmt.Errorf("%v of %v messages of %v not relayed", unresolved, len(results), txHash)
	}
	return nil
}
