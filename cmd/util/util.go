// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package util

import (
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" // #nosec G108

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/exp"

	"github.com/offchainlabs/l2-relayer/cmd/genericconf"
)

var ErrPprofWithoutMetrics = errors.New("--metrics must be enabled in order to use pprof with the metrics server")

// StartMetrics collects process metrics and serves the registry when enabled.
func StartMetrics(enabled bool, config *genericconf.MetricsServerConfig) error {
	if !enabled {
		if config.Pprof {
			return ErrPprofWithoutMetrics
		}
		return nil
	}
	if !metrics.Enabled {
		return errors.New("metrics must be enabled via command line by adding --metrics, json config has no effect")
	}
	go metrics.CollectProcessMetrics(config.UpdateInterval)
	if config.Addr == "" {
		return nil
	}
	address := fmt.Sprintf("%v:%v", config.Addr, config.Port)
	if config.Pprof {
		startPprof(address)
	} else {
		exp.Setup(address)
	}
	return nil
}

func startPprof(address string) {
	exp.Exp(metrics.DefaultRegistry)
	log.Info("Starting metrics server with pprof", "addr", fmt.Sprintf("http://%s/debug/metrics", address))
	log.Info("Pprof endpoint", "addr", fmt.Sprintf("http://%s/debug/pprof", address))
	go func() {
		// #nosec G114
		if err := http.ListenAndServe(address, http.DefaultServeMux); err != nil {
			log.Error("Failure in running pprof server", "err", err)
		}
	}()
}
