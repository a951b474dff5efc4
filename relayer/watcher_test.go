// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package relayer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/offchainlabs/l2-relayer/util/testhelpers"
	"github.com/offchainlabs/l2-relayer/xdomain"
)

func newTestWatcher(env *testEnv, startBlock uint64) *Watcher {
	config := DefaultWatcherConfig
	config.Enable = true
	config.StartBlock = startBlock
	config.PollInterval = time.Millisecond
	config.MaxBlockSpan = 4
	return NewWatcher(
		func() *WatcherConfig { return &config },
		func() *Config { return &env.config },
		env.relayer,
		NewDiscoverer(env.l2, env.l2),
		env.l2,
		env.chain.L2CrossDomainMessenger,
		testhelpers.RandomAddress(),
	)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			Fail(t, "timed out waiting for", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWatcherFollowsHead(t *testing.T) {
	env := newTestEnv(t, nil)
	env.l2.addTx(t, 3, testhelpers.RandomMessage(0))
	env.l2.addTx(t, 7, testhelpers.RandomMessage(1), testhelpers.RandomMessage(2))
	env.l2.addTx(t, 10)

	watcher := newTestWatcher(env, 1)
	watcher.Start(context.Background())
	defer watcher.StopAndWait()

	waitFor(t, "head to be relayed", func() bool { return watcher.NextBlock() == 11 })
	require.Equal(t, []uint64{0, 1, 2}, env.submitter.submittedNonces())

	env.l2.addTx(t, 12, testhelpers.RandomMessage(3))
	waitFor(t, "new block to be relayed", func() bool { return watcher.NextBlock() == 13 })
	require.Equal(t, []uint64{0, 1, 2, 3}, env.submitter.submittedNonces())
}

func TestWatcherRescansUnresolvedBlock(t *testing.T) {
	env := newTestEnv(t, nil)
	env.l2.addTx(t, 3, testhelpers.RandomMessage(0))
	env.l2.addTx(t, 7, testhelpers.RandomMessage(1))
	env.l2.addTx(t, 9)
	var healthy atomic.Bool
	env.submitter.respond = func(msg *xdomain.CrossDomainMessage, _ int) error {
		if msg.MessageNonce == 1 && !healthy.Load() {
			return errRevertBadProof
		}
		return nil
	}

	watcher := newTestWatcher(env, 0)
	watcher.Start(context.Background())
	defer watcher.StopAndWait()

	waitFor(t, "failing message to be retried", func() bool { return env.submitter.attemptsFor(1) >= 2 })
	require.Equal(t, uint64(7), watcher.NextBlock())

	healthy.Store(true)
	waitFor(t, "head to be relayed", func() bool { return watcher.NextBlock() == 10 })
	require.Equal(t, 1, env.submitter.attemptsFor(0))
}
