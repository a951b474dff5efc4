// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package redislock provides a lease in redis that keeps two relayer instances from using the
// same L1 signer at once.
package redislock

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/go-redis/redis/v8"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/l2-relayer/util/stopwaiter"
)

type Config struct {
	MyId            string        `koanf:"my-id"`
	LockoutDuration time.Duration `koanf:"lockout-duration"`
	RefreshDuration time.Duration `koanf:"refresh-duration"`
	Key             string        `koanf:"key"`
}

type ConfigFetcher func() *Config

var DefaultConfig = Config{
	LockoutDuration: time.Minute,
	RefreshDuration: time.Second * 10,
	Key:             "relayer.signer-lock",
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".my-id", DefaultConfig.MyId, "this instance's id prefix when acquiring the lock (optional)")
	f.Duration(prefix+".lockout-duration", DefaultConfig.LockoutDuration, "how long the lock is held without a refresh")
	f.Duration(prefix+".refresh-duration", DefaultConfig.RefreshDuration, "how long between consecutive calls to redis while the lock is held")
	f.String(prefix+".key", DefaultConfig.Key, "redis key for the lock")
}

// Simple is a single-key lease. A nil redis client means the lock is always held.
type Simple struct {
	client      redis.UniversalClient
	config      ConfigFetcher
	lockedUntil int64
	mutex       sync.Mutex
	myId        string
}

func NewSimple(client redis.UniversalClient, config ConfigFetcher) (*Simple, error) {
	randBig, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, err
	}
	return &Simple{
		// unique even if the configured id is not
		myId:   config().MyId + "-" + strconv.FormatInt(randBig.Int64(), 16),
		client: client,
		config: config,
	}, nil
}

// attemptLock takes the lease when it is free or ours. With refreshOnly it only extends a lease
// this instance still holds.
func (l *Simple) attemptLock(ctx context.Context, refreshOnly bool) (bool, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	config := l.config()
	timeAtStart := time.Now()
	gotLock := false

	err := l.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, config.Key).Result()
		if errors.Is(err, redis.Nil) {
			current = ""
			err = nil
		}
		if err != nil {
			return err
		}
		if current != l.myId && (current != "" || refreshOnly) {
			return nil
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, config.Key, l.myId, config.LockoutDuration)
		pipe.PExpireAt(ctx, config.Key, timeAtStart.Add(config.LockoutDuration))
		err = execPipe(ctx, pipe)
		if errors.Is(err, redis.TxFailedErr) {
			return nil
		}
		if err != nil {
			return err
		}
		gotLock = true
		return nil
	}, config.Key)

	if !gotLock || err != nil {
		atomicTimeWrite(&l.lockedUntil, time.Time{})
		return false, err
	}
	atomicTimeWrite(&l.lockedUntil, timeAtStart.Add(config.RefreshDuration))
	return true, nil
}

// AttemptLock acquires or refreshes the lease. Between refreshes it answers from memory.
func (l *Simple) AttemptLock(ctx context.Context) bool {
	if l.Locked() {
		return true
	}
	res, err := l.attemptLock(ctx, false)
	if err != nil {
		log.Error("attemptLock returned error", "key", l.config().Key, "err", err)
		return false
	}
	return res
}

// KeepAlive refreshes a held lease every RefreshDuration until the returned stop is called.
// A lease that expired or changed hands is not taken back.
func (l *Simple) KeepAlive(ctx context.Context) (stop func()) {
	if l.client == nil {
		return func() {}
	}
	refresher := &stopwaiter.StopWaiter{}
	refresher.Start(ctx, l)
	refresher.CallIteratively(func(ctx context.Context) time.Duration {
		if !l.held() {
			return l.config().RefreshDuration
		}
		gotLock, err := l.attemptLock(ctx, true)
		if err != nil && ctx.Err() == nil {
			log.Warn("error refreshing lock", "key", l.config().Key, "err", err)
		} else if !gotLock && err == nil {
			log.Error("lost lock while holding it", "key", l.config().Key)
		}
		return l.config().RefreshDuration
	})
	return refresher.StopAndWait
}

func (l *Simple) Locked() bool {
	if l.client == nil {
		return true
	}
	return time.Now().Before(atomicTimeRead(&l.lockedUntil))
}

// Release drops the lease if this instance holds it.
func (l *Simple) Release(ctx context.Context) {
	if l.client == nil {
		return
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()
	atomicTimeWrite(&l.lockedUntil, time.Time{})

	config := l.config()
	err := l.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, config.Key).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if current != l.myId {
			return nil
		}
		pipe := tx.TxPipeline()
		pipe.Del(ctx, config.Key)
		err = execPipe(ctx, pipe)
		if errors.Is(err, redis.TxFailedErr) {
			return nil
		}
		return err
	}, config.Key)
	if err != nil {
		log.Error("release returned error", "key", config.Key, "err", err)
	}
}

func execPipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmders, err := pipe.Exec(ctx)
	if err != nil {
		return err
	}
	for _, cmder := range cmders {
		if err := cmder.Err(); err != nil {
			return err
		}
	}
	return nil
}

// held reports whether the last attempt got the lease, regardless of its refresh time.
func (l *Simple) held() bool {
	return atomic.LoadInt64(&l.lockedUntil) > 0
}

// Two consecutive reads may observe decreasing values. That does not matter here.
func atomicTimeRead(addr *int64) time.Time {
	return time.UnixMilli(atomic.LoadInt64(addr))
}

func atomicTimeWrite(addr *int64, t time.Time) {
	atomic.StoreInt64(addr, t.UnixMilli())
}
