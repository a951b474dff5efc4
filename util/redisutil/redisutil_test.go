// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package redisutil

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRedisClientFromURL(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := RedisClientFromURL("")
	require.NoError(t, err)
	require.Nil(t, client)

	client, err = RedisClientFromURL(CreateTestRedis(ctx, t))
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Set(ctx, "k", "v", time.Minute).Err())
	val, err := client.Get(ctx, "k").Result()
	require.NoError(t, err)
	require.Equal(t, "v", val)
}

func TestFailoverOptionsFromURL(t *testing.T) {
	u, err := url.Parse("redis+sentinel://:secret@host1:26379,host2/mymaster/3?dial_timeout=3&read_timeout=500ms")
	require.NoError(t, err)
	opts, err := failoverOptionsFromURL(u)
	require.NoError(t, err)
	require.Equal(t, "mymaster", opts.MasterName)
	require.Equal(t, 3, opts.DB)
	require.Equal(t, []string{"host1:26379", "host2:6379"}, opts.SentinelAddrs)
	require.Equal(t, "secret", opts.SentinelPassword)
	require.Equal(t, 3*time.Second, opts.DialTimeout)
	require.Equal(t, 500*time.Millisecond, opts.ReadTimeout)

	u, err = url.Parse("redis+sentinel://host1/")
	require.NoError(t, err)
	_, err = failoverOptionsFromURL(u)
	require.Error(t, err)

	u, err = url.Parse("redis+sentinel://host1/m?bogus=1")
	require.NoError(t, err)
	_, err = failoverOptionsFromURL(u)
	require.Error(t, err)
}
