// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package redisutil

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisClientFromURL creates a client for a redis:// or redis+sentinel:// URL. An empty URL
// yields a nil client.
func RedisClientFromURL(redisUrl string) (redis.UniversalClient, error) {
	if redisUrl == "" {
		return nil, nil
	}
	u, err := url.Parse(redisUrl)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "redis+sentinel" {
		opts, err := failoverOptionsFromURL(u)
		if err != nil {
			return nil, err
		}
		return redis.NewFailoverClient(opts), nil
	}
	opts, err := redis.ParseURL(redisUrl)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

// failoverOptionsFromURL parses
//
//	redis+sentinel://:<password>@<host1>:<port1>,<host2>:<port2>/<master_name>[/<db>]?dial_timeout=3s&max_retries=2
func failoverOptionsFromURL(u *url.URL) (*redis.FailoverOptions, error) {
	o := &redis.FailoverOptions{}
	if u.User != nil {
		if p, ok := u.User.Password(); ok {
			o.SentinelPassword = p
			o.Password = p
		}
	}
	for _, hostPort := range strings.Split(u.Host, ",") {
		host, port, err := net.SplitHostPort(hostPort)
		if err != nil {
			host, port = hostPort, ""
		}
		if host == "" {
			host = "localhost"
		}
		if port == "" {
			port = "6379"
		}
		o.SentinelAddrs = append(o.SentinelAddrs, net.JoinHostPort(host, port))
	}
	path := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	switch len(path) {
	case 0:
		return nil, fmt.Errorf("redis: master name is required")
	case 1:
		o.MasterName = path[0]
	case 2:
		o.MasterName = path[0]
		db, err := strconv.Atoi(path[1])
		if err != nil {
			return nil, fmt.Errorf("redis: invalid database number: %q", path[1])
		}
		o.DB = db
	default:
		return nil, fmt.Errorf("redis: invalid URL path: %s", u.Path)
	}

	q := u.Query()
	for name, values := range q {
		value := values[len(values)-1]
		var err error
		switch name {
		case "max_retries":
			o.MaxRetries, err = strconv.Atoi(value)
		case "pool_size":
			o.PoolSize, err = strconv.Atoi(value)
		case "dial_timeout":
			o.DialTimeout, err = parseDuration(value)
		case "read_timeout":
			o.ReadTimeout, err = parseDuration(value)
		case "write_timeout":
			o.WriteTimeout, err = parseDuration(value)
		default:
			return nil, fmt.Errorf("redis: unexpected option: %s", name)
		}
		if err != nil {
			return nil, fmt.Errorf("redis: invalid %s: %w", name, err)
		}
	}
	return o, nil
}

// parseDuration accepts plain seconds as well as Go durations.
func parseDuration(s string) (time.Duration, error) {
	if i, err := strconv.Atoi(s); err == nil {
		return time.Duration(i) * time.Second, nil
	}
	return time.ParseDuration(s)
}
