// Copyright 2025 The kaspafaucet Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisOpTimeout bounds each store operation so a slow redis cannot stall
// the limiter mutex indefinitely.
const redisOpTimeout = 2 * time.Second

// RedisStore is an opt-in ClaimStore backend over github.com/redis/go-redis/v9.
// It stores one key per identity holding the last-claim time in unix
// nanoseconds, expiring after twice the cooldown so idle identities do not
// accumulate forever.
//
// Failure policy: a read error is treated as "no record" (fail-open, the
// faucet keeps dispensing) and write errors are logged and dropped. The
// limiter's single-process mutex still provides the check-and-reserve
// atomicity; this backend is for surviving restarts or sharing state between
// a faucet and its operator tooling, not for multi-instance serving.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.SugaredLogger
}

// NewRedisStore connects a store to the redis server at addr. ttl should be
// comfortably larger than the claim interval.
func NewRedisStore(addr string, ttl time.Duration, log *zap.SugaredLogger) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		log:    log,
	}
}

func claimKey(identity string) string {
	return fmt.Sprintf("faucet:claim:%s", identity)
}

// Last implements ClaimStore.
func (s *RedisStore) Last(identity string) (time.Time, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, claimKey(identity)).Result()
	if err == redis.Nil {
		return time.Time{}, false
	}
	if err != nil {
		s.log.Warnw("redis read failed, treating as no record", "identity", identity, "err", err)
		return time.Time{}, false
	}
	nanos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		s.log.Warnw("corrupt claim record, ignoring", "identity", identity, "value", val)
		return time.Time{}, false
	}
	return time.Unix(0, nanos), true
}

// Put implements ClaimStore.
func (s *RedisStore) Put(identity string, at time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.client.Set(ctx, claimKey(identity), strconv.FormatInt(at.UnixNano(), 10), s.ttl).Err(); err != nil {
		s.log.Warnw("redis write failed", "identity", identity, "err", err)
	}
}

// Delete implements ClaimStore.
func (s *RedisStore) Delete(identity string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.client.Del(ctx, claimKey(identity)).Err(); err != nil {
		s.log.Warnw("redis delete failed", "identity", identity, "err", err)
	}
}

// Close releases the underlying redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
