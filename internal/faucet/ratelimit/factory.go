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
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// StoreOptions carries the knobs needed to build a non-default backend.
type StoreOptions struct {
	// RedisAddr is required for the "redis" backend.
	RedisAddr string
	// ClaimInterval sizes the redis key TTL.
	ClaimInterval time.Duration
	// Log receives backend warnings. Required for "redis".
	Log *zap.SugaredLogger
}

// BuildStore constructs a ClaimStore from a string selector. Supported
// backends:
//   - "" or "memory": in-process map, discarded on restart (the default)
//   - "redis": shared redis-backed records, see RedisStore for semantics
func BuildStore(backend string, opts StoreOptions) (ClaimStore, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		if opts.RedisAddr == "" {
			return nil, errors.New("redis backend requires a redis address")
		}
		ttl := 2 * opts.ClaimInterval
		if ttl <= 0 {
			ttl = 2 * time.Hour
		}
		return NewRedisStore(opts.RedisAddr, ttl, opts.Log), nil
	default:
		return nil, errors.Errorf("unknown rate limit backend: %s", backend)
	}
}
