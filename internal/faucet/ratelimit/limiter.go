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

// Package ratelimit decides per-requester claim eligibility. It tracks one
// last-claim timestamp per identity and enforces a fixed cooldown between
// successful claims.
//
// The check-and-reserve step is atomic: eligibility evaluation and the write
// of the new timestamp happen under one mutex, so two concurrent requests
// from the same identity can never both observe "eligible". The mutex guards
// only the in-memory (or store) update and is never held across network I/O.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces the claim cooldown over a ClaimStore.
type Limiter struct {
	mu       sync.Mutex
	store    ClaimStore
	interval time.Duration
	now      func() time.Time
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock overrides the limiter's time source. Intended for tests that
// advance a simulated clock.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter returns a limiter with the given cooldown interval over store.
func NewLimiter(store ClaimStore, interval time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		store:    store,
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Reservation is the token returned by an eligible CheckAndReserve. It
// captures the overwritten state so a failed payout can be compensated
// without clobbering a newer claim.
type Reservation struct {
	identity string
	at       time.Time
	prev     time.Time
	hadPrev  bool
}

// CheckAndReserve atomically evaluates eligibility for identity and, when
// eligible, stamps the current time as its last claim. The stamp is written
// optimistically before the payout is attempted; callers must Release the
// reservation if the payout subsequently fails so the requester is not
// penalized for a claim that never paid out.
//
// On denial it returns a nil reservation and the remaining cooldown.
func (l *Limiter) CheckAndReserve(identity string) (*Reservation, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	last, ok := l.store.Last(identity)
	if ok {
		if elapsed := now.Sub(last); elapsed < l.interval {
			return nil, l.interval - elapsed
		}
	}

	l.store.Put(identity, now)
	return &Reservation{identity: identity, at: now, prev: last, hadPrev: ok}, 0
}

// Release undoes a reservation after a failed payout. The compensating unset
// only applies while the reservation is still the current record: if another
// claim overwrote it in the meantime, the newer timestamp wins and the
// release is a no-op. This keeps the observed last-claim time monotonically
// non-decreasing.
func (l *Limiter) Release(r *Reservation) {
	if r == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.store.Last(r.identity)
	if !ok || !current.Equal(r.at) {
		return
	}
	if r.hadPrev {
		l.store.Put(r.identity, r.prev)
	} else {
		l.store.Delete(r.identity)
	}
}

// Peek reports how long identity must still wait before its next claim.
// Zero means eligible now. Peek never mutates state.
func (l *Limiter) Peek(identity string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.store.Last(identity)
	if !ok {
		return 0
	}
	remaining := l.interval - l.now().Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Interval returns the configured cooldown.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
