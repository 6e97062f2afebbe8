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

import "time"

// ClaimStore holds the last successful claim timestamp per requester
// identity. Implementations do not need to be safe for concurrent use on
// their own; the Limiter serializes every access under its mutex.
//
// The in-memory store is the default. Its whole content is discarded on
// process restart, which is a deliberate availability/simplicity tradeoff:
// after a restart every requester is immediately eligible again. A shared
// backend can be substituted without touching the claim processor.
type ClaimStore interface {
	// Last returns the recorded last-claim time for identity, if any.
	Last(identity string) (time.Time, bool)
	// Put records at as the last-claim time for identity.
	Put(identity string, at time.Time)
	// Delete removes the record for identity, if present.
	Delete(identity string)
}

// MemoryStore is the default in-process ClaimStore. Records are created on
// first eligible claim and overwritten on each subsequent one; they are only
// ever deleted by a compensating release of a first-time reservation.
type MemoryStore struct {
	claims map[string]time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{claims: make(map[string]time.Time)}
}

// Last implements ClaimStore.
func (s *MemoryStore) Last(identity string) (time.Time, bool) {
	at, ok := s.claims[identity]
	return at, ok
}

// Put implements ClaimStore.
func (s *MemoryStore) Put(identity string, at time.Time) {
	s.claims[identity] = at
}

// Delete implements ClaimStore.
func (s *MemoryStore) Delete(identity string) {
	delete(s.claims, identity)
}

// Len reports the number of tracked identities. Used by tests and telemetry.
func (s *MemoryStore) Len() int {
	return len(s.claims)
}
