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

package claim

import (
	"context"
	"time"

	"kaspafaucet/internal/faucet/ratelimit"
	"kaspafaucet/internal/faucet/treasury"
)

// Status is a point-in-time snapshot of the faucet for a particular caller.
type Status struct {
	// Active reports whether the faucet can currently serve a claim: the
	// treasury is reachable and holds at least one payout.
	Active bool
	// FaucetAddress is the treasury's funding address. The seeder scripts
	// read this field, so its presence is a stable contract.
	FaucetAddress string
	// Balance is the live treasury balance in sompi.
	Balance uint64
	// NextClaim is the caller's remaining cooldown; zero when eligible.
	NextClaim time.Duration
}

// StatusReporter assembles status snapshots. It is purely observational: the
// only external effect is a treasury balance read, and it never mutates
// limiter state.
type StatusReporter struct {
	limiter  *ratelimit.Limiter
	treasury treasury.Client
	amount   uint64
}

// NewStatusReporter wires a reporter over the same injected components as
// the processor.
func NewStatusReporter(limiter *ratelimit.Limiter, client treasury.Client, amount uint64) *StatusReporter {
	return &StatusReporter{limiter: limiter, treasury: client, amount: amount}
}

// Status returns the snapshot for the given requester identity. A treasury
// read failure is returned as-is for the API layer to map; no partial
// snapshot is produced.
func (r *StatusReporter) Status(ctx context.Context, identity string) (*Status, error) {
	balance, err := r.treasury.Balance(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		Active:        balance >= r.amount,
		FaucetAddress: r.treasury.Address(),
		Balance:       balance,
		NextClaim:     r.limiter.Peek(identity),
	}, nil
}
