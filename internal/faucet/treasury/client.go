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

// Package treasury owns the faucet's funded wallet and every interaction
// with the kaspad node. The signing key lives here and nowhere else.
package treasury

import (
	"context"

	"github.com/pkg/errors"
)

// Client abstracts the faucet's view of the treasury. The claim processor
// and status reporter depend on this interface only, so tests can substitute
// a stub with deterministic balances.
type Client interface {
	// Address returns the encoded faucet address funds are paid from.
	Address() string

	// Balance fetches the treasury's spendable balance in sompi, live from
	// the node. Results are never cached. Fails with ErrUnavailable when
	// the node cannot be reached within the deadline.
	Balance(ctx context.Context) (uint64, error)

	// EstimateFee returns a conservative fee bound in sompi for a single
	// payout transaction, used to pre-check sufficiency before submitting.
	EstimateFee(ctx context.Context) (uint64, error)

	// Submit builds, signs and submits a transfer of amount sompi to the
	// given encoded address and returns the transaction ID. Submissions
	// are strictly serialized: concurrent transfers from one treasury
	// address would race on unconfirmed UTXO state at the node.
	Submit(ctx context.Context, toAddress string, amount uint64) (string, error)
}

// Sentinel errors making up the treasury failure taxonomy. Callers classify
// with errors.Is.
var (
	// ErrUnavailable marks a connection failure or timeout talking to the
	// node. Transient; the requester may retry later. Never retried
	// internally, since a timed out submission may still have landed.
	ErrUnavailable = errors.New("treasury node unavailable")

	// ErrInsufficientFunds means the treasury balance cannot cover one
	// payout plus fee. An operational condition requiring a top-up.
	ErrInsufficientFunds = errors.New("treasury has insufficient funds")

	// ErrRejected means the node refused a submitted transaction as
	// invalid. Treated as a logic or configuration bug, never retried.
	ErrRejected = errors.New("transaction rejected by node")
)
