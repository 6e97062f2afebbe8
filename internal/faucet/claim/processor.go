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

// Package claim orchestrates single faucet claims: validation, rate-limit
// reservation, treasury pre-check, payout submission, and the decision to
// keep or roll back the reservation. It also provides the read-only status
// snapshot.
package claim

import (
	"context"
	"time"

	"github.com/kaspanet/kaspad/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"kaspafaucet/internal/faucet/ratelimit"
	"kaspafaucet/internal/faucet/treasury"
)

// Processor handles one claim end to end. It owns no shared state itself;
// the limiter and treasury client are injected at startup so tests can use
// stubs.
type Processor struct {
	limiter  *ratelimit.Limiter
	treasury treasury.Client
	amount   uint64
	prefix   util.Bech32Prefix
	log      *zap.SugaredLogger
}

// NewProcessor wires a processor. amount is the fixed payout per claim in
// sompi; prefix is the address network the faucet accepts.
func NewProcessor(limiter *ratelimit.Limiter, client treasury.Client, amount uint64,
	prefix util.Bech32Prefix, log *zap.SugaredLogger) *Processor {
	return &Processor{
		limiter:  limiter,
		treasury: client,
		amount:   amount,
		prefix:   prefix,
		log:      log,
	}
}

// Process runs a single claim for the given requester identity and
// destination address.
//
// Decision points, in order:
//  1. address validation — failure returns ErrInvalidAddress with no side
//     effects;
//  2. rate-limit check-and-reserve — denial returns RateLimitedError;
//  3. treasury sufficiency pre-check (amount + estimated fee) — the
//     reservation is released on insufficiency or node failure, since the
//     requester was not served;
//  4. payout submission — the reservation is released on failure and kept
//     on success.
//
// A failed submission is reported, never retried here: a timed out
// submission may still have landed, and a duplicate payout is worse than
// asking the requester to come back.
func (p *Processor) Process(ctx context.Context, identity, address string) (*Receipt, error) {
	if _, err := treasury.ParseAddress(address, p.prefix); err != nil {
		p.log.Debugw("rejecting claim with invalid address", "identity", identity, "err", err)
		return nil, errors.Wrap(ErrInvalidAddress, err.Error())
	}

	reservation, retryAfter := p.limiter.CheckAndReserve(identity)
	if reservation == nil {
		return nil, &RateLimitedError{RetryAfter: retryAfter}
	}

	if err := p.ensureFunds(ctx); err != nil {
		p.limiter.Release(reservation)
		return nil, err
	}

	txID, err := p.treasury.Submit(ctx, address, p.amount)
	if err != nil {
		p.limiter.Release(reservation)
		p.log.Warnw("payout failed", "identity", identity, "address", address, "err", err)
		return nil, err
	}

	p.log.Infow("claim paid", "identity", identity, "address", address,
		"amount", p.amount, "tx", txID)
	return &Receipt{
		TransactionID: txID,
		Amount:        p.amount,
		NextClaim:     p.limiter.Interval(),
	}, nil
}

// ensureFunds confirms the treasury can cover one payout plus fee before a
// transaction is built.
func (p *Processor) ensureFunds(ctx context.Context) error {
	balance, err := p.treasury.Balance(ctx)
	if err != nil {
		return err
	}
	fee, err := p.treasury.EstimateFee(ctx)
	if err != nil {
		return err
	}
	if balance < p.amount+fee {
		return errors.Wrapf(treasury.ErrInsufficientFunds,
			"balance %d below payout %d plus fee %d", balance, p.amount, fee)
	}
	return nil
}

// Amount returns the configured payout per claim in sompi.
func (p *Processor) Amount() uint64 {
	return p.amount
}

// Interval returns the configured cooldown between claims.
func (p *Processor) Interval() time.Duration {
	return p.limiter.Interval()
}
