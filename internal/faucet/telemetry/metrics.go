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

// Package telemetry exposes the faucet's Prometheus metrics and runs the
// background treasury balance watcher. Metrics are process-global with a
// bounded label set (outcome names only, never identities or addresses).
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for claimsTotal. One per entry in the claim outcome
// taxonomy plus the transport-level bad request.
const (
	OutcomeSuccess           = "success"
	OutcomeInvalidAddress    = "invalid_address"
	OutcomeRateLimited       = "rate_limited"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeUnavailable       = "treasury_unavailable"
	OutcomeBadRequest        = "bad_request"
)

var (
	claimsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "faucet_claims_total",
		Help: "Processed claim requests by outcome",
	}, []string{"outcome"})

	claimDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "faucet_claim_duration_seconds",
		Help:    "End-to-end claim processing latency, including node calls",
		Buckets: prometheus.DefBuckets,
	})

	balanceSompi = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "faucet_balance_sompi",
		Help: "Treasury balance as last observed by the balance watcher",
	})

	balancePollErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "faucet_balance_poll_errors_total",
		Help: "Balance watcher polls that failed to reach the node",
	})
)

func init() {
	prometheus.MustRegister(claimsTotal, claimDuration, balanceSompi, balancePollErrors)
}

// RecordClaim counts one processed claim with the given outcome label and
// its processing latency.
func RecordClaim(outcome string, elapsed time.Duration) {
	claimsTotal.WithLabelValues(outcome).Inc()
	claimDuration.Observe(elapsed.Seconds())
}

// SetBalance updates the observed treasury balance gauge.
func SetBalance(sompi uint64) {
	balanceSompi.Set(float64(sompi))
}

// RecordBalancePollError counts a failed watcher poll.
func RecordBalancePollError() {
	balancePollErrors.Inc()
}
