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
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Receipt is the successful outcome of a processed claim.
type Receipt struct {
	// TransactionID identifies the submitted payout transaction.
	TransactionID string
	// Amount is the paid amount in sompi.
	Amount uint64
	// NextClaim is how long the requester must wait before claiming again.
	NextClaim time.Duration
}

// ErrInvalidAddress marks a claim whose destination address failed syntax or
// network-prefix validation. Such claims cause no side effects at all.
var ErrInvalidAddress = errors.New("invalid destination address")

// RateLimitedError denies a claim still inside its cooldown window.
type RateLimitedError struct {
	// RetryAfter is the remaining cooldown.
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter.Round(time.Second))
}

// RetryAfterSeconds returns the remaining cooldown rounded up to whole
// seconds, never below one, suitable for a Retry-After header.
func (e *RateLimitedError) RetryAfterSeconds() uint64 {
	secs := uint64((e.RetryAfter + time.Second - 1) / time.Second)
	if secs == 0 {
		secs = 1
	}
	return secs
}
