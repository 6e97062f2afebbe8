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

package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"kaspafaucet/internal/faucet/treasury"
)

// BalanceWatcher periodically polls the treasury balance and publishes it to
// the metrics gauge. It feeds observability only; API responses always fetch
// the balance live and never read the watcher's value.
type BalanceWatcher struct {
	treasury treasury.Client
	interval time.Duration
	log      *zap.SugaredLogger
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  uint32
}

// NewBalanceWatcher builds a watcher polling every interval. An interval of
// zero disables the watcher; Start and Stop are then no-ops.
func NewBalanceWatcher(client treasury.Client, interval time.Duration, log *zap.SugaredLogger) *BalanceWatcher {
	return &BalanceWatcher{
		treasury: client,
		interval: interval,
		log:      log,
		stopChan: make(chan struct{}),
	}
}

// Start launches the polling goroutine.
func (w *BalanceWatcher) Start() {
	if w.interval <= 0 {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop()
	}()
}

// Stop halts the watcher and waits for the poll goroutine to exit. Safe to
// call more than once.
func (w *BalanceWatcher) Stop() {
	if w.interval <= 0 {
		return
	}
	if !atomic.CompareAndSwapUint32(&w.stopped, 0, 1) {
		return
	}
	close(w.stopChan)
	w.wg.Wait()
}

func (w *BalanceWatcher) pollLoop() {
	// Prime the gauge immediately instead of waiting a full interval.
	w.pollOnce()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.pollOnce()
		case <-w.stopChan:
			return
		}
	}
}

func (w *BalanceWatcher) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	balance, err := w.treasury.Balance(ctx)
	if err != nil {
		RecordBalancePollError()
		w.log.Warnw("balance poll failed", "err", err)
		return
	}
	SetBalance(balance)
}
