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

// Package main is the faucet entry point. It loads the configuration, wires
// the treasury client, rate limiter, claim processor and HTTP server, and
// manages graceful shutdown. Only startup failures are fatal; once serving,
// no single bad request can take the process down.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kaspanet/kaspad/util"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"kaspafaucet/internal/config"
	"kaspafaucet/internal/faucet/api"
	"kaspafaucet/internal/faucet/claim"
	"kaspafaucet/internal/faucet/ratelimit"
	"kaspafaucet/internal/faucet/telemetry"
	"kaspafaucet/internal/faucet/treasury"
)

func main() {
	configPath := flag.StringP("config", "c", config.DefaultPath, "Path to the faucet config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "kaspafaucet: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// 1. Configuration. A missing file writes a template and exits so the
	// operator can fill in the private key.
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck // stderr sync failure at exit is uninteresting

	// 2. Treasury: wallet first (key custody), then the node client. A
	// malformed key or unreachable node is an unrecoverable startup failure.
	wallet, err := treasury.NewWallet(cfg.FaucetPrivateKey, util.Bech32PrefixKaspaTest)
	if err != nil {
		return err
	}
	node, err := treasury.NewNodeClient(cfg.KaspadURL, wallet, cfg.NodeTimeout(), log)
	if err != nil {
		return err
	}
	defer node.Close()

	probeCtx, cancelProbe := context.WithTimeout(context.Background(), cfg.NodeTimeout())
	version, err := node.ServerVersion(probeCtx)
	cancelProbe()
	if err != nil {
		return errors.Wrapf(err, "probing kaspad at %s", cfg.KaspadURL)
	}
	log.Infow("connected to kaspad",
		"url", cfg.KaspadURL, "version", version, "faucet_address", node.Address())

	// 3. Rate limiter over the configured claim store.
	store, err := ratelimit.BuildStore(cfg.RateLimitBackend, ratelimit.StoreOptions{
		RedisAddr:     cfg.RedisAddr,
		ClaimInterval: cfg.ClaimInterval(),
		Log:           log,
	})
	if err != nil {
		return err
	}
	limiter := ratelimit.NewLimiter(store, cfg.ClaimInterval())

	// 4. Domain services and the HTTP server.
	processor := claim.NewProcessor(limiter, node, cfg.AmountPerClaim, util.Bech32PrefixKaspaTest, log)
	reporter := claim.NewStatusReporter(limiter, node, cfg.AmountPerClaim)
	server := api.NewServer(processor, reporter, api.Options{
		BehindProxy: cfg.BehindProxy,
		StaticDir:   cfg.StaticDir,
	}, log)

	// 5. Background balance watcher for the metrics gauge.
	watcher := telemetry.NewBalanceWatcher(node, cfg.BalancePollInterval(), log)
	watcher.Start()

	// 6. Serve until a termination signal arrives.
	addr := fmt.Sprintf(":%d", cfg.Port)
	errChan := make(chan error, 1)
	go func() {
		log.Infow("faucet listening", "addr", addr)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		watcher.Stop()
		return errors.Wrap(err, "http server failed")
	case sig := <-stop:
		log.Infow("shutting down", "signal", sig.String())
	}

	// 7. Stop background work first, then drain the HTTP server. In-flight
	// claims finish their state updates even if the response cannot be
	// delivered.
	watcher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http server shutdown")
	}
	log.Infow("faucet stopped")
	return nil
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log_level %q", level)
		}
		cfg.Level = parsed
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}
	return logger.Sugar(), nil
}
