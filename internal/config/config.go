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

// Package config loads the faucet's startup configuration from a TOML file.
// The configuration is read exactly once at startup and is immutable for the
// lifetime of the process. When the file does not exist, a commented default
// template is written in its place so the operator can edit it and restart.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultPath is the config file the faucet looks for when no --config flag
// is given.
const DefaultPath = "faucet-config.toml"

// ErrCreatedDefault is returned by Load after writing a fresh config template.
// The caller is expected to exit non-zero so the operator can fill in the
// faucet private key before restarting.
var ErrCreatedDefault = errors.New("config file was missing; wrote a default template")

// Config holds every startup knob of the faucet process.
type Config struct {
	// KaspadURL is the gRPC endpoint of the kaspad node, host:port. A
	// leading grpc://, http:// or https:// scheme is tolerated and stripped.
	KaspadURL string `mapstructure:"kaspad_url"`

	// Port is the HTTP listen port of the faucet API.
	Port uint16 `mapstructure:"port"`

	// FaucetPrivateKey is the 32-byte hex schnorr private key controlling
	// the treasury. It is handed to the treasury wallet only and never read
	// anywhere else.
	FaucetPrivateKey string `mapstructure:"faucet_private_key"`

	// AmountPerClaim is the payout per eligible claim, in sompi.
	AmountPerClaim uint64 `mapstructure:"amount_per_claim"`

	// ClaimIntervalSeconds is the per-identity cooldown between payouts.
	ClaimIntervalSeconds uint64 `mapstructure:"claim_interval_seconds"`

	// NodeTimeoutSeconds bounds every RPC to the kaspad node.
	NodeTimeoutSeconds uint64 `mapstructure:"node_timeout_seconds"`

	// BehindProxy selects proxy-aware requester identity extraction
	// (X-Forwarded-For / X-Real-IP) instead of the socket peer address.
	BehindProxy bool `mapstructure:"behind_proxy"`

	// RateLimitBackend selects the claim-record store: "memory" (default)
	// or "redis". The redis backend trades the restart-amnesia property for
	// shared state; the limiter contract is identical either way.
	RateLimitBackend string `mapstructure:"rate_limit_backend"`

	// RedisAddr is the host:port of the redis server, used only when
	// RateLimitBackend is "redis".
	RedisAddr string `mapstructure:"redis_addr"`

	// StaticDir, when non-empty, is served under /static in addition to the
	// embedded index page.
	StaticDir string `mapstructure:"static_dir"`

	// BalancePollSeconds is the interval of the background treasury balance
	// watcher feeding the metrics gauge. 0 disables the watcher.
	BalancePollSeconds uint64 `mapstructure:"balance_poll_seconds"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// defaultTemplate is written on first run. Amounts mirror the faucet's
// canonical defaults: 100000000 sompi per claim, one hour cooldown.
const defaultTemplate = `# kaspafaucet configuration
# Fill in faucet_private_key (64 hex chars) before starting the faucet.

kaspad_url = "127.0.0.1:16210"
port = 3010
faucet_private_key = ""
amount_per_claim = 100000000
claim_interval_seconds = 3600

# Operational knobs; the values below are the defaults.
node_timeout_seconds = 10
behind_proxy = false
rate_limit_backend = "memory"
redis_addr = ""
static_dir = ""
balance_poll_seconds = 60
log_level = "info"
`

// Load reads and validates the config file at path. A missing file triggers
// template generation and ErrCreatedDefault; every other failure is a hard
// startup error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if writeErr := os.WriteFile(path, []byte(defaultTemplate), 0o600); writeErr != nil {
			return nil, errors.Wrapf(writeErr, "writing default config to %s", path)
		}
		return nil, errors.Wrapf(ErrCreatedDefault, "created %s, please edit and restart", path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetDefault("node_timeout_seconds", 10)
	v.SetDefault("rate_limit_backend", "memory")
	v.SetDefault("balance_poll_seconds", 60)
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.KaspadURL == "" {
		return errors.New("kaspad_url must be set")
	}
	if c.Port == 0 {
		return errors.New("port must be set")
	}
	if c.FaucetPrivateKey == "" {
		return errors.New("faucet_private_key must be set")
	}
	if c.AmountPerClaim == 0 {
		return errors.New("amount_per_claim must be positive")
	}
	if c.ClaimIntervalSeconds == 0 {
		return errors.New("claim_interval_seconds must be positive")
	}
	if c.RateLimitBackend == "redis" && c.RedisAddr == "" {
		return errors.New("redis_addr must be set when rate_limit_backend is redis")
	}
	return nil
}

// ClaimInterval returns the cooldown as a duration.
func (c *Config) ClaimInterval() time.Duration {
	return time.Duration(c.ClaimIntervalSeconds) * time.Second
}

// NodeTimeout returns the per-RPC node deadline as a duration.
func (c *Config) NodeTimeout() time.Duration {
	return time.Duration(c.NodeTimeoutSeconds) * time.Second
}

// BalancePollInterval returns the watcher interval; zero disables polling.
func (c *Config) BalancePollInterval() time.Duration {
	return time.Duration(c.BalancePollSeconds) * time.Second
}
