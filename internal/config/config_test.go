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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "faucet-config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalConfig = `
kaspad_url = "127.0.0.1:16210"
port = 3010
faucet_private_key = "` + "0101010101010101010101010101010101010101010101010101010101010101" + `"
amount_per_claim = 100000000
claim_interval_seconds = 3600
`

func TestLoad_MissingFileWritesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faucet-config.toml")

	_, err := Load(path)
	require.ErrorIs(t, err, ErrCreatedDefault)

	written, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	content := string(written)
	assert.Contains(t, content, `faucet_private_key = ""`)
	assert.Contains(t, content, "amount_per_claim = 100000000")
	assert.Contains(t, content, "claim_interval_seconds = 3600")

	info, statErr := os.Stat(path)
	require.NoError(t, statErr)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "template holds a key slot, keep it private")
}

func TestLoad_TemplateIsNotLoadable(t *testing.T) {
	// The generated template has an empty private key, so a restart without
	// editing it must fail validation rather than start an unusable faucet.
	path := filepath.Join(t.TempDir(), "faucet-config.toml")
	_, err := Load(path)
	require.ErrorIs(t, err, ErrCreatedDefault)

	_, err = Load(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCreatedDefault)
	assert.Contains(t, err.Error(), "faucet_private_key")
}

func TestLoad_MinimalConfigAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:16210", cfg.KaspadURL)
	assert.Equal(t, uint16(3010), cfg.Port)
	assert.Equal(t, uint64(100000000), cfg.AmountPerClaim)
	assert.Equal(t, uint64(3600), cfg.ClaimIntervalSeconds)

	assert.Equal(t, uint64(10), cfg.NodeTimeoutSeconds)
	assert.Equal(t, "memory", cfg.RateLimitBackend)
	assert.Equal(t, uint64(60), cfg.BalancePollSeconds)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.BehindProxy)
	assert.Empty(t, cfg.StaticDir)
}

func TestLoad_FullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
node_timeout_seconds = 5
behind_proxy = true
rate_limit_backend = "redis"
redis_addr = "127.0.0.1:6379"
static_dir = "/srv/faucet/static"
balance_poll_seconds = 15
log_level = "debug"
`))
	require.NoError(t, err)

	assert.Equal(t, uint64(5), cfg.NodeTimeoutSeconds)
	assert.True(t, cfg.BehindProxy)
	assert.Equal(t, "redis", cfg.RateLimitBackend)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	assert.Equal(t, "/srv/faucet/static", cfg.StaticDir)
	assert.Equal(t, uint64(15), cfg.BalancePollSeconds)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "missing kaspad_url",
			mutate:  func(c string) string { return strings.Replace(c, `kaspad_url = "127.0.0.1:16210"`, `kaspad_url = ""`, 1) },
			wantErr: "kaspad_url",
		},
		{
			name:    "zero port",
			mutate:  func(c string) string { return strings.Replace(c, "port = 3010", "port = 0", 1) },
			wantErr: "port",
		},
		{
			name:    "zero amount",
			mutate:  func(c string) string { return strings.Replace(c, "amount_per_claim = 100000000", "amount_per_claim = 0", 1) },
			wantErr: "amount_per_claim",
		},
		{
			name:    "zero interval",
			mutate:  func(c string) string { return strings.Replace(c, "claim_interval_seconds = 3600", "claim_interval_seconds = 0", 1) },
			wantErr: "claim_interval_seconds",
		},
		{
			name:    "redis backend without address",
			mutate:  func(c string) string { return c + "\nrate_limit_backend = \"redis\"\n" },
			wantErr: "redis_addr",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.mutate(minimalConfig)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_MalformedTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "this is not toml ==="))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCreatedDefault)
}

func TestDurationHelpers(t *testing.T) {
	cfg := &Config{
		ClaimIntervalSeconds: 3600,
		NodeTimeoutSeconds:   10,
		BalancePollSeconds:   0,
	}

	assert.Equal(t, time.Hour, cfg.ClaimInterval())
	assert.Equal(t, 10*time.Second, cfg.NodeTimeout())
	assert.Zero(t, cfg.BalancePollInterval(), "zero disables the balance watcher")
}
