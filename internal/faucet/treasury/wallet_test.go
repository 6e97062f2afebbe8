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

package treasury

import (
	"strings"
	"testing"

	"github.com/kaspanet/kaspad/domain/consensus/model/externalapi"
	"github.com/kaspanet/kaspad/domain/consensus/utils/txscript"
	"github.com/kaspanet/kaspad/domain/consensus/utils/utxo"
	"github.com/kaspanet/kaspad/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payToWalletScript(w *Wallet) (*externalapi.ScriptPublicKey, error) {
	return txscript.PayToAddrScript(w.Address())
}

func makeWalletUTXO(script *externalapi.ScriptPublicKey, amount uint64, index uint32) *spendableUTXO {
	return &spendableUTXO{
		outpoint: &externalapi.DomainOutpoint{Index: index},
		entry:    utxo.NewUTXOEntry(amount, script, false, 0),
	}
}

// testPrivateKeyHex is an arbitrary but valid 32-byte scalar; never funded.
var testPrivateKeyHex = strings.Repeat("01", 32)

func TestNewWallet_DerivesTestnetAddress(t *testing.T) {
	wallet, err := NewWallet(testPrivateKeyHex, util.Bech32PrefixKaspaTest)
	require.NoError(t, err)

	encoded := wallet.Address().EncodeAddress()
	assert.True(t, strings.HasPrefix(encoded, "kaspatest:"), "got %s", encoded)

	// The derived address round-trips through validation.
	parsed, err := ParseAddress(encoded, util.Bech32PrefixKaspaTest)
	require.NoError(t, err)
	assert.Equal(t, encoded, parsed.EncodeAddress())
}

func TestNewWallet_IsDeterministic(t *testing.T) {
	first, err := NewWallet(testPrivateKeyHex, util.Bech32PrefixKaspaTest)
	require.NoError(t, err)
	second, err := NewWallet(testPrivateKeyHex, util.Bech32PrefixKaspaTest)
	require.NoError(t, err)

	assert.Equal(t, first.Address().EncodeAddress(), second.Address().EncodeAddress())
}

func TestNewWallet_RejectsBadKeys(t *testing.T) {
	for name, key := range map[string]string{
		"empty":        "",
		"not hex":      "zz" + strings.Repeat("01", 31),
		"too short":    strings.Repeat("01", 16),
		"too long":     strings.Repeat("01", 33),
		"odd length":   strings.Repeat("01", 31) + "0",
	} {
		_, err := NewWallet(key, util.Bech32PrefixKaspaTest)
		assert.Error(t, err, "case %s", name)
	}
}

func TestParseAddress_RejectsGarbage(t *testing.T) {
	for _, input := range []string{
		"",
		"hello",
		"kaspatest:",
		"kaspatest:qq!!invalid!!",
	} {
		_, err := ParseAddress(input, util.Bech32PrefixKaspaTest)
		assert.Error(t, err, "input %q", input)
	}
}

func TestParseAddress_RejectsWrongNetwork(t *testing.T) {
	mainnet, err := util.NewAddressPublicKey(make([]byte, 32), util.Bech32PrefixKaspa)
	require.NoError(t, err)

	_, err = ParseAddress(mainnet.EncodeAddress(), util.Bech32PrefixKaspaTest)
	assert.Error(t, err, "mainnet addresses must not pass testnet validation")
}

func TestSignTransaction_FillsEverySignatureScript(t *testing.T) {
	wallet, err := NewWallet(testPrivateKeyHex, util.Bech32PrefixKaspaTest)
	require.NoError(t, err)

	// Inputs must spend outputs locked to the wallet's own address for the
	// signature script generation to succeed.
	script, err := payToWalletScript(wallet)
	require.NoError(t, err)

	selected := []*spendableUTXO{
		makeWalletUTXO(script, 1_000_000, 0),
		makeWalletUTXO(script, 1_000_000, 1),
	}
	destination := testingAddress(t, 0x03, util.Bech32PrefixKaspaTest)
	tx, err := buildTransferTransaction(selected, destination, wallet.Address(), 500_000, 100_000)
	require.NoError(t, err)

	require.NoError(t, wallet.SignTransaction(tx))
	for i, input := range tx.Inputs {
		assert.NotEmpty(t, input.SignatureScript, "input %d", i)
	}
}
