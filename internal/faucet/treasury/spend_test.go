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
	"testing"

	"github.com/kaspanet/kaspad/domain/consensus/model/externalapi"
	"github.com/kaspanet/kaspad/domain/consensus/utils/constants"
	"github.com/kaspanet/kaspad/domain/consensus/utils/subnetworks"
	"github.com/kaspanet/kaspad/domain/consensus/utils/utxo"
	"github.com/kaspanet/kaspad/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeUTXO(amount uint64, index uint32) *spendableUTXO {
	return &spendableUTXO{
		outpoint: &externalapi.DomainOutpoint{Index: index},
		entry: utxo.NewUTXOEntry(amount,
			&externalapi.ScriptPublicKey{Script: []byte{0x20}, Version: 0}, false, 0),
	}
}

func TestSelectUTXOs_SingleInputCoversPayout(t *testing.T) {
	utxos := []*spendableUTXO{makeUTXO(1_000_000, 0)}

	selected, fee, change, err := selectUTXOs(utxos, 500_000)
	require.NoError(t, err)
	assert.Len(t, selected, 1)
	assert.Equal(t, uint64(2*feePerInput), fee)
	assert.Equal(t, uint64(1_000_000-500_000-2*feePerInput), change)
}

func TestSelectUTXOs_AccumulatesUntilCovered(t *testing.T) {
	utxos := []*spendableUTXO{
		makeUTXO(300_000, 0),
		makeUTXO(300_000, 1),
		makeUTXO(300_000, 2),
	}

	// 500_000 + 3*feePerInput needs two inputs.
	selected, fee, change, err := selectUTXOs(utxos, 500_000)
	require.NoError(t, err)
	assert.Len(t, selected, 2)
	assert.Equal(t, uint64(3*feePerInput), fee)
	assert.Equal(t, uint64(600_000-500_000-3*feePerInput), change)
}

func TestSelectUTXOs_InsufficientFunds(t *testing.T) {
	utxos := []*spendableUTXO{makeUTXO(100_000, 0)}

	_, _, _, err := selectUTXOs(utxos, 100_000)
	assert.ErrorIs(t, err, ErrInsufficientFunds, "amount equal to input cannot cover the fee")

	_, _, _, err = selectUTXOs(nil, 1)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestSelectUTXOs_DustChangeForfeited(t *testing.T) {
	// total - amount - fee = 500, below the dust threshold.
	utxos := []*spendableUTXO{makeUTXO(504_500, 0)}

	_, fee, change, err := selectUTXOs(utxos, 500_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(2*feePerInput), fee)
	assert.Zero(t, change, "sub-dust change is forfeited to the fee")
}

func TestSelectUTXOs_ExactCoverNoChange(t *testing.T) {
	utxos := []*spendableUTXO{makeUTXO(500_000+2*feePerInput, 0)}

	_, _, change, err := selectUTXOs(utxos, 500_000)
	require.NoError(t, err)
	assert.Zero(t, change)
}

func testingAddress(t *testing.T, fill byte, prefix util.Bech32Prefix) util.Address {
	t.Helper()
	publicKey := make([]byte, 32)
	for i := range publicKey {
		publicKey[i] = fill
	}
	address, err := util.NewAddressPublicKey(publicKey, prefix)
	require.NoError(t, err)
	return address
}

func TestBuildTransferTransaction_WithChange(t *testing.T) {
	destination := testingAddress(t, 0x01, util.Bech32PrefixKaspaTest)
	faucetAddress := testingAddress(t, 0x02, util.Bech32PrefixKaspaTest)
	selected := []*spendableUTXO{makeUTXO(1_000_000, 0), makeUTXO(1_000_000, 1)}

	tx, err := buildTransferTransaction(selected, destination, faucetAddress, 500_000, 200_000)
	require.NoError(t, err)

	assert.Equal(t, constants.MaxTransactionVersion, tx.Version)
	assert.Equal(t, subnetworks.SubnetworkIDNative, tx.SubnetworkID)
	require.Len(t, tx.Inputs, 2)
	require.Len(t, tx.Outputs, 2)
	assert.Equal(t, uint64(500_000), tx.Outputs[0].Value)
	assert.Equal(t, uint64(200_000), tx.Outputs[1].Value)
	assert.NotEqual(t, tx.Outputs[0].ScriptPublicKey, tx.Outputs[1].ScriptPublicKey,
		"payout and change pay different addresses")

	for i, input := range tx.Inputs {
		assert.Empty(t, input.SignatureScript, "input %d is unsigned until the wallet signs", i)
		assert.NotNil(t, input.UTXOEntry)
	}
}

func TestBuildTransferTransaction_NoChangeOutput(t *testing.T) {
	destination := testingAddress(t, 0x01, util.Bech32PrefixKaspaTest)
	faucetAddress := testingAddress(t, 0x02, util.Bech32PrefixKaspaTest)
	selected := []*spendableUTXO{makeUTXO(504_000, 0)}

	tx, err := buildTransferTransaction(selected, destination, faucetAddress, 500_000, 0)
	require.NoError(t, err)
	require.Len(t, tx.Outputs, 1)
	assert.Equal(t, uint64(500_000), tx.Outputs[0].Value)
}
