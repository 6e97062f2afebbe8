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
	"github.com/kaspanet/kaspad/domain/consensus/model/externalapi"
	"github.com/kaspanet/kaspad/domain/consensus/utils/constants"
	"github.com/kaspanet/kaspad/domain/consensus/utils/subnetworks"
	"github.com/kaspanet/kaspad/domain/consensus/utils/txscript"
	"github.com/kaspanet/kaspad/util"
	"github.com/pkg/errors"
)

const (
	// feePerInput is the flat fee contribution per transaction input, in
	// sompi. The fee model is (inputs + 1) * feePerInput, the +1 covering
	// the outputs.
	feePerInput = 2000

	// dustThreshold is the smallest change output worth creating. Change
	// below it is forfeited to the fee instead.
	dustThreshold = 1000
)

// spendableUTXO pairs an outpoint with its UTXO entry, ready to be wired
// into a transaction input.
type spendableUTXO struct {
	outpoint *externalapi.DomainOutpoint
	entry    externalapi.UTXOEntry
}

// selectUTXOs greedily accumulates UTXOs until they cover amount plus the
// fee implied by the selection size. It returns the selection, the final
// fee, and the change to return to the treasury (already zeroed when below
// the dust threshold).
func selectUTXOs(utxos []*spendableUTXO, amount uint64) (selected []*spendableUTXO, fee, change uint64, err error) {
	var totalIn uint64
	for _, u := range utxos {
		selected = append(selected, u)
		totalIn += u.entry.Amount()

		fee = uint64(len(selected)+1) * feePerInput
		if totalIn >= amount+fee {
			break
		}
	}

	fee = uint64(len(selected)+1) * feePerInput
	if totalIn < amount+fee {
		return nil, 0, 0, errors.Wrapf(ErrInsufficientFunds,
			"have %d sompi, need %d", totalIn, amount+fee)
	}

	change = totalIn - amount - fee
	if change > 0 && change < dustThreshold {
		change = 0
	}
	return selected, fee, change, nil
}

// buildTransferTransaction assembles an unsigned payout transaction spending
// the selected UTXOs: one output paying amount to the destination and, when
// above dust, a change output back to the faucet address.
func buildTransferTransaction(selected []*spendableUTXO, destination, faucetAddress util.Address,
	amount, change uint64) (*externalapi.DomainTransaction, error) {

	inputs := make([]*externalapi.DomainTransactionInput, len(selected))
	for i, u := range selected {
		inputs[i] = &externalapi.DomainTransactionInput{
			PreviousOutpoint: *u.outpoint,
			Sequence:         1,
			SigOpCount:       1,
			UTXOEntry:        u.entry,
		}
	}

	destinationScript, err := txscript.PayToAddrScript(destination)
	if err != nil {
		return nil, errors.Wrap(err, "building destination script")
	}
	outputs := []*externalapi.DomainTransactionOutput{
		{Value: amount, ScriptPublicKey: destinationScript},
	}
	if change > 0 {
		changeScript, err := txscript.PayToAddrScript(faucetAddress)
		if err != nil {
			return nil, errors.Wrap(err, "building change script")
		}
		outputs = append(outputs, &externalapi.DomainTransactionOutput{
			Value: change, ScriptPublicKey: changeScript,
		})
	}

	return &externalapi.DomainTransaction{
		Version:      constants.MaxTransactionVersion,
		Inputs:       inputs,
		Outputs:      outputs,
		SubnetworkID: subnetworks.SubnetworkIDNative,
	}, nil
}
