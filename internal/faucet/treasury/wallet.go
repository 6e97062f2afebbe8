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
	"encoding/hex"

	secp256k1 "github.com/kaspanet/go-secp256k1"
	"github.com/kaspanet/kaspad/domain/consensus/model/externalapi"
	"github.com/kaspanet/kaspad/domain/consensus/utils/consensushashing"
	"github.com/kaspanet/kaspad/domain/consensus/utils/txscript"
	"github.com/kaspanet/kaspad/util"
	"github.com/pkg/errors"
)

// Wallet holds the faucet's schnorr signing key and the address derived from
// it. The key never leaves this struct.
type Wallet struct {
	keyPair *secp256k1.SchnorrKeyPair
	address util.Address
}

// NewWallet derives the faucet wallet from a 32-byte hex private key. The
// address uses the given bech32 prefix (kaspatest for the test networks).
// A malformed key is an unrecoverable startup failure.
func NewWallet(privateKeyHex string, prefix util.Bech32Prefix) (*Wallet, error) {
	keyBytes, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, errors.Wrap(err, "faucet private key is not valid hex")
	}
	if len(keyBytes) != 32 {
		return nil, errors.Errorf("faucet private key must be 32 bytes, got %d", len(keyBytes))
	}

	keyPair, err := secp256k1.DeserializeSchnorrPrivateKeyFromSlice(keyBytes)
	if err != nil {
		return nil, errors.Wrap(err, "deserializing faucet private key")
	}

	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		return nil, errors.Wrap(err, "deriving faucet public key")
	}
	serialized, err := publicKey.Serialize()
	if err != nil {
		return nil, errors.Wrap(err, "serializing faucet public key")
	}
	address, err := util.NewAddressPublicKey(serialized[:], prefix)
	if err != nil {
		return nil, errors.Wrap(err, "deriving faucet address")
	}

	return &Wallet{keyPair: keyPair, address: address}, nil
}

// Address returns the faucet's funding address.
func (w *Wallet) Address() util.Address {
	return w.address
}

// SignTransaction fills in the signature script of every input of tx. All
// inputs are expected to spend outputs owned by the wallet's key.
func (w *Wallet) SignTransaction(tx *externalapi.DomainTransaction) error {
	reusedValues := &consensushashing.SighashReusedValues{}
	for i := range tx.Inputs {
		signatureScript, err := txscript.SignatureScript(
			tx, i, consensushashing.SigHashAll, w.keyPair, reusedValues)
		if err != nil {
			return errors.Wrapf(err, "signing input %d", i)
		}
		tx.Inputs[i].SignatureScript = signatureScript
	}
	return nil
}

// ParseAddress decodes an encoded address and checks it belongs to the
// expected network prefix. It is the single address validation point for
// inbound claims.
func ParseAddress(encoded string, prefix util.Bech32Prefix) (util.Address, error) {
	address, err := util.DecodeAddress(encoded, prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding address %q", encoded)
	}
	return address, nil
}
