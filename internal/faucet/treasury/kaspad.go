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
	"context"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/kaspanet/kaspad/app/appmessage"
	"github.com/kaspanet/kaspad/domain/consensus/model/externalapi"
	"github.com/kaspanet/kaspad/domain/consensus/utils/consensushashing"
	"github.com/kaspanet/kaspad/domain/consensus/utils/transactionid"
	"github.com/kaspanet/kaspad/domain/consensus/utils/utxo"
	"github.com/kaspanet/kaspad/infrastructure/network/rpcclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// NodeClient is the production Client implementation speaking the kaspad
// gRPC API. Balance reads run concurrently; transfer submissions are
// serialized by submitMu because concurrent spends from one address race on
// unconfirmed UTXO state at the node.
type NodeClient struct {
	rpc      *rpcclient.RPCClient
	wallet   *Wallet
	log      *zap.SugaredLogger
	submitMu sync.Mutex
}

// NewNodeClient dials the kaspad node at kaspadURL and binds it to the given
// wallet. Every RPC is bounded by timeout; on expiry the call fails with
// ErrUnavailable instead of hanging the serving task.
func NewNodeClient(kaspadURL string, wallet *Wallet, timeout time.Duration, log *zap.SugaredLogger) (*NodeClient, error) {
	rpc, err := rpcclient.NewRPCClient(normalizeNodeAddress(kaspadURL))
	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "connecting to kaspad at %s: %s", kaspadURL, err)
	}
	rpc.SetTimeout(timeout)

	return &NodeClient{rpc: rpc, wallet: wallet, log: log}, nil
}

// normalizeNodeAddress strips URL schemes the operator may paste in; the
// kaspad client expects a bare host:port.
func normalizeNodeAddress(url string) string {
	for _, prefix := range []string{"grpc://", "http://", "https://"} {
		url = strings.TrimPrefix(url, prefix)
	}
	return url
}

// Address implements Client.
func (c *NodeClient) Address() string {
	return c.wallet.Address().EncodeAddress()
}

// ServerVersion probes the node once and returns its reported version. Used
// at startup to fail fast on an unreachable or wrong node.
func (c *NodeClient) ServerVersion(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(ErrUnavailable, err.Error())
	}
	info, err := c.rpc.GetInfo()
	if err != nil {
		return "", c.classify(err, ErrUnavailable)
	}
	return info.ServerVersion, nil
}

// Balance implements Client. It reflects the node's live view and is never
// cached between calls.
func (c *NodeClient) Balance(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Wrap(ErrUnavailable, err.Error())
	}
	response, err := c.rpc.GetBalanceByAddress(c.Address())
	if err != nil {
		return 0, c.classify(err, ErrUnavailable)
	}
	return response.Balance, nil
}

// EstimateFee implements Client. The bound assumes the common single-input
// payout; Submit recomputes the exact fee from its actual selection.
func (c *NodeClient) EstimateFee(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Wrap(ErrUnavailable, err.Error())
	}
	return 2 * feePerInput, nil
}

// Submit implements Client: fetch spendable UTXOs, select enough to cover
// amount plus fee, build and sign the transfer, and hand it to the node.
// Once dispatched, a transaction cannot be recalled; callers must not retry
// an ambiguous failure automatically.
func (c *NodeClient) Submit(ctx context.Context, toAddress string, amount uint64) (string, error) {
	destination, err := ParseAddress(toAddress, c.wallet.Address().Prefix())
	if err != nil {
		return "", errors.Wrap(ErrRejected, err.Error())
	}

	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(ErrUnavailable, err.Error())
	}

	utxosResponse, err := c.rpc.GetUTXOsByAddresses([]string{c.Address()})
	if err != nil {
		return "", c.classify(err, ErrUnavailable)
	}
	spendables, err := rpcUTXOsToSpendables(utxosResponse.Entries)
	if err != nil {
		return "", err
	}
	if len(spendables) == 0 {
		return "", errors.Wrapf(ErrInsufficientFunds, "no UTXOs; fund %s first", c.Address())
	}

	selected, fee, change, err := selectUTXOs(spendables, amount)
	if err != nil {
		return "", err
	}

	tx, err := buildTransferTransaction(selected, destination, c.wallet.Address(), amount, change)
	if err != nil {
		return "", errors.Wrap(ErrRejected, err.Error())
	}
	if err := c.wallet.SignTransaction(tx); err != nil {
		return "", errors.Wrap(ErrRejected, err.Error())
	}

	c.log.Infow("submitting payout",
		"to", toAddress, "amount", amount, "fee", fee, "inputs", len(selected), "change", change)

	response, err := c.rpc.SubmitTransaction(appmessage.DomainTransactionToRPCTransaction(tx), consensushashing.TransactionID(tx).String(), false)
	if err != nil {
		return "", c.classify(err, ErrUnavailable)
	}
	return response.TransactionID, nil
}

// Close tears down the node connection.
func (c *NodeClient) Close() {
	c.rpc.Disconnect()
}

// classify maps a kaspad client error onto the treasury taxonomy. An RPC
// error means the node received and refused the request (rejection); any
// other failure is a transport problem.
func (c *NodeClient) classify(err error, transportErr error) error {
	var rpcErr *appmessage.RPCError
	if errors.As(err, &rpcErr) {
		c.log.Warnw("node rejected request", "err", rpcErr.Message)
		return errors.Wrap(ErrRejected, rpcErr.Message)
	}
	c.log.Warnw("node call failed", "err", err)
	return errors.Wrap(transportErr, err.Error())
}

// rpcUTXOsToSpendables converts the wire representation of the faucet's
// UTXO set into consensus-domain entries usable as transaction inputs.
func rpcUTXOsToSpendables(entries []*appmessage.UTXOsByAddressesEntry) ([]*spendableUTXO, error) {
	spendables := make([]*spendableUTXO, 0, len(entries))
	for _, entry := range entries {
		txID, err := transactionid.FromString(entry.Outpoint.TransactionID)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing UTXO transaction ID %s", entry.Outpoint.TransactionID)
		}
		script, err := hex.DecodeString(entry.UTXOEntry.ScriptPublicKey.Script)
		if err != nil {
			return nil, errors.Wrap(err, "decoding UTXO script")
		}
		spendables = append(spendables, &spendableUTXO{
			outpoint: &externalapi.DomainOutpoint{
				TransactionID: *txID,
				Index:         entry.Outpoint.Index,
			},
			entry: utxo.NewUTXOEntry(
				entry.UTXOEntry.Amount,
				&externalapi.ScriptPublicKey{
					Script:  script,
					Version: entry.UTXOEntry.ScriptPublicKey.Version,
				},
				entry.UTXOEntry.IsCoinbase,
				entry.UTXOEntry.BlockDAAScore,
			),
		})
	}
	return spendables, nil
}
