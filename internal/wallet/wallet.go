// Package wallet implements the CLI-facing operations the original
// implementation's client exposes: checking a balance (one request/response
// exchange with a node) and sending a signed transaction (a balance lookup
// for the sender's nonce, then the submission: two exchanges).
package wallet

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/jjantschulev/zenchain/internal/chain"
	"github.com/jjantschulev/zenchain/internal/codec"
	"github.com/jjantschulev/zenchain/internal/wireproto"
	"github.com/jjantschulev/zenchain/internal/zcrypto"
)

// NodeClient is the one peerclient.Client method the wallet needs; kept as
// an interface so wallet tests don't require a real socket.
type NodeClient interface {
	Send(peerAddr string, msg wireproto.ServerMessage) (wireproto.ClientMessage, error)
}

// Wallet talks to a single configured node on behalf of the CLI.
type Wallet struct {
	client   NodeClient
	nodeAddr string
}

// New returns a Wallet that issues requests against nodeAddr via client.
func New(client NodeClient, nodeAddr string) *Wallet {
	return &Wallet{client: client, nodeAddr: nodeAddr}
}

// Balance returns addr's current AccountState as seen by the configured
// node.
func (w *Wallet) Balance(addr chain.Address) (chain.AccountState, error) {
	resp, err := w.client.Send(w.nodeAddr, wireproto.AccountStateRequest{Addr: addr})
	if err != nil {
		return chain.AccountState{}, fmt.Errorf("wallet: request balance: %w", err)
	}
	switch r := resp.(type) {
	case wireproto.AccountStateResponse:
		return r.State, nil
	case wireproto.ErrorResponse:
		return chain.AccountState{}, errors.New(r.Message)
	default:
		return chain.AccountState{}, fmt.Errorf("wallet: unexpected response type %T", resp)
	}
}

// Send signs a transfer of amount from priv's account to recipient, using
// the sender's current on-chain transaction_index (fetched from the node)
// to pick the correct next nonce, and submits it.
func (w *Wallet) Send(priv *rsa.PrivateKey, recipient chain.Address, amount codec.Uint128) error {
	publicKeyDER, err := zcrypto.MarshalPublicKey(&priv.PublicKey)
	if err != nil {
		return fmt.Errorf("wallet: marshal public key: %w", err)
	}
	sender := chain.Address(zcrypto.AddressOf(publicKeyDER[:]))

	state, err := w.Balance(sender)
	if err != nil {
		return fmt.Errorf("wallet: look up sender balance: %w", err)
	}
	nextIndex := state.TransactionIndex.AddOne()

	tx, err := chain.SignTransaction(priv, recipient, amount, nextIndex)
	if err != nil {
		return fmt.Errorf("wallet: sign transaction: %w", err)
	}

	resp, err := w.client.Send(w.nodeAddr, wireproto.SubmitTransactionRequest{Tx: tx})
	if err != nil {
		return fmt.Errorf("wallet: submit transaction: %w", err)
	}
	switch r := resp.(type) {
	case wireproto.AckResponse:
		return nil
	case wireproto.ErrorResponse:
		return errors.New(r.Message)
	default:
		return fmt.Errorf("wallet: unexpected response type %T", resp)
	}
}

// GetAddress derives the address for priv, for the "get-address" command.
func GetAddress(priv *rsa.PrivateKey) (chain.Address, error) {
	der, err := zcrypto.MarshalPublicKey(&priv.PublicKey)
	if err != nil {
		return chain.Address{}, fmt.Errorf("wallet: marshal public key: %w", err)
	}
	return chain.Address(zcrypto.AddressOf(der[:])), nil
}
