package chain

import (
	"crypto/rsa"
	"fmt"

	"github.com/jjantschulev/zenchain/internal/codec"
	"github.com/jjantschulev/zenchain/internal/zcrypto"
)

// Transaction moves amount from sender to recipient. Index must equal the
// sender's next nonce (prior transaction_index + 1). Fields are declared in
// wire order: amount, index, sender, recipient, signature, public_key.
type Transaction struct {
	Amount    codec.Uint128
	Index     codec.Uint128
	Sender    Address
	Recipient Address
	Signature Signature
	PublicKey PublicKey
}

// Encode appends the deterministic encoding of t to e.
func (t Transaction) Encode(e *codec.Encoder) {
	e.WriteUint128(t.Amount)
	e.WriteUint128(t.Index)
	e.WriteFixed(t.Sender[:])
	e.WriteFixed(t.Recipient[:])
	e.WriteFixed(t.Signature[:])
	e.WriteFixed(t.PublicKey[:])
}

// DecodeTransaction reads a Transaction from d.
func DecodeTransaction(d *codec.Decoder) (Transaction, error) {
	var t Transaction
	var err error

	t.Amount, err = d.ReadUint128()
	if err != nil {
		return t, fmt.Errorf("chain: decode transaction amount: %w", err)
	}
	t.Index, err = d.ReadUint128()
	if err != nil {
		return t, fmt.Errorf("chain: decode transaction index: %w", err)
	}
	b, err := d.ReadFixed(len(t.Sender))
	if err != nil {
		return t, fmt.Errorf("chain: decode transaction sender: %w", err)
	}
	copy(t.Sender[:], b)
	b, err = d.ReadFixed(len(t.Recipient))
	if err != nil {
		return t, fmt.Errorf("chain: decode transaction recipient: %w", err)
	}
	copy(t.Recipient[:], b)
	b, err = d.ReadFixed(len(t.Signature))
	if err != nil {
		return t, fmt.Errorf("chain: decode transaction signature: %w", err)
	}
	copy(t.Signature[:], b)
	b, err = d.ReadFixed(len(t.PublicKey))
	if err != nil {
		return t, fmt.Errorf("chain: decode transaction public key: %w", err)
	}
	copy(t.PublicKey[:], b)
	return t, nil
}

// DataPreimage returns the 64-byte canonical pre-image that is signed:
// sender || recipient || amount_le || index_le.
func (t Transaction) DataPreimage() [zcrypto.TransactionDataSize]byte {
	var data [zcrypto.TransactionDataSize]byte
	copy(data[0:16], t.Sender[:])
	copy(data[16:32], t.Recipient[:])
	amt := t.Amount.BytesLE()
	copy(data[32:48], amt[:])
	idx := t.Index.BytesLE()
	copy(data[48:64], idx[:])
	return data
}

// IsSignatureValid reports whether the signature verifies over the
// pre-image under PublicKey, and whether the sender address matches the
// public key's derived address.
func (t Transaction) IsSignatureValid() bool {
	valid := zcrypto.Verify([zcrypto.PublicKeySize]byte(t.PublicKey), [zcrypto.SignatureSize]byte(t.Signature), t.DataPreimage())
	addr := zcrypto.AddressOf(t.PublicKey[:])
	return valid && Address(addr) == t.Sender
}

// Validate checks t against the account state projected by world: the
// signature must verify and bind to sender, the sender must have
// sufficient balance, and index must equal the sender's next nonce.
func (t Transaction) Validate(world *World) error {
	if !t.IsSignatureValid() {
		return ErrInvalidSignature
	}
	state := world.AccountState(t.Sender)
	if state.Balance.Cmp(t.Amount) < 0 {
		return ErrInsufficientBalance
	}
	if state.TransactionIndex.AddOne().Cmp(t.Index) != 0 {
		return ErrBadNonce
	}
	return nil
}

// SignTransaction builds and signs a Transaction moving amount from the
// account identified by priv to recipient, using index as the sender's next
// nonce.
func SignTransaction(priv *rsa.PrivateKey, recipient Address, amount, index codec.Uint128) (Transaction, error) {
	publicKeyDER, err := zcrypto.MarshalPublicKey(&priv.PublicKey)
	if err != nil {
		return Transaction{}, fmt.Errorf("chain: marshal public key: %w", err)
	}
	sender := Address(zcrypto.AddressOf(publicKeyDER[:]))

	tx := Transaction{
		Amount:    amount,
		Index:     index,
		Sender:    sender,
		Recipient: recipient,
		PublicKey: PublicKey(publicKeyDER),
	}

	sig, err := zcrypto.Sign(priv, tx.DataPreimage())
	if err != nil {
		return Transaction{}, fmt.Errorf("chain: sign transaction: %w", err)
	}
	tx.Signature = Signature(sig)
	return tx, nil
}

// String renders a human-readable summary, in the original wallet's style.
func (t Transaction) String() string {
	return fmt.Sprintf("Transaction: %s  %s ==> %s", t.Amount, FormatAddress(t.Sender), FormatAddress(t.Recipient))
}
