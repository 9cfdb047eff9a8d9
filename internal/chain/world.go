package chain

import "github.com/jjantschulev/zenchain/internal/codec"

// AccountState is the per-address projection of balance and nonce.
type AccountState struct {
	Address          Address
	Balance          codec.Uint128
	TransactionIndex codec.Uint128
}

// NewAccountState returns the zero-valued state for a freshly referenced
// address.
func NewAccountState(addr Address) AccountState {
	return AccountState{Address: addr}
}

// Encode appends the deterministic encoding of a to e: address, balance,
// transaction_index.
func (a AccountState) Encode(e *codec.Encoder) {
	e.WriteFixed(a.Address[:])
	e.WriteUint128(a.Balance)
	e.WriteUint128(a.TransactionIndex)
}

// DecodeAccountState reads an AccountState from d.
func DecodeAccountState(d *codec.Decoder) (AccountState, error) {
	var a AccountState
	raw, err := d.ReadFixed(len(a.Address))
	if err != nil {
		return a, err
	}
	copy(a.Address[:], raw)
	a.Balance, err = d.ReadUint128()
	if err != nil {
		return a, err
	}
	a.TransactionIndex, err = d.ReadUint128()
	if err != nil {
		return a, err
	}
	return a, nil
}

// World is a pure projection of an ordered chain into per-address balances
// and nonces. It is never persisted; it is always rebuilt from a chain.
type World struct {
	accounts map[Address]AccountState
}

// NewWorld returns an empty World.
func NewWorld() *World {
	return &World{accounts: make(map[Address]AccountState)}
}

// AccountState returns addr's current state, materializing a zero-valued
// account if addr has never been referenced.
func (w *World) AccountState(addr Address) AccountState {
	if a, ok := w.accounts[addr]; ok {
		return a
	}
	return NewAccountState(addr)
}

// Clone returns a deep copy, safe for a different goroutine to mutate
// independently of w.
func (w *World) Clone() *World {
	accounts := make(map[Address]AccountState, len(w.accounts))
	for addr, state := range w.accounts {
		accounts[addr] = state
	}
	return &World{accounts: accounts}
}

// ApplyTransaction debits sender and credits recipient by amount, and
// increments sender's nonce. Callers must validate the transaction first:
// underflow here is a programmer error, not a runtime possibility.
func (w *World) ApplyTransaction(tx Transaction) {
	sender := w.AccountState(tx.Sender)
	balance, underflow := sender.Balance.Sub(tx.Amount)
	if underflow {
		panic("chain: World.ApplyTransaction: sender balance underflow; caller must validate first")
	}
	sender.Balance = balance
	sender.TransactionIndex = sender.TransactionIndex.AddOne()
	w.accounts[tx.Sender] = sender

	recipient := w.AccountState(tx.Recipient)
	recipient.Balance, _ = recipient.Balance.Add(tx.Amount)
	w.accounts[tx.Recipient] = recipient
}

// ApplyBlockReward credits the block's miner with its reward.
func (w *World) ApplyBlockReward(b Block) {
	miner := w.AccountState(b.Miner)
	miner.Balance, _ = miner.Balance.Add(b.Reward)
	w.accounts[b.Miner] = miner
}

// NewWorldFromChain folds an ordered, genesis-first chain into a World.
func NewWorldFromChain(blocks []Block) *World {
	w := NewWorld()
	for _, b := range blocks {
		for _, tx := range b.Transactions {
			w.ApplyTransaction(tx)
		}
		w.ApplyBlockReward(b)
	}
	return w
}
