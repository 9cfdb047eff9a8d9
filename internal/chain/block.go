package chain

import (
	"crypto/rand"
	"fmt"

	"github.com/jjantschulev/zenchain/internal/codec"
	"github.com/jjantschulev/zenchain/internal/zcrypto"
)

// Block groups an ordered set of transactions under proof of work.
type Block struct {
	Index        codec.Uint128
	PrevHash     Hash
	Nonce        [32]byte
	Miner        Address
	Reward       codec.Uint128
	Transactions []Transaction
	Difficulty   uint32
}

// NewBlock constructs a candidate block extending parent (or genesis, if
// parent is nil) with transactions mined by miner. The nonce starts zeroed;
// callers invoke Mine to search for a valid proof of work.
func NewBlock(parent *Block, transactions []Transaction, miner Address) Block {
	index := codec.NewUint128(1)
	prevHash := ZeroHash
	if parent != nil {
		index = parent.Index.AddOne()
		prevHash = parent.Hash()
	}

	txs := make([]Transaction, len(transactions))
	copy(txs, transactions)

	return Block{
		Index:        index,
		PrevHash:     prevHash,
		Miner:        miner,
		Reward:       codec.NewUint128(BlockReward),
		Transactions: txs,
		Difficulty:   Difficulty,
	}
}

// Encode appends the deterministic encoding of b to e.
func (b Block) Encode(e *codec.Encoder) {
	e.WriteUint128(b.Index)
	e.WriteFixed(b.PrevHash[:])
	e.WriteFixed(b.Nonce[:])
	e.WriteFixed(b.Miner[:])
	e.WriteUint128(b.Reward)
	e.WriteUint32(uint32(len(b.Transactions)))
	for _, tx := range b.Transactions {
		tx.Encode(e)
	}
	e.WriteUint32(b.Difficulty)
}

// DecodeBlock reads a Block from d.
func DecodeBlock(d *codec.Decoder) (Block, error) {
	var b Block
	var err error

	b.Index, err = d.ReadUint128()
	if err != nil {
		return b, fmt.Errorf("chain: decode block index: %w", err)
	}
	raw, err := d.ReadFixed(len(b.PrevHash))
	if err != nil {
		return b, fmt.Errorf("chain: decode block prev_hash: %w", err)
	}
	copy(b.PrevHash[:], raw)
	raw, err = d.ReadFixed(len(b.Nonce))
	if err != nil {
		return b, fmt.Errorf("chain: decode block nonce: %w", err)
	}
	copy(b.Nonce[:], raw)
	raw, err = d.ReadFixed(len(b.Miner))
	if err != nil {
		return b, fmt.Errorf("chain: decode block miner: %w", err)
	}
	copy(b.Miner[:], raw)
	b.Reward, err = d.ReadUint128()
	if err != nil {
		return b, fmt.Errorf("chain: decode block reward: %w", err)
	}
	count, err := d.ReadUint32()
	if err != nil {
		return b, fmt.Errorf("chain: decode block transaction count: %w", err)
	}
	b.Transactions = make([]Transaction, count)
	for i := range b.Transactions {
		b.Transactions[i], err = DecodeTransaction(d)
		if err != nil {
			return b, fmt.Errorf("chain: decode block transaction %d: %w", i, err)
		}
	}
	b.Difficulty, err = d.ReadUint32()
	if err != nil {
		return b, fmt.Errorf("chain: decode block difficulty: %w", err)
	}
	return b, nil
}

// Hash is the SHA3-256 digest of b's deterministic encoding, nonce included.
func (b Block) Hash() Hash {
	e := codec.NewEncoder()
	b.Encode(e)
	return Hash(zcrypto.Hash(e.Bytes()))
}

// Mine randomizes the nonce up to attempts times with a cryptographic RNG,
// returning true on the first hash meeting the proof-of-work target. It is
// safe to call repeatedly with a small attempts count so callers remain able
// to poll other work between batches.
func (b *Block) Mine(attempts int) bool {
	for i := 0; i < attempts; i++ {
		if _, err := rand.Read(b.Nonce[:]); err != nil {
			return false
		}
		if hashMeetsDifficulty(b.Hash(), b.Difficulty) {
			return true
		}
	}
	return false
}

func hashMeetsDifficulty(h Hash, difficulty uint32) bool {
	if int(difficulty) > len(h) {
		return false
	}
	for i := uint32(0); i < difficulty; i++ {
		if h[i] != 0 {
			return false
		}
	}
	return true
}

// ChainReader is the read-only slice of BlockChain that block validation
// needs: looking up a parent by hash and walking the chain back to genesis.
type ChainReader interface {
	Get(h Hash) (Block, bool)
	ChainTo(leaf Hash) []Block
}

// Validate checks b's structure against store and replays its transactions
// against the World projected from its parent chain.
func (b Block) Validate(store ChainReader) error {
	if b.Difficulty != Difficulty {
		return ErrInvalidDifficulty
	}
	if b.Reward.Cmp(codec.NewUint128(BlockReward)) != 0 {
		return ErrInvalidReward
	}

	var parent *Block
	if b.PrevHash != ZeroHash {
		p, ok := store.Get(b.PrevHash)
		if !ok {
			return ErrUnknownParent
		}
		parent = &p
	}

	expectedIndex := codec.NewUint128(1)
	if parent != nil {
		expectedIndex = parent.Index.AddOne()
	}
	if b.Index.Cmp(expectedIndex) != 0 {
		return fmt.Errorf("%w: should be %s, but is %s", ErrBadIndex, expectedIndex, b.Index)
	}

	if !hashMeetsDifficulty(b.Hash(), b.Difficulty) {
		return ErrInsufficientWork
	}

	world := NewWorldFromChain(store.ChainTo(b.PrevHash))
	for i, tx := range b.Transactions {
		if err := tx.Validate(world); err != nil {
			return fmt.Errorf("invalid transaction %d (%s): %w", i, tx, err)
		}
		world.ApplyTransaction(tx)
	}
	world.ApplyBlockReward(b)

	return nil
}
