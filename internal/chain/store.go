package chain

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/jjantschulev/zenchain/internal/codec"
)

// snapshotMagic and snapshotVersion stamp persisted files so a future
// layout change can be detected instead of silently misparsed, per the
// design note recommending a magic/version header.
var snapshotMagic = [4]byte{'Z', 'C', 'H', '1'}

const snapshotVersion uint32 = 1

// BlockChain is a hash-indexed tree of blocks rooted at genesis
// (prev_hash == ZeroHash). It is exclusive to the node runtime thread in
// normal operation; the mutex exists so the ambient debug HTTP surface can
// read it concurrently without coordinating with the runtime loop.
type BlockChain struct {
	mu     sync.RWMutex
	blocks map[Hash]Block
}

// NewBlockChain returns an empty store.
func NewBlockChain() *BlockChain {
	return &BlockChain{blocks: make(map[Hash]Block)}
}

// Insert adds block to the store, indexed by its hash. Callers must
// validate first; Insert performs no validation.
func (bc *BlockChain) Insert(b Block) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.blocks[b.Hash()] = b
}

// Get looks up a block by hash.
func (bc *BlockChain) Get(h Hash) (Block, bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	b, ok := bc.blocks[h]
	return b, ok
}

// Len reports how many blocks the store holds.
func (bc *BlockChain) Len() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return len(bc.blocks)
}

// ChainTo walks from leaf to genesis and returns the chain in genesis-first
// order. ChainTo(ZeroHash) returns an empty chain.
func (bc *BlockChain) ChainTo(leaf Hash) []Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.chainToLocked(leaf)
}

func (bc *BlockChain) chainToLocked(leaf Hash) []Block {
	var chain []Block
	if leaf == ZeroHash {
		return chain
	}
	cur := leaf
	for {
		b, ok := bc.blocks[cur]
		if !ok {
			break
		}
		chain = append(chain, b)
		cur = b.PrevHash
		if cur == ZeroHash {
			break
		}
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// CanonicalChain returns the longest root-to-leaf path in the store. Ties
// among equal-length leaves are broken by picking the lexicographically
// smallest leaf hash — a deterministic resolution of the open question left
// by the original implementation's HashSet-order-dependent tie-break.
func (bc *BlockChain) CanonicalChain() []Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	referenced := make(map[Hash]bool, len(bc.blocks))
	for _, b := range bc.blocks {
		referenced[b.PrevHash] = true
	}

	leaves := make([]Hash, 0, len(bc.blocks))
	for h := range bc.blocks {
		if !referenced[h] {
			leaves = append(leaves, h)
		}
	}
	sort.Slice(leaves, func(i, j int) bool {
		return bytes.Compare(leaves[i][:], leaves[j][:]) < 0
	})

	var best []Block
	for _, leaf := range leaves {
		candidate := bc.chainToLocked(leaf)
		if len(candidate) > len(best) {
			best = candidate
		}
	}
	return best
}

// Save writes a full snapshot of the store to path via the deterministic
// codec: a magic/version header, a 4-byte count, then each hash followed by
// its block.
func (bc *BlockChain) Save(path string) error {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	hashes := make([]Hash, 0, len(bc.blocks))
	for h := range bc.blocks {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
	})

	e := codec.NewEncoder()
	e.WriteFixed(snapshotMagic[:])
	e.WriteUint32(snapshotVersion)
	e.WriteUint32(uint32(len(hashes)))
	for _, h := range hashes {
		e.WriteFixed(h[:])
		bc.blocks[h].Encode(e)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, e.Bytes(), 0o600); err != nil {
		return fmt.Errorf("chain: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("chain: install snapshot: %w", err)
	}
	return nil
}

// LoadBlockChain reads a snapshot from path. A missing file yields an empty
// store, per the specification.
func LoadBlockChain(path string) (*BlockChain, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewBlockChain(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("chain: read snapshot: %w", err)
	}

	d := codec.NewDecoder(data)
	magic, err := d.ReadFixed(len(snapshotMagic))
	if err != nil {
		return nil, fmt.Errorf("chain: read snapshot magic: %w", err)
	}
	if !bytes.Equal(magic, snapshotMagic[:]) {
		return nil, fmt.Errorf("chain: %q is not a zenchain snapshot", path)
	}
	version, err := d.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("chain: read snapshot version: %w", err)
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("chain: unsupported snapshot version %d", version)
	}

	count, err := d.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("chain: read snapshot count: %w", err)
	}

	bc := NewBlockChain()
	for i := uint32(0); i < count; i++ {
		raw, err := d.ReadFixed(len(Hash{}))
		if err != nil {
			return nil, fmt.Errorf("chain: read snapshot entry %d hash: %w", i, err)
		}
		var h Hash
		copy(h[:], raw)
		b, err := DecodeBlock(d)
		if err != nil {
			return nil, fmt.Errorf("chain: read snapshot entry %d block: %w", i, err)
		}
		bc.blocks[h] = b
	}
	return bc, nil
}
