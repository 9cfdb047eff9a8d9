// Package miner implements the proof-of-work search loop described by the
// node's component design: it owns its candidate block and pending
// transaction list exclusively, taking inbound events from the runtime over
// a single-producer channel and broadcasting finished blocks to peers.
package miner

import (
	"go.uber.org/zap"

	"github.com/jjantschulev/zenchain/internal/chain"
)

// DefaultBatchSize is how many nonce attempts Mine searches between event
// polls, matching the specification's recommended tuning value.
const DefaultBatchSize = 1000

// PeerBroadcaster sends a mined block to every configured peer, best-effort.
// Implementations log and skip unreachable peers rather than returning an
// error: a failed broadcast must never stop mining.
type PeerBroadcaster interface {
	BroadcastBlock(b chain.Block)
}

// Event is something the runtime tells the miner about. NewTransactionEvent
// and NewBlockEvent are its only implementations.
type Event interface {
	isMinerEvent()
}

// NewTransactionEvent reports a transaction the runtime accepted, along with
// the World it was validated against.
type NewTransactionEvent struct {
	Tx    chain.Transaction
	World *chain.World
}

// NewBlockEvent reports a block the runtime inserted, becoming the miner's
// new parent.
type NewBlockEvent struct {
	Block chain.Block
}

func (NewTransactionEvent) isMinerEvent() {}
func (NewBlockEvent) isMinerEvent()       {}

// Miner owns the candidate block and pending transaction list described by
// the component design's §4.6 control policy.
type Miner struct {
	addr        chain.Address
	events      <-chan Event
	broadcaster PeerBroadcaster
	log         *zap.SugaredLogger
	batchSize   int

	parent    *chain.Block
	pending   []chain.Transaction
	candidate chain.Block
}

// New returns a Miner seeded from parent (nil for an empty chain), mining
// under addr, consuming events and broadcasting via broadcaster.
func New(addr chain.Address, parent *chain.Block, events <-chan Event, broadcaster PeerBroadcaster, log *zap.SugaredLogger) *Miner {
	m := &Miner{
		addr:        addr,
		events:      events,
		broadcaster: broadcaster,
		log:         log,
		batchSize:   DefaultBatchSize,
		parent:      parent,
	}
	m.rebuildCandidate()
	return m
}

// SetBatchSize overrides DefaultBatchSize; intended for tests that want fast
// convergence.
func (m *Miner) SetBatchSize(n int) {
	m.batchSize = n
}

// Run drains events and searches for proof of work until the event channel
// is closed. It is the miner thread's entire body.
func (m *Miner) Run() {
	for {
		select {
		case ev, ok := <-m.events:
			if !ok {
				m.log.Infow("miner: event channel closed, stopping")
				return
			}
			m.handleEvent(ev)
		default:
		}

		if m.candidate.Mine(m.batchSize) {
			m.log.Infow("miner: found block",
				"hash", m.candidate.Hash(),
				"index", m.candidate.Index,
				"transactions", len(m.candidate.Transactions),
			)
			m.broadcaster.BroadcastBlock(m.candidate)
			m.pending = nil
		}
	}
}

// Step processes at most one pending event and runs a single mining batch.
// It is Run's loop body, exposed separately so tests can drive the control
// policy deterministically without a background goroutine.
func (m *Miner) Step() (minedBlock chain.Block, found bool, stopped bool) {
	select {
	case ev, ok := <-m.events:
		if !ok {
			return chain.Block{}, false, true
		}
		m.handleEvent(ev)
	default:
	}

	if m.candidate.Mine(m.batchSize) {
		found = true
		minedBlock = m.candidate
		m.broadcaster.BroadcastBlock(m.candidate)
		m.pending = nil
	}
	return minedBlock, found, false
}

func (m *Miner) handleEvent(ev Event) {
	switch e := ev.(type) {
	case NewTransactionEvent:
		world := e.World.Clone()
		for _, pending := range m.pending {
			world.ApplyTransaction(pending)
		}
		if err := e.Tx.Validate(world); err != nil {
			m.log.Infow("miner: dropping transaction that no longer validates",
				"sender", chain.FormatAddress(e.Tx.Sender), "err", err)
			return
		}
		m.pending = append(m.pending, e.Tx)
		m.rebuildCandidate()
	case NewBlockEvent:
		m.pending = prunePending(m.pending, e.Block)
		parent := e.Block
		m.parent = &parent
		m.rebuildCandidate()
	}
}

// prunePending drops any pending transaction whose (sender, index) pair was
// already included in b, leaving the rest in their original relative order.
func prunePending(pending []chain.Transaction, b chain.Block) []chain.Transaction {
	included := make(map[chain.Address]map[string]bool, len(b.Transactions))
	for _, tx := range b.Transactions {
		if included[tx.Sender] == nil {
			included[tx.Sender] = make(map[string]bool)
		}
		included[tx.Sender][tx.Index.String()] = true
	}

	out := pending[:0:0]
	for _, tx := range pending {
		if included[tx.Sender] != nil && included[tx.Sender][tx.Index.String()] {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func (m *Miner) rebuildCandidate() {
	m.candidate = chain.NewBlock(m.parent, m.pending, m.addr)
}

// Candidate returns the block currently being mined, for observability.
func (m *Miner) Candidate() chain.Block {
	return m.candidate
}
