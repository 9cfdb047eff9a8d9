package miner

import (
	"testing"

	"go.uber.org/zap"

	"github.com/jjantschulev/zenchain/internal/chain"
	"github.com/jjantschulev/zenchain/internal/codec"
	"github.com/jjantschulev/zenchain/internal/zcrypto"
)

type recordingBroadcaster struct {
	blocks []chain.Block
}

func (r *recordingBroadcaster) BroadcastBlock(b chain.Block) {
	r.blocks = append(r.blocks, b)
}

func mustAddress(t *testing.T) chain.Address {
	t.Helper()
	priv, err := zcrypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	der, err := zcrypto.MarshalPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPublicKey: %v", err)
	}
	return chain.Address(zcrypto.AddressOf(der[:]))
}

func TestMinerFindsGenesisBlock(t *testing.T) {
	addr := mustAddress(t)
	events := make(chan Event)
	broadcaster := &recordingBroadcaster{}
	m := New(addr, nil, events, broadcaster, zap.NewNop().Sugar())
	m.SetBatchSize(1 << 20)

	_, found, stopped := m.Step()
	if stopped {
		t.Fatal("miner stopped unexpectedly")
	}
	if !found {
		t.Fatal("expected the miner to find a genesis block within one large batch")
	}
	if len(broadcaster.blocks) != 1 {
		t.Fatalf("expected 1 broadcast block, got %d", len(broadcaster.blocks))
	}
	if broadcaster.blocks[0].Miner != addr {
		t.Fatal("mined block should credit the miner's own address")
	}
}

func TestMinerStopsWhenChannelCloses(t *testing.T) {
	addr := mustAddress(t)
	events := make(chan Event)
	close(events)
	m := New(addr, nil, events, &recordingBroadcaster{}, zap.NewNop().Sugar())

	_, _, stopped := m.Step()
	if !stopped {
		t.Fatal("expected Step to report the miner stopped")
	}
}

func TestNewBlockEventPrunesIncludedTransactions(t *testing.T) {
	addr := mustAddress(t)
	priv, err := zcrypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	der, err := zcrypto.MarshalPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPublicKey: %v", err)
	}
	sender := chain.Address(zcrypto.AddressOf(der[:]))

	tx, err := chain.SignTransaction(priv, addr, codec.NewUint128(10), codec.NewUint128(1))
	if err != nil {
		t.Fatalf("SignTransaction: %v", err)
	}

	events := make(chan Event, 2)
	m := New(addr, nil, events, &recordingBroadcaster{}, zap.NewNop().Sugar())

	// Credit the sender with a genesis block reward so the transfer validates.
	genesis := chain.NewBlock(nil, nil, sender)
	world := chain.NewWorldFromChain([]chain.Block{genesis})

	events <- NewTransactionEvent{Tx: tx, World: world}
	m.Step()
	if len(m.pending) != 1 {
		t.Fatalf("expected 1 pending transaction, got %d", len(m.pending))
	}

	included := chain.NewBlock(&genesis, []chain.Transaction{tx}, addr)
	events <- NewBlockEvent{Block: included}
	m.Step()
	if len(m.pending) != 0 {
		t.Fatalf("expected the included transaction to be pruned, got %d pending", len(m.pending))
	}
	if m.parent == nil || m.parent.Hash() != included.Hash() {
		t.Fatal("expected parent to become the newly announced block")
	}
}

func TestRejectedTransactionEventIsDropped(t *testing.T) {
	addr := mustAddress(t)
	priv, err := zcrypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	// No prior balance: signing a transfer for an account with zero funds
	// must fail validation and never enter pending.
	tx, err := chain.SignTransaction(priv, addr, codec.NewUint128(10), codec.NewUint128(1))
	if err != nil {
		t.Fatalf("SignTransaction: %v", err)
	}

	events := make(chan Event, 1)
	m := New(addr, nil, events, &recordingBroadcaster{}, zap.NewNop().Sugar())

	events <- NewTransactionEvent{Tx: tx, World: chain.NewWorld()}
	m.Step()
	if len(m.pending) != 0 {
		t.Fatalf("expected the invalid transaction to be dropped, got %d pending", len(m.pending))
	}
}
