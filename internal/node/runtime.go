// Package node implements the runtime thread: the sole owner and writer of
// the blockchain store, the single producer for the miner's event channel,
// and the handler for the four ServerMessage request kinds.
package node

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jjantschulev/zenchain/internal/chain"
	"github.com/jjantschulev/zenchain/internal/miner"
	"github.com/jjantschulev/zenchain/internal/wireproto"
)

// request pairs an inbound message with a reply channel, the (request,
// reply-channel) handoff the server acceptor uses to funnel every connection
// through the single runtime thread.
type request struct {
	msg   wireproto.ServerMessage
	reply chan wireproto.ClientMessage
}

// Runtime owns the chain store and the miner event channel. It must only
// ever be driven by its own Run goroutine; Handle is the only
// concurrency-safe entry point for other goroutines (the server).
type Runtime struct {
	store    *chain.BlockChain
	dataPath string
	events   chan<- miner.Event
	log      *zap.SugaredLogger
	requests chan request
}

// NewRuntime wires a Runtime around an already-synced store, persisting
// snapshots to dataPath and forwarding events to the miner's channel.
func NewRuntime(store *chain.BlockChain, dataPath string, events chan<- miner.Event, log *zap.SugaredLogger) *Runtime {
	return &Runtime{
		store:    store,
		dataPath: dataPath,
		events:   events,
		log:      log,
		requests: make(chan request),
	}
}

// Handle submits msg to the runtime thread and blocks for its response. It
// is the only way the server should touch the chain store.
func (rt *Runtime) Handle(msg wireproto.ServerMessage) wireproto.ClientMessage {
	reply := make(chan wireproto.ClientMessage, 1)
	rt.requests <- request{msg: msg, reply: reply}
	return <-reply
}

// Run is the runtime thread's entire body: receive one request, process it
// to completion, reply, repeat. It never returns until requests is closed.
func (rt *Runtime) Run() {
	for req := range rt.requests {
		req.reply <- rt.process(req.msg)
	}
}

// Close stops Run by closing the request channel. Call only after every
// Handle caller has stopped sending.
func (rt *Runtime) Close() {
	close(rt.requests)
}

func (rt *Runtime) process(msg wireproto.ServerMessage) wireproto.ClientMessage {
	switch m := msg.(type) {
	case wireproto.AccountStateRequest:
		return rt.handleAccountState(m)
	case wireproto.SubmitTransactionRequest:
		return rt.handleSubmitTransaction(m)
	case wireproto.GetChainRequest:
		return rt.handleGetChain(m)
	case wireproto.BroadcastBlockRequest:
		return rt.handleBroadcastBlock(m)
	default:
		return wireproto.ErrorResponse{Message: fmt.Sprintf("node: unhandled message type %T", msg)}
	}
}

func (rt *Runtime) handleAccountState(m wireproto.AccountStateRequest) wireproto.ClientMessage {
	world := chain.NewWorldFromChain(rt.store.CanonicalChain())
	return wireproto.AccountStateResponse{State: world.AccountState(m.Addr)}
}

func (rt *Runtime) handleSubmitTransaction(m wireproto.SubmitTransactionRequest) wireproto.ClientMessage {
	world := chain.NewWorldFromChain(rt.store.CanonicalChain())
	if err := m.Tx.Validate(world); err != nil {
		rt.log.Infow("node: rejected transaction", "sender", chain.FormatAddress(m.Tx.Sender), "err", err)
		return wireproto.ErrorResponse{Message: err.Error()}
	}
	rt.sendEvent(miner.NewTransactionEvent{Tx: m.Tx, World: world})
	return wireproto.AckResponse{}
}

func (rt *Runtime) handleGetChain(wireproto.GetChainRequest) wireproto.ClientMessage {
	return wireproto.ChainResponse{Blocks: rt.store.CanonicalChain()}
}

func (rt *Runtime) handleBroadcastBlock(m wireproto.BroadcastBlockRequest) wireproto.ClientMessage {
	before := len(rt.store.CanonicalChain())

	if err := m.Block.Validate(rt.store); err != nil {
		rt.log.Infow("node: rejected broadcast block", "hash", m.Block.Hash(), "err", err)
		return wireproto.ErrorResponse{Message: err.Error()}
	}
	rt.store.Insert(m.Block)

	if len(rt.store.CanonicalChain()) > before {
		rt.sendEvent(miner.NewBlockEvent{Block: m.Block})
	}

	if err := rt.store.Save(rt.dataPath); err != nil {
		// Persistence failure is a data-integrity emergency, not a
		// recoverable per-request error; the process must not keep running
		// with an un-persisted chain it believes was saved.
		rt.log.Fatalw("node: failed to persist chain snapshot", "err", err)
	}

	rt.log.Infow("node: accepted broadcast block", "hash", m.Block.Hash(), "index", m.Block.Index)
	return wireproto.AckResponse{}
}

// sendEvent forwards ev to the miner. A send on a closed miner channel is
// an internal invariant violation per the error-handling design: the
// resulting panic is recovered and the process terminates rather than
// silently dropping the event. A receiver that stops receiving without the
// channel being closed is not detected; the send then blocks.
func (rt *Runtime) sendEvent(ev miner.Event) {
	defer func() {
		if r := recover(); r != nil {
			rt.log.Fatalw("node: failed to forward event to miner", "panic", r)
		}
	}()
	rt.events <- ev
}
