package node

import (
	"go.uber.org/zap"

	"github.com/jjantschulev/zenchain/internal/chain"
)

// ChainFetcher is the outbound collaborator the boot sequence uses to pull
// a candidate chain from a known peer. internal/peerclient provides the
// concrete TCP implementation.
type ChainFetcher interface {
	GetChain(peerAddr string) ([]chain.Block, error)
}

// Sync implements boot steps (2)-(3): ask every peer for its chain, keep
// the longest one returned, and replay it into store block by block,
// silently skipping anything that fails validation.
func Sync(store *chain.BlockChain, peers []string, fetcher ChainFetcher, log *zap.SugaredLogger) {
	var best []chain.Block
	for _, peer := range peers {
		blocks, err := fetcher.GetChain(peer)
		if err != nil {
			log.Infow("node: peer unreachable during sync", "peer", peer, "err", err)
			continue
		}
		if len(blocks) > len(best) {
			best = blocks
		}
	}

	for _, b := range best {
		if err := b.Validate(store); err != nil {
			log.Infow("node: dropping invalid block encountered during sync", "err", err)
			continue
		}
		store.Insert(b)
	}
}
