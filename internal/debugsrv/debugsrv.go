// Package debugsrv implements the small observability HTTP surface the
// node runs alongside its TCP listener: liveness/readiness probes and a
// read-only chain/account summary, routed through a method+path+handler
// table.
package debugsrv

import (
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/dimfeld/httptreemux/v5"
	"go.uber.org/zap"

	"github.com/jjantschulev/zenchain/internal/chain"
	"github.com/jjantschulev/zenchain/internal/wallet"
)

// Server exposes a read-only http.Handler over a chain store. Because the
// store is exclusive to the runtime thread, every handler here goes
// through its exported, mutex-guarded accessors rather than touching
// internals directly.
type Server struct {
	store *chain.BlockChain
	log   *zap.SugaredLogger
	mux   *httptreemux.TreeMux
}

// New builds the debug mux around store.
func New(store *chain.BlockChain, log *zap.SugaredLogger) *Server {
	s := &Server{store: store, log: log, mux: httptreemux.New()}
	s.mux.GET("/liveness", s.handleLiveness)
	s.mux.GET("/readiness", s.handleReadiness)
	s.mux.GET("/debug/chain", s.handleChainSummary)
	s.mux.GET("/debug/account/:address", s.handleAccount)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	respond(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	respond(w, http.StatusOK, map[string]string{"status": "ready"})
}

// chainSummary is the JSON shape returned by /debug/chain.
type chainSummary struct {
	BlockCount  int    `json:"block_count"`
	ChainLength int    `json:"chain_length"`
	TipHash     string `json:"tip_hash,omitempty"`
}

func (s *Server) handleChainSummary(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	canonical := s.store.CanonicalChain()
	summary := chainSummary{
		BlockCount:  s.store.Len(),
		ChainLength: len(canonical),
	}
	if len(canonical) > 0 {
		tip := canonical[len(canonical)-1].Hash()
		summary.TipHash = "0x" + hex.EncodeToString(tip[:])
	}
	respond(w, http.StatusOK, summary)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request, params map[string]string) {
	addrHex := params["address"]
	if err := wallet.Validate(wallet.BalanceInput{Address: addrHex}); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	addr, err := chain.ParseAddress(addrHex)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	world := chain.NewWorldFromChain(s.store.CanonicalChain())
	state := world.AccountState(addr)
	respond(w, http.StatusOK, map[string]string{
		"address":           chain.FormatAddress(addr),
		"balance":           state.Balance.String(),
		"transaction_index": state.TransactionIndex.String(),
	})
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
