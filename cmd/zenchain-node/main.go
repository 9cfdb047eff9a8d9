// Command zenchain-node runs the node runtime described by the
// specification: it boots from a local snapshot, syncs from any configured
// peers, then spawns the TCP server, the miner, and the debug HTTP mux.
package main

import (
	"crypto/rsa"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/jjantschulev/zenchain/internal/chain"
	"github.com/jjantschulev/zenchain/internal/debugsrv"
	"github.com/jjantschulev/zenchain/internal/keystore"
	"github.com/jjantschulev/zenchain/internal/miner"
	"github.com/jjantschulev/zenchain/internal/node"
	"github.com/jjantschulev/zenchain/internal/peerclient"
	"github.com/jjantschulev/zenchain/internal/peerlist"
	"github.com/jjantschulev/zenchain/internal/server"
	"github.com/jjantschulev/zenchain/internal/wallet"
)

// config mirrors the teacher's service Config structs in shape; it is
// parsed from flags rather than github.com/ardanlabs/conf/v3 (see
// DESIGN.md for why that dependency is not vendored in this module).
type config struct {
	bindHost  string
	port      int
	debugPort int
	keyName   string
	keysDir   string
	dataPath  string
	peersPath string
}

func parseConfig() config {
	var cfg config
	flag.StringVar(&cfg.bindHost, "host", "0.0.0.0", "address to bind the node's TCP listener to")
	flag.IntVar(&cfg.port, "port", 8888, "port to bind the node's TCP listener to")
	flag.IntVar(&cfg.debugPort, "debug-port", 9080, "port to bind the debug/status HTTP mux to")
	flag.StringVar(&cfg.keyName, "key", "", "named key to mine under; empty uses (or creates) the default key")
	flag.StringVar(&cfg.keysDir, "keys-dir", "./keys", "directory holding wallet keypairs")
	flag.StringVar(&cfg.dataPath, "data", "zenchain-data.bin", "path to the chain snapshot file")
	flag.StringVar(&cfg.peersPath, "peers", "nodes.txt", "path to the static peer list")
	flag.Parse()
	return cfg
}

func main() {
	if err := run(); err != nil {
		log.Fatalln(err)
	}
}

func run() error {
	cfg := parseConfig()

	zapLog, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("construct logger: %w", err)
	}
	defer zapLog.Sync()
	sugar := zapLog.Sugar()

	ks, err := keystore.New(cfg.keysDir)
	if err != nil {
		return fmt.Errorf("open keystore: %w", err)
	}
	priv, err := loadOrCreateMinerKey(ks, cfg.keyName)
	if err != nil {
		return fmt.Errorf("load miner key: %w", err)
	}
	minerAddr, err := wallet.GetAddress(priv)
	if err != nil {
		return fmt.Errorf("derive miner address: %w", err)
	}
	sugar.Infow("node: mining under address", "address", chain.FormatAddress(minerAddr))

	store, err := chain.LoadBlockChain(cfg.dataPath)
	if err != nil {
		return fmt.Errorf("load chain snapshot: %w", err)
	}

	peers, err := peerlist.Load(cfg.peersPath)
	if err != nil {
		return fmt.Errorf("load peer list: %w", err)
	}

	client := peerclient.New()
	node.Sync(store, peers, client, sugar)
	sugar.Infow("node: synced with peers", "peer_count", len(peers), "store_size", store.Len())

	events := make(chan miner.Event)
	rt := node.NewRuntime(store, cfg.dataPath, events, sugar)
	go rt.Run()

	canonical := store.CanonicalChain()
	var parent *chain.Block
	if len(canonical) > 0 {
		tip := canonical[len(canonical)-1]
		parent = &tip
	}

	broadcaster := peerclient.NewBroadcaster(client, peers, sugar)
	m := miner.New(minerAddr, parent, events, broadcaster, sugar)
	go m.Run()

	debugAddr := fmt.Sprintf("%s:%d", cfg.bindHost, cfg.debugPort)
	debugMux := debugsrv.New(store, sugar)
	go func() {
		if err := http.ListenAndServe(debugAddr, debugMux); err != nil {
			sugar.Errorw("node: debug http server stopped", "err", err)
		}
	}()
	sugar.Infow("node: debug mux listening", "addr", debugAddr)

	listenAddr := fmt.Sprintf("%s:%d", cfg.bindHost, cfg.port)
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddr, err)
	}
	sugar.Infow("node: listening", "addr", ln.Addr())

	srv := server.New(ln, rt, sugar)
	return srv.Serve()
}

// loadOrCreateMinerKey loads the named key, or the default key if name is
// empty, generating a fresh "default" key on a brand-new keystore.
func loadOrCreateMinerKey(ks *keystore.DiskKeyStore, name string) (*rsa.PrivateKey, error) {
	if name != "" {
		return ks.Load(name)
	}
	priv, err := ks.LoadDefault()
	if errors.Is(err, keystore.ErrNoDefaultKey) {
		return ks.Generate("default")
	}
	return priv, err
}
