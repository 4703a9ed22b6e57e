// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command bgpchaind runs a single AS node of the ledger: it serves the
// HTTP gossip surface, joins the network from a seed peer list, and
// exposes the mine/resolve endpoints a node operator drives manually or
// from a cron job.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/toole-brendan/bgpchain/api"
	"github.com/toole-brendan/bgpchain/bootstrap"
	"github.com/toole-brendan/bgpchain/chain"
	bgpcrypto "github.com/toole-brendan/bgpchain/crypto"
	"github.com/toole-brendan/bgpchain/gossip"
	"github.com/toole-brendan/bgpchain/node"
	"github.com/toole-brendan/bgpchain/peernet"
	"github.com/toole-brendan/bgpchain/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bgpchaind: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	initLogRotator(filepath.Join(cfg.LogDir, "bgpchaind.log"))
	setLogLevel(cfg.Debug)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create datadir: %w", err)
	}

	keys, err := loadOrCreateKeys(filepath.Join(cfg.DataDir, "identity.pem"))
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}

	bs, err := store.Open(filepath.Join(cfg.DataDir, "blocks"))
	if err != nil {
		return fmt.Errorf("open block store: %w", err)
	}
	defer bs.Close()

	persisted, err := bs.LoadChain()
	if err != nil {
		return fmt.Errorf("load persisted chain: %w", err)
	}

	genesis, err := loadGenesis(cfg, bs, persisted)
	if err != nil {
		return fmt.Errorf("load genesis: %w", err)
	}

	dir := peernet.NewDirectory()
	c := chain.New(genesis, dir, log)
	if len(persisted) > 1 {
		c.Blocks = persisted
		if _, err := c.Replay(); err != nil {
			log.Warnf("replay of persisted chain failed, falling back to genesis only: %v", err)
			c = chain.New(genesis, dir, log)
		}
	}

	n := node.New(cfg.ASN, cfg.IP, cfg.Port, keys, c, dir, bs, log)

	if cfg.BootstrapPeers != "" {
		seeds, err := bootstrap.LoadPeers(cfg.BootstrapPeers)
		if err != nil {
			return fmt.Errorf("load bootstrap peers: %w", err)
		}
		if err := gossip.Join(n, seeds); err != nil {
			log.Warnf("join: %v", err)
		}
	}

	stop := make(chan struct{})
	defer close(stop)
	gossip.StartBackground(n, stop)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: api.NewServer(n),
	}
	log.Infof("bgpchaind listening as AS%s on %s:%d", cfg.ASN, cfg.IP, cfg.Port)
	return srv.ListenAndServe()
}

// loadGenesis returns the existing block 0 if this node already has a
// persisted chain, or else constructs a fresh one from a configured
// bootstrap holdings file (an empty holdings map if none is configured: a
// node that only ever receives Assigns from its peers).
func loadGenesis(cfg *config, bs *store.BlockStore, persisted []*chain.Block) (*chain.Block, error) {
	if len(persisted) > 0 {
		return persisted[0], nil
	}
	holdings := chain.GenesisHoldings{}
	if cfg.BootstrapHoldings != "" {
		h, err := bootstrap.LoadGenesisHoldings(cfg.BootstrapHoldings)
		if err != nil {
			return nil, err
		}
		holdings = h
	}
	genesis, err := chain.BuildGenesisBlock(holdings)
	if err != nil {
		return nil, err
	}
	if err := bs.PutBlock(genesis); err != nil {
		return nil, err
	}
	return genesis, nil
}

// loadOrCreateKeys loads a node's RSA identity from path, generating and
// persisting a fresh keypair on first run.
func loadOrCreateKeys(path string) (*bgpcrypto.KeyPair, error) {
	if raw, err := os.ReadFile(path); err == nil {
		priv, err := bgpcrypto.ParsePrivateKey(raw)
		if err != nil {
			return nil, err
		}
		return &bgpcrypto.KeyPair{Private: priv, Public: &priv.PublicKey}, nil
	}
	keys, err := bgpcrypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	raw, err := bgpcrypto.MarshalPrivateKey(keys.Private)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return nil, err
	}
	return keys, nil
}
