// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package node encapsulates the per-process mutable state spec.md §9
// warns against leaving as package-level globals: the chain, pending pool,
// peer directory, liveness table, and this node's own identity, threaded
// explicitly through every HTTP handler and background loop.
package node

import (
	"net/http"
	"time"

	"github.com/btcsuite/btclog"
	bgpcrypto "github.com/toole-brendan/bgpchain/crypto"
	"github.com/toole-brendan/bgpchain/chain"
	"github.com/toole-brendan/bgpchain/mempool"
	"github.com/toole-brendan/bgpchain/peernet"
	"github.com/toole-brendan/bgpchain/store"
)

// Node is the full mutable state of a running AS node.
type Node struct {
	ASN  string
	IP   string
	Port int
	Keys *bgpcrypto.KeyPair

	Chain     *chain.Chain
	Pool      *mempool.Pool
	Dedupe    *mempool.Dedupe
	Directory *peernet.Directory
	Liveness  *peernet.Liveness
	Store     *store.BlockStore

	HTTP *http.Client
	Log  btclog.Logger
}

// SelfURL returns this node's own base HTTP URL.
func (n *Node) SelfURL() string {
	return (peernet.Peer{IP: n.IP, Port: n.Port, ASN: n.ASN}).URL()
}

// New wires together a node's state. The chain parameter must already be
// seeded with genesis by the caller (cmd/bgpchaind or a bootstrap helper),
// and dir must be the same *peernet.Directory the chain was constructed
// with (chain.New's Peers field), so that validation and gossip agree on
// one peer set.
func New(asn, ip string, port int, keys *bgpcrypto.KeyPair, c *chain.Chain, dir *peernet.Directory, bs *store.BlockStore, log btclog.Logger) *Node {
	n := &Node{
		ASN:       asn,
		IP:        ip,
		Port:      port,
		Keys:      keys,
		Chain:     c,
		Pool:      mempool.New(),
		Dedupe:    mempool.NewDedupe(),
		Directory: dir,
		Liveness:  peernet.NewLiveness(),
		Store:     bs,
		HTTP:      &http.Client{Timeout: 5 * time.Second},
		Log:       log,
	}
	n.Directory.SetPublicKey(asn, keys.Public)
	n.Directory.AddPeer(peernet.Peer{IP: ip, Port: port, ASN: asn})
	return n
}
