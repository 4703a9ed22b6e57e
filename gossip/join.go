// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gossip

import (
	"fmt"
	"net"
	"strconv"
	"time"

	bgpcrypto "github.com/toole-brendan/bgpchain/crypto"
	"github.com/toole-brendan/bgpchain/chaincfg"
	"github.com/toole-brendan/bgpchain/node"
	"github.com/toole-brendan/bgpchain/peernet"
)

// neighborsResponse mirrors the GET /neighbors payload of spec.md §6.
type neighborsResponse struct {
	Neighbors []peernet.Peer `json:"neighbors"`
}

// publicKeyResponse mirrors GET /public_key/send.
type publicKeyResponse struct {
	ASN       string `json:"asn"`
	PublicKey []byte `json:"public_key"`
}

// Join executes the bootstrap sequence of spec.md §4.5: contact every seed
// peer, learn the full neighbor set transitively, register each peer's
// address and public key, and announce this node's own identity. It does
// not start the background timers; callers get those from StartBackground.
func Join(n *node.Node, seeds []peernet.Peer) error {
	seen := make(map[string]bool)
	queue := append([]peernet.Peer{}, seeds...)

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if p.ASN == n.ASN || seen[p.ASN] {
			continue
		}
		seen[p.ASN] = true
		n.Directory.AddPeer(p)

		var resp neighborsResponse
		if err := getJSON(n, p.URL()+"/neighbors", &resp); err != nil {
			if n.Log != nil {
				n.Log.Warnf("join: fetch neighbors from %s failed: %v", p.URL(), err)
			}
			continue
		}
		for _, np := range resp.Neighbors {
			if np.ASN != n.ASN && !seen[np.ASN] {
				queue = append(queue, np)
			}
		}
	}

	for _, p := range n.Directory.Peers() {
		if p.ASN == n.ASN {
			continue
		}
		var resp publicKeyResponse
		if err := getJSON(n, p.URL()+"/public_key/send", &resp); err != nil {
			if n.Log != nil {
				n.Log.Warnf("join: fetch public key from %s failed: %v", p.URL(), err)
			}
			continue
		}
		pub, err := bgpcrypto.ParsePublicKey(resp.PublicKey)
		if err != nil {
			if n.Log != nil {
				n.Log.Warnf("join: parse public key from %s failed: %v", p.URL(), err)
			}
			continue
		}
		n.Directory.SetPublicKey(resp.ASN, pub)
	}

	BroadcastPublicKey(n)
	return nil
}

// StartBackground launches the periodic alive broadcaster and liveness
// reaper goroutines described in spec.md §4.5, running until stop is
// closed.
func StartBackground(n *node.Node, stop <-chan struct{}) {
	go aliveLoop(n, stop)
	go reapLoop(n, stop)
}

func aliveLoop(n *node.Node, stop <-chan struct{}) {
	ticker := time.NewTicker(chaincfg.AliveBroadcastInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			BroadcastAlive(n)
		}
	}
}

func reapLoop(n *node.Node, stop <-chan struct{}) {
	ticker := time.NewTicker(chaincfg.AliveReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			stale := n.Liveness.Reap(chaincfg.AliveTimeout)
			for _, addr := range stale {
				removeStalePeer(n, addr)
			}
			if len(stale) > 0 && n.Log != nil {
				n.Log.Infof("reaped %d stale peer(s): %v", len(stale), stale)
			}
		}
	}
}

// removeStalePeer purges the peer registered at addr ("ip:port") from the
// node's directory, so a node that later rejoins at that ASN is treated as
// a fresh registration rather than a stale one.
func removeStalePeer(n *node.Node, addr string) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return
	}
	p, ok := n.Directory.PeerByAddr(host, port)
	if !ok {
		return
	}
	n.Directory.RemovePeer(p.ASN)
}

// HandleAliveProbe records that (ip, port) was just heard from. Called by
// the api package's POST /alive handler.
func HandleAliveProbe(n *node.Node, ip string, port int) {
	n.Liveness.Touch(fmt.Sprintf("%s:%d", ip, port))
}
