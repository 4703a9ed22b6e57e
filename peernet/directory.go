// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peernet holds the node's membership state: the directory of
// known ASNs and their public keys, the peer address set, and the
// liveness table driving the alive broadcaster/reaper (spec.md §4.5).
package peernet

import (
	"crypto/rsa"
	"fmt"
	"sync"
)

// Peer is one entry of the peer set: a (ip, port, asn) triple, as
// bootstrapped from bgp_network.csv or learned via gossip (spec.md §6).
type Peer struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
	ASN  string `json:"asn"`
}

// URL returns the base HTTP URL for p.
func (p Peer) URL() string {
	return fmt.Sprintf("http://%s:%d", p.IP, p.Port)
}

// Directory is the node's view of the network: which ASNs exist, their
// public keys, and their (ip, port) addresses. It satisfies
// tx.PeerDirectory directly.
type Directory struct {
	keysMu sync.RWMutex // the spec's asn_nodes_mutex
	keys   map[string]*rsa.PublicKey

	peersMu sync.RWMutex // the spec's bc_nodes_mutex
	peers   map[string]Peer
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		keys:  make(map[string]*rsa.PublicKey),
		peers: make(map[string]Peer),
	}
}

// IsKnownPeer reports whether asn has a registered peer entry.
func (d *Directory) IsKnownPeer(asn string) bool {
	d.peersMu.RLock()
	defer d.peersMu.RUnlock()
	_, ok := d.peers[asn]
	return ok
}

// PublicKey returns asn's registered public key, if any.
func (d *Directory) PublicKey(asn string) (*rsa.PublicKey, bool) {
	d.keysMu.RLock()
	defer d.keysMu.RUnlock()
	pub, ok := d.keys[asn]
	return pub, ok
}

// SetPublicKey registers or updates asn's public key. It performs no
// authentication of its own; the peer messages that reach it
// (POST /public_key/incoming, the join key fetch) are not signed.
func (d *Directory) SetPublicKey(asn string, pub *rsa.PublicKey) {
	d.keysMu.Lock()
	defer d.keysMu.Unlock()
	d.keys[asn] = pub
}

// AddPeer registers or updates a peer's address.
func (d *Directory) AddPeer(p Peer) {
	d.peersMu.Lock()
	defer d.peersMu.Unlock()
	d.peers[p.ASN] = p
}

// Peers returns a copy of every registered peer.
func (d *Directory) Peers() []Peer {
	d.peersMu.RLock()
	defer d.peersMu.RUnlock()
	out := make([]Peer, 0, len(d.peers))
	for _, p := range d.peers {
		out = append(out, p)
	}
	return out
}

// PeerByAddr finds the peer registered at (ip, port), if any — used by the
// liveness reaper, which tracks peers by address rather than ASN.
func (d *Directory) PeerByAddr(ip string, port int) (Peer, bool) {
	d.peersMu.RLock()
	defer d.peersMu.RUnlock()
	for _, p := range d.peers {
		if p.IP == ip && p.Port == port {
			return p, true
		}
	}
	return Peer{}, false
}

// RemovePeer drops asn from both the peer set and the public-key table, so
// a subsequently rejoining node at the same ASN is treated as a fresh
// registration rather than a stale one.
func (d *Directory) RemovePeer(asn string) {
	d.peersMu.Lock()
	delete(d.peers, asn)
	d.peersMu.Unlock()

	d.keysMu.Lock()
	delete(d.keys, asn)
	d.keysMu.Unlock()
}
