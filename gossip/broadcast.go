// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gossip

import (
	"fmt"

	bgpcrypto "github.com/toole-brendan/bgpchain/crypto"
	"github.com/toole-brendan/bgpchain/ledger/tx"
	"github.com/toole-brendan/bgpchain/node"
)

// incomingPath maps a transaction Type to its gossip ingestion endpoint
// (spec.md §6: "mirror endpoints under /transactions/<kind>/incoming").
func incomingPath(t tx.Type) string {
	switch t {
	case tx.TypeAssign:
		return "/transactions/assign/incoming"
	case tx.TypeRevoke:
		return "/transactions/revoke/incoming"
	case tx.TypeUpdate:
		return "/transactions/update/incoming"
	case tx.TypeBGPAnnounce:
		return "/transactions/bgp_announce/incoming"
	case tx.TypeBGPWithdraw:
		return "/transactions/bgp_withdraw/incoming"
	default:
		return ""
	}
}

// BroadcastTransaction gossips t to every known peer other than self.
// Delivery is best-effort: unreachable peers are logged and skipped
// (spec.md §5 "Cancellation and timeouts").
func BroadcastTransaction(n *node.Node, t *tx.Transaction) {
	path := incomingPath(t.Type)
	if path == "" {
		return
	}
	for _, p := range n.Directory.Peers() {
		if p.ASN == n.ASN {
			continue
		}
		if err := postJSON(n, p.URL()+path, t); err != nil && n.Log != nil {
			n.Log.Debugf("broadcast tx %s to %s failed: %v", t.Txid, p.URL(), err)
		}
	}
}

// BroadcastResolve asks every peer to run its own resolveConflicts,
// propagating a newly mined block through the network (spec.md §4.4
// step 7).
func BroadcastResolve(n *node.Node) {
	for _, p := range n.Directory.Peers() {
		if p.ASN == n.ASN {
			continue
		}
		if err := getJSON(n, p.URL()+"/resolve", nil); err != nil && n.Log != nil {
			n.Log.Debugf("broadcast resolve to %s failed: %v", p.URL(), err)
		}
	}
}

// alivePayload is the body of a POST /alive probe.
type alivePayload struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

// BroadcastAlive sends this node's liveness probe to every peer. Intended
// to be called every chaincfg.AliveBroadcastInterval.
func BroadcastAlive(n *node.Node) {
	payload := alivePayload{IP: n.IP, Port: n.Port}
	for _, p := range n.Directory.Peers() {
		if p.ASN == n.ASN {
			continue
		}
		if err := postJSON(n, p.URL()+"/alive", payload); err != nil && n.Log != nil {
			n.Log.Debugf("alive probe to %s failed: %v", p.URL(), err)
		}
	}
}

// publicKeyPayload is the peer-announcement body posted to
// /public_key/incoming. It carries no signature, and the receiver registers
// the key without verifying one.
type publicKeyPayload struct {
	ASN       string `json:"asn"`
	IP        string `json:"ip"`
	Port      int    `json:"port"`
	PublicKey []byte `json:"public_key"`
}

// BroadcastPublicKey announces this node's (publicKey, ip, port, asn) to
// every known peer (spec.md §4.5 "Join").
func BroadcastPublicKey(n *node.Node) {
	pub, err := bgpcrypto.MarshalPublicKey(n.Keys.Public)
	if err != nil {
		if n.Log != nil {
			n.Log.Errorf("marshal own public key: %v", err)
		}
		return
	}
	payload := publicKeyPayload{ASN: n.ASN, IP: n.IP, Port: n.Port, PublicKey: pub}
	for _, p := range n.Directory.Peers() {
		if p.ASN == n.ASN {
			continue
		}
		if err := postJSON(n, p.URL()+"/public_key/incoming", payload); err != nil && n.Log != nil {
			n.Log.Debugf("broadcast public key to %s failed: %v", p.URL(), err)
		}
	}
}

// VerifyBlockSig builds the miner-signature verifier chain.Validate and
// chain.AppendBlock expect, resolving the signer's key through n's
// directory.
func VerifyBlockSig(n *node.Node) func(asn string, msg, sig []byte) error {
	return func(asn string, msg, sig []byte) error {
		pub, ok := n.Directory.PublicKey(asn)
		if !ok {
			return fmt.Errorf("gossip: unknown miner asn %q", asn)
		}
		return bgpcrypto.Verify(pub, msg, sig)
	}
}
