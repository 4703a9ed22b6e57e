// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gossip

import (
	"fmt"
	"time"

	bgpcrypto "github.com/toole-brendan/bgpchain/crypto"
	"github.com/toole-brendan/bgpchain/ledger/tx"
	"github.com/toole-brendan/bgpchain/node"
)

// AutoRevoke synthesizes, signs, submits, and broadcasts a Revoke for one
// of this node's own Assigns, discovered expired during replay (spec.md
// §4.3: "If the replaying node discovers that a replayed Assign is one of
// its own myAssignments whose lease is expired, it immediately
// synthesizes, signs, and gossips a Revoke.").
func AutoRevoke(n *node.Node, assignTxid string) error {
	assign, ok := n.Chain.FindByTxid(assignTxid)
	if !ok || assign.Type != tx.TypeAssign {
		return fmt.Errorf("gossip: auto-revoke: assign %s not found", assignTxid)
	}
	if assign.AsSource != n.ASN {
		return fmt.Errorf("gossip: auto-revoke: assign %s does not belong to this node", assignTxid)
	}

	revoke := &tx.Transaction{
		Type:       tx.TypeRevoke,
		AsSource:   n.ASN,
		Time:       float64(time.Now().UnixNano()) / 1e9,
		AssignTxid: assignTxid,
	}
	txid, err := revoke.DeriveTxid()
	if err != nil {
		return fmt.Errorf("gossip: auto-revoke: derive txid: %w", err)
	}
	revoke.Txid = txid

	signBytes, err := revoke.SignBytes()
	if err != nil {
		return fmt.Errorf("gossip: auto-revoke: sign bytes: %w", err)
	}
	sig, err := bgpcrypto.Sign(n.Keys.Private, signBytes)
	if err != nil {
		return fmt.Errorf("gossip: auto-revoke: sign: %w", err)
	}
	revoke.Signature = sig

	snap := &tx.Snapshot{
		State:  n.Chain.State,
		Graphs: n.Chain.Graphs,
		Peers:  n.Directory,
		Chain:  n.Chain,
		Now:    revoke.Time,
	}
	if err := revoke.Validate(snap); err != nil {
		return fmt.Errorf("gossip: auto-revoke: validate: %w", err)
	}

	n.Pool.Submit(revoke)
	BroadcastTransaction(n, revoke)
	return nil
}
