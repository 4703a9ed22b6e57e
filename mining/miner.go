// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mining implements the proof-of-work mining pipeline of spec.md
// §4.4: reconcile against peers, prune the pending pool down to a
// lease-feasible batch, mine and sign a block, apply it, and announce the
// result to the network.
package mining

import (
	"fmt"
	"time"

	"github.com/toole-brendan/bgpchain/chain"
	bgpcrypto "github.com/toole-brendan/bgpchain/crypto"
	"github.com/toole-brendan/bgpchain/gossip"
	"github.com/toole-brendan/bgpchain/ledger/tx"
	"github.com/toole-brendan/bgpchain/node"
)

// Mine runs one mining round and returns the block it produced, or (nil,
// nil) if nothing in the pool survived pruning. Mining is serialized
// against resolveConflicts by the chain lock (spec.md §5): the peer
// reconciliation pass runs first and unlocked, then the remainder of the
// pipeline holds the lock for its entire duration.
func Mine(n *node.Node) (*chain.Block, error) {
	if _, err := gossip.ResolveConflicts(n); err != nil && n.Log != nil {
		n.Log.Warnf("mine: resolveConflicts: %v", err)
	}

	n.Chain.Lock()

	n.Pool.DropIncluded(chainTxids(n.Chain.Snapshot()))

	assigned := make(map[string]bool)
	for _, t := range n.Pool.Snapshot() {
		if t.Type == tx.TypeAssign {
			assigned[t.Prefix] = true
		}
	}
	n.Pool.DropByPrefix(tx.TypeBGPAnnounce, assigned)

	kept := n.Pool.PruneLeaseSums(n.Chain.FindByTxid)
	if len(kept) == 0 {
		n.Chain.Unlock()
		return nil, nil
	}

	tip := n.Chain.Last()
	block := &chain.Block{
		Index:        tip.Index + 1,
		Timestamp:    float64(time.Now().UnixNano()) / 1e9,
		PreviousHash: tip.Hash,
		MinerASN:     n.ASN,
		Transactions: kept,
	}
	if err := block.MineNonce(); err != nil {
		n.Chain.Unlock()
		return nil, fmt.Errorf("mining: mine nonce: %w", err)
	}

	sig, err := bgpcrypto.Sign(n.Keys.Private, []byte(block.Hash))
	if err != nil {
		n.Chain.Unlock()
		return nil, fmt.Errorf("mining: sign block: %w", err)
	}
	block.Signature = sig

	if err := n.Chain.AppendBlock(block, gossip.VerifyBlockSig(n)); err != nil {
		n.Chain.Unlock()
		return nil, fmt.Errorf("mining: append block: %w", err)
	}

	for _, t := range kept {
		if t.Type == tx.TypeAssign && t.AsSource == n.ASN {
			n.Chain.AddMyAssignment(t.Txid)
		}
	}

	n.Pool.DropIncluded(blockTxids(block))

	if n.Store != nil {
		if err := n.Store.PutBlock(block); err != nil && n.Log != nil {
			n.Log.Errorf("mining: persist block %d: %v", block.Index, err)
		}
	}

	n.Chain.Unlock()

	gossip.BroadcastResolve(n)

	return block, nil
}

func chainTxids(blocks []*chain.Block) map[string]bool {
	out := make(map[string]bool)
	for _, b := range blocks {
		for _, t := range b.Transactions {
			out[t.Txid] = true
		}
	}
	return out
}

func blockTxids(b *chain.Block) map[string]bool {
	out := make(map[string]bool, len(b.Transactions))
	for _, t := range b.Transactions {
		out[t.Txid] = true
	}
	return out
}
