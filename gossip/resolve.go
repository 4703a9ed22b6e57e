// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gossip

import (
	"github.com/toole-brendan/bgpchain/chain"
	"github.com/toole-brendan/bgpchain/node"
)

// chainResponse mirrors the GET /chain payload of spec.md §6.
type chainResponse struct {
	Chain  []*chain.Block `json:"chain"`
	Length int            `json:"length"`
}

// ResolveConflicts implements spec.md §4.3/§5's consensus driver: replace
// the local chain with the strictly-longest valid chain observed among
// peers, then deterministically replay all world state.
//
// Per the design note of spec.md §5/§9, this does NOT hold the chain lock
// across outbound HTTP: peers are fetched and validated first, and only
// the final compare-and-swap runs under chain.ReplaceWithLock. This avoids
// the "resolve storm" deadlock hazard the spec calls out as unacceptable
// in the original coarse-locking design.
func ResolveConflicts(n *node.Node) (bool, error) {
	localLen := n.Chain.Len()

	var (
		best    []*chain.Block
		bestLen = localLen
	)
	for _, p := range n.Directory.Peers() {
		if p.ASN == n.ASN {
			continue
		}
		var resp chainResponse
		if err := getJSON(n, p.URL()+"/chain", &resp); err != nil {
			if n.Log != nil {
				n.Log.Debugf("resolve: fetch chain from %s failed: %v", p.URL(), err)
			}
			continue
		}
		if int64(len(resp.Chain)) <= bestLen {
			continue
		}
		if err := n.Chain.Validate(resp.Chain, VerifyBlockSig(n)); err != nil {
			if n.Log != nil {
				n.Log.Warnf("resolve: rejecting chain from %s: %v", p.URL(), err)
			}
			continue
		}
		best = resp.Chain
		bestLen = int64(len(resp.Chain))
	}

	if best == nil {
		return false, nil
	}

	replaced, expired, err := n.Chain.ReplaceWithLock(best)
	if err != nil {
		if n.Log != nil {
			n.Log.Warnf("resolve: replacement chain failed replay: %v", err)
		}
		return false, nil
	}
	if !replaced {
		return false, nil
	}

	included := make(map[string]bool)
	for _, b := range best {
		for _, t := range b.Transactions {
			included[t.Txid] = true
		}
	}
	n.Pool.DropIncluded(included)

	if n.Store != nil {
		if err := n.Store.PutChain(best); err != nil && n.Log != nil {
			n.Log.Errorf("resolve: persist replaced chain: %v", err)
		}
	}

	for _, txid := range expired {
		if err := AutoRevoke(n, txid); err != nil && n.Log != nil {
			n.Log.Errorf("resolve: auto-revoke for expired assign %s: %v", txid, err)
		}
	}

	return true, nil
}
