// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import "github.com/toole-brendan/bgpchain/ledger/tx"

// AssignLookup resolves an Assign transaction's txid to its full record,
// needed to recover an Update's ceiling (the Assign's source_lease).
type AssignLookup func(txid string) (*tx.Transaction, bool)

// PruneLeaseSums implements spec.md §4.4 step 3: walk the pool in order,
// dropping any Assign whose asSource has already accumulated more than
// that Assign's own source_lease this pass, and any Update that does not
// strictly exceed the running maximum Update lease observed so far for its
// asSource or that would push the asSource's running Update sum over the
// referenced Assign's source_lease.
func (p *Pool) PruneLeaseSums(findAssign AssignLookup) []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	assignSum := make(map[string]int64)
	updateSum := make(map[string]int64)
	updateMax := make(map[string]int64)

	kept := p.pending[:0]
	for _, t := range p.pending {
		switch t.Type {
		case tx.TypeAssign:
			assignSum[t.AsSource] += t.LeaseDuration
			if assignSum[t.AsSource] > t.SourceLease {
				continue
			}
		case tx.TypeUpdate:
			if t.NewLease <= updateMax[t.AsSource] {
				continue
			}
			var ceiling int64
			if assign, ok := findAssign(t.AssignTxid); ok {
				ceiling = assign.SourceLease
			}
			if updateSum[t.AsSource]+t.NewLease > ceiling {
				continue
			}
			updateMax[t.AsSource] = t.NewLease
			updateSum[t.AsSource] += t.NewLease
		}
		kept = append(kept, t)
	}
	p.pending = kept
	return kept
}
