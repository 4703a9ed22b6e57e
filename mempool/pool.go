// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool implements the pending transaction pool: the ordered
// list of transactions awaiting mining, the lease-sum feasibility pruning
// pass of spec.md §4.4, and the duplicate-BGPAnnounce guard of §4.5.
package mempool

import (
	"sync"

	"github.com/toole-brendan/bgpchain/ledger/tx"
)

// Pool is the pendingPool of spec.md §3, guarded by its own lock (the
// spec's "pt_mutex") so request handlers can append while a mining pass
// prunes.
type Pool struct {
	mu      sync.Mutex
	pending []*tx.Transaction
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{}
}

// Submit appends an already-validated transaction to the pool.
func (p *Pool) Submit(t *tx.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, t)
}

// Snapshot returns a copy of the pool in FIFO order.
func (p *Pool) Snapshot() []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*tx.Transaction, len(p.pending))
	copy(out, p.pending)
	return out
}

// Len reports the number of pending transactions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// DropIncluded removes every pending transaction whose txid is a member of
// included, the §4.4 step-1 cleanup run after resolveConflicts replaces
// the chain.
func (p *Pool) DropIncluded(included map[string]bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.pending[:0]
	for _, t := range p.pending {
		if !included[t.Txid] {
			kept = append(kept, t)
		}
	}
	p.pending = kept
}

// DropByPrefix removes every pending BGPAnnounce whose prefix is in
// assigned, the §4.4 step-2 rule: a prefix that moved in this mining round
// is no longer routed over the BGP ledger.
func (p *Pool) DropByPrefix(kind tx.Type, assigned map[string]bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.pending[:0]
	for _, t := range p.pending {
		if t.Type == kind && assigned[t.Prefix] {
			continue
		}
		kept = append(kept, t)
	}
	p.pending = kept
}

// HasPendingWithdraw reports whether a BGPWithdraw for (prefix, asSource)
// is already lodged in the pool (spec.md §4.1 BGPWithdraw precondition).
func (p *Pool) HasPendingWithdraw(prefix, asSource string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.pending {
		if t.Type == tx.TypeBGPWithdraw && t.Prefix == prefix && t.AsSource == asSource {
			return true
		}
	}
	return false
}

// Remove deletes the first pending transaction with the given txid, if
// present.
func (p *Pool) Remove(txid string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, t := range p.pending {
		if t.Txid == txid {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			return
		}
	}
}

// Clear empties the pool.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
}
