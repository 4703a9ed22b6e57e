// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btclog"
	"github.com/decred/dcrd/lru"
	"github.com/toole-brendan/bgpchain/graph"
	"github.com/toole-brendan/bgpchain/ledger/state"
	"github.com/toole-brendan/bgpchain/ledger/tx"
)

// invalidTxidCacheSize bounds the invalidTxids set (spec.md §3); unlike a
// UTXO chain's bounded mempool, an adversarial submitter here could flood
// distinct malformed txids forever, so the set here is an LRU rather than
// an unbounded map (see DESIGN.md).
const invalidTxidCacheSize = 100_000

// Chain is the append-only sequence of blocks plus the derived indices and
// world state spec.md §3 calls for. The mu field is the spec's single
// "mutex": it covers Blocks, the txid index, and State/Graphs mutations
// during mining and chain replacement (spec.md §5).
type Chain struct {
	mu sync.Mutex

	Blocks []*Block
	State  *state.WorldState
	Graphs *graph.Registry
	Peers  tx.PeerDirectory

	txidToBlock   map[string]int64
	invalid       *lru.Cache[string]
	myAssignments map[string]bool

	log btclog.Logger
}

// New constructs a chain seeded with genesis.
func New(genesis *Block, peers tx.PeerDirectory, log btclog.Logger) *Chain {
	c := &Chain{
		Blocks:        []*Block{genesis},
		State:         state.New(),
		Graphs:        graph.NewRegistry(),
		Peers:         peers,
		txidToBlock:   make(map[string]int64),
		invalid:       lru.NewCache[string](invalidTxidCacheSize),
		myAssignments: make(map[string]bool),
		log:           log,
	}
	holdings, err := decodeGenesisHoldings(genesis)
	if err == nil {
		seedGenesisState(holdings, c.State, c.Graphs)
	}
	return c
}

// Lock/Unlock implement sync.Locker so the mining and gossip packages can
// serialize resolveConflicts against mine exactly as spec.md §5 requires.
func (c *Chain) Lock()   { c.mu.Lock() }
func (c *Chain) Unlock() { c.mu.Unlock() }

// Len returns the current chain length. It takes the chain lock itself, so
// it must not be called by a goroutine that already holds that lock.
func (c *Chain) Len() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.Blocks))
}

// Last returns the most recently appended block.
func (c *Chain) Last() *Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Blocks[len(c.Blocks)-1]
}

// Snapshot returns a shallow copy of the block slice for safe iteration
// (e.g. serving GET /chain) without holding the chain lock across I/O.
func (c *Chain) Snapshot() []*Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Block, len(c.Blocks))
	copy(out, c.Blocks)
	return out
}

// FindByTxid implements tx.ChainIndex.
func (c *Chain) FindByTxid(txid string) (*tx.Transaction, bool) {
	c.mu.Lock()
	idx, ok := c.txidToBlock[txid]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	return c.findInBlock(idx, txid)
}

func (c *Chain) findInBlock(blockIndex int64, txid string) (*tx.Transaction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if blockIndex < 0 || blockIndex >= int64(len(c.Blocks)) {
		return nil, false
	}
	for _, t := range c.Blocks[blockIndex].Transactions {
		if t.Txid == txid {
			return t, true
		}
	}
	return nil, false
}

// SumUpdateLeases implements tx.ChainIndex: the sum of NewLease over every
// chained Update referencing assignTxid, excluding excludeTxid.
func (c *Chain) SumUpdateLeases(assignTxid, excludeTxid string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var sum int64
	for _, b := range c.Blocks {
		for _, t := range b.Transactions {
			if t.Type != tx.TypeUpdate || t.AssignTxid != assignTxid || t.Txid == excludeTxid {
				continue
			}
			out, err := t.DecodeUpdateOutput()
			if err != nil {
				continue
			}
			sum += out.NewLease
		}
	}
	return sum
}

// CurrentAssignLease implements tx.ChainIndex.
func (c *Chain) CurrentAssignLease(prefix, asn string) (int64, bool) {
	rec, ok := c.State.FindHolder(prefix, asn)
	if !ok {
		return 0, false
	}
	return rec.LeaseDuration, true
}

// IsInvalid reports whether txid was previously rejected by a validator.
func (c *Chain) IsInvalid(txid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalid.Contains(txid)
}

// MarkInvalid records txid so any block later containing it is rejected
// at chain-validity time (spec.md §4.3/§7).
func (c *Chain) MarkInvalid(txid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalid.Add(txid)
}

// AddMyAssignment records txid as one of this node's own Assigns, so that
// a later replay discovering it expired can auto-Revoke (spec.md §4.3).
func (c *Chain) AddMyAssignment(txid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.myAssignments[txid] = true
}

// MyAssignments returns a copy of the own-Assign txid set.
func (c *Chain) MyAssignments() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.myAssignments))
	for id := range c.myAssignments {
		out = append(out, id)
	}
	return out
}

// Validate walks candidate from index 1, checking the structural
// invariants of spec.md §4.3: the hash chain links, proof-of-work,
// block signature, and that no contained transaction is in invalidTxids.
// It does not re-run §4.1 semantic validation; Replay does that (the
// MAY of spec.md §9).
func (c *Chain) Validate(candidate []*Block, verifyBlockSig func(asn string, msg, sig []byte) error) error {
	if len(candidate) == 0 {
		return fmt.Errorf("chain: empty candidate chain")
	}
	for i := 1; i < len(candidate); i++ {
		b := candidate[i]
		prev := candidate[i-1]
		if b.PreviousHash != prev.Hash {
			return fmt.Errorf("chain: block %d previous_hash mismatch", b.Index)
		}
		if !b.VerifyHash() {
			return fmt.Errorf("chain: block %d hash does not match its contents", b.Index)
		}
		if !IsMined(b.Hash) {
			return fmt.Errorf("chain: block %d does not satisfy proof-of-work", b.Index)
		}
		if verifyBlockSig != nil {
			if err := verifyBlockSig(b.MinerASN, []byte(b.Hash), b.Signature); err != nil {
				return fmt.Errorf("chain: block %d signature invalid: %w", b.Index, err)
			}
		}
		for _, t := range b.Transactions {
			if c.IsInvalid(t.Txid) {
				return fmt.Errorf("chain: block %d contains invalid txid %s", b.Index, t.Txid)
			}
		}
	}
	return nil
}
