// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"fmt"
	"time"

	"github.com/toole-brendan/bgpchain/chaincfg"
	"github.com/toole-brendan/bgpchain/ledger/tx"
)

// Replay rebuilds txidToBlock, State, and Graphs from scratch by applying
// every non-genesis transaction in Blocks, in index order (spec.md §4.3).
// Per the Open Question resolution in DESIGN.md, each transaction is
// strictly re-validated against the snapshot built so far — not merely
// checked against invalidTxids — so a chain containing a transaction that
// would not apply cleanly is rejected here rather than accepted blindly.
//
// On success it returns the txids of this node's own Assigns
// (AddMyAssignment) that the replayed chain shows as expired: the caller
// is expected to synthesize, sign, and gossip a Revoke for each.
func (c *Chain) Replay() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replayLocked()
}

func (c *Chain) replayLocked() ([]string, error) {
	c.State.Reset()
	c.Graphs.Reset()
	c.txidToBlock = make(map[string]int64)

	if len(c.Blocks) == 0 {
		return nil, fmt.Errorf("chain: empty chain, nothing to replay")
	}
	holdings, err := decodeGenesisHoldings(c.Blocks[0])
	if err != nil {
		return nil, fmt.Errorf("chain: decode genesis: %w", err)
	}
	seedGenesisState(holdings, c.State, c.Graphs)

	now := float64(time.Now().UnixNano()) / 1e9

	for i := 1; i < len(c.Blocks); i++ {
		b := c.Blocks[i]
		for _, t := range b.Transactions {
			snap := &tx.Snapshot{
				State:  c.State,
				Graphs: c.Graphs,
				Peers:  c.Peers,
				Chain:  c,
				Now:    now,
			}
			if err := t.Validate(snap); err != nil {
				return nil, fmt.Errorf("chain: replay: block %d txid %s failed validation: %w", b.Index, t.Txid, err)
			}
			if err := t.Apply(c.State, c.Graphs, c.findLocked); err != nil {
				return nil, fmt.Errorf("chain: replay: block %d txid %s failed apply: %w", b.Index, t.Txid, err)
			}
			c.txidToBlock[t.Txid] = int64(i)
		}
	}

	var expired []string
	for txid := range c.myAssignments {
		t, ok := c.findLocked(txid)
		if !ok || t.Type != tx.TypeAssign {
			continue
		}
		for _, dest := range t.AsDestList {
			if rec, ok := c.State.FindHolder(t.Prefix, dest); ok && rec.LastAssignTxid == t.Txid {
				expiry := t.Time + chaincfg.LeaseSeconds(t.LeaseDuration)
				if now >= expiry {
					expired = append(expired, txid)
				}
				break
			}
		}
	}
	return expired, nil
}

func (c *Chain) findLocked(txid string) (*tx.Transaction, bool) {
	idx, ok := c.txidToBlock[txid]
	if !ok {
		return nil, false
	}
	if idx < 0 || idx >= int64(len(c.Blocks)) {
		return nil, false
	}
	for _, t := range c.Blocks[idx].Transactions {
		if t.Txid == txid {
			return t, true
		}
	}
	return nil, false
}

// AppendBlock validates the hash/PoW invariants of b against the current
// tip, then applies its transactions forward (the §4.4 step-6 fast path
// that avoids a full replay after locally mining a block). Callers must
// hold the chain lock.
func (c *Chain) AppendBlock(b *Block, verifyBlockSig func(asn string, msg, sig []byte) error) error {
	tip := c.Blocks[len(c.Blocks)-1]
	if b.PreviousHash != tip.Hash {
		return fmt.Errorf("chain: append: previous_hash mismatch")
	}
	if !b.VerifyHash() || !IsMined(b.Hash) {
		return fmt.Errorf("chain: append: invalid proof-of-work")
	}
	if verifyBlockSig != nil {
		if err := verifyBlockSig(b.MinerASN, []byte(b.Hash), b.Signature); err != nil {
			return fmt.Errorf("chain: append: bad miner signature: %w", err)
		}
	}

	now := float64(time.Now().UnixNano()) / 1e9
	for _, t := range b.Transactions {
		snap := &tx.Snapshot{State: c.State, Graphs: c.Graphs, Peers: c.Peers, Chain: c, Now: now}
		if err := t.Validate(snap); err != nil {
			return fmt.Errorf("chain: append: txid %s failed validation: %w", t.Txid, err)
		}
	}
	for _, t := range b.Transactions {
		if err := t.Apply(c.State, c.Graphs, c.findLocked); err != nil {
			return fmt.Errorf("chain: append: txid %s failed apply: %w", t.Txid, err)
		}
		c.txidToBlock[t.Txid] = b.Index
	}
	c.Blocks = append(c.Blocks, b)
	return nil
}

// ReplaceWithLock swaps in candidate as the local chain and replays it
// fully, returning (replaced, expiredOwnAssigns, error). It is the "mine
// never races resolve" half of spec.md §5: it takes the chain lock itself
// and holds it for the entire swap-and-replay, so callers must not already
// hold it.
func (c *Chain) ReplaceWithLock(candidate []*Block) (bool, []string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int64(len(candidate)) <= int64(len(c.Blocks)) {
		return false, nil, nil
	}
	prevBlocks := c.Blocks
	c.Blocks = candidate
	expired, err := c.replayLocked()
	if err != nil {
		c.Blocks = prevBlocks
		// restore the previous, known-good derived state
		if _, rerr := c.replayLocked(); rerr != nil && c.log != nil {
			c.log.Errorf("chain: failed to restore previous chain after rejected replacement: %v", rerr)
		}
		return false, nil, fmt.Errorf("chain: candidate chain rejected: %w", err)
	}
	return true, expired, nil
}
