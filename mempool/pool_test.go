// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toole-brendan/bgpchain/ledger/tx"
)

func TestPruneLeaseSumsDropsOverCommittedAssign(t *testing.T) {
	p := New()
	p.Submit(&tx.Transaction{Txid: "a1", Type: tx.TypeAssign, AsSource: "8522", SourceLease: 1000, LeaseDuration: 600})
	p.Submit(&tx.Transaction{Txid: "a2", Type: tx.TypeAssign, AsSource: "8522", SourceLease: 1000, LeaseDuration: 500})

	kept := p.PruneLeaseSums(func(string) (*tx.Transaction, bool) { return nil, false })

	require.Len(t, kept, 1)
	assert.Equal(t, "a1", kept[0].Txid, "second Assign pushes asSource's running sum over source_lease")
}

func TestPruneLeaseSumsEnforcesMonotonicUpdates(t *testing.T) {
	p := New()
	assign := &tx.Transaction{Txid: "assign1", Type: tx.TypeAssign, AsSource: "701", SourceLease: 1000}
	findAssign := func(txid string) (*tx.Transaction, bool) {
		if txid == assign.Txid {
			return assign, true
		}
		return nil, false
	}

	p.Submit(&tx.Transaction{Txid: "u1", Type: tx.TypeUpdate, AsSource: "701", AssignTxid: "assign1", NewLease: 700})
	p.Submit(&tx.Transaction{Txid: "u2", Type: tx.TypeUpdate, AsSource: "701", AssignTxid: "assign1", NewLease: 650})

	kept := p.PruneLeaseSums(findAssign)

	require.Len(t, kept, 1)
	assert.Equal(t, "u1", kept[0].Txid, "a later Update must strictly exceed the running max for its asSource")
}

func TestDropByPrefixRemovesAnnouncementsForAssignedPrefixes(t *testing.T) {
	p := New()
	p.Submit(&tx.Transaction{Txid: "ann1", Type: tx.TypeBGPAnnounce, Prefix: "10.0.0.0/8"})
	p.Submit(&tx.Transaction{Txid: "ann2", Type: tx.TypeBGPAnnounce, Prefix: "11.0.0.0/8"})

	p.DropByPrefix(tx.TypeBGPAnnounce, map[string]bool{"10.0.0.0/8": true})

	remaining := p.Snapshot()
	require.Len(t, remaining, 1)
	assert.Equal(t, "ann2", remaining[0].Txid)
}

func TestDropIncludedRemovesMinedTransactions(t *testing.T) {
	p := New()
	p.Submit(&tx.Transaction{Txid: "x1"})
	p.Submit(&tx.Transaction{Txid: "x2"})

	p.DropIncluded(map[string]bool{"x1": true})

	remaining := p.Snapshot()
	require.Len(t, remaining, 1)
	assert.Equal(t, "x2", remaining[0].Txid)
}
