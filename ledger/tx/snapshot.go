// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx

import (
	"crypto/rsa"

	"github.com/toole-brendan/bgpchain/graph"
	"github.com/toole-brendan/bgpchain/ledger/state"
)

// PeerDirectory is the read-only view of known ASNs and their public keys
// that validators need to check "asSource is a known peer" and to verify
// signatures.
type PeerDirectory interface {
	IsKnownPeer(asn string) bool
	PublicKey(asn string) (*rsa.PublicKey, bool)
}

// ChainIndex is the read-only view into chain history validators need:
// looking up a prior Assign by txid, and summing prior Update leases
// chained against it.
type ChainIndex interface {
	// FindByTxid returns the transaction with the given txid, if it has
	// been included in the current chain.
	FindByTxid(txid string) (*Transaction, bool)

	// SumUpdateLeases returns the sum of NewLease over every Update in the
	// current chain whose AssignTxid equals assignTxid, excluding the
	// transaction identified by excludeTxid (used when re-validating a
	// pending Update against itself during replay).
	SumUpdateLeases(assignTxid, excludeTxid string) int64

	// CurrentAssignLease returns the lease currently recorded for asn's
	// holding of prefix, if any. The Update validator reads the current
	// lease from State directly and does not call it.
	CurrentAssignLease(prefix, asn string) (int64, bool)
}

// Snapshot bundles everything a validator may read but never write.
type Snapshot struct {
	State  *state.WorldState
	Graphs *graph.Registry
	Peers  PeerDirectory
	Chain  ChainIndex
	Now    float64 // current time as a Unix timestamp (float seconds)
}
