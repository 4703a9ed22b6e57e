// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx

import (
	"fmt"
	"testing"

	bgpcrypto "github.com/toole-brendan/bgpchain/crypto"
	"github.com/toole-brendan/bgpchain/graph"
	"github.com/toole-brendan/bgpchain/ledger/state"
	"pgregory.net/rapid"
)

// TestLawSumOfSubLeasesNeverExceedsSourceLease checks spec.md §8's
// sum-of-sub-leases law: after an Assign, whatever sequence of Updates is
// submitted against it, the new_lease values of the Updates the validator
// accepts never sum to more than the Assign's source_lease.
func TestLawSumOfSubLeasesNeverExceedsSourceLease(t *testing.T) {
	key, err := bgpcrypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	dir := newFakeDirectory()
	dir.register("8522", key.Public)

	rapid.Check(t, func(rt *rapid.T) {
		sourceLease := rapid.Int64Range(1, 10_000).Draw(rt, "sourceLease")
		leaseDuration := rapid.Int64Range(1, sourceLease).Draw(rt, "leaseDuration")
		destCount := rapid.IntRange(1, 4).Draw(rt, "destCount")

		dests := make([]string, destCount)
		for i := range dests {
			dest := fmt.Sprintf("dest%d", i)
			dests[i] = dest
			dir.register(dest, key.Public)
		}

		st := state.New()
		st.UpsertHolder("10.0.0.0/8", state.LeaseRecord{
			ASN: "8522", LeaseDuration: sourceLease, TransferTag: true, LastAssignTxid: "-1",
		})
		graphs := graph.NewRegistry()
		chainIdx := newFakeChainIndex()

		txn := &Transaction{
			Type:          TypeAssign,
			AsSource:      "8522",
			Time:          1,
			Prefix:        "10.0.0.0/8",
			AsDestList:    dests,
			SourceLease:   sourceLease,
			LeaseDuration: leaseDuration,
			TransferTag:   true,
			LastAssign:    "-1",
		}
		txid, err := txn.DeriveTxid()
		if err != nil {
			rt.Fatalf("derive txid: %v", err)
		}
		txn.Txid = txid
		msg, err := txn.SignBytes()
		if err != nil {
			rt.Fatalf("sign bytes: %v", err)
		}
		sig, err := bgpcrypto.Sign(key.Private, msg)
		if err != nil {
			rt.Fatalf("sign: %v", err)
		}
		txn.Signature = sig

		snap := &Snapshot{State: st, Graphs: graphs, Peers: dir, Chain: chainIdx, Now: 1}
		if err := txn.Validate(snap); err != nil {
			rt.Fatalf("validate: %v", err)
		}
		if err := txn.Apply(st, graphs, chainIdx.FindByTxid); err != nil {
			rt.Fatalf("apply: %v", err)
		}
		chainIdx.add(txn)

		newLeases := rapid.SliceOfN(rapid.Int64Range(1, 2*sourceLease), 1, 5).Draw(rt, "newLeases")
		for i, newLease := range newLeases {
			upd := &Transaction{
				Type:       TypeUpdate,
				AsSource:   "8522",
				Time:       float64(2 + i),
				AssignTxid: txn.Txid,
				NewLease:   newLease,
			}
			updTxid, err := upd.DeriveTxid()
			if err != nil {
				rt.Fatalf("derive update txid: %v", err)
			}
			upd.Txid = updTxid
			updMsg, err := upd.SignBytes()
			if err != nil {
				rt.Fatalf("update sign bytes: %v", err)
			}
			updSig, err := bgpcrypto.Sign(key.Private, updMsg)
			if err != nil {
				rt.Fatalf("sign update: %v", err)
			}
			upd.Signature = updSig

			if err := upd.Validate(snap); err != nil {
				continue // rejected Updates are not chained
			}
			if err := upd.Apply(st, graphs, chainIdx.FindByTxid); err != nil {
				rt.Fatalf("apply update: %v", err)
			}
			chainIdx.add(upd)
		}

		if total := chainIdx.SumUpdateLeases(txn.Txid, ""); total > sourceLease {
			rt.Fatalf("sum of accepted Update leases %d exceeds source_lease %d", total, sourceLease)
		}
	})
}
