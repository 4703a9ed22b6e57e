// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx

import (
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toole-brendan/bgpchain/chaincfg"
	bgpcrypto "github.com/toole-brendan/bgpchain/crypto"
	"github.com/toole-brendan/bgpchain/graph"
	"github.com/toole-brendan/bgpchain/ledger/state"
)

// fakeDirectory is a minimal in-memory PeerDirectory for tests.
type fakeDirectory struct {
	keys map[string]*rsa.PublicKey
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{keys: make(map[string]*rsa.PublicKey)}
}

func (d *fakeDirectory) register(asn string, pub *rsa.PublicKey) {
	d.keys[asn] = pub
}

func (d *fakeDirectory) IsKnownPeer(asn string) bool {
	_, ok := d.keys[asn]
	return ok
}

func (d *fakeDirectory) PublicKey(asn string) (*rsa.PublicKey, bool) {
	pub, ok := d.keys[asn]
	return pub, ok
}

// fakeChainIndex is a minimal in-memory ChainIndex for tests.
type fakeChainIndex struct {
	byTxid map[string]*Transaction
}

func newFakeChainIndex() *fakeChainIndex {
	return &fakeChainIndex{byTxid: make(map[string]*Transaction)}
}

func (c *fakeChainIndex) add(t *Transaction) {
	c.byTxid[t.Txid] = t
}

func (c *fakeChainIndex) FindByTxid(txid string) (*Transaction, bool) {
	t, ok := c.byTxid[txid]
	return t, ok
}

func (c *fakeChainIndex) SumUpdateLeases(assignTxid, excludeTxid string) int64 {
	var sum int64
	for _, t := range c.byTxid {
		if t.Type != TypeUpdate || t.AssignTxid != assignTxid || t.Txid == excludeTxid {
			continue
		}
		out, err := t.DecodeUpdateOutput()
		if err != nil {
			continue
		}
		sum += out.NewLease
	}
	return sum
}

func (c *fakeChainIndex) CurrentAssignLease(prefix, asn string) (int64, bool) {
	return 0, false
}

// signedAssign builds and signs a ready-to-validate Assign transaction
// from as8522 to as701, matching spec.md §8 scenario 1's genesis holding.
func signedAssign(t *testing.T, key *bgpcrypto.KeyPair, sourceLease, leaseDuration int64) *Transaction {
	t.Helper()
	txn := &Transaction{
		Type:          TypeAssign,
		AsSource:      "8522",
		Time:          1000,
		Prefix:        "10.0.0.0/8",
		AsDestList:    []string{"701"},
		SourceLease:   sourceLease,
		LeaseDuration: leaseDuration,
		TransferTag:   true,
		LastAssign:    "-1",
	}
	txid, err := txn.DeriveTxid()
	require.NoError(t, err)
	txn.Txid = txid

	msg, err := txn.SignBytes()
	require.NoError(t, err)
	sig, err := bgpcrypto.Sign(key.Private, msg)
	require.NoError(t, err)
	txn.Signature = sig
	return txn
}

func TestAssignValidateAndApply(t *testing.T) {
	key, err := bgpcrypto.GenerateKeyPair()
	require.NoError(t, err)

	dir := newFakeDirectory()
	dir.register("8522", key.Public)
	dir.register("701", key.Public)

	st := state.New()
	st.UpsertHolder("10.0.0.0/8", state.LeaseRecord{
		ASN: "8522", LeaseDuration: 1000, TransferTag: true, LastAssignTxid: "-1",
	})
	graphs := graph.NewRegistry()
	graphs.Get("10.0.0.0/8").AddEdge("8522", "10.0.0.0/8")
	chainIdx := newFakeChainIndex()

	txn := signedAssign(t, key, 1000, 500)
	snap := &Snapshot{State: st, Graphs: graphs, Peers: dir, Chain: chainIdx, Now: 1000}

	require.NoError(t, txn.Validate(snap))
	chainIdx.add(txn)

	require.NoError(t, txn.Apply(st, graphs, chainIdx.FindByTxid))

	rec, ok := st.FindHolder("10.0.0.0/8", "701")
	require.True(t, ok)
	assert.Equal(t, int64(500), rec.LeaseDuration)
	assert.Equal(t, txn.Txid, rec.LastAssignTxid)

	_, stillSource := st.FindHolder("10.0.0.0/8", "8522")
	assert.False(t, stillSource, "asSource's own holding is consumed by Assign")

	g := graphs.Get("10.0.0.0/8")
	assert.True(t, g.HasEdge("701", "10.0.0.0/8"))
}

func TestAssignRejectsLeaseMismatch(t *testing.T) {
	key, err := bgpcrypto.GenerateKeyPair()
	require.NoError(t, err)
	dir := newFakeDirectory()
	dir.register("8522", key.Public)
	dir.register("701", key.Public)

	st := state.New()
	st.UpsertHolder("10.0.0.0/8", state.LeaseRecord{
		ASN: "8522", LeaseDuration: 1000, TransferTag: true, LastAssignTxid: "-1",
	})
	graphs := graph.NewRegistry()
	chainIdx := newFakeChainIndex()

	txn := signedAssign(t, key, 999, 500) // sourceLease doesn't match held record
	snap := &Snapshot{State: st, Graphs: graphs, Peers: dir, Chain: chainIdx, Now: 1000}

	assert.ErrorIs(t, txn.Validate(snap), ErrLeaseMismatch)
}

func TestRevokeRequiresExpiry(t *testing.T) {
	key, err := bgpcrypto.GenerateKeyPair()
	require.NoError(t, err)
	dir := newFakeDirectory()
	dir.register("8522", key.Public)
	dir.register("701", key.Public)

	st := state.New()
	st.UpsertHolder("10.0.0.0/8", state.LeaseRecord{
		ASN: "8522", LeaseDuration: 1000, TransferTag: true, LastAssignTxid: "-1",
	})
	graphs := graph.NewRegistry()
	chainIdx := newFakeChainIndex()

	assign := signedAssign(t, key, 1000, 500)
	snap := &Snapshot{State: st, Graphs: graphs, Peers: dir, Chain: chainIdx, Now: 1000}
	require.NoError(t, assign.Validate(snap))
	chainIdx.add(assign)
	require.NoError(t, assign.Apply(st, graphs, chainIdx.FindByTxid))

	revoke := &Transaction{
		Type:       TypeRevoke,
		AsSource:   "8522",
		Time:       1500, // well before the lease's expiry
		AssignTxid: assign.Txid,
	}
	txid, err := revoke.DeriveTxid()
	require.NoError(t, err)
	revoke.Txid = txid
	msg, err := revoke.SignBytes()
	require.NoError(t, err)
	sig, err := bgpcrypto.Sign(key.Private, msg)
	require.NoError(t, err)
	revoke.Signature = sig

	revokeSnap := &Snapshot{State: st, Graphs: graphs, Peers: dir, Chain: chainIdx, Now: 1500}
	assert.ErrorIs(t, revoke.Validate(revokeSnap), ErrNotExpired)
}

func TestRevokeRestoresAssignTxidOnSourceRecord(t *testing.T) {
	key, err := bgpcrypto.GenerateKeyPair()
	require.NoError(t, err)
	dir := newFakeDirectory()
	dir.register("8522", key.Public)
	dir.register("701", key.Public)

	st := state.New()
	st.UpsertHolder("10.0.0.0/8", state.LeaseRecord{
		ASN: "8522", LeaseDuration: 1000, TransferTag: true, LastAssignTxid: "-1",
	})
	graphs := graph.NewRegistry()
	chainIdx := newFakeChainIndex()

	assign := signedAssign(t, key, 1000, 500)
	snap := &Snapshot{State: st, Graphs: graphs, Peers: dir, Chain: chainIdx, Now: 1000}
	require.NoError(t, assign.Validate(snap))
	chainIdx.add(assign)
	require.NoError(t, assign.Apply(st, graphs, chainIdx.FindByTxid))

	expiry := assign.Time + chaincfg.LeaseSeconds(assign.LeaseDuration)
	revoke := &Transaction{
		Type:       TypeRevoke,
		AsSource:   "8522",
		Time:       expiry + 1,
		AssignTxid: assign.Txid,
	}
	txid, err := revoke.DeriveTxid()
	require.NoError(t, err)
	revoke.Txid = txid
	msg, err := revoke.SignBytes()
	require.NoError(t, err)
	sig, err := bgpcrypto.Sign(key.Private, msg)
	require.NoError(t, err)
	revoke.Signature = sig

	revokeSnap := &Snapshot{State: st, Graphs: graphs, Peers: dir, Chain: chainIdx, Now: revoke.Time}
	require.NoError(t, revoke.Validate(revokeSnap))
	require.NoError(t, revoke.Apply(st, graphs, chainIdx.FindByTxid))

	rec, ok := st.FindHolder("10.0.0.0/8", "8522")
	require.True(t, ok)
	assert.Equal(t, assign.Txid, rec.LastAssignTxid, "a Revoke must carry the original Assign's txid forward, not the genesis sentinel")
}

func TestSortedCopyDoesNotMutateInput(t *testing.T) {
	in := []string{"701", "200", "8522"}
	out := sortedCopy(in)
	assert.Equal(t, []string{"200", "701", "8522"}, out)
	assert.Equal(t, []string{"701", "200", "8522"}, in, "sortedCopy must not mutate its argument")
}
