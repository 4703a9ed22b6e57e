// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bgpcrypto "github.com/toole-brendan/bgpchain/crypto"
	"github.com/toole-brendan/bgpchain/ledger/tx"
	"github.com/toole-brendan/bgpchain/peernet"
)

// buildSignedAssignBlock mines and signs a single-transaction block
// granting part of 8522's genesis holding to 701.
func buildSignedAssignBlock(t *testing.T, prev *Block, keys *bgpcrypto.KeyPair, dir *peernet.Directory) *Block {
	t.Helper()

	txn := &tx.Transaction{
		Type:          tx.TypeAssign,
		AsSource:      "8522",
		Time:          1000,
		Prefix:        "10.0.0.0/8",
		AsDestList:    []string{"701"},
		SourceLease:   1000,
		LeaseDuration: 500,
		TransferTag:   true,
		LastAssign:    "-1",
	}
	txid, err := txn.DeriveTxid()
	require.NoError(t, err)
	txn.Txid = txid
	msg, err := txn.SignBytes()
	require.NoError(t, err)
	sig, err := bgpcrypto.Sign(keys.Private, msg)
	require.NoError(t, err)
	txn.Signature = sig

	b := &Block{
		Index:        prev.Index + 1,
		Timestamp:    1001,
		PreviousHash: prev.Hash,
		MinerASN:     "8522",
		Transactions: []*tx.Transaction{txn},
	}
	require.NoError(t, b.MineNonce())

	blockSig, err := bgpcrypto.Sign(keys.Private, []byte(b.Hash))
	require.NoError(t, err)
	b.Signature = blockSig
	return b
}

func newTestDirectory(t *testing.T) (*peernet.Directory, *bgpcrypto.KeyPair) {
	t.Helper()
	keys, err := bgpcrypto.GenerateKeyPair()
	require.NoError(t, err)
	dir := peernet.NewDirectory()
	dir.SetPublicKey("8522", keys.Public)
	dir.SetPublicKey("701", keys.Public)
	dir.AddPeer(peernet.Peer{IP: "127.0.0.1", Port: 9000, ASN: "8522"})
	dir.AddPeer(peernet.Peer{IP: "127.0.0.1", Port: 9001, ASN: "701"})
	return dir, keys
}

func verifySig(dir *peernet.Directory) func(asn string, msg, sig []byte) error {
	return func(asn string, msg, sig []byte) error {
		pub, ok := dir.PublicKey(asn)
		if !ok {
			return errors.New("unknown asn")
		}
		return bgpcrypto.Verify(pub, msg, sig)
	}
}

func TestAppendBlockThenReplayAgree(t *testing.T) {
	dir, keys := newTestDirectory(t)
	genesis, err := BuildGenesisBlock(GenesisHoldings{"8522": {"10.0.0.0/8"}})
	require.NoError(t, err)

	c := New(genesis, dir, nil)
	b1 := buildSignedAssignBlock(t, genesis, keys, dir)

	require.NoError(t, c.AppendBlock(b1, verifySig(dir)))

	rec, ok := c.State.FindHolder("10.0.0.0/8", "701")
	require.True(t, ok)
	assert.Equal(t, int64(500), rec.LeaseDuration)

	expired, err := c.Replay()
	require.NoError(t, err)
	assert.Empty(t, expired)

	// Replay must reconstruct exactly the same state AppendBlock produced.
	rec2, ok := c.State.FindHolder("10.0.0.0/8", "701")
	require.True(t, ok)
	assert.Equal(t, rec, rec2)
}

func TestValidateRejectsBadProofOfWork(t *testing.T) {
	dir, keys := newTestDirectory(t)
	genesis, err := BuildGenesisBlock(GenesisHoldings{"8522": {"10.0.0.0/8"}})
	require.NoError(t, err)
	c := New(genesis, dir, nil)

	b1 := buildSignedAssignBlock(t, genesis, keys, dir)
	b1.Nonce++ // invalidates the mined hash without recomputing it
	b1.Hash = "0000deadbeef"

	err = c.Validate([]*Block{genesis, b1}, verifySig(dir))
	assert.Error(t, err)
}

func TestReplaceWithLockRequiresStrictlyLonger(t *testing.T) {
	dir, keys := newTestDirectory(t)
	genesis, err := BuildGenesisBlock(GenesisHoldings{"8522": {"10.0.0.0/8"}})
	require.NoError(t, err)
	c := New(genesis, dir, nil)
	b1 := buildSignedAssignBlock(t, genesis, keys, dir)
	require.NoError(t, c.AppendBlock(b1, verifySig(dir)))

	replaced, _, err := c.ReplaceWithLock([]*Block{genesis})
	require.NoError(t, err)
	assert.False(t, replaced, "a candidate no longer than the local chain must never replace it")
}
