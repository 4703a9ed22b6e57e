// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/toole-brendan/bgpchain/ledger/tx"
)

func TestDedupeSeenThenResetByWithdraw(t *testing.T) {
	d := NewDedupe()
	txn := &tx.Transaction{
		Prefix:       "10.0.0.0/8",
		AsSourceList: []string{"0"},
		AsDestList:   []string{"701"},
	}
	digest := Digest(txn)

	assert.False(t, d.Seen("8522", digest))
	d.Remember("8522", digest)
	assert.True(t, d.Seen("8522", digest))

	d.Reset("8522")
	assert.False(t, d.Seen("8522", digest), "a Withdraw must clear the advertising AS's memo")
}

func TestDigestIndependentOfFieldOrder(t *testing.T) {
	a := &tx.Transaction{Prefix: "p", AsSourceList: []string{"1", "2"}, AsDestList: []string{"9"}}
	b := &tx.Transaction{Prefix: "p", AsSourceList: []string{"2", "1"}, AsDestList: []string{"9"}}
	assert.Equal(t, Digest(a), Digest(b))
}
