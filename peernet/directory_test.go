// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peernet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bgpcrypto "github.com/toole-brendan/bgpchain/crypto"
)

func TestDirectoryPeerByAddrFindsRegisteredPeer(t *testing.T) {
	d := NewDirectory()
	d.AddPeer(Peer{IP: "10.1.1.1", Port: 9001, ASN: "701"})

	p, ok := d.PeerByAddr("10.1.1.1", 9001)
	require.True(t, ok)
	assert.Equal(t, "701", p.ASN)

	_, ok = d.PeerByAddr("10.1.1.1", 9002)
	assert.False(t, ok, "a different port must not match")
}

func TestDirectoryIsKnownPeerAndPublicKeyAreIndependent(t *testing.T) {
	d := NewDirectory()
	assert.False(t, d.IsKnownPeer("8522"))
	_, ok := d.PublicKey("8522")
	assert.False(t, ok)

	keys, err := bgpcrypto.GenerateKeyPair()
	require.NoError(t, err)
	d.SetPublicKey("8522", keys.Public)

	// A registered public key alone does not make an ASN a known peer;
	// peer membership is tracked separately from key material.
	assert.False(t, d.IsKnownPeer("8522"))
	pub, ok := d.PublicKey("8522")
	require.True(t, ok)
	assert.Equal(t, keys.Public, pub)

	d.AddPeer(Peer{IP: "10.0.0.1", Port: 9000, ASN: "8522"})
	assert.True(t, d.IsKnownPeer("8522"))
}

func TestPeerURL(t *testing.T) {
	p := Peer{IP: "192.0.2.1", Port: 8080, ASN: "701"}
	assert.Equal(t, "http://192.0.2.1:8080", p.URL())
}

func TestDirectoryRemovePeerDropsAddressAndKey(t *testing.T) {
	d := NewDirectory()
	keys, err := bgpcrypto.GenerateKeyPair()
	require.NoError(t, err)
	d.AddPeer(Peer{IP: "10.0.0.1", Port: 9000, ASN: "8522"})
	d.SetPublicKey("8522", keys.Public)
	require.True(t, d.IsKnownPeer("8522"))

	d.RemovePeer("8522")

	assert.False(t, d.IsKnownPeer("8522"))
	_, ok := d.PublicKey("8522")
	assert.False(t, ok, "RemovePeer must also drop the stale public key so a rejoin re-registers cleanly")
	_, ok = d.PeerByAddr("10.0.0.1", 9000)
	assert.False(t, ok)
}

func TestDirectoryPeersReturnsIndependentCopy(t *testing.T) {
	d := NewDirectory()
	d.AddPeer(Peer{IP: "10.0.0.1", Port: 9000, ASN: "8522"})

	peers := d.Peers()
	require.Len(t, peers, 1)
	peers[0].ASN = "mutated"

	peers2 := d.Peers()
	require.Len(t, peers2, 1)
	assert.Equal(t, "8522", peers2[0].ASN, "mutating a returned slice must not affect the directory")
}
