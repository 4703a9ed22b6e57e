// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPeersSkipsHeaderRow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bgp_network.csv")
	contents := "ip,port,asn\n10.0.0.1,9000,8522\n10.0.0.2,9001,701\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	peers, err := LoadPeers(path)
	require.NoError(t, err)
	require.Len(t, peers, 2)
	assert.Equal(t, "8522", peers[0].ASN)
	assert.Equal(t, 9000, peers[0].Port)
	assert.Equal(t, "701", peers[1].ASN)
}

func TestLoadPeersHeaderOnlyYieldsNoPeers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bgp_network.csv")
	require.NoError(t, os.WriteFile(path, []byte("ip,port,asn\n"), 0o644))

	peers, err := LoadPeers(path)
	require.NoError(t, err)
	assert.Empty(t, peers)
}
