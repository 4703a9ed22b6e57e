// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetCreatesOnFirstUseThenReuses(t *testing.T) {
	r := NewRegistry()
	g1 := r.Get("10.0.0.0/8")
	g1.AddEdge("701", "10.0.0.0/8")

	g2 := r.Get("10.0.0.0/8")
	assert.True(t, g2.HasEdge("701", "10.0.0.0/8"), "Get must return the same graph instance for a known prefix")
}

func TestRegistryPrefixesListsEveryRegisteredGraph(t *testing.T) {
	r := NewRegistry()
	r.Get("10.0.0.0/8")
	r.Get("11.0.0.0/8")

	prefixes := r.Prefixes()
	require.Len(t, prefixes, 2)
	assert.ElementsMatch(t, []string{"10.0.0.0/8", "11.0.0.0/8"}, prefixes)
}

func TestRegistryResetDiscardsAllGraphs(t *testing.T) {
	r := NewRegistry()
	r.Get("10.0.0.0/8").AddEdge("701", "10.0.0.0/8")

	r.Reset()

	assert.Empty(t, r.Prefixes())
	assert.False(t, r.Get("10.0.0.0/8").HasEdge("701", "10.0.0.0/8"), "Reset must drop edges from a prior graph, not return the old instance")
}

func TestRegistrySeedGenesisAddsOneEdgePerHolder(t *testing.T) {
	r := NewRegistry()
	r.SeedGenesis("10.0.0.0/8", []string{"701", "8522"})

	g := r.Get("10.0.0.0/8")
	assert.True(t, g.HasEdge("701", "10.0.0.0/8"))
	assert.True(t, g.HasEdge("8522", "10.0.0.0/8"))
}
