// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package graph implements the per-prefix ReachabilityGraph: a directed
// graph whose nodes are ASNs plus the prefix itself as a sink node. It holds
// at most one edge per ordered pair; adding an existing edge again has no
// effect.
// An edge u -> v records "u has announced toward v". The graph is built on
// gonum's simple.DirectedGraph; node labels are strings, mapped internally
// to the int64 IDs gonum requires.
package graph

import (
	"sync"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// Graph is a single prefix's reachability graph, safe for concurrent use.
type Graph struct {
	mu    sync.RWMutex
	g     *simple.DirectedGraph
	ids   map[string]int64
	names map[int64]string
	next  int64
}

// New returns an empty reachability graph.
func New() *Graph {
	return &Graph{
		g:     simple.NewDirectedGraph(),
		ids:   make(map[string]int64),
		names: make(map[int64]string),
	}
}

// idFor returns the gonum node ID for label, creating the node if absent.
// Callers must hold mu.
func (gr *Graph) idFor(label string) int64 {
	if id, ok := gr.ids[label]; ok {
		return id
	}
	id := gr.next
	gr.next++
	gr.ids[label] = id
	gr.names[id] = label
	gr.g.AddNode(simple.Node(id))
	return id
}

// HasNode reports whether label is currently a node of the graph (a node
// deleted by RemoveNode or PruneUnreachable is no longer present).
func (gr *Graph) HasNode(label string) bool {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	_, ok := gr.ids[label]
	return ok
}

// AddEdge inserts the edge u -> v, creating either endpoint if needed.
func (gr *Graph) AddEdge(u, v string) {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	uid, vid := gr.idFor(u), gr.idFor(v)
	if uid == vid {
		return
	}
	gr.g.SetEdge(gr.g.NewEdge(simple.Node(uid), simple.Node(vid)))
}

// HasEdge reports whether u -> v exists.
func (gr *Graph) HasEdge(u, v string) bool {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	uid, uok := gr.ids[u]
	vid, vok := gr.ids[v]
	if !uok || !vok {
		return false
	}
	return gr.g.HasEdgeFromTo(uid, vid)
}

// RemoveEdge deletes u -> v if present.
func (gr *Graph) RemoveEdge(u, v string) {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	uid, uok := gr.ids[u]
	vid, vok := gr.ids[v]
	if !uok || !vok {
		return
	}
	gr.g.RemoveEdge(uid, vid)
}

// RemoveNode deletes label and all incident edges.
func (gr *Graph) RemoveNode(label string) {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	id, ok := gr.ids[label]
	if !ok {
		return
	}
	gr.g.RemoveNode(id)
	delete(gr.ids, label)
	delete(gr.names, id)
}

// Successors returns the labels u has an edge towards.
func (gr *Graph) Successors(u string) []string {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	id, ok := gr.ids[u]
	if !ok {
		return nil
	}
	return gr.nodeLabels(gr.g.From(id))
}

// Predecessors returns the labels that have an edge towards u.
func (gr *Graph) Predecessors(u string) []string {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	id, ok := gr.ids[u]
	if !ok {
		return nil
	}
	return gr.nodeLabels(gr.g.To(id))
}

func (gr *Graph) nodeLabels(it graph.Nodes) []string {
	var out []string
	for it.Next() {
		out = append(out, gr.names[it.Node().ID()])
	}
	return out
}

// Nodes returns every label currently in the graph.
func (gr *Graph) Nodes() []string {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	out := make([]string, 0, len(gr.ids))
	for label := range gr.ids {
		out = append(out, label)
	}
	return out
}

// HasPathTo reports whether a directed path from u to sink exists.
func (gr *Graph) HasPathTo(u, sink string) bool {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	return gr.hasPathToLocked(u, sink)
}

func (gr *Graph) hasPathToLocked(u, sink string) bool {
	if u == sink {
		return true
	}
	uid, uok := gr.ids[u]
	sid, sok := gr.ids[sink]
	if !uok || !sok {
		return false
	}
	found := false
	bf := traverse.BreadthFirst{}
	bf.Walk(gr.g, gr.g.Node(uid), func(n graph.Node, _ int) bool {
		if n.ID() == sid {
			found = true
			return true
		}
		return false
	})
	return found
}

// Clone returns a deep copy suitable for speculative mutation (e.g. loop
// detection on a hypothetical post-apply graph).
func (gr *Graph) Clone() *Graph {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	out := New()
	for label, id := range gr.ids {
		out.ids[label] = id
		out.names[id] = label
		out.g.AddNode(simple.Node(id))
		if id >= out.next {
			out.next = id + 1
		}
	}
	edges := gr.g.Edges()
	for edges.Next() {
		e := edges.Edge()
		out.g.SetEdge(out.g.NewEdge(e.From(), e.To()))
	}
	return out
}

// HasCycleFrom reports whether the subgraph reachable from u (inclusive)
// contains a directed cycle. Detection is confined to that component, per
// spec: loop search is scoped to "components reachable from asSource".
func (gr *Graph) HasCycleFrom(u string) bool {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	uid, ok := gr.ids[u]
	if !ok {
		return false
	}

	reachable := map[int64]bool{uid: true}
	bf := traverse.BreadthFirst{}
	bf.Walk(gr.g, gr.g.Node(uid), func(n graph.Node, _ int) bool {
		reachable[n.ID()] = true
		return false
	})

	sub := simple.NewDirectedGraph()
	for id := range reachable {
		sub.AddNode(simple.Node(id))
	}
	edges := gr.g.Edges()
	for edges.Next() {
		e := edges.Edge()
		if reachable[e.From().ID()] && reachable[e.To().ID()] {
			sub.SetEdge(sub.NewEdge(e.From(), e.To()))
		}
	}

	for _, scc := range topo.TarjanSCC(sub) {
		if len(scc) > 1 {
			return true
		}
		if len(scc) == 1 && sub.HasEdgeFromTo(scc[0].ID(), scc[0].ID()) {
			return true
		}
	}
	return false
}

// ClearOnAssign implements the §4.2 clear-on-assign rule: after ownership
// of prefixSink moves away from source, remove edges that were only useful
// for reaching source, while preserving edges still useful for reaching
// prefixSink. E_src is every edge lying on a path that leads into source;
// E_pref is, among the nodes touched by E_src, every edge leading into
// prefixSink. The result keeps E_src ∩ E_pref (still useful) and drops the
// remainder.
func (gr *Graph) ClearOnAssign(source, prefixSink string) {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	leadsTo := func(target string) map[[2]string]bool {
		out := make(map[[2]string]bool)
		edges := gr.g.Edges()
		for edges.Next() {
			e := edges.Edge()
			uLabel, vLabel := gr.names[e.From().ID()], gr.names[e.To().ID()]
			if vLabel == target || gr.hasPathToLocked(vLabel, target) {
				out[[2]string{uLabel, vLabel}] = true
			}
		}
		return out
	}

	eSrc := leadsTo(source)
	if len(eSrc) == 0 {
		return
	}

	touched := make(map[string]bool)
	for pair := range eSrc {
		touched[pair[0]] = true
		touched[pair[1]] = true
	}

	ePref := make(map[[2]string]bool)
	edges := gr.g.Edges()
	for edges.Next() {
		e := edges.Edge()
		uLabel, vLabel := gr.names[e.From().ID()], gr.names[e.To().ID()]
		if !touched[uLabel] || !touched[vLabel] {
			continue
		}
		if vLabel == prefixSink || gr.hasPathToLocked(vLabel, prefixSink) {
			ePref[[2]string{uLabel, vLabel}] = true
		}
	}

	for pair := range eSrc {
		if ePref[pair] {
			continue
		}
		uid, uok := gr.ids[pair[0]]
		vid, vok := gr.ids[pair[1]]
		if uok && vok {
			gr.g.RemoveEdge(uid, vid)
		}
	}
}

// Edges returns every (u, v) pair currently present, for diagnostics and
// the /topos endpoint.
func (gr *Graph) Edges() [][2]string {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	edges := gr.g.Edges()
	var out [][2]string
	for edges.Next() {
		e := edges.Edge()
		out = append(out, [2]string{gr.names[e.From().ID()], gr.names[e.To().ID()]})
	}
	return out
}

// PruneUnreachable deletes every node, other than sink, from which no
// directed path to sink remains. Used after a BGPWithdraw removes edges.
func (gr *Graph) PruneUnreachable(sink string) {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	for {
		removed := false
		for label := range gr.ids {
			if label == sink {
				continue
			}
			if !gr.hasPathToLocked(label, sink) {
				id := gr.ids[label]
				gr.g.RemoveNode(id)
				delete(gr.ids, label)
				delete(gr.names, id)
				removed = true
			}
		}
		if !removed {
			return
		}
	}
}
