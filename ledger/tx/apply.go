// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx

import (
	"fmt"

	"github.com/toole-brendan/bgpchain/chaincfg"
	"github.com/toole-brendan/bgpchain/graph"
	"github.com/toole-brendan/bgpchain/ledger/state"
)

// Lookup resolves a txid to its transaction, as recorded in the chain.
// Apply needs it only for Revoke, to recover the original Assign's
// destination list.
type Lookup func(txid string) (*Transaction, bool)

// Apply mutates st and the prefix's reachability graph according to t's
// already-validated Output. It is the single per-variant applier spec.md
// §9 calls for in place of type-based dynamic dispatch.
func (t *Transaction) Apply(st *state.WorldState, graphs *graph.Registry, find Lookup) error {
	switch t.Type {
	case TypeAssign:
		return t.applyAssign(st, graphs)
	case TypeRevoke:
		return t.applyRevoke(st, graphs, find)
	case TypeUpdate:
		return t.applyUpdate(st)
	case TypeBGPAnnounce:
		return t.applyBGPAnnounce(graphs)
	case TypeBGPWithdraw:
		return t.applyBGPWithdraw(graphs)
	default:
		return fmt.Errorf("tx: apply: unknown type %q", t.Type)
	}
}

func (t *Transaction) applyAssign(st *state.WorldState, graphs *graph.Registry) error {
	outs, err := t.DecodeAssignOutput()
	if err != nil {
		return err
	}
	st.RemoveHolder(t.Prefix, t.AsSource)
	for _, o := range outs {
		if _, ok := st.FindHolder(t.Prefix, o.ASDest); ok {
			continue
		}
		st.UpsertHolder(t.Prefix, state.LeaseRecord{
			ASN:            o.ASDest,
			LeaseDuration:  o.LeaseDuration,
			TransferTag:    o.TransferTag,
			LastAssignTxid: t.Txid,
		})
	}

	g := graphs.Get(t.Prefix)
	g.ClearOnAssign(t.AsSource, t.Prefix)
	for _, o := range outs {
		g.AddEdge(o.ASDest, t.Prefix)
	}
	return nil
}

func (t *Transaction) applyRevoke(st *state.WorldState, graphs *graph.Registry, find Lookup) error {
	out, err := t.DecodeRevokeOutput()
	if err != nil {
		return err
	}
	prefix := out.Prefix
	g := graphs.Get(prefix)

	if assign, ok := find(t.AssignTxid); ok {
		for _, d := range assign.AsDestList {
			st.RemoveHolder(prefix, d)
			g.ClearOnAssign(d, prefix)
		}
	}
	st.UpsertHolder(prefix, state.LeaseRecord{
		ASN:            out.ASSource,
		LeaseDuration:  out.NewLease,
		TransferTag:    true,
		LastAssignTxid: t.AssignTxid,
	})
	g.AddEdge(out.ASSource, prefix)
	return nil
}

func (t *Transaction) applyUpdate(st *state.WorldState) error {
	out, err := t.DecodeUpdateOutput()
	if err != nil {
		return err
	}
	rec, ok := st.FindHolder(out.Prefix, out.ASDest)
	if !ok {
		return ErrDestNotHolding
	}
	rec.LeaseDuration = out.NewLease
	st.UpsertHolder(out.Prefix, rec)
	return nil
}

func (t *Transaction) applyBGPAnnounce(graphs *graph.Registry) error {
	paths, err := t.DecodeAnnounceOutput()
	if err != nil {
		return err
	}
	g := graphs.Get(t.Prefix)
	for _, p := range paths {
		if p.ASSrc == chaincfg.SelfOriginASN {
			g.AddEdge(p.ASSource, t.Prefix)
			g.AddEdge(p.ASDst, p.ASSource)
		} else {
			g.AddEdge(p.ASSource, p.ASSrc)
			g.AddEdge(p.ASDst, p.ASSource)
		}
	}
	return nil
}

func (t *Transaction) applyBGPWithdraw(graphs *graph.Registry) error {
	g := graphs.Get(t.Prefix)
	for _, pred := range g.Predecessors(t.AsSource) {
		g.RemoveEdge(pred, t.AsSource)
	}
	g.PruneUnreachable(t.Prefix)
	return nil
}
