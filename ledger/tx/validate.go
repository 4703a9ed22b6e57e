// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx

import (
	"errors"
	"fmt"
	"sort"

	"github.com/toole-brendan/bgpchain/chaincfg"
	bgpcrypto "github.com/toole-brendan/bgpchain/crypto"
)

// Sentinel validation errors. Any of these causes a transaction to be
// rejected at ingest (spec.md §7: semantic invalid -> 500, remembered in
// invalidTxids).
var (
	ErrUnknownPeer      = errors.New("tx: asSource is not a known peer")
	ErrBadSignature     = errors.New("tx: signature does not verify")
	ErrNoSuchHolding    = errors.New("tx: asSource does not currently hold the prefix")
	ErrLeaseMismatch    = errors.New("tx: lease fields do not match the held record")
	ErrUnknownDest      = errors.New("tx: as_dest_list contains an unknown peer")
	ErrNoSuchAssign     = errors.New("tx: referenced Assign does not exist in the chain")
	ErrNotExpired       = errors.New("tx: Revoke submitted before lease expiry")
	ErrLeaseExpired     = errors.New("tx: Update submitted after lease expiry")
	ErrWrongSource      = errors.New("tx: asSource does not match the Assign's source")
	ErrDestNotHolding   = errors.New("tx: a destination AS no longer holds the prefix")
	ErrLeaseNotGreater  = errors.New("tx: new_lease must exceed the current lease")
	ErrLeaseExceeds     = errors.New("tx: new_lease exceeds the Assign's source_lease")
	ErrLeaseSumExceeds  = errors.New("tx: sum of Update leases exceeds source_lease")
	ErrBadAnnouncePath  = errors.New("tx: asSourceList does not match the current graph successors")
	ErrWouldCycle       = errors.New("tx: announcement would introduce a reachability cycle")
	ErrWithdrawPending  = errors.New("tx: withdraw already lodged for this (prefix, asSource) in the pending pool")
	ErrNotReachable     = errors.New("tx: asSource is not currently reachable to prefix")
	ErrWrongTxType      = errors.New("tx: validator called for wrong transaction type")
)

// verifySignature checks the "common preconditions" of spec.md §4.1: the
// signature verifies under asSource's public key, and asSource is known.
func verifySignature(t *Transaction, snap *Snapshot) error {
	if !snap.Peers.IsKnownPeer(t.AsSource) {
		return ErrUnknownPeer
	}
	pub, ok := snap.Peers.PublicKey(t.AsSource)
	if !ok {
		return ErrUnknownPeer
	}
	msg, err := t.SignBytes()
	if err != nil {
		return err
	}
	if err := bgpcrypto.Verify(pub, msg, t.Signature); err != nil {
		return ErrBadSignature
	}
	return nil
}

// Validate checks t against snap and, on success, populates t.Output (and
// t.Input where spec.md records one). It never mutates snap.
func (t *Transaction) Validate(snap *Snapshot) error {
	if err := verifySignature(t, snap); err != nil {
		return err
	}
	switch t.Type {
	case TypeAssign:
		return t.validateAssign(snap)
	case TypeRevoke:
		return t.validateRevoke(snap)
	case TypeUpdate:
		return t.validateUpdate(snap)
	case TypeBGPAnnounce:
		return t.validateBGPAnnounce(snap)
	case TypeBGPWithdraw:
		return t.validateBGPWithdraw(snap)
	default:
		return fmt.Errorf("tx: unknown transaction type %q", t.Type)
	}
}

func (t *Transaction) validateAssign(snap *Snapshot) error {
	holders := snap.State.Holders(t.Prefix)
	idx := holders.IndexOf(t.AsSource)
	if idx < 0 {
		return ErrNoSuchHolding
	}
	rec := holders[idx]
	if rec.LeaseDuration < t.LeaseDuration || rec.LeaseDuration != t.SourceLease || !rec.TransferTag {
		return ErrLeaseMismatch
	}
	if rec.LastAssignTxid != t.LastAssign {
		return ErrLeaseMismatch
	}
	for _, dest := range t.AsDestList {
		if !snap.Peers.IsKnownPeer(dest) {
			return ErrUnknownDest
		}
	}

	out := make([]AssignOutput, 0, len(t.AsDestList))
	for _, dest := range t.AsDestList {
		out = append(out, AssignOutput{
			Prefix:        t.Prefix,
			ASDest:        dest,
			LeaseDuration: t.LeaseDuration,
			TransferTag:   t.TransferTag,
		})
	}
	t.Input = []string{t.AsSource}
	return setOutput(t, out)
}

func (t *Transaction) validateRevoke(snap *Snapshot) error {
	assign, ok := snap.Chain.FindByTxid(t.AssignTxid)
	if !ok || assign.Type != TypeAssign {
		return ErrNoSuchAssign
	}
	if assign.AsSource != t.AsSource {
		return ErrWrongSource
	}
	expiry := assign.Time + chaincfg.LeaseSeconds(assign.LeaseDuration)
	if snap.Now < expiry {
		return ErrNotExpired
	}
	holders := snap.State.Holders(assign.Prefix)
	for _, dest := range assign.AsDestList {
		if holders.IndexOf(dest) < 0 {
			return ErrDestNotHolding
		}
	}

	newLease := assign.SourceLease - assign.LeaseDuration
	out := RevokeOutput{
		Prefix:   assign.Prefix,
		ASSource: t.AsSource,
		NewLease: newLease,
		Restored: true,
	}
	t.Input = []string{t.AssignTxid}
	return setOutput(t, out)
}

func (t *Transaction) validateUpdate(snap *Snapshot) error {
	assign, ok := snap.Chain.FindByTxid(t.AssignTxid)
	if !ok || assign.Type != TypeAssign {
		return ErrNoSuchAssign
	}
	expiry := assign.Time + chaincfg.LeaseSeconds(assign.LeaseDuration)
	if snap.Now >= expiry {
		return ErrLeaseExpired
	}
	if assign.AsSource != t.AsSource {
		return ErrWrongSource
	}

	var asDest string
	var current int64
	found := false
	for _, out := range mustAssignOutputs(assign) {
		if rec, ok := snap.State.FindHolder(assign.Prefix, out.ASDest); ok {
			asDest = out.ASDest
			current = rec.LeaseDuration
			found = true
			break
		}
	}
	if !found {
		return ErrDestNotHolding
	}
	if t.NewLease <= current {
		return ErrLeaseNotGreater
	}
	if t.NewLease > assign.SourceLease {
		return ErrLeaseExceeds
	}
	priorSum := snap.Chain.SumUpdateLeases(t.AssignTxid, t.Txid)
	if priorSum+t.NewLease > assign.SourceLease {
		return ErrLeaseSumExceeds
	}

	out := UpdateOutput{Prefix: assign.Prefix, ASDest: asDest, NewLease: t.NewLease}
	t.Input = []string{t.AssignTxid}
	return setOutput(t, out)
}

// mustAssignOutputs decodes an Assign's Output, returning nil on error
// (validators treat a malformed chained Assign as holding nothing).
func mustAssignOutputs(assign *Transaction) []AssignOutput {
	out, err := assign.DecodeAssignOutput()
	if err != nil {
		return nil
	}
	return out
}

func (t *Transaction) validateBGPAnnounce(snap *Snapshot) error {
	g := snap.Graphs.Get(t.Prefix)

	switch {
	case len(t.AsSourceList) == 1 && t.AsSourceList[0] == chaincfg.SelfOriginASN:
		if !g.HasEdge(t.AsSource, t.Prefix) {
			return ErrBadAnnouncePath
		}
	case len(t.AsSourceList) > 1 && t.AsSourceList[0] == chaincfg.SelfOriginASN:
		if !g.HasEdge(t.AsSource, t.Prefix) {
			return ErrBadAnnouncePath
		}
		want := append(append([]string{}, t.AsSourceList[1:]...), t.Prefix)
		if !sameSet(g.Successors(t.AsSource), want) {
			return ErrBadAnnouncePath
		}
	default:
		if !sameSet(g.Successors(t.AsSource), t.AsSourceList) {
			return ErrBadAnnouncePath
		}
	}

	for _, asn := range t.AsSourceList {
		if asn != chaincfg.SelfOriginASN && !snap.Peers.IsKnownPeer(asn) {
			return ErrUnknownDest
		}
	}
	for _, asn := range t.AsDestList {
		if !snap.Peers.IsKnownPeer(asn) {
			return ErrUnknownDest
		}
	}

	sim := g.Clone()
	var paths []AnnouncePathOutput
	for _, asSrc := range t.AsSourceList {
		for _, asDst := range t.AsDestList {
			paths = append(paths, AnnouncePathOutput{
				Prefix:   t.Prefix,
				ASSrc:    asSrc,
				ASSource: t.AsSource,
				ASDst:    asDst,
			})
			if asSrc == chaincfg.SelfOriginASN {
				sim.AddEdge(t.AsSource, t.Prefix)
				sim.AddEdge(asDst, t.AsSource)
			} else {
				sim.AddEdge(t.AsSource, asSrc)
				sim.AddEdge(asDst, t.AsSource)
			}
		}
	}
	if sim.HasCycleFrom(t.AsSource) {
		return ErrWouldCycle
	}

	t.Input = []string{t.AsSource}
	return setOutput(t, paths)
}

func (t *Transaction) validateBGPWithdraw(snap *Snapshot) error {
	g := snap.Graphs.Get(t.Prefix)
	if !g.HasPathTo(t.AsSource, t.Prefix) {
		return ErrNotReachable
	}
	t.Input = []string{t.AsSource}
	return nil
}

// sameSet reports set equality under sorted comparison, never mutating
// either input (spec.md §9's historical `sort()`-as-`None` pitfall).
func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := sortedCopy(a), sortedCopy(b)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
