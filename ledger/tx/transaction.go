// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package tx implements the five transaction variants of the bgpchain
// ledger (Assign, Revoke, Update, BGPAnnounce, BGPWithdraw), their
// canonical encoding, txid derivation, and per-variant validation/apply
// rules (spec.md §4.1). Validators are pure functions over an immutable
// Snapshot; Apply mutates the supplied world state and reachability graph.
package tx

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Type tags the five transaction variants.
type Type string

const (
	TypeAssign      Type = "assign"
	TypeRevoke      Type = "revoke"
	TypeUpdate      Type = "update"
	TypeBGPAnnounce Type = "bgp_announce"
	TypeBGPWithdraw Type = "bgp_withdraw"
)

// BGPMeta carries the announcement/withdraw metadata the routing ledger
// records alongside each path change (spec.md §3).
type BGPMeta struct {
	Project       string  `json:"project"`
	Collector     string  `json:"collector"`
	ASNPeer       string  `json:"asn_peer"`
	BGPTimestamp  float64 `json:"bgp_timestamp"`
}

// Transaction is the common envelope shared by all five variants, plus the
// variant-specific fields relevant to that Type. Unused fields for a given
// Type are left at their zero value; `omitempty` keeps the wire encoding
// and canonical hash input free of them.
type Transaction struct {
	Type      Type    `json:"type"`
	Txid      string  `json:"txid"`
	AsSource  string  `json:"as_source"`
	Time      float64 `json:"time"`
	Signature []byte  `json:"signature,omitempty"`

	// Assign
	Prefix        string   `json:"prefix,omitempty"`
	AsDestList    []string `json:"as_dest_list,omitempty"`
	SourceLease   int64    `json:"source_lease,omitempty"`
	LeaseDuration int64    `json:"lease_duration,omitempty"`
	TransferTag   bool     `json:"transfer_tag,omitempty"`
	LastAssign    string   `json:"last_assign,omitempty"`

	// Revoke / Update
	AssignTxid string `json:"assign_tran,omitempty"`
	NewLease   int64  `json:"new_lease,omitempty"`

	// BGPAnnounce / BGPWithdraw
	AsSourceList []string `json:"as_source_list,omitempty"`
	BGP          *BGPMeta `json:"bgp_meta,omitempty"`

	// Input/Output are the canonical payload a validator produces on
	// acceptance; Output is re-decoded per Type by Apply and by replay.
	Input  []string        `json:"input,omitempty"`
	Output json.RawMessage `json:"output,omitempty"`
}

// AssignOutput is one entry of an Assign transaction's Output: a new
// sub-holding granted to asDest.
type AssignOutput struct {
	Prefix        string `json:"prefix"`
	ASDest        string `json:"as_dest"`
	LeaseDuration int64  `json:"lease_duration"`
	TransferTag   bool   `json:"transfer_tag"`
}

// RevokeOutput is the single entry of a Revoke transaction's Output:
// asSource's restored parent lease.
type RevokeOutput struct {
	Prefix   string `json:"prefix"`
	ASSource string `json:"as_source"`
	NewLease int64  `json:"new_lease"`
	Restored bool   `json:"restored"`
}

// UpdateOutput is the single entry of an Update transaction's Output.
type UpdateOutput struct {
	Prefix   string `json:"prefix"`
	ASDest   string `json:"as_dest"`
	NewLease int64  `json:"new_lease"`
}

// AnnouncePathOutput is one (asSrc, asDst) path entry of a BGPAnnounce
// transaction's Output.
type AnnouncePathOutput struct {
	Prefix   string `json:"prefix"`
	ASSrc    string `json:"as_src"`
	ASSource string `json:"as_source"`
	ASDst    string `json:"as_dst"`
}

// canonicalSignFields returns the variant-specific fields that, combined
// with AsSource and Time, form the digest signed and hashed into Txid
// (spec.md §4.1 "Common preconditions").
func (t *Transaction) canonicalSignFields() map[string]interface{} {
	switch t.Type {
	case TypeAssign:
		return map[string]interface{}{
			"prefix":         t.Prefix,
			"as_dest_list":   sortedCopy(t.AsDestList),
			"source_lease":   t.SourceLease,
			"lease_duration": t.LeaseDuration,
			"transfer_tag":   t.TransferTag,
			"last_assign":    t.LastAssign,
		}
	case TypeRevoke:
		return map[string]interface{}{"assign_tran": t.AssignTxid}
	case TypeUpdate:
		return map[string]interface{}{
			"assign_tran": t.AssignTxid,
			"new_lease":   t.NewLease,
		}
	case TypeBGPAnnounce:
		return map[string]interface{}{
			"prefix":         t.Prefix,
			"as_source_list": sortedCopy(t.AsSourceList),
			"as_dest_list":   sortedCopy(t.AsDestList),
			"bgp_meta":       t.BGP,
		}
	case TypeBGPWithdraw:
		return map[string]interface{}{
			"prefix":   t.Prefix,
			"bgp_meta": t.BGP,
		}
	default:
		return nil
	}
}

// sortedCopy returns a sorted copy of ss, never mutating the caller's
// slice. spec.md §9 flags that Python's in-place sort() returning None was
// a historical bug here; Go's sort.Strings on a copy avoids the analogue.
func sortedCopy(ss []string) []string {
	out := make([]string, len(ss))
	copy(out, ss)
	sort.Strings(out)
	return out
}

// SignBytes returns the canonical byte string that is SHA-256 hashed into
// Txid and signed: asSource, time, and the variant's key fields, in
// deterministic (sorted-key) JSON.
func (t *Transaction) SignBytes() ([]byte, error) {
	fields := t.canonicalSignFields()
	fields["as_source"] = t.AsSource
	fields["time"] = t.Time
	fields["type"] = string(t.Type)
	return canonicalJSON(fields)
}

// DeriveTxid computes the txid from the current signable fields and
// returns it; it does not set t.Txid, which callers assign themselves.
// The digest is carried as a chainhash.Hash (the teacher's 32-byte hash
// type) but rendered with a plain forward hex encoding: chainhash's own
// String() reverses byte order for Bitcoin's little-endian display
// convention, which this ledger has no reason to inherit.
func (t *Transaction) DeriveTxid() (string, error) {
	b, err := t.SignBytes()
	if err != nil {
		return "", err
	}
	h := chainhash.Hash(sha256.Sum256(b))
	return hex.EncodeToString(h[:]), nil
}

// canonicalJSON marshals v through a sorted-key JSON map, the same
// technique used for block hashing in the chain package: Go's
// encoding/json already emits map keys in sorted order, so round-tripping
// through map[string]interface{} canonicalizes field order for free.
func canonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("tx: canonicalize: %w", err)
	}
	var m interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("tx: canonicalize: %w", err)
	}
	return json.Marshal(m)
}

// DecodeAssignOutput parses Output for an Assign transaction.
func (t *Transaction) DecodeAssignOutput() ([]AssignOutput, error) {
	var out []AssignOutput
	if len(t.Output) == 0 {
		return out, nil
	}
	err := json.Unmarshal(t.Output, &out)
	return out, err
}

// DecodeRevokeOutput parses Output for a Revoke transaction.
func (t *Transaction) DecodeRevokeOutput() (RevokeOutput, error) {
	var out RevokeOutput
	if len(t.Output) == 0 {
		return out, nil
	}
	err := json.Unmarshal(t.Output, &out)
	return out, err
}

// DecodeUpdateOutput parses Output for an Update transaction.
func (t *Transaction) DecodeUpdateOutput() (UpdateOutput, error) {
	var out UpdateOutput
	if len(t.Output) == 0 {
		return out, nil
	}
	err := json.Unmarshal(t.Output, &out)
	return out, err
}

// DecodeAnnounceOutput parses Output for a BGPAnnounce transaction.
func (t *Transaction) DecodeAnnounceOutput() ([]AnnouncePathOutput, error) {
	var out []AnnouncePathOutput
	if len(t.Output) == 0 {
		return out, nil
	}
	err := json.Unmarshal(t.Output, &out)
	return out, err
}

func setOutput(t *Transaction, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("tx: encode output: %w", err)
	}
	t.Output = raw
	return nil
}
