// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	bgpcrypto "github.com/toole-brendan/bgpchain/crypto"
	"github.com/toole-brendan/bgpchain/gossip"
	"github.com/toole-brendan/bgpchain/ledger/tx"
	"github.com/toole-brendan/bgpchain/mempool"
	"github.com/toole-brendan/bgpchain/mining"
	"github.com/toole-brendan/bgpchain/node"
	"github.com/toole-brendan/bgpchain/peernet"
)

// writeJSON encodes v as the response body, logging (but not surfacing)
// any encode failure since the status line is already committed.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error string `json:"error"`
}

// malformed answers a request whose JSON body could not be decoded
// (spec.md §7: "malformed request -> 400, never touches invalidTxids").
func malformed(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
}

// semanticInvalid answers a well-formed but semantically rejected
// transaction: 500, and the txid is remembered so no later block may carry
// it (spec.md §7).
func semanticInvalid(n *node.Node, w http.ResponseWriter, txid string, err error) {
	if txid != "" {
		n.Chain.MarkInvalid(txid)
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
}

func now() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

func snapshotFor(n *node.Node) *tx.Snapshot {
	return &tx.Snapshot{
		State:  n.Chain.State,
		Graphs: n.Chain.Graphs,
		Peers:  n.Directory,
		Chain:  n.Chain,
		Now:    now(),
	}
}

// submissionKind identifies which /transactions/<kind>/new endpoint is
// being served, and how to build that variant's Transaction from its
// request body.
type submissionKind struct {
	txType tx.Type
	decode func(*http.Request, *tx.Transaction) error
}

var submissionAssign = submissionKind{
	txType: tx.TypeAssign,
	decode: func(r *http.Request, t *tx.Transaction) error {
		var body struct {
			Prefix        string   `json:"prefix"`
			AsDestList    []string `json:"as_dest_list"`
			SourceLease   int64    `json:"source_lease"`
			LeaseDuration int64    `json:"lease_duration"`
			TransferTag   bool     `json:"transfer_tag"`
			LastAssign    string   `json:"last_assign"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return err
		}
		t.Prefix = body.Prefix
		t.AsDestList = body.AsDestList
		t.SourceLease = body.SourceLease
		t.LeaseDuration = body.LeaseDuration
		t.TransferTag = body.TransferTag
		t.LastAssign = body.LastAssign
		return nil
	},
}

var submissionRevoke = submissionKind{
	txType: tx.TypeRevoke,
	decode: func(r *http.Request, t *tx.Transaction) error {
		var body struct {
			AssignTxid string `json:"assign_tran"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return err
		}
		t.AssignTxid = body.AssignTxid
		return nil
	},
}

var submissionUpdate = submissionKind{
	txType: tx.TypeUpdate,
	decode: func(r *http.Request, t *tx.Transaction) error {
		var body struct {
			AssignTxid string `json:"assign_tran"`
			NewLease   int64  `json:"new_lease"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return err
		}
		t.AssignTxid = body.AssignTxid
		t.NewLease = body.NewLease
		return nil
	},
}

var submissionBGPAnnounce = submissionKind{
	txType: tx.TypeBGPAnnounce,
	decode: func(r *http.Request, t *tx.Transaction) error {
		var body struct {
			Prefix       string      `json:"prefix"`
			AsSourceList []string    `json:"as_source_list"`
			AsDestList   []string    `json:"as_dest_list"`
			BGP          *tx.BGPMeta `json:"bgp_meta"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return err
		}
		t.Prefix = body.Prefix
		t.AsSourceList = body.AsSourceList
		t.AsDestList = body.AsDestList
		t.BGP = body.BGP
		return nil
	},
}

var submissionBGPWithdraw = submissionKind{
	txType: tx.TypeBGPWithdraw,
	decode: func(r *http.Request, t *tx.Transaction) error {
		var body struct {
			Prefix string      `json:"prefix"`
			BGP    *tx.BGPMeta `json:"bgp_meta"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return err
		}
		t.Prefix = body.Prefix
		t.BGP = body.BGP
		return nil
	},
}

// handleNewTransaction serves a /transactions/<kind>/new endpoint: this
// node synthesizes, signs, validates, pools, and gossips a transaction of
// its own authorship (spec.md §6).
func handleNewTransaction(n *node.Node, kind submissionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "POST required"})
			return
		}
		t := &tx.Transaction{Type: kind.txType, AsSource: n.ASN, Time: now()}
		if err := kind.decode(r, t); err != nil {
			malformed(w, err)
			return
		}

		if t.Type == tx.TypeBGPWithdraw && n.Pool.HasPendingWithdraw(t.Prefix, t.AsSource) {
			semanticInvalid(n, w, "", tx.ErrWithdrawPending)
			return
		}
		if t.Type == tx.TypeBGPAnnounce {
			digest := mempool.Digest(t)
			if n.Dedupe.Seen(t.AsSource, digest) {
				writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate, not re-broadcast"})
				return
			}
		}

		txid, err := t.DeriveTxid()
		if err != nil {
			semanticInvalid(n, w, "", err)
			return
		}
		t.Txid = txid

		signBytes, err := t.SignBytes()
		if err != nil {
			semanticInvalid(n, w, t.Txid, err)
			return
		}
		sig, err := bgpcrypto.Sign(n.Keys.Private, signBytes)
		if err != nil {
			semanticInvalid(n, w, t.Txid, err)
			return
		}
		t.Signature = sig

		if err := t.Validate(snapshotFor(n)); err != nil {
			semanticInvalid(n, w, t.Txid, err)
			return
		}

		if t.Type == tx.TypeAssign {
			n.Chain.AddMyAssignment(t.Txid)
		}
		if t.Type == tx.TypeBGPAnnounce {
			n.Dedupe.Remember(t.AsSource, mempool.Digest(t))
		}
		if t.Type == tx.TypeBGPWithdraw {
			n.Dedupe.Reset(t.AsSource)
		}

		n.Pool.Submit(t)
		gossip.BroadcastTransaction(n, t)
		writeJSON(w, http.StatusOK, t)
	}
}

// handleIncomingTransaction serves the mirrored /transactions/<kind>/incoming
// endpoints: a fully-formed, already-signed transaction arrives from a peer
// and is validated and pooled without being re-broadcast (every node
// gossips directly to every other node, so no relay is needed).
func handleIncomingTransaction(n *node.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "POST required"})
			return
		}
		var t tx.Transaction
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			malformed(w, err)
			return
		}

		if t.Type == tx.TypeBGPAnnounce {
			digest := mempool.Digest(&t)
			if n.Dedupe.Seen(t.AsSource, digest) {
				writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate, ignored"})
				return
			}
		}

		if err := t.Validate(snapshotFor(n)); err != nil {
			semanticInvalid(n, w, t.Txid, err)
			return
		}

		if t.Type == tx.TypeBGPAnnounce {
			n.Dedupe.Remember(t.AsSource, mempool.Digest(&t))
		}
		if t.Type == tx.TypeBGPWithdraw {
			n.Dedupe.Reset(t.AsSource)
		}

		n.Pool.Submit(&t)
		writeJSON(w, http.StatusOK, &t)
	}
}

// findByTxidRequest is the body of POST /transactions/find_by_txid.
type findByTxidRequest struct {
	Txid string `json:"txid"`
}

func handleFindByTxid(n *node.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body findByTxidRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			malformed(w, err)
			return
		}
		t, ok := n.Chain.FindByTxid(body.Txid)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "txid not found"})
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func handleChain(n *node.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blocks := n.Chain.Snapshot()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"chain":  blocks,
			"length": len(blocks),
		})
	}
}

// topoEdge is the wire shape of one reachability-graph edge.
type topoEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func handleTopos(n *node.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make(map[string][]topoEdge)
		for _, prefix := range n.Chain.Graphs.Prefixes() {
			g := n.Chain.Graphs.Get(prefix)
			edges := g.Edges()
			list := make([]topoEdge, 0, len(edges))
			for _, e := range edges {
				list = append(list, topoEdge{From: e[0], To: e[1]})
			}
			out[prefix] = list
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleNeighbors(n *node.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]peernet.Peer{"neighbors": n.Directory.Peers()})
	}
}

// handleRoot serves GET / with ?ip=&port=&asn= query parameters: a joining
// peer registers its address and, in return, learns this node's current
// neighbor set (spec.md §4.5's lightweight discovery path alongside the
// explicit /neighbors endpoint).
func handleRoot(n *node.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		ip, asn := q.Get("ip"), q.Get("asn")
		if ip != "" && asn != "" {
			port, _ := strconv.Atoi(q.Get("port"))
			n.Directory.AddPeer(peernet.Peer{IP: ip, Port: port, ASN: asn})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"asn":       n.ASN,
			"neighbors": n.Directory.Peers(),
		})
	}
}

// publicKeySendResponse is the body of GET /public_key/send.
type publicKeySendResponse struct {
	ASN       string `json:"asn"`
	PublicKey []byte `json:"public_key"`
}

func handlePublicKeySend(n *node.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pub, err := bgpcrypto.MarshalPublicKey(n.Keys.Public)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, publicKeySendResponse{ASN: n.ASN, PublicKey: pub})
	}
}

// publicKeyIncomingRequest is the body of POST /public_key/incoming.
type publicKeyIncomingRequest struct {
	ASN       string `json:"asn"`
	IP        string `json:"ip"`
	Port      int    `json:"port"`
	PublicKey []byte `json:"public_key"`
}

func handlePublicKeyIncoming(n *node.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body publicKeyIncomingRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			malformed(w, err)
			return
		}
		pub, err := bgpcrypto.ParsePublicKey(body.PublicKey)
		if err != nil {
			malformed(w, err)
			return
		}
		n.Directory.SetPublicKey(body.ASN, pub)
		n.Directory.AddPeer(peernet.Peer{IP: body.IP, Port: body.Port, ASN: body.ASN})
		writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
	}
}

// alivePayload mirrors gossip.alivePayload's wire shape.
type alivePayload struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

func handleAlive(n *node.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body alivePayload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			malformed(w, err)
			return
		}
		gossip.HandleAliveProbe(n, body.IP, body.Port)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleMine(n *node.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		block, err := mining.Mine(n)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
		if block == nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"mined": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"mined": true, "block": block})
	}
}

func handleResolve(n *node.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		replaced, err := gossip.ResolveConflicts(n)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"replaced": replaced,
			"length":   n.Chain.Len(),
		})
	}
}
