// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package api implements the HTTP/JSON gossip surface of spec.md §6: the
// five transaction submission endpoints and their mirrored /incoming
// ingestion counterparts, chain/topology introspection, peer bootstrap and
// liveness, and the mine/resolve triggers.
package api

import (
	"net/http"

	"github.com/toole-brendan/bgpchain/node"
)

// NewServer builds the HTTP handler for n's full endpoint surface.
func NewServer(n *node.Node) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", handleRoot(n))
	mux.HandleFunc("/neighbors", handleNeighbors(n))
	mux.HandleFunc("/chain", handleChain(n))
	mux.HandleFunc("/topos", handleTopos(n))
	mux.HandleFunc("/mine", handleMine(n))
	mux.HandleFunc("/resolve", handleResolve(n))
	mux.HandleFunc("/alive", handleAlive(n))
	mux.HandleFunc("/public_key/send", handlePublicKeySend(n))
	mux.HandleFunc("/public_key/incoming", handlePublicKeyIncoming(n))
	mux.HandleFunc("/transactions/find_by_txid", handleFindByTxid(n))

	mux.HandleFunc("/transactions/assign/new", handleNewTransaction(n, submissionAssign))
	mux.HandleFunc("/transactions/revoke/new", handleNewTransaction(n, submissionRevoke))
	mux.HandleFunc("/transactions/update/new", handleNewTransaction(n, submissionUpdate))
	mux.HandleFunc("/transactions/bgp_announce/new", handleNewTransaction(n, submissionBGPAnnounce))
	mux.HandleFunc("/transactions/bgp_withdraw/new", handleNewTransaction(n, submissionBGPWithdraw))

	mux.HandleFunc("/transactions/assign/incoming", handleIncomingTransaction(n))
	mux.HandleFunc("/transactions/revoke/incoming", handleIncomingTransaction(n))
	mux.HandleFunc("/transactions/update/incoming", handleIncomingTransaction(n))
	mux.HandleFunc("/transactions/bgp_announce/incoming", handleIncomingTransaction(n))
	mux.HandleFunc("/transactions/bgp_withdraw/incoming", handleIncomingTransaction(n))

	return mux
}
