// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package gossip implements the outbound side of peer communication: the
// resolveConflicts consensus driver, transaction/resolve/alive/public-key
// broadcast (new blocks spread through the resolve broadcast),
// join/bootstrap, and the automatic Revoke a node emits when replay shows
// one of its own Assigns has expired (spec.md §4.3-§4.5).
package gossip

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/toole-brendan/bgpchain/node"
)

// getJSON performs an HTTP GET against url and decodes the JSON response
// into out. Per spec.md §5/§7, peer unreachability is never fatal: callers
// log and continue.
func getJSON(n *node.Node, url string, out interface{}) error {
	resp, err := n.HTTP.Get(url)
	if err != nil {
		return fmt.Errorf("gossip: GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gossip: GET %s: status %d: %s", url, resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// postJSON performs an HTTP POST of body (JSON-encoded) against url.
func postJSON(n *node.Node, url string, body interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("gossip: encode body for %s: %w", url, err)
	}
	resp, err := n.HTTP.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("gossip: POST %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gossip: POST %s: status %d: %s", url, resp.StatusCode, respBody)
	}
	return nil
}
