// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bootstrap loads the two files a node needs before it can join
// the network: the seed peer list (bgp_network.csv) and the genesis
// prefix/AS holdings map (spec.md §1, "out of scope" producers whose
// output this ledger consumes as fixed input).
package bootstrap

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/toole-brendan/bgpchain/chain"
	"github.com/toole-brendan/bgpchain/peernet"
)

// LoadPeers parses a CSV file of "ip,port,asn" rows into seed peers.
func LoadPeers(path string) ([]peernet.Peer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	r.TrimLeadingSpace = true

	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("bootstrap: read header of %s: %w", path, err)
	}

	var peers []peernet.Peer
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bootstrap: read %s: %w", path, err)
		}
		port, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("bootstrap: bad port %q in %s: %w", rec[1], path, err)
		}
		peers = append(peers, peernet.Peer{IP: rec[0], Port: port, ASN: rec[2]})
	}
	return peers, nil
}

// LoadGenesisHoldings parses the AS->prefixes bootstrap map from a JSON
// file of the shape {"asn": ["prefix", ...], ...}.
func LoadGenesisHoldings(path string) (chain.GenesisHoldings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open %s: %w", path, err)
	}
	var holdings chain.GenesisHoldings
	if err := json.Unmarshal(raw, &holdings); err != nil {
		return nil, fmt.Errorf("bootstrap: decode %s: %w", path, err)
	}
	return holdings, nil
}
