// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"encoding/json"
	"fmt"

	"github.com/toole-brendan/bgpchain/chaincfg"
	"github.com/toole-brendan/bgpchain/ledger/state"
	"github.com/toole-brendan/bgpchain/ledger/tx"
)

// GenesisHoldings is the bootstrap (AS -> set<prefix>) map consumed from
// the prefix/AS bootstrap producer named in spec.md §1 as out of scope.
type GenesisHoldings map[string][]string

// genesisLeaseDuration and genesisTransferTag are the fixed terms granted
// to every bootstrap holder, matching spec.md §8 scenario 1
// (`("8522", 1000, true, -1)`).
const (
	genesisLeaseDuration = 1000
	genesisTransferTag   = true
)

// genesisPayload is the single synthetic transaction embedded in block 0,
// carrying the bootstrap holdings (spec.md §3 "Chain").
type genesisPayload struct {
	Holdings GenesisHoldings `json:"holdings"`
}

// BuildGenesisBlock constructs block 0 from the AS->prefix bootstrap map.
func BuildGenesisBlock(holdings GenesisHoldings) (*Block, error) {
	payload, err := json.Marshal(genesisPayload{Holdings: holdings})
	if err != nil {
		return nil, fmt.Errorf("chain: marshal genesis payload: %w", err)
	}
	genesisTx := &tx.Transaction{
		Type:     "genesis",
		Txid:     "genesis",
		AsSource: "genesis",
		Time:     0,
		Output:   payload,
	}
	return &Block{
		Index:        0,
		Timestamp:    0,
		PreviousHash: chaincfg.GenesisPreviousHash,
		Nonce:        0,
		Hash:         "genesis",
		MinerASN:     "genesis",
		Transactions: []*tx.Transaction{genesisTx},
	}, nil
}

// decodeGenesisHoldings extracts the bootstrap map from block 0's
// synthetic transaction.
func decodeGenesisHoldings(b *Block) (GenesisHoldings, error) {
	if len(b.Transactions) != 1 {
		return nil, fmt.Errorf("chain: genesis block must carry exactly one transaction")
	}
	var payload genesisPayload
	if err := json.Unmarshal(b.Transactions[0].Output, &payload); err != nil {
		return nil, fmt.Errorf("chain: decode genesis holdings: %w", err)
	}
	return payload.Holdings, nil
}

// seedGenesisState applies holdings to st and graphs, the shared logic
// between chain construction (New) and later replay.
func seedGenesisState(holdings GenesisHoldings, st *state.WorldState, graphs graphRegistrySeeder) {
	for asn, prefixes := range holdings {
		for _, prefix := range prefixes {
			st.UpsertHolder(prefix, state.LeaseRecord{
				ASN:            asn,
				LeaseDuration:  genesisLeaseDuration,
				TransferTag:    genesisTransferTag,
				LastAssignTxid: chaincfg.GenesisLastAssignTxid,
			})
			graphs.SeedGenesis(prefix, []string{asn})
		}
	}
}

// graphRegistrySeeder is the subset of *graph.Registry genesis seeding
// needs.
type graphRegistrySeeder interface {
	SeedGenesis(prefix string, holders []string)
}
