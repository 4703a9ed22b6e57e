// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain implements the Block and Chain types, genesis
// construction, proof-of-work, chain-validity checking, and the
// deterministic replay that rebuilds world state and the reachability
// graphs from a chain (spec.md §4.3).
package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/toole-brendan/bgpchain/chaincfg"
	"github.com/toole-brendan/bgpchain/ledger/tx"
)

// Block is one entry of the chain: an ordered batch of accepted
// transactions, a previous-hash link, a nonce satisfying the
// proof-of-work target, and the miner's identity and signature.
type Block struct {
	Index        int64              `json:"index"`
	Timestamp    float64            `json:"timestamp"`
	PreviousHash string             `json:"previous_hash"`
	Nonce        int64              `json:"nonce"`
	Hash         string             `json:"hash"`
	MinerASN     string             `json:"miner_asn"`
	Signature    []byte             `json:"signature,omitempty"`
	Transactions []*tx.Transaction  `json:"transactions"`
}

// canonicalTransactions returns a deterministic (sorted-key) JSON encoding
// of b's transactions, the input to both the PoW search and the final
// block hash (spec.md §4.3: "Block hash uses a canonical JSON encoding of
// transactions with keys sorted"). Go's encoding/json already emits
// map[string]interface{} keys in sorted order, so round-tripping each
// transaction through a generic map canonicalizes it for free.
func canonicalTransactions(txs []*tx.Transaction) ([]byte, error) {
	raw, err := json.Marshal(txs)
	if err != nil {
		return nil, fmt.Errorf("chain: canonicalize transactions: %w", err)
	}
	var generic []map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("chain: canonicalize transactions: %w", err)
	}
	return json.Marshal(generic)
}

// hashInput builds the exact byte string that is SHA-256 hashed into the
// block hash: timestamp, previousHash, canonical(transactions), nonce.
func (b *Block) hashInput() ([]byte, error) {
	txBytes, err := canonicalTransactions(b.Transactions)
	if err != nil {
		return nil, err
	}
	s := fmt.Sprintf("%f%s%s%d", b.Timestamp, b.PreviousHash, string(txBytes), b.Nonce)
	return []byte(s), nil
}

// computeHash returns the hex-encoded SHA-256 hash of b at its current
// nonce, without mutating b.
func (b *Block) computeHash() (string, error) {
	input, err := b.hashInput()
	if err != nil {
		return "", err
	}
	h := chainhash.Hash(sha256.Sum256(input))
	return hex.EncodeToString(h[:]), nil
}

// IsMined reports whether hash satisfies the fixed-prefix proof-of-work
// target (spec.md §4.3).
func IsMined(hash string) bool {
	return strings.HasPrefix(hash, chaincfg.DifficultyPrefix)
}

// MineNonce increments b.Nonce until its hash satisfies IsMined, then
// stores the winning hash on b. It is CPU-bound and, per spec.md §5, runs
// under the caller's chain lock.
func (b *Block) MineNonce() error {
	for {
		hash, err := b.computeHash()
		if err != nil {
			return err
		}
		if IsMined(hash) {
			b.Hash = hash
			return nil
		}
		b.Nonce++
	}
}

// VerifyHash reports whether b.Hash matches the hash recomputed from b's
// current fields (used during chain-validity replay, not just at mint
// time: a tampered block's stored Hash will not match).
func (b *Block) VerifyHash() bool {
	hash, err := b.computeHash()
	if err != nil {
		return false
	}
	return hash == b.Hash
}
