// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg holds the network-wide constants of the bgpchain ledger:
// proof-of-work difficulty, lease-duration units, and peer-liveness timing.
package chaincfg

import "time"

const (
	// DifficultyPrefix is the hex prefix every mined block hash must carry.
	DifficultyPrefix = "0000"

	// OneMonthSeconds is the lease-duration unit used throughout the
	// allocation ledger: 2,629,743.83 seconds, i.e. one twelfth of a
	// 365.2422-day year.
	OneMonthSeconds = 2629743.83

	// GenesisPreviousHash is the sentinel previous-hash carried by block 0.
	GenesisPreviousHash = "-1"

	// GenesisLastAssignTxid is the sentinel lastAssignTxid recorded on
	// genesis-seeded lease records.
	GenesisLastAssignTxid = "-1"

	// SelfOriginASN is the sentinel ASN denoting "the prefix itself" in an
	// announcement's upstream list: the advertising AS has no further
	// upstream in that shard.
	SelfOriginASN = "0"

	// DefaultIP is the CLI default bind address.
	DefaultIP = "localhost"

	// DefaultPort is the CLI default bind port.
	DefaultPort = 5000
)

const (
	// AliveBroadcastInterval is how often a node broadcasts an alive probe
	// to its peers.
	AliveBroadcastInterval = 20 * time.Second

	// AliveReapInterval is how often the liveness reaper sweeps for peers
	// that have gone silent.
	AliveReapInterval = 60 * time.Second

	// AliveTimeout is the maximum silence before a peer is reaped from the
	// liveness table.
	AliveTimeout = 60 * time.Second
)

// LeaseSeconds converts a lease duration expressed in whole months to
// seconds, using OneMonthSeconds as the month unit.
func LeaseSeconds(months int64) float64 {
	return float64(months) * OneMonthSeconds
}
