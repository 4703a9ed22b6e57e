// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"

	"github.com/decred/dcrd/lru"
	"github.com/toole-brendan/bgpchain/ledger/tx"
	"golang.org/x/crypto/blake2b"
)

// announceMemoSize bounds how many distinct announcement digests are
// remembered per advertising AS before the oldest are evicted.
const announceMemoSize = 4096

// Dedupe implements spec.md §4.5's "duplicate Announce guard": per
// advertising AS, memoize the digests of announcements broadcast since the
// last Withdraw; a Withdraw resets that AS's memo so the same announcement
// may be re-sent.
type Dedupe struct {
	mu   sync.Mutex // the spec's bgpa_mutex
	seen map[string]*lru.Cache[string]
}

// NewDedupe returns an empty guard.
func NewDedupe() *Dedupe {
	return &Dedupe{seen: make(map[string]*lru.Cache[string])}
}

// Digest returns the content digest of a BGPAnnounce's routable fields
// (prefix, upstream set, downstream set), independent of time/signature so
// that a byte-identical resend is recognized as a duplicate.
func Digest(t *tx.Transaction) string {
	srcList := append([]string{}, t.AsSourceList...)
	dstList := append([]string{}, t.AsDestList...)
	sort.Strings(srcList)
	sort.Strings(dstList)
	raw, _ := json.Marshal(struct {
		Prefix string   `json:"prefix"`
		Src    []string `json:"src"`
		Dst    []string `json:"dst"`
	}{t.Prefix, srcList, dstList})
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Seen reports whether digest has already been broadcast by asSource since
// its last Withdraw.
func (d *Dedupe) Seen(asSource, digest string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.seen[asSource]
	if !ok {
		return false
	}
	return c.Contains(digest)
}

// Remember records digest as broadcast by asSource.
func (d *Dedupe) Remember(asSource, digest string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.seen[asSource]
	if !ok {
		c = lru.NewCache[string](announceMemoSize)
		d.seen[asSource] = c
	}
	c.Add(digest)
}

// Reset clears asSource's remembered digests, called on a Withdraw.
func (d *Dedupe) Reset(asSource string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, asSource)
}
