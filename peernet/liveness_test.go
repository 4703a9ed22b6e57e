// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peernet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLivenessReapRemovesOnlyStaleAddresses(t *testing.T) {
	l := NewLiveness()
	l.Touch("10.0.0.1:9000")
	assert.True(t, l.Known("10.0.0.1:9000"))

	// Reap with a zero timeout: anything already touched is stale.
	stale := l.Reap(0)
	assert.Contains(t, stale, "10.0.0.1:9000")
	assert.False(t, l.Known("10.0.0.1:9000"), "a reaped address must be forgotten")
}

func TestLivenessReapKeepsFreshAddresses(t *testing.T) {
	l := NewLiveness()
	l.Touch("10.0.0.2:9000")

	stale := l.Reap(time.Hour)
	assert.Empty(t, stale)
	assert.True(t, l.Known("10.0.0.2:9000"))
}

func TestLivenessUnknownAddressIsNotKnown(t *testing.T) {
	l := NewLiveness()
	assert.False(t, l.Known("10.0.0.3:9000"))
}
