// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package store persists the chain's blocks to disk with goleveldb, so a
// restarted node can recover without waiting on a peer. This is additive
// to spec.md, whose chain is otherwise pure in-memory state rebuilt by
// replay (see SPEC_FULL.md "Persistence").
package store

import (
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/toole-brendan/bgpchain/chain"
)

// BlockStore is an index-keyed store of mined blocks; writing a block at an
// index that is already stored overwrites it.
type BlockStore struct {
	db *leveldb.DB
}

// Open opens (creating if absent) the block store at path.
func Open(path string) (*BlockStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return &BlockStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *BlockStore) Close() error {
	return s.db.Close()
}

func blockKey(index int64) []byte {
	return []byte(fmt.Sprintf("block-%020d", index))
}

// PutBlock persists a single block, keyed by its index.
func (s *BlockStore) PutBlock(b *chain.Block) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("store: marshal block %d: %w", b.Index, err)
	}
	if err := s.db.Put(blockKey(b.Index), raw, nil); err != nil {
		return fmt.Errorf("store: put block %d: %w", b.Index, err)
	}
	return nil
}

// PutChain persists every block of chain, overwriting any existing entry
// at the same index. Used after a successful resolveConflicts swap.
func (s *BlockStore) PutChain(blocks []*chain.Block) error {
	batch := new(leveldb.Batch)
	for _, b := range blocks {
		raw, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("store: marshal block %d: %w", b.Index, err)
		}
		batch.Put(blockKey(b.Index), raw)
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("store: write chain: %w", err)
	}
	return nil
}

// LoadChain returns every persisted block in index order, or (nil, nil)
// if the store is empty (a fresh node with no local history).
func (s *BlockStore) LoadChain() ([]*chain.Block, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte("block-")), nil)
	defer iter.Release()

	var blocks []*chain.Block
	for iter.Next() {
		var b chain.Block
		if err := json.Unmarshal(iter.Value(), &b); err != nil {
			return nil, fmt.Errorf("store: decode block: %w", err)
		}
		blocks = append(blocks, &b)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("store: iterate: %w", err)
	}
	return blocks, nil
}
