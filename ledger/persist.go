package ledger

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/stakeledger/kv"
	"github.com/blockberries/stakeledger/types"
)

// ErrRootMismatch is returned by Load when the recomputed state root
// differs from the one recorded at the last commit.
var ErrRootMismatch = errors.New("ledger: state root mismatch")

// Meta is the last committed chain position.
type Meta struct {
	Height    uint64          `cramberry:"1"`
	StateRoot types.StateRoot `cramberry:"2"`
}

// Commit writes every change of s plus the new meta record to store
// in one atomic batch, then freezes s into a snapshot at height.
// On error the store is unchanged and s keeps its change set.
func Commit(store kv.Store, s *State, height uint64) (*Snapshot, error) {
	root := s.Root()
	meta, err := cramberry.Marshal(Meta{Height: height, StateRoot: root})
	if err != nil {
		return nil, fmt.Errorf("encode meta: %w", err)
	}
	batch := store.NewBatch()
	if err := s.WriteTo(batch); err != nil {
		return nil, fmt.Errorf("stage changes: %w", err)
	}
	if err := batch.Put(MetaKey, meta); err != nil {
		return nil, fmt.Errorf("stage meta: %w", err)
	}
	if err := batch.Write(); err != nil {
		return nil, fmt.Errorf("write batch: %w", err)
	}
	snap := s.Snapshot(height)
	if snap.root != root {
		panic("ledger: state changed during commit")
	}
	return snap, nil
}

// Load rebuilds the last committed snapshot from store. It returns
// (nil, nil) for an empty store.
func Load(store kv.Store) (*Snapshot, error) {
	raw, err := store.Get(MetaKey)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read meta: %w", err)
	}
	var meta Meta
	if err := cramberry.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	s := New()
	err = store.Iterate(kv.Range{}, func(key, val []byte) bool {
		if bytes.Equal(key, MetaKey) {
			return true
		}
		s.tree.ReplaceOrInsert(item{
			key: string(key),
			val: bytes.Clone(val),
		})
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("scan store: %w", err)
	}
	snap := s.Snapshot(meta.Height)
	if snap.root != meta.StateRoot {
		return nil, fmt.Errorf("%w at height %d: stored %s, computed %s",
			ErrRootMismatch, meta.Height, meta.StateRoot, snap.root)
	}
	return snap, nil
}
