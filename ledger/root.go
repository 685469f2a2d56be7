package ledger

import (
	"encoding/binary"

	"github.com/google/btree"
	"lukechampine.com/blake3"

	"github.com/blockberries/stakeledger/types"
)

const (
	leafTag = 0x00
	nodeTag = 0x01
)

func leafHash(key string, val []byte) [32]byte {
	h := blake3.New(32, nil)
	var hdr [9]byte
	hdr[0] = leafTag
	binary.BigEndian.PutUint32(hdr[1:5], uint32(len(key)))
	binary.BigEndian.PutUint32(hdr[5:9], uint32(len(val)))
	h.Write(hdr[:])
	h.Write([]byte(key))
	h.Write(val)
	var out [32]byte
	h.Sum(out[:0])
	return out
}

func nodeHash(l, r [32]byte) [32]byte {
	var buf [65]byte
	buf[0] = nodeTag
	copy(buf[1:33], l[:])
	copy(buf[33:], r[:])
	return blake3.Sum256(buf[:])
}

// merkleRoot folds the entries of tree, in key order, into a binary
// Merkle tree. An odd node at any level is promoted unchanged. The
// empty state has the zero root.
func merkleRoot(tree *btree.BTreeG[item]) types.StateRoot {
	if tree.Len() == 0 {
		return types.StateRoot{}
	}
	level := make([][32]byte, 0, tree.Len())
	tree.Ascend(func(it item) bool {
		level = append(level, leafHash(it.key, it.val))
		return true
	})
	for len(level) > 1 {
		next := level[:0]
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, nodeHash(level[i], level[i+1]))
		}
		level = next
	}
	return types.StateRoot(level[0])
}
