// Package merkle builds and checks inclusion paths for a state batch's merkle
// tree. Leaves are the batch's state roots in submission order and are used
// as-is (32 bytes, unhashed); parents are keccak256(left ++ right). A level
// with an odd node count promotes the unpaired node unchanged - the tree never
// duplicates a leaf to pad, matching the commitment structure's own rule.
package merkle

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrLeafIndexOutOfRange = errors.New("merkle: leaf index out of range")

func parentLevel(level []common.Hash) []common.Hash {
	next := make([]common.Hash, 0, (len(level)+1)/2)
	for i := 0; i+1 < len(level); i += 2 {
		next = append(next, crypto.Keccak256Hash(level[i][:], level[i+1][:]))
	}
	if len(level)%2 == 1 {
		next = append(next, level[len(level)-1])
	}
	return next
}

// ComputeRoot folds the leaves up to the batch root. An empty batch has the
// zero root.
func ComputeRoot(leaves []common.Hash) common.Hash {
	if len(leaves) == 0 {
		return common.Hash{}
	}
	level := append([]common.Hash(nil), leaves...)
	for len(level) > 1 {
		level = parentLevel(level)
	}
	return level[0]
}

// BuildSiblingPath returns the sibling hashes proving leaves[index] bottom-up.
// Levels where the node is promoted without a pair contribute no sibling.
func BuildSiblingPath(leaves []common.Hash, index uint64) ([]common.Hash, error) {
	if index >= uint64(len(leaves)) {
		return nil, ErrLeafIndexOutOfRange
	}
	siblings := []common.Hash{}
	level := append([]common.Hash(nil), leaves...)
	idx := index
	for len(level) > 1 {
		if sib := idx ^ 1; sib < uint64(len(level)) {
			siblings = append(siblings, level[sib])
		}
		level = parentLevel(level)
		idx /= 2
	}
	return siblings, nil
}

// VerifyPath recomputes the root from a leaf and its sibling path. leafCount
// is the batch size; it decides at which levels the node was promoted rather
// than paired, so the verifier consumes exactly the right siblings.
func VerifyPath(leafCount int, index uint64, root common.Hash, leaf common.Hash, siblings []common.Hash) bool {
	if leafCount <= 0 || index >= uint64(leafCount) {
		return false
	}
	current := leaf
	remaining := uint64(leafCount)
	idx := index
	used := 0
	for remaining > 1 {
		if sib := idx ^ 1; sib < remaining {
			if used >= len(siblings) {
				return false
			}
			if idx%2 == 0 {
				current = crypto.Keccak256Hash(current[:], siblings[used][:])
			} else {
				current = crypto.Keccak256Hash(siblings[used][:], current[:])
			}
			used++
		}
		idx /= 2
		remaining = (remaining + 1) / 2
	}
	return used == len(siblings) && current == root
}
