// Package merkle builds and verifies binary Merkle trees over ordered
// leaf vectors, with the odd-level-promotion rule used throughout the
// settlement core's batch and state commitments.
package merkle

import (
	"errors"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/wlvchandler/rollup-settlement-core/types"
)

// ErrEmptyLeaves is returned by ComputeRoot when given no leaves; a
// Merkle tree over zero leaves is undefined.
var ErrEmptyLeaves = errors.New("merkle: cannot compute root of empty leaf set")

// HashPair returns H(left || right), raw concatenation with no length
// prefix or domain separator.
func HashPair(left, right types.Hash) types.Hash {
	return crypto.Keccak256Hash(left[:], right[:])
}

// ComputeRoot reduces leaves to a single root, pairing adjacent nodes at
// each level and promoting an unpaired last node unchanged (not
// duplicated) to the next level.
func ComputeRoot(leaves []types.Hash) (types.Hash, error) {
	if len(leaves) == 0 {
		return types.Hash{}, ErrEmptyLeaves
	}
	if len(leaves) == 1 {
		return leaves[0], nil
	}

	level := make([]types.Hash, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		level = reduceLevel(level)
	}
	return level[0], nil
}

func reduceLevel(level []types.Hash) []types.Hash {
	next := make([]types.Hash, 0, (len(level)+1)/2)
	for i := 0; i+1 < len(level); i += 2 {
		next = append(next, HashPair(level[i], level[i+1]))
	}
	if len(level)%2 == 1 {
		next = append(next, level[len(level)-1])
	}
	return next
}

// GetTreeDepth returns the number of levels above the leaves: 0 for
// n <= 1, else the number of halvings (ceiling) required to reach 1.
func GetTreeDepth(n int) int {
	if n <= 1 {
		return 0
	}
	depth := 0
	for n > 1 {
		n = (n + 1) / 2
		depth++
	}
	return depth
}

// Proof is a leaf-to-root inclusion proof: the sibling hash at each
// level the leaf's path passes through. A sibling is omitted for a level
// where the leaf's node was the unpaired last node (promoted, not
// paired), so Proof length may be shorter than the tree depth.
type Proof struct {
	Siblings []types.Hash
	Index    int

	// LeafCount is the size of the leaf vector the proof was generated
	// against. VerifyProof uses it to skip the levels where the leaf's
	// node was promoted, and multi-leaf-update callers (see the fraud
	// package) use it to replay promotion decisions without re-deriving
	// the whole tree.
	LeafCount int
}

// GenerateProof builds the leaf-to-root proof for leaves[index].
func GenerateProof(leaves []types.Hash, index int) (Proof, error) {
	if index < 0 || index >= len(leaves) {
		return Proof{}, errors.New("merkle: index out of range")
	}

	level := make([]types.Hash, len(leaves))
	copy(level, leaves)

	proof := Proof{Index: index, LeafCount: len(leaves)}
	idx := index

	for len(level) > 1 {
		siblingIdx := idx ^ 1
		if siblingIdx < len(level) {
			proof.Siblings = append(proof.Siblings, level[siblingIdx])
		}
		level = reduceLevel(level)
		idx >>= 1
	}

	return proof, nil
}

// VerifyProof walks leaf-to-root combining the leaf with each proof
// sibling according to the index's bits, and checks the result equals
// root. When proof.LeafCount is set, levels where the leaf's node was
// the unpaired last node are skipped (the index is halved without
// consuming a sibling). An empty proof at index 0 verifies iff
// leaf == root (a single-leaf tree).
func VerifyProof(leaf types.Hash, root types.Hash, proof Proof) bool {
	h := leaf
	idx := proof.Index
	levelSize := proof.LeafCount

	for _, sibling := range proof.Siblings {
		for levelSize > 1 && idx^1 >= levelSize {
			idx >>= 1
			levelSize = (levelSize + 1) / 2
		}
		levelSize = (levelSize + 1) / 2
		if idx&1 == 0 {
			h = HashPair(h, sibling)
		} else {
			h = HashPair(sibling, h)
		}
		idx >>= 1
	}

	return h == root
}
