package merkle

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/wlvchandler/rollup-settlement-core/types"
)

func leafFrom(b byte) types.Hash {
	return crypto.Keccak256Hash([]byte{b})
}

func TestComputeRootEmptyFails(t *testing.T) {
	_, err := ComputeRoot(nil)
	require.ErrorIs(t, err, ErrEmptyLeaves)
}

func TestComputeRootSingleLeaf(t *testing.T) {
	leaf := leafFrom(1)
	root, err := ComputeRoot([]types.Hash{leaf})
	require.NoError(t, err)
	require.Equal(t, leaf, root)
}

func TestComputeRootOddLevelPromotesLastNode(t *testing.T) {
	a, b, c := leafFrom(1), leafFrom(2), leafFrom(3)
	root, err := ComputeRoot([]types.Hash{a, b, c})
	require.NoError(t, err)
	require.Equal(t, HashPair(HashPair(a, b), c), root)
}

func TestGetTreeDepth(t *testing.T) {
	cases := map[int]int{0: 0, 1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4}
	for n, want := range cases {
		require.Equal(t, want, GetTreeDepth(n), "n=%d", n)
	}
}

func TestGenerateAndVerifyProofAllIndices(t *testing.T) {
	leaves := make([]types.Hash, 7)
	for i := range leaves {
		leaves[i] = leafFrom(byte(i))
	}
	root, err := ComputeRoot(leaves)
	require.NoError(t, err)

	for i := range leaves {
		proof, err := GenerateProof(leaves, i)
		require.NoError(t, err)
		require.True(t, VerifyProof(leaves[i], root, proof), "index %d", i)
	}
}

func TestProofForPromotedLeafIsShorterThanDepth(t *testing.T) {
	a, b, c := leafFrom(1), leafFrom(2), leafFrom(3)
	leaves := []types.Hash{a, b, c}

	proof, err := GenerateProof(leaves, 2)
	require.NoError(t, err)
	require.Equal(t, []types.Hash{HashPair(a, b)}, proof.Siblings, "leaf promoted at the bottom level carries only its upper-level sibling")

	root, err := ComputeRoot(leaves)
	require.NoError(t, err)
	require.True(t, VerifyProof(c, root, proof))
}

func TestVerifyProofRejectsWrongLeaf(t *testing.T) {
	leaves := []types.Hash{leafFrom(1), leafFrom(2), leafFrom(3), leafFrom(4)}
	root, err := ComputeRoot(leaves)
	require.NoError(t, err)

	proof, err := GenerateProof(leaves, 1)
	require.NoError(t, err)
	require.False(t, VerifyProof(leafFrom(99), root, proof))
}

func TestSingleLeafEmptyProofVerifiesOnlyAgainstItself(t *testing.T) {
	leaf := leafFrom(5)
	require.True(t, VerifyProof(leaf, leaf, Proof{Index: 0}))
	require.False(t, VerifyProof(leaf, leafFrom(6), Proof{Index: 0}))
}
