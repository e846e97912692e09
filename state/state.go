// Package state builds the account-state Merkle commitment: hashing
// accounts into leaves under a strict ascending-address order, computing
// the state root, and generating/verifying per-account inclusion proofs.
package state

import (
	"bytes"
	"errors"
	"sort"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/wlvchandler/rollup-settlement-core/merkle"
	"github.com/wlvchandler/rollup-settlement-core/types"
)

// GenesisRoot is the sentinel state root used before any account has
// ever been committed. It is never derived from an empty leaf set.
var GenesisRoot = crypto.Keccak256Hash([]byte("GENESIS"))

var (
	// ErrEmptyState is returned by ComputeRoot: the genesis sentinel
	// must be used instead of deriving a root from zero accounts.
	ErrEmptyState = errors.New("state: empty account set; use GenesisRoot")

	// ErrUnsorted is returned when addrs is not in strict ascending order.
	ErrUnsorted = errors.New("state: addresses must be strictly ascending")

	// ErrLengthMismatch is returned when addrs and accounts differ in length.
	ErrLengthMismatch = errors.New("state: address and account vectors differ in length")

	// ErrAccountNotFound is returned by GenerateAccountProof when target
	// is absent from addrs.
	ErrAccountNotFound = errors.New("state: target account not found")

	// ErrRootMismatch is returned by GenerateAccountProof when the
	// recomputed root does not match the expected root.
	ErrRootMismatch = errors.New("state: recomputed root does not match expected root")
)

// AccountLeaf returns H(address || balance || nonce).
func AccountLeaf(addr types.Address, acct types.Account) types.Hash {
	balance := acct.Balance.Bytes32()
	var nonceBuf [8]byte
	putUint64(nonceBuf[:], acct.Nonce)
	return crypto.Keccak256Hash(addr[:], balance[:], nonceBuf[:])
}

func putUint64(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

// isStrictlyAscending reports whether addrs has no duplicates and is
// sorted address-ascending.
func isStrictlyAscending(addrs []types.Address) bool {
	for i := 1; i < len(addrs); i++ {
		if bytes.Compare(addrs[i-1][:], addrs[i][:]) >= 0 {
			return false
		}
	}
	return true
}

// ComputeRoot computes the state root over addrs/accounts, which must be
// equal length, duplicate-free, and sorted by ascending address. An
// empty set is rejected; callers use GenesisRoot instead.
func ComputeRoot(addrs []types.Address, accounts []types.Account) (types.Hash, error) {
	if len(addrs) != len(accounts) {
		return types.Hash{}, ErrLengthMismatch
	}
	if len(addrs) == 0 {
		return types.Hash{}, ErrEmptyState
	}
	if !isStrictlyAscending(addrs) {
		return types.Hash{}, ErrUnsorted
	}

	leaves := make([]types.Hash, len(addrs))
	for i := range addrs {
		leaves[i] = AccountLeaf(addrs[i], accounts[i])
	}
	return merkle.ComputeRoot(leaves)
}

// AccountProof bundles a Merkle inclusion proof for one account together
// with the account data the proof is over, so a verifier never needs a
// side channel for the account's balance/nonce.
type AccountProof struct {
	Account     types.Address
	AccountData types.Account
	Proof       merkle.Proof
}

// GenerateAccountProof locates target in addrs, verifies the recomputed
// root matches expectedRoot, and returns its inclusion proof plus data.
func GenerateAccountProof(target types.Address, addrs []types.Address, accounts []types.Account, expectedRoot types.Hash) (AccountProof, error) {
	if len(addrs) != len(accounts) {
		return AccountProof{}, ErrLengthMismatch
	}

	index := -1
	for i, a := range addrs {
		if a == target {
			index = i
			break
		}
	}
	if index < 0 {
		return AccountProof{}, ErrAccountNotFound
	}

	root, err := ComputeRoot(addrs, accounts)
	if err != nil {
		return AccountProof{}, err
	}
	if root != expectedRoot {
		return AccountProof{}, ErrRootMismatch
	}

	leaves := make([]types.Hash, len(addrs))
	for i := range addrs {
		leaves[i] = AccountLeaf(addrs[i], accounts[i])
	}

	proof, err := merkle.GenerateProof(leaves, index)
	if err != nil {
		return AccountProof{}, err
	}

	return AccountProof{
		Account:     target,
		AccountData: accounts[index].Clone(),
		Proof:       proof,
	}, nil
}

// VerifyAccountProof recomputes the leaf from proof's account/data and
// checks the Merkle path against root.
func VerifyAccountProof(proof AccountProof, root types.Hash) bool {
	leaf := AccountLeaf(proof.Account, proof.AccountData)
	return merkle.VerifyProof(leaf, root, proof.Proof)
}

// SortAccounts returns addrs/accounts reordered by ascending address,
// for callers assembling a set that is not already sorted. It errors on
// duplicate addresses, mirroring ComputeRoot's invariant.
func SortAccounts(addrs []types.Address, accounts []types.Account) ([]types.Address, []types.Account, error) {
	if len(addrs) != len(accounts) {
		return nil, nil, ErrLengthMismatch
	}

	type pair struct {
		addr types.Address
		acct types.Account
	}
	pairs := make([]pair, len(addrs))
	for i := range addrs {
		pairs[i] = pair{addrs[i], accounts[i]}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return bytes.Compare(pairs[i].addr[:], pairs[j].addr[:]) < 0
	})

	sortedAddrs := make([]types.Address, len(pairs))
	sortedAccounts := make([]types.Account, len(pairs))
	for i, p := range pairs {
		if i > 0 && sortedAddrs[i-1] == p.addr {
			return nil, nil, errors.New("state: duplicate address in account set")
		}
		sortedAddrs[i] = p.addr
		sortedAccounts[i] = p.acct
	}

	return sortedAddrs, sortedAccounts, nil
}
