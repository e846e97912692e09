package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/wlvchandler/rollup-settlement-core/types"
)

func addr(b byte) types.Address {
	return common.BytesToAddress([]byte{b})
}

func TestComputeRootRejectsEmpty(t *testing.T) {
	_, err := ComputeRoot(nil, nil)
	require.ErrorIs(t, err, ErrEmptyState)
}

func TestComputeRootRejectsUnsorted(t *testing.T) {
	addrs := []types.Address{addr(2), addr(1)}
	accts := []types.Account{types.ZeroAccount(), types.ZeroAccount()}
	_, err := ComputeRoot(addrs, accts)
	require.ErrorIs(t, err, ErrUnsorted)
}

func TestComputeRootRejectsDuplicate(t *testing.T) {
	addrs := []types.Address{addr(1), addr(1)}
	accts := []types.Account{types.ZeroAccount(), types.ZeroAccount()}
	_, err := ComputeRoot(addrs, accts)
	require.ErrorIs(t, err, ErrUnsorted)
}

func TestGenerateAndVerifyAccountProof(t *testing.T) {
	addrs := []types.Address{addr(1), addr(2), addr(3)}
	accts := []types.Account{
		{Balance: types.NewAmount(10), Nonce: 0},
		{Balance: types.NewAmount(20), Nonce: 1},
		{Balance: types.NewAmount(30), Nonce: 2},
	}

	root, err := ComputeRoot(addrs, accts)
	require.NoError(t, err)

	for i, a := range addrs {
		proof, err := GenerateAccountProof(a, addrs, accts, root)
		require.NoError(t, err)
		require.Equal(t, accts[i], proof.AccountData)
		require.True(t, VerifyAccountProof(proof, root))
	}
}

func TestGenerateAccountProofMissingTarget(t *testing.T) {
	addrs := []types.Address{addr(1), addr(2)}
	accts := []types.Account{types.ZeroAccount(), types.ZeroAccount()}
	root, err := ComputeRoot(addrs, accts)
	require.NoError(t, err)

	_, err = GenerateAccountProof(addr(9), addrs, accts, root)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestGenerateAccountProofWrongExpectedRoot(t *testing.T) {
	addrs := []types.Address{addr(1), addr(2)}
	accts := []types.Account{types.ZeroAccount(), types.ZeroAccount()}

	_, err := GenerateAccountProof(addr(1), addrs, accts, types.Hash{1})
	require.ErrorIs(t, err, ErrRootMismatch)
}

func TestVerifyAccountProofRejectsTamperedData(t *testing.T) {
	addrs := []types.Address{addr(1), addr(2)}
	accts := []types.Account{
		{Balance: types.NewAmount(10), Nonce: 0},
		{Balance: types.NewAmount(20), Nonce: 0},
	}
	root, err := ComputeRoot(addrs, accts)
	require.NoError(t, err)

	proof, err := GenerateAccountProof(addr(1), addrs, accts, root)
	require.NoError(t, err)

	proof.AccountData.Balance = types.NewAmount(999)
	require.False(t, VerifyAccountProof(proof, root))
}

func TestSortAccounts(t *testing.T) {
	addrs := []types.Address{addr(3), addr(1), addr(2)}
	accts := []types.Account{
		{Balance: types.NewAmount(3), Nonce: 0},
		{Balance: types.NewAmount(1), Nonce: 0},
		{Balance: types.NewAmount(2), Nonce: 0},
	}

	sortedAddrs, sortedAccts, err := SortAccounts(addrs, accts)
	require.NoError(t, err)
	require.Equal(t, []types.Address{addr(1), addr(2), addr(3)}, sortedAddrs)
	require.Equal(t, uint64(1), sortedAccts[0].Balance.Uint64())
	require.Equal(t, uint64(2), sortedAccts[1].Balance.Uint64())
	require.Equal(t, uint64(3), sortedAccts[2].Balance.Uint64())
}

func TestSortAccountsRejectsDuplicate(t *testing.T) {
	addrs := []types.Address{addr(1), addr(1)}
	accts := []types.Account{types.ZeroAccount(), types.ZeroAccount()}
	_, _, err := SortAccounts(addrs, accts)
	require.Error(t, err)
}
