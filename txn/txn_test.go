package txn

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/wlvchandler/rollup-settlement-core/types"
)

func sign(t *testing.T, key []byte, tx types.Transaction) []byte {
	t.Helper()
	priv, err := crypto.ToECDSA(key)
	require.NoError(t, err)

	hash := prefixedHash(SigningHash(tx))
	sig, err := crypto.Sign(hash.Bytes(), priv)
	require.NoError(t, err)
	return sig
}

func newKeyAndAddr(t *testing.T, seed byte) ([]byte, types.Address) {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = seed
	}
	priv, err := crypto.ToECDSA(key)
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(priv.PublicKey)
}

func TestSerializeExcludesSignature(t *testing.T) {
	_, from := newKeyAndAddr(t, 1)
	_, to := newKeyAndAddr(t, 2)

	tx := types.Transaction{From: from, To: to, Amount: types.NewAmount(5), Nonce: 0, Fee: types.NewAmount(1)}
	withSig := tx
	withSig.Signature = []byte{1, 2, 3}

	encA, err := Serialize(tx)
	require.NoError(t, err)
	encB, err := Serialize(withSig)
	require.NoError(t, err)
	require.Equal(t, encA, encB)
}

func TestValidSignatureRoundTrip(t *testing.T) {
	key, from := newKeyAndAddr(t, 3)
	_, to := newKeyAndAddr(t, 4)

	tx := types.Transaction{From: from, To: to, Amount: types.NewAmount(10), Nonce: 0, Fee: types.NewAmount(0)}
	tx.Signature = sign(t, key, tx)

	require.True(t, ValidSignature(tx))
	require.Equal(t, from, RecoverSigner(tx, tx.Signature))
}

func TestValidSignatureRejectsWrongSigner(t *testing.T) {
	_, from := newKeyAndAddr(t, 5)
	_, to := newKeyAndAddr(t, 6)
	otherKey, _ := newKeyAndAddr(t, 7)

	tx := types.Transaction{From: from, To: to, Amount: types.NewAmount(10), Nonce: 0, Fee: types.NewAmount(0)}
	tx.Signature = sign(t, otherKey, tx)

	require.False(t, ValidSignature(tx))
}

func TestValidSignatureRejectsBadLength(t *testing.T) {
	_, from := newKeyAndAddr(t, 8)
	_, to := newKeyAndAddr(t, 9)

	tx := types.Transaction{From: from, To: to, Amount: types.NewAmount(10), Nonce: 0, Fee: types.NewAmount(0), Signature: []byte{1, 2, 3}}
	require.False(t, ValidSignature(tx))
}

func TestExecuteSuccess(t *testing.T) {
	_, from := newKeyAndAddr(t, 10)
	_, to := newKeyAndAddr(t, 11)

	tx := types.Transaction{From: from, To: to, Amount: types.NewAmount(2), Nonce: 0, Fee: types.NewAmount(1)}
	fromAcct := types.Account{Balance: types.NewAmount(10), Nonce: 0}
	toAcct := types.Account{Balance: types.NewAmount(5), Nonce: 0}

	newFrom, newTo, result := Execute(tx, fromAcct, toAcct)
	require.Equal(t, types.Success, result)
	require.Equal(t, uint64(7), newFrom.Balance.Uint64())
	require.Equal(t, uint64(1), newFrom.Nonce)
	require.Equal(t, uint64(7), newTo.Balance.Uint64())
	require.Equal(t, uint64(0), newTo.Nonce)
}

func TestExecuteInvalidNonce(t *testing.T) {
	_, from := newKeyAndAddr(t, 12)
	_, to := newKeyAndAddr(t, 13)

	tx := types.Transaction{From: from, To: to, Amount: types.NewAmount(2), Nonce: 5, Fee: types.NewAmount(0)}
	fromAcct := types.Account{Balance: types.NewAmount(10), Nonce: 0}
	toAcct := types.Account{Balance: types.NewAmount(5), Nonce: 0}

	newFrom, newTo, result := Execute(tx, fromAcct, toAcct)
	require.Equal(t, types.InvalidNonce, result)
	require.Equal(t, fromAcct, newFrom)
	require.Equal(t, toAcct, newTo)
}

func TestExecuteInsufficientBalance(t *testing.T) {
	_, from := newKeyAndAddr(t, 14)
	_, to := newKeyAndAddr(t, 15)

	tx := types.Transaction{From: from, To: to, Amount: types.NewAmount(100), Nonce: 0, Fee: types.NewAmount(0)}
	fromAcct := types.Account{Balance: types.NewAmount(10), Nonce: 0}
	toAcct := types.Account{Balance: types.NewAmount(5), Nonce: 0}

	_, _, result := Execute(tx, fromAcct, toAcct)
	require.Equal(t, types.InsufficientBalance, result)
}

func TestExecuteRejectsSameFromTo(t *testing.T) {
	_, addr := newKeyAndAddr(t, 16)

	tx := types.Transaction{From: addr, To: addr, Amount: types.NewAmount(1), Nonce: 0, Fee: types.NewAmount(0)}
	acct := types.Account{Balance: types.NewAmount(10), Nonce: 0}

	_, _, result := Execute(tx, acct, acct)
	require.Equal(t, types.InvalidSignature, result)
}

func TestExecuteRejectsZeroAmount(t *testing.T) {
	_, from := newKeyAndAddr(t, 17)
	_, to := newKeyAndAddr(t, 18)

	tx := types.Transaction{From: from, To: to, Amount: types.NewAmount(0), Nonce: 0, Fee: types.NewAmount(0)}
	fromAcct := types.Account{Balance: types.NewAmount(10), Nonce: 0}
	toAcct := types.Account{Balance: types.NewAmount(5), Nonce: 0}

	_, _, result := Execute(tx, fromAcct, toAcct)
	require.Equal(t, types.InvalidSignature, result)
}

func TestExecuteRejectsAmountPlusFeeOverflow(t *testing.T) {
	_, from := newKeyAndAddr(t, 19)
	_, to := newKeyAndAddr(t, 20)

	maxUint256 := new(uint256.Int).Sub(new(uint256.Int), uint256.NewInt(1)) // 2^256 - 1
	tx := types.Transaction{From: from, To: to, Amount: maxUint256, Nonce: 0, Fee: uint256.NewInt(1)}
	fromAcct := types.Account{Balance: maxUint256, Nonce: 0}
	toAcct := types.Account{Balance: types.NewAmount(0), Nonce: 0}

	newFrom, newTo, result := Execute(tx, fromAcct, toAcct)
	require.Equal(t, types.InvalidAmount, result)
	require.Equal(t, fromAcct, newFrom)
	require.Equal(t, toAcct, newTo)
}

func TestExecuteRejectsRecipientBalanceOverflow(t *testing.T) {
	_, from := newKeyAndAddr(t, 21)
	_, to := newKeyAndAddr(t, 22)

	maxUint256 := new(uint256.Int).Sub(new(uint256.Int), uint256.NewInt(1)) // 2^256 - 1
	tx := types.Transaction{From: from, To: to, Amount: uint256.NewInt(10), Nonce: 0, Fee: types.NewAmount(0)}
	fromAcct := types.Account{Balance: types.NewAmount(100), Nonce: 0}
	toAcct := types.Account{Balance: maxUint256, Nonce: 0}

	newFrom, newTo, result := Execute(tx, fromAcct, toAcct)
	require.Equal(t, types.InvalidAmount, result)
	require.Equal(t, fromAcct, newFrom)
	require.Equal(t, toAcct, newTo)
}
