// Package txn implements the transaction engine: canonical encoding and
// hashing of a single layer-2 transfer, ECDSA signature recovery over the
// host's signed-message prefix, and deterministic single-tx execution
// over an account pair.
package txn

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/wlvchandler/rollup-settlement-core/types"
)

// TypeHash domain-separates the signing hash of a Transaction from any
// other message the same key might sign.
var TypeHash = crypto.Keccak256Hash([]byte("Transaction(address from,address to,uint256 amount,uint256 nonce,uint256 fee)"))

// signedMessagePrefix is the host's prefix applied before hashing a
// message for ECDSA recovery, matching Ethereum's personal_sign scheme.
const signedMessagePrefix = "\x19Ethereum Signed Message:\n32"

// Serialize returns the canonical encoding of (from, to, amount, nonce,
// fee). The signature is never part of this encoding.
func Serialize(tx types.Transaction) ([]byte, error) {
	addrTy, err := abi.NewType("address", "", nil)
	if err != nil {
		return nil, err
	}
	uintTy, err := abi.NewType("uint256", "", nil)
	if err != nil {
		return nil, err
	}

	args := abi.Arguments{{Type: addrTy}, {Type: addrTy}, {Type: uintTy}, {Type: uintTy}, {Type: uintTy}}

	amount := amountOrZero(tx.Amount).ToBig()
	fee := amountOrZero(tx.Fee).ToBig()
	nonce := new(uint256.Int).SetUint64(tx.Nonce).ToBig()

	return args.Pack(tx.From, tx.To, amount, nonce, fee)
}

func amountOrZero(a *types.Amount) *types.Amount {
	if a == nil {
		return new(uint256.Int)
	}
	return a
}

// MerkleLeaf returns H(Serialize(tx)), the leaf hashed into a batch's
// transaction root.
func MerkleLeaf(tx types.Transaction) (types.Hash, error) {
	encoded, err := Serialize(tx)
	if err != nil {
		return types.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

// SigningHash returns H(TYPE_HASH || from || to || amount || nonce ||
// fee), the pre-prefix hash a signer signs over.
func SigningHash(tx types.Transaction) types.Hash {
	amount := amountOrZero(tx.Amount).Bytes32()
	fee := amountOrZero(tx.Fee).Bytes32()
	var nonceBuf [32]byte
	binary.BigEndian.PutUint64(nonceBuf[24:], tx.Nonce)

	return crypto.Keccak256Hash(
		TypeHash[:],
		tx.From[:],
		tx.To[:],
		amount[:],
		nonceBuf[:],
		fee[:],
	)
}

// prefixedHash applies the host's signed-message prefix ahead of the
// 32-byte signing hash, the preimage that is actually ECDSA-signed.
func prefixedHash(h types.Hash) types.Hash {
	return crypto.Keccak256Hash([]byte(signedMessagePrefix), h[:])
}

// RecoverSigner recovers the address that produced signature over tx's
// signing hash, under the host's signed-message prefix. Returns the zero
// address (no error) if signature is malformed or recovery fails, since
// signature validity is judged by comparing the recovered address to
// tx.From, not by a recovery error.
func RecoverSigner(tx types.Transaction, signature []byte) types.Address {
	if len(signature) != 65 {
		return types.ZeroAddress
	}

	hash := prefixedHash(SigningHash(tx))

	// go-ethereum's recovery id is the last signature byte in [0,1]; the
	// legacy Ethereum wire format used [27,28] and must be normalized.
	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pub, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return types.ZeroAddress
	}

	return crypto.PubkeyToAddress(*pub)
}

// ValidSignature reports whether signature is exactly 65 bytes and
// recovers to tx.From, which must be non-zero.
func ValidSignature(tx types.Transaction) bool {
	if len(tx.Signature) != 65 {
		return false
	}
	if tx.From == types.ZeroAddress {
		return false
	}
	return RecoverSigner(tx, tx.Signature) == tx.From
}

// Execute applies tx against fromAcct/toAcct, returning the updated
// accounts and a result classifying the outcome. On any non-Success
// result both input accounts are returned unchanged.
func Execute(tx types.Transaction, fromAcct, toAcct types.Account) (types.Account, types.Account, types.ExecutionResult) {
	if tx.From == types.ZeroAddress || tx.To == types.ZeroAddress || tx.From == tx.To {
		return fromAcct, toAcct, types.InvalidSignature
	}
	if tx.Amount == nil || tx.Amount.IsZero() {
		return fromAcct, toAcct, types.InvalidSignature
	}

	if tx.Nonce != fromAcct.Nonce {
		return fromAcct, toAcct, types.InvalidNonce
	}

	fee := amountOrZero(tx.Fee)
	required, overflow := new(uint256.Int).AddOverflow(tx.Amount, fee)
	if overflow {
		return fromAcct, toAcct, types.InvalidAmount
	}
	if fromAcct.Balance.Lt(required) {
		return fromAcct, toAcct, types.InsufficientBalance
	}

	newFromBalance, overflow := new(uint256.Int).SubOverflow(fromAcct.Balance, required)
	if overflow {
		return fromAcct, toAcct, types.InsufficientBalance
	}
	newToBalance, overflow := new(uint256.Int).AddOverflow(toAcct.Balance, tx.Amount)
	if overflow {
		return fromAcct, toAcct, types.InvalidAmount
	}

	newFrom := types.Account{
		Balance: newFromBalance,
		Nonce:   fromAcct.Nonce + 1,
	}
	newTo := types.Account{
		Balance: newToBalance,
		Nonce:   toAcct.Nonce,
	}

	return newFrom, newTo, types.Success
}
