// Package types holds the domain primitives shared across the settlement
// core: addresses, amounts, accounts, transactions, and the enums used to
// classify rollup block and withdrawal lifecycle state.
package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Address is the host ledger's 20-byte principal identifier. The zero
// address is reserved to mean "absent".
type Address = common.Address

// ZeroAddress is the sentinel for "no account".
var ZeroAddress = common.Address{}

// Hash is a 32-byte content identifier: leaf hashes, state roots, tx
// roots, and withdrawal/request ids all share this shape.
type Hash = common.Hash

// Amount is a non-negative integer with at least 256-bit precision,
// wei-like. Balances, bond amounts, and transfer amounts all use it.
type Amount = uint256.Int

// NewAmount constructs an Amount from a uint64, the common case in tests
// and API request bodies.
func NewAmount(v uint64) *Amount {
	return new(uint256.Int).SetUint64(v)
}

// Nonce is a per-account monotonically non-decreasing counter.
type Nonce = uint64

// Account is the settled balance/nonce pair the state commitment hashes.
type Account struct {
	Balance *Amount
	Nonce   Nonce
}

// ZeroAccount returns a fresh account with zero balance and nonce.
func ZeroAccount() Account {
	return Account{Balance: new(uint256.Int), Nonce: 0}
}

// Clone returns a deep copy so callers can mutate without aliasing the
// original account's balance.
func (a Account) Clone() Account {
	return Account{Balance: new(uint256.Int).Set(a.Balance), Nonce: a.Nonce}
}

// Transaction is a single layer-2 value transfer with fee and nonce.
// Signature is not part of the canonical encoding or the Merkle leaf.
type Transaction struct {
	From      Address
	To        Address
	Amount    *Amount
	Nonce     Nonce
	Fee       *Amount
	Signature []byte
}

// ExecutionResult classifies the outcome of executing a single
// transaction against a pair of accounts.
type ExecutionResult int

const (
	Success ExecutionResult = iota
	InsufficientBalance
	InvalidNonce
	InvalidSignature
	InvalidAmount
)

func (r ExecutionResult) String() string {
	switch r {
	case Success:
		return "Success"
	case InsufficientBalance:
		return "InsufficientBalance"
	case InvalidNonce:
		return "InvalidNonce"
	case InvalidSignature:
		return "InvalidSignature"
	case InvalidAmount:
		return "InvalidAmount"
	default:
		return "Unknown"
	}
}

// WithdrawalStatus tracks an L2-to-settlement-layer withdrawal request
// through its lifecycle, mirrored in Mongo for the API's read queries.
type WithdrawalStatus string

const (
	// WithdrawalPending - requested, the referenced rollup block has not
	// yet finalized.
	WithdrawalPending WithdrawalStatus = "PENDING"

	// WithdrawalReady - the referenced rollup block finalized; the
	// withdrawal may now be processed.
	WithdrawalReady WithdrawalStatus = "READY"

	// WithdrawalProcessed - funds have been released to the requester.
	WithdrawalProcessed WithdrawalStatus = "PROCESSED"
)

// RollupBlockStatus is the materialized status of a RollupBlock, derived
// from its challenged/finalized flags, and persisted for fast filtering
// in the audit API.
type RollupBlockStatus string

const (
	RollupBlockPending    RollupBlockStatus = "PENDING"
	RollupBlockChallenged RollupBlockStatus = "CHALLENGED"
	RollupBlockFinalized  RollupBlockStatus = "FINALIZED"
)
