// Package ledger models the host ledger collaborator the settlement
// engine treats as external: native-value transfer and a monotonic block
// counter. Neither concern is owned by the settlement aggregate itself,
// mirroring the teacher's split between the indexer (which only reads a
// chain) and a contract's own storage (which it would own directly).
package ledger

import (
	"errors"
	"sync"

	"github.com/holiman/uint256"

	"github.com/wlvchandler/rollup-settlement-core/types"
)

// ErrInsufficientBalance is returned by Bridge.Transfer when the pool
// backing the bridge cannot cover the transfer.
var ErrInsufficientBalance = errors.New("ledger: insufficient balance")

// Bridge moves native value out of the settlement engine's custody. A
// real deployment's Bridge is the chain itself; MemoryBridge stands in
// for it in tests and in a standalone deployment with no underlying chain.
type Bridge interface {
	Transfer(to types.Address, amount *types.Amount) error
	Balance() *types.Amount
	Credit(amount *types.Amount)
}

// MemoryBridge is an in-process native-value pool. Transfer is atomic:
// either the whole amount leaves the pool or nothing does.
type MemoryBridge struct {
	mu      sync.Mutex
	balance *types.Amount
}

// NewMemoryBridge returns a bridge funded with the given opening balance.
func NewMemoryBridge(opening *types.Amount) *MemoryBridge {
	b := &MemoryBridge{balance: new(uint256.Int)}
	if opening != nil {
		b.balance.Set(opening)
	}
	return b
}

// Transfer moves amount out of the bridge's pool. The destination
// address is not credited anywhere by this bridge: a MemoryBridge models
// the contract's own native balance, not a second party's wallet, the
// same way the teacher's indexer never models L1 wallet balances it
// doesn't own.
func (b *MemoryBridge) Transfer(to types.Address, amount *types.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balance.Lt(amount) {
		return ErrInsufficientBalance
	}
	b.balance.Sub(b.balance, amount)
	return nil
}

// Credit adds amount to the bridge's pool, used when a caller's value
// (a deposit, a bond) enters the engine's custody.
func (b *MemoryBridge) Credit(amount *types.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balance.Add(b.balance, amount)
}

// Balance returns a snapshot of the current pool balance.
func (b *MemoryBridge) Balance() *types.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(uint256.Int).Set(b.balance)
}

// HostClock models the monotonic host block counter the challenge window
// is measured against. A real deployment's HostClock reads a chain's
// head; MemoryClock advances only when told to, for deterministic tests.
type HostClock interface {
	CurrentBlock() uint64
}

// MemoryClock is a HostClock a caller advances explicitly.
type MemoryClock struct {
	mu      sync.Mutex
	current uint64
}

// NewMemoryClock returns a clock starting at the given block number.
func NewMemoryClock(start uint64) *MemoryClock {
	return &MemoryClock{current: start}
}

// CurrentBlock returns the clock's current value.
func (c *MemoryClock) CurrentBlock() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by n blocks.
func (c *MemoryClock) Advance(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current += n
}
