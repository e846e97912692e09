package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wlvchandler/rollup-settlement-core/types"
)

func TestMemoryBridgeTransferDebitsPool(t *testing.T) {
	b := NewMemoryBridge(types.NewAmount(100))
	err := b.Transfer(types.ZeroAddress, types.NewAmount(40))
	require.NoError(t, err)
	require.Equal(t, uint64(60), b.Balance().Uint64())
}

func TestMemoryBridgeRejectsOverdraft(t *testing.T) {
	b := NewMemoryBridge(types.NewAmount(10))
	err := b.Transfer(types.ZeroAddress, types.NewAmount(11))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, uint64(10), b.Balance().Uint64())
}

func TestMemoryBridgeCredit(t *testing.T) {
	b := NewMemoryBridge(types.NewAmount(0))
	b.Credit(types.NewAmount(5))
	b.Credit(types.NewAmount(7))
	require.Equal(t, uint64(12), b.Balance().Uint64())
}

func TestMemoryClockAdvance(t *testing.T) {
	c := NewMemoryClock(100)
	require.Equal(t, uint64(100), c.CurrentBlock())
	c.Advance(50401)
	require.Equal(t, uint64(50501), c.CurrentBlock())
}
