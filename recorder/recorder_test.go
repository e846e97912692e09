package recorder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wlvchandler/rollup-settlement-core/settlement"
	"github.com/wlvchandler/rollup-settlement-core/types"
)

func addr(b byte) types.Address {
	var a types.Address
	a[len(a)-1] = b
	return a
}

func TestRollupBlockToModelDerivesStatus(t *testing.T) {
	block := settlement.RollupBlock{Number: 1, Operator: addr(1), StateRoot: types.Hash{1}, TxRoot: types.Hash{2}}
	m := rollupBlockToModel(block)
	require.Equal(t, string(types.RollupBlockPending), m.Status)

	block.Challenged = true
	m = rollupBlockToModel(block)
	require.Equal(t, string(types.RollupBlockChallenged), m.Status)

	block.Challenged, block.Finalized = false, true
	m = rollupBlockToModel(block)
	require.Equal(t, string(types.RollupBlockFinalized), m.Status)
}

func TestWithdrawalToModelDerivesStatus(t *testing.T) {
	req := settlement.WithdrawalRequest{ID: types.Hash{9}, User: addr(1), Amount: types.NewAmount(5), RollupBlockNumber: 1}

	m := withdrawalToModel(req, false)
	require.Equal(t, string(types.WithdrawalPending), m.Status)

	m = withdrawalToModel(req, true)
	require.Equal(t, string(types.WithdrawalReady), m.Status)

	req.Processed = true
	m = withdrawalToModel(req, true)
	require.Equal(t, string(types.WithdrawalProcessed), m.Status)
}

func TestEventToModelOmitsZeroFields(t *testing.T) {
	ev := settlement.SettlementEvent{Sequence: 3, HostBlock: 7, Kind: settlement.EventDeposit, User: addr(1), Amount: types.NewAmount(10)}
	m := eventToModel(ev)

	require.Equal(t, uint64(3), m.Sequence)
	require.Equal(t, addr(1).Hex(), m.User)
	require.Equal(t, "10", m.Amount)
	require.Empty(t, m.Operator)
	require.Empty(t, m.WithdrawalID)
}
