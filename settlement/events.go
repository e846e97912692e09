package settlement

import "github.com/wlvchandler/rollup-settlement-core/types"

// EventKind tags the variant carried by a SettlementEvent.
type EventKind string

const (
	EventDeposit              EventKind = "Deposit"
	EventRollupBlockSubmitted EventKind = "RollupBlockSubmitted"
	EventChallenge            EventKind = "Challenge"
	EventBlockFinalized       EventKind = "BlockFinalized"
	EventWithdrawalRequested  EventKind = "WithdrawalRequested"
	EventWithdrawalProcessed  EventKind = "WithdrawalProcessed"
)

// SettlementEvent is a tagged emission from the Settlement aggregate,
// carrying a monotonic sequence number and the host block it occurred at
// so a persisted log can be replayed in order. Only the fields relevant
// to Kind are populated.
type SettlementEvent struct {
	Sequence  uint64
	HostBlock uint64
	Kind      EventKind

	User         types.Address
	Amount       *types.Amount
	BlockNum     uint64
	StateRoot    types.Hash
	TxRoot       types.Hash
	Operator     types.Address
	Challenger   types.Address
	WithdrawalID types.Hash
}
