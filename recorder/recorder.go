// Package recorder bridges settlement.Settlement's emitted events to
// durable storage: an append-only audit log plus refreshed per-entity
// projections, the same role the teacher's indexer plays turning
// on-chain logs into Mongo documents. Here the "chain" is the
// in-process settlement engine, so there is no polling loop: a single
// goroutine drains settlement.Settlement.Events() until its context is
// canceled.
package recorder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wlvchandler/rollup-settlement-core/database"
	"github.com/wlvchandler/rollup-settlement-core/database/models"
	"github.com/wlvchandler/rollup-settlement-core/settlement"
	"github.com/wlvchandler/rollup-settlement-core/types"
)

// checkpointSource names this recorder's row in the last_recorded_sequence
// collection. A deployment running more than one settlement engine would
// give each recorder a distinct source.
const checkpointSource = "settlement-engine"

type Recorder struct {
	settlement *settlement.Settlement
	database   *database.Database
	logger     *slog.Logger
}

type Opts struct {
	Settlement *settlement.Settlement
	Database   *database.Database
	Logger     *slog.Logger
}

func NewRecorder(opts Opts) *Recorder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{settlement: opts.Settlement, database: opts.Database, logger: logger}
}

// Run drains events until ctx is canceled, returning the channel-side
// error if the events channel is closed early (it never is in normal
// operation; Settlement's channel lives as long as the process).
func (r *Recorder) Run(ctx context.Context) error {
	events := r.settlement.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("recorder: settlement event channel closed")
			}
			if err := r.record(ctx, ev); err != nil {
				r.logger.Error("failed to record settlement event", "sequence", ev.Sequence, "kind", ev.Kind, "error", err)
			}
		}
	}
}

func (r *Recorder) record(ctx context.Context, ev settlement.SettlementEvent) error {
	if err := r.database.BatchCreateEvents(ctx, []models.Event{eventToModel(ev)}); err != nil {
		return fmt.Errorf("failed to persist event: %w", err)
	}

	switch ev.Kind {
	case settlement.EventRollupBlockSubmitted, settlement.EventChallenge, settlement.EventBlockFinalized:
		if err := r.refreshRollupBlock(ctx, ev.BlockNum); err != nil {
			return err
		}
		if ev.Kind != settlement.EventRollupBlockSubmitted {
			if err := r.refreshOperatorBond(ctx, ev.Operator); err != nil {
				return err
			}
		}
	case settlement.EventWithdrawalRequested, settlement.EventWithdrawalProcessed:
		if err := r.refreshWithdrawal(ctx, ev.WithdrawalID); err != nil {
			return err
		}
	}

	return r.database.UpdateLastRecordedSequence(ctx, checkpointSource, ev.Sequence)
}

func (r *Recorder) refreshRollupBlock(ctx context.Context, blockNum uint64) error {
	block, ok := r.settlement.GetRollupBlock(blockNum)
	if !ok {
		return nil
	}
	if err := r.database.UpsertRollupBlock(ctx, rollupBlockToModel(block)); err != nil {
		return fmt.Errorf("failed to refresh rollup block projection: %w", err)
	}
	return nil
}

func (r *Recorder) refreshOperatorBond(ctx context.Context, operator types.Address) error {
	bond := r.settlement.GetOperatorBond(operator)
	doc := models.OperatorBond{Operator: operator.Hex(), Amount: bond.String()}
	if err := r.database.UpsertOperatorBond(ctx, doc); err != nil {
		return fmt.Errorf("failed to refresh operator bond projection: %w", err)
	}
	return nil
}

func (r *Recorder) refreshWithdrawal(ctx context.Context, id types.Hash) error {
	req, ok := r.settlement.GetWithdrawalRequest(id)
	if !ok {
		return nil
	}
	if err := r.database.UpsertWithdrawal(ctx, withdrawalToModel(req, r.settlement.CanProcessWithdrawal(id))); err != nil {
		return fmt.Errorf("failed to refresh withdrawal projection: %w", err)
	}
	return nil
}

func eventToModel(ev settlement.SettlementEvent) models.Event {
	m := models.Event{
		Sequence:  ev.Sequence,
		HostBlock: ev.HostBlock,
		Kind:      string(ev.Kind),
		BlockNum:  ev.BlockNum,
	}
	if ev.User != types.ZeroAddress {
		m.User = ev.User.Hex()
	}
	if ev.Amount != nil {
		m.Amount = ev.Amount.String()
	}
	if ev.StateRoot != (types.Hash{}) {
		m.StateRoot = ev.StateRoot.Hex()
	}
	if ev.TxRoot != (types.Hash{}) {
		m.TxRoot = ev.TxRoot.Hex()
	}
	if ev.Operator != types.ZeroAddress {
		m.Operator = ev.Operator.Hex()
	}
	if ev.Challenger != types.ZeroAddress {
		m.Challenger = ev.Challenger.Hex()
	}
	if ev.WithdrawalID != (types.Hash{}) {
		m.WithdrawalID = ev.WithdrawalID.Hex()
	}
	return m
}

func rollupBlockToModel(block settlement.RollupBlock) models.RollupBlock {
	status := string(types.RollupBlockPending)
	switch {
	case block.Challenged:
		status = string(types.RollupBlockChallenged)
	case block.Finalized:
		status = string(types.RollupBlockFinalized)
	}

	return models.RollupBlock{
		Number:          block.Number,
		StateRoot:       block.StateRoot.Hex(),
		TxRoot:          block.TxRoot.Hex(),
		PreStateRoot:    block.PreStateRoot.Hex(),
		HostBlockNumber: block.HostBlockNumber,
		Operator:        block.Operator.Hex(),
		Challenged:      block.Challenged,
		Finalized:       block.Finalized,
		Status:          status,
	}
}

func withdrawalToModel(req settlement.WithdrawalRequest, canProcess bool) models.Withdrawal {
	status := string(types.WithdrawalPending)
	switch {
	case req.Processed:
		status = string(types.WithdrawalProcessed)
	case canProcess:
		status = string(types.WithdrawalReady)
	}

	return models.Withdrawal{
		ID:                req.ID.Hex(),
		User:              req.User.Hex(),
		Amount:            req.Amount.String(),
		RollupBlockNumber: req.RollupBlockNumber,
		Processed:         req.Processed,
		Status:            status,
	}
}
