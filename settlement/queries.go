package settlement

import (
	"github.com/holiman/uint256"

	"github.com/wlvchandler/rollup-settlement-core/types"
)

// CurrentState is the return shape of GetCurrentState.
type CurrentState struct {
	StateRoot         types.Hash
	RollupBlockNumber uint64
}

// GetCurrentState returns the current state root and rollup block number.
func (s *Settlement) GetCurrentState() CurrentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CurrentState{StateRoot: s.currentStateRoot, RollupBlockNumber: s.rollupBlockNumber}
}

// GetBalance returns addr's L2 ledger balance (zero if never deposited).
func (s *Settlement) GetBalance(addr types.Address) *types.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(uint256.Int).Set(s.balanceOf(addr))
}

// GetRollupBlock returns the block at blockNum, or false if absent.
func (s *Settlement) GetRollupBlock(blockNum uint64) (RollupBlock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	block, ok := s.rollupBlocks[blockNum]
	if !ok {
		return RollupBlock{}, false
	}
	return *block, true
}

// GetOperatorBond returns the currently escrowed bond for operator.
func (s *Settlement) GetOperatorBond(operator types.Address) *types.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(uint256.Int).Set(s.bondOf(operator))
}

// GetWithdrawalRequest returns the withdrawal request named by id, or
// false if absent.
func (s *Settlement) GetWithdrawalRequest(id types.Hash) (WithdrawalRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.withdrawalRequests[id]
	if !ok {
		return WithdrawalRequest{}, false
	}
	out := *req
	out.Amount = new(uint256.Int).Set(req.Amount)
	return out, true
}

// CanFinalize reports whether blockNum is eligible for FinalizeBlock
// right now: exists, neither challenged nor finalized, and the challenge
// window has fully elapsed.
func (s *Settlement) CanFinalize(blockNum uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	block, ok := s.rollupBlocks[blockNum]
	if !ok || block.Challenged || block.Finalized {
		return false
	}
	return s.clock.CurrentBlock() > block.HostBlockNumber+ChallengePeriod
}

// CanChallenge reports whether blockNum is eligible for ChallengeBlock
// right now: exists, neither challenged nor finalized, and still inside
// the challenge window.
func (s *Settlement) CanChallenge(blockNum uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	block, ok := s.rollupBlocks[blockNum]
	if !ok || block.Challenged || block.Finalized {
		return false
	}
	return s.clock.CurrentBlock() <= block.HostBlockNumber+ChallengePeriod
}

// CanProcessWithdrawal reports whether the withdrawal request named by
// id is eligible for ProcessWithdrawal right now.
func (s *Settlement) CanProcessWithdrawal(id types.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.withdrawalRequests[id]
	if !ok || req.Processed {
		return false
	}
	block, ok := s.rollupBlocks[req.RollupBlockNumber]
	return ok && block.Finalized
}

// TotalValueLocked returns the current totalValueLocked accumulator.
func (s *Settlement) TotalValueLocked() *types.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(uint256.Int).Set(s.totalValueLocked)
}
