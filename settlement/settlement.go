// Package settlement implements the settlement manager: the state
// machine owning operator-proposed rollup blocks, bond custody and
// slashing, the L2 deposit/withdrawal ledger, and monotonic
// currentStateRoot advancement. Every exported method is a single
// externally-initiated operation that runs to completion under an
// exclusive lock, matching the cooperative single-writer model the
// engine assumes of its host.
package settlement

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/wlvchandler/rollup-settlement-core/fraud"
	"github.com/wlvchandler/rollup-settlement-core/ledger"
	"github.com/wlvchandler/rollup-settlement-core/merkle"
	"github.com/wlvchandler/rollup-settlement-core/state"
	"github.com/wlvchandler/rollup-settlement-core/txn"
	"github.com/wlvchandler/rollup-settlement-core/types"
)

// OperatorBondAmount is the native value an operator must escrow to
// submit a rollup block.
var OperatorBondAmount = types.NewAmount(1_000_000_000_000_000_000)

// ChallengePeriod is the number of host blocks after submission during
// which a rollup block may be challenged and before which it cannot be
// finalized.
const ChallengePeriod = 50400

// ErrPrecondition is the sentinel every caller-visible precondition
// violation wraps, so callers can branch with errors.Is(err,
// ErrPrecondition) without matching on message text.
var ErrPrecondition = errors.New("settlement: precondition violation")

var (
	ErrZeroValue             = errors.New("value must be greater than zero")
	ErrZeroRoot              = errors.New("state root and tx root must be non-zero")
	ErrBlockNotFound         = errors.New("rollup block not found")
	ErrAlreadyChallenged     = errors.New("rollup block was challenged")
	ErrAlreadyFinalized      = errors.New("rollup block was already finalized")
	ErrChallengeWindowClosed = errors.New("challenge window has closed")
	ErrChallengeWindowOpen   = errors.New("challenge window has not elapsed")
	ErrInsufficientBond      = errors.New("bond is below the required operator bond")
	ErrInsufficientL2Balance = errors.New("insufficient L2 balance")
	ErrWithdrawalNotFound    = errors.New("withdrawal request not found")
	ErrNotWithdrawalOwner    = errors.New("caller does not own this withdrawal request")
	ErrWithdrawalProcessed   = errors.New("withdrawal request already processed")
	ErrSourceBlockNotFinal   = errors.New("rollup block not finalized")
	ErrFraudProofRejected    = errors.New("fraud proof did not establish fraud")
	ErrTxRootMismatch        = errors.New("txRoot does not match the Merkle root of txs")
)

func precondition(err error) error {
	return fmt.Errorf("%w: %w", ErrPrecondition, err)
}

// RollupBlock is one operator-proposed batch, per the lifecycle in
// §3/§4.5: created pending, may transition once to challenged or
// finalized, never both.
type RollupBlock struct {
	Number          uint64
	StateRoot       types.Hash
	TxRoot          types.Hash
	PreStateRoot    types.Hash
	HostBlockNumber uint64
	Operator        types.Address
	Challenged      bool
	Finalized       bool
}

// WithdrawalRequest is a pending or processed debit against the engine's
// L2 balance ledger, bound to the rollup block number in effect when it
// was created.
type WithdrawalRequest struct {
	ID                types.Hash
	User              types.Address
	Amount            *types.Amount
	RollupBlockNumber uint64
	Processed         bool
}

// Settlement is the aggregate that owns every shared mutable field the
// on-chain storage mappings would otherwise hold directly. All methods
// acquire mu on entry and release it on every exit path.
type Settlement struct {
	mu     sync.Mutex
	inCall bool

	bridge   ledger.Bridge
	clock    ledger.HostClock
	treasury types.Address

	accounts           map[types.Address]*types.Amount
	currentStateRoot   types.Hash
	rollupBlockNumber  uint64
	totalValueLocked   *types.Amount
	rollupBlocks       map[uint64]*RollupBlock
	operatorBonds      map[types.Address]*types.Amount
	withdrawalRequests map[types.Hash]*WithdrawalRequest

	events chan SettlementEvent
	seq    uint64
}

// Opts configures a new Settlement aggregate.
type Opts struct {
	Bridge   ledger.Bridge
	Clock    ledger.HostClock
	Treasury types.Address

	// EventBuffer sizes the channel SettlementEvents are emitted on. 0
	// uses a reasonable default; events are dropped only if the buffer
	// fills and nothing is draining it, matching a best-effort audit log
	// rather than a blocking one.
	EventBuffer int
}

// New returns a Settlement with no accounts, genesis state root, and
// rollup block number 0.
func New(opts Opts) *Settlement {
	buf := opts.EventBuffer
	if buf <= 0 {
		buf = 256
	}
	return &Settlement{
		bridge:             opts.Bridge,
		clock:              opts.Clock,
		treasury:           opts.Treasury,
		accounts:           make(map[types.Address]*types.Amount),
		currentStateRoot:   state.GenesisRoot,
		totalValueLocked:   new(uint256.Int),
		rollupBlocks:       make(map[uint64]*RollupBlock),
		operatorBonds:      make(map[types.Address]*types.Amount),
		withdrawalRequests: make(map[types.Hash]*WithdrawalRequest),
		events:             make(chan SettlementEvent, buf),
	}
}

// Events returns the channel the aggregate emits SettlementEvents on. A
// recorder should drain it promptly; see the recorder package.
func (s *Settlement) Events() <-chan SettlementEvent {
	return s.events
}

// guard acquires the aggregate's lock and rejects a same-goroutine
// reentrant call, returning a release func to defer. Go's mutex alone
// would block a reentrant call rather than reject it (and a naive
// recursive lock would deadlock); inCall makes the rejection explicit,
// the same role a Solidity nonReentrant modifier plays.
func (s *Settlement) guard() (func(), error) {
	s.mu.Lock()
	if s.inCall {
		s.mu.Unlock()
		return nil, precondition(errors.New("reentrant call rejected"))
	}
	s.inCall = true
	return func() {
		s.inCall = false
		s.mu.Unlock()
	}, nil
}

func (s *Settlement) emit(ev SettlementEvent) {
	s.seq++
	ev.Sequence = s.seq
	select {
	case s.events <- ev:
	default:
	}
}

func (s *Settlement) balanceOf(addr types.Address) *types.Amount {
	b, ok := s.accounts[addr]
	if !ok {
		return new(uint256.Int)
	}
	return b
}

func (s *Settlement) bondOf(addr types.Address) *types.Amount {
	b, ok := s.operatorBonds[addr]
	if !ok {
		return new(uint256.Int)
	}
	return b
}

// computeTxRoot hashes each tx to its Merkle leaf via txn.MerkleLeaf and
// folds the leaves into a root via merkle.ComputeRoot. An empty batch is
// rejected: a rollup block with no transactions has nothing for txRoot
// to commit to.
func computeTxRoot(txs []types.Transaction) (types.Hash, error) {
	if len(txs) == 0 {
		return types.Hash{}, errors.New("rollup block must include at least one transaction")
	}
	leaves := make([]types.Hash, len(txs))
	for i, tx := range txs {
		leaf, err := txn.MerkleLeaf(tx)
		if err != nil {
			return types.Hash{}, fmt.Errorf("failed to hash tx %d: %w", i, err)
		}
		leaves[i] = leaf
	}
	return merkle.ComputeRoot(leaves)
}

// Deposit credits caller's L2 balance by amount and increases
// totalValueLocked by the same amount. The outbound leg is nonexistent
// here (value only enters); the reentrancy guard still applies per §5,
// since a host ledger's payable entry point is itself a reentrancy
// surface regardless of direction.
func (s *Settlement) Deposit(caller types.Address, amount *types.Amount) error {
	release, err := s.guard()
	if err != nil {
		return err
	}
	defer release()

	if amount == nil || amount.IsZero() {
		return precondition(ErrZeroValue)
	}

	bal := s.balanceOf(caller)
	s.accounts[caller] = new(uint256.Int).Add(bal, amount)
	s.totalValueLocked = new(uint256.Int).Add(s.totalValueLocked, amount)
	s.bridge.Credit(amount)

	s.emit(SettlementEvent{HostBlock: s.clock.CurrentBlock(), Kind: EventDeposit, User: caller, Amount: new(uint256.Int).Set(amount)})
	return nil
}

// SubmitRollupBlock records a new operator-proposed block. bondValue is
// the native value the operator escrows alongside the proposal; it must
// be at least OperatorBondAmount. txRoot must equal merkle.ComputeRoot
// over txn.MerkleLeaf(tx) for every tx in txs, in order (OQ1): the
// operator cannot merely assert a root, the batch it claims to have
// produced must actually hash to it, so a later fraud proof checking
// inclusion against txRoot is checking inclusion in the batch that was
// really submitted.
func (s *Settlement) SubmitRollupBlock(operator types.Address, newStateRoot, txRoot types.Hash, txs []types.Transaction, bondValue *types.Amount) (uint64, error) {
	release, err := s.guard()
	if err != nil {
		return 0, err
	}
	defer release()

	if bondValue == nil || bondValue.Lt(OperatorBondAmount) {
		return 0, precondition(ErrInsufficientBond)
	}
	if newStateRoot == (types.Hash{}) || txRoot == (types.Hash{}) {
		return 0, precondition(ErrZeroRoot)
	}

	computedRoot, err := computeTxRoot(txs)
	if err != nil {
		return 0, precondition(err)
	}
	if computedRoot != txRoot {
		return 0, precondition(ErrTxRootMismatch)
	}

	s.rollupBlockNumber++
	blockNum := s.rollupBlockNumber
	hostBlock := s.clock.CurrentBlock()

	block := &RollupBlock{
		Number:          blockNum,
		StateRoot:       newStateRoot,
		TxRoot:          txRoot,
		PreStateRoot:    s.currentStateRoot,
		HostBlockNumber: hostBlock,
		Operator:        operator,
	}
	s.rollupBlocks[blockNum] = block

	bond := s.bondOf(operator)
	s.operatorBonds[operator] = new(uint256.Int).Add(bond, bondValue)
	s.bridge.Credit(bondValue)

	s.currentStateRoot = newStateRoot

	s.emit(SettlementEvent{
		HostBlock: hostBlock,
		Kind:      EventRollupBlockSubmitted,
		BlockNum:  blockNum,
		StateRoot: newStateRoot,
		TxRoot:    txRoot,
		Operator:  operator,
	})

	return blockNum, nil
}

// ChallengeBlock verifies proof against the named block and, if it
// establishes fraud, slashes the block's operator: half the bond goes to
// challenger, half to s.treasury (OQ6). Per OQ2 a proof that does not
// establish fraud is rejected outright, the block remains pending. Per
// OQ3 the challenge window is enforced here in addition to canChallenge.
func (s *Settlement) ChallengeBlock(blockNum uint64, challenger types.Address, proof fraud.Proof) error {
	release, err := s.guard()
	if err != nil {
		return err
	}
	defer release()

	block, ok := s.rollupBlocks[blockNum]
	if !ok {
		return precondition(ErrBlockNotFound)
	}
	if block.Challenged {
		return precondition(ErrAlreadyChallenged)
	}
	if block.Finalized {
		return precondition(ErrAlreadyFinalized)
	}

	hostBlock := s.clock.CurrentBlock()
	if hostBlock > block.HostBlockNumber+ChallengePeriod {
		return precondition(ErrChallengeWindowClosed)
	}

	result := fraud.VerifyFraudProof(proof)
	if !result.IsFraud {
		return precondition(fmt.Errorf("%w: %s", ErrFraudProofRejected, result.Reason))
	}

	bond := s.bondOf(block.Operator)
	half := new(uint256.Int).Div(bond, types.NewAmount(2))
	remainder := new(uint256.Int).Sub(bond, half)

	// Both payouts must land before any in-memory effect commits: a
	// half-disbursed slash with the block already marked Challenged and
	// the bond already zeroed would be unrecoverable (the withdrawn
	// funds are gone but the state claims the slash never happened).
	if err := s.bridge.Transfer(challenger, half); err != nil {
		return fmt.Errorf("settlement: reward transfer failed: %w", err)
	}
	if err := s.bridge.Transfer(s.treasury, remainder); err != nil {
		s.bridge.Credit(half) // undo the reward transfer, restoring the pre-challenge pool balance
		return fmt.Errorf("settlement: treasury transfer failed: %w", err)
	}

	block.Challenged = true
	s.operatorBonds[block.Operator] = new(uint256.Int)
	s.currentStateRoot = block.PreStateRoot

	s.emit(SettlementEvent{HostBlock: hostBlock, Kind: EventChallenge, BlockNum: blockNum, Challenger: challenger, Operator: block.Operator})
	return nil
}

// FinalizeBlock marks a pending block finalized once the challenge
// window has fully elapsed, and returns the operator's bond.
func (s *Settlement) FinalizeBlock(blockNum uint64) error {
	release, err := s.guard()
	if err != nil {
		return err
	}
	defer release()

	block, ok := s.rollupBlocks[blockNum]
	if !ok {
		return precondition(ErrBlockNotFound)
	}
	if block.Challenged {
		return precondition(ErrAlreadyChallenged)
	}
	if block.Finalized {
		return precondition(ErrAlreadyFinalized)
	}

	hostBlock := s.clock.CurrentBlock()
	if hostBlock <= block.HostBlockNumber+ChallengePeriod {
		return precondition(ErrChallengeWindowOpen)
	}

	block.Finalized = true

	bond := s.bondOf(block.Operator)
	s.operatorBonds[block.Operator] = new(uint256.Int)

	if err := s.bridge.Transfer(block.Operator, bond); err != nil {
		return fmt.Errorf("settlement: bond return transfer failed: %w", err)
	}

	s.emit(SettlementEvent{HostBlock: hostBlock, Kind: EventBlockFinalized, BlockNum: blockNum, Operator: block.Operator})
	return nil
}

// RequestWithdrawal debits caller's L2 balance and stores a withdrawal
// request bound to the rollup block number in effect right now.
func (s *Settlement) RequestWithdrawal(caller types.Address, amount *types.Amount) (types.Hash, error) {
	release, err := s.guard()
	if err != nil {
		return types.Hash{}, err
	}
	defer release()

	if amount == nil || amount.IsZero() {
		return types.Hash{}, precondition(ErrZeroValue)
	}

	bal := s.balanceOf(caller)
	if bal.Lt(amount) {
		return types.Hash{}, precondition(ErrInsufficientL2Balance)
	}

	id := withdrawalID(caller, amount, s.rollupBlockNumber, s.clock.CurrentBlock())

	s.accounts[caller] = new(uint256.Int).Sub(bal, amount)
	s.withdrawalRequests[id] = &WithdrawalRequest{
		ID:                id,
		User:              caller,
		Amount:            new(uint256.Int).Set(amount),
		RollupBlockNumber: s.rollupBlockNumber,
	}

	s.emit(SettlementEvent{HostBlock: s.clock.CurrentBlock(), Kind: EventWithdrawalRequested, User: caller, Amount: new(uint256.Int).Set(amount), WithdrawalID: id})
	return id, nil
}

// ProcessWithdrawal transfers a previously requested withdrawal's amount
// to its owner, once the request's source rollup block has finalized.
func (s *Settlement) ProcessWithdrawal(id types.Hash, caller types.Address) error {
	release, err := s.guard()
	if err != nil {
		return err
	}
	defer release()

	req, ok := s.withdrawalRequests[id]
	if !ok {
		return precondition(ErrWithdrawalNotFound)
	}
	if req.Processed {
		return precondition(ErrWithdrawalProcessed)
	}
	if req.User != caller {
		return precondition(ErrNotWithdrawalOwner)
	}

	block, ok := s.rollupBlocks[req.RollupBlockNumber]
	if !ok || !block.Finalized {
		return precondition(ErrSourceBlockNotFinal)
	}

	// Interaction before effects: req.Processed/totalValueLocked must not
	// change unless the transfer actually lands, or a failed send would
	// permanently mark the withdrawal processed while delivering nothing.
	if err := s.bridge.Transfer(caller, req.Amount); err != nil {
		return fmt.Errorf("settlement: withdrawal transfer failed: %w", err)
	}

	req.Processed = true
	s.totalValueLocked = new(uint256.Int).Sub(s.totalValueLocked, req.Amount)

	s.emit(SettlementEvent{HostBlock: s.clock.CurrentBlock(), Kind: EventWithdrawalProcessed, User: caller, Amount: new(uint256.Int).Set(req.Amount), WithdrawalID: id})
	return nil
}

func withdrawalID(user types.Address, amount *types.Amount, blockNum uint64, timestamp uint64) types.Hash {
	amountBytes := amount.Bytes32()
	var blockBuf, tsBuf [8]byte
	putUint64(blockBuf[:], blockNum)
	putUint64(tsBuf[:], timestamp)
	return crypto.Keccak256Hash(user[:], amountBytes[:], blockBuf[:], tsBuf[:])
}

func putUint64(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}
