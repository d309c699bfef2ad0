package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/arisanhub/arisand/internal/domain"
)

// Fixed gas ceilings per operation. Deploying a group is by far the most
// expensive call; the rest are ordinary state transitions.
const (
	gasCreateGroup uint64 = 2_000_000
	gasApprove     uint64 = 500_000
	gasJoin        uint64 = 800_000
	gasPickWinner  uint64 = 500_000
	gasClaimPrize  uint64 = 250_000
)

// groupReader is the read slice the orchestrator needs for preflight checks.
// Satisfied by *Reader.
type groupReader interface {
	EntryFee(ctx context.Context, group common.Address) (*big.Int, error)
	Participants(ctx context.Context, group common.Address) ([]domain.Participant, error)
	MaxParticipants(ctx context.Context, group common.Address) (int, error)
	TokenDecimals(ctx context.Context) uint8
	TokenBalance(ctx context.Context, wallet common.Address) (*big.Int, error)
	TokenAllowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	PendingPrize(ctx context.Context, group, wallet common.Address) (*big.Int, error)
}

// CreateResult reports a confirmed group deployment.
type CreateResult struct {
	GroupAddress common.Address
	TxHash       common.Hash
	EntryFeeRaw  *big.Int
}

// JoinResult reports a confirmed join. Approved records whether a separate
// allowance transaction was needed first.
type JoinResult struct {
	TxHash   common.Hash
	Approved bool
}

// WinnerResult reports a confirmed draw.
type WinnerResult struct {
	Winner    common.Address
	Amount    *big.Int
	Timestamp int64
	TxHash    common.Hash
}

// Orchestrator drives the write path: it validates inputs with cheap reads
// before spending gas, sequences the approve-then-join flow, and decodes the
// resulting receipts into typed outcomes.
type Orchestrator struct {
	reader  groupReader
	sub     Submitter
	factory common.Address
	token   common.Address
	logger  *slog.Logger
}

// NewOrchestrator wires an orchestrator from its read and write halves.
func NewOrchestrator(reader groupReader, sub Submitter, factory, token common.Address, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		reader:  reader,
		sub:     sub,
		factory: factory,
		token:   token,
		logger:  logger,
	}
}

// Wallet returns the signing wallet the orchestrator acts as.
func (o *Orchestrator) Wallet() common.Address { return o.sub.From() }

// CreateGroup deploys a new group through the factory. The entry fee is a
// human-readable decimal string, converted at the token's native decimals.
// When the deployment confirms but no creation event can be decoded from the
// receipt, the result still carries the transaction hash alongside the
// decode error.
func (o *Orchestrator) CreateGroup(ctx context.Context, name, description, entryFee string, maxParticipants int) (CreateResult, error) {
	if maxParticipants <= 0 {
		return CreateResult{}, fmt.Errorf("%w: max participants must be positive", domain.ErrInvalidAmount)
	}
	// Reject malformed fees before the decimals lookup hits the RPC.
	if err := ValidateAmount(entryFee); err != nil {
		return CreateResult{}, err
	}
	feeRaw, err := ParseUnits(entryFee, o.reader.TokenDecimals(ctx))
	if err != nil {
		return CreateResult{}, err
	}

	calldata, err := factoryABI.Pack("createArisan", name, description, feeRaw, big.NewInt(int64(maxParticipants)))
	if err != nil {
		return CreateResult{}, fmt.Errorf("chain: pack createArisan: %w", err)
	}

	receipt, err := o.sub.Submit(ctx, o.factory, calldata, gasCreateGroup)
	if err != nil {
		return CreateResult{}, err
	}

	res := CreateResult{TxHash: receipt.TxHash, EntryFeeRaw: feeRaw}
	created, err := FirstCreated(receipt)
	if err != nil {
		return res, fmt.Errorf("chain: group deployed in tx %s but creation event missing: %w", receipt.TxHash.Hex(), err)
	}
	res.GroupAddress = created.GroupAddress

	o.logger.Info("group created",
		"address", created.GroupAddress.Hex(),
		"name", name,
		"entry_fee", feeRaw.String(),
		"tx", receipt.TxHash.Hex())
	return res, nil
}

// Join runs the full membership flow for the signing wallet: preflight checks
// against the roster and token balances, an allowance top-up only when the
// current allowance does not cover the fee, then the join itself. The group
// reads fan out in parallel, but the checks apply in a fixed order so the
// caller sees the most actionable failure first.
func (o *Orchestrator) Join(ctx context.Context, group common.Address) (JoinResult, error) {
	wallet := o.sub.From()

	var (
		fee   *big.Int
		parts []domain.Participant
		max   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		fee, err = o.reader.EntryFee(gctx, group)
		return err
	})
	g.Go(func() (err error) {
		parts, err = o.reader.Participants(gctx, group)
		return err
	})
	g.Go(func() (err error) {
		max, err = o.reader.MaxParticipants(gctx, group)
		return err
	})
	if err := g.Wait(); err != nil {
		return JoinResult{}, err
	}

	if len(parts) >= max {
		return JoinResult{}, fmt.Errorf("%w: %d/%d", domain.ErrGroupFull, len(parts), max)
	}
	me := domain.NormalizeAddress(wallet.Hex())
	for _, p := range parts {
		if p.WalletAddress == me {
			return JoinResult{}, domain.ErrAlreadyJoined
		}
	}

	balance, err := o.reader.TokenBalance(ctx, wallet)
	if err != nil {
		return JoinResult{}, err
	}
	if balance.Cmp(fee) < 0 {
		decimals := o.reader.TokenDecimals(ctx)
		return JoinResult{}, fmt.Errorf("%w: need %s", domain.ErrInsufficientBalance, FormatUnits(fee, decimals))
	}

	var approved bool
	allowance, err := o.reader.TokenAllowance(ctx, wallet, group)
	if err != nil {
		return JoinResult{}, err
	}
	if allowance.Cmp(fee) < 0 {
		// Approve exactly the entry fee, never unlimited.
		calldata, err := erc20ABI.Pack("approve", group, fee)
		if err != nil {
			return JoinResult{}, fmt.Errorf("chain: pack approve: %w", err)
		}
		if _, err := o.sub.Submit(ctx, o.token, calldata, gasApprove); err != nil {
			return JoinResult{}, fmt.Errorf("chain: approve: %w", err)
		}
		approved = true
	}

	calldata, err := arisanABI.Pack("join")
	if err != nil {
		return JoinResult{}, fmt.Errorf("chain: pack join: %w", err)
	}
	receipt, err := o.sub.Submit(ctx, group, calldata, gasJoin)
	if err != nil {
		return JoinResult{}, err
	}

	o.logger.Info("joined group",
		"group", group.Hex(),
		"wallet", wallet.Hex(),
		"approved", approved,
		"tx", receipt.TxHash.Hex())
	return JoinResult{TxHash: receipt.TxHash, Approved: approved}, nil
}

// PickWinner submits the draw. Eligibility is not pre-checked off-chain: the
// contract is the only party that can fairly decide, so a rejected draw
// surfaces as a revert.
func (o *Orchestrator) PickWinner(ctx context.Context, group common.Address) (WinnerResult, error) {
	calldata, err := arisanABI.Pack("kocok")
	if err != nil {
		return WinnerResult{}, fmt.Errorf("chain: pack kocok: %w", err)
	}
	receipt, err := o.sub.Submit(ctx, group, calldata, gasPickWinner)
	if err != nil {
		return WinnerResult{}, err
	}

	res := WinnerResult{TxHash: receipt.TxHash}
	winner, err := FirstWinner(receipt)
	if err != nil {
		return res, fmt.Errorf("chain: draw confirmed in tx %s but winner event missing: %w", receipt.TxHash.Hex(), err)
	}
	res.Winner = winner.Winner
	res.Amount = winner.Amount
	if winner.Timestamp != nil {
		res.Timestamp = winner.Timestamp.Int64()
	}

	o.logger.Info("winner picked",
		"group", group.Hex(),
		"winner", winner.Winner.Hex(),
		"amount", winner.Amount.String(),
		"tx", receipt.TxHash.Hex())
	return res, nil
}

// ClaimPrize withdraws the signing wallet's pending prize from a group.
func (o *Orchestrator) ClaimPrize(ctx context.Context, group common.Address) (common.Hash, error) {
	calldata, err := arisanABI.Pack("withdrawPrize")
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: pack withdrawPrize: %w", err)
	}
	receipt, err := o.sub.Submit(ctx, group, calldata, gasClaimPrize)
	if err != nil {
		return common.Hash{}, err
	}

	o.logger.Info("prize claimed", "group", group.Hex(), "wallet", o.sub.From().Hex(), "tx", receipt.TxHash.Hex())
	return receipt.TxHash, nil
}

// PendingPrize reports the signing wallet's unclaimed prize in a group as a
// display string.
func (o *Orchestrator) PendingPrize(ctx context.Context, group common.Address) (string, error) {
	pending, err := o.reader.PendingPrize(ctx, group, o.sub.From())
	if err != nil {
		return "0", err
	}
	return FormatUnits(pending, fallbackTokenDigits), nil
}
