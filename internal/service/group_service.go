// Package service composes the chain access layer, the off-chain stores, and
// the caches into the operations the API and background jobs expose.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arisanhub/arisand/internal/chain"
	"github.com/arisanhub/arisand/internal/domain"
	"github.com/arisanhub/arisand/internal/reconcile"
)

const balanceTTL = 30 * time.Second

// Pub/sub channels and streams the services publish on.
const (
	ChannelGroups  = "groups"
	ChannelWinners = "winners"
	StreamWinners  = "winners:stream"
)

// ChainReader is the read-only chain surface the services consume.
// Implemented by *chain.Reader.
type ChainReader interface {
	ListGroups(ctx context.Context) []domain.Group
	GroupDetails(ctx context.Context, group common.Address) (domain.Group, error)
	TokenBalance(ctx context.Context, wallet common.Address) (*big.Int, error)
	TokenDecimals(ctx context.Context) uint8
}

// TxRunner is the write surface. Implemented by *chain.Orchestrator; nil in
// read-only deployments.
type TxRunner interface {
	Wallet() common.Address
	CreateGroup(ctx context.Context, name, description, entryFee string, maxParticipants int) (chain.CreateResult, error)
	Join(ctx context.Context, group common.Address) (chain.JoinResult, error)
	PickWinner(ctx context.Context, group common.Address) (chain.WinnerResult, error)
	ClaimPrize(ctx context.Context, group common.Address) (common.Hash, error)
	PendingPrize(ctx context.Context, group common.Address) (string, error)
}

// Notifier delivers operator alerts. Implemented by *notify.Notifier.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// CreateGroupParams are the inputs for deploying a new savings circle.
type CreateGroupParams struct {
	Name            string
	Description     string
	EntryFee        string
	MaxParticipants int
	Duration        string
}

// GroupService mediates every group operation between the contracts and the
// off-chain mirror.
type GroupService struct {
	reader   ChainReader
	tx       TxRunner
	groups   domain.GroupStore
	joins    domain.JoinStore
	winners  domain.WinnerStore
	cache    domain.GroupCache
	balances domain.BalanceCache
	bus      domain.SignalBus
	notifier Notifier
	logger   *slog.Logger
}

// NewGroupService creates a GroupService. tx and notifier may be nil.
func NewGroupService(
	reader ChainReader,
	tx TxRunner,
	groups domain.GroupStore,
	joins domain.JoinStore,
	winners domain.WinnerStore,
	cache domain.GroupCache,
	balances domain.BalanceCache,
	bus domain.SignalBus,
	notifier Notifier,
	logger *slog.Logger,
) *GroupService {
	return &GroupService{
		reader:   reader,
		tx:       tx,
		groups:   groups,
		joins:    joins,
		winners:  winners,
		cache:    cache,
		balances: balances,
		bus:      bus,
		notifier: notifier,
		logger:   logger,
	}
}

// List returns the merged group universe: the chain listing overlaid with the
// off-chain mirror. When both the chain and the mirror come back empty the
// last cached snapshot is served instead, so a degraded RPC does not blank
// the dashboard.
func (s *GroupService) List(ctx context.Context) []domain.Group {
	chainGroups := s.reader.ListGroups(ctx)

	mirror, err := s.groups.ListAll(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "group_service: mirror listing failed",
			slog.String("error", err.Error()),
		)
	}

	merged := reconcile.Merge(chainGroups, mirror)
	if len(merged) == 0 {
		if cached, err := s.cache.GetSnapshot(ctx); err == nil {
			return cached
		}
		return merged
	}

	if err := s.cache.SetSnapshot(ctx, merged); err != nil {
		s.logger.WarnContext(ctx, "group_service: snapshot write failed",
			slog.String("error", err.Error()),
		)
	}
	return merged
}

// Get returns the merged view of one group. The chain is authoritative; when
// it cannot serve the group, a mirror row is synthesized into a placeholder,
// and only when both sides are empty does the lookup fail.
func (s *GroupService) Get(ctx context.Context, address string) (domain.Group, error) {
	if !common.IsHexAddress(address) {
		return domain.Group{}, fmt.Errorf("%w: group %s", domain.ErrNotFound, address)
	}
	addr := common.HexToAddress(address)

	var chainGroups []domain.Group
	g, err := s.reader.GroupDetails(ctx, addr)
	if err != nil {
		s.logger.WarnContext(ctx, "group_service: chain read failed",
			slog.String("group", address),
			slog.String("error", err.Error()),
		)
	} else {
		chainGroups = []domain.Group{g}
	}

	var mirror []domain.GroupRecord
	if rec, err := s.groups.GetByAddress(ctx, address); err == nil {
		mirror = []domain.GroupRecord{rec}
	}

	merged := reconcile.Merge(chainGroups, mirror)
	if len(merged) == 0 {
		return domain.Group{}, fmt.Errorf("%w: group %s", domain.ErrNotFound, address)
	}
	return merged[0], nil
}

// Create deploys a group and mirrors its metadata so dashboards pick it up
// before the chain listing does.
func (s *GroupService) Create(ctx context.Context, p CreateGroupParams) (chain.CreateResult, error) {
	if s.tx == nil {
		return chain.CreateResult{}, domain.ErrNoSigner
	}

	res, err := s.tx.CreateGroup(ctx, p.Name, p.Description, p.EntryFee, p.MaxParticipants)
	if err != nil {
		return res, err
	}

	rec := domain.GroupRecord{
		ContractAddress: domain.NormalizeAddress(res.GroupAddress.Hex()),
		Name:            p.Name,
		Description:     p.Description,
		Status:          domain.GroupStatusActive,
		CreatedBy:       domain.NormalizeAddress(s.tx.Wallet().Hex()),
		EntryFee:        p.EntryFee,
		MaxParticipants: p.MaxParticipants,
		Duration:        p.Duration,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.groups.Upsert(ctx, rec); err != nil {
		// The contract exists regardless; the mirror catches up on next sync.
		s.logger.ErrorContext(ctx, "group_service: mirror write failed",
			slog.String("group", rec.ContractAddress),
			slog.String("error", err.Error()),
		)
	}

	s.invalidate(ctx)
	s.publish(ctx, ChannelGroups, map[string]any{
		"type":    "group_created",
		"address": rec.ContractAddress,
		"name":    p.Name,
	})
	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, "group_created", "New savings circle",
			fmt.Sprintf("%s deployed at %s (fee %s)", p.Name, rec.ContractAddress, p.EntryFee))
	}
	return res, nil
}

// Join runs the preflighted membership flow for the service wallet and
// mirrors the confirmed join.
func (s *GroupService) Join(ctx context.Context, address string) (chain.JoinResult, error) {
	if s.tx == nil {
		return chain.JoinResult{}, domain.ErrNoSigner
	}
	if !common.IsHexAddress(address) {
		return chain.JoinResult{}, fmt.Errorf("%w: group %s", domain.ErrNotFound, address)
	}

	res, err := s.tx.Join(ctx, common.HexToAddress(address))
	if err != nil {
		return res, err
	}

	rec := domain.JoinRecord{
		GroupAddress:  domain.NormalizeAddress(address),
		WalletAddress: domain.NormalizeAddress(s.tx.Wallet().Hex()),
		Status:        "ACTIVE",
		JoinedAt:      time.Now().UTC(),
	}
	if err := s.joins.Upsert(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "group_service: join mirror failed",
			slog.String("group", rec.GroupAddress),
			slog.String("error", err.Error()),
		)
	}

	s.invalidate(ctx)
	s.publish(ctx, ChannelGroups, map[string]any{
		"type":    "member_joined",
		"address": rec.GroupAddress,
		"wallet":  rec.WalletAddress,
	})
	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, "join", "Joined savings circle",
			fmt.Sprintf("wallet %s joined %s", rec.WalletAddress, rec.GroupAddress))
	}
	return res, nil
}

// PickWinner submits the draw and, once the winner event is decoded from the
// receipt, appends the winner row and fans the result out.
func (s *GroupService) PickWinner(ctx context.Context, address string) (chain.WinnerResult, error) {
	if s.tx == nil {
		return chain.WinnerResult{}, domain.ErrNoSigner
	}
	if !common.IsHexAddress(address) {
		return chain.WinnerResult{}, fmt.Errorf("%w: group %s", domain.ErrNotFound, address)
	}
	group := domain.NormalizeAddress(address)

	res, err := s.tx.PickWinner(ctx, common.HexToAddress(address))
	if err != nil {
		return res, err
	}

	cycle := 1
	if prior, err := s.winners.ListByGroup(ctx, group); err == nil {
		cycle = len(prior) + 1
	}
	prize := chain.FormatUnits(res.Amount, s.reader.TokenDecimals(ctx))

	rec := domain.WinnerRecord{
		GroupAddress:  group,
		WinnerAddress: domain.NormalizeAddress(res.Winner.Hex()),
		CycleNumber:   cycle,
		PrizeAmount:   prize,
		TxHash:        res.TxHash.Hex(),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.winners.Insert(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "group_service: winner log failed",
			slog.String("group", group),
			slog.String("error", err.Error()),
		)
	}

	payload := map[string]any{
		"type":    "winner_picked",
		"address": group,
		"winner":  rec.WinnerAddress,
		"prize":   prize,
		"cycle":   cycle,
		"tx":      rec.TxHash,
	}
	s.publish(ctx, ChannelWinners, payload)
	if data, err := json.Marshal(payload); err == nil {
		if err := s.bus.StreamAppend(ctx, StreamWinners, data); err != nil {
			s.logger.WarnContext(ctx, "group_service: winner stream append failed",
				slog.String("error", err.Error()),
			)
		}
	}
	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, "winner_picked", "Winner picked",
			fmt.Sprintf("%s won %s in %s (cycle %d)", rec.WinnerAddress, prize, group, cycle))
	}
	return res, nil
}

// ClaimPrize withdraws the service wallet's pending prize from a group.
func (s *GroupService) ClaimPrize(ctx context.Context, address string) (common.Hash, error) {
	if s.tx == nil {
		return common.Hash{}, domain.ErrNoSigner
	}
	if !common.IsHexAddress(address) {
		return common.Hash{}, fmt.Errorf("%w: group %s", domain.ErrNotFound, address)
	}
	return s.tx.ClaimPrize(ctx, common.HexToAddress(address))
}

// PendingPrize reports the service wallet's unclaimed prize in a group.
func (s *GroupService) PendingPrize(ctx context.Context, address string) (string, error) {
	if s.tx == nil {
		return "0", domain.ErrNoSigner
	}
	if !common.IsHexAddress(address) {
		return "0", fmt.Errorf("%w: group %s", domain.ErrNotFound, address)
	}
	return s.tx.PendingPrize(ctx, common.HexToAddress(address))
}

// Balance returns a wallet's settlement token balance as a display string,
// served from cache when warm. Chain failures degrade to "0.00" so balance
// badges never break a page.
func (s *GroupService) Balance(ctx context.Context, wallet string) string {
	if !common.IsHexAddress(wallet) {
		return "0.00"
	}
	if cached, err := s.balances.Get(ctx, wallet); err == nil {
		return cached
	}

	raw, err := s.reader.TokenBalance(ctx, common.HexToAddress(wallet))
	if err != nil {
		s.logger.WarnContext(ctx, "group_service: balance read failed",
			slog.String("wallet", wallet),
			slog.String("error", err.Error()),
		)
		return "0.00"
	}
	balance := chain.FormatUnits(raw, s.reader.TokenDecimals(ctx))
	if err := s.balances.Set(ctx, wallet, balance, balanceTTL); err != nil {
		s.logger.WarnContext(ctx, "group_service: balance cache failed",
			slog.String("error", err.Error()),
		)
	}
	return balance
}

// WalletGroups returns the addresses of every group the mirror records the
// wallet as having joined, most recent membership first.
func (s *GroupService) WalletGroups(ctx context.Context, wallet string) ([]string, error) {
	if !common.IsHexAddress(wallet) {
		return nil, domain.ErrNotFound
	}
	return s.joins.ListGroupsForWallet(ctx, wallet)
}

func (s *GroupService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "group_service: snapshot invalidate failed",
			slog.String("error", err.Error()),
		)
	}
}

func (s *GroupService) publish(ctx context.Context, channel string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, channel, data); err != nil {
		s.logger.WarnContext(ctx, "group_service: publish failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}
