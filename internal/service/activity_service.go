package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arisanhub/arisand/internal/domain"
)

// HistorySource serves a group's decoded on-chain event feed. Implemented by
// *chain.History.
type HistorySource interface {
	GroupHistory(ctx context.Context, group common.Address) []domain.EventRecord
}

// ActivityService serves the transparency surfaces: per-group event history,
// winner logs, the global activity feed, and admin counters.
type ActivityService struct {
	history HistorySource
	winners domain.WinnerStore
	users   domain.UserStore
	logger  *slog.Logger
}

// NewActivityService creates an ActivityService.
func NewActivityService(history HistorySource, winners domain.WinnerStore, users domain.UserStore, logger *slog.Logger) *ActivityService {
	return &ActivityService{
		history: history,
		winners: winners,
		users:   users,
		logger:  logger,
	}
}

// GroupHistory returns a group's merged on-chain event feed, newest first.
// Invalid addresses yield an empty feed rather than an error; the feed is a
// best-effort surface.
func (s *ActivityService) GroupHistory(ctx context.Context, address string) []domain.EventRecord {
	if !common.IsHexAddress(address) {
		return []domain.EventRecord{}
	}
	records := s.history.GroupHistory(ctx, common.HexToAddress(address))
	if records == nil {
		records = []domain.EventRecord{}
	}
	return records
}

// GroupWinners returns a group's winner log in cycle order.
func (s *ActivityService) GroupWinners(ctx context.Context, address string) ([]domain.WinnerRecord, error) {
	return s.winners.ListByGroup(ctx, address)
}

// RecentActivity returns the global winners feed, newest first.
func (s *ActivityService) RecentActivity(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	return s.winners.ListRecent(ctx, limit)
}

// Stats returns coarse global counters for the admin dashboard.
func (s *ActivityService) Stats(ctx context.Context) (domain.AdminStats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return domain.AdminStats{}, fmt.Errorf("activity_service: count users: %w", err)
	}
	winners, err := s.winners.Count(ctx)
	if err != nil {
		return domain.AdminStats{}, fmt.Errorf("activity_service: count winners: %w", err)
	}
	return domain.AdminStats{TotalUsers: users, TotalWinners: winners}, nil
}
