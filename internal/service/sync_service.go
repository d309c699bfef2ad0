package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/arisanhub/arisand/internal/domain"
	"github.com/arisanhub/arisand/internal/reconcile"
)

const syncLockTTL = 2 * time.Minute

// SyncService periodically reconciles the off-chain mirror with the chain:
// it refreshes the snapshot cache, backfills mirror rows for groups deployed
// outside this service, and mirrors rosters into the participants table. A
// distributed lock keeps concurrent instances from syncing over each other.
type SyncService struct {
	reader ChainReader
	groups domain.GroupStore
	joins  domain.JoinStore
	cache  domain.GroupCache
	locks  domain.LockManager
	bus    domain.SignalBus
	logger *slog.Logger
}

// NewSyncService creates a SyncService.
func NewSyncService(
	reader ChainReader,
	groups domain.GroupStore,
	joins domain.JoinStore,
	cache domain.GroupCache,
	locks domain.LockManager,
	bus domain.SignalBus,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		reader: reader,
		groups: groups,
		joins:  joins,
		cache:  cache,
		locks:  locks,
		bus:    bus,
		logger: logger,
	}
}

// Sync runs one reconciliation pass. Designed to run under a poller: a held
// lock or an empty chain listing is a no-op, not an error.
func (s *SyncService) Sync(ctx context.Context) error {
	unlock, err := s.locks.Acquire(ctx, "group-sync", syncLockTTL)
	if err != nil {
		if err == domain.ErrLockHeld {
			s.logger.DebugContext(ctx, "sync_service: another instance is syncing")
			return nil
		}
		return err
	}
	defer unlock()

	chainGroups := s.reader.ListGroups(ctx)
	if len(chainGroups) == 0 {
		// Degraded RPC or a fresh factory; keep serving the last snapshot.
		return nil
	}

	for _, g := range chainGroups {
		// Status stays out of the backfill: the mirror owns it, and the
		// chain read only ever reports the default.
		rec := domain.GroupRecord{
			ContractAddress: g.Address,
			Name:            g.Name,
			Description:     g.Description,
			CreatedBy:       g.Owner,
			EntryFee:        strconv.FormatFloat(g.EntryFee, 'f', -1, 64),
			MaxParticipants: g.MaxParticipants,
			Duration:        g.CyclePeriod,
		}
		if err := s.groups.Upsert(ctx, rec); err != nil {
			s.logger.WarnContext(ctx, "sync_service: group mirror failed",
				slog.String("group", g.Address),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, p := range g.Participants {
			join := domain.JoinRecord{
				GroupAddress:  g.Address,
				WalletAddress: p.WalletAddress,
				Status:        "ACTIVE",
				JoinedAt:      time.Unix(p.JoinedAt, 0).UTC(),
			}
			if err := s.joins.Upsert(ctx, join); err != nil {
				s.logger.WarnContext(ctx, "sync_service: join mirror failed",
					slog.String("group", g.Address),
					slog.String("wallet", p.WalletAddress),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	mirror, err := s.groups.ListAll(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "sync_service: mirror listing failed",
			slog.String("error", err.Error()),
		)
	}
	merged := reconcile.Merge(chainGroups, mirror)
	if err := s.cache.SetSnapshot(ctx, merged); err != nil {
		s.logger.WarnContext(ctx, "sync_service: snapshot write failed",
			slog.String("error", err.Error()),
		)
	}

	if data, err := json.Marshal(map[string]any{"type": "sync", "groups": len(merged)}); err == nil {
		_ = s.bus.Publish(ctx, ChannelGroups, data)
	}

	s.logger.InfoContext(ctx, "sync_service: reconciled",
		slog.Int("chain_groups", len(chainGroups)),
		slog.Int("merged", len(merged)),
	)
	return nil
}
