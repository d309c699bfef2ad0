package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arisanhub/arisand/internal/domain"
)

type memLockManager struct {
	held     bool
	acquired int
}

func (m *memLockManager) Acquire(context.Context, string, time.Duration) (func(), error) {
	if m.held {
		return nil, domain.ErrLockHeld
	}
	m.acquired++
	return func() {}, nil
}

func newSyncService(d *deps, locks domain.LockManager) *SyncService {
	return NewSyncService(
		d.reader, d.groups, d.joins, d.cache, locks, d.bus,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestSyncMirrorsChainState(t *testing.T) {
	d := newDeps()
	d.reader.groups = []domain.Group{{
		Address:         "0xaaa",
		Name:            "Pool",
		Status:          domain.GroupStatusOpen,
		Owner:           "0xadmin",
		EntryFee:        5,
		MaxParticipants: 4,
		CyclePeriod:     "Weekly",
		Participants: []domain.Participant{
			{WalletAddress: "0x1", JoinedAt: 1_700_000_000},
			{WalletAddress: "0x2", JoinedAt: 1_700_000_100},
		},
	}}
	locks := &memLockManager{}

	require.NoError(t, newSyncService(d, locks).Sync(context.Background()))

	rec, err := d.groups.GetByAddress(context.Background(), "0xaaa")
	require.NoError(t, err)
	assert.Equal(t, "Pool", rec.Name)
	assert.Equal(t, "5", rec.EntryFee)

	assert.Len(t, d.joins.recs, 2)
	assert.NotNil(t, d.cache.snapshot)
	assert.Len(t, d.bus.published[ChannelGroups], 1)
}

func TestSyncPreservesMirrorStatus(t *testing.T) {
	// The chain read always reports the default status, so a sync pass must
	// never push it over a status the mirror has recorded.
	d := newDeps()
	d.groups.recs["0xaaa"] = domain.GroupRecord{
		ContractAddress: "0xaaa",
		Name:            "Pool",
		Status:          domain.GroupStatusCompleted,
	}
	d.reader.groups = []domain.Group{{
		Address: "0xaaa",
		Name:    "Pool",
		Status:  domain.GroupStatusOpen,
	}}

	require.NoError(t, newSyncService(d, &memLockManager{}).Sync(context.Background()))

	rec, err := d.groups.GetByAddress(context.Background(), "0xaaa")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupStatusCompleted, rec.Status)

	// And the reconciled snapshot overlays the preserved mirror status.
	require.Len(t, d.cache.snapshot, 1)
	assert.Equal(t, domain.GroupStatusCompleted, d.cache.snapshot[0].Status)
}

func TestSyncNoOpWhenLockHeld(t *testing.T) {
	d := newDeps()
	d.reader.groups = []domain.Group{{Address: "0xaaa"}}
	locks := &memLockManager{held: true}

	require.NoError(t, newSyncService(d, locks).Sync(context.Background()))
	assert.Empty(t, d.groups.recs)
	assert.Nil(t, d.cache.snapshot)
}

func TestSyncKeepsSnapshotOnEmptyListing(t *testing.T) {
	d := newDeps()
	d.cache.snapshot = []domain.Group{{Address: "0xcached"}}
	locks := &memLockManager{}

	require.NoError(t, newSyncService(d, locks).Sync(context.Background()))
	require.Len(t, d.cache.snapshot, 1, "a degraded RPC must not blank the snapshot")
	assert.Equal(t, "0xcached", d.cache.snapshot[0].Address)
}
