package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arisanhub/arisand/internal/domain"
)

func chainGroup(addr, name string, status domain.GroupStatus, pool float64, members ...string) domain.Group {
	parts := make([]domain.Participant, 0, len(members))
	for _, m := range members {
		parts = append(parts, domain.Participant{WalletAddress: m, HasPaid: true})
	}
	return domain.Group{
		Address:      addr,
		Name:         name,
		Status:       status,
		PoolBalance:  pool,
		Participants: parts,
	}
}

func TestMergeChainOnlyPassesThrough(t *testing.T) {
	groups := Merge([]domain.Group{
		chainGroup("0xaaa", "A", domain.GroupStatusOpen, 10),
		chainGroup("0xbbb", "B", domain.GroupStatusActive, 20),
	}, nil)

	require.Len(t, groups, 2)
	assert.Equal(t, "A", groups[0].Name)
	assert.Equal(t, "B", groups[1].Name)
}

func TestMergeSynthesizesMirrorOnlyGroups(t *testing.T) {
	created := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	groups := Merge(nil, []domain.GroupRecord{{
		ContractAddress: "0xCCC",
		Name:            "Fresh",
		Description:     "just deployed",
		Status:          domain.GroupStatusOpen,
		CreatedBy:       "0xAdmin",
		EntryFee:        "5",
		MaxParticipants: 4,
		Duration:        "Monthly",
		CreatedAt:       created,
	}})

	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, "0xccc", g.Address, "addresses normalize to lower case")
	assert.True(t, g.NotIndexed)
	assert.Zero(t, g.PoolBalance, "pool unknown until the chain indexes it")
	assert.Empty(t, g.Participants)
	assert.Equal(t, 1, g.CurrentCycle)
	assert.InDelta(t, 5.0, g.EntryFee, 1e-9)
	assert.Equal(t, "Monthly", g.CyclePeriod)
	assert.Equal(t, 4, g.MaxParticipants)
	assert.Equal(t, created, g.CreatedAt)
}

func TestMergeSynthesizeDefaults(t *testing.T) {
	groups := Merge(nil, []domain.GroupRecord{{ContractAddress: "0xccc"}})

	require.Len(t, groups, 1)
	assert.Equal(t, 10, groups[0].MaxParticipants)
	assert.Equal(t, "Weekly", groups[0].CyclePeriod)
	assert.Equal(t, domain.GroupStatusOpen, groups[0].Status)
}

func TestMergeOverlayTouchesOnlyStatus(t *testing.T) {
	chain := []domain.Group{
		chainGroup("0xAAA", "Chain Name", domain.GroupStatusOpen, 50, "0x1", "0x2"),
	}
	mirror := []domain.GroupRecord{{
		ContractAddress: "0xaaa", // different case, same group
		Name:            "Stale Mirror Name",
		Status:          domain.GroupStatusCompleted,
		EntryFee:        "999",
	}}

	groups := Merge(chain, mirror)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, domain.GroupStatusCompleted, g.Status, "status comes from the mirror")
	assert.Equal(t, "Chain Name", g.Name, "everything else stays chain-authoritative")
	assert.InDelta(t, 50.0, g.PoolBalance, 1e-9)
	assert.Len(t, g.Participants, 2)
	assert.False(t, g.NotIndexed)
}

func TestMergeEmptyMirrorStatusKeepsChainStatus(t *testing.T) {
	groups := Merge(
		[]domain.Group{chainGroup("0xaaa", "A", domain.GroupStatusActive, 0)},
		[]domain.GroupRecord{{ContractAddress: "0xaaa"}},
	)
	require.Len(t, groups, 1)
	assert.Equal(t, domain.GroupStatusActive, groups[0].Status)
}

func TestMergeOrderIsChainThenMirror(t *testing.T) {
	groups := Merge(
		[]domain.Group{
			chainGroup("0xbbb", "B", domain.GroupStatusOpen, 0),
			chainGroup("0xaaa", "A", domain.GroupStatusOpen, 0),
		},
		[]domain.GroupRecord{
			{ContractAddress: "0xddd", Name: "D"},
			{ContractAddress: "0xccc", Name: "C"},
		},
	)
	require.Len(t, groups, 4)
	assert.Equal(t, []string{"B", "A", "D", "C"}, []string{
		groups[0].Name, groups[1].Name, groups[2].Name, groups[3].Name,
	})
}

func TestMergeSameSnapshotsTwiceIsIdentical(t *testing.T) {
	chain := []domain.Group{
		chainGroup("0xAAA", "A", domain.GroupStatusOpen, 10, "0x1"),
		chainGroup("0xbbb", "B", domain.GroupStatusActive, 20, "0x2", "0x3"),
	}
	mirror := []domain.GroupRecord{
		{ContractAddress: "0xaaa", Status: domain.GroupStatusCompleted},
		{ContractAddress: "0xccc", Name: "Fresh", EntryFee: "5"},
	}

	first := Merge(chain, mirror)
	second := Merge(chain, mirror)
	assert.Equal(t, first, second, "same snapshots must merge to the same output")

	// The merge overlays a copy, never the caller's snapshot.
	assert.Equal(t, domain.GroupStatusOpen, chain[0].Status)

	// Merging an already-merged listing with the same mirror is stable too.
	assert.Equal(t, first, Merge(first, mirror))
}

func TestStats(t *testing.T) {
	groups := []domain.Group{
		chainGroup("0xaaa", "A", domain.GroupStatusOpen, 10, "0x1", "0x2"),
		chainGroup("0xbbb", "B", domain.GroupStatusOpen, 5, "0X2", "0x3"),
	}
	n, volume, members := Stats(groups)
	assert.Equal(t, 2, n)
	assert.InDelta(t, 15.0, volume, 1e-9)
	assert.Equal(t, 3, members, "wallets dedupe case-insensitively")
}
