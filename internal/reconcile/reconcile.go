// Package reconcile merges the two views of the group universe: the on-chain
// listing, which is authoritative but slow to reflect new deployments, and
// the off-chain mirror, which surfaces groups instantly but knows nothing
// about balances or rosters.
package reconcile

import (
	"strconv"

	"github.com/arisanhub/arisand/internal/domain"
)

const defaultMaxParticipants = 10

// Merge overlays the off-chain mirror onto the chain listing. Chain groups
// are the base and keep all their financial and membership data. Mirror rows
// for addresses the chain listing does not yet show are synthesized as
// placeholder groups with no roster and a zero pool. For addresses both
// sides know, only the lifecycle status is taken from the mirror; everything
// else stays chain-authoritative.
//
// Output order is chain listing order followed by mirror-only groups in
// mirror order. Addresses are matched case-insensitively.
func Merge(chainGroups []domain.Group, mirror []domain.GroupRecord) []domain.Group {
	index := make(map[string]int, len(chainGroups))
	merged := make([]domain.Group, 0, len(chainGroups)+len(mirror))

	for _, g := range chainGroups {
		key := domain.NormalizeAddress(g.Address)
		index[key] = len(merged)
		merged = append(merged, g)
	}

	for _, rec := range mirror {
		key := domain.NormalizeAddress(rec.ContractAddress)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			if rec.Status != "" {
				merged[i].Status = rec.Status
			}
			continue
		}
		index[key] = len(merged)
		merged = append(merged, synthesize(rec))
	}

	return merged
}

// synthesize builds the placeholder view of a group known only to the
// mirror. Financial fields stay zero until the chain listing catches up.
func synthesize(rec domain.GroupRecord) domain.Group {
	fee, _ := strconv.ParseFloat(rec.EntryFee, 64)
	max := rec.MaxParticipants
	if max <= 0 {
		max = defaultMaxParticipants
	}
	period := rec.Duration
	if period == "" {
		period = "Weekly"
	}
	status := rec.Status
	if status == "" {
		status = domain.GroupStatusOpen
	}
	return domain.Group{
		Address:         domain.NormalizeAddress(rec.ContractAddress),
		Name:            rec.Name,
		Description:     rec.Description,
		EntryFee:        fee,
		Currency:        "USDT",
		CyclePeriod:     period,
		MaxParticipants: max,
		CurrentCycle:    1,
		Status:          status,
		PoolBalance:     0,
		Owner:           domain.NormalizeAddress(rec.CreatedBy),
		Participants:    []domain.Participant{},
		CreatedAt:       rec.CreatedAt,
		NotIndexed:      true,
	}
}

// Stats derives the coarse dashboard counters from a merged listing: group
// count, summed pool volume, and the number of distinct member wallets.
func Stats(groups []domain.Group) (totalGroups int, totalVolume float64, totalMembers int) {
	wallets := make(map[string]struct{})
	for _, g := range groups {
		totalVolume += g.PoolBalance
		for _, p := range g.Participants {
			wallets[domain.NormalizeAddress(p.WalletAddress)] = struct{}{}
		}
	}
	return len(groups), totalVolume, len(wallets)
}
