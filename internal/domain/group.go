package domain

import (
	"math/big"
	"strings"
	"time"
)

// GroupStatus represents the lifecycle state of a savings circle.
type GroupStatus string

const (
	GroupStatusOpen      GroupStatus = "OPEN"
	GroupStatusActive    GroupStatus = "ACTIVE"
	GroupStatusCompleted GroupStatus = "COMPLETED"
)

// Participant is one member of a savings circle as reported by the group
// contract. A wallet appears at most once per group.
type Participant struct {
	WalletAddress string
	HasPaid       bool
	HasWon        bool
	JoinedAt      int64 // unix seconds, from the contract
}

// Group is the merged view of one rotating-savings circle. It is recomputed
// on every fetch from the on-chain snapshot and the off-chain mirror; it is
// never stored as-is.
type Group struct {
	// Address is the deployed group contract address. Lookups key on the
	// normalized (lower-cased) form; see NormalizeAddress.
	Address     string
	Name        string
	Description string

	// EntryFee is the display value of the per-cycle contribution.
	// EntryFeeRaw keeps the exact smallest-unit integer so no amount ever
	// round-trips through a float.
	EntryFee    float64
	EntryFeeRaw *big.Int

	Currency        string
	CyclePeriod     string
	MaxParticipants int
	CurrentCycle    int
	Status          GroupStatus

	// PoolBalance is derived: participants * entry fee, valid while no
	// payout has occurred this cycle.
	PoolBalance float64

	Owner        string
	Participants []Participant
	CreatedAt    time.Time

	// NotIndexed marks a group synthesized from the off-chain mirror alone,
	// before the on-chain listing reflects it.
	NotIndexed bool
}

// HasParticipant reports whether wallet is already a member of the group.
// Address comparison is case-insensitive.
func (g *Group) HasParticipant(wallet string) bool {
	w := NormalizeAddress(wallet)
	for _, p := range g.Participants {
		if NormalizeAddress(p.WalletAddress) == w {
			return true
		}
	}
	return false
}

// IsFull reports whether the group has reached its participant cap.
func (g *Group) IsFull() bool {
	return g.MaxParticipants > 0 && len(g.Participants) >= g.MaxParticipants
}

// NormalizeAddress lower-cases a contract or wallet address so it can be used
// as a map key. Merging two sources keyed on mixed-case hex is exactly the
// kind of silent mismatch this exists to prevent.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
