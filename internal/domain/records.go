package domain

import "time"

// GroupRecord is the off-chain mirror row for a group, written at creation
// time so dashboards can show the group before the chain listing catches up.
// Financial and membership fields stay chain-authoritative; only Status may
// overlay the merged view.
type GroupRecord struct {
	ContractAddress string
	Name            string
	Description     string
	Status          GroupStatus
	CreatedBy       string
	EntryFee        string // display value as entered at creation
	MaxParticipants int
	Duration        string // cycle duration label, e.g. "Weekly"
	CreatedAt       time.Time
}

// JoinRecord mirrors a confirmed join into the off-chain cache. Unique per
// (group, wallet); written only after the join transaction confirms.
type JoinRecord struct {
	GroupAddress  string
	WalletAddress string
	Status        string
	JoinedAt      time.Time
}

// WinnerRecord is an append-only row recorded after a winner-picked event is
// decoded from a confirmed transaction receipt.
type WinnerRecord struct {
	GroupAddress  string
	WinnerAddress string
	CycleNumber   int
	PrizeAmount   string // display value
	TxHash        string
	CreatedAt     time.Time
}

// UserProfile is the off-chain profile for a wallet.
type UserProfile struct {
	WalletAddress   string
	Username        string
	AvatarURL       string
	ReputationScore int
	UpdatedAt       time.Time
}

// ActivityEntry is one row of the global winners feed, joined with user and
// group metadata for display.
type ActivityEntry struct {
	GroupName   string
	GroupAddr   string
	Winner      string
	PrizeAmount string
	TxHash      string
	CreatedAt   time.Time
}

// AdminStats are coarse global counters for the admin dashboard.
type AdminStats struct {
	TotalUsers   int64
	TotalWinners int64
}
