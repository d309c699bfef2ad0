package domain

import "context"

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// GroupStore persists off-chain group metadata keyed by contract address.
// Upsert with an empty Status preserves any status already stored for the
// group; the mirror is the sole owner of status transitions.
type GroupStore interface {
	Upsert(ctx context.Context, rec GroupRecord) error
	GetByAddress(ctx context.Context, address string) (GroupRecord, error)
	ListAll(ctx context.Context) ([]GroupRecord, error)
	ListByCreator(ctx context.Context, wallet string) ([]GroupRecord, error)
}

// JoinStore persists confirmed join mirrors, unique per (group, wallet).
type JoinStore interface {
	Upsert(ctx context.Context, rec JoinRecord) error
	ListGroupsForWallet(ctx context.Context, wallet string) ([]string, error)
}

// WinnerStore persists the append-only winner log.
type WinnerStore interface {
	Insert(ctx context.Context, rec WinnerRecord) error
	ListByGroup(ctx context.Context, groupAddress string) ([]WinnerRecord, error)
	ListRecent(ctx context.Context, limit int) ([]ActivityEntry, error)
	Count(ctx context.Context) (int64, error)
}

// UserStore persists wallet profiles.
type UserStore interface {
	Upsert(ctx context.Context, profile UserProfile) error
	GetByWallet(ctx context.Context, wallet string) (UserProfile, error)
	Count(ctx context.Context) (int64, error)
}
