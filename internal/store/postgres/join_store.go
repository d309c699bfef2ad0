package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arisanhub/arisand/internal/domain"
)

// JoinStore implements domain.JoinStore using PostgreSQL.
type JoinStore struct {
	pool *pgxpool.Pool
}

// NewJoinStore creates a new JoinStore backed by the given connection pool.
func NewJoinStore(pool *pgxpool.Pool) *JoinStore {
	return &JoinStore{pool: pool}
}

// Upsert mirrors a confirmed membership. The (group, wallet) pair is unique;
// re-mirroring the same join refreshes the status but keeps the original
// joined_at.
func (s *JoinStore) Upsert(ctx context.Context, rec domain.JoinRecord) error {
	const query = `
		INSERT INTO arisan_participants (group_id, wallet_address, status, joined_at)
		VALUES ($1, $2, $3, COALESCE($4, NOW()))
		ON CONFLICT (group_id, wallet_address) DO UPDATE SET
			status = EXCLUDED.status`

	status := rec.Status
	if status == "" {
		status = "ACTIVE"
	}
	var joinedAt interface{}
	if !rec.JoinedAt.IsZero() {
		joinedAt = rec.JoinedAt
	}
	_, err := s.pool.Exec(ctx, query,
		domain.NormalizeAddress(rec.GroupAddress),
		domain.NormalizeAddress(rec.WalletAddress),
		status, joinedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert join %s/%s: %w", rec.GroupAddress, rec.WalletAddress, err)
	}
	return nil
}

// ListGroupsForWallet returns the group addresses a wallet has joined, most
// recent membership first.
func (s *JoinStore) ListGroupsForWallet(ctx context.Context, wallet string) ([]string, error) {
	const query = `
		SELECT group_id FROM arisan_participants
		WHERE wallet_address = $1
		ORDER BY joined_at DESC`

	rows, err := s.pool.Query(ctx, query, domain.NormalizeAddress(wallet))
	if err != nil {
		return nil, fmt.Errorf("postgres: list joins for %s: %w", wallet, err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("postgres: scan join: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate joins: %w", err)
	}
	return groups, nil
}
