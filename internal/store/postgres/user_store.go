package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arisanhub/arisand/internal/domain"
)

// UserStore implements domain.UserStore using PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new UserStore backed by the given connection pool.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Upsert writes a wallet profile, keyed by wallet address.
func (s *UserStore) Upsert(ctx context.Context, profile domain.UserProfile) error {
	const query = `
		INSERT INTO users (wallet_address, username, avatar_url, reputation_score, updated_at)
		VALUES ($1, $2, $3, COALESCE(NULLIF($4, 0), 100), NOW())
		ON CONFLICT (wallet_address) DO UPDATE SET
			username = EXCLUDED.username,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = NOW()`

	_, err := s.pool.Exec(ctx, query,
		domain.NormalizeAddress(profile.WalletAddress),
		profile.Username, profile.AvatarURL, profile.ReputationScore,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert user %s: %w", profile.WalletAddress, err)
	}
	return nil
}

// GetByWallet fetches one profile by wallet address.
func (s *UserStore) GetByWallet(ctx context.Context, wallet string) (domain.UserProfile, error) {
	const query = `
		SELECT wallet_address, username, avatar_url, reputation_score, updated_at
		FROM users
		WHERE wallet_address = $1`

	var p domain.UserProfile
	err := s.pool.QueryRow(ctx, query, domain.NormalizeAddress(wallet)).Scan(
		&p.WalletAddress, &p.Username, &p.AvatarURL, &p.ReputationScore, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserProfile{}, domain.ErrNotFound
		}
		return domain.UserProfile{}, fmt.Errorf("postgres: get user %s: %w", wallet, err)
	}
	return p, nil
}

// Count returns the total number of registered profiles.
func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count users: %w", err)
	}
	return n, nil
}
