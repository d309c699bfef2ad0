package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arisanhub/arisand/internal/domain"
)

// WinnerStore implements domain.WinnerStore using PostgreSQL. The winners
// table is append-only; rows are never updated.
type WinnerStore struct {
	pool *pgxpool.Pool
}

// NewWinnerStore creates a new WinnerStore backed by the given connection pool.
func NewWinnerStore(pool *pgxpool.Pool) *WinnerStore {
	return &WinnerStore{pool: pool}
}

// Insert appends one winner row.
func (s *WinnerStore) Insert(ctx context.Context, rec domain.WinnerRecord) error {
	const query = `
		INSERT INTO winners (group_id, winner_address, cycle_number, prize_amount, tx_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`

	var createdAt interface{}
	if !rec.CreatedAt.IsZero() {
		createdAt = rec.CreatedAt
	}
	_, err := s.pool.Exec(ctx, query,
		domain.NormalizeAddress(rec.GroupAddress),
		domain.NormalizeAddress(rec.WinnerAddress),
		rec.CycleNumber, rec.PrizeAmount, rec.TxHash, createdAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert winner %s/%d: %w", rec.GroupAddress, rec.CycleNumber, err)
	}
	return nil
}

// ListByGroup returns a group's winner log in cycle order.
func (s *WinnerStore) ListByGroup(ctx context.Context, groupAddress string) ([]domain.WinnerRecord, error) {
	const query = `
		SELECT group_id, winner_address, cycle_number, prize_amount, tx_hash, created_at
		FROM winners
		WHERE group_id = $1
		ORDER BY cycle_number ASC`

	rows, err := s.pool.Query(ctx, query, domain.NormalizeAddress(groupAddress))
	if err != nil {
		return nil, fmt.Errorf("postgres: list winners for %s: %w", groupAddress, err)
	}
	defer rows.Close()

	var recs []domain.WinnerRecord
	for rows.Next() {
		var rec domain.WinnerRecord
		if err := rows.Scan(
			&rec.GroupAddress, &rec.WinnerAddress, &rec.CycleNumber,
			&rec.PrizeAmount, &rec.TxHash, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan winner: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate winners: %w", err)
	}
	return recs, nil
}

// ListRecent returns the global activity feed: the latest winners joined with
// user and group metadata, newest first. Missing profile or group rows fall
// back to raw addresses so the feed never hides a draw.
func (s *WinnerStore) ListRecent(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT w.group_id, COALESCE(g.name, ''), w.winner_address,
		       COALESCE(u.username, ''), w.prize_amount, w.tx_hash, w.created_at
		FROM winners w
		LEFT JOIN arisan_groups g ON g.contract_address = w.group_id
		LEFT JOIN users u ON u.wallet_address = w.winner_address
		ORDER BY w.created_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent winners: %w", err)
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	for rows.Next() {
		var e domain.ActivityEntry
		var groupName, username string
		if err := rows.Scan(
			&e.GroupAddr, &groupName, &e.Winner,
			&username, &e.PrizeAmount, &e.TxHash, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan activity: %w", err)
		}
		e.GroupName = groupName
		if e.GroupName == "" && len(e.GroupAddr) > 8 {
			e.GroupName = e.GroupAddr[:8] + "..."
		}
		if username != "" {
			e.Winner = username
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate activity: %w", err)
	}
	return entries, nil
}

// ListBefore returns all winner rows recorded strictly before the cutoff,
// oldest first. Used by the archiver.
func (s *WinnerStore) ListBefore(ctx context.Context, before time.Time) ([]domain.WinnerRecord, error) {
	const query = `
		SELECT group_id, winner_address, cycle_number, prize_amount, tx_hash, created_at
		FROM winners
		WHERE created_at < $1
		ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list winners before %s: %w", before, err)
	}
	defer rows.Close()

	var recs []domain.WinnerRecord
	for rows.Next() {
		var rec domain.WinnerRecord
		if err := rows.Scan(
			&rec.GroupAddress, &rec.WinnerAddress, &rec.CycleNumber,
			&rec.PrizeAmount, &rec.TxHash, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan winner: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate winners: %w", err)
	}
	return recs, nil
}

// Count returns the total number of recorded winners.
func (s *WinnerStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM winners`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count winners: %w", err)
	}
	return n, nil
}
