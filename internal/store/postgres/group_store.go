package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arisanhub/arisand/internal/domain"
)

// GroupStore implements domain.GroupStore using PostgreSQL.
type GroupStore struct {
	pool *pgxpool.Pool
}

// NewGroupStore creates a new GroupStore backed by the given connection pool.
func NewGroupStore(pool *pgxpool.Pool) *GroupStore {
	return &GroupStore{pool: pool}
}

// Upsert writes the off-chain mirror row for a group, keyed by contract
// address. An empty Status never overwrites a previously stored one, so
// writers that do not own the status field cannot reset it.
func (s *GroupStore) Upsert(ctx context.Context, rec domain.GroupRecord) error {
	const query = `
		INSERT INTO arisan_groups (
			contract_address, name, description, status, created_by,
			entry_fee, max_participants, duration, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))
		ON CONFLICT (contract_address) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = COALESCE(NULLIF(EXCLUDED.status, ''), arisan_groups.status),
			entry_fee = EXCLUDED.entry_fee,
			max_participants = EXCLUDED.max_participants,
			duration = EXCLUDED.duration`

	var createdAt interface{}
	if !rec.CreatedAt.IsZero() {
		createdAt = rec.CreatedAt
	}
	_, err := s.pool.Exec(ctx, query,
		domain.NormalizeAddress(rec.ContractAddress),
		rec.Name, rec.Description, string(rec.Status),
		domain.NormalizeAddress(rec.CreatedBy),
		rec.EntryFee, rec.MaxParticipants, rec.Duration,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert group %s: %w", rec.ContractAddress, err)
	}
	return nil
}

// GetByAddress fetches one mirror row by contract address.
func (s *GroupStore) GetByAddress(ctx context.Context, address string) (domain.GroupRecord, error) {
	const query = groupSelect + ` WHERE contract_address = $1`

	rec, err := scanGroup(s.pool.QueryRow(ctx, query, domain.NormalizeAddress(address)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.GroupRecord{}, domain.ErrNotFound
		}
		return domain.GroupRecord{}, fmt.Errorf("postgres: get group %s: %w", address, err)
	}
	return rec, nil
}

// ListAll returns every mirror row, newest first.
func (s *GroupStore) ListAll(ctx context.Context) ([]domain.GroupRecord, error) {
	const query = groupSelect + ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list groups: %w", err)
	}
	defer rows.Close()
	return collectGroups(rows)
}

// ListByCreator returns the mirror rows created by one wallet, newest first.
func (s *GroupStore) ListByCreator(ctx context.Context, wallet string) ([]domain.GroupRecord, error) {
	const query = groupSelect + ` WHERE created_by = $1 ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, domain.NormalizeAddress(wallet))
	if err != nil {
		return nil, fmt.Errorf("postgres: list groups by creator %s: %w", wallet, err)
	}
	defer rows.Close()
	return collectGroups(rows)
}

const groupSelect = `
	SELECT contract_address, name, description, status, created_by,
	       entry_fee, max_participants, duration, created_at
	FROM arisan_groups`

func scanGroup(scanner interface{ Scan(dest ...any) error }) (domain.GroupRecord, error) {
	var rec domain.GroupRecord
	var status string
	err := scanner.Scan(
		&rec.ContractAddress, &rec.Name, &rec.Description, &status,
		&rec.CreatedBy, &rec.EntryFee, &rec.MaxParticipants,
		&rec.Duration, &rec.CreatedAt,
	)
	if err != nil {
		return domain.GroupRecord{}, err
	}
	rec.Status = domain.GroupStatus(status)
	return rec, nil
}

func collectGroups(rows pgx.Rows) ([]domain.GroupRecord, error) {
	var recs []domain.GroupRecord
	for rows.Next() {
		rec, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan group: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate groups: %w", err)
	}
	return recs, nil
}
