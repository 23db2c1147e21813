package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-registry/internal/stats"
)

// StatsRepository persists the singleton counter row.
type StatsRepository struct {
	pool *Pool
}

// NewStatsRepository creates a new PostgreSQL stats repository.
func NewStatsRepository(pool *Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// LoadCounters reads the counter row; nil when none has been created yet.
func (r *StatsRepository) LoadCounters(ctx context.Context) (*stats.Snapshot, error) {
	var snap stats.Snapshot
	err := r.pool.QueryRow(ctx, `
		SELECT total_registrations, total_verifications, last_updated
		FROM stats WHERE id = 1
	`).Scan(&snap.TotalRegistrations, &snap.TotalVerifications, &snap.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load counters: %w", err)
	}
	return &snap, nil
}

// SaveCounters upserts the counter row.
func (r *StatsRepository) SaveCounters(ctx context.Context, snap stats.Snapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO stats (id, total_registrations, total_verifications, last_updated)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			total_registrations = EXCLUDED.total_registrations,
			total_verifications = EXCLUDED.total_verifications,
			last_updated = EXCLUDED.last_updated
	`, snap.TotalRegistrations, snap.TotalVerifications, snap.LastUpdated)
	if err != nil {
		return fmt.Errorf("save counters: %w", err)
	}
	return nil
}
