// Package sqlite provides a single-file subject store for deployments
// without a PostgreSQL instance. Uses the pure-Go modernc.org/sqlite
// driver; embeddings are stored as JSON arrays.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/stats"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS subjects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	normalized_name TEXT NOT NULL,
	role TEXT NOT NULL,
	embedding TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_subjects_normalized_name ON subjects (normalized_name);
CREATE INDEX IF NOT EXISTS idx_subjects_role ON subjects (role);

CREATE TABLE IF NOT EXISTS stats (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	total_registrations INTEGER NOT NULL DEFAULT 0,
	total_verifications INTEGER NOT NULL DEFAULT 0,
	last_updated TIMESTAMP NOT NULL
);
`

// Store is a SQLite-backed subject and counter store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file and applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply sqlite schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database file.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing sqlite database: %w", err)
	}
	return nil
}

func encodeEmbedding(embedding []float64) (string, error) {
	data, err := json.Marshal(embedding)
	if err != nil {
		return "", fmt.Errorf("encode embedding: %w", err)
	}
	return string(data), nil
}

func decodeEmbedding(data string) ([]float64, error) {
	var embedding []float64
	if err := json.Unmarshal([]byte(data), &embedding); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	return embedding, nil
}

// Insert stores a new subject, assigning its id and creation timestamp.
func (s *Store) Insert(ctx context.Context, subject *database.Subject) error {
	encoded, err := encodeEmbedding(subject.Embedding)
	if err != nil {
		return err
	}

	subject.ID = uuid.NewString()
	subject.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO subjects (id, name, normalized_name, role, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, subject.ID, subject.Name, database.NormalizeName(subject.Name), subject.Role, encoded, subject.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert subject: %w", err)
	}
	return nil
}

func scanSubjects(rows *sql.Rows, withEmbedding bool) ([]database.Subject, error) {
	var subjects []database.Subject
	for rows.Next() {
		var subject database.Subject
		if withEmbedding {
			var encoded string
			if err := rows.Scan(&subject.ID, &subject.Name, &subject.Role, &encoded, &subject.CreatedAt); err != nil {
				return nil, fmt.Errorf("scan subject: %w", err)
			}
			embedding, err := decodeEmbedding(encoded)
			if err != nil {
				return nil, err
			}
			subject.Embedding = embedding
		} else {
			if err := rows.Scan(&subject.ID, &subject.Name, &subject.Role, &subject.CreatedAt); err != nil {
				return nil, fmt.Errorf("scan subject: %w", err)
			}
		}
		subjects = append(subjects, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}
	return subjects, nil
}

// ScanAll returns every subject including embeddings, oldest first.
func (s *Store) ScanAll(ctx context.Context) ([]database.Subject, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, role, embedding, created_at FROM subjects ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()

	return scanSubjects(rows, true)
}

// FindByID retrieves a subject by id.
func (s *Store) FindByID(ctx context.Context, id string) (*database.Subject, error) {
	var subject database.Subject
	var encoded string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, role, embedding, created_at FROM subjects WHERE id = ?", id).
		Scan(&subject.ID, &subject.Name, &subject.Role, &encoded, &subject.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query subject: %w", err)
	}
	embedding, err := decodeEmbedding(encoded)
	if err != nil {
		return nil, err
	}
	subject.Embedding = embedding
	return &subject, nil
}

// List returns all subjects with embeddings omitted, oldest first.
func (s *Store) List(ctx context.Context) ([]database.Subject, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, role, created_at FROM subjects ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()

	return scanSubjects(rows, false)
}

// FindByName returns subjects matching the normalized name, embeddings omitted.
func (s *Store) FindByName(ctx context.Context, name string) ([]database.Subject, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, created_at FROM subjects
		WHERE normalized_name = ? ORDER BY created_at, id
	`, database.NormalizeName(name))
	if err != nil {
		return nil, fmt.Errorf("query subjects by name: %w", err)
	}
	defer rows.Close()

	return scanSubjects(rows, false)
}

// Count returns the total number of enrolled subjects.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM subjects").Scan(&count); err != nil {
		return 0, fmt.Errorf("count subjects: %w", err)
	}
	return count, nil
}

// CountByRole returns the number of subjects per role.
func (s *Store) CountByRole(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT role, COUNT(*) FROM subjects GROUP BY role")
	if err != nil {
		return nil, fmt.Errorf("count subjects by role: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("scan role count: %w", err)
		}
		counts[role] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role counts: %w", err)
	}
	return counts, nil
}

// FirstEnrollment returns the earliest enrollment time, nil when empty.
func (s *Store) FirstEnrollment(ctx context.Context) (*time.Time, error) {
	var first sql.NullTime
	err := s.db.QueryRowContext(ctx, "SELECT MIN(created_at) FROM subjects").Scan(&first)
	if err != nil {
		return nil, fmt.Errorf("query first enrollment: %w", err)
	}
	if !first.Valid {
		return nil, nil
	}
	return &first.Time, nil
}

// Remove deletes a subject by id.
func (s *Store) Remove(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM subjects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// LoadCounters reads the counter row; nil when none has been created yet.
func (s *Store) LoadCounters(ctx context.Context) (*stats.Snapshot, error) {
	var snap stats.Snapshot
	err := s.db.QueryRowContext(ctx, `
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
func (s *Store) SaveCounters(ctx context.Context, snap stats.Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stats (id, total_registrations, total_verifications, last_updated)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			total_registrations = excluded.total_registrations,
			total_verifications = excluded.total_verifications,
			last_updated = excluded.last_updated
	`, snap.TotalRegistrations, snap.TotalVerifications, snap.LastUpdated)
	if err != nil {
		return fmt.Errorf("save counters: %w", err)
	}
	return nil
}
