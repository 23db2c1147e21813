package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/pgvector/pgvector-go"
)

// SubjectRepository provides PostgreSQL-backed subject storage.
type SubjectRepository struct {
	pool *Pool
}

// NewSubjectRepository creates a new PostgreSQL subject repository.
func NewSubjectRepository(pool *Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

// toVector converts a float64 descriptor to the pgvector wire type.
// pgvector stores single-precision components; face descriptors carry no
// useful precision beyond that.
func toVector(embedding []float64) pgvector.Vector {
	out := make([]float32, len(embedding))
	for i, v := range embedding {
		out[i] = float32(v)
	}
	return pgvector.NewVector(out)
}

// fromVector converts a stored pgvector value back to a float64 descriptor.
func fromVector(vec pgvector.Vector) []float64 {
	slice := vec.Slice()
	out := make([]float64, len(slice))
	for i, v := range slice {
		out[i] = float64(v)
	}
	return out
}

// Insert stores a new subject, assigning its id and creation timestamp.
func (r *SubjectRepository) Insert(ctx context.Context, subject *database.Subject) error {
	subject.ID = uuid.NewString()

	err := r.pool.QueryRow(ctx, `
		INSERT INTO subjects (id, name, role, embedding)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, subject.ID, subject.Name, subject.Role, toVector(subject.Embedding)).Scan(&subject.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert subject: %w", err)
	}
	return nil
}

const subjectColumns = "id, name, role, embedding, created_at"

// scanSubjects reads subject rows including embeddings.
func scanSubjects(rows *sql.Rows) ([]database.Subject, error) {
	var subjects []database.Subject
	for rows.Next() {
		var s database.Subject
		var vec pgvector.Vector
		if err := rows.Scan(&s.ID, &s.Name, &s.Role, &vec, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		s.Embedding = fromVector(vec)
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}
	return subjects, nil
}

// scanSubjectsLean reads subject rows without embeddings.
func scanSubjectsLean(rows *sql.Rows) ([]database.Subject, error) {
	var subjects []database.Subject
	for rows.Next() {
		var s database.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Role, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}
	return subjects, nil
}

// ScanAll returns every subject including embeddings, oldest first.
func (r *SubjectRepository) ScanAll(ctx context.Context) ([]database.Subject, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+subjectColumns+" FROM subjects ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()

	return scanSubjects(rows)
}

// FindByID retrieves a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*database.Subject, error) {
	var s database.Subject
	var vec pgvector.Vector
	err := r.pool.QueryRow(ctx, "SELECT "+subjectColumns+" FROM subjects WHERE id = $1", id).
		Scan(&s.ID, &s.Name, &s.Role, &vec, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query subject: %w", err)
	}
	s.Embedding = fromVector(vec)
	return &s, nil
}

// List returns all subjects with embeddings omitted, oldest first.
func (r *SubjectRepository) List(ctx context.Context) ([]database.Subject, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, name, role, created_at FROM subjects ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()

	return scanSubjectsLean(rows)
}

// FindByName returns subjects matching the normalized name, embeddings
// omitted. Uses unaccent + LOWER to mirror database.NormalizeName.
func (r *SubjectRepository) FindByName(ctx context.Context, name string) ([]database.Subject, error) {
	normalized := database.NormalizeName(name)

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, role, created_at
		FROM subjects
		WHERE LOWER(unaccent(name)) = $1
		ORDER BY created_at, id
	`, normalized)
	if err != nil {
		return nil, fmt.Errorf("query subjects by name: %w", err)
	}
	defer rows.Close()

	return scanSubjectsLean(rows)
}

// Count returns the total number of enrolled subjects.
func (r *SubjectRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM subjects").Scan(&count); err != nil {
		return 0, fmt.Errorf("count subjects: %w", err)
	}
	return count, nil
}

// CountByRole returns the number of subjects per role.
func (r *SubjectRepository) CountByRole(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, "SELECT role, COUNT(*) FROM subjects GROUP BY role")
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
func (r *SubjectRepository) FirstEnrollment(ctx context.Context) (*time.Time, error) {
	var first sql.NullTime
	if err := r.pool.QueryRow(ctx, "SELECT MIN(created_at) FROM subjects").Scan(&first); err != nil {
		return nil, fmt.Errorf("query first enrollment: %w", err)
	}
	if !first.Valid {
		return nil, nil
	}
	return &first.Time, nil
}

// Remove deletes a subject by id.
func (r *SubjectRepository) Remove(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM subjects WHERE id = $1", id)
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
