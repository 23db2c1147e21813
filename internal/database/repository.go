package database

import (
	"context"
	"time"
)

// SubjectReader provides read-only access to enrolled subjects.
type SubjectReader interface {
	// FindByID retrieves a subject by id, returns ErrNotFound if missing
	FindByID(ctx context.Context, id string) (*Subject, error)
	// ScanAll returns a snapshot of every stored subject including
	// embeddings. The snapshot is stable: later inserts do not mutate it.
	ScanAll(ctx context.Context) ([]Subject, error)
	// List returns all subjects with embeddings omitted, for display
	List(ctx context.Context) ([]Subject, error)
	// FindByName returns subjects whose normalized name matches the query
	// (lowercase, diacritics stripped), embeddings omitted
	FindByName(ctx context.Context, name string) ([]Subject, error)
	// Count returns the total number of enrolled subjects
	Count(ctx context.Context) (int, error)
	// CountByRole returns the number of subjects per role
	CountByRole(ctx context.Context) (map[string]int, error)
	// FirstEnrollment returns the earliest enrollment time, nil when empty
	FirstEnrollment(ctx context.Context) (*time.Time, error)
}

// SubjectWriter provides write access to enrolled subjects.
type SubjectWriter interface {
	SubjectReader

	// Insert stores a new subject, assigning its ID and CreatedAt.
	// Content is never rejected here; duplicate gating happens upstream.
	Insert(ctx context.Context, subject *Subject) error

	// Remove deletes a subject by id, returns ErrNotFound if missing
	Remove(ctx context.Context, id string) error
}
