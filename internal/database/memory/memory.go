// Package memory provides the default in-process subject store. Records
// are immutable once inserted, so a scan only needs a copied slice header
// to be a consistent snapshot.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-registry/internal/database"
)

// Store keeps enrolled subjects in an append-only slice under a RWMutex.
type Store struct {
	mu       sync.RWMutex
	subjects []database.Subject
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// Insert appends a fully constructed subject, assigning id and timestamp.
// The record becomes visible to scans atomically on return.
func (s *Store) Insert(ctx context.Context, subject *database.Subject) error {
	subject.ID = uuid.NewString()
	subject.CreatedAt = time.Now()
	subject.Embedding = slices.Clone(subject.Embedding)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = append(s.subjects, *subject)
	return nil
}

// ScanAll returns a snapshot of all subjects. Embeddings are shared with
// the store but never mutated after insert.
func (s *Store) ScanAll(ctx context.Context) ([]database.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.subjects), nil
}

// FindByID retrieves a subject by id.
func (s *Store) FindByID(ctx context.Context, id string) (*database.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.subjects {
		if s.subjects[i].ID == id {
			subject := s.subjects[i]
			return &subject, nil
		}
	}
	return nil, database.ErrNotFound
}

// List returns all subjects with embeddings omitted.
func (s *Store) List(ctx context.Context) ([]database.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.Subject, 0, len(s.subjects))
	for i := range s.subjects {
		out = append(out, s.subjects[i].WithoutEmbedding())
	}
	return out, nil
}

// FindByName returns subjects matching the normalized name, embeddings omitted.
func (s *Store) FindByName(ctx context.Context, name string) ([]database.Subject, error) {
	normalized := database.NormalizeName(name)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []database.Subject
	for i := range s.subjects {
		if database.NormalizeName(s.subjects[i].Name) == normalized {
			out = append(out, s.subjects[i].WithoutEmbedding())
		}
	}
	return out, nil
}

// Count returns the number of enrolled subjects.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subjects), nil
}

// CountByRole returns the number of subjects per role.
func (s *Store) CountByRole(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for i := range s.subjects {
		counts[s.subjects[i].Role]++
	}
	return counts, nil
}

// FirstEnrollment returns the earliest enrollment time, nil when empty.
func (s *Store) FirstEnrollment(ctx context.Context) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var first *time.Time
	for i := range s.subjects {
		created := s.subjects[i].CreatedAt
		if first == nil || created.Before(*first) {
			first = &created
		}
	}
	return first, nil
}

// Remove deletes a subject by id.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.subjects {
		if s.subjects[i].ID == id {
			// Clone before deleting so snapshots handed out by ScanAll
			// keep seeing their original backing array.
			s.subjects = slices.Delete(slices.Clone(s.subjects), i, i+1)
			return nil
		}
	}
	return database.ErrNotFound
}
