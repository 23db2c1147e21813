// Package mock provides a mock subject store for handler tests.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-registry/internal/database"
)

// SubjectStore is an in-memory database.SubjectWriter with error injection.
type SubjectStore struct {
	mu       sync.RWMutex
	subjects []database.Subject

	// Error injection
	InsertError error
	ScanError   error
	FindError   error
	ListError   error
	CountError  error
	RemoveError error
}

// NewSubjectStore creates an empty mock store.
func NewSubjectStore() *SubjectStore {
	return &SubjectStore{}
}

// AddSubject seeds the store with a fully formed subject.
func (m *SubjectStore) AddSubject(subject database.Subject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
}

// Insert stores a new subject, assigning its id and timestamp.
func (m *SubjectStore) Insert(ctx context.Context, subject *database.Subject) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	subject.ID = uuid.NewString()
	subject.CreatedAt = time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, *subject)
	return nil
}

// ScanAll returns a snapshot of all subjects.
func (m *SubjectStore) ScanAll(ctx context.Context) ([]database.Subject, error) {
	if m.ScanError != nil {
		return nil, m.ScanError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Subject, len(m.subjects))
	copy(out, m.subjects)
	return out, nil
}

// FindByID retrieves a subject by id.
func (m *SubjectStore) FindByID(ctx context.Context, id string) (*database.Subject, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.subjects {
		if m.subjects[i].ID == id {
			subject := m.subjects[i]
			return &subject, nil
		}
	}
	return nil, database.ErrNotFound
}

// List returns all subjects with embeddings omitted.
func (m *SubjectStore) List(ctx context.Context) ([]database.Subject, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Subject, 0, len(m.subjects))
	for i := range m.subjects {
		out = append(out, m.subjects[i].WithoutEmbedding())
	}
	return out, nil
}

// FindByName returns subjects matching the normalized name.
func (m *SubjectStore) FindByName(ctx context.Context, name string) ([]database.Subject, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	normalized := database.NormalizeName(name)

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Subject
	for i := range m.subjects {
		if database.NormalizeName(m.subjects[i].Name) == normalized {
			out = append(out, m.subjects[i].WithoutEmbedding())
		}
	}
	return out, nil
}

// Count returns the number of subjects.
func (m *SubjectStore) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subjects), nil
}

// CountByRole returns the number of subjects per role.
func (m *SubjectStore) CountByRole(ctx context.Context) (map[string]int, error) {
	if m.CountError != nil {
		return nil, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for i := range m.subjects {
		counts[m.subjects[i].Role]++
	}
	return counts, nil
}

// FirstEnrollment returns the earliest enrollment time, nil when empty.
func (m *SubjectStore) FirstEnrollment(ctx context.Context) (*time.Time, error) {
	if m.CountError != nil {
		return nil, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var first *time.Time
	for i := range m.subjects {
		created := m.subjects[i].CreatedAt
		if first == nil || created.Before(*first) {
			first = &created
		}
	}
	return first, nil
}

// Remove deletes a subject by id.
func (m *SubjectStore) Remove(ctx context.Context, id string) error {
	if m.RemoveError != nil {
		return m.RemoveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subjects {
		if m.subjects[i].ID == id {
			m.subjects = append(m.subjects[:i:i], m.subjects[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}
