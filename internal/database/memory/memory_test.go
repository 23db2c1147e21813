package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kozaktomas/face-registry/internal/database"
)

func insertSubject(t *testing.T, store *Store, name, role string, embedding []float64) *database.Subject {
	t.Helper()
	subject := &database.Subject{Name: name, Role: role, Embedding: embedding}
	if err := store.Insert(context.Background(), subject); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	return subject
}

func TestStore_InsertAssignsIdentity(t *testing.T) {
	store := NewStore()

	subject := insertSubject(t, store, "Ana", "student", []float64{0.1, 0.2})

	if subject.ID == "" {
		t.Error("expected insert to assign an id")
	}
	if subject.CreatedAt.IsZero() {
		t.Error("expected insert to assign a creation timestamp")
	}

	found, err := store.FindByID(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.Name != "Ana" {
		t.Errorf("expected Ana, got %q", found.Name)
	}
}

func TestStore_InsertNeverRejectsContent(t *testing.T) {
	store := NewStore()

	// Content-identical subjects are both stored; deduplication is the
	// registration policy's job, not the store's.
	insertSubject(t, store, "Ana", "student", []float64{1, 2})
	insertSubject(t, store, "Ana", "student", []float64{1, 2})

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 subjects, got %d", count)
	}
}

func TestStore_ListOmitsEmbeddings(t *testing.T) {
	store := NewStore()
	insertSubject(t, store, "Ana", "student", []float64{1, 2, 3})

	subjects, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subjects) != 1 {
		t.Fatalf("expected 1 subject, got %d", len(subjects))
	}
	if subjects[0].Embedding != nil {
		t.Error("expected list output to omit embeddings")
	}
}

func TestStore_FindByNameIgnoresAccentsAndCase(t *testing.T) {
	store := NewStore()
	insertSubject(t, store, "João Silva", "teacher", []float64{1})

	subjects, err := store.FindByName(context.Background(), "joao SILVA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subjects) != 1 {
		t.Fatalf("expected accent-insensitive match, got %d subjects", len(subjects))
	}
}

func TestStore_Remove(t *testing.T) {
	store := NewStore()
	subject := insertSubject(t, store, "Ana", "student", []float64{1})

	if err := store.Remove(context.Background(), subject.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.FindByID(context.Background(), subject.ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound after removal, got %v", err)
	}
	if err := store.Remove(context.Background(), subject.ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestStore_ScanSnapshotSurvivesRemoval(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	a := insertSubject(t, store, "Ana", "student", []float64{1})
	insertSubject(t, store, "Bruno", "student", []float64{2})

	snapshot, err := store.ScanAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Remove(ctx, a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(snapshot) != 2 || snapshot[0].Name != "Ana" {
		t.Error("expected earlier snapshot to be unaffected by removal")
	}
}

func TestStore_ConcurrentInsertAndScan(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	const n = 100

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subject := &database.Subject{Name: "Subject", Role: "student", Embedding: []float64{float64(i)}}
			if err := store.Insert(ctx, subject); err != nil {
				t.Errorf("insert failed: %v", err)
			}
		}(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			subjects, err := store.ScanAll(ctx)
			if err != nil {
				t.Errorf("scan failed: %v", err)
				return
			}
			// No torn reads: every visible record is fully constructed.
			for j := range subjects {
				if subjects[j].ID == "" || len(subjects[j].Embedding) == 0 {
					t.Error("scan observed a partially written record")
					return
				}
			}
		}()
	}
	wg.Wait()

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != n {
		t.Errorf("expected %d subjects after concurrent inserts, got %d", n, count)
	}
}

func TestStore_CountByRoleAndFirstEnrollment(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first, err := store.FirstEnrollment(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != nil {
		t.Error("expected nil first enrollment on empty store")
	}

	a := insertSubject(t, store, "Ana", "student", []float64{1})
	insertSubject(t, store, "Bruno", "teacher", []float64{2})
	insertSubject(t, store, "Clara", "student", []float64{3})

	counts, err := store.CountByRole(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts["student"] != 2 || counts["teacher"] != 1 {
		t.Errorf("unexpected role counts: %v", counts)
	}

	first, err = store.FirstEnrollment(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == nil || !first.Equal(a.CreatedAt) {
		t.Errorf("expected first enrollment %v, got %v", a.CreatedAt, first)
	}
}
