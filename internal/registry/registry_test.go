package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/database/memory"
	"github.com/kozaktomas/face-registry/internal/facerec"
	"github.com/kozaktomas/face-registry/internal/stats"
)

func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		EnrollmentThreshold:   0.4,
		VerificationThreshold: 0.6,
		EmbeddingDim:          2,
	}
}

func TestRegister_NewSubject(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	counter := stats.NewCounter(nil)
	reg := New(store, counter, testMatchingConfig())

	subject, err := reg.Register(ctx, Registration{Name: "Ana", Role: "student", Embedding: []float64{0, 0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject.ID == "" {
		t.Error("expected assigned id")
	}

	snap, err := counter.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.TotalRegistrations != 1 {
		t.Errorf("expected 1 registration counted, got %d", snap.TotalRegistrations)
	}
}

func TestRegister_RejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	counter := stats.NewCounter(nil)
	reg := New(store, counter, testMatchingConfig())

	if _, err := reg.Register(ctx, Registration{Name: "Ana", Role: "student", Embedding: []float64{0, 0}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Within the enrollment threshold of Ana.
	_, err := reg.Register(ctx, Registration{Name: "Impostor", Role: "student", Embedding: []float64{0.1, 0}})
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
	if dup.Existing.Name != "Ana" {
		t.Errorf("expected collision with Ana, got %q", dup.Existing.Name)
	}

	count, _ := store.Count(ctx)
	if count != 1 {
		t.Errorf("expected rejected registration not to be stored, got %d subjects", count)
	}
	snap, _ := counter.Snapshot(ctx)
	if snap.TotalRegistrations != 1 {
		t.Errorf("expected rejected registration not to be counted, got %d", snap.TotalRegistrations)
	}
}

func TestRegister_AdmitsDistinctFaces(t *testing.T) {
	ctx := context.Background()
	reg := New(memory.NewStore(), stats.NewCounter(nil), testMatchingConfig())

	// Distance 0.5: above the 0.4 enrollment threshold, so both enroll,
	// even though verification at 0.6 would consider them the same person.
	if _, err := reg.Register(ctx, Registration{Name: "Ana", Role: "student", Embedding: []float64{0, 0}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reg.Register(ctx, Registration{Name: "Bia", Role: "student", Embedding: []float64{0.5, 0}}); err != nil {
		t.Fatalf("expected second registration to be admitted, got %v", err)
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	counter := stats.NewCounter(nil)
	reg := New(store, counter, testMatchingConfig())

	if _, err := reg.Register(ctx, Registration{Name: "Ana", Role: "student", Embedding: []float64{0, 0}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	match, err := reg.Verify(ctx, []float64{0.3, 0.4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil || match.Subject.Name != "Ana" {
		t.Fatalf("expected to identify Ana, got %+v", match)
	}

	// A miss still counts as a verification attempt.
	match, err = reg.Verify(ctx, []float64{5, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match != nil {
		t.Errorf("expected no match, got %q", match.Subject.Name)
	}

	snap, _ := counter.Snapshot(ctx)
	if snap.TotalVerifications != 2 {
		t.Errorf("expected 2 verifications counted, got %d", snap.TotalVerifications)
	}
}

// TestNaiveCheckThenInsertRace documents the race the original design
// carried: when the duplicate check and the insert are not serialized, two
// near-identical faces can both pass the check and both get stored.
func TestNaiveCheckThenInsertRace(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	policy := facerec.NewDuplicatePolicy(facerec.NewEngine(store), 0.4)

	a := []float64{0, 0}
	b := []float64{0.1, 0} // distance 0.1, mutual duplicates

	// Both checks run before either insert: the race window at its widest.
	for _, q := range [][]float64{a, b} {
		dup, err := policy.RejectIfDuplicate(ctx, q)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dup != nil {
			t.Fatalf("expected empty store to pass the check")
		}
	}
	for _, q := range [][]float64{a, b} {
		subject := &database.Subject{Name: "Racer", Role: "student", Embedding: q}
		if err := store.Insert(ctx, subject); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	count, _ := store.Count(ctx)
	if count != 2 {
		t.Fatalf("expected the naive composition to admit both racers, got %d", count)
	}

	// The stored pair would now flag each other as duplicates.
	dup, err := policy.RejectIfDuplicate(ctx, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup == nil {
		t.Error("expected post-hoc check to flag the admitted duplicates")
	}
}

// TestRegister_SerializedRaceHasOneWinner asserts the serialized path
// closes the window: of two concurrent near-duplicate registrations at
// most one is admitted.
func TestRegister_SerializedRaceHasOneWinner(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	reg := New(store, stats.NewCounter(nil), testMatchingConfig())

	embeddings := [][]float64{{0, 0}, {0.1, 0}}
	results := make([]error, len(embeddings))

	var wg sync.WaitGroup
	for i, e := range embeddings {
		wg.Add(1)
		go func(i int, e []float64) {
			defer wg.Done()
			_, err := reg.Register(ctx, Registration{Name: "Racer", Role: "student", Embedding: e})
			results[i] = err
		}(i, e)
	}
	wg.Wait()

	var successes, duplicates int
	for _, err := range results {
		var dup *DuplicateError
		switch {
		case err == nil:
			successes++
		case errors.As(err, &dup):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes != 1 || duplicates != 1 {
		t.Errorf("expected exactly one winner and one duplicate, got %d/%d", successes, duplicates)
	}
	count, _ := store.Count(ctx)
	if count != 1 {
		t.Errorf("expected exactly one stored subject, got %d", count)
	}
}
