// Package registry is the service layer tying the subject store, the match
// engine, and the statistics counter together for the two core flows:
// enrollment with duplicate rejection, and verification.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/facerec"
	"github.com/kozaktomas/face-registry/internal/stats"
)

// DuplicateError reports that a registration collided with an already
// enrolled subject.
type DuplicateError struct {
	Existing database.Subject
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("face already enrolled as %q", e.Existing.Name)
}

// Registration is the payload for enrolling a new subject.
type Registration struct {
	Name      string
	Role      string
	Embedding []float64
}

// Registry coordinates enrollment and verification.
type Registry struct {
	store   database.SubjectWriter
	engine  *facerec.Engine
	policy  *facerec.DuplicatePolicy
	counter *stats.Counter

	verificationThreshold float64

	// regMu serializes the duplicate check with the insert. Without it two
	// concurrent registrations of near-identical faces can both pass the
	// check and both get stored; the original system accepted that race.
	regMu sync.Mutex
}

// New creates a registry using the configured operating points.
func New(store database.SubjectWriter, counter *stats.Counter, cfg config.MatchingConfig) *Registry {
	engine := facerec.NewEngine(store)
	return &Registry{
		store:                 store,
		engine:                engine,
		policy:                facerec.NewDuplicatePolicy(engine, cfg.EnrollmentThreshold),
		counter:               counter,
		verificationThreshold: cfg.VerificationThreshold,
	}
}

// Register enrolls a new subject after the duplicate check. Check and
// insert run inside one critical section, so of two racing near-duplicate
// registrations at most one wins; the loser gets a DuplicateError naming
// the winner.
func (r *Registry) Register(ctx context.Context, reg Registration) (*database.Subject, error) {
	r.regMu.Lock()
	defer r.regMu.Unlock()

	existing, err := r.policy.RejectIfDuplicate(ctx, reg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if existing != nil {
		return nil, &DuplicateError{Existing: *existing}
	}

	subject := &database.Subject{
		Name:      reg.Name,
		Role:      reg.Role,
		Embedding: reg.Embedding,
	}
	if err := r.store.Insert(ctx, subject); err != nil {
		return nil, fmt.Errorf("storing subject: %w", err)
	}

	if err := r.counter.IncrementRegistrations(ctx); err != nil {
		return nil, err
	}
	return subject, nil
}

// Verify searches for the enrolled subject closest to the query at the
// verification threshold. The verification counter increments whether or
// not a match is found.
func (r *Registry) Verify(ctx context.Context, query []float64) (*facerec.Match, error) {
	match, err := r.engine.FindBestMatch(ctx, query, r.verificationThreshold)
	if err != nil {
		return nil, err
	}

	if err := r.counter.IncrementVerifications(ctx); err != nil {
		return nil, err
	}
	return match, nil
}
