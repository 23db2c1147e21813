package facerec

import (
	"context"

	"github.com/kozaktomas/face-registry/internal/database"
)

// DuplicatePolicy gates new registrations by running the match engine at
// the enrollment threshold, which is numerically tighter than the
// verification one. The two thresholds are tuned independently.
type DuplicatePolicy struct {
	engine    *Engine
	threshold float64
}

// NewDuplicatePolicy creates a policy using the given enrollment threshold.
func NewDuplicatePolicy(engine *Engine, threshold float64) *DuplicatePolicy {
	return &DuplicatePolicy{engine: engine, threshold: threshold}
}

// Threshold returns the enrollment threshold the policy operates at.
func (p *DuplicatePolicy) Threshold() float64 {
	return p.threshold
}

// RejectIfDuplicate returns the enrolled subject the query collides with,
// or nil when enrollment may proceed. The caller reports the colliding
// subject's name to the operator.
func (p *DuplicatePolicy) RejectIfDuplicate(ctx context.Context, query []float64) (*database.Subject, error) {
	match, err := p.engine.FindBestMatch(ctx, query, p.threshold)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, nil
	}
	return &match.Subject, nil
}
