package facerec

import (
	"context"
	"fmt"
	"math"

	"github.com/kozaktomas/face-registry/internal/database"
)

// Match is the result of a successful similarity search. Distance is the
// raw Euclidean distance; Similarity is derived from it relative to the
// threshold the search ran under, so the same physical distance scores
// differently at the enrollment and verification operating points.
type Match struct {
	Subject    database.Subject
	Distance   float64
	Similarity float64
}

// Scanner is the slice of the subject store the engine needs.
type Scanner interface {
	ScanAll(ctx context.Context) ([]database.Subject, error)
}

// Engine performs linear-scan similarity search over the subject store.
// Correct at small enrollment populations; swapping in an indexed search
// behind FindBestMatch is the designated extension point for larger ones.
type Engine struct {
	store Scanner
}

// NewEngine creates a match engine backed by the given store.
func NewEngine(store Scanner) *Engine {
	return &Engine{store: store}
}

// FindBestMatch scans every enrolled subject and returns the closest one
// strictly under the threshold, or nil when nothing qualifies. Ties keep
// the earliest-scanned subject. Similarity maps distance 0 to 1 and the
// threshold boundary to 0; the comparison being strict, 0 is never reached.
func (e *Engine) FindBestMatch(ctx context.Context, query []float64, threshold float64) (*Match, error) {
	subjects, err := e.store.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning subjects: %w", err)
	}

	var best *Match
	bestDistance := math.Inf(1)

	for i := range subjects {
		distance := EuclideanDistance(query, subjects[i].Embedding)
		if distance < threshold && distance < bestDistance {
			bestDistance = distance
			best = &Match{
				Subject:    subjects[i],
				Distance:   distance,
				Similarity: math.Max(0, 1-distance/threshold),
			}
		}
	}

	return best, nil
}
