package database

import (
	"time"
)

// Subject represents an enrolled person: a display name, a role from the
// configured vocabulary, and the facial descriptor captured at enrollment.
// Subjects are immutable once inserted; they can only be removed.
type Subject struct {
	ID        string
	Name      string
	Role      string
	Embedding []float64
	CreatedAt time.Time
}

// WithoutEmbedding returns a copy of the subject with the descriptor
// dropped, for listing endpoints that must not leak biometric data.
func (s Subject) WithoutEmbedding() Subject {
	s.Embedding = nil
	return s
}
