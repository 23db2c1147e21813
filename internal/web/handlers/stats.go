package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/stats"
)

// StatsHandler exposes the registration/verification counters.
type StatsHandler struct {
	counter *stats.Counter
	store   database.SubjectReader
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(counter *stats.Counter, store database.SubjectReader) *StatsHandler {
	return &StatsHandler{counter: counter, store: store}
}

// StatsResponse represents the counters response.
type StatsResponse struct {
	TotalRegistrations int64     `json:"total_registrations"`
	TotalVerifications int64     `json:"total_verifications"`
	LastUpdated        time.Time `json:"last_updated"`
}

// DetailedStatsResponse adds per-role counts and the first enrollment.
type DetailedStatsResponse struct {
	StatsResponse
	SubjectsByRole  map[string]int `json:"subjects_by_role"`
	FirstEnrollment *time.Time     `json:"first_enrollment,omitempty"`
}

func statsResponse(snap stats.Snapshot) StatsResponse {
	return StatsResponse{
		TotalRegistrations: snap.TotalRegistrations,
		TotalVerifications: snap.TotalVerifications,
		LastUpdated:        snap.LastUpdated,
	}
}

// Get returns the current counters.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.counter.Snapshot(r.Context())
	if err != nil {
		log.Printf("reading stats failed: %v", err)
		respondError(w, http.StatusInternalServerError, "reading stats failed")
		return
	}
	respondJSON(w, http.StatusOK, statsResponse(snap))
}

// GetDetailed returns counters plus per-role subject totals.
func (h *StatsHandler) GetDetailed(w http.ResponseWriter, r *http.Request) {
	snap, err := h.counter.Snapshot(r.Context())
	if err != nil {
		log.Printf("reading stats failed: %v", err)
		respondError(w, http.StatusInternalServerError, "reading stats failed")
		return
	}

	byRole, err := h.store.CountByRole(r.Context())
	if err != nil {
		log.Printf("counting subjects failed: %v", err)
		respondError(w, http.StatusInternalServerError, "counting subjects failed")
		return
	}
	first, err := h.store.FirstEnrollment(r.Context())
	if err != nil {
		log.Printf("reading first enrollment failed: %v", err)
		respondError(w, http.StatusInternalServerError, "reading first enrollment failed")
		return
	}

	respondJSON(w, http.StatusOK, DetailedStatsResponse{
		StatsResponse:   statsResponse(snap),
		SubjectsByRole:  byRole,
		FirstEnrollment: first,
	})
}

// Reset zeroes the counters and returns the zeroed snapshot. Useful at the
// start of a reporting period; always an explicit operation.
func (h *StatsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	snap, err := h.counter.Reset(r.Context())
	if err != nil {
		log.Printf("resetting stats failed: %v", err)
		respondError(w, http.StatusInternalServerError, "resetting stats failed")
		return
	}
	respondJSON(w, http.StatusOK, statsResponse(snap))
}
