package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/registry"
)

// SubjectsHandler handles enrollment, verification, and subject management.
type SubjectsHandler struct {
	config   *config.Config
	registry *registry.Registry
	store    database.SubjectWriter
}

// NewSubjectsHandler creates a new subjects handler.
func NewSubjectsHandler(cfg *config.Config, reg *registry.Registry, store database.SubjectWriter) *SubjectsHandler {
	return &SubjectsHandler{config: cfg, registry: reg, store: store}
}

// RegisterRequest is the enrollment payload.
type RegisterRequest struct {
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Descriptor []float64 `json:"descriptor"`
}

// VerifyRequest is the identification payload.
type VerifyRequest struct {
	Descriptor []float64 `json:"descriptor"`
}

// SubjectResponse is a subject with the descriptor omitted.
type SubjectResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// VerifyResponse reports whether a query descriptor identified someone.
type VerifyResponse struct {
	Found      bool       `json:"found"`
	Name       string     `json:"name,omitempty"`
	Role       string     `json:"role,omitempty"`
	EnrolledAt *time.Time `json:"enrolled_at,omitempty"`
	Similarity *float64   `json:"similarity,omitempty"`
	Distance   *float64   `json:"distance,omitempty"`
}

func subjectResponse(s database.Subject) SubjectResponse {
	return SubjectResponse{ID: s.ID, Name: s.Name, Role: s.Role, EnrolledAt: s.CreatedAt}
}

// validateDescriptor checks the query descriptor before any store access.
// Returns an error message for the caller, or "" when valid.
func (h *SubjectsHandler) validateDescriptor(descriptor []float64) string {
	if len(descriptor) == 0 {
		return "descriptor is required"
	}
	if dim := h.config.Matching.EmbeddingDim; len(descriptor) != dim {
		return fmt.Sprintf("descriptor must have %d dimensions, got %d", dim, len(descriptor))
	}
	return ""
}

// Register enrolls a new subject unless the face is already enrolled.
func (h *SubjectsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !h.config.Roles.Known(req.Role) {
		respondError(w, http.StatusBadRequest, "unknown role")
		return
	}
	if msg := h.validateDescriptor(req.Descriptor); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	subject, err := h.registry.Register(r.Context(), registry.Registration{
		Name:      req.Name,
		Role:      req.Role,
		Embedding: req.Descriptor,
	})
	var dup *registry.DuplicateError
	if errors.As(err, &dup) {
		respondJSON(w, http.StatusConflict, map[string]string{
			"error":            "face already enrolled",
			"conflicting_name": dup.Existing.Name,
		})
		return
	}
	if err != nil {
		log.Printf("registration failed: %v", err)
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	log.Printf("subject %q enrolled as %s", subject.Name, subject.Role)
	respondJSON(w, http.StatusCreated, subjectResponse(*subject))
}

// Verify identifies the enrolled subject closest to the query descriptor.
func (h *SubjectsHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if msg := h.validateDescriptor(req.Descriptor); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	match, err := h.registry.Verify(r.Context(), req.Descriptor)
	if err != nil {
		log.Printf("verification failed: %v", err)
		respondError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	if match == nil {
		respondJSON(w, http.StatusOK, VerifyResponse{Found: false})
		return
	}

	respondJSON(w, http.StatusOK, VerifyResponse{
		Found:      true,
		Name:       match.Subject.Name,
		Role:       match.Subject.Role,
		EnrolledAt: &match.Subject.CreatedAt,
		Similarity: &match.Similarity,
		Distance:   &match.Distance,
	})
}

// List returns enrolled subjects, descriptors omitted. An optional ?name=
// query filters by normalized name.
func (h *SubjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		subjects []database.Subject
		err      error
	)
	if name := r.URL.Query().Get("name"); name != "" {
		subjects, err = h.store.FindByName(r.Context(), name)
	} else {
		subjects, err = h.store.List(r.Context())
	}
	if err != nil {
		log.Printf("listing subjects failed: %v", err)
		respondError(w, http.StatusInternalServerError, "listing subjects failed")
		return
	}

	out := make([]SubjectResponse, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, subjectResponse(s))
	}
	respondJSON(w, http.StatusOK, out)
}

// Get returns a single subject by id, descriptor omitted.
func (h *SubjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	subject, err := h.store.FindByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "subject not found")
		return
	}
	if err != nil {
		log.Printf("fetching subject failed: %v", err)
		respondError(w, http.StatusInternalServerError, "fetching subject failed")
		return
	}
	respondJSON(w, http.StatusOK, subjectResponse(*subject))
}

// Delete removes a subject by id.
func (h *SubjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.store.Remove(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "subject not found")
		return
	}
	if err != nil {
		log.Printf("deleting subject failed: %v", err)
		respondError(w, http.StatusInternalServerError, "deleting subject failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "subject deleted"})
}
