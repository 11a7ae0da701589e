package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/GophNotes/internal/middleware"
	"github.com/atinyakov/GophNotes/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NoteService defines the owner-scoped note operations required by the NoteHandler.
type NoteService interface {
	Create(ctx context.Context, owner *models.User, title, description string, localID *string) (*models.Note, error)
	List(ctx context.Context, owner *models.User) ([]models.Note, error)
	Get(ctx context.Context, owner *models.User, noteID string) (*models.Note, error)
	Update(ctx context.Context, owner *models.User, noteID string, patch models.NotePatch) (*models.Note, error)
	Delete(ctx context.Context, owner *models.User, noteID string) (int64, error)
}

// NoteHandler handles HTTP requests for the authenticated user's notes.
type NoteHandler struct {
	NoteService NoteService
	Log         *zap.Logger
}

// NoteCreateRequest represents the JSON payload for creating a note.
type NoteCreateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	LocalID     *string `json:"local_id"`
}

// NoteUpdateRequest represents the JSON payload for a partial note update.
// Absent fields are left untouched.
type NoteUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	LocalID     *string `json:"local_id"`
}

func (h *NoteHandler) owner(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w, detailBadToken)
		return nil, false
	}
	return user, true
}

// Create handles POST /api/notes.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req NoteCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := firstError(validateTitle(req.Title), validateDescription(req.Description)); err != nil {
		writeError(w, h.Log, err)
		return
	}

	note, err := h.NoteService.Create(r.Context(), owner, req.Title, req.Description, req.LocalID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// List handles GET /api/notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	notes, err := h.NoteService.List(r.Context(), owner)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// Get handles GET /api/notes/{id}.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	note, err := h.NoteService.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Update handles PUT /api/notes/{id}.
// Only fields present in the body are validated and applied.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req NoteUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var errs []error
	if req.Title != nil {
		errs = append(errs, validateTitle(*req.Title))
	}
	if req.Description != nil {
		errs = append(errs, validateDescription(*req.Description))
	}
	if err := firstError(errs...); err != nil {
		writeError(w, h.Log, err)
		return
	}

	patch := models.NotePatch{Title: req.Title, Description: req.Description, LocalID: req.LocalID}
	note, err := h.NoteService.Update(r.Context(), owner, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Delete handles DELETE /api/notes/{id}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if _, err := h.NoteService.Delete(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Note deleted successfully"})
}
