package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/GophNotes/internal/models"
	"go.uber.org/zap"
)

// NoteStore defines the owner-scoped persistence operations needed by the NoteService.
type NoteStore interface {
	// Create inserts a new note.
	Create(ctx context.Context, n *models.Note) error
	// ListByOwner returns all notes of ownerID, newest first, ties in insertion order.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Note, error)
	// GetByID fetches a note of ownerID, or models.ErrNotFound.
	GetByID(ctx context.Context, ownerID, id string) (*models.Note, error)
	// Update applies patch and updatedAt to a note of ownerID and returns the result.
	Update(ctx context.Context, ownerID, id string, patch models.NotePatch, updatedAt time.Time) (*models.Note, error)
	// Delete removes a note of ownerID and reports how many rows were removed.
	Delete(ctx context.Context, ownerID, id string) (int64, error)
}

// NoteService implements note CRUD on behalf of an authenticated owner.
// A note that does not exist and a note owned by someone else are
// indistinguishable to the caller.
type NoteService struct {
	store NoteStore
	log   *zap.Logger
	now   func() time.Time
}

// NewNoteService constructs a NoteService backed by store.
func NewNoteService(store NoteStore, log *zap.Logger) *NoteService {
	if log == nil {
		log = zap.NewNop()
	}
	return &NoteService{store: store, log: log, now: time.Now}
}

// Create stores a new note owned by owner.
func (s *NoteService) Create(ctx context.Context, owner *models.User, title, description string, localID *string) (*models.Note, error) {
	now := s.timestamp()
	n := &models.Note{
		ID:          models.NewID(),
		Title:       title,
		Description: description,
		OwnerID:     owner.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
		LocalID:     localID,
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	s.log.Info("note created", zap.String("owner", owner.Email), zap.String("note_id", n.ID))
	return n, nil
}

// List returns every note of owner, newest first.
func (s *NoteService) List(ctx context.Context, owner *models.User) ([]models.Note, error) {
	notes, err := s.store.ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	if notes == nil {
		notes = []models.Note{}
	}
	s.log.Info("notes listed", zap.String("owner", owner.Email), zap.Int("count", len(notes)))
	return notes, nil
}

// Get returns the note noteID of owner.
func (s *NoteService) Get(ctx context.Context, owner *models.User, noteID string) (*models.Note, error) {
	id, ok := models.CanonicalID(noteID)
	if !ok {
		return nil, models.ErrNotFound
	}
	n, err := s.store.GetByID(ctx, owner.ID, id)
	if err != nil {
		return nil, wrapStoreErr("get note", err)
	}
	s.log.Info("note fetched", zap.String("owner", owner.Email), zap.String("note_id", id))
	return n, nil
}

// Update applies the present fields of patch to the note noteID of owner.
// UpdatedAt always advances, even when the patch is empty.
func (s *NoteService) Update(ctx context.Context, owner *models.User, noteID string, patch models.NotePatch) (*models.Note, error) {
	id, ok := models.CanonicalID(noteID)
	if !ok {
		return nil, models.ErrNotFound
	}
	current, err := s.store.GetByID(ctx, owner.ID, id)
	if err != nil {
		return nil, wrapStoreErr("get note", err)
	}

	updatedAt := s.timestamp()
	if !updatedAt.After(current.UpdatedAt) {
		updatedAt = current.UpdatedAt.Add(time.Microsecond)
	}

	n, err := s.store.Update(ctx, owner.ID, id, patch, updatedAt)
	if err != nil {
		return nil, wrapStoreErr("update note", err)
	}
	s.log.Info("note updated", zap.String("owner", owner.Email), zap.String("note_id", id))
	return n, nil
}

// Delete permanently removes the note noteID of owner and returns the
// number of notes removed.
func (s *NoteService) Delete(ctx context.Context, owner *models.User, noteID string) (int64, error) {
	id, ok := models.CanonicalID(noteID)
	if !ok {
		return 0, models.ErrNotFound
	}
	removed, err := s.store.Delete(ctx, owner.ID, id)
	if err != nil {
		return 0, fmt.Errorf("delete note: %w", err)
	}
	switch removed {
	case 0:
		return 0, models.ErrNotFound
	case 1:
	default:
		return 0, fmt.Errorf("delete note: unexpected removed count %d", removed)
	}
	s.log.Warn("note deleted", zap.String("owner", owner.Email), zap.String("note_id", id))
	return removed, nil
}

func (s *NoteService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func wrapStoreErr(op string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
