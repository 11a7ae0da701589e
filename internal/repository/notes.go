package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/GophNotes/internal/models"
)

const noteColumns = `id, owner_id, title, description, local_id, created_at, updated_at`

// PostgresNoteRepository stores notes in a PostgreSQL database.
// Every read and write is scoped by owner.
type PostgresNoteRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresNoteRepository creates a new PostgresNoteRepository using the provided *sql.DB.
func NewPostgresNoteRepository(db *sql.DB) *PostgresNoteRepository {
	return &PostgresNoteRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (models.Note, error) {
	var (
		n       models.Note
		localID sql.NullString
	)
	if err := row.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Description, &localID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return models.Note{}, err
	}
	if localID.Valid {
		n.LocalID = &localID.String
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return n, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Create inserts a new note.
func (r *PostgresNoteRepository) Create(ctx context.Context, n *models.Note) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO notes (id, owner_id, title, description, local_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.OwnerID, n.Title, n.Description, nullString(n.LocalID), n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// ListByOwner returns every note of ownerID, newest first.
// Notes created at the same instant keep their insertion order.
//
//	ctx:     context for cancellation and deadlines
//	ownerID: identifier of the owning user
func (r *PostgresNoteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Note, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+noteColumns+`
		  FROM notes
		 WHERE owner_id = $1
		 ORDER BY created_at DESC, seq ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// GetByID fetches the note id owned by ownerID.
// It returns models.ErrNotFound when the note is absent or owned by someone else.
func (r *PostgresNoteRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Note, error) {
	n, err := scanNote(r.DB.QueryRowContext(ctx, `
		SELECT `+noteColumns+`
		  FROM notes
		 WHERE id = $1 AND owner_id = $2
	`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return &n, nil
}

// Update applies the present fields of patch to the note id owned by ownerID,
// always setting updated_at, and returns the stored result.
//
//	ctx:       context for cancellation and deadlines
//	ownerID:   identifier of the owning user
//	id:        identifier of the note
//	patch:     fields to replace; nil fields are left untouched
//	updatedAt: new modification time
func (r *PostgresNoteRepository) Update(ctx context.Context, ownerID, id string, patch models.NotePatch, updatedAt time.Time) (*models.Note, error) {
	sets := []string{"updated_at = $3"}
	args := []any{id, ownerID, updatedAt}
	add := func(column string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("title", patch.Title)
	add("description", patch.Description)
	add("local_id", patch.LocalID)

	query := `UPDATE notes SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND owner_id = $2 RETURNING ` + noteColumns

	n, err := scanNote(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return &n, nil
}

// Delete permanently removes the note id owned by ownerID and reports
// how many rows were removed.
func (r *PostgresNoteRepository) Delete(ctx context.Context, ownerID, id string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM notes WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete note: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete note: %w", err)
	}
	return n, nil
}
