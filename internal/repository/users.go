// Package repository provides PostgreSQL persistence for users and notes.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/GophNotes/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint violation.
const uniqueViolation pq.ErrorCode = "23505"

// PostgresUserRepository stores user accounts in a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// FindByEmail returns the user registered with email.
// It returns models.ErrNotFound if no such user exists.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, email, full_name, password_hash, created_at, is_active
		  FROM users
		 WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.CreatedAt, &u.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// Create inserts a new user record.
// A duplicate email yields models.ErrConflict.
func (r *PostgresUserRepository) Create(ctx context.Context, u *models.User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, password_hash, created_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Email, u.FullName, u.PasswordHash, u.CreatedAt, u.IsActive)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
