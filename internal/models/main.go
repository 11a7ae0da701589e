// Package models defines the core data structures for users and notes.
package models

import (
	"strings"
	"time"
)

// MaxTitleLength is the maximum number of characters in a note title.
const MaxTitleLength = 200

// User represents an application account.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Email is the unique, normalized login of the user.
	Email string `json:"email"`
	// FullName is the display name chosen at registration.
	FullName string `json:"full_name"`
	// PasswordHash is the adaptive hash of the user's password. It is never serialized.
	PasswordHash string `json:"-"`
	// CreatedAt is the registration time in UTC.
	CreatedAt time.Time `json:"created_at"`
	// IsActive reports whether the account is enabled.
	IsActive bool `json:"is_active"`
}

// Note is a short text note owned by exactly one user.
type Note struct {
	// ID is the unique identifier for the note.
	ID string `json:"id"`
	// Title is a short non-empty heading.
	Title string `json:"title"`
	// Description is the note body.
	Description string `json:"description"`
	// OwnerID references the owning User. It never changes after creation.
	OwnerID string `json:"user_id"`
	// CreatedAt is the creation time in UTC.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the last modification time in UTC.
	UpdatedAt time.Time `json:"updated_at"`
	// LocalID is an optional client-side correlation token.
	LocalID *string `json:"local_id"`
}

// NotePatch lists the note fields a partial update should replace.
// A nil field is left untouched.
type NotePatch struct {
	Title       *string
	Description *string
	LocalID     *string
}

// IsEmpty reports whether the patch carries no field.
func (p NotePatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.LocalID == nil
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
