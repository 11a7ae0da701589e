package models

import "github.com/google/uuid"

// NewID returns a fresh identity in canonical form.
func NewID() string {
	return uuid.NewString()
}

// IsValidID reports whether s is a well-formed identity.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// CanonicalID returns the canonical form of s and whether s is well-formed.
func CanonicalID(s string) (string, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
