package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UpsertUser creates or refreshes the sender profile of an authenticated user.
// A zero ID lets the database assign one.
func (db *DB) UpsertUser(ctx context.Context, input UserUpsertInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, fmt.Errorf("user email cannot be empty")
	}
	id := input.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	var u User
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, first_name, last_name, school, major)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		     email = EXCLUDED.email,
		     first_name = EXCLUDED.first_name,
		     last_name = EXCLUDED.last_name,
		     school = EXCLUDED.school,
		     major = EXCLUDED.major,
		     updated_at = NOW()
		 RETURNING id, email, first_name, last_name, school, major, created_at, updated_at`,
		id, email, input.FirstName, input.LastName, input.School, input.Major,
	).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.School, &u.Major, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &u, nil
}
