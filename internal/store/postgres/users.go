package postgres

import (
	"context"
	"fmt"

	"veoprompt/internal/store"

	"github.com/google/uuid"
)

const userColumns = "id, name, email, rate_limit, rate_limit_burst, created_at"

func (s *Store) CreateUser(ctx context.Context, user *store.User, hashedKey string) error {
	query := `
		INSERT INTO users (id, name, email, api_key_hash, rate_limit, rate_limit_burst, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		hashedKey,
		user.RateLimit,
		user.RateLimitBurst,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = $1"
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) GetUserByAPIKeyHash(ctx context.Context, hash string) (*store.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE api_key_hash = $1"
	return scanUser(s.db.QueryRowContext(ctx, query, hash))
}

func scanUser(row interface{ Scan(...any) error }) (*store.User, error) {
	var u store.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.RateLimit,
		&u.RateLimitBurst,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}
