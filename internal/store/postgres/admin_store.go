package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openforecast/marketd/internal/domain"
)

// AdminStore implements domain.AdminStore using PostgreSQL.
type AdminStore struct {
	pool *pgxpool.Pool
}

// NewAdminStore creates a new AdminStore backed by the given connection pool.
func NewAdminStore(pool *pgxpool.Pool) *AdminStore {
	return &AdminStore{pool: pool}
}

// Add grants admin rights to an identity. Adding an existing admin is a no-op.
func (s *AdminStore) Add(ctx context.Context, identity string) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO admins (identity) VALUES ($1) ON CONFLICT (identity) DO NOTHING",
		identity)
	if err != nil {
		return fmt.Errorf("postgres: add admin %s: %w", identity, err)
	}
	return nil
}

// Remove revokes admin rights from an identity.
func (s *AdminStore) Remove(ctx context.Context, identity string) error {
	_, err := s.pool.Exec(ctx,
		"DELETE FROM admins WHERE identity = $1", identity)
	if err != nil {
		return fmt.Errorf("postgres: remove admin %s: %w", identity, err)
	}
	return nil
}

// IsAdmin reports whether an identity holds admin rights.
func (s *AdminStore) IsAdmin(ctx context.Context, identity string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM admins WHERE identity = $1)", identity).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: check admin %s: %w", identity, err)
	}
	return exists, nil
}

// List returns all admin identities in lexicographic order.
func (s *AdminStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT identity FROM admins ORDER BY identity")
	if err != nil {
		return nil, fmt.Errorf("postgres: list admins: %w", err)
	}
	defer rows.Close()

	var identities []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan admin: %w", err)
		}
		identities = append(identities, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list admins rows: %w", err)
	}
	return identities, nil
}

var _ domain.AdminStore = (*AdminStore)(nil)
