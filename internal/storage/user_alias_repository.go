package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bedrock_usage/internal/models"
)

// UserAliasRepository handles user alias database operations
type UserAliasRepository struct {
	db *DB
}

// NewUserAliasRepository creates a new user alias repository
func NewUserAliasRepository(db *DB) *UserAliasRepository {
	return &UserAliasRepository{db: db}
}

// List returns all user aliases
func (r *UserAliasRepository) List(ctx context.Context) ([]*models.UserAlias, error) {
	query := `
		SELECT id, alias, username, created_at, updated_at
		FROM user_aliases
		ORDER BY username, alias
	`

	var aliases []*models.UserAlias
	if err := r.db.conn.SelectContext(ctx, &aliases, query); err != nil {
		return nil, fmt.Errorf("failed to list user aliases: %w", err)
	}
	return aliases, nil
}

// GetByAlias retrieves a user alias by its raw identity
func (r *UserAliasRepository) GetByAlias(ctx context.Context, alias string) (*models.UserAlias, error) {
	var userAlias models.UserAlias
	query := `
		SELECT id, alias, username, created_at, updated_at
		FROM user_aliases
		WHERE alias = $1
	`

	err := r.db.conn.GetContext(ctx, &userAlias, query, alias)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserAliasNotFound
		}
		return nil, fmt.Errorf("failed to get user alias: %w", err)
	}
	return &userAlias, nil
}

// Create creates a new user alias. The alias column is unique, so
// mapping the same raw identity to two users fails.
func (r *UserAliasRepository) Create(ctx context.Context, alias *models.UserAlias) error {
	query := `
		INSERT INTO user_aliases (id, alias, username)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`

	if alias.ID == uuid.Nil {
		alias.ID = uuid.New()
	}

	err := r.db.conn.QueryRowxContext(ctx, query, alias.ID, alias.Alias, alias.Username).
		Scan(&alias.CreatedAt, &alias.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user alias: %w", err)
	}
	return nil
}

// Delete deletes a user alias
func (r *UserAliasRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.conn.ExecContext(ctx, "DELETE FROM user_aliases WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user alias: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserAliasNotFound
	}
	return nil
}

// AliasMap returns the alias table as a raw identity to username map,
// ready for the normalizer.
func (r *UserAliasRepository) AliasMap(ctx context.Context) (map[string]string, error) {
	aliases, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	m := make(map[string]string, len(aliases))
	for _, alias := range aliases {
		m[alias.Alias] = alias.Username
	}
	return m, nil
}
