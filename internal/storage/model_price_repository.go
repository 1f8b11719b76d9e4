package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bedrock_usage/internal/models"
)

// ModelPriceRepository handles model price database operations
type ModelPriceRepository struct {
	db *DB
}

// NewModelPriceRepository creates a new model price repository
func NewModelPriceRepository(db *DB) *ModelPriceRepository {
	return &ModelPriceRepository{db: db}
}

// List returns all model prices
func (r *ModelPriceRepository) List(ctx context.Context) ([]*models.ModelPrice, error) {
	query := `
		SELECT id, model_id, input_per_mtok, output_per_mtok, active, created_at, updated_at
		FROM model_prices
		ORDER BY model_id
	`

	var prices []*models.ModelPrice
	if err := r.db.conn.SelectContext(ctx, &prices, query); err != nil {
		return nil, fmt.Errorf("failed to list model prices: %w", err)
	}
	return prices, nil
}

// GetByModelID retrieves the price row for a model identifier
func (r *ModelPriceRepository) GetByModelID(ctx context.Context, modelID string) (*models.ModelPrice, error) {
	var price models.ModelPrice
	query := `
		SELECT id, model_id, input_per_mtok, output_per_mtok, active, created_at, updated_at
		FROM model_prices
		WHERE model_id = $1
	`

	err := r.db.conn.GetContext(ctx, &price, query, modelID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrModelPriceNotFound
		}
		return nil, fmt.Errorf("failed to get model price: %w", err)
	}
	return &price, nil
}

// Upsert creates or replaces the price row for a model identifier
func (r *ModelPriceRepository) Upsert(ctx context.Context, price *models.ModelPrice) error {
	query := `
		INSERT INTO model_prices (id, model_id, input_per_mtok, output_per_mtok, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (model_id)
		DO UPDATE SET input_per_mtok = EXCLUDED.input_per_mtok,
		              output_per_mtok = EXCLUDED.output_per_mtok,
		              active = EXCLUDED.active,
		              updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	if price.ID == uuid.Nil {
		price.ID = uuid.New()
	}

	err := r.db.conn.QueryRowxContext(
		ctx, query,
		price.ID, price.ModelID, price.InputPerMTok, price.OutputPerMTok, price.Active,
	).Scan(&price.ID, &price.CreatedAt, &price.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert model price: %w", err)
	}
	return nil
}

// Delete deletes the price row for a model identifier
func (r *ModelPriceRepository) Delete(ctx context.Context, modelID string) error {
	result, err := r.db.conn.ExecContext(ctx, "DELETE FROM model_prices WHERE model_id = $1", modelID)
	if err != nil {
		return fmt.Errorf("failed to delete model price: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrModelPriceNotFound
	}
	return nil
}

// ActiveEntries returns the active price rows as a pricing entry map,
// ready to overlay onto the built-in table.
func (r *ModelPriceRepository) ActiveEntries(ctx context.Context) (map[string]models.PricingEntry, error) {
	prices, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]models.PricingEntry)
	for _, price := range prices {
		if !price.Active {
			continue
		}
		entries[price.ModelID] = models.PricingEntry{
			InputPerMTok:  price.InputPerMTok,
			OutputPerMTok: price.OutputPerMTok,
		}
	}
	return entries, nil
}
