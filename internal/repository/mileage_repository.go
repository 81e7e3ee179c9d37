package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fleetops/trailer-swap-api/internal/database"
	"github.com/fleetops/trailer-swap-api/internal/models"
	apperrors "github.com/fleetops/trailer-swap-api/pkg/errors"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
)

// MileageRepository is the Postgres-backed mileage cache. Callers are
// expected to normalize the pair before reading or writing; the resolver
// does that. Writes are last-write-wins, which is fine because distances
// for a fixed pair converge to the same value.
type MileageRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewMileageRepository creates a new MileageRepository
func NewMileageRepository(db *database.Database, logger logger.Logger) *MileageRepository {
	return &MileageRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a cached distance for a canonical pair
func (r *MileageRepository) Get(ctx context.Context, from, to string) (*models.MileageCacheEntry, error) {
	query := `
		SELECT from_location, to_location, miles, source, cached_at
		FROM mileage_cache
		WHERE from_location = $1 AND to_location = $2
	`

	var entry models.MileageCacheEntry
	err := r.db.DB.GetContext(ctx, &entry, query, from, to)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(
				fmt.Sprintf("no cached mileage for %q -> %q", from, to))
		}
		r.logger.Error("Failed to get cached mileage", "error", err, "from", from, "to", to)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &entry, nil
}

// Put upserts a distance for a canonical pair
func (r *MileageRepository) Put(ctx context.Context, entry *models.MileageCacheEntry) error {
	query := `
		INSERT INTO mileage_cache (from_location, to_location, miles, source, cached_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (from_location, to_location)
		DO UPDATE SET miles = EXCLUDED.miles, source = EXCLUDED.source, cached_at = EXCLUDED.cached_at
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		entry.FromLocation,
		entry.ToLocation,
		entry.Miles,
		entry.Source,
		entry.CachedAt,
	)

	if err != nil {
		r.logger.Error("Failed to cache mileage", "error", err, "from", entry.FromLocation, "to", entry.ToLocation)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}
