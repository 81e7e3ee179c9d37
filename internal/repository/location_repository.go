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

// LocationRepository handles database operations for locations
type LocationRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewLocationRepository creates a new LocationRepository
func NewLocationRepository(db *database.Database, logger logger.Logger) *LocationRepository {
	return &LocationRepository{
		db:     db,
		logger: logger,
	}
}

// Add inserts a new location
func (r *LocationRepository) Add(ctx context.Context, loc *models.Location) error {
	query := `
		INSERT INTO locations (id, title, street_address, city, state, zip_code, is_base, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		loc.ID,
		loc.Title,
		loc.StreetAddress,
		loc.City,
		loc.State,
		loc.ZipCode,
		loc.IsBase,
		loc.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateKeyError(fmt.Sprintf("location %q already exists", loc.Title))
		}
		r.logger.Error("Failed to add location", "error", err, "title", loc.Title)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByTitle retrieves a location by its title
func (r *LocationRepository) GetByTitle(ctx context.Context, title string) (*models.Location, error) {
	query := `
		SELECT id, title, street_address, city, state, zip_code, is_base, created_at
		FROM locations
		WHERE title = $1
	`

	var loc models.Location
	err := r.db.DB.GetContext(ctx, &loc, query, title)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("location %q not found", title))
		}
		r.logger.Error("Failed to get location", "error", err, "title", title)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &loc, nil
}

// List retrieves all locations
func (r *LocationRepository) List(ctx context.Context, limit, offset int) ([]*models.Location, error) {
	query := `
		SELECT id, title, street_address, city, state, zip_code, is_base, created_at
		FROM locations
		ORDER BY title ASC
		LIMIT $1 OFFSET $2
	`

	var locations []*models.Location
	err := r.db.DB.SelectContext(ctx, &locations, query, limit, offset)

	if err != nil {
		r.logger.Error("Failed to list locations", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return locations, nil
}

// FullAddress satisfies mileage.AddressDirectory: it returns the street
// address for a location title, for handing to the distance service.
func (r *LocationRepository) FullAddress(ctx context.Context, title string) (string, error) {
	loc, err := r.GetByTitle(ctx, title)

	if err != nil {
		return "", err
	}

	return loc.FullAddress(), nil
}
