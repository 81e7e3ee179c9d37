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

// DriverRepository handles database operations for drivers
type DriverRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewDriverRepository creates a new DriverRepository
func NewDriverRepository(db *database.Database, logger logger.Logger) *DriverRepository {
	return &DriverRepository{
		db:     db,
		logger: logger,
	}
}

// Add inserts a new driver
func (r *DriverRepository) Add(ctx context.Context, driver *models.Driver) error {
	query := `
		INSERT INTO drivers (id, name, phone, email, is_contractor, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		driver.ID,
		driver.Name,
		driver.Phone,
		driver.Email,
		driver.IsContractor,
		driver.Active,
		driver.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateKeyError(fmt.Sprintf("driver %q already exists", driver.Name))
		}
		r.logger.Error("Failed to add driver", "error", err, "driverName", driver.Name)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a driver by ID
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*models.Driver, error) {
	query := `
		SELECT id, name, phone, email, is_contractor, active, created_at
		FROM drivers
		WHERE id = $1
	`

	var driver models.Driver
	err := r.db.DB.GetContext(ctx, &driver, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("driver %q not found", id))
		}
		r.logger.Error("Failed to get driver", "error", err, "driverID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &driver, nil
}

// List retrieves all drivers, optionally only active ones
func (r *DriverRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*models.Driver, error) {
	query := `
		SELECT id, name, phone, email, is_contractor, active, created_at
		FROM drivers
		WHERE ($1 = FALSE OR active = TRUE)
		ORDER BY name ASC
		LIMIT $2 OFFSET $3
	`

	var drivers []*models.Driver
	err := r.db.DB.SelectContext(ctx, &drivers, query, activeOnly, limit, offset)

	if err != nil {
		r.logger.Error("Failed to list drivers", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return drivers, nil
}

// SetActive flips a driver's availability flag
func (r *DriverRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE drivers SET active = $1 WHERE id = $2`

	result, err := r.db.DB.ExecContext(ctx, query, active, id)

	if err != nil {
		r.logger.Error("Failed to set driver active flag", "error", err, "driverID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("driver %q not found", id))
	}

	return nil
}
