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

// TrailerRepository handles database operations for trailers
type TrailerRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewTrailerRepository creates a new TrailerRepository
func NewTrailerRepository(db *database.Database, logger logger.Logger) *TrailerRepository {
	return &TrailerRepository{
		db:     db,
		logger: logger,
	}
}

// Add inserts a new trailer. The trailer number is the primary key; adding
// a number that already exists fails with DuplicateKey.
func (r *TrailerRepository) Add(ctx context.Context, trailer *models.Trailer) error {
	query := `
		INSERT INTO trailers (trailer_number, category, current_location, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		trailer.TrailerNumber,
		trailer.Category,
		trailer.CurrentLocation,
		trailer.Status,
		trailer.Notes,
		trailer.CreatedAt,
		trailer.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateKeyError(
				fmt.Sprintf("trailer %q already exists", trailer.TrailerNumber))
		}
		r.logger.Error("Failed to add trailer", "error", err, "trailerNumber", trailer.TrailerNumber)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByNumber retrieves a trailer by its number
func (r *TrailerRepository) GetByNumber(ctx context.Context, number string) (*models.Trailer, error) {
	query := `
		SELECT trailer_number, category, current_location, status, notes, created_at, updated_at
		FROM trailers
		WHERE trailer_number = $1
	`

	var trailer models.Trailer
	err := r.db.DB.GetContext(ctx, &trailer, query, number)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("trailer %q not found", number))
		}
		r.logger.Error("Failed to get trailer", "error", err, "trailerNumber", number)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &trailer, nil
}

// List retrieves trailers, optionally filtered by status and category
func (r *TrailerRepository) List(ctx context.Context, status, category string, limit, offset int) ([]*models.Trailer, error) {
	query := `
		SELECT trailer_number, category, current_location, status, notes, created_at, updated_at
		FROM trailers
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	var trailers []*models.Trailer
	err := r.db.DB.SelectContext(ctx, &trailers, query, status, category, limit, offset)

	if err != nil {
		r.logger.Error("Failed to list trailers", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return trailers, nil
}

// SetStatus updates a trailer's status. Existence is the only check here;
// transition legality belongs to the move lifecycle.
func (r *TrailerRepository) SetStatus(ctx context.Context, number string, status models.TrailerStatus) error {
	query := `
		UPDATE trailers
		SET status = $1, updated_at = $2
		WHERE trailer_number = $3
	`

	result, err := r.db.DB.ExecContext(ctx, query, status, models.GetCurrentTime(), number)

	if err != nil {
		r.logger.Error("Failed to set trailer status", "error", err, "trailerNumber", number)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("trailer %q not found", number))
	}

	return nil
}

// BeginTx starts a transaction
func (r *TrailerRepository) BeginTx(ctx context.Context) (Tx, error) {
	return begin(ctx, r.db.DB)
}

// ClaimInTx atomically attaches an available trailer to a move by flipping
// its status to assigned. The availability check and the set are one UPDATE
// so two concurrent moves can never both claim the same trailer: the loser
// matches zero rows and gets a conflict.
func (r *TrailerRepository) ClaimInTx(tx Tx, number string) error {
	t, err := sqlxTx(tx)

	if err != nil {
		return err
	}

	query := `
		UPDATE trailers
		SET status = $1, updated_at = $2
		WHERE trailer_number = $3 AND status = $4
	`

	result, err := t.Exec(query, models.TrailerStatusAssigned, models.GetCurrentTime(), number, models.TrailerStatusAvailable)

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		var status string
		if getErr := t.Get(&status, `SELECT status FROM trailers WHERE trailer_number = $1`, number); getErr != nil {
			if errors.Is(getErr, sql.ErrNoRows) {
				return apperrors.NewNotFoundError(fmt.Sprintf("trailer %q not found", number))
			}
			return fmt.Errorf("%w: %v", ErrDatabase, getErr)
		}
		return apperrors.NewConcurrentModificationError(
			fmt.Sprintf("trailer %q is not available (status %q); it is attached to another open move", number, status))
	}

	return nil
}

// SetStatusInTx updates a trailer's status within a transaction
func (r *TrailerRepository) SetStatusInTx(tx Tx, number string, status models.TrailerStatus) error {
	t, err := sqlxTx(tx)

	if err != nil {
		return err
	}

	query := `
		UPDATE trailers
		SET status = $1, updated_at = $2
		WHERE trailer_number = $3
	`

	result, err := t.Exec(query, status, models.GetCurrentTime(), number)

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("trailer %q not found", number))
	}

	return nil
}
