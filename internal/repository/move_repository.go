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

const moveColumns = `
	id, new_trailer, old_trailer, driver_id, origin, destination,
	one_way_miles, gross_pay, factoring_fee, net_pay, paid,
	pod_doc_ref, pod_uploaded_at, status, version, created_at, updated_at
`

// MoveRepository handles database operations for moves
type MoveRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewMoveRepository creates a new MoveRepository
func NewMoveRepository(db *database.Database, logger logger.Logger) *MoveRepository {
	return &MoveRepository{
		db:     db,
		logger: logger,
	}
}

// BeginTx starts a transaction
func (r *MoveRepository) BeginTx(ctx context.Context) (Tx, error) {
	return begin(ctx, r.db.DB)
}

// GetByID retrieves a move by its ID
func (r *MoveRepository) GetByID(ctx context.Context, id string) (*models.Move, error) {
	query := `SELECT ` + moveColumns + ` FROM moves WHERE id = $1`

	var move models.Move
	err := r.db.DB.GetContext(ctx, &move, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("move %q not found", id))
		}
		r.logger.Error("Failed to get move", "error", err, "moveID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &move, nil
}

// List retrieves moves, optionally filtered by status and driver
func (r *MoveRepository) List(ctx context.Context, status, driverID string, limit, offset int) ([]*models.Move, error) {
	query := `
		SELECT ` + moveColumns + `
		FROM moves
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR driver_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	var moves []*models.Move
	err := r.db.DB.SelectContext(ctx, &moves, query, status, driverID, limit, offset)

	if err != nil {
		r.logger.Error("Failed to list moves", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return moves, nil
}

// CreateInTx inserts a new move within a transaction. The partial unique
// indexes on (new_trailer) and (old_trailer) over open moves reject a
// second open move for either trailer.
func (r *MoveRepository) CreateInTx(tx Tx, move *models.Move) error {
	t, err := sqlxTx(tx)

	if err != nil {
		return err
	}

	query := `
		INSERT INTO moves (
			id, new_trailer, old_trailer, driver_id, origin, destination,
			one_way_miles, gross_pay, factoring_fee, net_pay, paid,
			pod_doc_ref, pod_uploaded_at, status, version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
	`

	_, err = t.Exec(
		query,
		move.ID,
		move.NewTrailer,
		move.OldTrailer,
		move.DriverID,
		move.Origin,
		move.Destination,
		move.OneWayMiles,
		move.GrossPay,
		move.FactoringFee,
		move.NetPay,
		move.Paid,
		move.PODDocRef,
		move.PODUploadedAt,
		move.Status,
		move.Version,
		move.CreatedAt,
		move.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateKeyError(
				fmt.Sprintf("a trailer on move %q is already attached to another open move", move.ID))
		}
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// UpdateInTx writes a move's mutable fields guarded by the version it was
// read at. A concurrent writer that committed first bumps the version, this
// UPDATE then matches zero rows, and the caller gets ConcurrentModification
// instead of silently overwriting.
func (r *MoveRepository) UpdateInTx(tx Tx, move *models.Move) error {
	t, err := sqlxTx(tx)

	if err != nil {
		return err
	}

	query := `
		UPDATE moves
		SET driver_id = $1, one_way_miles = $2, gross_pay = $3, factoring_fee = $4,
		    net_pay = $5, paid = $6, pod_doc_ref = $7, pod_uploaded_at = $8,
		    status = $9, version = version + 1, updated_at = $10
		WHERE id = $11 AND version = $12
	`

	result, err := t.Exec(
		query,
		move.DriverID,
		move.OneWayMiles,
		move.GrossPay,
		move.FactoringFee,
		move.NetPay,
		move.Paid,
		move.PODDocRef,
		move.PODUploadedAt,
		move.Status,
		models.GetCurrentTime(),
		move.ID,
		move.Version,
	)

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		var exists bool
		if getErr := t.Get(&exists, `SELECT EXISTS (SELECT 1 FROM moves WHERE id = $1)`, move.ID); getErr != nil {
			return fmt.Errorf("%w: %v", ErrDatabase, getErr)
		}
		if !exists {
			return apperrors.NewNotFoundError(fmt.Sprintf("move %q not found", move.ID))
		}
		return apperrors.NewConcurrentModificationError(
			fmt.Sprintf("move %q was modified concurrently; reload and retry", move.ID))
	}

	move.Version++
	return nil
}

// CountByStatus returns the number of moves per status for the dashboard
func (r *MoveRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `SELECT status, COUNT(*) AS count FROM moves GROUP BY status`

	rows, err := r.db.DB.QueryxContext(ctx, query)

	if err != nil {
		r.logger.Error("Failed to count moves by status", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	defer rows.Close()

	counts := make(map[string]int)

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}
