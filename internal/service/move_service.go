package service

import (
	"context"
	"fmt"

	"github.com/fleetops/trailer-swap-api/internal/config"
	"github.com/fleetops/trailer-swap-api/internal/models"
	"github.com/fleetops/trailer-swap-api/internal/payment"
	"github.com/fleetops/trailer-swap-api/internal/repository"
	apperrors "github.com/fleetops/trailer-swap-api/pkg/errors"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
)

// MoveService drives the move lifecycle: created -> assigned -> in_transit
// -> delivered -> documentation_pending -> completed, with cancellation from
// any non-terminal state. Every transition is a single transaction covering
// the move row, the affected trailer rows, and the outbox event, so a
// failed transition leaves nothing half-applied.
type MoveService struct {
	moves    MoveStore
	trailers TrailerStore
	drivers  DriverStore
	outbox   OutboxStore
	resolver DistanceResolver
	payCfg   config.PaymentConfig
	logger   logger.Logger
}

// NewMoveService creates a new MoveService
func NewMoveService(
	moves MoveStore,
	trailers TrailerStore,
	drivers DriverStore,
	outbox OutboxStore,
	resolver DistanceResolver,
	payCfg config.PaymentConfig,
	logger logger.Logger,
) *MoveService {
	return &MoveService{
		moves:    moves,
		trailers: trailers,
		drivers:  drivers,
		outbox:   outbox,
		resolver: resolver,
		payCfg:   payCfg,
		logger:   logger,
	}
}

// CreateMoveParams are the inputs for creating a move
type CreateMoveParams struct {
	NewTrailer  string `json:"new_trailer"`
	OldTrailer  string `json:"old_trailer"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// CreateMove validates the trailer pairing and records a new move. Mileage
// resolution is best-effort: when the distance service can't answer, the
// move is created without miles and the operator enters them manually.
func (s *MoveService) CreateMove(ctx context.Context, params CreateMoveParams) (*models.Move, error) {
	if params.NewTrailer == "" || params.OldTrailer == "" {
		return nil, apperrors.NewInvalidInputError("both new and old trailer numbers are required")
	}

	if params.NewTrailer == params.OldTrailer {
		return nil, apperrors.NewInvalidInputError("a move must pair two distinct trailers")
	}

	if params.Origin == "" || params.Destination == "" {
		return nil, apperrors.NewInvalidInputError("origin and destination are required")
	}

	newTrailer, err := s.trailers.GetByNumber(ctx, params.NewTrailer)

	if err != nil {
		return nil, err
	}

	if newTrailer.Category != models.TrailerCategoryNew {
		return nil, apperrors.NewInvalidInputError(
			fmt.Sprintf("trailer %q is not a new trailer", params.NewTrailer))
	}

	oldTrailer, err := s.trailers.GetByNumber(ctx, params.OldTrailer)

	if err != nil {
		return nil, err
	}

	if oldTrailer.Category != models.TrailerCategoryOld {
		return nil, apperrors.NewInvalidInputError(
			fmt.Sprintf("trailer %q is not an old trailer", params.OldTrailer))
	}

	move := models.NewMove(params.NewTrailer, params.OldTrailer, params.Origin, params.Destination)

	if miles, resolveErr := s.resolver.Resolve(ctx, params.Origin, params.Destination); resolveErr == nil {
		move.OneWayMiles = &miles
	} else {
		s.logger.Warn("Mileage not resolved at move creation, awaiting manual entry",
			"error", resolveErr,
			"moveID", move.ID,
			"origin", params.Origin,
			"destination", params.Destination)
	}

	outboxMsg, err := models.NewMoveCreatedEvent(move)

	if err != nil {
		return nil, fmt.Errorf("failed to create outbox message: %w", err)
	}

	tx, err := s.moves.BeginTx(ctx)

	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction", "error", rbErr)
			}
		}
	}()

	if err = s.moves.CreateInTx(tx, move); err != nil {
		return nil, err
	}

	if err = s.outbox.CreateInTx(tx, outboxMsg); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Move created",
		"moveID", move.ID,
		"newTrailer", move.NewTrailer,
		"oldTrailer", move.OldTrailer)
	return move, nil
}

// GetMove retrieves a move by ID
func (s *MoveService) GetMove(ctx context.Context, id string) (*models.Move, error) {
	return s.moves.GetByID(ctx, id)
}

// ListMoves lists moves filtered by status and driver
func (s *MoveService) ListMoves(ctx context.Context, status, driverID string, limit, offset int) ([]*models.Move, error) {
	return s.moves.List(ctx, status, driverID, limit, offset)
}

// SetMiles records a manually entered one-way distance on a move that is
// still awaiting one.
func (s *MoveService) SetMiles(ctx context.Context, moveID string, miles float64) (*models.Move, error) {
	if miles <= 0 {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("miles must be positive, got %v", miles))
	}

	return s.update(ctx, moveID, nil, func(move *models.Move) error {
		if move.Status.IsTerminal() {
			return apperrors.NewInvalidTransitionError(
				fmt.Sprintf("move %q is %s; mileage can no longer change", moveID, move.Status))
		}
		move.OneWayMiles = &miles
		return nil
	})
}

// AssignDriver moves created -> assigned. Both trailers are claimed
// atomically inside the transaction: a trailer already attached to another
// open move makes the claim fail and the whole transition roll back.
func (s *MoveService) AssignDriver(ctx context.Context, moveID, driverID string) (*models.Move, error) {
	if driverID == "" {
		return nil, apperrors.NewInvalidInputError("driver_id is required")
	}

	driver, err := s.drivers.GetByID(ctx, driverID)

	if err != nil {
		return nil, err
	}

	if !driver.Active {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("driver %q is not active", driver.Name))
	}

	return s.transition(ctx, moveID, models.MoveStatusAssigned,
		func(move *models.Move) error {
			move.DriverID = &driverID
			return nil
		},
		func(tx repository.Tx, move *models.Move) error {
			if err := s.trailers.ClaimInTx(tx, move.NewTrailer); err != nil {
				return err
			}
			return s.trailers.ClaimInTx(tx, move.OldTrailer)
		})
}

// Dispatch moves assigned -> in_transit
func (s *MoveService) Dispatch(ctx context.Context, moveID string) (*models.Move, error) {
	return s.transition(ctx, moveID, models.MoveStatusInTransit, nil,
		func(tx repository.Tx, move *models.Move) error {
			if err := s.trailers.SetStatusInTx(tx, move.NewTrailer, models.TrailerStatusInTransit); err != nil {
				return err
			}
			return s.trailers.SetStatusInTx(tx, move.OldTrailer, models.TrailerStatusInTransit)
		})
}

// Deliver moves in_transit -> delivered and immediately advances to
// documentation_pending in the same transaction. The swap lands here: the
// new trailer is dropped (delivered) and the old one is picked up, making
// it available again.
func (s *MoveService) Deliver(ctx context.Context, moveID string) (*models.Move, error) {
	move, err := s.moves.GetByID(ctx, moveID)

	if err != nil {
		return nil, err
	}

	if !move.Status.CanTransitionTo(models.MoveStatusDelivered) {
		return nil, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("move %q cannot go from %s to %s", moveID, move.Status, models.MoveStatusDelivered))
	}

	deliveredEvent, err := models.NewMoveStatusChangedEvent(
		&models.Move{ID: move.ID, NewTrailer: move.NewTrailer, OldTrailer: move.OldTrailer, Status: models.MoveStatusDelivered},
		move.Status)

	if err != nil {
		return nil, fmt.Errorf("failed to create outbox message: %w", err)
	}

	tx, err := s.moves.BeginTx(ctx)

	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction", "error", rbErr)
			}
		}
	}()

	if err = s.trailers.SetStatusInTx(tx, move.NewTrailer, models.TrailerStatusDelivered); err != nil {
		return nil, err
	}

	if err = s.trailers.SetStatusInTx(tx, move.OldTrailer, models.TrailerStatusAvailable); err != nil {
		return nil, err
	}

	// delivered -> documentation_pending is automatic; the stored status
	// skips straight to documentation_pending but both transitions are
	// announced.
	move.Status = models.MoveStatusDocumentationPending

	pendingEvent, err := models.NewMoveStatusChangedEvent(move, models.MoveStatusDelivered)

	if err != nil {
		return nil, fmt.Errorf("failed to create outbox message: %w", err)
	}

	if err = s.moves.UpdateInTx(tx, move); err != nil {
		return nil, err
	}

	if err = s.outbox.CreateInTx(tx, deliveredEvent); err != nil {
		return nil, err
	}

	if err = s.outbox.CreateInTx(tx, pendingEvent); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Move delivered, documentation pending",
		"moveID", move.ID,
		"newTrailer", move.NewTrailer,
		"oldTrailer", move.OldTrailer)
	return move, nil
}

// AttachPOD records the proof-of-delivery document reference. The contents
// are opaque here; only the reference and upload time are stored.
func (s *MoveService) AttachPOD(ctx context.Context, moveID, docRef string) (*models.Move, error) {
	if docRef == "" {
		return nil, apperrors.NewInvalidInputError("doc_ref is required")
	}

	return s.update(ctx, moveID, nil, func(move *models.Move) error {
		if move.Status != models.MoveStatusDocumentationPending {
			return apperrors.NewInvalidTransitionError(
				fmt.Sprintf("move %q is %s; documentation is only accepted after delivery", moveID, move.Status))
		}
		now := models.GetCurrentTime()
		move.PODDocRef = &docRef
		move.PODUploadedAt = &now
		return nil
	})
}

// ComputePayment calculates and records the pay breakdown for a delivered
// move using the configured rate and factoring fee. Recomputing with the
// same inputs yields the same figures.
func (s *MoveService) ComputePayment(ctx context.Context, moveID string) (*models.Move, error) {
	var event *models.OutboxMessage

	move, err := s.update(ctx, moveID, func(move *models.Move) (*models.OutboxMessage, error) {
		return event, nil
	}, func(move *models.Move) error {
		if move.Status != models.MoveStatusDocumentationPending {
			return apperrors.NewInvalidTransitionError(
				fmt.Sprintf("move %q is %s; payment is computed after delivery", moveID, move.Status))
		}

		if !move.MileageResolved() {
			return apperrors.NewMileageUnresolvedError(
				fmt.Sprintf("move %q has no mileage; resolve or enter it manually first", moveID))
		}

		breakdown, err := payment.Compute(*move.OneWayMiles, s.payCfg.RatePerMile, s.payCfg.FactoringFeePct)

		if err != nil {
			return err
		}

		move.GrossPay = &breakdown.Gross
		move.FactoringFee = &breakdown.Fee
		move.NetPay = &breakdown.Net

		event, err = models.NewPaymentComputedEvent(move)
		return err
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment computed",
		"moveID", move.ID,
		"gross", *move.GrossPay,
		"fee", *move.FactoringFee,
		"net", *move.NetPay)
	return move, nil
}

// Complete moves documentation_pending -> completed. Requires the POD
// reference and a computed payment; a missing precondition fails the
// transition with a message naming it.
func (s *MoveService) Complete(ctx context.Context, moveID string) (*models.Move, error) {
	return s.transition(ctx, moveID, models.MoveStatusCompleted,
		func(move *models.Move) error {
			if !move.HasPOD() {
				return apperrors.NewInvalidTransitionError(
					fmt.Sprintf("move %q cannot complete: proof-of-delivery document is missing", moveID))
			}
			if !move.PaymentComputed() {
				return apperrors.NewInvalidTransitionError(
					fmt.Sprintf("move %q cannot complete: payment has not been computed", moveID))
			}
			return nil
		}, nil)
}

// Cancel aborts a move from any non-terminal state and releases both
// trailers back to available.
func (s *MoveService) Cancel(ctx context.Context, moveID string) (*models.Move, error) {
	return s.transition(ctx, moveID, models.MoveStatusCancelled, nil,
		func(tx repository.Tx, move *models.Move) error {
			if err := s.trailers.SetStatusInTx(tx, move.NewTrailer, models.TrailerStatusAvailable); err != nil {
				return err
			}
			return s.trailers.SetStatusInTx(tx, move.OldTrailer, models.TrailerStatusAvailable)
		})
}

// MarkPaid flags a completed move's payout as settled
func (s *MoveService) MarkPaid(ctx context.Context, moveID string) (*models.Move, error) {
	return s.update(ctx, moveID, nil, func(move *models.Move) error {
		if move.Status != models.MoveStatusCompleted {
			return apperrors.NewInvalidTransitionError(
				fmt.Sprintf("move %q is %s; only completed moves can be marked paid", moveID, move.Status))
		}
		move.Paid = true
		return nil
	})
}

// transition performs a lifecycle transition: validate against the
// transition table, apply prepare to the in-memory move, run the trailer
// side effects, write the move optimistically, and append the status event.
// All of it commits or none of it does.
func (s *MoveService) transition(
	ctx context.Context,
	moveID string,
	target models.MoveStatus,
	prepare func(move *models.Move) error,
	effects func(tx repository.Tx, move *models.Move) error,
) (*models.Move, error) {
	move, err := s.moves.GetByID(ctx, moveID)

	if err != nil {
		return nil, err
	}

	if !move.Status.CanTransitionTo(target) {
		return nil, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("move %q cannot go from %s to %s", moveID, move.Status, target))
	}

	if prepare != nil {
		if err = prepare(move); err != nil {
			return nil, err
		}
	}

	oldStatus := move.Status
	move.Status = target

	outboxMsg, err := models.NewMoveStatusChangedEvent(move, oldStatus)

	if err != nil {
		return nil, fmt.Errorf("failed to create outbox message: %w", err)
	}

	tx, err := s.moves.BeginTx(ctx)

	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction", "error", rbErr)
			}
		}
	}()

	if effects != nil {
		if err = effects(tx, move); err != nil {
			return nil, err
		}
	}

	if err = s.moves.UpdateInTx(tx, move); err != nil {
		return nil, err
	}

	if err = s.outbox.CreateInTx(tx, outboxMsg); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Move transitioned",
		"moveID", move.ID,
		"from", oldStatus,
		"to", target)
	return move, nil
}

// update mutates a move's fields without changing its lifecycle state,
// still under the optimistic version guard.
func (s *MoveService) update(
	ctx context.Context,
	moveID string,
	makeEvent func(move *models.Move) (*models.OutboxMessage, error),
	mutate func(move *models.Move) error,
) (*models.Move, error) {
	move, err := s.moves.GetByID(ctx, moveID)

	if err != nil {
		return nil, err
	}

	if err = mutate(move); err != nil {
		return nil, err
	}

	var outboxMsg *models.OutboxMessage

	if makeEvent != nil {
		if outboxMsg, err = makeEvent(move); err != nil {
			return nil, fmt.Errorf("failed to create outbox message: %w", err)
		}
	}

	tx, err := s.moves.BeginTx(ctx)

	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction", "error", rbErr)
			}
		}
	}()

	if err = s.moves.UpdateInTx(tx, move); err != nil {
		return nil, err
	}

	if outboxMsg != nil {
		if err = s.outbox.CreateInTx(tx, outboxMsg); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return move, nil
}
