package service

import (
	"context"

	"github.com/fleetops/trailer-swap-api/internal/models"
	"github.com/fleetops/trailer-swap-api/internal/repository"
)

// Narrow store interfaces the services depend on. The repository types
// satisfy them; tests substitute in-memory fakes.

// MoveStore persists moves
type MoveStore interface {
	BeginTx(ctx context.Context) (repository.Tx, error)
	GetByID(ctx context.Context, id string) (*models.Move, error)
	List(ctx context.Context, status, driverID string, limit, offset int) ([]*models.Move, error)
	CreateInTx(tx repository.Tx, move *models.Move) error
	UpdateInTx(tx repository.Tx, move *models.Move) error
}

// TrailerStore persists trailers
type TrailerStore interface {
	Add(ctx context.Context, trailer *models.Trailer) error
	GetByNumber(ctx context.Context, number string) (*models.Trailer, error)
	List(ctx context.Context, status, category string, limit, offset int) ([]*models.Trailer, error)
	SetStatus(ctx context.Context, number string, status models.TrailerStatus) error
	ClaimInTx(tx repository.Tx, number string) error
	SetStatusInTx(tx repository.Tx, number string, status models.TrailerStatus) error
}

// DriverStore reads drivers
type DriverStore interface {
	GetByID(ctx context.Context, id string) (*models.Driver, error)
}

// OutboxStore appends lifecycle events inside the mutating transaction
type OutboxStore interface {
	CreateInTx(tx repository.Tx, message *models.OutboxMessage) error
}

// DistanceResolver answers one-way mileage questions
type DistanceResolver interface {
	Resolve(ctx context.Context, origin, destination string) (float64, error)
}
