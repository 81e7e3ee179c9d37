package service

import (
	"context"
	"fmt"

	"github.com/fleetops/trailer-swap-api/internal/models"
	apperrors "github.com/fleetops/trailer-swap-api/pkg/errors"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
)

// TrailerService handles trailer registry operations
type TrailerService struct {
	trailers TrailerStore
	logger   logger.Logger
}

// NewTrailerService creates a new TrailerService
func NewTrailerService(trailers TrailerStore, logger logger.Logger) *TrailerService {
	return &TrailerService{
		trailers: trailers,
		logger:   logger,
	}
}

// RegisterTrailerParams are the inputs for registering a trailer
type RegisterTrailerParams struct {
	TrailerNumber   string `json:"trailer_number"`
	Category        string `json:"category"`
	CurrentLocation string `json:"current_location"`
	Notes           string `json:"notes"`
}

// RegisterTrailer adds a trailer to the registry. Trailer numbers are the
// identity; registering a number twice fails with a duplicate error.
func (s *TrailerService) RegisterTrailer(ctx context.Context, params RegisterTrailerParams) (*models.Trailer, error) {
	if params.TrailerNumber == "" {
		return nil, apperrors.NewInvalidInputError("trailer_number is required")
	}

	category := models.TrailerCategory(params.Category)

	if !category.Valid() {
		return nil, apperrors.NewInvalidInputError(
			fmt.Sprintf("category must be %q or %q, got %q",
				models.TrailerCategoryNew, models.TrailerCategoryOld, params.Category))
	}

	trailer := models.NewTrailer(params.TrailerNumber, category, params.CurrentLocation, params.Notes)

	if err := s.trailers.Add(ctx, trailer); err != nil {
		return nil, err
	}

	s.logger.Info("Trailer registered",
		"trailerNumber", trailer.TrailerNumber,
		"category", trailer.Category)
	return trailer, nil
}

// GetTrailer retrieves a trailer by number
func (s *TrailerService) GetTrailer(ctx context.Context, number string) (*models.Trailer, error) {
	return s.trailers.GetByNumber(ctx, number)
}

// ListTrailers lists trailers filtered by status and category
func (s *TrailerService) ListTrailers(ctx context.Context, status, category string, limit, offset int) ([]*models.Trailer, error) {
	if status != "" && !models.TrailerStatus(status).Valid() {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown trailer status %q", status))
	}

	if category != "" && !models.TrailerCategory(category).Valid() {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown trailer category %q", category))
	}

	return s.trailers.List(ctx, status, category, limit, offset)
}

// SetTrailerStatus overrides a trailer's status. This is an operator
// escape hatch; normal status changes happen through move transitions.
func (s *TrailerService) SetTrailerStatus(ctx context.Context, number, status string) error {
	trailerStatus := models.TrailerStatus(status)

	if !trailerStatus.Valid() {
		return apperrors.NewInvalidInputError(fmt.Sprintf("unknown trailer status %q", status))
	}

	if err := s.trailers.SetStatus(ctx, number, trailerStatus); err != nil {
		return err
	}

	s.logger.Info("Trailer status overridden",
		"trailerNumber", number,
		"status", status)
	return nil
}
