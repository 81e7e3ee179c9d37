// Package mileage resolves one-way distances between locations, caching
// every answer so the external distance service is asked at most once per
// location pair.
package mileage

import (
	"context"
	"errors"
	"fmt"

	"github.com/fleetops/trailer-swap-api/internal/models"
	apperrors "github.com/fleetops/trailer-swap-api/pkg/errors"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
)

// DistanceClient queries the external distance-lookup service
type DistanceClient interface {
	Query(ctx context.Context, origin, destination string) (float64, error)
}

// CacheStore persists resolved distances keyed by canonical location pair
type CacheStore interface {
	Get(ctx context.Context, from, to string) (*models.MileageCacheEntry, error)
	Put(ctx context.Context, entry *models.MileageCacheEntry) error
}

// AddressDirectory maps a location title to the full street address fed to
// the distance service. Optional; when a title is unknown the title itself
// is used.
type AddressDirectory interface {
	FullAddress(ctx context.Context, title string) (string, error)
}

// Resolver answers one-way distance questions. The cache is authoritative:
// once a pair has a value (looked up or manually entered) the external
// service is not consulted again for it.
type Resolver struct {
	cache     CacheStore
	client    DistanceClient
	directory AddressDirectory
	logger    logger.Logger
}

// NewResolver creates a resolver. directory may be nil.
func NewResolver(cache CacheStore, client DistanceClient, directory AddressDirectory, logger logger.Logger) *Resolver {
	return &Resolver{
		cache:     cache,
		client:    client,
		directory: directory,
		logger:    logger,
	}
}

// Resolve returns the one-way distance between two locations. The pair is
// unordered: Resolve(A, B) and Resolve(B, A) hit the same cache entry.
// An external-service failure surfaces as MileageUnresolved so the caller
// can fall back to manual entry; nothing retries here beyond what the
// client does internally.
func (r *Resolver) Resolve(ctx context.Context, origin, destination string) (float64, error) {
	if origin == "" || destination == "" {
		return 0, apperrors.NewInvalidInputError("origin and destination are required")
	}

	from, to := models.NormalizePair(origin, destination)

	entry, err := r.cache.Get(ctx, from, to)

	if err == nil {
		r.logger.Debug("Mileage cache hit", "from", from, "to", to, "miles", entry.Miles)
		return entry.Miles, nil
	}

	if !errors.Is(err, apperrors.ErrNotFound) {
		return 0, fmt.Errorf("mileage cache lookup failed: %w", err)
	}

	miles, err := r.client.Query(ctx, r.address(ctx, origin), r.address(ctx, destination))

	if err != nil {
		r.logger.Warn("Distance lookup failed",
			"error", err,
			"origin", origin,
			"destination", destination)
		return 0, apperrors.NewMileageUnresolvedError(
			fmt.Sprintf("could not resolve distance from %q to %q; enter it manually", origin, destination))
	}

	if putErr := r.cache.Put(ctx, &models.MileageCacheEntry{
		FromLocation: from,
		ToLocation:   to,
		Miles:        miles,
		Source:       models.MileageSourceCalculated,
		CachedAt:     models.GetCurrentTime(),
	}); putErr != nil {
		// The distance is still good; only the cache write failed
		r.logger.Error("Failed to cache resolved mileage", "error", putErr, "from", from, "to", to)
	}

	r.logger.Info("Resolved mileage", "from", from, "to", to, "miles", miles)
	return miles, nil
}

// Override records a manually entered distance for a pair. Manual entries
// win over later external lookups because the cache is checked first.
func (r *Resolver) Override(ctx context.Context, origin, destination string, miles float64) error {
	if origin == "" || destination == "" {
		return apperrors.NewInvalidInputError("origin and destination are required")
	}

	if miles <= 0 {
		return apperrors.NewInvalidInputError(fmt.Sprintf("miles must be positive, got %v", miles))
	}

	from, to := models.NormalizePair(origin, destination)

	err := r.cache.Put(ctx, &models.MileageCacheEntry{
		FromLocation: from,
		ToLocation:   to,
		Miles:        miles,
		Source:       models.MileageSourceManual,
		CachedAt:     models.GetCurrentTime(),
	})

	if err != nil {
		return fmt.Errorf("failed to store manual mileage: %w", err)
	}

	r.logger.Info("Manual mileage recorded", "from", from, "to", to, "miles", miles)
	return nil
}

func (r *Resolver) address(ctx context.Context, title string) string {
	if r.directory == nil {
		return title
	}

	addr, err := r.directory.FullAddress(ctx, title)

	if err != nil || addr == "" {
		return title
	}

	return addr
}
