package mileage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/trailer-swap-api/internal/models"
	apperrors "github.com/fleetops/trailer-swap-api/pkg/errors"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
)

type fakeCache struct {
	entries map[string]*models.MileageCacheEntry
	putErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*models.MileageCacheEntry)}
}

func (c *fakeCache) Get(ctx context.Context, from, to string) (*models.MileageCacheEntry, error) {
	entry, ok := c.entries[from+"|"+to]

	if !ok {
		return nil, apperrors.NewNotFoundError("no cached mileage")
	}

	return entry, nil
}

func (c *fakeCache) Put(ctx context.Context, entry *models.MileageCacheEntry) error {
	if c.putErr != nil {
		return c.putErr
	}

	c.entries[entry.FromLocation+"|"+entry.ToLocation] = entry
	return nil
}

type fakeClient struct {
	miles float64
	err   error
	calls int
}

func (c *fakeClient) Query(ctx context.Context, origin, destination string) (float64, error) {
	c.calls++

	if c.err != nil {
		return 0, c.err
	}

	return c.miles, nil
}

func TestResolveCachesLookup(t *testing.T) {
	cache := newFakeCache()
	client := &fakeClient{miles: 412.5}
	resolver := NewResolver(cache, client, nil, logger.NewNopLogger())

	miles, err := resolver.Resolve(context.Background(), "Dallas Yard", "Fort Worth Yard")
	require.NoError(t, err)
	assert.Equal(t, 412.5, miles)
	assert.Equal(t, 1, client.calls)

	// Second resolve answers from the cache
	miles, err = resolver.Resolve(context.Background(), "Dallas Yard", "Fort Worth Yard")
	require.NoError(t, err)
	assert.Equal(t, 412.5, miles)
	assert.Equal(t, 1, client.calls)
}

func TestResolveDirectionIndependent(t *testing.T) {
	cache := newFakeCache()
	client := &fakeClient{miles: 289.0}
	resolver := NewResolver(cache, client, nil, logger.NewNopLogger())

	forward, err := resolver.Resolve(context.Background(), "Atlanta", "Nashville")
	require.NoError(t, err)

	// Reversed pair hits the same cache entry, no second lookup
	reverse, err := resolver.Resolve(context.Background(), "Nashville", "Atlanta")
	require.NoError(t, err)

	assert.Equal(t, forward, reverse)
	assert.Equal(t, 1, client.calls)
}

func TestResolveUnresolvedOnClientFailure(t *testing.T) {
	cache := newFakeCache()
	client := &fakeClient{err: apperrors.NewServiceUnavailableError("distance service down")}
	resolver := NewResolver(cache, client, nil, logger.NewNopLogger())

	_, err := resolver.Resolve(context.Background(), "Atlanta", "Nashville")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMileageUnresolved))
}

func TestResolveRequiresBothLocations(t *testing.T) {
	resolver := NewResolver(newFakeCache(), &fakeClient{}, nil, logger.NewNopLogger())

	_, err := resolver.Resolve(context.Background(), "", "Nashville")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestOverrideWinsOverLookup(t *testing.T) {
	cache := newFakeCache()
	client := &fakeClient{miles: 500}
	resolver := NewResolver(cache, client, nil, logger.NewNopLogger())

	require.NoError(t, resolver.Override(context.Background(), "Atlanta", "Nashville", 250))

	miles, err := resolver.Resolve(context.Background(), "Nashville", "Atlanta")
	require.NoError(t, err)
	assert.Equal(t, 250.0, miles)
	assert.Equal(t, 0, client.calls)
}

func TestOverrideRejectsNonPositiveMiles(t *testing.T) {
	resolver := NewResolver(newFakeCache(), &fakeClient{}, nil, logger.NewNopLogger())

	err := resolver.Override(context.Background(), "Atlanta", "Nashville", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	err = resolver.Override(context.Background(), "Atlanta", "Nashville", -10)
	require.Error(t, err)
}

func TestOverrideRecordsManualSource(t *testing.T) {
	cache := newFakeCache()
	resolver := NewResolver(cache, &fakeClient{}, nil, logger.NewNopLogger())

	require.NoError(t, resolver.Override(context.Background(), "B Yard", "A Yard", 120))

	from, to := models.NormalizePair("B Yard", "A Yard")
	entry, err := cache.Get(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, models.MileageSourceManual, entry.Source)
	assert.Equal(t, 120.0, entry.Miles)
}

type fakeDirectory struct {
	addresses map[string]string
}

func (d *fakeDirectory) FullAddress(ctx context.Context, title string) (string, error) {
	addr, ok := d.addresses[title]

	if !ok {
		return "", apperrors.NewNotFoundError("unknown location")
	}

	return addr, nil
}

type recordingClient struct {
	origins      []string
	destinations []string
}

func (c *recordingClient) Query(ctx context.Context, origin, destination string) (float64, error) {
	c.origins = append(c.origins, origin)
	c.destinations = append(c.destinations, destination)
	return 100, nil
}

func TestResolveUsesDirectoryAddresses(t *testing.T) {
	client := &recordingClient{}
	directory := &fakeDirectory{addresses: map[string]string{
		"Dallas Yard": "100 Commerce St, Dallas, TX, 75201",
	}}
	resolver := NewResolver(newFakeCache(), client, directory, logger.NewNopLogger())

	_, err := resolver.Resolve(context.Background(), "Dallas Yard", "Unknown Stop")
	require.NoError(t, err)

	require.Len(t, client.origins, 1)
	assert.Equal(t, "100 Commerce St, Dallas, TX, 75201", client.origins[0])
	// Unknown titles fall back to the title itself
	assert.Equal(t, "Unknown Stop", client.destinations[0])
}
