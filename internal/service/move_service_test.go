package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/trailer-swap-api/internal/config"
	"github.com/fleetops/trailer-swap-api/internal/models"
	"github.com/fleetops/trailer-swap-api/internal/repository"
	apperrors "github.com/fleetops/trailer-swap-api/pkg/errors"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. Writes
// inside a transaction are buffered and applied on Commit, so a failed
// transition leaves the store untouched just like a rolled-back transaction.
type fakeStore struct {
	mu       sync.Mutex
	moves    map[string]*models.Move
	trailers map[string]*models.Trailer
	drivers  map[string]*models.Driver
	outbox   []*models.OutboxMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		moves:    make(map[string]*models.Move),
		trailers: make(map[string]*models.Trailer),
		drivers:  make(map[string]*models.Driver),
	}
}

type fakeTx struct {
	store *fakeStore
	ops   []func()
}

func (t *fakeTx) Commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for _, op := range t.ops {
		op()
	}

	t.ops = nil
	return nil
}

func (t *fakeTx) Rollback() error {
	t.ops = nil
	return nil
}

func copyMove(m *models.Move) *models.Move {
	c := *m
	return &c
}

func (s *fakeStore) BeginTx(ctx context.Context) (repository.Tx, error) {
	return &fakeTx{store: s}, nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*models.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	move, ok := s.moves[id]

	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("move %q not found", id))
	}

	return copyMove(move), nil
}

func (s *fakeStore) List(ctx context.Context, status, driverID string, limit, offset int) ([]*models.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Move

	for _, move := range s.moves {
		if status != "" && string(move.Status) != status {
			continue
		}
		out = append(out, copyMove(move))
	}

	return out, nil
}

func (s *fakeStore) CreateInTx(tx repository.Tx, move *models.Move) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.moves {
		if !existing.IsOpen() {
			continue
		}
		if existing.NewTrailer == move.NewTrailer || existing.OldTrailer == move.OldTrailer {
			return apperrors.NewDuplicateKeyError("trailer already on an open move")
		}
	}

	stored := copyMove(move)
	tx.(*fakeTx).ops = append(tx.(*fakeTx).ops, func() {
		s.moves[stored.ID] = stored
	})
	return nil
}

func (s *fakeStore) UpdateInTx(tx repository.Tx, move *models.Move) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.moves[move.ID]

	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("move %q not found", move.ID))
	}

	if current.Version != move.Version {
		return apperrors.NewConcurrentModificationError(
			fmt.Sprintf("move %q was modified concurrently", move.ID))
	}

	move.Version++
	stored := copyMove(move)
	tx.(*fakeTx).ops = append(tx.(*fakeTx).ops, func() {
		s.moves[stored.ID] = stored
	})
	return nil
}

func (s *fakeStore) Add(ctx context.Context, trailer *models.Trailer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trailers[trailer.TrailerNumber]; exists {
		return apperrors.NewDuplicateKeyError(fmt.Sprintf("trailer %q already exists", trailer.TrailerNumber))
	}

	c := *trailer
	s.trailers[trailer.TrailerNumber] = &c
	return nil
}

func (s *fakeStore) GetByNumber(ctx context.Context, number string) (*models.Trailer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trailer, ok := s.trailers[number]

	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("trailer %q not found", number))
	}

	c := *trailer
	return &c, nil
}

func (s *fakeStore) ListTrailers(ctx context.Context, status, category string, limit, offset int) ([]*models.Trailer, error) {
	return nil, nil
}

func (s *fakeStore) SetStatus(ctx context.Context, number string, status models.TrailerStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trailer, ok := s.trailers[number]

	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("trailer %q not found", number))
	}

	trailer.Status = status
	return nil
}

func (s *fakeStore) ClaimInTx(tx repository.Tx, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trailer, ok := s.trailers[number]

	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("trailer %q not found", number))
	}

	if trailer.Status != models.TrailerStatusAvailable {
		return apperrors.NewConcurrentModificationError(
			fmt.Sprintf("trailer %q is attached to another open move", number))
	}

	tx.(*fakeTx).ops = append(tx.(*fakeTx).ops, func() {
		trailer.Status = models.TrailerStatusAssigned
	})
	return nil
}

func (s *fakeStore) SetStatusInTx(tx repository.Tx, number string, status models.TrailerStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trailer, ok := s.trailers[number]

	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("trailer %q not found", number))
	}

	tx.(*fakeTx).ops = append(tx.(*fakeTx).ops, func() {
		trailer.Status = status
	})
	return nil
}

func (s *fakeStore) GetDriver(ctx context.Context, id string) (*models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	driver, ok := s.drivers[id]

	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("driver %q not found", id))
	}

	c := *driver
	return &c, nil
}

func (s *fakeStore) AppendOutboxInTx(tx repository.Tx, message *models.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx.(*fakeTx).ops = append(tx.(*fakeTx).ops, func() {
		s.outbox = append(s.outbox, message)
	})
	return nil
}

// Thin wrappers so one fakeStore can satisfy all the narrow interfaces
// without method name collisions.

type fakeTrailerStore struct{ *fakeStore }

func (s fakeTrailerStore) List(ctx context.Context, status, category string, limit, offset int) ([]*models.Trailer, error) {
	return s.ListTrailers(ctx, status, category, limit, offset)
}

type fakeDriverStore struct{ *fakeStore }

func (s fakeDriverStore) GetByID(ctx context.Context, id string) (*models.Driver, error) {
	return s.GetDriver(ctx, id)
}

type fakeOutboxStore struct{ *fakeStore }

func (s fakeOutboxStore) CreateInTx(tx repository.Tx, message *models.OutboxMessage) error {
	return s.AppendOutboxInTx(tx, message)
}

type fakeResolver struct {
	miles float64
	err   error
}

func (r *fakeResolver) Resolve(ctx context.Context, origin, destination string) (float64, error) {
	if r.err != nil {
		return 0, r.err
	}
	return r.miles, nil
}

func newTestService(store *fakeStore, resolver DistanceResolver) *MoveService {
	return NewMoveService(
		store,
		fakeTrailerStore{store},
		fakeDriverStore{store},
		fakeOutboxStore{store},
		resolver,
		config.PaymentConfig{RatePerMile: 2.10, FactoringFeePct: 0.03},
		logger.NewNopLogger(),
	)
}

func seedStore(t *testing.T, store *fakeStore) string {
	t.Helper()

	ctx := context.Background()

	require.NoError(t, store.Add(ctx, models.NewTrailer("190033", models.TrailerCategoryNew, "Dallas Yard", "")))
	require.NoError(t, store.Add(ctx, models.NewTrailer("6014", models.TrailerCategoryOld, "Atlanta Yard", "")))

	driver := models.NewDriver("R. Alvarez", "", "", true)
	store.drivers[driver.ID] = driver
	return driver.ID
}

func TestMoveLifecycle(t *testing.T) {
	store := newFakeStore()
	driverID := seedStore(t, store)
	svc := newTestService(store, &fakeResolver{miles: 466.67})
	ctx := context.Background()

	move, err := svc.CreateMove(ctx, CreateMoveParams{
		NewTrailer:  "190033",
		OldTrailer:  "6014",
		Origin:      "Dallas Yard",
		Destination: "Atlanta Yard",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MoveStatusCreated, move.Status)
	require.NotNil(t, move.OneWayMiles)
	assert.Equal(t, 466.67, *move.OneWayMiles)

	move, err = svc.AssignDriver(ctx, move.ID, driverID)
	require.NoError(t, err)
	assert.Equal(t, models.MoveStatusAssigned, move.Status)

	newTrailer, _ := store.GetByNumber(ctx, "190033")
	oldTrailer, _ := store.GetByNumber(ctx, "6014")
	assert.Equal(t, models.TrailerStatusAssigned, newTrailer.Status)
	assert.Equal(t, models.TrailerStatusAssigned, oldTrailer.Status)

	move, err = svc.Dispatch(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MoveStatusInTransit, move.Status)

	move, err = svc.Deliver(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MoveStatusDocumentationPending, move.Status)

	// The swap: new trailer dropped at the destination, old trailer free again
	newTrailer, _ = store.GetByNumber(ctx, "190033")
	oldTrailer, _ = store.GetByNumber(ctx, "6014")
	assert.Equal(t, models.TrailerStatusDelivered, newTrailer.Status)
	assert.Equal(t, models.TrailerStatusAvailable, oldTrailer.Status)

	move, err = svc.AttachPOD(ctx, move.ID, "docs/pod/mv-001.pdf")
	require.NoError(t, err)
	assert.True(t, move.HasPOD())

	move, err = svc.ComputePayment(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, 1960.01, *move.GrossPay)
	assert.Equal(t, 58.80, *move.FactoringFee)
	assert.Equal(t, 1901.21, *move.NetPay)

	move, err = svc.Complete(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MoveStatusCompleted, move.Status)

	move, err = svc.MarkPaid(ctx, move.ID)
	require.NoError(t, err)
	assert.True(t, move.Paid)

	// created + 5 status changes (delivered counts twice) + payment
	assert.GreaterOrEqual(t, len(store.outbox), 7)
}

func TestCreateMoveValidation(t *testing.T) {
	store := newFakeStore()
	seedStore(t, store)
	svc := newTestService(store, &fakeResolver{miles: 100})
	ctx := context.Background()

	_, err := svc.CreateMove(ctx, CreateMoveParams{NewTrailer: "190033", OldTrailer: "190033", Origin: "A", Destination: "B"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	// Categories must match their slots
	_, err = svc.CreateMove(ctx, CreateMoveParams{NewTrailer: "6014", OldTrailer: "190033", Origin: "A", Destination: "B"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = svc.CreateMove(ctx, CreateMoveParams{NewTrailer: "999999", OldTrailer: "6014", Origin: "A", Destination: "B"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCreateMoveWithUnresolvedMileage(t *testing.T) {
	store := newFakeStore()
	driverID := seedStore(t, store)
	svc := newTestService(store, &fakeResolver{err: apperrors.NewMileageUnresolvedError("no route")})
	ctx := context.Background()

	move, err := svc.CreateMove(ctx, CreateMoveParams{
		NewTrailer: "190033", OldTrailer: "6014", Origin: "Dallas Yard", Destination: "Atlanta Yard",
	})
	require.NoError(t, err)
	assert.Nil(t, move.OneWayMiles)

	// Payment is blocked until the distance is entered
	_, err = svc.AssignDriver(ctx, move.ID, driverID)
	require.NoError(t, err)
	_, err = svc.Dispatch(ctx, move.ID)
	require.NoError(t, err)
	_, err = svc.Deliver(ctx, move.ID)
	require.NoError(t, err)

	_, err = svc.ComputePayment(ctx, move.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMileageUnresolved))

	move, err = svc.SetMiles(ctx, move.ID, 250)
	require.NoError(t, err)
	require.NotNil(t, move.OneWayMiles)

	move, err = svc.ComputePayment(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, 1050.0, *move.GrossPay)
	assert.Equal(t, 31.50, *move.FactoringFee)
	assert.Equal(t, 1018.50, *move.NetPay)
}

func TestAssignRejectsClaimedTrailer(t *testing.T) {
	store := newFakeStore()
	driverID := seedStore(t, store)
	svc := newTestService(store, &fakeResolver{miles: 100})
	ctx := context.Background()

	move, err := svc.CreateMove(ctx, CreateMoveParams{
		NewTrailer: "190033", OldTrailer: "6014", Origin: "A", Destination: "B",
	})
	require.NoError(t, err)

	// Another move grabbed the old trailer first
	require.NoError(t, store.SetStatus(ctx, "6014", models.TrailerStatusAssigned))

	_, err = svc.AssignDriver(ctx, move.ID, driverID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConcurrentModification))

	// Nothing committed: the move is still created and the new trailer
	// was not claimed
	current, err := svc.GetMove(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MoveStatusCreated, current.Status)

	newTrailer, _ := store.GetByNumber(ctx, "190033")
	assert.Equal(t, models.TrailerStatusAvailable, newTrailer.Status)
}

func TestAssignRequiresActiveDriver(t *testing.T) {
	store := newFakeStore()
	driverID := seedStore(t, store)
	store.drivers[driverID].Active = false
	svc := newTestService(store, &fakeResolver{miles: 100})
	ctx := context.Background()

	move, err := svc.CreateMove(ctx, CreateMoveParams{
		NewTrailer: "190033", OldTrailer: "6014", Origin: "A", Destination: "B",
	})
	require.NoError(t, err)

	_, err = svc.AssignDriver(ctx, move.ID, driverID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestIllegalTransitions(t *testing.T) {
	store := newFakeStore()
	seedStore(t, store)
	svc := newTestService(store, &fakeResolver{miles: 100})
	ctx := context.Background()

	move, err := svc.CreateMove(ctx, CreateMoveParams{
		NewTrailer: "190033", OldTrailer: "6014", Origin: "A", Destination: "B",
	})
	require.NoError(t, err)

	// created -> delivered skips assignment and transit
	_, err = svc.Deliver(ctx, move.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	// created -> in_transit skips assignment
	_, err = svc.Dispatch(ctx, move.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	// completion requires documentation
	_, err = svc.Complete(ctx, move.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
}

func TestCompleteRequiresPODAndPayment(t *testing.T) {
	store := newFakeStore()
	driverID := seedStore(t, store)
	svc := newTestService(store, &fakeResolver{miles: 100})
	ctx := context.Background()

	move, err := svc.CreateMove(ctx, CreateMoveParams{
		NewTrailer: "190033", OldTrailer: "6014", Origin: "A", Destination: "B",
	})
	require.NoError(t, err)

	_, err = svc.AssignDriver(ctx, move.ID, driverID)
	require.NoError(t, err)
	_, err = svc.Dispatch(ctx, move.ID)
	require.NoError(t, err)
	_, err = svc.Deliver(ctx, move.ID)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, move.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	_, err = svc.AttachPOD(ctx, move.ID, "docs/pod/x.pdf")
	require.NoError(t, err)

	// POD alone is not enough
	_, err = svc.Complete(ctx, move.ID)
	require.Error(t, err)

	_, err = svc.ComputePayment(ctx, move.ID)
	require.NoError(t, err)

	final, err := svc.Complete(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MoveStatusCompleted, final.Status)
}

func TestCancelReleasesTrailers(t *testing.T) {
	store := newFakeStore()
	driverID := seedStore(t, store)
	svc := newTestService(store, &fakeResolver{miles: 100})
	ctx := context.Background()

	move, err := svc.CreateMove(ctx, CreateMoveParams{
		NewTrailer: "190033", OldTrailer: "6014", Origin: "A", Destination: "B",
	})
	require.NoError(t, err)

	_, err = svc.AssignDriver(ctx, move.ID, driverID)
	require.NoError(t, err)

	move, err = svc.Cancel(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MoveStatusCancelled, move.Status)

	newTrailer, _ := store.GetByNumber(ctx, "190033")
	oldTrailer, _ := store.GetByNumber(ctx, "6014")
	assert.Equal(t, models.TrailerStatusAvailable, newTrailer.Status)
	assert.Equal(t, models.TrailerStatusAvailable, oldTrailer.Status)

	// Terminal: cannot cancel twice or resume
	_, err = svc.Cancel(ctx, move.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	_, err = svc.AssignDriver(ctx, move.ID, driverID)
	require.Error(t, err)
}

func TestMarkPaidOnlyWhenCompleted(t *testing.T) {
	store := newFakeStore()
	seedStore(t, store)
	svc := newTestService(store, &fakeResolver{miles: 100})
	ctx := context.Background()

	move, err := svc.CreateMove(ctx, CreateMoveParams{
		NewTrailer: "190033", OldTrailer: "6014", Origin: "A", Destination: "B",
	})
	require.NoError(t, err)

	_, err = svc.MarkPaid(ctx, move.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
}
