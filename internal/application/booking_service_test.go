package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-show-seat-booking/internal/config"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/show"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-show-seat-booking/internal/infrastructure/queue"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockBookingRepository implements booking.Repository
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*booking.Booking, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) FindExpiredPendingIDsForUpdate(ctx context.Context, tx transaction.Tx) ([]string, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBookingRepository) MarkFailed(ctx context.Context, tx transaction.Tx, ids []string) error {
	args := m.Called(ctx, tx, ids)
	return args.Error(0)
}

func (m *MockBookingRepository) List(ctx context.Context) ([]*booking.ListItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.ListItem), args.Error(1)
}

// MockSeatRepository implements seat.Repository
type MockSeatRepository struct {
	mock.Mock
}

func (m *MockSeatRepository) GetByShowID(ctx context.Context, showID string) ([]*seat.Seat, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) GetSeatMap(ctx context.Context, showID string) ([]seat.MapEntry, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]seat.MapEntry), args.Error(1)
}

func (m *MockSeatRepository) CountByStatus(ctx context.Context, showID string) (seat.Counts, error) {
	args := m.Called(ctx, showID)
	return args.Get(0).(seat.Counts), args.Error(1)
}

func (m *MockSeatRepository) HoldSeats(ctx context.Context, tx transaction.Tx, showID string, seatNumbers []int, bookingID string, expiresAt time.Time) ([]int, error) {
	args := m.Called(ctx, tx, showID, seatNumbers, bookingID, expiresAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockSeatRepository) BookSeats(ctx context.Context, tx transaction.Tx, showID string, seatNumbers []int, bookingID string) ([]int, error) {
	args := m.Called(ctx, tx, showID, seatNumbers, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockSeatRepository) ConfirmHeldSeats(ctx context.Context, tx transaction.Tx, bookingID string) ([]int, error) {
	args := m.Called(ctx, tx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockSeatRepository) FindValidHeldSeatNumbers(ctx context.Context, tx transaction.Tx, bookingID string) ([]int, error) {
	args := m.Called(ctx, tx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockSeatRepository) ReleaseByBookingIDs(ctx context.Context, tx transaction.Tx, bookingIDs []string) error {
	args := m.Called(ctx, tx, bookingIDs)
	return args.Error(0)
}

func (m *MockSeatRepository) ReleaseSeats(ctx context.Context, tx transaction.Tx, showID string, seatNumbers []int) error {
	args := m.Called(ctx, tx, showID, seatNumbers)
	return args.Error(0)
}

func (m *MockSeatRepository) GetByBookingID(ctx context.Context, bookingID string) ([]*seat.Seat, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

// MockShowRepository implements show.Repository
type MockShowRepository struct {
	mock.Mock
}

func (m *MockShowRepository) Create(ctx context.Context, s *show.Show) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockShowRepository) GetByID(ctx context.Context, id string) (*show.Show, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*show.Show), args.Error(1)
}

func (m *MockShowRepository) List(ctx context.Context, date *time.Time) ([]*show.ListItem, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*show.ListItem), args.Error(1)
}

func (m *MockShowRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSeatCache implements redisinfra.SeatCacheInterface
type MockSeatCache struct {
	mock.Mock
}

func (m *MockSeatCache) GetCounts(ctx context.Context, showID string) (seat.Counts, error) {
	args := m.Called(ctx, showID)
	return args.Get(0).(seat.Counts), args.Error(1)
}

func (m *MockSeatCache) SetCounts(ctx context.Context, showID string, counts seat.Counts, ttl time.Duration) error {
	args := m.Called(ctx, showID, counts, ttl)
	return args.Error(0)
}

func (m *MockSeatCache) Invalidate(ctx context.Context, showID string) error {
	args := m.Called(ctx, showID)
	return args.Error(0)
}

// MockEventPublisher implements queue.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event queue.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// === Test helper ===

type testDeps struct {
	txManager   *MockTxManager
	tx          *MockTx
	bookingRepo *MockBookingRepository
	seatRepo    *MockSeatRepository
	showRepo    *MockShowRepository
	seatCache   *MockSeatCache
	publisher   *MockEventPublisher
	service     *BookingService
}

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		HoldTTL:       2 * time.Minute,
		SweepInterval: 30 * time.Second,
		Window:        5 * 24 * time.Hour,
	}
}

func newTestDeps() *testDeps {
	txm := new(MockTxManager)
	tx := new(MockTx)
	bookingRepo := new(MockBookingRepository)
	seatRepo := new(MockSeatRepository)
	showRepo := new(MockShowRepository)
	seatCache := new(MockSeatCache)
	publisher := new(MockEventPublisher)

	service := NewBookingService(txm, bookingRepo, seatRepo, showRepo, seatCache, publisher, testBookingConfig())

	return &testDeps{
		txManager:   txm,
		tx:          tx,
		bookingRepo: bookingRepo,
		seatRepo:    seatRepo,
		showRepo:    showRepo,
		seatCache:   seatCache,
		publisher:   publisher,
		service:     service,
	}
}

func bookableShow(id string, totalSeats int) *show.Show {
	return &show.Show{
		ID:         id,
		Name:       "Test Show",
		StartTime:  time.Now().Add(24 * time.Hour),
		TotalSeats: totalSeats,
	}
}

// === Allocate ===

func TestBookingService_Allocate_HoldSuccess(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	input := AllocateInput{ShowID: "show-1", SeatNumbers: []int{1, 2, 3}, Mode: ModeHold}

	deps.showRepo.On("GetByID", ctx, "show-1").Return(bookableShow("show-1", 10), nil)
	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)

	deps.bookingRepo.On("Create", ctx, deps.tx, mock.AnythingOfType("*booking.Booking")).
		Run(func(args mock.Arguments) {
			args.Get(2).(*booking.Booking).ID = "booking-1"
		}).Return(nil)

	deps.seatRepo.On("HoldSeats", ctx, deps.tx, "show-1", []int{1, 2, 3}, "booking-1", mock.AnythingOfType("time.Time")).
		Return([]int{1, 2, 3}, nil)

	deps.seatCache.On("Invalidate", ctx, "show-1").Return(nil)
	deps.publisher.On("Publish", ctx, mock.AnythingOfType("queue.BookingEvent")).Return(nil)

	// Execute
	result, err := deps.service.Allocate(ctx, input)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "booking-1", result.BookingID)
	assert.Equal(t, booking.StatusPending, result.Status)
	assert.Equal(t, []int{1, 2, 3}, result.ClaimedSeats)
	require.NotNil(t, result.HoldExpiresAt)
	assert.WithinDuration(t, time.Now().Add(2*time.Minute), *result.HoldExpiresAt, 5*time.Second)

	deps.txManager.AssertExpectations(t)
	deps.bookingRepo.AssertExpectations(t)
	deps.seatRepo.AssertExpectations(t)
	deps.seatCache.AssertExpectations(t)
}

func TestBookingService_Allocate_ConfirmSuccess(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	input := AllocateInput{ShowID: "show-1", SeatNumbers: []int{5, 6}, Mode: ModeConfirm}

	deps.showRepo.On("GetByID", ctx, "show-1").Return(bookableShow("show-1", 10), nil)
	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)

	deps.bookingRepo.On("Create", ctx, deps.tx, mock.AnythingOfType("*booking.Booking")).
		Run(func(args mock.Arguments) {
			args.Get(2).(*booking.Booking).ID = "booking-1"
		}).Return(nil)

	deps.seatRepo.On("BookSeats", ctx, deps.tx, "show-1", []int{5, 6}, "booking-1").
		Return([]int{5, 6}, nil)

	deps.bookingRepo.On("UpdateStatus", ctx, deps.tx, mock.MatchedBy(func(b *booking.Booking) bool {
		return b.Status == booking.StatusConfirmed
	})).Return(nil)

	deps.seatCache.On("Invalidate", ctx, "show-1").Return(nil)
	deps.publisher.On("Publish", ctx, mock.AnythingOfType("queue.BookingEvent")).Return(nil)

	// Execute
	result, err := deps.service.Allocate(ctx, input)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, result.Status)
	assert.Equal(t, []int{5, 6}, result.ClaimedSeats)
	assert.Nil(t, result.HoldExpiresAt)

	deps.bookingRepo.AssertExpectations(t)
	deps.seatRepo.AssertExpectations(t)
}

func TestBookingService_Allocate_Shortfall(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	input := AllocateInput{ShowID: "show-1", SeatNumbers: []int{1, 2, 3}, Mode: ModeHold}

	deps.showRepo.On("GetByID", ctx, "show-1").Return(bookableShow("show-1", 10), nil)
	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)

	deps.bookingRepo.On("Create", ctx, deps.tx, mock.AnythingOfType("*booking.Booking")).
		Run(func(args mock.Arguments) {
			args.Get(2).(*booking.Booking).ID = "booking-1"
		}).Return(nil)

	// Seat 2 is taken by a competitor: only 1 and 3 transition
	deps.seatRepo.On("HoldSeats", ctx, deps.tx, "show-1", []int{1, 2, 3}, "booking-1", mock.AnythingOfType("time.Time")).
		Return([]int{1, 3}, nil)

	// Claimed seats are released in the same transaction
	deps.seatRepo.On("ReleaseSeats", ctx, deps.tx, "show-1", []int{1, 3}).Return(nil)

	deps.bookingRepo.On("UpdateStatus", ctx, deps.tx, mock.MatchedBy(func(b *booking.Booking) bool {
		return b.Status == booking.StatusFailed
	})).Return(nil)

	deps.seatCache.On("Invalidate", ctx, "show-1").Return(nil)
	deps.publisher.On("Publish", ctx, mock.AnythingOfType("queue.BookingEvent")).Return(nil)

	// Execute
	result, err := deps.service.Allocate(ctx, input)

	// Assert: no error, booking row remains as FAILED
	require.NoError(t, err)
	assert.Equal(t, booking.StatusFailed, result.Status)
	assert.Equal(t, []int{1, 3}, result.ClaimedSeats)
	assert.Nil(t, result.HoldExpiresAt)

	deps.seatRepo.AssertExpectations(t)
	deps.bookingRepo.AssertExpectations(t)
}

func TestBookingService_Allocate_InvalidMode(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	result, err := deps.service.Allocate(ctx, AllocateInput{ShowID: "show-1", SeatNumbers: []int{1}, Mode: "reserve"})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrInvalidAllocationMode))
	deps.txManager.AssertNotCalled(t, "Begin")
}

func TestBookingService_Allocate_EmptySeatNumbers(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	result, err := deps.service.Allocate(ctx, AllocateInput{ShowID: "show-1", SeatNumbers: nil, Mode: ModeHold})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, seat.ErrSeatNumbersRequired))
}

func TestBookingService_Allocate_DuplicateSeatNumbers(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	result, err := deps.service.Allocate(ctx, AllocateInput{ShowID: "show-1", SeatNumbers: []int{1, 2, 1}, Mode: ModeHold})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, seat.ErrDuplicateSeatNumbers))
	deps.txManager.AssertNotCalled(t, "Begin")
}

func TestBookingService_Allocate_SeatNumberOutOfRange(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.showRepo.On("GetByID", ctx, "show-1").Return(bookableShow("show-1", 10), nil)

	result, err := deps.service.Allocate(ctx, AllocateInput{ShowID: "show-1", SeatNumbers: []int{1, 11}, Mode: ModeHold})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, seat.ErrSeatNumberOutOfRange))
	deps.txManager.AssertNotCalled(t, "Begin")
}

func TestBookingService_Allocate_ShowNotFound(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.showRepo.On("GetByID", ctx, "missing").Return(nil, show.ErrShowNotFound)

	result, err := deps.service.Allocate(ctx, AllocateInput{ShowID: "missing", SeatNumbers: []int{1}, Mode: ModeHold})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, show.ErrShowNotFound))
}

func TestBookingService_Allocate_OutsideBookingWindow(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	// Show already started
	pastShow := &show.Show{
		ID:         "show-1",
		Name:       "Past Show",
		StartTime:  time.Now().Add(-1 * time.Hour),
		TotalSeats: 10,
	}
	deps.showRepo.On("GetByID", ctx, "show-1").Return(pastShow, nil)

	result, err := deps.service.Allocate(ctx, AllocateInput{ShowID: "show-1", SeatNumbers: []int{1}, Mode: ModeHold})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, show.ErrOutsideBookingWindow))
	deps.txManager.AssertNotCalled(t, "Begin")
}

func TestBookingService_Allocate_TooFarAhead(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	// Show starts beyond the booking window
	farShow := &show.Show{
		ID:         "show-1",
		Name:       "Far Future Show",
		StartTime:  time.Now().Add(6 * 24 * time.Hour),
		TotalSeats: 10,
	}
	deps.showRepo.On("GetByID", ctx, "show-1").Return(farShow, nil)

	result, err := deps.service.Allocate(ctx, AllocateInput{ShowID: "show-1", SeatNumbers: []int{1}, Mode: ModeHold})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, show.ErrOutsideBookingWindow))
}

// === Confirm ===

func TestBookingService_Confirm_Success(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	pending := &booking.Booking{ID: "booking-1", ShowID: "show-1", Status: booking.StatusPending}

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)

	deps.bookingRepo.On("GetByIDForUpdate", ctx, deps.tx, "booking-1").Return(pending, nil)
	deps.seatRepo.On("FindValidHeldSeatNumbers", ctx, deps.tx, "booking-1").Return([]int{1, 2}, nil)
	deps.seatRepo.On("ConfirmHeldSeats", ctx, deps.tx, "booking-1").Return([]int{1, 2}, nil)

	deps.bookingRepo.On("UpdateStatus", ctx, deps.tx, mock.MatchedBy(func(b *booking.Booking) bool {
		return b.Status == booking.StatusConfirmed
	})).Return(nil)

	deps.seatCache.On("Invalidate", ctx, "show-1").Return(nil)
	deps.publisher.On("Publish", ctx, mock.AnythingOfType("queue.BookingEvent")).Return(nil)

	// Execute
	result, err := deps.service.Confirm(ctx, "booking-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, result.Status)
	assert.Equal(t, []int{1, 2}, result.ConfirmedSeats)

	deps.bookingRepo.AssertExpectations(t)
	deps.seatRepo.AssertExpectations(t)
}

func TestBookingService_Confirm_AllHoldsExpired(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	pending := &booking.Booking{ID: "booking-1", ShowID: "show-1", Status: booking.StatusPending}

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)

	deps.bookingRepo.On("GetByIDForUpdate", ctx, deps.tx, "booking-1").Return(pending, nil)
	deps.seatRepo.On("FindValidHeldSeatNumbers", ctx, deps.tx, "booking-1").Return([]int{}, nil)

	deps.bookingRepo.On("UpdateStatus", ctx, deps.tx, mock.MatchedBy(func(b *booking.Booking) bool {
		return b.Status == booking.StatusFailed
	})).Return(nil)

	deps.seatCache.On("Invalidate", ctx, "show-1").Return(nil)
	deps.publisher.On("Publish", ctx, mock.AnythingOfType("queue.BookingEvent")).Return(nil)

	// Execute
	result, err := deps.service.Confirm(ctx, "booking-1")

	// Assert: fail-soft, the caller sees the terminal FAILED state
	require.NoError(t, err)
	assert.Equal(t, booking.StatusFailed, result.Status)
	assert.Empty(t, result.ConfirmedSeats)

	deps.seatRepo.AssertNotCalled(t, "ConfirmHeldSeats")
	deps.bookingRepo.AssertExpectations(t)
}

func TestBookingService_Confirm_PartiallyExpired(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	pending := &booking.Booking{ID: "booking-1", ShowID: "show-1", Status: booking.StatusPending}

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)

	deps.bookingRepo.On("GetByIDForUpdate", ctx, deps.tx, "booking-1").Return(pending, nil)
	// Seat 2 expired and was reclaimed; only seat 1 remains valid
	deps.seatRepo.On("FindValidHeldSeatNumbers", ctx, deps.tx, "booking-1").Return([]int{1}, nil)
	deps.seatRepo.On("ConfirmHeldSeats", ctx, deps.tx, "booking-1").Return([]int{1}, nil)

	deps.bookingRepo.On("UpdateStatus", ctx, deps.tx, mock.MatchedBy(func(b *booking.Booking) bool {
		return b.Status == booking.StatusConfirmed
	})).Return(nil)

	deps.seatCache.On("Invalidate", ctx, "show-1").Return(nil)
	deps.publisher.On("Publish", ctx, mock.AnythingOfType("queue.BookingEvent")).Return(nil)

	// Execute
	result, err := deps.service.Confirm(ctx, "booking-1")

	// Assert: confirmed with the surviving subset
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, result.Status)
	assert.Equal(t, []int{1}, result.ConfirmedSeats)
}

func TestBookingService_Confirm_NotPending(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	confirmed := &booking.Booking{ID: "booking-1", ShowID: "show-1", Status: booking.StatusConfirmed}

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)

	deps.bookingRepo.On("GetByIDForUpdate", ctx, deps.tx, "booking-1").Return(confirmed, nil)

	// Execute
	result, err := deps.service.Confirm(ctx, "booking-1")

	// Assert
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, booking.ErrBookingNotPending))
	deps.tx.AssertNotCalled(t, "Commit")
}

func TestBookingService_Confirm_NotFound(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)

	deps.bookingRepo.On("GetByIDForUpdate", ctx, deps.tx, "missing").Return(nil, booking.ErrBookingNotFound)

	result, err := deps.service.Confirm(ctx, "missing")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, booking.ErrBookingNotFound))
}

// === SweepExpiredHolds ===

func TestBookingService_SweepExpiredHolds(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)

	ids := []string{"booking-1", "booking-2"}
	deps.bookingRepo.On("FindExpiredPendingIDsForUpdate", ctx, deps.tx).Return(ids, nil)
	deps.seatRepo.On("ReleaseByBookingIDs", ctx, deps.tx, ids).Return(nil)
	deps.bookingRepo.On("MarkFailed", ctx, deps.tx, ids).Return(nil)

	// Execute
	count, err := deps.service.SweepExpiredHolds(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	deps.bookingRepo.AssertExpectations(t)
	deps.seatRepo.AssertExpectations(t)
}

func TestBookingService_SweepExpiredHolds_NothingToSweep(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)

	deps.bookingRepo.On("FindExpiredPendingIDsForUpdate", ctx, deps.tx).Return([]string{}, nil)

	// Execute
	count, err := deps.service.SweepExpiredHolds(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	deps.seatRepo.AssertNotCalled(t, "ReleaseByBookingIDs")
	deps.bookingRepo.AssertNotCalled(t, "MarkFailed")
}

func TestBookingService_SweepExpiredHolds_ReleaseError(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)

	ids := []string{"booking-1"}
	deps.bookingRepo.On("FindExpiredPendingIDsForUpdate", ctx, deps.tx).Return(ids, nil)
	deps.seatRepo.On("ReleaseByBookingIDs", ctx, deps.tx, ids).Return(errors.New("db down"))

	// Execute
	count, err := deps.service.SweepExpiredHolds(ctx)

	// Assert
	require.Error(t, err)
	assert.Equal(t, 0, count)
	deps.tx.AssertNotCalled(t, "Commit")
}

// === GetBooking ===

func TestBookingService_GetBooking(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	b := &booking.Booking{ID: "booking-1", ShowID: "show-1", Status: booking.StatusPending}
	expiresAt := time.Now().Add(1 * time.Minute)
	bookingID := "booking-1"
	seats := []*seat.Seat{
		{ID: "seat-1", ShowID: "show-1", SeatNumber: 1, Status: seat.StatusHeld, BookingID: &bookingID, HoldExpiresAt: &expiresAt},
		{ID: "seat-2", ShowID: "show-1", SeatNumber: 2, Status: seat.StatusHeld, BookingID: &bookingID, HoldExpiresAt: &expiresAt},
	}

	deps.bookingRepo.On("GetByID", ctx, "booking-1").Return(b, nil)
	deps.seatRepo.On("GetByBookingID", ctx, "booking-1").Return(seats, nil)

	detail, err := deps.service.GetBooking(ctx, "booking-1")

	require.NoError(t, err)
	assert.Equal(t, "booking-1", detail.Booking.ID)
	assert.Len(t, detail.Seats, 2)
	require.NotNil(t, detail.HoldExpiresAt)
	assert.True(t, detail.HoldExpiresAt.Equal(expiresAt))
}

func TestBookingService_GetBooking_NotFound(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.bookingRepo.On("GetByID", ctx, "missing").Return(nil, booking.ErrBookingNotFound)

	detail, err := deps.service.GetBooking(ctx, "missing")

	require.Error(t, err)
	assert.Nil(t, detail)
	assert.True(t, errors.Is(err, booking.ErrBookingNotFound))
}
