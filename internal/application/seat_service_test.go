package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-show-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/show"
	redisinfra "github.com/sanosuguru/go-show-seat-booking/internal/infrastructure/redis"
)

func newSeatService() (*SeatService, *MockSeatRepository, *MockShowRepository, *MockSeatCache) {
	seatRepo := new(MockSeatRepository)
	showRepo := new(MockShowRepository)
	cache := new(MockSeatCache)
	return NewSeatService(seatRepo, showRepo, cache, nil), seatRepo, showRepo, cache
}

func TestSeatService_GetSeatMap_CacheMiss(t *testing.T) {
	service, seatRepo, showRepo, cache := newSeatService()
	ctx := context.Background()

	showRepo.On("GetByID", ctx, "show-1").Return(&show.Show{ID: "show-1", TotalSeats: 3}, nil)

	entries := []seat.MapEntry{
		{SeatNumber: 1, Status: seat.StatusAvailable},
		{SeatNumber: 2, Status: seat.StatusHeld},
		{SeatNumber: 3, Status: seat.StatusBooked},
	}
	seatRepo.On("GetSeatMap", ctx, "show-1").Return(entries, nil)

	counts := seat.Counts{Available: 1, Held: 1, Booked: 1}
	cache.On("GetCounts", ctx, "show-1").Return(seat.Counts{}, redisinfra.ErrCacheMiss)
	seatRepo.On("CountByStatus", ctx, "show-1").Return(counts, nil)
	cache.On("SetCounts", ctx, "show-1", counts, countsCacheTTL).Return(nil)

	result, err := service.GetSeatMap(ctx, "show-1")

	require.NoError(t, err)
	assert.Equal(t, "show-1", result.ShowID)
	assert.Len(t, result.Seats, 3)
	assert.Equal(t, counts, result.Counts)
	cache.AssertExpectations(t)
	seatRepo.AssertExpectations(t)
}

func TestSeatService_GetSeatMap_CacheHit(t *testing.T) {
	service, seatRepo, showRepo, cache := newSeatService()
	ctx := context.Background()

	showRepo.On("GetByID", ctx, "show-1").Return(&show.Show{ID: "show-1", TotalSeats: 2}, nil)

	entries := []seat.MapEntry{
		{SeatNumber: 1, Status: seat.StatusAvailable},
		{SeatNumber: 2, Status: seat.StatusAvailable},
	}
	seatRepo.On("GetSeatMap", ctx, "show-1").Return(entries, nil)

	counts := seat.Counts{Available: 2}
	cache.On("GetCounts", ctx, "show-1").Return(counts, nil)

	result, err := service.GetSeatMap(ctx, "show-1")

	require.NoError(t, err)
	assert.Equal(t, counts, result.Counts)
	seatRepo.AssertNotCalled(t, "CountByStatus")
}

func TestSeatService_GetSeatMap_CacheError_FallsBackToStore(t *testing.T) {
	service, seatRepo, showRepo, cache := newSeatService()
	ctx := context.Background()

	showRepo.On("GetByID", ctx, "show-1").Return(&show.Show{ID: "show-1", TotalSeats: 1}, nil)

	entries := []seat.MapEntry{{SeatNumber: 1, Status: seat.StatusAvailable}}
	seatRepo.On("GetSeatMap", ctx, "show-1").Return(entries, nil)

	counts := seat.Counts{Available: 1}
	cache.On("GetCounts", ctx, "show-1").Return(seat.Counts{}, errors.New("connection refused"))
	seatRepo.On("CountByStatus", ctx, "show-1").Return(counts, nil)
	cache.On("SetCounts", ctx, "show-1", counts, countsCacheTTL).Return(nil)

	result, err := service.GetSeatMap(ctx, "show-1")

	require.NoError(t, err)
	assert.Equal(t, counts, result.Counts)
}

func TestSeatService_GetSeatMap_ShowNotFound(t *testing.T) {
	service, seatRepo, showRepo, _ := newSeatService()
	ctx := context.Background()

	showRepo.On("GetByID", ctx, "missing").Return(nil, show.ErrShowNotFound)

	result, err := service.GetSeatMap(ctx, "missing")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, show.ErrShowNotFound))
	seatRepo.AssertNotCalled(t, "GetSeatMap")
}

func TestSeatService_GetSeatMap_WithoutCache(t *testing.T) {
	seatRepo := new(MockSeatRepository)
	showRepo := new(MockShowRepository)
	service := NewSeatService(seatRepo, showRepo, nil, nil)
	ctx := context.Background()

	showRepo.On("GetByID", ctx, "show-1").Return(&show.Show{ID: "show-1", TotalSeats: 1}, nil)
	seatRepo.On("GetSeatMap", ctx, "show-1").Return([]seat.MapEntry{{SeatNumber: 1, Status: seat.StatusAvailable}}, nil)
	seatRepo.On("CountByStatus", ctx, "show-1").Return(seat.Counts{Available: 1}, nil)

	result, err := service.GetSeatMap(ctx, "show-1")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Counts.Available)
}

// 割当と読み取り射影の境界の確認。期限切れの held はスイープまで held のまま見える
func TestSeatService_GetSeatMap_ExpiredHoldStillVisible(t *testing.T) {
	service, seatRepo, showRepo, cache := newSeatService()
	ctx := context.Background()

	showRepo.On("GetByID", ctx, "show-1").Return(&show.Show{ID: "show-1", TotalSeats: 1}, nil)

	entries := []seat.MapEntry{{SeatNumber: 1, Status: seat.StatusHeld}}
	seatRepo.On("GetSeatMap", ctx, "show-1").Return(entries, nil)

	counts := seat.Counts{Held: 1}
	cache.On("GetCounts", ctx, "show-1").Return(seat.Counts{}, redisinfra.ErrCacheMiss)
	seatRepo.On("CountByStatus", ctx, "show-1").Return(counts, nil)
	cache.On("SetCounts", ctx, "show-1", counts, countsCacheTTL).Return(nil)

	result, err := service.GetSeatMap(ctx, "show-1")

	require.NoError(t, err)
	assert.Equal(t, seat.StatusHeld, result.Seats[0].Status)
	assert.Equal(t, 1, result.Counts.Held)
}
