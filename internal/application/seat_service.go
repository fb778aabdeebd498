package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-show-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/show"
	redisinfra "github.com/sanosuguru/go-show-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-show-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-show-seat-booking/internal/pkg/metrics"
)

// 状態別座席数キャッシュのTTL。保留失効のスイープ間隔より短く保つ
const countsCacheTTL = 10 * time.Second

// SeatMap は公演の座席マップ（読み取り射影）
//
// ストアの静止時点のスナップショットであり、トランザクション途中の
// 状態を観測することはない
type SeatMap struct {
	ShowID string
	Seats  []seat.MapEntry
	Counts seat.Counts
}

// SeatService は座席マップの読み取り射影を提供する
type SeatService struct {
	seatRepo  seat.Repository
	showRepo  show.Repository
	seatCache redisinfra.SeatCacheInterface
	metrics   *metrics.Metrics
}

func NewSeatService(sr seat.Repository, shr show.Repository, cache redisinfra.SeatCacheInterface, m *metrics.Metrics) *SeatService {
	return &SeatService{seatRepo: sr, showRepo: shr, seatCache: cache, metrics: m}
}

// GetSeatMap は公演の座席マップを状態別座席数付きで取得する
func (s *SeatService) GetSeatMap(ctx context.Context, showID string) (*SeatMap, error) {
	if _, err := s.showRepo.GetByID(ctx, showID); err != nil {
		return nil, err
	}

	entries, err := s.seatRepo.GetSeatMap(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("座席マップ取得に失敗: %w", err)
	}

	counts, err := s.getCounts(ctx, showID)
	if err != nil {
		return nil, err
	}

	return &SeatMap{ShowID: showID, Seats: entries, Counts: counts}, nil
}

// getCounts は状態別座席数をキャッシュ優先で取得する
// キャッシュは読み取り負荷の軽減のためで、失敗してもストアに落ちる
func (s *SeatService) getCounts(ctx context.Context, showID string) (seat.Counts, error) {
	if s.seatCache != nil {
		counts, err := s.seatCache.GetCounts(ctx, showID)
		if err == nil {
			return counts, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得に失敗", zap.String("show_id", showID), zap.Error(err))
		}
	}

	counts, err := s.seatRepo.CountByStatus(ctx, showID)
	if err != nil {
		return seat.Counts{}, fmt.Errorf("座席数集計に失敗: %w", err)
	}

	if s.seatCache != nil {
		if err := s.seatCache.SetCounts(ctx, showID, counts, countsCacheTTL); err != nil {
			logger.Warn("キャッシュ保存に失敗", zap.String("show_id", showID), zap.Error(err))
		}
	}
	s.observeCounts(showID, counts)

	return counts, nil
}

func (s *SeatService) observeCounts(showID string, counts seat.Counts) {
	if s.metrics == nil {
		return
	}
	s.metrics.SeatsByStatus.WithLabelValues(showID, string(seat.StatusAvailable)).Set(float64(counts.Available))
	s.metrics.SeatsByStatus.WithLabelValues(showID, string(seat.StatusHeld)).Set(float64(counts.Held))
	s.metrics.SeatsByStatus.WithLabelValues(showID, string(seat.StatusBooked)).Set(float64(counts.Booked))
}
