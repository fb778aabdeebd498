package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-show-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-show-seat-booking/internal/pkg/metrics"
)

// HoldSweeper は期限切れの保留を失効させるインターフェース
type HoldSweeper interface {
	SweepExpiredHolds(ctx context.Context) (int, error)
}

// HoldExpirySweeper は期限切れの保留を定期的に失効させるワーカー
//
// 1サイクルは1トランザクションで完結し、失敗してもログを残して次の
// サイクルで再試行する
type HoldExpirySweeper struct {
	bookingService HoldSweeper
	interval       time.Duration
	metrics        *metrics.Metrics
	stopCh         chan struct{}
	doneCh         chan struct{}
}

// NewHoldExpirySweeper は新しいスイーパーを作成
func NewHoldExpirySweeper(bs HoldSweeper, interval time.Duration, m *metrics.Metrics) *HoldExpirySweeper {
	return &HoldExpirySweeper{
		bookingService: bs,
		interval:       interval,
		metrics:        m,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start はスイーパーを開始
func (s *HoldExpirySweeper) Start(ctx context.Context) {
	logger.Info("保留失効スイーパー開始",
		zap.Duration("interval", s.interval),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("保留失効スイーパー停止（コンテキストキャンセル）")
			return
		case <-s.stopCh:
			logger.Info("保留失効スイーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop はスイーパーを停止
func (s *HoldExpirySweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// sweep は期限切れの保留を失効させる
func (s *HoldExpirySweeper) sweep(ctx context.Context) {
	log := logger.Get()
	log.Debug("期限切れ保留のスイープ開始")

	count, err := s.bookingService.SweepExpiredHolds(ctx)
	if err != nil {
		log.Error("期限切れ保留のスイープ失敗", zap.Error(err))
		s.observeCycle("error", 0)
		return
	}
	s.observeCycle("success", count)

	if count > 0 {
		log.Info("期限切れ保留を失効", zap.Int("count", count))
	} else {
		log.Debug("期限切れ保留なし")
	}
}

func (s *HoldExpirySweeper) observeCycle(status string, swept int) {
	if s.metrics == nil {
		return
	}
	s.metrics.SweepCyclesTotal.WithLabelValues(status).Inc()
	if swept > 0 {
		s.metrics.SweptBookingsTotal.Add(float64(swept))
	}
}
