package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-show-seat-booking/internal/config"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/show"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-show-seat-booking/internal/infrastructure/queue"
	redisinfra "github.com/sanosuguru/go-show-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-show-seat-booking/internal/pkg/logger"
)

// AllocationMode は座席割当のモードを表す
type AllocationMode string

const (
	// ModeHold は座席を held にして PENDING 予約として保留する
	ModeHold AllocationMode = "hold"
	// ModeConfirm は座席を booked にして即時確定する
	ModeConfirm AllocationMode = "confirm"
)

// IsValid は割当モードが既知の値かを返す
func (m AllocationMode) IsValid() bool {
	return m == ModeHold || m == ModeConfirm
}

// BookingService は座席割当エンジンを提供する
//
// 割当の中核は SeatRepository の条件付き一括更新であり、本サービスは
// 遷移できた行数と要求数の比較によって全席成功か失敗かを判定する。
// アプリケーション層でのロックは持たない
type BookingService struct {
	txManager   transaction.Manager
	bookingRepo booking.Repository
	seatRepo    seat.Repository
	showRepo    show.Repository
	seatCache   redisinfra.SeatCacheInterface
	publisher   queue.EventPublisher
	cfg         config.BookingConfig
}

func NewBookingService(
	txm transaction.Manager,
	br booking.Repository,
	sr seat.Repository,
	shr show.Repository,
	cache redisinfra.SeatCacheInterface,
	pub queue.EventPublisher,
	cfg config.BookingConfig,
) *BookingService {
	return &BookingService{
		txManager:   txm,
		bookingRepo: br,
		seatRepo:    sr,
		showRepo:    shr,
		seatCache:   cache,
		publisher:   pub,
		cfg:         cfg,
	}
}

// AllocateInput は座席割当の入力
type AllocateInput struct {
	ShowID      string
	SeatNumbers []int
	Mode        AllocationMode
}

// AllocationResult は座席割当の結果
//
// 全席確保できなかった場合も予約行は FAILED として残り、
// ClaimedSeats には遷移に成功していた座席番号の部分集合が入る
type AllocationResult struct {
	BookingID     string
	ShowID        string
	Status        booking.Status
	SeatNumbers   []int
	ClaimedSeats  []int
	HoldExpiresAt *time.Time
}

// ErrInvalidAllocationMode は未知の割当モードが指定された場合のエラー
var ErrInvalidAllocationMode = errors.New("割当モードは hold または confirm である必要があります")

// Allocate は指定座席の全席確保を試みる
//
// hold モードでは座席を held にして PENDING 予約を作り、confirm モードでは
// booked にして即時 CONFIRMED にする。1席でも確保できなければ確保済みの
// 座席を同一トランザクション内で解放し、予約を FAILED で残す
func (s *BookingService) Allocate(ctx context.Context, input AllocateInput) (*AllocationResult, error) {
	if !input.Mode.IsValid() {
		return nil, ErrInvalidAllocationMode
	}
	if err := validateSeatNumbers(input.SeatNumbers); err != nil {
		return nil, err
	}

	// 公演と予約受付期間の確認
	sh, err := s.showRepo.GetByID(ctx, input.ShowID)
	if err != nil {
		return nil, err
	}
	for _, n := range input.SeatNumbers {
		if !sh.ContainsSeatNumber(n) {
			return nil, fmt.Errorf("%w: %d", seat.ErrSeatNumberOutOfRange, n)
		}
	}
	if !sh.IsBookable(time.Now(), s.cfg.Window) {
		return nil, show.ErrOutsideBookingWindow
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	b := booking.NewBooking(input.ShowID)
	if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
		return nil, fmt.Errorf("予約作成に失敗: %w", err)
	}

	var (
		claimed   []int
		expiresAt *time.Time
	)
	switch input.Mode {
	case ModeHold:
		exp := time.Now().Add(s.cfg.HoldTTL)
		claimed, err = s.seatRepo.HoldSeats(ctx, tx, input.ShowID, input.SeatNumbers, b.ID, exp)
		expiresAt = &exp
	case ModeConfirm:
		claimed, err = s.seatRepo.BookSeats(ctx, tx, input.ShowID, input.SeatNumbers, b.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("座席確保に失敗: %w", err)
	}

	// 全席取れなければ失敗。確保済みの座席は同一トランザクション内で解放し、
	// 予約行は FAILED として残す
	if len(claimed) != len(input.SeatNumbers) {
		if len(claimed) > 0 {
			if err := s.seatRepo.ReleaseSeats(ctx, tx, input.ShowID, claimed); err != nil {
				return nil, fmt.Errorf("座席解放に失敗: %w", err)
			}
		}
		if err := b.Fail(); err != nil {
			return nil, err
		}
		if err := s.bookingRepo.UpdateStatus(ctx, tx, b); err != nil {
			return nil, fmt.Errorf("予約更新に失敗: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("コミットに失敗: %w", err)
		}
		s.afterWrite(ctx, b, claimed)
		return &AllocationResult{
			BookingID:    b.ID,
			ShowID:       b.ShowID,
			Status:       b.Status,
			SeatNumbers:  input.SeatNumbers,
			ClaimedSeats: claimed,
		}, nil
	}

	if input.Mode == ModeConfirm {
		if err := b.Confirm(); err != nil {
			return nil, err
		}
		if err := s.bookingRepo.UpdateStatus(ctx, tx, b); err != nil {
			return nil, fmt.Errorf("予約更新に失敗: %w", err)
		}
		expiresAt = nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	s.afterWrite(ctx, b, claimed)

	return &AllocationResult{
		BookingID:     b.ID,
		ShowID:        b.ShowID,
		Status:        b.Status,
		SeatNumbers:   input.SeatNumbers,
		ClaimedSeats:  claimed,
		HoldExpiresAt: expiresAt,
	}, nil
}

// ConfirmResult は保留確定の結果
type ConfirmResult struct {
	BookingID      string
	ShowID         string
	Status         booking.Status
	ConfirmedSeats []int
}

// Confirm は保留中の予約を確定する
//
// 有効な held 座席が1席もなければ予約は FAILED になる。一部の座席だけが
// 期限切れで失われていた場合、残った座席のみを booked にして確定し、
// 実際に確定できた座席番号を返す
func (s *BookingService) Confirm(ctx context.Context, bookingID string) (*ConfirmResult, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// スイーパーとの競合を排他ロックで直列化する
	b, err := s.bookingRepo.GetByIDForUpdate(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsPending() {
		return nil, booking.ErrBookingNotPending
	}

	valid, err := s.seatRepo.FindValidHeldSeatNumbers(ctx, tx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("座席確認に失敗: %w", err)
	}

	if len(valid) == 0 {
		// 保留が全席失効している。予約を FAILED で終端化する
		if err := b.Fail(); err != nil {
			return nil, err
		}
		if err := s.bookingRepo.UpdateStatus(ctx, tx, b); err != nil {
			return nil, fmt.Errorf("予約更新に失敗: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("コミットに失敗: %w", err)
		}
		s.afterWrite(ctx, b, nil)
		return &ConfirmResult{
			BookingID: b.ID,
			ShowID:    b.ShowID,
			Status:    b.Status,
		}, nil
	}

	confirmed, err := s.seatRepo.ConfirmHeldSeats(ctx, tx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("座席確定に失敗: %w", err)
	}
	if err := b.Confirm(); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.UpdateStatus(ctx, tx, b); err != nil {
		return nil, fmt.Errorf("予約更新に失敗: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	s.afterWrite(ctx, b, confirmed)

	return &ConfirmResult{
		BookingID:      b.ID,
		ShowID:         b.ShowID,
		Status:         b.Status,
		ConfirmedSeats: confirmed,
	}, nil
}

// SweepExpiredHolds は期限切れの保留を失効させ、失効した予約数を返す
//
// 期限切れの held 座席を持つ PENDING 予約を排他ロック付きで特定し、
// 座席の available への復帰と予約の FAILED 化を1トランザクションで行う
func (s *BookingService) SweepExpiredHolds(ctx context.Context) (int, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	ids, err := s.bookingRepo.FindExpiredPendingIDsForUpdate(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("期限切れ予約の取得に失敗: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := s.seatRepo.ReleaseByBookingIDs(ctx, tx, ids); err != nil {
		return 0, fmt.Errorf("座席解放に失敗: %w", err)
	}
	if err := s.bookingRepo.MarkFailed(ctx, tx, ids); err != nil {
		return 0, fmt.Errorf("予約の失効化に失敗: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("コミットに失敗: %w", err)
	}

	return len(ids), nil
}

// BookingDetail は予約の詳細（座席付き）
type BookingDetail struct {
	Booking       *booking.Booking
	Seats         []*seat.Seat
	HoldExpiresAt *time.Time
}

// GetBooking は予約を座席付きで取得する
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*BookingDetail, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	seats, err := s.seatRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	var expiresAt *time.Time
	for _, se := range seats {
		if se.HoldExpiresAt != nil {
			expiresAt = se.HoldExpiresAt
			break
		}
	}
	return &BookingDetail{Booking: b, Seats: seats, HoldExpiresAt: expiresAt}, nil
}

// ListBookings は予約一覧を公演情報・座席集計付きで取得する
func (s *BookingService) ListBookings(ctx context.Context) ([]*booking.ListItem, error) {
	return s.bookingRepo.List(ctx)
}

// afterWrite はコミット済みの状態遷移に伴う付随処理を行う
// キャッシュ無効化とイベント発行はベストエフォートで、失敗してもエラーにしない
func (s *BookingService) afterWrite(ctx context.Context, b *booking.Booking, seatNumbers []int) {
	if s.seatCache != nil {
		if err := s.seatCache.Invalidate(ctx, b.ShowID); err != nil {
			logger.Warn("キャッシュ無効化に失敗",
				zap.String("show_id", b.ShowID),
				zap.Error(err))
		}
	}
	if s.publisher != nil {
		event := queue.BookingEvent{
			BookingID:   b.ID,
			ShowID:      b.ShowID,
			Status:      string(b.Status),
			SeatNumbers: seatNumbers,
			OccurredAt:  time.Now(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			logger.Warn("イベント発行に失敗",
				zap.String("booking_id", b.ID),
				zap.Error(err))
		}
	}
}

// validateSeatNumbers は座席番号リストの形式検証を行う
func validateSeatNumbers(seatNumbers []int) error {
	if len(seatNumbers) == 0 {
		return seat.ErrSeatNumbersRequired
	}
	seen := make(map[int]struct{}, len(seatNumbers))
	for _, n := range seatNumbers {
		if _, ok := seen[n]; ok {
			return fmt.Errorf("%w: %d", seat.ErrDuplicateSeatNumbers, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}
