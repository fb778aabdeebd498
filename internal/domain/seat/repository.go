package seat

import (
	"context"
	"time"

	"github.com/sanosuguru/go-show-seat-booking/internal/domain/transaction"
)

// MapEntry は座席マップの1件を表す
type MapEntry struct {
	SeatNumber int
	Status     Status
}

// Counts は公演ごとの状態別座席数を表す
type Counts struct {
	Available int
	Booked    int
	Held      int
}

// Repository は座席リポジトリのインターフェース
//
// HoldSeats / BookSeats は仕様の中核となる条件付き一括更新。
// 述語（available、または期限切れの held）と書き込みをストア側で1回の
// アトミックな操作として実行し、実際に遷移できた座席番号を返す。
// 行数の比較はアプリケーション層（割当エンジン）が行う
type Repository interface {
	// GetByShowID は公演の全座席を座席番号順に取得する
	GetByShowID(ctx context.Context, showID string) ([]*Seat, error)

	// GetSeatMap は公演の座席マップ（座席番号と状態）を座席番号順に取得する
	GetSeatMap(ctx context.Context, showID string) ([]MapEntry, error)

	// CountByStatus は公演の状態別座席数を取得する
	CountByStatus(ctx context.Context, showID string) (Counts, error)

	// HoldSeats は available または期限切れ held の座席を held に遷移させる
	// 遷移できた座席番号を返す（トランザクション必須）
	HoldSeats(ctx context.Context, tx transaction.Tx, showID string, seatNumbers []int, bookingID string, expiresAt time.Time) ([]int, error)

	// BookSeats は available または期限切れ held の座席を booked に遷移させる
	// 遷移できた座席番号を返す（トランザクション必須）
	BookSeats(ctx context.Context, tx transaction.Tx, showID string, seatNumbers []int, bookingID string) ([]int, error)

	// ConfirmHeldSeats は予約が保持する有効な held 座席を booked に遷移させ、
	// 遷移した座席番号を返す（トランザクション必須）
	ConfirmHeldSeats(ctx context.Context, tx transaction.Tx, bookingID string) ([]int, error)

	// FindValidHeldSeatNumbers は予約が保持する、期限の切れていない held 座席番号を返す
	FindValidHeldSeatNumbers(ctx context.Context, tx transaction.Tx, bookingID string) ([]int, error)

	// ReleaseByBookingIDs は予約に紐づく held 座席を available に戻す（トランザクション必須）
	ReleaseByBookingIDs(ctx context.Context, tx transaction.Tx, bookingIDs []string) error

	// ReleaseSeats は指定座席を available に戻す（トランザクション必須）
	ReleaseSeats(ctx context.Context, tx transaction.Tx, showID string, seatNumbers []int) error

	// GetByBookingID は予約に紐づく座席を取得する
	GetByBookingID(ctx context.Context, bookingID string) ([]*Seat, error)
}
