package booking

import (
	"context"
	"time"

	"github.com/sanosuguru/go-show-seat-booking/internal/domain/transaction"
)

// ListItem は予約一覧の1件を表す（公演情報と座席集計付き）
type ListItem struct {
	Booking
	ShowName    string
	StartTime   time.Time
	SeatCount   int
	SeatNumbers []int
}

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, b *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// GetByIDForUpdate はIDから予約を排他ロック付きで取得する（トランザクション必須）
	// 確定処理とスイーパーが同一予約を同時に終端化するのを防ぐ
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Booking, error)

	// UpdateStatus は予約の状態を更新する（トランザクション必須）
	UpdateStatus(ctx context.Context, tx transaction.Tx, b *Booking) error

	// FindExpiredPendingIDsForUpdate は期限切れの held 座席を持つ PENDING 予約の
	// IDを排他ロック付きで取得する（トランザクション必須）
	FindExpiredPendingIDsForUpdate(ctx context.Context, tx transaction.Tx) ([]string, error)

	// MarkFailed は複数の予約を FAILED にする（トランザクション必須）
	MarkFailed(ctx context.Context, tx transaction.Tx, ids []string) error

	// List は予約一覧を公演情報・座席集計付きで取得する
	List(ctx context.Context) ([]*ListItem, error)
}
