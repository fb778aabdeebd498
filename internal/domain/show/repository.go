package show

import (
	"context"
	"time"
)

// ListItem は公演一覧の1件を表す（席数の集計付き）
type ListItem struct {
	Show
	AvailableSeats int
	BookedSeats    int
	HeldSeats      int
}

// Repository は公演リポジトリのインターフェース
type Repository interface {
	// Create は公演を作成し、座席 1..TotalSeats を同一トランザクションで実体化する
	Create(ctx context.Context, s *Show) error

	// GetByID はIDから公演を取得する
	GetByID(ctx context.Context, id string) (*Show, error)

	// List は公演一覧を席数集計付きで取得する
	// date が非nilの場合、開始日（日付単位）で絞り込む
	List(ctx context.Context, date *time.Time) ([]*ListItem, error)

	// Delete は公演を削除する
	Delete(ctx context.Context, id string) error
}
