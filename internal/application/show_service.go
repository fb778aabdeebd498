package application

import (
	"context"
	"fmt"
	"time"

	"github.com/sanosuguru/go-show-seat-booking/internal/config"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/show"
)

// ShowService は公演の管理機能を提供する
type ShowService struct {
	showRepo show.Repository
	cfg      config.BookingConfig
}

func NewShowService(shr show.Repository, cfg config.BookingConfig) *ShowService {
	return &ShowService{showRepo: shr, cfg: cfg}
}

// CreateShowInput は公演作成の入力
type CreateShowInput struct {
	Name       string
	StartTime  time.Time
	TotalSeats int
}

// CreateShow は公演を作成し、座席 1..TotalSeats を実体化する
// 開始時刻は予約受付期間（現在より後、かつ window 以内）である必要がある
func (s *ShowService) CreateShow(ctx context.Context, input CreateShowInput) (*show.Show, error) {
	sh := show.NewShow(input.Name, input.StartTime, input.TotalSeats)
	if err := sh.Validate(); err != nil {
		return nil, err
	}
	if !sh.IsBookable(time.Now(), s.cfg.Window) {
		return nil, show.ErrOutsideBookingWindow
	}
	if err := s.showRepo.Create(ctx, sh); err != nil {
		return nil, fmt.Errorf("公演作成に失敗: %w", err)
	}
	return sh, nil
}

// GetShow はIDから公演を取得する
func (s *ShowService) GetShow(ctx context.Context, id string) (*show.Show, error) {
	return s.showRepo.GetByID(ctx, id)
}

// ListShows は公演一覧を席数集計付きで取得する
// date が非nilの場合、開始日で絞り込む
func (s *ShowService) ListShows(ctx context.Context, date *time.Time) ([]*show.ListItem, error) {
	return s.showRepo.List(ctx, date)
}

// DeleteShow は公演を削除する（座席・予約も連動して削除される）
func (s *ShowService) DeleteShow(ctx context.Context, id string) error {
	if _, err := s.showRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.showRepo.Delete(ctx, id)
}
