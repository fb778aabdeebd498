package show

import "errors"

// Show ドメインのエラー定義
var (
	ErrShowNotFound         = errors.New("公演が見つかりません")
	ErrShowNameRequired     = errors.New("公演名は必須です")
	ErrInvalidTotalSeats    = errors.New("座席数は1以上である必要があります")
	ErrOutsideBookingWindow = errors.New("公演は予約受付期間外です")
)
