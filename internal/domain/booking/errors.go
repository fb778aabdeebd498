package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound   = errors.New("予約が見つかりません")
	ErrBookingNotPending = errors.New("予約は保留中ではありません")
)
