package seat

import "errors"

// Seat ドメインのエラー定義
var (
	ErrSeatNotFound         = errors.New("座席が見つかりません")
	ErrSeatNotAvailable     = errors.New("座席は確保できません")
	ErrSeatNumbersRequired  = errors.New("座席番号は必須です")
	ErrDuplicateSeatNumbers = errors.New("座席番号が重複しています")
	ErrSeatNumberOutOfRange = errors.New("座席番号が範囲外です")
)
