package booking

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
)

// Booking は予約エンティティを表す
// PENDING から CONFIRMED または FAILED へのみ遷移し、それ以外は終端状態
type Booking struct {
	ID        string
	ShowID    string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBooking は PENDING 状態の新しい予約を作成する
func NewBooking(showID string) *Booking {
	now := time.Now()
	return &Booking{
		ShowID:    showID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsPending は予約が保留中かを返す
func (b *Booking) IsPending() bool {
	return b.Status == StatusPending
}

// Confirm は予約を確定する
func (b *Booking) Confirm() error {
	if b.Status != StatusPending {
		return ErrBookingNotPending
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = time.Now()
	return nil
}

// Fail は予約を失敗させる
func (b *Booking) Fail() error {
	if b.Status != StatusPending {
		return ErrBookingNotPending
	}
	b.Status = StatusFailed
	b.UpdatedAt = time.Now()
	return nil
}
