package seat

import "time"

// Status は座席の状態を表す
type Status string

const (
	StatusAvailable Status = "available"
	StatusHeld      Status = "held"
	StatusBooked    Status = "booked"
)

// Seat は座席エンティティを表す
// (show_id, seat_number) が一意。booking_id は所有していない予約への弱参照
type Seat struct {
	ID            string
	ShowID        string
	SeatNumber    int
	Status        Status
	BookingID     *string
	HoldExpiresAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsAvailable は座席が確保可能かを返す
func (s *Seat) IsAvailable() bool {
	return s.Status == StatusAvailable
}

// IsHoldExpired は保留の有効期限が切れているかを返す
func (s *Seat) IsHoldExpired(now time.Time) bool {
	return s.Status == StatusHeld && s.HoldExpiresAt != nil && s.HoldExpiresAt.Before(now)
}

// Hold は座席を保留状態にする
func (s *Seat) Hold(bookingID string, expiresAt time.Time) error {
	if !s.IsAvailable() && !s.IsHoldExpired(time.Now()) {
		return ErrSeatNotAvailable
	}
	s.Status = StatusHeld
	s.BookingID = &bookingID
	s.HoldExpiresAt = &expiresAt
	s.UpdatedAt = time.Now()
	return nil
}

// Book は座席を確定状態にする
// 確定時は hold_expires_at を必ずクリアする
func (s *Seat) Book(bookingID string) error {
	if !s.IsAvailable() && !s.IsHoldExpired(time.Now()) && !s.isHeldBy(bookingID) {
		return ErrSeatNotAvailable
	}
	s.Status = StatusBooked
	s.BookingID = &bookingID
	s.HoldExpiresAt = nil
	s.UpdatedAt = time.Now()
	return nil
}

// Release は座席を解放して available に戻す
func (s *Seat) Release() {
	s.Status = StatusAvailable
	s.BookingID = nil
	s.HoldExpiresAt = nil
	s.UpdatedAt = time.Now()
}

func (s *Seat) isHeldBy(bookingID string) bool {
	return s.Status == StatusHeld && s.BookingID != nil && *s.BookingID == bookingID
}
