package show

import "time"

// Show は公演エンティティを表す
// 作成後は削除を除いて不変。total_seats が座席番号の範囲 [1, total_seats] を固定する
type Show struct {
	ID         string
	Name       string
	StartTime  time.Time
	TotalSeats int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewShow は新しい公演を作成する
func NewShow(name string, startTime time.Time, totalSeats int) *Show {
	now := time.Now()
	return &Show{
		Name:       name,
		StartTime:  startTime,
		TotalSeats: totalSeats,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate は公演の検証を行う
func (s *Show) Validate() error {
	if s.Name == "" {
		return ErrShowNameRequired
	}
	if s.TotalSeats <= 0 {
		return ErrInvalidTotalSeats
	}
	return nil
}

// IsBookable は公演が予約受付期間内かを返す
// 開始時刻が現在より後、かつ window 以内であること
func (s *Show) IsBookable(now time.Time, window time.Duration) bool {
	return s.StartTime.After(now) && !s.StartTime.After(now.Add(window))
}

// ContainsSeatNumber は座席番号が範囲 [1, total_seats] 内かを返す
func (s *Show) ContainsSeatNumber(n int) bool {
	return n >= 1 && n <= s.TotalSeats
}
