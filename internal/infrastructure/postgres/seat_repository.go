package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-show-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/transaction"
)

type seatRow struct {
	ID            string     `db:"id"`
	ShowID        string     `db:"show_id"`
	SeatNumber    int        `db:"seat_number"`
	Status        string     `db:"status"`
	BookingID     *string    `db:"booking_id"`
	HoldExpiresAt *time.Time `db:"hold_expires_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r *seatRow) toEntity() *seat.Seat {
	return &seat.Seat{
		ID: r.ID, ShowID: r.ShowID, SeatNumber: r.SeatNumber,
		Status: seat.Status(r.Status), BookingID: r.BookingID,
		HoldExpiresAt: r.HoldExpiresAt,
		CreatedAt:     r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// SeatRepository は座席リポジトリのPostgreSQL実装
//
// 座席の競合は条件付き一括UPDATEのみで解決する。述語の評価と書き込みは
// ストア側で1ステップで行われ、同一座席への同時更新は行ロックで直列化される。
// アプリケーション側のロックは取らない
type SeatRepository struct{ db *sqlx.DB }

// NewSeatRepository はSeatRepositoryを作成する
func NewSeatRepository(db *sqlx.DB) *SeatRepository { return &SeatRepository{db: db} }

// GetByShowID は公演の全座席を座席番号順に取得する
func (r *SeatRepository) GetByShowID(ctx context.Context, showID string) ([]*seat.Seat, error) {
	query := `SELECT id, show_id, seat_number, status, booking_id, hold_expires_at, created_at, updated_at FROM seats WHERE show_id = $1 ORDER BY seat_number`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, showID); err != nil {
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	seats := make([]*seat.Seat, len(rows))
	for i, row := range rows {
		seats[i] = row.toEntity()
	}
	return seats, nil
}

// GetSeatMap は公演の座席マップを座席番号順に取得する
func (r *SeatRepository) GetSeatMap(ctx context.Context, showID string) ([]seat.MapEntry, error) {
	var rows []struct {
		SeatNumber int    `db:"seat_number"`
		Status     string `db:"status"`
	}
	query := `SELECT seat_number, status FROM seats WHERE show_id = $1 ORDER BY seat_number ASC`
	if err := r.db.SelectContext(ctx, &rows, query, showID); err != nil {
		return nil, fmt.Errorf("座席マップ取得に失敗: %w", err)
	}
	entries := make([]seat.MapEntry, len(rows))
	for i, row := range rows {
		entries[i] = seat.MapEntry{SeatNumber: row.SeatNumber, Status: seat.Status(row.Status)}
	}
	return entries, nil
}

// CountByStatus は公演の状態別座席数を取得する
func (r *SeatRepository) CountByStatus(ctx context.Context, showID string) (seat.Counts, error) {
	var row struct {
		Available int `db:"available"`
		Booked    int `db:"booked"`
		Held      int `db:"held"`
	}
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'available' THEN 1 ELSE 0 END), 0) AS available,
			COALESCE(SUM(CASE WHEN status = 'booked' THEN 1 ELSE 0 END), 0) AS booked,
			COALESCE(SUM(CASE WHEN status = 'held' THEN 1 ELSE 0 END), 0) AS held
		FROM seats WHERE show_id = $1`
	if err := r.db.GetContext(ctx, &row, query, showID); err != nil {
		return seat.Counts{}, fmt.Errorf("座席数集計に失敗: %w", err)
	}
	return seat.Counts{Available: row.Available, Booked: row.Booked, Held: row.Held}, nil
}

// HoldSeats は available または期限切れ held の座席を held に遷移させる
func (r *SeatRepository) HoldSeats(ctx context.Context, tx transaction.Tx, showID string, seatNumbers []int, bookingID string, expiresAt time.Time) ([]int, error) {
	query := `
		UPDATE seats SET status = 'held', booking_id = $1, hold_expires_at = $2, updated_at = NOW()
		WHERE show_id = $3 AND seat_number = ANY($4)
		  AND (
		    status = 'available' OR (status = 'held' AND hold_expires_at IS NOT NULL AND hold_expires_at < NOW())
		  )
		RETURNING seat_number`
	return r.claimSeats(ctx, tx, query, bookingID, expiresAt, showID, pq.Array(seatNumbers))
}

// BookSeats は available または期限切れ held の座席を booked に遷移させる
func (r *SeatRepository) BookSeats(ctx context.Context, tx transaction.Tx, showID string, seatNumbers []int, bookingID string) ([]int, error) {
	query := `
		UPDATE seats SET status = 'booked', booking_id = $1, hold_expires_at = NULL, updated_at = NOW()
		WHERE show_id = $2 AND seat_number = ANY($3)
		  AND (
		    status = 'available' OR (status = 'held' AND hold_expires_at IS NOT NULL AND hold_expires_at < NOW())
		  )
		RETURNING seat_number`
	return r.claimSeats(ctx, tx, query, bookingID, showID, pq.Array(seatNumbers))
}

func (r *SeatRepository) claimSeats(ctx context.Context, tx transaction.Tx, query string, args ...interface{}) ([]int, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("無効なトランザクション")
	}
	var claimed []int
	if err := sqlxTx.SelectContext(ctx, &claimed, query, args...); err != nil {
		return nil, fmt.Errorf("座席確保に失敗: %w", err)
	}
	return claimed, nil
}

// FindValidHeldSeatNumbers は予約が保持する、期限の切れていない held 座席番号を返す
func (r *SeatRepository) FindValidHeldSeatNumbers(ctx context.Context, tx transaction.Tx, bookingID string) ([]int, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("無効なトランザクション")
	}
	var numbers []int
	query := `SELECT seat_number FROM seats WHERE booking_id = $1 AND status = 'held' AND (hold_expires_at IS NULL OR hold_expires_at > NOW()) ORDER BY seat_number`
	if err := sqlxTx.SelectContext(ctx, &numbers, query, bookingID); err != nil {
		return nil, fmt.Errorf("保留座席取得に失敗: %w", err)
	}
	return numbers, nil
}

// ConfirmHeldSeats は予約が保持する有効な held 座席を booked に遷移させる
func (r *SeatRepository) ConfirmHeldSeats(ctx context.Context, tx transaction.Tx, bookingID string) ([]int, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("無効なトランザクション")
	}
	var confirmed []int
	query := `
		UPDATE seats SET status = 'booked', hold_expires_at = NULL, updated_at = NOW()
		WHERE booking_id = $1 AND status = 'held' AND (hold_expires_at IS NULL OR hold_expires_at > NOW())
		RETURNING seat_number`
	if err := sqlxTx.SelectContext(ctx, &confirmed, query, bookingID); err != nil {
		return nil, fmt.Errorf("座席確定に失敗: %w", err)
	}
	return confirmed, nil
}

// ReleaseByBookingIDs は予約に紐づく held 座席を available に戻す
func (r *SeatRepository) ReleaseByBookingIDs(ctx context.Context, tx transaction.Tx, bookingIDs []string) error {
	if len(bookingIDs) == 0 {
		return nil
	}
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("無効なトランザクション")
	}
	query := `
		UPDATE seats SET status = 'available', booking_id = NULL, hold_expires_at = NULL, updated_at = NOW()
		WHERE booking_id = ANY($1) AND status = 'held'`
	if _, err := sqlxTx.ExecContext(ctx, query, pq.Array(bookingIDs)); err != nil {
		return fmt.Errorf("座席解放に失敗: %w", err)
	}
	return nil
}

// ReleaseSeats は指定座席を available に戻す
func (r *SeatRepository) ReleaseSeats(ctx context.Context, tx transaction.Tx, showID string, seatNumbers []int) error {
	if len(seatNumbers) == 0 {
		return nil
	}
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("無効なトランザクション")
	}
	query := `
		UPDATE seats SET status = 'available', booking_id = NULL, hold_expires_at = NULL, updated_at = NOW()
		WHERE show_id = $1 AND seat_number = ANY($2)`
	if _, err := sqlxTx.ExecContext(ctx, query, showID, pq.Array(seatNumbers)); err != nil {
		return fmt.Errorf("座席解放に失敗: %w", err)
	}
	return nil
}

// GetByBookingID は予約に紐づく座席を取得する
func (r *SeatRepository) GetByBookingID(ctx context.Context, bookingID string) ([]*seat.Seat, error) {
	query := `SELECT id, show_id, seat_number, status, booking_id, hold_expires_at, created_at, updated_at FROM seats WHERE booking_id = $1 ORDER BY seat_number`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, bookingID); err != nil {
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	seats := make([]*seat.Seat, len(rows))
	for i, row := range rows {
		seats[i] = row.toEntity()
	}
	return seats, nil
}

var _ seat.Repository = (*SeatRepository)(nil)
