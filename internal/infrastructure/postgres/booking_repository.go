package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-show-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/transaction"
)

type bookingRow struct {
	ID        string    `db:"id"`
	ShowID    string    `db:"show_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	return &booking.Booking{
		ID: r.ID, ShowID: r.ShowID, Status: booking.Status(r.Status),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// BookingRepository は予約リポジトリのPostgreSQL実装
type BookingRepository struct{ db *sqlx.DB }

// NewBookingRepository はBookingRepositoryを作成する
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create は新しい予約を作成する
func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("無効なトランザクション")
	}
	query := `INSERT INTO bookings (show_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query, b.ShowID, string(b.Status), b.CreatedAt, b.UpdatedAt).Scan(&b.ID); err != nil {
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

// GetByID はIDから予約を取得する
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT id, show_id, status, created_at, updated_at FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDForUpdate はIDから予約を排他ロック付きで取得する
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*booking.Booking, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("無効なトランザクション")
	}
	var row bookingRow
	query := `SELECT id, show_id, status, created_at, updated_at FROM bookings WHERE id = $1 FOR UPDATE`
	if err := sqlxTx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// UpdateStatus は予約の状態を更新する
func (r *BookingRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("無効なトランザクション")
	}
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := sqlxTx.ExecContext(ctx, query, string(b.Status), b.ID)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

// FindExpiredPendingIDsForUpdate は期限切れの held 座席を持つ PENDING 予約のIDを
// 排他ロック付きで取得する
// 行ロックにより、同一予約に対する確定処理との交錯を防ぐ
func (r *BookingRepository) FindExpiredPendingIDsForUpdate(ctx context.Context, tx transaction.Tx) ([]string, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("無効なトランザクション")
	}
	var ids []string
	query := `
		SELECT b.id FROM bookings b
		WHERE b.status = 'PENDING'
		  AND EXISTS (
		    SELECT 1 FROM seats s
		    WHERE s.booking_id = b.id
		      AND s.status = 'held'
		      AND s.hold_expires_at < NOW()
		  )
		FOR UPDATE OF b`
	if err := sqlxTx.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("期限切れ予約取得に失敗: %w", err)
	}
	return ids, nil
}

// MarkFailed は複数の予約を FAILED にする
func (r *BookingRepository) MarkFailed(ctx context.Context, tx transaction.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("無効なトランザクション")
	}
	query := `UPDATE bookings SET status = 'FAILED', updated_at = NOW() WHERE id = ANY($1)`
	if _, err := sqlxTx.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("予約失敗化に失敗: %w", err)
	}
	return nil
}

// List は予約一覧を公演情報・座席集計付きで取得する
func (r *BookingRepository) List(ctx context.Context) ([]*booking.ListItem, error) {
	type listRow struct {
		bookingRow
		ShowName    string        `db:"show_name"`
		StartTime   time.Time     `db:"start_time"`
		SeatCount   int           `db:"seat_count"`
		SeatNumbers pq.Int64Array `db:"seat_numbers"`
	}
	query := `
		SELECT b.id, b.show_id, b.status, b.created_at, b.updated_at,
		       s.name AS show_name, s.start_time,
		       COUNT(t.seat_number) AS seat_count,
		       COALESCE(ARRAY_AGG(t.seat_number ORDER BY t.seat_number) FILTER (WHERE t.seat_number IS NOT NULL), '{}') AS seat_numbers
		FROM bookings b
		JOIN shows s ON s.id = b.show_id
		LEFT JOIN seats t ON t.booking_id = b.id
		GROUP BY b.id, b.show_id, b.status, b.created_at, b.updated_at, s.name, s.start_time
		ORDER BY b.created_at DESC`
	var rows []listRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	items := make([]*booking.ListItem, len(rows))
	for i, row := range rows {
		numbers := make([]int, len(row.SeatNumbers))
		for j, n := range row.SeatNumbers {
			numbers[j] = int(n)
		}
		items[i] = &booking.ListItem{
			Booking:     *row.toEntity(),
			ShowName:    row.ShowName,
			StartTime:   row.StartTime,
			SeatCount:   row.SeatCount,
			SeatNumbers: numbers,
		}
	}
	return items, nil
}

var _ booking.Repository = (*BookingRepository)(nil)
