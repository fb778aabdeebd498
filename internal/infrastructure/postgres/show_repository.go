package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-show-seat-booking/internal/domain/show"
)

// showRow はDBの行を表す構造体
type showRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	StartTime  time.Time `db:"start_time"`
	TotalSeats int       `db:"total_seats"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r *showRow) toEntity() *show.Show {
	return &show.Show{
		ID:         r.ID,
		Name:       r.Name,
		StartTime:  r.StartTime,
		TotalSeats: r.TotalSeats,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// showListRow は席数集計付きの一覧行
type showListRow struct {
	showRow
	AvailableSeats int `db:"available_seats"`
	BookedSeats    int `db:"booked_seats"`
	HeldSeats      int `db:"held_seats"`
}

// ShowRepository は公演リポジトリのPostgreSQL実装
type ShowRepository struct {
	db *sqlx.DB
}

// NewShowRepository はShowRepositoryを作成する
func NewShowRepository(db *sqlx.DB) *ShowRepository {
	return &ShowRepository{db: db}
}

// Create は公演を作成し、座席 1..TotalSeats を同一トランザクションで実体化する
func (r *ShowRepository) Create(ctx context.Context, s *show.Show) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO shows (name, start_time, total_seats, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := tx.QueryRowContext(ctx, query, s.Name, s.StartTime, s.TotalSeats, s.CreatedAt, s.UpdatedAt).Scan(&s.ID); err != nil {
		return fmt.Errorf("公演作成に失敗: %w", err)
	}

	// 座席 1..N を generate_series で一括生成
	seatQuery := `INSERT INTO seats (show_id, seat_number) SELECT $1, gs FROM generate_series(1, $2) AS gs`
	if _, err := tx.ExecContext(ctx, seatQuery, s.ID, s.TotalSeats); err != nil {
		return fmt.Errorf("座席実体化に失敗: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}

// GetByID はIDから公演を取得する
func (r *ShowRepository) GetByID(ctx context.Context, id string) (*show.Show, error) {
	query := `SELECT id, name, start_time, total_seats, created_at, updated_at FROM shows WHERE id = $1`
	var row showRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, show.ErrShowNotFound
		}
		return nil, fmt.Errorf("公演取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// List は公演一覧を席数集計付きで取得する
func (r *ShowRepository) List(ctx context.Context, date *time.Time) ([]*show.ListItem, error) {
	query := `
		SELECT s.id, s.name, s.start_time, s.total_seats, s.created_at, s.updated_at,
		       COALESCE(SUM(CASE WHEN t.status = 'available' THEN 1 ELSE 0 END), 0) AS available_seats,
		       COALESCE(SUM(CASE WHEN t.status = 'booked' THEN 1 ELSE 0 END), 0) AS booked_seats,
		       COALESCE(SUM(CASE WHEN t.status = 'held' THEN 1 ELSE 0 END), 0) AS held_seats
		FROM shows s
		LEFT JOIN seats t ON t.show_id = s.id
	`
	args := []interface{}{}
	if date != nil {
		query += ` WHERE s.start_time::date = $1::date`
		args = append(args, *date)
	}
	query += ` GROUP BY s.id, s.name, s.start_time, s.total_seats, s.created_at, s.updated_at ORDER BY s.start_time ASC`

	var rows []showListRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("公演一覧取得に失敗: %w", err)
	}
	items := make([]*show.ListItem, len(rows))
	for i, row := range rows {
		items[i] = &show.ListItem{
			Show:           *row.toEntity(),
			AvailableSeats: row.AvailableSeats,
			BookedSeats:    row.BookedSeats,
			HeldSeats:      row.HeldSeats,
		}
	}
	return items, nil
}

// Delete は公演を削除する
func (r *ShowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("公演削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return show.ErrShowNotFound
	}
	return nil
}

var _ show.Repository = (*ShowRepository)(nil)
