package handler

import (
	"context"
	"time"

	"github.com/sanosuguru/go-show-seat-booking/internal/application"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/show"
)

// ShowServiceInterface は公演サービスのインターフェース
type ShowServiceInterface interface {
	CreateShow(ctx context.Context, input application.CreateShowInput) (*show.Show, error)
	GetShow(ctx context.Context, id string) (*show.Show, error)
	ListShows(ctx context.Context, date *time.Time) ([]*show.ListItem, error)
	DeleteShow(ctx context.Context, id string) error
}

// SeatServiceInterface は座席サービスのインターフェース
type SeatServiceInterface interface {
	GetSeatMap(ctx context.Context, showID string) (*application.SeatMap, error)
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	Allocate(ctx context.Context, input application.AllocateInput) (*application.AllocationResult, error)
	Confirm(ctx context.Context, bookingID string) (*application.ConfirmResult, error)
	GetBooking(ctx context.Context, bookingID string) (*application.BookingDetail, error)
	ListBookings(ctx context.Context) ([]*booking.ListItem, error)
}
