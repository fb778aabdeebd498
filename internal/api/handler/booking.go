package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-show-seat-booking/internal/application"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/show"
	"github.com/sanosuguru/go-show-seat-booking/internal/pkg/metrics"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

// observeAllocation は座席割当の結果をメトリクスに記録する
func observeAllocation(mode, result string) {
	if m := metrics.Get(); m != nil {
		m.AllocationsTotal.WithLabelValues(mode, result).Inc()
	}
}

type CreateBookingRequest struct {
	ShowID      string `json:"show_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	SeatNumbers []int  `json:"seat_numbers" validate:"required,min=1" example:"1,2,3"`
	Mode        string `json:"mode" validate:"required,oneof=hold confirm" example:"hold"`
}

type BookingResponse struct {
	ID            string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ShowID        string     `json:"show_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status        string     `json:"status" example:"PENDING"`
	SeatNumbers   []int      `json:"seat_numbers" example:"1,2,3"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}

type BookingListItemResponse struct {
	ID          string    `json:"id"`
	ShowID      string    `json:"show_id"`
	ShowName    string    `json:"show_name"`
	StartTime   time.Time `json:"start_time"`
	Status      string    `json:"status"`
	SeatCount   int       `json:"seat_count"`
	SeatNumbers []int     `json:"seat_numbers"`
	CreatedAt   time.Time `json:"created_at"`
}

// Create godoc
// @Summary 座席を確保して予約を作成
// @Description 指定座席の全席確保を試みます。hold は保留、confirm は即時確定です
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} BookingResponse "1席以上確保できなかった"
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.service.Allocate(c.Request().Context(), application.AllocateInput{
		ShowID:      req.ShowID,
		SeatNumbers: req.SeatNumbers,
		Mode:        application.AllocationMode(req.Mode),
	})
	if err != nil {
		switch {
		case errors.Is(err, show.ErrShowNotFound):
			observeAllocation(req.Mode, "rejected")
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, show.ErrOutsideBookingWindow),
			errors.Is(err, seat.ErrSeatNumbersRequired),
			errors.Is(err, seat.ErrDuplicateSeatNumbers),
			errors.Is(err, seat.ErrSeatNumberOutOfRange),
			errors.Is(err, application.ErrInvalidAllocationMode):
			observeAllocation(req.Mode, "rejected")
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			observeAllocation(req.Mode, "error")
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	observeAllocation(req.Mode, strings.ToLower(string(result.Status)))

	resp := BookingResponse{
		ID:            result.BookingID,
		ShowID:        result.ShowID,
		Status:        string(result.Status),
		SeatNumbers:   result.ClaimedSeats,
		HoldExpiresAt: result.HoldExpiresAt,
	}

	// 全席取れなかった場合は予約行（FAILED）ごと 409 で返す
	if result.Status == booking.StatusFailed {
		return c.JSON(http.StatusConflict, resp)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Confirm godoc
// @Summary 保留中の予約を確定
// @Description 保留中の座席を確定します。保留が全席失効していた場合、予約は FAILED になります
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} BookingResponse "保留が全席失効していた"
// @Router /bookings/{id}/confirm [post]
func (h *BookingHandler) Confirm(c echo.Context) error {
	id := c.Param("id")
	result, err := h.service.Confirm(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		if errors.Is(err, booking.ErrBookingNotPending) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := BookingResponse{
		ID:          result.BookingID,
		ShowID:      result.ShowID,
		Status:      string(result.Status),
		SeatNumbers: result.ConfirmedSeats,
	}
	if result.Status == booking.StatusFailed {
		return c.JSON(http.StatusConflict, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を座席付きで取得します
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	detail, err := h.service.GetBooking(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	seatNumbers := make([]int, len(detail.Seats))
	for i, se := range detail.Seats {
		seatNumbers[i] = se.SeatNumber
	}
	return c.JSON(http.StatusOK, BookingResponse{
		ID:            detail.Booking.ID,
		ShowID:        detail.Booking.ShowID,
		Status:        string(detail.Booking.Status),
		SeatNumbers:   seatNumbers,
		HoldExpiresAt: detail.HoldExpiresAt,
	})
}

// List godoc
// @Summary 予約一覧を取得
// @Description 予約一覧を公演情報・座席集計付きで取得します
// @Tags bookings
// @Produce json
// @Success 200 {array} BookingListItemResponse
// @Router /bookings [get]
func (h *BookingHandler) List(c echo.Context) error {
	items, err := h.service.ListBookings(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]BookingListItemResponse, len(items))
	for i, item := range items {
		resp[i] = BookingListItemResponse{
			ID:          item.ID,
			ShowID:      item.ShowID,
			ShowName:    item.ShowName,
			StartTime:   item.StartTime,
			Status:      string(item.Status),
			SeatCount:   item.SeatCount,
			SeatNumbers: item.SeatNumbers,
			CreatedAt:   item.CreatedAt,
		}
	}
	return c.JSON(http.StatusOK, resp)
}
