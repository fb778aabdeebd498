package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-show-seat-booking/internal/domain/show"
)

type SeatHandler struct {
	service SeatServiceInterface
}

func NewSeatHandler(s SeatServiceInterface) *SeatHandler {
	return &SeatHandler{service: s}
}

type SeatMapEntryResponse struct {
	SeatNumber int    `json:"seat_number" example:"1"`
	Status     string `json:"status" example:"available"`
}

type SeatCountsResponse struct {
	Available int `json:"available" example:"80"`
	Booked    int `json:"booked" example:"15"`
	Held      int `json:"held" example:"5"`
}

type SeatMapResponse struct {
	ShowID string                 `json:"show_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Seats  []SeatMapEntryResponse `json:"seats"`
	Counts SeatCountsResponse     `json:"counts"`
}

// GetSeatMap godoc
// @Summary 座席マップを取得
// @Description 公演の座席マップを状態別座席数付きで取得します
// @Tags seats
// @Produce json
// @Param id path string true "公演ID"
// @Success 200 {object} SeatMapResponse
// @Failure 404 {object} map[string]string
// @Router /shows/{id}/seats [get]
func (h *SeatHandler) GetSeatMap(c echo.Context) error {
	showID := c.Param("id")
	sm, err := h.service.GetSeatMap(c.Request().Context(), showID)
	if err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	seats := make([]SeatMapEntryResponse, len(sm.Seats))
	for i, entry := range sm.Seats {
		seats[i] = SeatMapEntryResponse{
			SeatNumber: entry.SeatNumber,
			Status:     string(entry.Status),
		}
	}
	return c.JSON(http.StatusOK, SeatMapResponse{
		ShowID: sm.ShowID,
		Seats:  seats,
		Counts: SeatCountsResponse{
			Available: sm.Counts.Available,
			Booked:    sm.Counts.Booked,
			Held:      sm.Counts.Held,
		},
	})
}
