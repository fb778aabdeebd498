package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-show-seat-booking/internal/application"
	"github.com/sanosuguru/go-show-seat-booking/internal/domain/show"
)

type ShowHandler struct {
	service ShowServiceInterface
}

func NewShowHandler(s ShowServiceInterface) *ShowHandler {
	return &ShowHandler{service: s}
}

type CreateShowRequest struct {
	Name       string    `json:"name" validate:"required" example:"夜公演"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	TotalSeats int       `json:"total_seats" validate:"required,min=1" example:"100"`
}

type ShowResponse struct {
	ID         string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name       string    `json:"name" example:"夜公演"`
	StartTime  time.Time `json:"start_time"`
	TotalSeats int       `json:"total_seats" example:"100"`
	CreatedAt  time.Time `json:"created_at"`
}

type ShowListItemResponse struct {
	ShowResponse
	AvailableSeats int `json:"available_seats" example:"80"`
	BookedSeats    int `json:"booked_seats" example:"15"`
	HeldSeats      int `json:"held_seats" example:"5"`
}

func toShowResponse(s *show.Show) ShowResponse {
	return ShowResponse{
		ID:         s.ID,
		Name:       s.Name,
		StartTime:  s.StartTime,
		TotalSeats: s.TotalSeats,
		CreatedAt:  s.CreatedAt,
	}
}

// Create godoc
// @Summary 公演を作成
// @Description 公演を作成し、座席 1..total_seats を実体化します
// @Tags shows
// @Accept json
// @Produce json
// @Param request body CreateShowRequest true "公演情報"
// @Success 201 {object} ShowResponse
// @Failure 400 {object} map[string]string
// @Router /shows [post]
func (h *ShowHandler) Create(c echo.Context) error {
	var req CreateShowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	s, err := h.service.CreateShow(c.Request().Context(), application.CreateShowInput{
		Name:       req.Name,
		StartTime:  req.StartTime,
		TotalSeats: req.TotalSeats,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, toShowResponse(s))
}

// List godoc
// @Summary 公演一覧を取得
// @Description 公演一覧を席数集計付きで取得します
// @Tags shows
// @Produce json
// @Param date query string false "開始日で絞り込み (YYYY-MM-DD)"
// @Success 200 {array} ShowListItemResponse
// @Failure 400 {object} map[string]string
// @Router /shows [get]
func (h *ShowHandler) List(c echo.Context) error {
	var date *time.Time
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "日付は YYYY-MM-DD 形式で指定してください")
		}
		date = &d
	}
	items, err := h.service.ListShows(c.Request().Context(), date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]ShowListItemResponse, len(items))
	for i, item := range items {
		resp[i] = ShowListItemResponse{
			ShowResponse:   toShowResponse(&item.Show),
			AvailableSeats: item.AvailableSeats,
			BookedSeats:    item.BookedSeats,
			HeldSeats:      item.HeldSeats,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary 公演を取得
// @Description 指定IDの公演を取得します
// @Tags shows
// @Produce json
// @Param id path string true "公演ID"
// @Success 200 {object} ShowResponse
// @Failure 404 {object} map[string]string
// @Router /shows/{id} [get]
func (h *ShowHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	s, err := h.service.GetShow(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toShowResponse(s))
}

// Delete godoc
// @Summary 公演を削除
// @Description 公演を座席・予約ごと削除します
// @Tags shows
// @Produce json
// @Param id path string true "公演ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string
// @Router /shows/{id} [delete]
func (h *ShowHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.service.DeleteShow(c.Request().Context(), id); err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
