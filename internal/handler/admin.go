package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-hold-engine/internal/model"
    "github.com/iliyamo/seat-hold-engine/internal/store"
)

// AdminHandler exposes the administration seam of the seat map: seat-map
// lifecycle and physical seat status.  Routes are protected by the OWNER
// role; none of these operations touch hold sessions.
type AdminHandler struct {
    Seats *store.SeatMap
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(seats *store.SeatMap) *AdminHandler {
    if seats == nil {
        panic("nil seat map passed to NewAdminHandler")
    }
    return &AdminHandler{Seats: seats}
}

// Materialize handles PUT /v1/admin/showtimes/:id/seatmap.  The body is
// the physical seat list; every seat starts AVAILABLE.  Re-materializing
// an existing showtime replaces its seat map wholesale.
func (h *AdminHandler) Materialize(c echo.Context) error {
    showtimeID := c.Param("id")
    var body struct {
        Seats []model.Seat `json:"seats"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if len(body.Seats) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
    }
    for _, s := range body.Seats {
        if s.Label == "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat label is required"})
        }
    }
    h.Seats.Materialize(showtimeID, body.Seats)
    return c.JSON(http.StatusCreated, echo.Map{"showtime_id": showtimeID, "seats": len(body.Seats)})
}

// Retire handles DELETE /v1/admin/showtimes/:id/seatmap.  Destroys the
// showtime's seat map; outstanding holds die with it.
func (h *AdminHandler) Retire(c echo.Context) error {
    if err := h.Seats.Retire(c.Param("id")); err != nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
    }
    return c.NoContent(http.StatusNoContent)
}

// SetSeatStatus handles PATCH /v1/admin/showtimes/:id/seats/:label/status.
// Physical status is orthogonal to reservation status: a BROKEN seat is
// never holdable but an existing hold or confirmed booking on it is left
// for the normal lifecycle (or Void) to settle.
func (h *AdminHandler) SetSeatStatus(c echo.Context) error {
    var body struct {
        Status model.SeatStatus `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    switch body.Status {
    case model.SeatActive, model.SeatBroken, model.SeatMaintenance:
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat status"})
    }

    err := h.Seats.SetSeatStatus(c.Param("id"), c.Param("label"), body.Status)
    if err != nil {
        if errors.Is(err, store.ErrShowtimeNotFound) || errors.Is(err, store.ErrSeatNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update seat"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Void handles POST /v1/admin/showtimes/:id/seats/void.  Transitions
// CONFIRMED seats to CANCELLED when a booking is voided after the fact.
func (h *AdminHandler) Void(c echo.Context) error {
    var body seatSelection
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if len(body.Seats) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
    }

    err := h.Seats.Void(c.Param("id"), body.Seats)
    if err != nil {
        switch {
        case errors.Is(err, store.ErrShowtimeNotFound), errors.Is(err, store.ErrSeatNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
        case errors.Is(err, store.ErrOwnership):
            return c.JSON(http.StatusConflict, echo.Map{"error": "seats are not confirmed"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to void seats"})
        }
    }
    return c.NoContent(http.StatusNoContent)
}
