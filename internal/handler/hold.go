package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-hold-engine/internal/repository"
    "github.com/iliyamo/seat-hold-engine/internal/session"
    "github.com/iliyamo/seat-hold-engine/internal/store"
)

// HoldHandler exposes the customer-facing hold operations.  All methods
// assume JWT authentication and role validation ran in middleware; the
// user ID is read from the request context.  Conflicts are returned as
// structured 409 responses listing exactly the seats that failed, never
// as opaque errors: the UI must be able to tell the user which seats to
// pick differently.
type HoldHandler struct {
    Manager      *session.Manager
    Seats        *store.SeatMap
    Reservations *repository.ReservationRepo // nil when persistence is disabled
}

// NewHoldHandler constructs a HoldHandler.  reservations may be nil.
func NewHoldHandler(mgr *session.Manager, seats *store.SeatMap, reservations *repository.ReservationRepo) *HoldHandler {
    if mgr == nil || seats == nil {
        panic("nil dependency passed to NewHoldHandler")
    }
    return &HoldHandler{Manager: mgr, Seats: seats, Reservations: reservations}
}

type seatSelection struct {
    Seats []string `json:"seats"`
}

// SelectSeats handles POST /v1/showtimes/:id/hold.  The body carries a
// "seats" array of seat labels.  On success the full session TTL is
// granted and the response reports the new expiry; on conflict a 409
// lists the unavailable seats and no seat changed state.
func (h *HoldHandler) SelectSeats(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    showtimeID := c.Param("id")
    if showtimeID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
    }
    var body seatSelection
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if len(body.Seats) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
    }

    sess, res, err := h.Manager.SelectSeats(userID, showtimeID, body.Seats)
    if err != nil {
        if errors.Is(err, store.ErrShowtimeNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
        }
        if errors.Is(err, session.ErrNoActiveSession) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "hold is pending payment"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to hold seats"})
    }
    if !res.OK {
        return c.JSON(http.StatusConflict, echo.Map{
            "error":     "some seats are unavailable",
            "conflicts": res.Conflicts,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{
        "expires_at": sess.ExpiresAt.UTC().Format(time.RFC3339),
        "held":       sess.SeatLabels(),
    })
}

// DeselectSeats handles DELETE /v1/showtimes/:id/hold.  Seats in the body
// are released; seats the caller does not own are skipped silently.  The
// hold TTL is not extended.
func (h *HoldHandler) DeselectSeats(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    showtimeID := c.Param("id")
    var body seatSelection
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    released, err := h.Manager.DeselectSeats(userID, showtimeID, body.Seats)
    if err != nil {
        if errors.Is(err, session.ErrNoActiveSession) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no active hold"})
        }
        if errors.Is(err, store.ErrShowtimeNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release seats"})
    }
    if released == nil {
        released = []string{} // the response contract is an array, never null
    }
    return c.JSON(http.StatusOK, echo.Map{"released": released})
}

// GetTTL handles GET /v1/showtimes/:id/hold/ttl.  It returns the whole
// seconds remaining on the user's hold, or 0 when none is active; the
// client uses this to restore its countdown after a reconnect.
func (h *HoldHandler) GetTTL(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ttl := h.Manager.RemainingTTL(userID, c.Param("id"))
    return c.JSON(http.StatusOK, echo.Map{"ttl_seconds": ttl})
}

// Cancel handles POST /v1/showtimes/:id/cancel, the explicit user-initiated
// abandonment.  All held seats return to AVAILABLE.
func (h *HoldHandler) Cancel(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if _, err := h.Manager.Cancel(userID, c.Param("id")); err != nil {
        if errors.Is(err, session.ErrNoActiveSession) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no active hold"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel hold"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Snapshot handles GET /v1/showtimes/:id/seats.  It is public so guests
// can preview availability before logging in.  The response combines the
// physical seat list with the current reservation status per label;
// reading it never creates ownership.
func (h *HoldHandler) Snapshot(c echo.Context) error {
    showtimeID := c.Param("id")
    snap, err := h.Seats.Snapshot(showtimeID)
    if err != nil {
        if errors.Is(err, store.ErrShowtimeNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
    }
    seats, err := h.Seats.Seats(showtimeID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "showtime_id": showtimeID,
        "seats":       seats,
        "reservation": snap,
    })
}

// ListReservations handles GET /v1/my-reservations.  Returns the user's
// confirmed bookings from the durable store; an empty array when
// persistence is disabled or nothing was booked.
func (h *HoldHandler) ListReservations(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if h.Reservations == nil {
        return c.JSON(http.StatusOK, echo.Map{"items": []struct{}{}})
    }
    items, err := h.Reservations.ListByUser(c.Request().Context(), userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}
