package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-hold-engine/internal/booking"
)

// PaymentHandler exposes the seam the payment/booking flow drives.  The
// three endpoints mirror the hold endgame: finalize hands the session to
// payment, confirm settles success, payment-failed settles failure.  A
// 409 with "seats_no_longer_available" tells the booking flow to send the
// customer back to seat selection rather than retrying payment.
type PaymentHandler struct {
    Finalizer *booking.Finalizer
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(f *booking.Finalizer) *PaymentHandler {
    if f == nil {
        panic("nil finalizer passed to NewPaymentHandler")
    }
    return &PaymentHandler{Finalizer: f}
}

// Finalize handles POST /v1/showtimes/:id/finalize.  It freezes the hold
// against sweeper expiry while payment is in flight and returns the
// session summary the payment flow charges against.
func (h *PaymentHandler) Finalize(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    sess, err := h.Finalizer.Finalize(userID, c.Param("id"))
    if err != nil {
        if errors.Is(err, booking.ErrSeatsNoLongerHeld) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "seats_no_longer_available"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to finalize hold"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "session_id": sess.ID,
        "seats":      sess.SeatLabels(),
        "state":      sess.State,
    })
}

// Confirm handles POST /v1/showtimes/:id/confirm, invoked on payment
// success.  The body may carry the external payment reference.
func (h *PaymentHandler) Confirm(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        PaymentRef string `json:"payment_ref"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    conf, err := h.Finalizer.CompletePayment(c.Request().Context(), userID, c.Param("id"), body.PaymentRef)
    if err != nil {
        if errors.Is(err, booking.ErrSeatsNoLongerHeld) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "seats_no_longer_available"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm booking"})
    }
    return c.JSON(http.StatusCreated, conf)
}

// PaymentFailed handles POST /v1/showtimes/:id/payment-failed, invoked on
// payment failure or abandonment.  The hold's seats return to AVAILABLE.
func (h *PaymentHandler) PaymentFailed(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.Finalizer.FailPayment(userID, c.Param("id")); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release hold"})
    }
    return c.NoContent(http.StatusNoContent)
}
