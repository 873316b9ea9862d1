package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/seat-hold-engine/internal/config"
    "github.com/iliyamo/seat-hold-engine/internal/handler"
    "github.com/iliyamo/seat-hold-engine/internal/middleware"
)

// Handlers bundles the handler groups the router wires up.
type Handlers struct {
    Hold    *handler.HoldHandler
    Payment *handler.PaymentHandler
    Admin   *handler.AdminHandler
    WS      *handler.WSHandler
}

// Register wires every route of the hold engine onto the Echo instance.
//
// Public routes require no token: guests browse seat availability and the
// websocket stream before logging in.  Customer routes require a CUSTOMER
// JWT; the payment seam accepts PAYMENT as well so the booking service
// can act on the customer's behalf; admin routes require OWNER.  The
// Redis-backed token bucket shields the hold endpoints; seat contention
// bursts in the seconds after a popular showtime opens are the hot path.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
    e.Use(middleware.Metrics())

    e.GET("/healthz", handler.Health)
    e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

    // Public browse surface.
    e.GET("/v1/showtimes/:id/seats", h.Hold.Snapshot)
    e.GET("/v1/showtimes/:id/ws", h.WS.Subscribe)

    // Customer-facing hold operations.
    customer := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("CUSTOMER"),
        middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
    )
    customer.POST("/showtimes/:id/hold", h.Hold.SelectSeats)
    customer.DELETE("/showtimes/:id/hold", h.Hold.DeselectSeats)
    customer.GET("/showtimes/:id/hold/ttl", h.Hold.GetTTL)
    customer.POST("/showtimes/:id/cancel", h.Hold.Cancel)
    customer.GET("/my-reservations", h.Hold.ListReservations)

    // Payment/booking flow seam.
    payment := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("CUSTOMER", "PAYMENT"),
    )
    payment.POST("/showtimes/:id/finalize", h.Payment.Finalize)
    payment.POST("/showtimes/:id/confirm", h.Payment.Confirm)
    payment.POST("/showtimes/:id/payment-failed", h.Payment.PaymentFailed)

    // Hall/seat administration seam.
    admin := e.Group(
        "/v1/admin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("OWNER"),
    )
    admin.PUT("/showtimes/:id/seatmap", h.Admin.Materialize)
    admin.DELETE("/showtimes/:id/seatmap", h.Admin.Retire)
    admin.PATCH("/showtimes/:id/seats/:label/status", h.Admin.SetSeatStatus)
    admin.POST("/showtimes/:id/seats/void", h.Admin.Void)
}
