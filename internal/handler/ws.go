package handler

import (
    "net/http"

    "github.com/gorilla/websocket"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-hold-engine/internal/hub"
)

var upgrader = websocket.Upgrader{
    ReadBufferSize:  1024,
    WriteBufferSize: 4096,
    // The browser client is served from a different origin in every
    // deployment we run; auth happens at subscribe time, not via origin.
    CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades GET /v1/showtimes/:id/ws to a websocket and streams
// seat-status changes for the showtime.  The first frame is always the
// full snapshot; disconnecting only drops the stream, it never releases
// held seats.
type WSHandler struct {
    Hub *hub.Hub
}

// NewWSHandler constructs a WSHandler.
func NewWSHandler(h *hub.Hub) *WSHandler {
    if h == nil {
        panic("nil hub passed to NewWSHandler")
    }
    return &WSHandler{Hub: h}
}

// Subscribe performs the upgrade and blocks for the lifetime of the
// connection.
func (h *WSHandler) Subscribe(c echo.Context) error {
    showtimeID := c.Param("id")
    conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "websocket upgrade failed"})
    }
    // ServeWS blocks until the connection finishes.  A subscribe failure
    // (unknown showtime) already sent a close frame; nothing to add here.
    _ = hub.ServeWS(h.Hub, showtimeID, conn)
    return nil
}
