package hub

import (
    "time"

    "github.com/google/uuid"
    "github.com/gorilla/websocket"
    "go.uber.org/zap"

    "github.com/iliyamo/seat-hold-engine/internal/logger"
)

const (
    // Time allowed to write a message to the peer.
    writeWait = 10 * time.Second

    // Time allowed to read the next pong message from the peer.
    pongWait = 60 * time.Second

    // Send pings with this period; must be less than pongWait.
    pingPeriod = (pongWait * 9) / 10

    // Inbound frames are control-only; anything larger is a misbehaving client.
    maxMessageSize = 1024
)

// Client bridges one websocket connection to a hub subscription.  The
// connection is read-only from the server's point of view: seat mutations
// go through the HTTP API, the socket only carries state downstream.
// A dropped connection does NOT release the viewer's held seats; only an
// explicit deselect/cancel or TTL expiry does, so a user who loses network
// for a few seconds keeps their selection.
type Client struct {
    id   string
    conn *websocket.Conn
    sub  *Subscription
}

// ServeWS attaches an upgraded websocket connection to the hub and runs
// the read/write pumps until either side goes away.  It blocks until the
// connection is finished, so handlers call it as the tail of the request.
func ServeWS(h *Hub, showtimeID string, conn *websocket.Conn) error {
    sub, err := h.Subscribe(showtimeID)
    if err != nil {
        _ = conn.WriteMessage(websocket.CloseMessage,
            websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
        _ = conn.Close()
        return err
    }

    c := &Client{id: uuid.NewString(), conn: conn, sub: sub}
    logger.Debug("ws client connected",
        zap.String("client_id", c.id), zap.String("showtime_id", showtimeID))

    go c.writePump()
    c.readPump(h)
    return nil
}

// readPump discards inbound frames and exists to detect disconnects and
// answer pings.  When the read loop ends the subscription is dropped.
func (c *Client) readPump(h *Hub) {
    defer func() {
        h.Unsubscribe(c.sub)
        _ = c.conn.Close()
        logger.Debug("ws client disconnected", zap.String("client_id", c.id))
    }()

    c.conn.SetReadLimit(maxMessageSize)
    _ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
    c.conn.SetPongHandler(func(string) error {
        return c.conn.SetReadDeadline(time.Now().Add(pongWait))
    })

    for {
        if _, _, err := c.conn.ReadMessage(); err != nil {
            if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
                logger.Debug("ws read error", zap.String("client_id", c.id), zap.Error(err))
            }
            return
        }
    }
}

// writePump forwards subscription messages to the peer and keeps the
// connection alive with periodic pings.
func (c *Client) writePump() {
    ticker := time.NewTicker(pingPeriod)
    defer func() {
        ticker.Stop()
        _ = c.conn.Close()
    }()

    for {
        select {
        case msg, ok := <-c.sub.C():
            _ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
            if !ok {
                _ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
                return
            }
            if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
                return
            }
        case <-ticker.C:
            _ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
            if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
                return
            }
        }
    }
}
