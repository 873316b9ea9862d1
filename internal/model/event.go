package model

// SeatEventType identifies a seat-status change fanned out to viewers of a
// showtime.  The values double as the wire "type" field of the websocket
// frames delivered by the broadcast hub.
type SeatEventType string

const (
    EventSeatHeld      SeatEventType = "seat_held"
    EventSeatReleased  SeatEventType = "seat_released"
    EventSeatConfirmed SeatEventType = "seat_confirmed"
)

// SeatEvent is a single seat-status change.  Events carry no ordering
// guarantee across different seats; a subscriber reconciles against the
// snapshot it received on subscribe.
type SeatEvent struct {
    Type       SeatEventType `json:"type"`
    ShowtimeID string        `json:"showtime_id"`
    SeatLabel  string        `json:"seat_label"`
}
