package model

// SeatStatus is the physical condition of a seat.  It is controlled by
// hall administrators and is completely orthogonal to the reservation
// status: a seat can be BROKEN while a stale CONFIRMED booking still
// points at it.  Only ACTIVE seats may be placed on hold.
type SeatStatus string

const (
    SeatActive      SeatStatus = "ACTIVE"      // seat is usable and holdable
    SeatBroken      SeatStatus = "BROKEN"      // seat is physically unusable
    SeatMaintenance SeatStatus = "MAINTENANCE" // seat is temporarily out of service
)

// Seat describes one physical seat inside a showtime's seat map.  A seat
// is identified by its label, the stable row+number string the booking UI
// shows to customers (e.g. "A12").  Identity is immutable; only the
// physical status may be mutated, and only through the admin seam.
//
// Fields:
//  Label    – stable row+number identifier, unique within a showtime.
//  SeatType – pricing/layout category (STANDARD, VIP, COUPLE, ...).  The
//             engine carries it for snapshot consumers but never
//             interprets it.
//  Status   – physical condition, see SeatStatus.
type Seat struct {
    Label    string     `json:"label"`
    SeatType string     `json:"seat_type"`
    Status   SeatStatus `json:"status"`
}
