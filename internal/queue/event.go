// Package queue defines the domain events exchanged over the message
// broker, the publisher that emits them and the background consumer that
// records them.
package queue

// BookingConfirmedEvent is published when a hold is converted into a
// confirmed reservation.  It carries enough information for downstream
// consumers to log, notify or trigger analytics without querying the
// primary database.
type BookingConfirmedEvent struct {
    ReservationID uint64   `json:"reservation_id"`
    UserID        string   `json:"user_id"`
    ShowtimeID    string   `json:"showtime_id"`
    SeatLabels    []string `json:"seats"`
    PaymentRef    string   `json:"payment_ref"`
    ConfirmedAt   string   `json:"confirmed_at"`
}
