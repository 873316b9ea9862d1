package model

// ReservationStatus is the booking state of one seat within one showtime.
// Exactly one value exists per (showtime, seat label) pair at any instant;
// the seat map store is the single writer.
//
// Transitions:
//  AVAILABLE -> HELD       (successful hold)
//  HELD      -> AVAILABLE  (release, cancel, TTL expiry)
//  HELD      -> CONFIRMED  (payment success; terminal for the engine)
//  CONFIRMED -> CANCELLED  (booking voided by an administrator)
type ReservationStatus string

const (
    ReservationAvailable ReservationStatus = "AVAILABLE"
    ReservationHeld      ReservationStatus = "HELD"
    ReservationConfirmed ReservationStatus = "CONFIRMED"
    ReservationCancelled ReservationStatus = "CANCELLED"
)
