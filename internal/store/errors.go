// Package store owns the authoritative reservation-status table for every
// seat of every showtime.  It defines sentinel error values reused by the
// session manager and the booking finalizer to distinguish failure modes.
// Conflicts (a requested seat being unavailable) are deliberately NOT
// errors: they are expected, frequent, user-facing outcomes and are
// reported as structured HoldResult values instead.
package store

import "errors"

// ErrShowtimeNotFound is returned when an operation references a showtime
// whose seat map has never been materialized or has been retired.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrSeatNotFound is returned by admin operations that reference a seat
// label missing from the showtime's seat map.  Customer-facing hold
// requests report unknown labels as conflicts instead.
var ErrSeatNotFound = errors.New("seat not found")

// ErrOwnership is returned when a caller attempts to confirm seats it no
// longer owns, typically because the hold expired between the client
// action and server processing.  The booking flow must surface this as a
// distinct "seats no longer available" outcome so the customer re-selects
// instead of blindly retrying payment.
var ErrOwnership = errors.New("seats not held by session")
