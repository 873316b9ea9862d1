package model

import (
    "sort"
    "time"
)

// SessionState is the lifecycle state of a hold session.
//
//  ACTIVE    – the user is selecting seats; the TTL clock is running.
//  FINALIZED – handed off to the payment flow; exempt from sweeper expiry
//              until the payment outcome confirms or releases the seats.
//  EXPIRED   – the TTL elapsed with no action; terminal.
//  RELEASED  – the user (or a failed payment) abandoned the hold; terminal.
type SessionState string

const (
    SessionActive    SessionState = "ACTIVE"
    SessionFinalized SessionState = "FINALIZED"
    SessionExpired   SessionState = "EXPIRED"
    SessionReleased  SessionState = "RELEASED"
)

// HoldSession is one user's in-progress seat selection for one showtime.
// At most one ACTIVE session exists per (user, showtime) pair; a new hold
// request for the same pair reuses the existing session rather than
// creating a second one.  The session owns a single ExpiresAt for all its
// seats; the booking UI shows one whole-session countdown, not per-seat
// timers.
//
// Fields:
//  ID         – opaque identifier derived from (UserID, ShowtimeID).
//  UserID     – authenticated user owning the hold.
//  ShowtimeID – showtime the seats belong to.
//  Seats      – set of held seat labels.
//  ExpiresAt  – when the hold lapses; extends only on successful selects.
//  State      – lifecycle state, see SessionState.
//  CreatedAt  – when the session was first created.
type HoldSession struct {
    ID         string              `json:"id"`
    UserID     string              `json:"user_id"`
    ShowtimeID string              `json:"showtime_id"`
    Seats      map[string]struct{} `json:"-"`
    ExpiresAt  time.Time           `json:"expires_at"`
    State      SessionState        `json:"state"`
    CreatedAt  time.Time           `json:"created_at"`
}

// SessionID derives the opaque session identifier for a (user, showtime)
// pair.  The derivation is deterministic so that repeated hold requests
// from the same user for the same showtime land on the same session.
func SessionID(userID, showtimeID string) string {
    return userID + "/" + showtimeID
}

// SeatLabels returns the session's seat set as a sorted slice.  The copy
// is safe to hand to callers outside the session manager's lock.
func (s *HoldSession) SeatLabels() []string {
    labels := make([]string, 0, len(s.Seats))
    for l := range s.Seats {
        labels = append(labels, l)
    }
    sort.Strings(labels)
    return labels
}
