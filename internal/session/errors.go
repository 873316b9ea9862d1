// Package session owns the mapping from (user, showtime) to the user's
// current hold session and mediates every client-facing hold request
// through the seat map store.  It is also home to the expiry sweeper,
// the only component allowed to move a session out of ACTIVE without a
// direct user action.
package session

import "errors"

// ErrNoActiveSession is returned when an operation requires an existing
// hold session for the (user, showtime) pair and none is active.  The
// booking flow translates it into a "seats no longer available" outcome.
var ErrNoActiveSession = errors.New("no active hold session")
