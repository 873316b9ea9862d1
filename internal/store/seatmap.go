package store

import (
    "sort"
    "sync"

    "github.com/iliyamo/seat-hold-engine/internal/model"
)

// seatEntry is the store's internal record for one seat.  Reservation
// status and physical status live side by side but are mutated through
// separate operations; owner attributes HELD (and later CONFIRMED) seats
// to the hold session that acquired them.
type seatEntry struct {
    seat        model.Seat
    reservation model.ReservationStatus
    owner       string
}

// showtimeSeats holds one showtime's seat table behind a coarse mutex.
// Seat maps are small (tens to low hundreds of seats), so a single lock
// per showtime keeps every multi-seat transition trivially atomic without
// per-seat lock ordering.  Critical sections never perform I/O.
type showtimeSeats struct {
    mu    sync.Mutex
    seats map[string]*seatEntry
}

// HoldResult reports the outcome of a TryHold call.  When OK is false,
// Conflicts lists exactly the seats that failed the availability check and
// the seat table is guaranteed to be untouched.
type HoldResult struct {
    OK        bool     `json:"ok"`
    Held      []string `json:"held,omitempty"`
    Conflicts []string `json:"conflicts,omitempty"`
}

// SeatMap is the linearizable, in-memory source of truth for reservation
// status.  Only the seat map mutates seat state; the session manager and
// sweeper drive it, and the broadcast hub reads snapshots from it.
type SeatMap struct {
    mu        sync.RWMutex
    showtimes map[string]*showtimeSeats
}

// NewSeatMap returns an empty seat map with no showtimes materialized.
func NewSeatMap() *SeatMap {
    return &SeatMap{showtimes: make(map[string]*showtimeSeats)}
}

// Materialize creates (or replaces) the seat map of a showtime.  Every
// seat starts AVAILABLE.  This is the external collaborator seam invoked
// when a showtime goes on sale.
func (m *SeatMap) Materialize(showtimeID string, seats []model.Seat) {
    st := &showtimeSeats{seats: make(map[string]*seatEntry, len(seats))}
    for _, s := range seats {
        if s.Status == "" {
            s.Status = model.SeatActive
        }
        st.seats[s.Label] = &seatEntry{seat: s, reservation: model.ReservationAvailable}
    }
    m.mu.Lock()
    m.showtimes[showtimeID] = st
    m.mu.Unlock()
}

// Retire destroys a showtime's seat map.  It returns ErrShowtimeNotFound
// when the showtime was never materialized.
func (m *SeatMap) Retire(showtimeID string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, ok := m.showtimes[showtimeID]; !ok {
        return ErrShowtimeNotFound
    }
    delete(m.showtimes, showtimeID)
    return nil
}

func (m *SeatMap) showtime(showtimeID string) (*showtimeSeats, error) {
    m.mu.RLock()
    st, ok := m.showtimes[showtimeID]
    m.mu.RUnlock()
    if !ok {
        return nil, ErrShowtimeNotFound
    }
    return st, nil
}

// TryHold atomically transitions the requested seats to HELD attributed to
// ownerSessionID.  Every seat must be AVAILABLE and physically ACTIVE, or
// already HELD by the same owner (idempotent re-hold).  If any seat fails
// the check the whole request is rejected with the conflicting labels and
// no partial state change occurs: a group booking must never end up with
// an unusable subset of its seats.
func (m *SeatMap) TryHold(showtimeID string, seatLabels []string, ownerSessionID string) (HoldResult, error) {
    st, err := m.showtime(showtimeID)
    if err != nil {
        return HoldResult{}, err
    }

    st.mu.Lock()
    defer st.mu.Unlock()

    var conflicts []string
    for _, label := range seatLabels {
        e, ok := st.seats[label]
        switch {
        case !ok:
            conflicts = append(conflicts, label)
        case e.seat.Status != model.SeatActive:
            conflicts = append(conflicts, label)
        case e.reservation == model.ReservationAvailable:
            // holdable
        case e.reservation == model.ReservationHeld && e.owner == ownerSessionID:
            // idempotent re-hold by the same session
        default:
            conflicts = append(conflicts, label)
        }
    }
    if len(conflicts) > 0 {
        sort.Strings(conflicts)
        return HoldResult{OK: false, Conflicts: conflicts}, nil
    }

    held := make([]string, 0, len(seatLabels))
    for _, label := range seatLabels {
        e := st.seats[label]
        e.reservation = model.ReservationHeld
        e.owner = ownerSessionID
        held = append(held, label)
    }
    sort.Strings(held)
    return HoldResult{OK: true, Held: held}, nil
}

// Release transitions seats from HELD back to AVAILABLE, but only when the
// caller owns them.  Seats not owned by ownerSessionID are skipped without
// error; stale or duplicate release messages must never disturb the true
// owner's hold.  The returned slice lists the seats actually released.
func (m *SeatMap) Release(showtimeID string, seatLabels []string, ownerSessionID string) ([]string, error) {
    st, err := m.showtime(showtimeID)
    if err != nil {
        return nil, err
    }

    st.mu.Lock()
    defer st.mu.Unlock()

    var released []string
    for _, label := range seatLabels {
        e, ok := st.seats[label]
        if !ok || e.reservation != model.ReservationHeld || e.owner != ownerSessionID {
            continue
        }
        e.reservation = model.ReservationAvailable
        e.owner = ""
        released = append(released, label)
    }
    sort.Strings(released)
    return released, nil
}

// Confirm transitions HELD seats owned by ownerSessionID to CONFIRMED.
// Ownership of the full set is verified before any seat changes, so a
// failure leaves the table untouched and returns ErrOwnership; the
// booking flow treats that as "seats no longer available".  CONFIRMED is
// terminal: no hold, release or sweeper action may revert it.
func (m *SeatMap) Confirm(showtimeID string, seatLabels []string, ownerSessionID string) error {
    st, err := m.showtime(showtimeID)
    if err != nil {
        return err
    }

    st.mu.Lock()
    defer st.mu.Unlock()

    for _, label := range seatLabels {
        e, ok := st.seats[label]
        if !ok || e.reservation != model.ReservationHeld || e.owner != ownerSessionID {
            return ErrOwnership
        }
    }
    for _, label := range seatLabels {
        st.seats[label].reservation = model.ReservationConfirmed
    }
    return nil
}

// Void transitions CONFIRMED seats to CANCELLED when a booking is voided
// by an administrator after the fact (refund, hall closure).  It is the
// only path out of CONFIRMED and is never taken by the hold machinery.
func (m *SeatMap) Void(showtimeID string, seatLabels []string) error {
    st, err := m.showtime(showtimeID)
    if err != nil {
        return err
    }

    st.mu.Lock()
    defer st.mu.Unlock()

    for _, label := range seatLabels {
        e, ok := st.seats[label]
        if !ok {
            return ErrSeatNotFound
        }
        if e.reservation != model.ReservationConfirmed {
            return ErrOwnership
        }
    }
    for _, label := range seatLabels {
        e := st.seats[label]
        e.reservation = model.ReservationCancelled
        e.owner = ""
    }
    return nil
}

// SetSeatStatus updates the physical status of one seat.  Physical status
// is orthogonal to reservation bookkeeping: marking a HELD seat BROKEN
// does not release the hold, it only prevents future holds once the
// current one lapses.
func (m *SeatMap) SetSeatStatus(showtimeID, seatLabel string, status model.SeatStatus) error {
    st, err := m.showtime(showtimeID)
    if err != nil {
        return err
    }

    st.mu.Lock()
    defer st.mu.Unlock()

    e, ok := st.seats[seatLabel]
    if !ok {
        return ErrSeatNotFound
    }
    e.seat.Status = status
    return nil
}

// Snapshot returns a copy of the showtime's reservation-status table.  It
// is the synchronization baseline sent to every new subscriber and backs
// the public seat-availability endpoint.  Reading a snapshot never
// creates ownership and never extends a hold.
func (m *SeatMap) Snapshot(showtimeID string) (map[string]model.ReservationStatus, error) {
    st, err := m.showtime(showtimeID)
    if err != nil {
        return nil, err
    }

    st.mu.Lock()
    defer st.mu.Unlock()

    out := make(map[string]model.ReservationStatus, len(st.seats))
    for label, e := range st.seats {
        out[label] = e.reservation
    }
    return out, nil
}

// Seats returns a copy of the showtime's physical seat list, sorted by
// label.  Used by the admin surface and the public snapshot endpoint.
func (m *SeatMap) Seats(showtimeID string) ([]model.Seat, error) {
    st, err := m.showtime(showtimeID)
    if err != nil {
        return nil, err
    }

    st.mu.Lock()
    defer st.mu.Unlock()

    out := make([]model.Seat, 0, len(st.seats))
    for _, e := range st.seats {
        out = append(out, e.seat)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
    return out, nil
}
