package session

import (
    "sync"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/seat-hold-engine/internal/logger"
    "github.com/iliyamo/seat-hold-engine/internal/metrics"
    "github.com/iliyamo/seat-hold-engine/internal/model"
    "github.com/iliyamo/seat-hold-engine/internal/store"
)

// Publisher is the broadcast seam the manager fans seat events through.
// Publishing is fire-and-forget: implementations must not block, and the
// manager always publishes after its own locks are released.
type Publisher interface {
    Publish(showtimeID string, events ...model.SeatEvent)
}

// Manager owns the hold-session table.  Sessions are created lazily on
// the first successful hold and removed once they reach a terminal state,
// so the table only ever contains ACTIVE and FINALIZED sessions.  All
// seat-status mutation goes through the seat map store; the manager never
// touches reservation state directly.
type Manager struct {
    mu       sync.Mutex
    sessions map[string]*model.HoldSession
    seats    *store.SeatMap
    pub      Publisher
    holdTTL  time.Duration
    now      func() time.Time
}

// NewManager constructs a Manager bound to the seat map store.  pub may
// be nil in tests; events are then dropped.  holdTTL is the full
// countdown granted on every successful select.
func NewManager(seats *store.SeatMap, pub Publisher, holdTTL time.Duration) *Manager {
    if seats == nil {
        panic("nil seat map passed to NewManager")
    }
    return &Manager{
        sessions: make(map[string]*model.HoldSession),
        seats:    seats,
        pub:      pub,
        holdTTL:  holdTTL,
        now:      time.Now,
    }
}

func (m *Manager) publish(showtimeID string, events []model.SeatEvent) {
    if m.pub == nil || len(events) == 0 {
        return
    }
    m.pub.Publish(showtimeID, events...)
}

func seatEvents(t model.SeatEventType, showtimeID string, labels []string) []model.SeatEvent {
    events := make([]model.SeatEvent, 0, len(labels))
    for _, l := range labels {
        events = append(events, model.SeatEvent{Type: t, ShowtimeID: showtimeID, SeatLabel: l})
    }
    return events
}

// SelectSeats finds or creates the hold session for (userID, showtimeID)
// and merges seatLabels into it via an all-or-nothing hold.  On success
// the session TTL is reset to the full hold duration.  On rejection the
// conflicting seats are returned untouched in the HoldResult and the
// session (if any) keeps its previous seats and expiry; conflicts are
// expected outcomes, never errors.  A FINALIZED session rejects further
// selects with ErrNoActiveSession: once payment is in flight the seat
// set and the TTL are frozen, or the eventual confirm would cover seats
// the payment never priced.
func (m *Manager) SelectSeats(userID, showtimeID string, seatLabels []string) (*model.HoldSession, store.HoldResult, error) {
    seatLabels = dedupe(seatLabels)
    sessionID := model.SessionID(userID, showtimeID)

    m.mu.Lock()
    if sess, ok := m.sessions[sessionID]; ok && sess.State != model.SessionActive {
        m.mu.Unlock()
        return nil, store.HoldResult{}, ErrNoActiveSession
    }
    res, err := m.seats.TryHold(showtimeID, seatLabels, sessionID)
    if err != nil || !res.OK {
        m.mu.Unlock()
        if err == nil {
            metrics.HoldConflict()
        }
        return nil, res, err
    }

    sess, ok := m.sessions[sessionID]
    if !ok {
        now := m.now()
        sess = &model.HoldSession{
            ID:         sessionID,
            UserID:     userID,
            ShowtimeID: showtimeID,
            Seats:      make(map[string]struct{}, len(seatLabels)),
            State:      model.SessionActive,
            CreatedAt:  now,
        }
        m.sessions[sessionID] = sess
        metrics.SessionOpened()
    }
    for _, l := range res.Held {
        sess.Seats[l] = struct{}{}
    }
    sess.ExpiresAt = m.now().Add(m.holdTTL)
    snapshot := *sess
    m.mu.Unlock()

    metrics.HoldAccepted()
    m.publish(showtimeID, seatEvents(model.EventSeatHeld, showtimeID, res.Held))
    return &snapshot, res, nil
}

// DeselectSeats removes seats from the session's set, releasing them in
// the store.  The TTL is deliberately not reset: deselecting must not let
// a user extend a hold indefinitely.  Releasing seats the session does
// not own is a no-op.
func (m *Manager) DeselectSeats(userID, showtimeID string, seatLabels []string) ([]string, error) {
    sessionID := model.SessionID(userID, showtimeID)

    m.mu.Lock()
    sess, ok := m.sessions[sessionID]
    if !ok || sess.State != model.SessionActive {
        m.mu.Unlock()
        return nil, ErrNoActiveSession
    }
    released, err := m.seats.Release(showtimeID, dedupe(seatLabels), sessionID)
    if err != nil {
        m.mu.Unlock()
        return nil, err
    }
    for _, l := range released {
        delete(sess.Seats, l)
    }
    m.mu.Unlock()

    m.publish(showtimeID, seatEvents(model.EventSeatReleased, showtimeID, released))
    return released, nil
}

// RemainingTTL returns the whole seconds left on the user's ACTIVE hold
// for the showtime, or 0 when no such session exists.  Reading the TTL
// never extends it; this backs the client's reconnect/restore flow.
func (m *Manager) RemainingTTL(userID, showtimeID string) int {
    m.mu.Lock()
    defer m.mu.Unlock()

    sess, ok := m.sessions[model.SessionID(userID, showtimeID)]
    if !ok || sess.State != model.SessionActive {
        return 0
    }
    remaining := sess.ExpiresAt.Sub(m.now())
    if remaining <= 0 {
        return 0
    }
    return int(remaining / time.Second)
}

// Finalize hands the session off to the payment flow.  A FINALIZED
// session keeps its seats HELD but is exempt from sweeper expiry until
// the booking finalizer confirms or releases it.
func (m *Manager) Finalize(userID, showtimeID string) (*model.HoldSession, error) {
    m.mu.Lock()
    defer m.mu.Unlock()

    sess, ok := m.sessions[model.SessionID(userID, showtimeID)]
    if !ok || sess.State != model.SessionActive {
        return nil, ErrNoActiveSession
    }
    if len(sess.Seats) == 0 {
        return nil, ErrNoActiveSession
    }
    sess.State = model.SessionFinalized
    snapshot := *sess
    return &snapshot, nil
}

// ConfirmFinalized transitions the session's seats to CONFIRMED and
// retires the session.  It accepts both FINALIZED and ACTIVE sessions so
// a payment callback racing the finalize call still lands.  A store
// ownership failure (hold expired mid-payment) is passed through as
// store.ErrOwnership for the finalizer to translate.
func (m *Manager) ConfirmFinalized(userID, showtimeID string) ([]string, error) {
    sessionID := model.SessionID(userID, showtimeID)

    m.mu.Lock()
    sess, ok := m.sessions[sessionID]
    if !ok {
        m.mu.Unlock()
        return nil, ErrNoActiveSession
    }
    labels := sess.SeatLabels()
    if err := m.seats.Confirm(showtimeID, labels, sessionID); err != nil {
        m.mu.Unlock()
        return nil, err
    }
    delete(m.sessions, sessionID)
    metrics.SessionClosed()
    m.mu.Unlock()

    m.publish(showtimeID, seatEvents(model.EventSeatConfirmed, showtimeID, labels))
    return labels, nil
}

// Cancel is the explicit abandonment path: user-initiated cancel or a
// failed payment.  All held seats return to AVAILABLE and the session is
// retired as RELEASED.  Cancelling without a session is an error so the
// caller can distinguish a stale client.
func (m *Manager) Cancel(userID, showtimeID string) ([]string, error) {
    sessionID := model.SessionID(userID, showtimeID)

    m.mu.Lock()
    sess, ok := m.sessions[sessionID]
    if !ok {
        m.mu.Unlock()
        return nil, ErrNoActiveSession
    }
    released, err := m.seats.Release(showtimeID, sess.SeatLabels(), sessionID)
    if err != nil {
        m.mu.Unlock()
        return nil, err
    }
    sess.State = model.SessionReleased
    delete(m.sessions, sessionID)
    metrics.SessionClosed()
    m.mu.Unlock()

    m.publish(showtimeID, seatEvents(model.EventSeatReleased, showtimeID, released))
    return released, nil
}

// ExpireDue releases every ACTIVE session whose TTL has elapsed at the
// given instant.  The session state, not the seat status, decides what
// is skipped, so a session FINALIZED in the same instant the sweeper
// fires is left alone and CONFIRMED seats are never touched.  The scan is
// idempotent and safe to run concurrently with finalize/confirm.
func (m *Manager) ExpireDue(now time.Time) int {
    type expiry struct {
        showtimeID string
        released   []string
    }

    m.mu.Lock()
    var expired []expiry
    for id, sess := range m.sessions {
        if sess.State != model.SessionActive || now.Before(sess.ExpiresAt) {
            continue
        }
        released, err := m.seats.Release(sess.ShowtimeID, sess.SeatLabels(), id)
        if err != nil {
            logger.Warn("sweeper: release failed",
                zap.String("session_id", id), zap.Error(err))
            continue
        }
        sess.State = model.SessionExpired
        delete(m.sessions, id)
        metrics.SessionClosed()
        expired = append(expired, expiry{showtimeID: sess.ShowtimeID, released: released})
    }
    m.mu.Unlock()

    for _, e := range expired {
        metrics.SessionExpired()
        m.publish(e.showtimeID, seatEvents(model.EventSeatReleased, e.showtimeID, e.released))
    }
    return len(expired)
}

// ActiveSessions reports the number of sessions currently in the table.
func (m *Manager) ActiveSessions() int {
    m.mu.Lock()
    defer m.mu.Unlock()
    return len(m.sessions)
}

// dedupe drops duplicate and empty labels while preserving order, so a
// doubled label in the request body cannot hold a seat twice.
func dedupe(labels []string) []string {
    seen := make(map[string]struct{}, len(labels))
    out := make([]string, 0, len(labels))
    for _, l := range labels {
        if l == "" {
            continue
        }
        if _, ok := seen[l]; ok {
            continue
        }
        seen[l] = struct{}{}
        out = append(out, l)
    }
    return out
}
