package session

import (
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/seat-hold-engine/internal/model"
    "github.com/iliyamo/seat-hold-engine/internal/store"
)

// recordingPublisher captures published events so tests can assert on the
// broadcast seam without a real hub.
type recordingPublisher struct {
    mu     sync.Mutex
    events []model.SeatEvent
}

func (p *recordingPublisher) Publish(showtimeID string, events ...model.SeatEvent) {
    p.mu.Lock()
    p.events = append(p.events, events...)
    p.mu.Unlock()
}

func (p *recordingPublisher) byType(t model.SeatEventType) []model.SeatEvent {
    p.mu.Lock()
    defer p.mu.Unlock()
    var out []model.SeatEvent
    for _, ev := range p.events {
        if ev.Type == t {
            out = append(out, ev)
        }
    }
    return out
}

func newTestManager(t *testing.T, ttl time.Duration) (*Manager, *store.SeatMap, *recordingPublisher) {
    t.Helper()
    seats := store.NewSeatMap()
    seats.Materialize("st-1", []model.Seat{
        {Label: "A1"}, {Label: "A2"}, {Label: "A3"},
    })
    pub := &recordingPublisher{}
    return NewManager(seats, pub, ttl), seats, pub
}

func TestSelectSeatsCreatesSessionAndPublishes(t *testing.T) {
    mgr, _, pub := newTestManager(t, 10*time.Minute)

    sess, res, err := mgr.SelectSeats("u1", "st-1", []string{"A1", "A2", "A1"})
    require.NoError(t, err)
    require.True(t, res.OK)
    assert.Equal(t, []string{"A1", "A2"}, sess.SeatLabels())
    assert.Equal(t, model.SessionActive, sess.State)
    assert.Equal(t, model.SessionID("u1", "st-1"), sess.ID)
    assert.Equal(t, 1, mgr.ActiveSessions())

    held := pub.byType(model.EventSeatHeld)
    require.Len(t, held, 2)
    assert.Equal(t, "st-1", held[0].ShowtimeID)
}

func TestSelectSeatsConflictLeavesSessionUntouched(t *testing.T) {
    mgr, _, _ := newTestManager(t, 10*time.Minute)

    first, res, err := mgr.SelectSeats("u1", "st-1", []string{"A1"})
    require.NoError(t, err)
    require.True(t, res.OK)

    // A second user asking for an overlapping set is rejected wholesale.
    sess, res, err := mgr.SelectSeats("u2", "st-1", []string{"A1", "A2"})
    require.NoError(t, err)
    assert.False(t, res.OK)
    assert.Equal(t, []string{"A1"}, res.Conflicts)
    assert.Nil(t, sess)

    // No session was created for the rejected request.
    assert.Equal(t, 1, mgr.ActiveSessions())
    assert.Equal(t, first.SeatLabels(), []string{"A1"})
}

func TestSelectSeatsResetsTTL(t *testing.T) {
    mgr, _, _ := newTestManager(t, 10*time.Minute)

    base := time.Now()
    mgr.now = func() time.Time { return base }

    sess, _, err := mgr.SelectSeats("u1", "st-1", []string{"A1"})
    require.NoError(t, err)
    firstExpiry := sess.ExpiresAt

    mgr.now = func() time.Time { return base.Add(3 * time.Minute) }
    sess, res, err := mgr.SelectSeats("u1", "st-1", []string{"A2"})
    require.NoError(t, err)
    require.True(t, res.OK)
    assert.Equal(t, firstExpiry.Add(3*time.Minute), sess.ExpiresAt)
    assert.Equal(t, []string{"A1", "A2"}, sess.SeatLabels())
    assert.Equal(t, 1, mgr.ActiveSessions())
}

func TestDeselectSeatsDoesNotExtendTTL(t *testing.T) {
    mgr, seats, pub := newTestManager(t, 10*time.Minute)

    base := time.Now()
    mgr.now = func() time.Time { return base }
    sess, _, err := mgr.SelectSeats("u1", "st-1", []string{"A1", "A2"})
    require.NoError(t, err)
    expiry := sess.ExpiresAt

    mgr.now = func() time.Time { return base.Add(time.Minute) }
    released, err := mgr.DeselectSeats("u1", "st-1", []string{"A2"})
    require.NoError(t, err)
    assert.Equal(t, []string{"A2"}, released)

    // TTL unchanged: 9 minutes remain of the original 10.
    assert.Equal(t, int(expiry.Sub(mgr.now())/time.Second), mgr.RemainingTTL("u1", "st-1"))

    snap, err := seats.Snapshot("st-1")
    require.NoError(t, err)
    assert.Equal(t, model.ReservationAvailable, snap["A2"])
    assert.Equal(t, model.ReservationHeld, snap["A1"])
    assert.Len(t, pub.byType(model.EventSeatReleased), 1)
}

func TestDeselectSeatsWithoutSession(t *testing.T) {
    mgr, _, _ := newTestManager(t, 10*time.Minute)
    _, err := mgr.DeselectSeats("u1", "st-1", []string{"A1"})
    assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestRemainingTTL(t *testing.T) {
    mgr, _, _ := newTestManager(t, 10*time.Minute)
    assert.Equal(t, 0, mgr.RemainingTTL("u1", "st-1"))

    base := time.Now()
    mgr.now = func() time.Time { return base }
    _, _, err := mgr.SelectSeats("u1", "st-1", []string{"A1"})
    require.NoError(t, err)
    assert.Equal(t, 600, mgr.RemainingTTL("u1", "st-1"))

    mgr.now = func() time.Time { return base.Add(11 * time.Minute) }
    assert.Equal(t, 0, mgr.RemainingTTL("u1", "st-1"))
}

func TestCancelReleasesEverything(t *testing.T) {
    mgr, seats, pub := newTestManager(t, 10*time.Minute)
    _, _, err := mgr.SelectSeats("u1", "st-1", []string{"A1", "A2"})
    require.NoError(t, err)

    released, err := mgr.Cancel("u1", "st-1")
    require.NoError(t, err)
    assert.Equal(t, []string{"A1", "A2"}, released)
    assert.Equal(t, 0, mgr.ActiveSessions())

    snap, err := seats.Snapshot("st-1")
    require.NoError(t, err)
    assert.Equal(t, model.ReservationAvailable, snap["A1"])
    assert.Len(t, pub.byType(model.EventSeatReleased), 2)

    _, err = mgr.Cancel("u1", "st-1")
    assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestFinalizeRequiresActiveNonEmptySession(t *testing.T) {
    mgr, _, _ := newTestManager(t, 10*time.Minute)

    _, err := mgr.Finalize("u1", "st-1")
    assert.ErrorIs(t, err, ErrNoActiveSession)

    _, _, err = mgr.SelectSeats("u1", "st-1", []string{"A1"})
    require.NoError(t, err)
    _, err = mgr.DeselectSeats("u1", "st-1", []string{"A1"})
    require.NoError(t, err)

    // Session exists but holds nothing; there is nothing to finalize.
    _, err = mgr.Finalize("u1", "st-1")
    assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestSelectSeatsRejectedWhilePaymentInFlight(t *testing.T) {
    mgr, seats, _ := newTestManager(t, 10*time.Minute)

    _, _, err := mgr.SelectSeats("u1", "st-1", []string{"A1"})
    require.NoError(t, err)
    sess, err := mgr.Finalize("u1", "st-1")
    require.NoError(t, err)
    expiry := sess.ExpiresAt

    // The frozen session must not grow seats or gain TTL mid-payment.
    _, _, err = mgr.SelectSeats("u1", "st-1", []string{"A2"})
    assert.ErrorIs(t, err, ErrNoActiveSession)

    snap, err := seats.Snapshot("st-1")
    require.NoError(t, err)
    assert.Equal(t, model.ReservationAvailable, snap["A2"])

    mgr.mu.Lock()
    stored := mgr.sessions[model.SessionID("u1", "st-1")]
    mgr.mu.Unlock()
    require.NotNil(t, stored)
    assert.True(t, expiry.Equal(stored.ExpiresAt))
    assert.Equal(t, []string{"A1"}, stored.SeatLabels())

    labels, err := mgr.ConfirmFinalized("u1", "st-1")
    require.NoError(t, err)
    assert.Equal(t, []string{"A1"}, labels)
}

func TestConfirmFinalizedConfirmsAndRetires(t *testing.T) {
    mgr, seats, pub := newTestManager(t, 10*time.Minute)
    _, _, err := mgr.SelectSeats("u1", "st-1", []string{"A1", "A2"})
    require.NoError(t, err)

    sess, err := mgr.Finalize("u1", "st-1")
    require.NoError(t, err)
    assert.Equal(t, model.SessionFinalized, sess.State)

    labels, err := mgr.ConfirmFinalized("u1", "st-1")
    require.NoError(t, err)
    assert.Equal(t, []string{"A1", "A2"}, labels)
    assert.Equal(t, 0, mgr.ActiveSessions())

    snap, err := seats.Snapshot("st-1")
    require.NoError(t, err)
    assert.Equal(t, model.ReservationConfirmed, snap["A1"])
    assert.Equal(t, model.ReservationConfirmed, snap["A2"])
    assert.Len(t, pub.byType(model.EventSeatConfirmed), 2)

    _, err = mgr.ConfirmFinalized("u1", "st-1")
    assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestExpireDueSkipsFinalizedAndFresh(t *testing.T) {
    mgr, seats, pub := newTestManager(t, 10*time.Minute)

    base := time.Now()
    mgr.now = func() time.Time { return base }

    _, _, err := mgr.SelectSeats("u1", "st-1", []string{"A1"})
    require.NoError(t, err)
    _, _, err = mgr.SelectSeats("u2", "st-1", []string{"A2"})
    require.NoError(t, err)
    _, err = mgr.Finalize("u2", "st-1")
    require.NoError(t, err)

    // Nothing is due yet.
    assert.Equal(t, 0, mgr.ExpireDue(base.Add(time.Minute)))

    // Past the TTL the ACTIVE session expires, the FINALIZED one is exempt.
    n := mgr.ExpireDue(base.Add(11 * time.Minute))
    assert.Equal(t, 1, n)
    assert.Equal(t, 1, mgr.ActiveSessions())

    snap, err := seats.Snapshot("st-1")
    require.NoError(t, err)
    assert.Equal(t, model.ReservationAvailable, snap["A1"])
    assert.Equal(t, model.ReservationHeld, snap["A2"])

    released := pub.byType(model.EventSeatReleased)
    require.Len(t, released, 1)
    assert.Equal(t, "A1", released[0].SeatLabel)

    // A second sweep finds nothing.
    assert.Equal(t, 0, mgr.ExpireDue(base.Add(12*time.Minute)))
}

func TestExpiredHoldIsGoneForConfirm(t *testing.T) {
    mgr, _, _ := newTestManager(t, 10*time.Minute)

    base := time.Now()
    mgr.now = func() time.Time { return base }
    _, _, err := mgr.SelectSeats("u1", "st-1", []string{"A1"})
    require.NoError(t, err)

    mgr.ExpireDue(base.Add(11 * time.Minute))

    _, err = mgr.ConfirmFinalized("u1", "st-1")
    assert.ErrorIs(t, err, ErrNoActiveSession)
}
