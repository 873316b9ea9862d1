package booking

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/seat-hold-engine/internal/model"
    "github.com/iliyamo/seat-hold-engine/internal/queue"
    "github.com/iliyamo/seat-hold-engine/internal/repository"
    "github.com/iliyamo/seat-hold-engine/internal/session"
    "github.com/iliyamo/seat-hold-engine/internal/store"
)

type fakeReservationStore struct {
    saved  []*repository.ConfirmedReservation
    nextID uint64
    err    error
}

func (f *fakeReservationStore) SaveConfirmed(_ context.Context, rec *repository.ConfirmedReservation) error {
    if f.err != nil {
        return f.err
    }
    f.nextID++
    rec.ID = f.nextID
    f.saved = append(f.saved, rec)
    return nil
}

func newTestFinalizer(t *testing.T, reservations ReservationStore, publish EventPublisher) (*Finalizer, *session.Manager, *store.SeatMap) {
    t.Helper()
    seats := store.NewSeatMap()
    seats.Materialize("st-1", []model.Seat{{Label: "A1"}, {Label: "A2"}})
    mgr := session.NewManager(seats, nil, 10*time.Minute)
    return NewFinalizer(mgr, reservations, publish), mgr, seats
}

func TestFinalizeWithoutHold(t *testing.T) {
    f, _, _ := newTestFinalizer(t, nil, nil)
    _, err := f.Finalize("u1", "st-1")
    assert.ErrorIs(t, err, ErrSeatsNoLongerHeld)
}

func TestCompletePaymentConfirmsPersistsAndPublishes(t *testing.T) {
    reservations := &fakeReservationStore{}
    var published []queue.BookingConfirmedEvent
    publish := func(_ context.Context, ev queue.BookingConfirmedEvent) error {
        published = append(published, ev)
        return nil
    }
    f, mgr, seats := newTestFinalizer(t, reservations, publish)

    _, _, err := mgr.SelectSeats("u1", "st-1", []string{"A1", "A2"})
    require.NoError(t, err)
    _, err = f.Finalize("u1", "st-1")
    require.NoError(t, err)

    conf, err := f.CompletePayment(context.Background(), "u1", "st-1", "pay-42")
    require.NoError(t, err)
    assert.Equal(t, uint64(1), conf.ReservationID)
    assert.Equal(t, []string{"A1", "A2"}, conf.SeatLabels)
    assert.Equal(t, "st-1", conf.ShowtimeID)

    snap, err := seats.Snapshot("st-1")
    require.NoError(t, err)
    assert.Equal(t, model.ReservationConfirmed, snap["A1"])

    require.Len(t, reservations.saved, 1)
    assert.Equal(t, "pay-42", reservations.saved[0].PaymentRef)

    require.Len(t, published, 1)
    assert.Equal(t, uint64(1), published[0].ReservationID)
    assert.Equal(t, []string{"A1", "A2"}, published[0].SeatLabels)
}

func TestCompletePaymentAfterExpiry(t *testing.T) {
    f, mgr, _ := newTestFinalizer(t, nil, nil)

    _, _, err := mgr.SelectSeats("u1", "st-1", []string{"A1"})
    require.NoError(t, err)
    mgr.ExpireDue(time.Now().Add(time.Hour))

    // The hold is gone; the payment flow must see the distinct outcome so
    // the client re-selects instead of retrying the payment.
    _, err = f.CompletePayment(context.Background(), "u1", "st-1", "pay-1")
    assert.ErrorIs(t, err, ErrSeatsNoLongerHeld)
}

func TestCompletePaymentPersistFailureStillConfirms(t *testing.T) {
    reservations := &fakeReservationStore{err: errors.New("db down")}
    f, mgr, seats := newTestFinalizer(t, reservations, nil)

    _, _, err := mgr.SelectSeats("u1", "st-1", []string{"A1"})
    require.NoError(t, err)

    conf, err := f.CompletePayment(context.Background(), "u1", "st-1", "pay-1")
    require.NoError(t, err)
    assert.Zero(t, conf.ReservationID)

    snap, err := seats.Snapshot("st-1")
    require.NoError(t, err)
    assert.Equal(t, model.ReservationConfirmed, snap["A1"])
}

func TestFailPaymentReleasesSeats(t *testing.T) {
    f, mgr, seats := newTestFinalizer(t, nil, nil)

    _, _, err := mgr.SelectSeats("u1", "st-1", []string{"A1"})
    require.NoError(t, err)
    _, err = f.Finalize("u1", "st-1")
    require.NoError(t, err)

    require.NoError(t, f.FailPayment("u1", "st-1"))

    snap, err := seats.Snapshot("st-1")
    require.NoError(t, err)
    assert.Equal(t, model.ReservationAvailable, snap["A1"])

    // A second failure callback finds nothing and is still not an error.
    assert.NoError(t, f.FailPayment("u1", "st-1"))
}
