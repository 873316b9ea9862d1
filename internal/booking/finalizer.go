// Package booking is the seam between the hold engine and the external
// payment flow.  It converts a finalized hold into a confirmed
// reservation on payment success and releases the seats on failure.
package booking

import (
    "context"
    "errors"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/seat-hold-engine/internal/logger"
    "github.com/iliyamo/seat-hold-engine/internal/model"
    "github.com/iliyamo/seat-hold-engine/internal/queue"
    "github.com/iliyamo/seat-hold-engine/internal/repository"
    "github.com/iliyamo/seat-hold-engine/internal/session"
    "github.com/iliyamo/seat-hold-engine/internal/store"
)

// ErrSeatsNoLongerHeld is the distinct "seats no longer available"
// outcome: the hold expired (or was cancelled) between the client action
// and server processing.  The remediation is re-selection, not a payment
// retry, so callers must not fold this into a generic error.
var ErrSeatsNoLongerHeld = errors.New("seats no longer held")

// ReservationStore persists confirmed bookings.  *repository.ReservationRepo
// satisfies it; a nil store disables persistence (e.g. in tests or when
// the engine runs without a database).
type ReservationStore interface {
    SaveConfirmed(ctx context.Context, rec *repository.ConfirmedReservation) error
}

// EventPublisher emits the booking.confirmed domain event.
type EventPublisher func(ctx context.Context, event queue.BookingConfirmedEvent) error

// Confirmation summarizes a successful booking for the payment flow.
type Confirmation struct {
    ReservationID uint64    `json:"reservation_id"`
    ShowtimeID    string    `json:"showtime_id"`
    SeatLabels    []string  `json:"seats"`
    ConfirmedAt   time.Time `json:"confirmed_at"`
}

// Finalizer drives the confirm/release endgame of a hold session.  It
// never mutates seats or sessions directly; every transition goes
// through the session manager and, via it, the seat map store.
type Finalizer struct {
    mgr          *session.Manager
    reservations ReservationStore
    publish      EventPublisher
    now          func() time.Time
}

// NewFinalizer wires the finalizer.  reservations and publish may be nil;
// the corresponding write-behind step is then skipped.
func NewFinalizer(mgr *session.Manager, reservations ReservationStore, publish EventPublisher) *Finalizer {
    if mgr == nil {
        panic("nil session manager passed to NewFinalizer")
    }
    return &Finalizer{mgr: mgr, reservations: reservations, publish: publish, now: time.Now}
}

// Finalize marks the user's hold as handed off to payment.  From this
// point the sweeper leaves the session alone until CompletePayment or
// FailPayment settles it.
func (f *Finalizer) Finalize(userID, showtimeID string) (*model.HoldSession, error) {
    sess, err := f.mgr.Finalize(userID, showtimeID)
    if errors.Is(err, session.ErrNoActiveSession) {
        return nil, ErrSeatsNoLongerHeld
    }
    return sess, err
}

// CompletePayment confirms the finalized hold.  The in-memory confirm is
// the commit point: once it succeeds the seats are CONFIRMED regardless
// of what happens downstream, and persistence/event failures are logged
// rather than propagated: the durable record is write-behind, not a
// precondition.
func (f *Finalizer) CompletePayment(ctx context.Context, userID, showtimeID, paymentRef string) (*Confirmation, error) {
    seats, err := f.mgr.ConfirmFinalized(userID, showtimeID)
    if err != nil {
        if errors.Is(err, session.ErrNoActiveSession) || errors.Is(err, store.ErrOwnership) {
            return nil, ErrSeatsNoLongerHeld
        }
        return nil, err
    }

    conf := &Confirmation{
        ShowtimeID:  showtimeID,
        SeatLabels:  seats,
        ConfirmedAt: f.now().UTC(),
    }

    if f.reservations != nil {
        rec := &repository.ConfirmedReservation{
            UserID:      userID,
            ShowtimeID:  showtimeID,
            SeatLabels:  seats,
            PaymentRef:  paymentRef,
            ConfirmedAt: conf.ConfirmedAt,
        }
        if err := f.reservations.SaveConfirmed(ctx, rec); err != nil {
            logger.Error("finalizer: persist confirmed reservation failed",
                zap.String("user_id", userID), zap.String("showtime_id", showtimeID), zap.Error(err))
        } else {
            conf.ReservationID = rec.ID
        }
    }

    if f.publish != nil {
        ev := queue.BookingConfirmedEvent{
            ReservationID: conf.ReservationID,
            UserID:        userID,
            ShowtimeID:    showtimeID,
            SeatLabels:    seats,
            PaymentRef:    paymentRef,
            ConfirmedAt:   conf.ConfirmedAt.Format(time.RFC3339),
        }
        if err := f.publish(ctx, ev); err != nil {
            logger.Error("finalizer: publish booking.confirmed failed", zap.Error(err))
        }
    }

    return conf, nil
}

// FailPayment settles a failed or abandoned payment by releasing the
// session's seats back to AVAILABLE.
func (f *Finalizer) FailPayment(userID, showtimeID string) error {
    _, err := f.mgr.Cancel(userID, showtimeID)
    if errors.Is(err, session.ErrNoActiveSession) {
        // Hold already expired or was cancelled; nothing left to release.
        return nil
    }
    return err
}
