// Package repository persists confirmed reservations.  The in-memory seat
// map remains the source of truth for live reservation status; rows here
// are the durable write-behind record the rest of the business (ticket
// delivery, reporting) reads from.
package repository

import (
    "context"
    "database/sql"
    "time"
)

// ConfirmedReservation is the persistence model for a finalized booking.
type ConfirmedReservation struct {
    ID          uint64    // reservations.id
    UserID      string    // reservations.user_id
    ShowtimeID  string    // reservations.showtime_id
    SeatLabels  []string  // reservation_seats.seat_label, one row per seat
    PaymentRef  string    // reservations.payment_ref
    ConfirmedAt time.Time // reservations.confirmed_at
}

// ReservationRepo provides data access to the reservations and
// reservation_seats tables.  All timestamps are stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a repo bound to the provided database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// SaveConfirmed inserts the reservation and its seats in one transaction
// and fills in the generated ID.  Called by the booking finalizer after
// the in-memory confirm succeeded; a failure here is logged by the caller
// and never rolls the confirm back.
func (r *ReservationRepo) SaveConfirmed(ctx context.Context, rec *ConfirmedReservation) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := tx.ExecContext(ctx,
        `INSERT INTO reservations (user_id, showtime_id, payment_ref, confirmed_at) VALUES (?, ?, ?, ?)`,
        rec.UserID, rec.ShowtimeID, rec.PaymentRef, rec.ConfirmedAt.UTC().Format("2006-01-02 15:04:05"),
    )
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rec.ID = uint64(id)

    if len(rec.SeatLabels) > 0 {
        query := `INSERT INTO reservation_seats (reservation_id, showtime_id, seat_label) VALUES `
        args := make([]interface{}, 0, len(rec.SeatLabels)*3)
        for i, label := range rec.SeatLabels {
            if i > 0 {
                query += ","
            }
            query += "(?, ?, ?)"
            args = append(args, rec.ID, rec.ShowtimeID, label)
        }
        if _, err := tx.ExecContext(ctx, query, args...); err != nil {
            return err
        }
    }

    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// ListByUser returns the user's confirmed reservations, newest first,
// with seat labels aggregated per reservation.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID string) ([]ConfirmedReservation, error) {
    const q = `SELECT id, user_id, showtime_id, payment_ref, confirmed_at
               FROM reservations WHERE user_id = ? ORDER BY confirmed_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []ConfirmedReservation
    index := make(map[uint64]int)
    for rows.Next() {
        var rec ConfirmedReservation
        if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ShowtimeID, &rec.PaymentRef, &rec.ConfirmedAt); err != nil {
            return nil, err
        }
        index[rec.ID] = len(out)
        out = append(out, rec)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(out) == 0 {
        return []ConfirmedReservation{}, nil
    }

    const qs = `SELECT rs.reservation_id, rs.seat_label
                FROM reservation_seats rs
                JOIN reservations res ON res.id = rs.reservation_id
                WHERE res.user_id = ?`
    seatRows, err := r.db.QueryContext(ctx, qs, userID)
    if err != nil {
        return nil, err
    }
    defer seatRows.Close()
    for seatRows.Next() {
        var resID uint64
        var label string
        if err := seatRows.Scan(&resID, &label); err != nil {
            return nil, err
        }
        if i, ok := index[resID]; ok {
            out[i].SeatLabels = append(out[i].SeatLabels, label)
        }
    }
    if err := seatRows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
