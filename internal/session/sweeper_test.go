package session

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/seat-hold-engine/internal/model"
    "github.com/iliyamo/seat-hold-engine/internal/store"
)

func TestSweeperExpiresOverdueHolds(t *testing.T) {
    seats := store.NewSeatMap()
    seats.Materialize("st-1", []model.Seat{{Label: "A1"}})
    mgr := NewManager(seats, nil, 50*time.Millisecond)

    _, _, err := mgr.SelectSeats("u1", "st-1", []string{"A1"})
    require.NoError(t, err)

    sweeper := NewSweeper(mgr, 10*time.Millisecond)
    go sweeper.Start(context.Background())
    defer sweeper.Stop()

    require.Eventually(t, func() bool {
        return mgr.ActiveSessions() == 0
    }, time.Second, 5*time.Millisecond)

    snap, err := seats.Snapshot("st-1")
    require.NoError(t, err)
    assert.Equal(t, model.ReservationAvailable, snap["A1"])
}

func TestSweeperStopsOnContextCancel(t *testing.T) {
    seats := store.NewSeatMap()
    mgr := NewManager(seats, nil, time.Minute)
    sweeper := NewSweeper(mgr, 10*time.Millisecond)

    ctx, cancel := context.WithCancel(context.Background())
    go sweeper.Start(ctx)
    cancel()

    select {
    case <-sweeper.doneCh:
    case <-time.After(time.Second):
        t.Fatal("sweeper did not stop after context cancel")
    }
}
