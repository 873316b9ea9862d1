package hub

import (
    "encoding/json"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/seat-hold-engine/internal/model"
    "github.com/iliyamo/seat-hold-engine/internal/store"
)

func newTestHub(t *testing.T) (*Hub, *store.SeatMap) {
    t.Helper()
    seats := store.NewSeatMap()
    seats.Materialize("st-1", []model.Seat{{Label: "A1"}, {Label: "A2"}})
    return New(seats, 600), seats
}

func recv(t *testing.T, sub *Subscription) frame {
    t.Helper()
    select {
    case b, ok := <-sub.C():
        require.True(t, ok, "subscription channel closed")
        var f frame
        require.NoError(t, json.Unmarshal(b, &f))
        return f
    default:
        t.Fatal("no message queued")
        return frame{}
    }
}

func TestSubscribeUnknownShowtime(t *testing.T) {
    h, _ := newTestHub(t)
    _, err := h.Subscribe("missing")
    assert.ErrorIs(t, err, store.ErrShowtimeNotFound)
}

func TestSubscribeDeliversSnapshotFirst(t *testing.T) {
    h, seats := newTestHub(t)
    _, err := seats.TryHold("st-1", []string{"A1"}, "u1/st-1")
    require.NoError(t, err)

    sub, err := h.Subscribe("st-1")
    require.NoError(t, err)
    defer h.Unsubscribe(sub)

    // An event published right after subscribing must queue behind the
    // snapshot, never ahead of it.
    h.Publish("st-1", model.SeatEvent{Type: model.EventSeatHeld, ShowtimeID: "st-1", SeatLabel: "A2"})

    first := recv(t, sub)
    assert.Equal(t, frameSnapshot, first.Type)
    assert.Equal(t, 600, first.HoldTTLSeconds)
    assert.Equal(t, model.ReservationHeld, first.Seats["A1"])
    assert.Equal(t, model.ReservationAvailable, first.Seats["A2"])

    second := recv(t, sub)
    assert.Equal(t, model.EventSeatHeld, second.Type)
    assert.Equal(t, "A2", second.SeatLabel)
}

func TestPublishReachesOnlyTheShowtimeRoom(t *testing.T) {
    h, seats := newTestHub(t)
    seats.Materialize("st-2", []model.Seat{{Label: "B1"}})

    sub1, err := h.Subscribe("st-1")
    require.NoError(t, err)
    defer h.Unsubscribe(sub1)
    sub2, err := h.Subscribe("st-2")
    require.NoError(t, err)
    defer h.Unsubscribe(sub2)

    recv(t, sub1) // drain snapshots
    recv(t, sub2)

    h.Publish("st-1", model.SeatEvent{Type: model.EventSeatReleased, ShowtimeID: "st-1", SeatLabel: "A1"})

    got := recv(t, sub1)
    assert.Equal(t, "A1", got.SeatLabel)
    select {
    case <-sub2.C():
        t.Fatal("event leaked into another showtime's room")
    default:
    }
}

// racingSnapshots fires a seat mutation plus a publish the moment the
// subscribe path reads its baseline, simulating a hold landing while a
// client is still connecting.
type racingSnapshots struct {
    seats *store.SeatMap
    hub   *Hub
    once  sync.Once
    done  chan struct{}
}

func (r *racingSnapshots) Snapshot(showtimeID string) (map[string]model.ReservationStatus, error) {
    snap, err := r.seats.Snapshot(showtimeID)
    r.once.Do(func() {
        if _, herr := r.seats.TryHold(showtimeID, []string{"A1"}, "u1/"+showtimeID); herr != nil {
            panic(herr)
        }
        go func() {
            r.hub.Publish(showtimeID, model.SeatEvent{
                Type: model.EventSeatHeld, ShowtimeID: showtimeID, SeatLabel: "A1",
            })
            close(r.done)
        }()
        // Give the publish a head start; it must not be able to complete
        // before the subscription is registered.
        time.Sleep(20 * time.Millisecond)
    })
    return snap, err
}

// A hold that lands while a client is connecting must show up either in
// the snapshot or as a delivered event.  If it shows up in neither, the
// client renders a stale seat map until it reconnects.
func TestSubscribeDoesNotLoseEventDuringConnect(t *testing.T) {
    seats := store.NewSeatMap()
    seats.Materialize("st-1", []model.Seat{{Label: "A1"}})
    src := &racingSnapshots{seats: seats, done: make(chan struct{})}
    h := New(src, 600)
    src.hub = h

    sub, err := h.Subscribe("st-1")
    require.NoError(t, err)
    defer h.Unsubscribe(sub)

    first := recv(t, sub)
    require.Equal(t, frameSnapshot, first.Type)
    if first.Seats["A1"] == model.ReservationHeld {
        return
    }

    select {
    case <-src.done:
    case <-time.After(time.Second):
        t.Fatal("racing publish never completed")
    }
    second := recv(t, sub)
    assert.Equal(t, model.EventSeatHeld, second.Type)
    assert.Equal(t, "A1", second.SeatLabel)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
    h, _ := newTestHub(t)
    sub, err := h.Subscribe("st-1")
    require.NoError(t, err)
    assert.Equal(t, 1, h.Subscribers("st-1"))

    h.Unsubscribe(sub)
    h.Unsubscribe(sub)
    h.Unsubscribe(nil)
    assert.Equal(t, 0, h.Subscribers("st-1"))

    _, ok := <-sub.C()
    assert.False(t, ok)
}

func TestPublishDropsWhenSubscriberBufferFull(t *testing.T) {
    h, _ := newTestHub(t)
    sub, err := h.Subscribe("st-1")
    require.NoError(t, err)
    defer h.Unsubscribe(sub)

    // The snapshot already occupies one slot; overfill the rest.  Publish
    // must return rather than block on the stalled subscriber.
    for i := 0; i < sendBuffer*2; i++ {
        h.Publish("st-1", model.SeatEvent{Type: model.EventSeatHeld, ShowtimeID: "st-1", SeatLabel: "A1"})
    }
    assert.Len(t, sub.ch, sendBuffer)
}
