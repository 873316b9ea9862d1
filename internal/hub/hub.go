// Package hub fans seat-status change events out to every client viewing
// a showtime.  The hub is a pure relay: it never caches seat state beyond
// the single snapshot frame queued at subscribe time, and delivery is
// fire-and-forget so the mutating operation never blocks on a slow
// subscriber.
package hub

import (
    "encoding/json"
    "sync"

    "go.uber.org/zap"

    "github.com/iliyamo/seat-hold-engine/internal/logger"
    "github.com/iliyamo/seat-hold-engine/internal/metrics"
    "github.com/iliyamo/seat-hold-engine/internal/model"
)

// sendBuffer is the per-subscriber outbound queue depth.  A subscriber
// that falls this far behind is dropped rather than allowed to stall the
// publisher; it recovers by reconnecting and taking a fresh snapshot.
const sendBuffer = 64

// SnapshotSource supplies the synchronization baseline sent to every new
// subscriber.  The seat map store satisfies it.
type SnapshotSource interface {
    Snapshot(showtimeID string) (map[string]model.ReservationStatus, error)
}

// frame is the wire envelope for every message the hub writes.  Live
// events fill SeatLabel; the initial snapshot fills Seats instead.
type frame struct {
    Type           model.SeatEventType               `json:"type"`
    ShowtimeID     string                            `json:"showtime_id"`
    SeatLabel      string                            `json:"seat_label,omitempty"`
    Seats          map[string]model.ReservationStatus `json:"seats,omitempty"`
    HoldTTLSeconds int                               `json:"hold_ttl_seconds,omitempty"`
}

const frameSnapshot model.SeatEventType = "snapshot"

// Subscription is one registered viewer of a showtime.  Messages arrive
// on C in delivery order; the first message is always the snapshot frame.
type Subscription struct {
    hub        *Hub
    showtimeID string
    ch         chan []byte
}

// C returns the subscriber's message channel.  The channel is closed when
// the subscription is dropped by the hub.
func (s *Subscription) C() <-chan []byte { return s.ch }

// Hub is the per-showtime pub/sub relay.
type Hub struct {
    mu             sync.RWMutex
    rooms          map[string]map[*Subscription]struct{}
    snapshots      SnapshotSource
    holdTTLSeconds int
}

// New builds a hub over the given snapshot source.  holdTTLSeconds is
// echoed inside every snapshot frame so a reconnecting client can restore
// its countdown display without a second round trip.
func New(snapshots SnapshotSource, holdTTLSeconds int) *Hub {
    return &Hub{
        rooms:          make(map[string]map[*Subscription]struct{}),
        snapshots:      snapshots,
        holdTTLSeconds: holdTTLSeconds,
    }
}

// Subscribe registers a viewer for a showtime's events.  The snapshot is
// taken and queued as the subscriber's first message inside the same
// critical section that registers the subscription: Publish needs the
// read lock, so every event is either already in the snapshot or will be
// delivered after it, and no gap can open between "connect" and "first
// live update".  The snapshot read is in-memory, so holding the hub lock
// across it is cheap.
func (h *Hub) Subscribe(showtimeID string) (*Subscription, error) {
    sub := &Subscription{hub: h, showtimeID: showtimeID, ch: make(chan []byte, sendBuffer)}

    h.mu.Lock()
    snap, err := h.snapshots.Snapshot(showtimeID)
    if err != nil {
        h.mu.Unlock()
        return nil, err
    }
    first, err := json.Marshal(frame{
        Type:           frameSnapshot,
        ShowtimeID:     showtimeID,
        Seats:          snap,
        HoldTTLSeconds: h.holdTTLSeconds,
    })
    if err != nil {
        h.mu.Unlock()
        return nil, err
    }
    room, ok := h.rooms[showtimeID]
    if !ok {
        room = make(map[*Subscription]struct{})
        h.rooms[showtimeID] = room
    }
    room[sub] = struct{}{}
    sub.ch <- first
    h.mu.Unlock()

    metrics.SubscriberAdded()
    return sub, nil
}

// Unsubscribe deregisters a viewer.  Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
    if sub == nil {
        return
    }
    h.mu.Lock()
    room, ok := h.rooms[sub.showtimeID]
    if ok {
        if _, member := room[sub]; member {
            delete(room, sub)
            close(sub.ch)
            metrics.SubscriberRemoved()
        }
        if len(room) == 0 {
            delete(h.rooms, sub.showtimeID)
        }
    }
    h.mu.Unlock()
}

// Publish fans events out to every current subscriber of the showtime.
// A subscriber whose buffer is full has the message dropped with a log
// line; the mutation already succeeded in the store and the client
// recovers via a reconnect-triggered snapshot.
func (h *Hub) Publish(showtimeID string, events ...model.SeatEvent) {
    if len(events) == 0 {
        return
    }
    payloads := make([][]byte, 0, len(events))
    for _, ev := range events {
        b, err := json.Marshal(frame{Type: ev.Type, ShowtimeID: ev.ShowtimeID, SeatLabel: ev.SeatLabel})
        if err != nil {
            logger.Error("hub: marshal event", zap.Error(err))
            continue
        }
        payloads = append(payloads, b)
    }

    h.mu.RLock()
    defer h.mu.RUnlock()
    for sub := range h.rooms[showtimeID] {
        for _, p := range payloads {
            select {
            case sub.ch <- p:
            default:
                logger.Warn("hub: subscriber buffer full, dropping event",
                    zap.String("showtime_id", showtimeID))
            }
        }
    }
}

// Subscribers reports the number of viewers registered for a showtime.
func (h *Hub) Subscribers(showtimeID string) int {
    h.mu.RLock()
    defer h.mu.RUnlock()
    return len(h.rooms[showtimeID])
}
