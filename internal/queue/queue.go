// Package queue implements the durable offline queue for charger status
// updates. Updates submitted while the upstream store is unreachable are
// persisted locally and replayed in FIFO order once connectivity returns.
//
// Delivery is at-least-once with last-applied-wins semantics: entries carry
// no mutation id, and the remote mutation is required to treat an identical
// or older (status, timestamp) pair as a safe no-op.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"chargesure/internal/connectivity"
	"chargesure/internal/models"
	"chargesure/internal/store"
)

// storageKey is the well-known KV key holding the pending updates as a JSON
// array.
const storageKey = "offline-charger-updates"

const defaultDebounce = 2 * time.Second

// PendingUpdate is one not-yet-confirmed charger status change.
type PendingUpdate struct {
	ChargerID string               `json:"chargerId"`
	Status    models.ChargerStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
}

// RemoteStore is the write side of the station store the queue replays
// against.
type RemoteStore interface {
	SetChargerStatus(ctx context.Context, chargerID string, status models.ChargerStatus, ts time.Time) error
}

// SyncOutcome classifies the result of one sync pass.
type SyncOutcome string

const (
	SyncComplete SyncOutcome = "complete" // queue drained
	SyncPartial  SyncOutcome = "partial"  // some sent, some re-queued
	SyncFailed   SyncOutcome = "failed"   // nothing could be sent
)

// SyncEvent is the observable result of a sync pass, surfaced to UI badges
// and toasts instead of an error.
type SyncEvent struct {
	Outcome   SyncOutcome
	Sent      int
	Dropped   int // permanently rejected, removed without retry
	Remaining int
}

// Queue is the offline update queue. All methods are safe for concurrent
// use; Sync is single-flight.
type Queue struct {
	kv       store.KV
	remote   RemoteStore
	signal   connectivity.Signal
	logger   *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending []PendingUpdate
	syncing bool
	timer   *time.Timer

	subMu       sync.Mutex
	subscribers map[int]func(SyncEvent)
	nextSubID   int
}

// New builds a queue, reloading any entries a previous process left in the
// local store. A corrupt blob is dropped rather than wedging the queue.
func New(kv store.KV, remote RemoteStore, signal connectivity.Signal, debounce time.Duration, logger *zap.Logger) *Queue {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	q := &Queue{
		kv:          kv,
		remote:      remote,
		signal:      signal,
		logger:      logger,
		debounce:    debounce,
		subscribers: make(map[int]func(SyncEvent)),
	}
	q.reload()
	return q
}

func (q *Queue) reload() {
	raw, ok := q.kv.Get(storageKey)
	if !ok {
		return
	}
	var pending []PendingUpdate
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		q.logger.Warn("dropping corrupt offline queue blob", zap.Error(err))
		q.kv.Delete(storageKey)
		return
	}
	q.pending = pending
}

// Enqueue appends a status change with the current timestamp. It never
// fails: a storage write error is logged and the update stays in memory.
func (q *Queue) Enqueue(chargerID string, status models.ChargerStatus) {
	update := PendingUpdate{
		ChargerID: chargerID,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}

	q.mu.Lock()
	q.pending = append(q.pending, update)
	q.persistLocked()
	q.mu.Unlock()

	q.logger.Info("queued offline status update",
		zap.String("charger_id", chargerID),
		zap.String("status", string(status)))
}

// PendingCount returns the observable queue size.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Pending returns a copy of the queued updates in enqueue order.
func (q *Queue) Pending() []PendingUpdate {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]PendingUpdate, len(q.pending))
	copy(out, q.pending)
	return out
}

// Subscribe registers a sync-event listener and returns its cancel func.
func (q *Queue) Subscribe(fn func(SyncEvent)) func() {
	q.subMu.Lock()
	id := q.nextSubID
	q.nextSubID++
	q.subscribers[id] = fn
	q.subMu.Unlock()

	return func() {
		q.subMu.Lock()
		delete(q.subscribers, id)
		q.subMu.Unlock()
	}
}

// Start wires the automatic sync trigger: an offline-to-online transition
// schedules a sync after the debounce delay, and going offline cancels a
// not-yet-fired trigger. It also schedules a sync for entries reloaded from
// a previous run. Returns when ctx is done.
func (q *Queue) Start(ctx context.Context) {
	cancel := q.signal.Subscribe(func(online bool) {
		if online {
			q.scheduleSync(ctx)
		} else {
			q.cancelScheduled()
		}
	})
	defer cancel()

	if q.signal.Online() && q.PendingCount() > 0 {
		q.scheduleSync(ctx)
	}

	<-ctx.Done()
	q.cancelScheduled()
}

func (q *Queue) scheduleSync(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(q.debounce, func() {
		q.Sync(ctx)
	})
}

func (q *Queue) cancelScheduled() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

// Sync replays pending updates in enqueue order. It is a no-op while
// offline, while the queue is empty, or while another sync is in flight;
// entries enqueued during the pass are left for the next run.
//
// Policy: best-effort per-item isolation. Every snapshot entry is attempted;
// transiently failed entries are re-queued in order, permanent rejections
// are dropped with a notification.
func (q *Queue) Sync(ctx context.Context) {
	if !q.signal.Online() {
		return
	}

	q.mu.Lock()
	if q.syncing || len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	q.syncing = true
	snapshot := make([]PendingUpdate, len(q.pending))
	copy(snapshot, q.pending)
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.syncing = false
		q.mu.Unlock()
	}()

	var kept []PendingUpdate
	event := SyncEvent{}
	for _, update := range snapshot {
		err := q.remote.SetChargerStatus(ctx, update.ChargerID, update.Status, update.Timestamp)
		switch {
		case err == nil:
			event.Sent++
		case errors.Is(err, models.ErrChargerNotFound):
			// Permanent rejection: retrying forever would never succeed.
			event.Dropped++
			q.logger.Warn("dropping rejected status update",
				zap.String("charger_id", update.ChargerID),
				zap.Error(err))
		default:
			kept = append(kept, update)
			q.logger.Warn("status update sync failed, will retry",
				zap.String("charger_id", update.ChargerID),
				zap.Error(err))
		}
	}

	q.mu.Lock()
	// Entries enqueued while this pass ran sit past the snapshot length.
	q.pending = append(kept, q.pending[len(snapshot):]...)
	q.persistLocked()
	event.Remaining = len(q.pending)
	q.mu.Unlock()

	// A drained queue is complete however the entries left it: a pass that
	// removed everything via permanent rejections has nothing to retry.
	switch {
	case event.Remaining == 0:
		event.Outcome = SyncComplete
	case event.Sent > 0 || event.Dropped > 0:
		event.Outcome = SyncPartial
	default:
		event.Outcome = SyncFailed
	}

	q.logger.Info("offline queue sync finished",
		zap.String("outcome", string(event.Outcome)),
		zap.Int("sent", event.Sent),
		zap.Int("dropped", event.Dropped),
		zap.Int("remaining", event.Remaining))

	q.notify(event)
}

func (q *Queue) notify(event SyncEvent) {
	q.subMu.Lock()
	fns := make([]func(SyncEvent), 0, len(q.subscribers))
	for _, fn := range q.subscribers {
		fns = append(fns, fn)
	}
	q.subMu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}

// persistLocked writes the queue to local storage; failures are logged and
// the in-memory mirror stays authoritative for this process.
func (q *Queue) persistLocked() {
	data, err := json.Marshal(q.pending)
	if err != nil {
		q.logger.Error("failed to encode offline queue", zap.Error(err))
		return
	}
	if len(q.pending) == 0 {
		q.kv.Delete(storageKey)
		return
	}
	if err := q.kv.Set(storageKey, string(data)); err != nil {
		q.logger.Warn("failed to persist offline queue", zap.Error(err))
	}
}
