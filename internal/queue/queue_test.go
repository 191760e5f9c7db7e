package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"chargesure/internal/models"
	"chargesure/internal/store"
)

type remoteCall struct {
	chargerID string
	status    models.ChargerStatus
}

type fakeRemote struct {
	mu    sync.Mutex
	calls []remoteCall
	errs  map[string]error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{errs: make(map[string]error)}
}

func (f *fakeRemote) SetChargerStatus(_ context.Context, chargerID string, status models.ChargerStatus, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, remoteCall{chargerID: chargerID, status: status})
	return f.errs[chargerID]
}

func (f *fakeRemote) setErr(chargerID string, err error) {
	f.mu.Lock()
	f.errs[chargerID] = err
	f.mu.Unlock()
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRemote) callAt(i int) remoteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

type fakeSignal struct {
	mu     sync.Mutex
	online bool
	subs   map[int]func(bool)
	nextID int
}

func newFakeSignal(online bool) *fakeSignal {
	return &fakeSignal{online: online, subs: make(map[int]func(bool))}
}

func (f *fakeSignal) Online() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

func (f *fakeSignal) Subscribe(fn func(bool)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *fakeSignal) set(online bool) {
	f.mu.Lock()
	f.online = online
	fns := make([]func(bool), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(online)
	}
}

func newTestQueue(kv store.KV, remote RemoteStore, signal *fakeSignal) *Queue {
	return New(kv, remote, signal, time.Millisecond, zap.NewNop())
}

func TestEnqueueSyncRoundTrip(t *testing.T) {
	remote := newFakeRemote()
	signal := newFakeSignal(true)
	q := newTestQueue(store.NewMemoryStore(), remote, signal)

	q.Enqueue("A", models.StatusAvailable)
	if q.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1", q.PendingCount())
	}

	q.Sync(context.Background())

	if remote.callCount() != 1 {
		t.Fatalf("remote calls = %d, want 1", remote.callCount())
	}
	call := remote.callAt(0)
	if call.chargerID != "A" || call.status != models.StatusAvailable {
		t.Errorf("call = %+v, want charger A Available", call)
	}
	if q.PendingCount() != 0 {
		t.Errorf("PendingCount after sync = %d, want 0", q.PendingCount())
	}
}

func TestSyncNoOpWhileOffline(t *testing.T) {
	remote := newFakeRemote()
	signal := newFakeSignal(false)
	q := newTestQueue(store.NewMemoryStore(), remote, signal)

	q.Enqueue("A", models.StatusInUse)
	q.Sync(context.Background())

	if remote.callCount() != 0 {
		t.Errorf("remote called %d times while offline, want 0", remote.callCount())
	}
	if q.PendingCount() != 1 {
		t.Errorf("PendingCount = %d, want 1", q.PendingCount())
	}
}

func TestQueueSurvivesRestart(t *testing.T) {
	kv := store.NewMemoryStore()
	signal := newFakeSignal(false)
	first := newTestQueue(kv, newFakeRemote(), signal)

	first.Enqueue("A", models.StatusOutOfService)
	first.Enqueue("B", models.StatusAvailable)

	// A fresh queue over the same store simulates a process restart.
	remote := newFakeRemote()
	online := newFakeSignal(true)
	reborn := newTestQueue(kv, remote, online)

	if reborn.PendingCount() != 2 {
		t.Fatalf("PendingCount after restart = %d, want 2", reborn.PendingCount())
	}

	reborn.Sync(context.Background())
	if remote.callCount() != 2 {
		t.Fatalf("remote calls = %d, want 2", remote.callCount())
	}
	if got := remote.callAt(0).chargerID; got != "A" {
		t.Errorf("first replayed charger = %q, want A (FIFO)", got)
	}
	if reborn.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0", reborn.PendingCount())
	}
}

func TestSyncRequeuesOnlyFailures(t *testing.T) {
	remote := newFakeRemote()
	remote.setErr("B", errors.New("connection reset"))
	signal := newFakeSignal(true)
	q := newTestQueue(store.NewMemoryStore(), remote, signal)

	var events []SyncEvent
	q.Subscribe(func(e SyncEvent) { events = append(events, e) })

	q.Enqueue("A", models.StatusAvailable)
	q.Enqueue("B", models.StatusInUse)
	q.Enqueue("C", models.StatusAvailable)

	q.Sync(context.Background())

	// Best-effort: B's failure must not block C.
	if remote.callCount() != 3 {
		t.Fatalf("remote calls = %d, want 3", remote.callCount())
	}
	if q.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want only B re-queued", q.PendingCount())
	}
	if len(events) != 1 || events[0].Outcome != SyncPartial || events[0].Sent != 2 || events[0].Remaining != 1 {
		t.Errorf("event = %+v, want partial with 2 sent, 1 remaining", events)
	}

	// B recovers; next sync drains the queue.
	remote.setErr("B", nil)
	q.Sync(context.Background())
	if q.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0 after retry", q.PendingCount())
	}
	if events[len(events)-1].Outcome != SyncComplete {
		t.Errorf("final outcome = %v, want complete", events[len(events)-1].Outcome)
	}
}

func TestSyncDropsPermanentRejection(t *testing.T) {
	remote := newFakeRemote()
	remote.setErr("GHOST", models.ErrChargerNotFound)
	signal := newFakeSignal(true)
	q := newTestQueue(store.NewMemoryStore(), remote, signal)

	var last SyncEvent
	q.Subscribe(func(e SyncEvent) { last = e })

	q.Enqueue("GHOST", models.StatusAvailable)
	q.Sync(context.Background())

	if q.PendingCount() != 0 {
		t.Errorf("rejected update still pending, count = %d", q.PendingCount())
	}
	if last.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", last.Dropped)
	}
	// Nothing is left to retry, so the pass counts as complete even though
	// nothing was delivered.
	if last.Outcome != SyncComplete {
		t.Errorf("outcome = %v, want complete for a drained queue", last.Outcome)
	}

	// A second sync must not retry the rejected update.
	q.Sync(context.Background())
	if remote.callCount() != 1 {
		t.Errorf("remote calls = %d, want 1 (no retry of rejection)", remote.callCount())
	}
}

func TestSyncReportsFailureWhenNothingSent(t *testing.T) {
	remote := newFakeRemote()
	remote.setErr("A", errors.New("timeout"))
	signal := newFakeSignal(true)
	q := newTestQueue(store.NewMemoryStore(), remote, signal)

	var last SyncEvent
	q.Subscribe(func(e SyncEvent) { last = e })

	q.Enqueue("A", models.StatusAvailable)
	q.Sync(context.Background())

	if last.Outcome != SyncFailed {
		t.Errorf("outcome = %v, want failed", last.Outcome)
	}
	if q.PendingCount() != 1 {
		t.Errorf("PendingCount = %d, want 1", q.PendingCount())
	}
}

// slowRemote blocks its first call until released so a second sync can be
// attempted while the first is in flight.
type slowRemote struct {
	started chan struct{}
	release chan struct{}
	calls   chan string
}

func (s *slowRemote) SetChargerStatus(_ context.Context, chargerID string, _ models.ChargerStatus, _ time.Time) error {
	select {
	case s.started <- struct{}{}:
	default:
	}
	<-s.release
	s.calls <- chargerID
	return nil
}

func TestSyncSingleFlight(t *testing.T) {
	remote := &slowRemote{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		calls:   make(chan string, 10),
	}
	signal := newFakeSignal(true)
	q := newTestQueue(store.NewMemoryStore(), remote, signal)

	q.Enqueue("A", models.StatusAvailable)

	done := make(chan struct{})
	go func() {
		q.Sync(context.Background())
		close(done)
	}()
	<-remote.started

	// Second trigger while the first is in flight coalesces to a no-op.
	q.Sync(context.Background())

	close(remote.release)
	<-done

	if got := len(remote.calls); got != 1 {
		t.Errorf("remote calls = %d, want 1", got)
	}
}

func TestReconnectTriggersDebouncedSync(t *testing.T) {
	remote := newFakeRemote()
	signal := newFakeSignal(false)
	q := newTestQueue(store.NewMemoryStore(), remote, signal)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Start(ctx)

	q.Enqueue("A", models.StatusAvailable)
	signal.set(true)

	deadline := time.After(time.Second)
	for q.PendingCount() > 0 {
		select {
		case <-deadline:
			t.Fatal("queue not drained after reconnect")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if remote.callCount() != 1 {
		t.Errorf("remote calls = %d, want exactly 1", remote.callCount())
	}
}

func TestCorruptStorageBlobDropped(t *testing.T) {
	kv := store.NewMemoryStore()
	_ = kv.Set("offline-charger-updates", "{broken")

	q := newTestQueue(kv, newFakeRemote(), newFakeSignal(true))
	if q.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0 for corrupt blob", q.PendingCount())
	}
	if _, ok := kv.Get("offline-charger-updates"); ok {
		t.Error("corrupt blob should be removed from storage")
	}
}
