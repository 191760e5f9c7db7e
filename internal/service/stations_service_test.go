package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"chargesure/internal/cache"
	"chargesure/internal/models"
	"chargesure/internal/repository"
	"chargesure/internal/store"
)

type fakeStore struct {
	mu          sync.Mutex
	stations    []models.Station
	listErr     error
	setErr      map[string]error
	setCalls    []string
	verifyCalls []string
	lastStatus  models.ChargerStatus
}

func (f *fakeStore) List(context.Context, *models.Bounds) ([]models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.stations, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.stations {
		if f.stations[i].StationID == id {
			return &f.stations[i], nil
		}
	}
	return nil, models.ErrStationNotFound
}

func (f *fakeStore) Search(context.Context, string, *models.Bounds) ([]models.Station, error) {
	return f.stations, nil
}

func (f *fakeStore) SetChargerStatus(_ context.Context, chargerID string, status models.ChargerStatus, _ time.Time) (repository.StatusChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls = append(f.setCalls, chargerID)
	if err := f.setErr[chargerID]; err != nil {
		return repository.StatusChange{}, err
	}
	f.lastStatus = status
	return repository.StatusChange{StationID: "S1", Previous: models.StatusInUse, Applied: true}, nil
}

func (f *fakeStore) VerifyCharger(_ context.Context, chargerID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.setErr[chargerID]; err != nil {
		return err
	}
	f.verifyCalls = append(f.verifyCalls, chargerID)
	return nil
}

func (f *fakeStore) setCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.setCalls)
}

type fakeSnapshot struct {
	mu          sync.Mutex
	stations    []models.Station
	saved       int
	invalidated int
	loadErr     error
}

func (f *fakeSnapshot) Save(_ context.Context, stations []models.Station) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stations = stations
	f.saved++
	return nil
}

func (f *fakeSnapshot) Invalidate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
	return nil
}

func (f *fakeSnapshot) Load(context.Context) ([]models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.stations, nil
}

type fakeFeed struct {
	mu        sync.Mutex
	published []cache.ChargerChange
}

func (f *fakeFeed) Publish(_ context.Context, change cache.ChargerChange) {
	f.mu.Lock()
	f.published = append(f.published, change)
	f.mu.Unlock()
}

func (f *fakeFeed) Subscribe(context.Context, func(cache.ChargerChange)) func() {
	return func() {}
}

func (f *fakeFeed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

type fakeReports struct {
	mu      sync.Mutex
	entries []repository.StatusReport
}

func (f *fakeReports) Append(_ context.Context, report repository.StatusReport) error {
	f.mu.Lock()
	f.entries = append(f.entries, report)
	f.mu.Unlock()
	return nil
}

func (f *fakeReports) Recent(context.Context, string, int) ([]repository.StatusReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries, nil
}

type fakeRatings struct{}

func (fakeRatings) Rate(context.Context, string, string, repository.RatingValue) (bool, error) {
	return true, nil
}

func (fakeRatings) UserRating(context.Context, string, string) (repository.RatingValue, error) {
	return "", nil
}

type fakeHub struct{}

func (fakeHub) Broadcast(interface{}) {}

type fixedSignal struct{ online bool }

func (s *fixedSignal) Online() bool                 { return s.online }
func (s *fixedSignal) Subscribe(func(bool)) func() { return func() {} }

func newTestService(st *fakeStore, snap *fakeSnapshot, feed *fakeFeed, reports *fakeReports, online bool) *StationsService {
	return New(Deps{
		Store:        st,
		Cache:        snap,
		Feed:         feed,
		Ratings:      fakeRatings{},
		Reports:      reports,
		Hub:          fakeHub{},
		LocalKV:      store.NewMemoryStore(),
		Signal:       &fixedSignal{online: online},
		Logger:       zap.NewNop(),
		SyncDebounce: time.Millisecond,
	})
}

func TestUpdateAppliedRecordsReportAndPublishes(t *testing.T) {
	st := &fakeStore{setErr: map[string]error{}}
	feed := &fakeFeed{}
	reports := &fakeReports{}
	snap := &fakeSnapshot{}
	svc := newTestService(st, snap, feed, reports, true)

	res, err := svc.UpdateChargerStatus(context.Background(), "C1", models.StatusAvailable, "user-1", "works fine")
	if err != nil {
		t.Fatalf("UpdateChargerStatus: %v", err)
	}
	if res.Queued {
		t.Error("online update should not be queued")
	}
	if feed.count() != 1 {
		t.Errorf("published %d changes, want 1", feed.count())
	}
	if len(reports.entries) != 1 {
		t.Fatalf("recorded %d reports, want 1", len(reports.entries))
	}
	r := reports.entries[0]
	if r.OldStatus != models.StatusInUse || r.NewStatus != models.StatusAvailable || r.ReportedBy != "user-1" {
		t.Errorf("report = %+v", r)
	}
	if snap.invalidated != 1 {
		t.Errorf("snapshot invalidated %d times, want 1", snap.invalidated)
	}
}

func TestConfirmChargerFeedsTrustCounters(t *testing.T) {
	st := &fakeStore{setErr: map[string]error{}}
	svc := newTestService(st, &fakeSnapshot{}, &fakeFeed{}, &fakeReports{}, true)

	if err := svc.ConfirmCharger(context.Background(), "C1"); err != nil {
		t.Fatalf("ConfirmCharger: %v", err)
	}
	if len(st.verifyCalls) != 1 || st.verifyCalls[0] != "C1" {
		t.Errorf("verify calls = %v, want [C1]", st.verifyCalls)
	}

	st.setErr["GHOST"] = models.ErrChargerNotFound
	if err := svc.ConfirmCharger(context.Background(), "GHOST"); !errors.Is(err, models.ErrChargerNotFound) {
		t.Errorf("err = %v, want ErrChargerNotFound", err)
	}
}

func TestUpdateWhileOfflineQueues(t *testing.T) {
	st := &fakeStore{setErr: map[string]error{}}
	svc := newTestService(st, &fakeSnapshot{}, &fakeFeed{}, &fakeReports{}, false)

	res, err := svc.UpdateChargerStatus(context.Background(), "C1", models.StatusOutOfService, "", "")
	if err != nil {
		t.Fatalf("UpdateChargerStatus: %v", err)
	}
	if !res.Queued || res.Pending != 1 {
		t.Errorf("result = %+v, want queued with 1 pending", res)
	}
	if st.setCallCount() != 0 {
		t.Errorf("remote store called %d times while offline", st.setCallCount())
	}
}

func TestUpdateTransientFailureQueues(t *testing.T) {
	st := &fakeStore{setErr: map[string]error{"C1": errors.New("connection refused")}}
	svc := newTestService(st, &fakeSnapshot{}, &fakeFeed{}, &fakeReports{}, true)

	res, err := svc.UpdateChargerStatus(context.Background(), "C1", models.StatusAvailable, "", "")
	if err != nil {
		t.Fatalf("transient failure should queue, not error: %v", err)
	}
	if !res.Queued {
		t.Error("expected queued result")
	}
	if svc.PendingUpdates() != 1 {
		t.Errorf("PendingUpdates = %d, want 1", svc.PendingUpdates())
	}
}

func TestUpdateUnknownChargerSurfacesError(t *testing.T) {
	st := &fakeStore{setErr: map[string]error{"GHOST": models.ErrChargerNotFound}}
	svc := newTestService(st, &fakeSnapshot{}, &fakeFeed{}, &fakeReports{}, true)

	_, err := svc.UpdateChargerStatus(context.Background(), "GHOST", models.StatusAvailable, "", "")
	if !errors.Is(err, models.ErrChargerNotFound) {
		t.Errorf("err = %v, want ErrChargerNotFound", err)
	}
	if svc.PendingUpdates() != 0 {
		t.Errorf("permanent rejection must not be queued, pending = %d", svc.PendingUpdates())
	}
}

func TestUpdateRejectsInvalidStatus(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeSnapshot{}, &fakeFeed{}, &fakeReports{}, true)

	_, err := svc.UpdateChargerStatus(context.Background(), "C1", models.ChargerStatus("Broken"), "", "")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestListFallsBackToCacheWhenStoreFails(t *testing.T) {
	cached := []models.Station{{StationID: "S1", Latitude: 37.7, Longitude: -122.4}}
	st := &fakeStore{listErr: errors.New("upstream down")}
	snap := &fakeSnapshot{stations: cached}
	svc := newTestService(st, snap, &fakeFeed{}, &fakeReports{}, true)

	res, err := svc.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("List should fall back to cache: %v", err)
	}
	if !res.Stale {
		t.Error("fallback result should be marked stale")
	}
	if len(res.Stations) != 1 {
		t.Errorf("stations = %v", res.Stations)
	}
}

func TestListScopesCachedFallbackToBounds(t *testing.T) {
	cached := []models.Station{
		{StationID: "IN", Latitude: 37.7, Longitude: -122.4},
		{StationID: "OUT", Latitude: 40.0, Longitude: -74.0},
	}
	st := &fakeStore{listErr: errors.New("upstream down")}
	svc := newTestService(st, &fakeSnapshot{stations: cached}, &fakeFeed{}, &fakeReports{}, true)

	res, err := svc.List(context.Background(), &models.Bounds{North: 38, South: 37, East: -122, West: -123})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(res.Stations) != 1 || res.Stations[0].StationID != "IN" {
		t.Errorf("stations = %+v, want only IN", res.Stations)
	}
}

func TestListErrorsWhenStoreAndCacheFail(t *testing.T) {
	st := &fakeStore{listErr: errors.New("upstream down")}
	snap := &fakeSnapshot{loadErr: errors.New("cache empty")}
	svc := newTestService(st, snap, &fakeFeed{}, &fakeReports{}, true)

	if _, err := svc.List(context.Background(), nil); err == nil {
		t.Fatal("expected error when both store and cache fail")
	}
}

func TestQueuedUpdateReplaysThroughAuditPath(t *testing.T) {
	st := &fakeStore{setErr: map[string]error{}}
	feed := &fakeFeed{}
	reports := &fakeReports{}
	svc := newTestService(st, &fakeSnapshot{}, feed, reports, false)

	if _, err := svc.UpdateChargerStatus(context.Background(), "C1", models.StatusAvailable, "", ""); err != nil {
		t.Fatalf("UpdateChargerStatus: %v", err)
	}

	// Back online: a manual sync replays through the same write path.
	svc.signal.(*fixedSignal).online = true
	svc.SyncNow(context.Background())

	if svc.PendingUpdates() != 0 {
		t.Errorf("PendingUpdates = %d, want 0", svc.PendingUpdates())
	}
	if feed.count() != 1 {
		t.Errorf("published %d changes, want 1 from replay", feed.count())
	}
	if len(reports.entries) != 1 || reports.entries[0].ReportedBy != "offline-sync" {
		t.Errorf("reports = %+v, want one offline-sync entry", reports.entries)
	}
}
