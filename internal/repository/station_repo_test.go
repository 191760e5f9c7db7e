package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"chargesure/internal/models"
)

// newStatusTestRepo backs the repository with an embedded sqlite file; the
// status-mutation SQL is portable enough to exercise the timestamp guard
// without a Postgres instance.
func newStatusTestRepo(t *testing.T) *StationRepository {
	t.Helper()

	conn, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "stations.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	const schema = `
		CREATE TABLE chargers (
			charger_id            TEXT PRIMARY KEY,
			station_id            TEXT NOT NULL,
			current_status        TEXT NOT NULL,
			last_update_timestamp TIMESTAMP,
			last_verified_at      TIMESTAMP,
			verification_count    INTEGER NOT NULL DEFAULT 0
		)
	`
	if _, err := conn.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if _, err := conn.Exec(
		`INSERT INTO chargers (charger_id, station_id, current_status) VALUES ('C1', 'S1', 'In Use')`,
	); err != nil {
		t.Fatalf("seed charger: %v", err)
	}

	return NewStationRepository(conn)
}

func currentStatus(t *testing.T, repo *StationRepository, chargerID string) string {
	t.Helper()
	var status string
	if err := repo.db.QueryRow(
		`SELECT current_status FROM chargers WHERE charger_id = $1`, chargerID,
	).Scan(&status); err != nil {
		t.Fatalf("read status: %v", err)
	}
	return status
}

func TestSetChargerStatusAppliesNewerUpdate(t *testing.T) {
	repo := newStatusTestRepo(t)
	ts := time.Now().UTC().Truncate(time.Second)

	change, err := repo.SetChargerStatus(context.Background(), "C1", models.StatusAvailable, ts)
	if err != nil {
		t.Fatalf("SetChargerStatus: %v", err)
	}
	if !change.Applied {
		t.Error("first update should apply")
	}
	if change.StationID != "S1" || change.Previous != models.StatusInUse {
		t.Errorf("change = %+v, want station S1 previous In Use", change)
	}
	if got := currentStatus(t, repo, "C1"); got != "Available" {
		t.Errorf("stored status = %q, want Available", got)
	}
}

func TestSetChargerStatusIdenticalReplayIsNoOp(t *testing.T) {
	repo := newStatusTestRepo(t)
	ts := time.Now().UTC().Truncate(time.Second)

	if _, err := repo.SetChargerStatus(context.Background(), "C1", models.StatusAvailable, ts); err != nil {
		t.Fatalf("first SetChargerStatus: %v", err)
	}

	// A crash between the remote ack and the local dequeue replays the exact
	// same update; it must be acknowledged without re-applying.
	change, err := repo.SetChargerStatus(context.Background(), "C1", models.StatusAvailable, ts)
	if err != nil {
		t.Fatalf("replayed SetChargerStatus: %v", err)
	}
	if change.Applied {
		t.Error("identical replay reported Applied, want safe no-op")
	}
	if change.Previous != models.StatusAvailable {
		t.Errorf("Previous = %q, want Available", change.Previous)
	}
}

func TestSetChargerStatusOlderUpdateIsNoOp(t *testing.T) {
	repo := newStatusTestRepo(t)
	ts := time.Now().UTC().Truncate(time.Second)

	if _, err := repo.SetChargerStatus(context.Background(), "C1", models.StatusAvailable, ts); err != nil {
		t.Fatalf("SetChargerStatus: %v", err)
	}

	change, err := repo.SetChargerStatus(context.Background(), "C1", models.StatusOutOfService, ts.Add(-time.Minute))
	if err != nil {
		t.Fatalf("stale SetChargerStatus: %v", err)
	}
	if change.Applied {
		t.Error("older update reported Applied, want no-op")
	}
	if got := currentStatus(t, repo, "C1"); got != "Available" {
		t.Errorf("stored status = %q, stale update must not win", got)
	}
}

func TestSetChargerStatusUnknownCharger(t *testing.T) {
	repo := newStatusTestRepo(t)

	_, err := repo.SetChargerStatus(context.Background(), "GHOST", models.StatusAvailable, time.Now().UTC())
	if !errors.Is(err, models.ErrChargerNotFound) {
		t.Errorf("err = %v, want ErrChargerNotFound", err)
	}
}

func TestVerifyChargerBumpsTrustCounters(t *testing.T) {
	repo := newStatusTestRepo(t)
	at := time.Now().UTC().Truncate(time.Second)

	if err := repo.VerifyCharger(context.Background(), "C1", at); err != nil {
		t.Fatalf("VerifyCharger: %v", err)
	}
	if err := repo.VerifyCharger(context.Background(), "C1", at.Add(time.Minute)); err != nil {
		t.Fatalf("second VerifyCharger: %v", err)
	}

	var count int
	var verifiedAt sql.NullTime
	if err := repo.db.QueryRow(
		`SELECT verification_count, last_verified_at FROM chargers WHERE charger_id = 'C1'`,
	).Scan(&count, &verifiedAt); err != nil {
		t.Fatalf("read counters: %v", err)
	}
	if count != 2 {
		t.Errorf("verification_count = %d, want 2", count)
	}
	if !verifiedAt.Valid {
		t.Error("last_verified_at not recorded")
	}
}

func TestVerifyChargerUnknownCharger(t *testing.T) {
	repo := newStatusTestRepo(t)

	err := repo.VerifyCharger(context.Background(), "GHOST", time.Now().UTC())
	if !errors.Is(err, models.ErrChargerNotFound) {
		t.Errorf("err = %v, want ErrChargerNotFound", err)
	}
}
