package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chargesure/internal/models"
)

// StationRepository reads and mutates station and charger rows.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository returns repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

const stationColumns = `
	s.station_id, s.name, s.address, s.latitude, s.longitude, s.network, s.amenities, s.parking,
	c.charger_id, c.plug_type, c.max_power_kw, c.current_status, c.last_update_timestamp,
	c.last_verified_at, c.verification_count, c.rating_score, c.rating_count
`

// List fetches stations with their chargers, optionally scoped to a bounding
// box. A nil bounds means an unbounded query.
func (r *StationRepository) List(ctx context.Context, bounds *models.Bounds) ([]models.Station, error) {
	query := `SELECT ` + stationColumns + `
		FROM stations s
		LEFT JOIN chargers c ON c.station_id = s.station_id`
	var args []interface{}
	if bounds != nil {
		query += ` WHERE s.latitude >= $1 AND s.latitude <= $2 AND s.longitude >= $3 AND s.longitude <= $4`
		args = append(args, bounds.South, bounds.North, bounds.West, bounds.East)
	}
	query += ` ORDER BY s.station_id, c.charger_id`

	return r.queryStations(ctx, query, args...)
}

// Get fetches a single station by id.
func (r *StationRepository) Get(ctx context.Context, stationID string) (*models.Station, error) {
	query := `SELECT ` + stationColumns + `
		FROM stations s
		LEFT JOIN chargers c ON c.station_id = s.station_id
		WHERE s.station_id = $1
		ORDER BY c.charger_id`

	stations, err := r.queryStations(ctx, query, stationID)
	if err != nil {
		return nil, err
	}
	if len(stations) == 0 {
		return nil, models.ErrStationNotFound
	}
	return &stations[0], nil
}

// Search fetches stations whose name or address contains the text,
// case-insensitive, optionally scoped to a bounding box.
func (r *StationRepository) Search(ctx context.Context, text string, bounds *models.Bounds) ([]models.Station, error) {
	query := `SELECT ` + stationColumns + `
		FROM stations s
		LEFT JOIN chargers c ON c.station_id = s.station_id
		WHERE (s.name ILIKE '%' || $1 || '%' OR s.address ILIKE '%' || $1 || '%')`
	args := []interface{}{text}
	if bounds != nil {
		query += ` AND s.latitude >= $2 AND s.latitude <= $3 AND s.longitude >= $4 AND s.longitude <= $5`
		args = append(args, bounds.South, bounds.North, bounds.West, bounds.East)
	}
	query += ` ORDER BY s.station_id, c.charger_id`

	return r.queryStations(ctx, query, args...)
}

// StatusChange reports the outcome of a status mutation.
type StatusChange struct {
	StationID string
	Previous  models.ChargerStatus
	// Applied is false for a stale replay, which is acknowledged as a
	// no-op rather than rejected.
	Applied bool
}

// SetChargerStatus applies a status mutation with an idempotency guard: the
// write lands only when ts is newer than the stored timestamp, so an
// at-least-once replay of an identical or older update is acknowledged as a
// no-op instead of re-applied. An unknown charger id is a permanent
// rejection.
func (r *StationRepository) SetChargerStatus(ctx context.Context, chargerID string, status models.ChargerStatus, ts time.Time) (StatusChange, error) {
	var (
		stationID string
		current   string
		updatedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT station_id, current_status, last_update_timestamp
		FROM chargers
		WHERE charger_id = $1
	`, chargerID).Scan(&stationID, &current, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return StatusChange{}, fmt.Errorf("charger %q: %w", chargerID, models.ErrChargerNotFound)
	}
	if err != nil {
		return StatusChange{}, err
	}

	change := StatusChange{
		StationID: stationID,
		Previous:  models.ParseChargerStatus(current),
	}

	if updatedAt.Valid && !ts.After(updatedAt.Time) {
		return change, nil
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE chargers
		SET current_status = $2,
		    last_update_timestamp = $3
		WHERE charger_id = $1
		  AND (last_update_timestamp IS NULL OR last_update_timestamp < $3)
	`, chargerID, string(status), ts.UTC())
	if err != nil {
		return StatusChange{}, err
	}

	change.Applied = true
	return change, nil
}

// VerifyCharger bumps the community trust counters after a confirmed report.
func (r *StationRepository) VerifyCharger(ctx context.Context, chargerID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE chargers
		SET last_verified_at = $2,
		    verification_count = verification_count + 1
		WHERE charger_id = $1
	`, chargerID, at.UTC())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("charger %q: %w", chargerID, models.ErrChargerNotFound)
	}
	return nil
}

func (r *StationRepository) queryStations(ctx context.Context, query string, args ...interface{}) ([]models.Station, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		stations []models.Station
		current  *models.Station
	)
	for rows.Next() {
		var (
			station   models.Station
			amenities []byte
			parking   []byte
			network   sql.NullString

			chargerID  sql.NullString
			plugType   sql.NullString
			powerKW    sql.NullFloat64
			status     sql.NullString
			updatedAt  sql.NullTime
			verifiedAt sql.NullTime
			verifCount sql.NullInt64
			ratingAvg  sql.NullFloat64
			ratingCnt  sql.NullInt64
		)
		if err := rows.Scan(
			&station.StationID, &station.Name, &station.Address,
			&station.Latitude, &station.Longitude, &network, &amenities, &parking,
			&chargerID, &plugType, &powerKW, &status, &updatedAt,
			&verifiedAt, &verifCount, &ratingAvg, &ratingCnt,
		); err != nil {
			return nil, err
		}
		station.Network = network.String
		// Malformed tag blobs read as empty; one bad row must not blank
		// the whole listing.
		_ = json.Unmarshal(amenities, &station.Amenities)
		_ = json.Unmarshal(parking, &station.Parking)

		if current == nil || current.StationID != station.StationID {
			stations = append(stations, station)
			current = &stations[len(stations)-1]
		}

		if !chargerID.Valid {
			continue
		}
		charger := models.Charger{
			ChargerID:         chargerID.String,
			PlugType:          models.NormalizePlugType(plugType.String),
			MaxPowerKW:        powerKW.Float64,
			Status:            models.ParseChargerStatus(status.String),
			LastUpdate:        updatedAt.Time,
			VerificationCount: int(verifCount.Int64),
			RatingScore:       ratingAvg.Float64,
			RatingCount:       int(ratingCnt.Int64),
		}
		if verifiedAt.Valid {
			t := verifiedAt.Time
			charger.LastVerifiedAt = &t
		}
		current.Chargers = append(current.Chargers, charger)
	}
	return stations, rows.Err()
}
