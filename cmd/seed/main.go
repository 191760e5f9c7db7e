// Command seed creates the station schema and loads the San Francisco sample
// dataset. It is destructive: existing stations and chargers are replaced.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"chargesure/internal/config"
	"chargesure/internal/db"
	"chargesure/internal/logging"
	"chargesure/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS stations (
	station_id TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	address    TEXT NOT NULL,
	latitude   DOUBLE PRECISION NOT NULL,
	longitude  DOUBLE PRECISION NOT NULL,
	network    TEXT,
	amenities  JSONB NOT NULL DEFAULT '[]',
	parking    JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS chargers (
	charger_id            TEXT PRIMARY KEY,
	station_id            TEXT NOT NULL REFERENCES stations (station_id) ON DELETE CASCADE,
	plug_type             TEXT NOT NULL,
	max_power_kw          DOUBLE PRECISION NOT NULL DEFAULT 0,
	current_status        TEXT NOT NULL DEFAULT 'Unknown',
	last_update_timestamp TIMESTAMPTZ,
	last_verified_at      TIMESTAMPTZ,
	verification_count    INTEGER NOT NULL DEFAULT 0,
	rating_score          DOUBLE PRECISION NOT NULL DEFAULT 0,
	rating_count          INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_chargers_station ON chargers (station_id);

CREATE TABLE IF NOT EXISTS charger_ratings (
	id         TEXT PRIMARY KEY,
	charger_id TEXT NOT NULL REFERENCES chargers (charger_id) ON DELETE CASCADE,
	user_ref   TEXT NOT NULL,
	rating     TEXT NOT NULL CHECK (rating IN ('up', 'down')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (charger_id, user_ref)
);

CREATE TABLE IF NOT EXISTS charger_status_updates (
	id          TEXT PRIMARY KEY,
	charger_id  TEXT NOT NULL REFERENCES chargers (charger_id) ON DELETE CASCADE,
	old_status  TEXT NOT NULL,
	new_status  TEXT NOT NULL,
	reported_by TEXT,
	notes       TEXT,
	reported_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_status_updates_charger
	ON charger_status_updates (charger_id, reported_at DESC);
`

type seedCharger struct {
	ID       string
	PlugType models.PlugType
	PowerKW  float64
	Status   models.ChargerStatus
}

type seedStation struct {
	ID        string
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
	Network   string
	Amenities []string
	Parking   []string
	Chargers  []seedCharger
}

var sampleStations = []seedStation{
	{
		ID: "CS001", Name: "Downtown Charging Hub",
		Address: "123 Main Street, San Francisco, CA", Latitude: 37.7749, Longitude: -122.4194,
		Network:   "ChargePoint",
		Amenities: []string{"dining", "restrooms", "shopping", "wifi", "valet"},
		Parking:   []string{"covered", "illuminated", "accessible"},
		Chargers: []seedCharger{
			{"CS001-01", models.PlugCCS, 150, models.StatusAvailable},
			{"CS001-02", models.PlugCHAdeMO, 50, models.StatusInUse},
			{"CS001-03", models.PlugTesla, 250, models.StatusAvailable},
		},
	},
	{
		ID: "CS002", Name: "Shopping Center Fast Charge",
		Address: "456 Market Square, San Francisco, CA", Latitude: 37.7849, Longitude: -122.4094,
		Network:   "Electrify America",
		Amenities: []string{"restrooms", "shopping", "dining"},
		Parking:   []string{"pullthrough", "illuminated"},
		Chargers: []seedCharger{
			{"CS002-01", models.PlugCCS, 75, models.StatusAvailable},
			{"CS002-02", models.PlugCCS, 75, models.StatusOutOfService},
		},
	},
	{
		ID: "CS003", Name: "Airport Express Charging",
		Address: "789 Airport Blvd, San Francisco, CA", Latitude: 37.7649, Longitude: -122.3994,
		Network:   "EVgo",
		Amenities: []string{"restrooms", "shopping", "grocery"},
		Parking:   []string{"pullin", "accessible"},
		Chargers: []seedCharger{
			{"CS003-01", models.PlugTesla, 150, models.StatusAvailable},
			{"CS003-02", models.PlugCCS, 150, models.StatusAvailable},
			{"CS003-03", models.PlugCHAdeMO, 50, models.StatusInUse},
			{"CS003-04", models.PlugType2, 22, models.StatusAvailable},
		},
	},
	{
		ID: "CS004", Name: "Highway Rest Stop",
		Address: "321 Highway 101, San Francisco, CA", Latitude: 37.7949, Longitude: -122.4294,
		Network:   "Electrify America",
		Amenities: []string{"park", "restrooms"},
		Parking:   []string{"pullin", "illuminated"},
		Chargers: []seedCharger{
			{"CS004-01", models.PlugCCS, 200, models.StatusAvailable},
			{"CS004-02", models.PlugTesla, 250, models.StatusInUse},
		},
	},
	{
		ID: "CS005", Name: "University Campus Charging",
		Address: "654 College Ave, San Francisco, CA", Latitude: 37.7549, Longitude: -122.4394,
		Network: "ChargePoint",
		Parking: []string{"pullin", "covered"},
		Chargers: []seedCharger{
			{"CS005-01", models.PlugType2, 11, models.StatusAvailable},
			{"CS005-02", models.PlugType2, 11, models.StatusAvailable},
			{"CS005-03", models.PlugCCS, 50, models.StatusOutOfService},
		},
	},
	{
		ID: "CS006", Name: "Marina Bay Charging Point",
		Address: "987 Bay Street, San Francisco, CA", Latitude: 37.8049, Longitude: -122.4094,
		Network:   "Tesla Supercharger",
		Amenities: []string{"restrooms", "wifi"},
		Parking:   []string{"garage", "valet"},
		Chargers: []seedCharger{
			{"CS006-01", models.PlugTesla, 120, models.StatusAvailable},
			{"CS006-02", models.PlugCCS, 100, models.StatusAvailable},
		},
	},
	{
		ID: "CS007", Name: "Business District Fast Hub",
		Address: "111 Financial Blvd, San Francisco, CA", Latitude: 37.7949, Longitude: -122.3894,
		Network:   "EVgo",
		Amenities: []string{"dining", "wifi"},
		Parking:   []string{"garage", "accessible"},
		Chargers: []seedCharger{
			{"CS007-01", models.PlugCCS, 175, models.StatusInUse},
			{"CS007-02", models.PlugCHAdeMO, 50, models.StatusAvailable},
			{"CS007-03", models.PlugTesla, 200, models.StatusAvailable},
		},
	},
	{
		ID: "CS008", Name: "Residential Area Charger",
		Address: "222 Oak Street, San Francisco, CA", Latitude: 37.7449, Longitude: -122.4494,
		Network: "ChargePoint",
		Parking: []string{"pullin"},
		Chargers: []seedCharger{
			{"CS008-01", models.PlugType2, 7, models.StatusAvailable},
			{"CS008-02", models.PlugCCS, 50, models.StatusAvailable},
		},
	},
	{
		ID: "CS009", Name: "Hotel Destination Charging",
		Address: "555 Luxury Lane, San Francisco, CA", Latitude: 37.7749, Longitude: -122.3794,
		Network:   "Tesla Supercharger",
		Amenities: []string{"dining", "lodging", "wifi", "valet"},
		Parking:   []string{"garage", "covered", "valet"},
		Chargers: []seedCharger{
			{"CS009-01", models.PlugTesla, 11, models.StatusInUse},
			{"CS009-02", models.PlugType2, 22, models.StatusAvailable},
			{"CS009-03", models.PlugType2, 22, models.StatusAvailable},
		},
	},
	{
		ID: "CS010", Name: "Supermarket Charging",
		Address: "777 Grocery Way, San Francisco, CA", Latitude: 37.8149, Longitude: -122.4194,
		Network:   "EVgo",
		Amenities: []string{"grocery", "restrooms", "free"},
		Parking:   []string{"pullin", "illuminated"},
		Chargers: []seedCharger{
			{"CS010-01", models.PlugCCS, 50, models.StatusAvailable},
			{"CS010-02", models.PlugCHAdeMO, 50, models.StatusOutOfService},
		},
	},
	{
		ID: "CS011", Name: "Park and Ride EV Station",
		Address: "888 Transit Hub, San Francisco, CA", Latitude: 37.7349, Longitude: -122.4594,
		Network:   "ChargePoint",
		Amenities: []string{"park", "free"},
		Parking:   []string{"pullin", "accessible", "illuminated"},
		Chargers: []seedCharger{
			{"CS011-01", models.PlugCCS, 100, models.StatusAvailable},
			{"CS011-02", models.PlugTesla, 150, models.StatusAvailable},
			{"CS011-03", models.PlugType2, 11, models.StatusInUse},
		},
	},
	{
		ID: "CS012", Name: "Tech Campus Ultra-Fast",
		Address: "999 Innovation Drive, San Francisco, CA", Latitude: 37.7649, Longitude: -122.3694,
		Network:   "Electrify America",
		Amenities: []string{"dining", "wifi", "restrooms"},
		Parking:   []string{"covered", "accessible"},
		Chargers: []seedCharger{
			{"CS012-01", models.PlugCCS, 350, models.StatusAvailable},
			{"CS012-02", models.PlugTesla, 250, models.StatusInUse},
			{"CS012-03", models.PlugCHAdeMO, 100, models.StatusAvailable},
		},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	conn, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	ctx := context.Background()
	if err := seed(ctx, conn); err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}

	chargers := 0
	for _, s := range sampleStations {
		chargers += len(s.Chargers)
	}
	logger.Info("database seeded",
		zap.Int("stations", len(sampleStations)),
		zap.Int("chargers", chargers))
}

func seed(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stations`); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, station := range sampleStations {
		amenities, err := json.Marshal(station.Amenities)
		if err != nil {
			return err
		}
		parking, err := json.Marshal(station.Parking)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stations (station_id, name, address, latitude, longitude, network, amenities, parking)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, station.ID, station.Name, station.Address, station.Latitude, station.Longitude,
			station.Network, amenities, parking); err != nil {
			return err
		}

		for _, charger := range station.Chargers {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO chargers (charger_id, station_id, plug_type, max_power_kw, current_status, last_update_timestamp)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, charger.ID, station.ID, string(charger.PlugType), charger.PowerKW,
				string(charger.Status), now); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}
