package models

import (
	"math"
	"time"
)

// Charger is an individual charging port at a station.
type Charger struct {
	ChargerID         string        `json:"charger_id"`
	PlugType          PlugType      `json:"plug_type"`
	MaxPowerKW        float64       `json:"max_power_kw"`
	Status            ChargerStatus `json:"current_status"`
	LastUpdate        time.Time     `json:"last_update_timestamp"`
	LastVerifiedAt    *time.Time    `json:"last_verified_at,omitempty"`
	VerificationCount int           `json:"verification_count,omitempty"`
	RatingScore       float64       `json:"rating_score,omitempty"`
	RatingCount       int           `json:"rating_count,omitempty"`
}

// PowerKW returns the charger's rated power with NaN and negative values
// treated as 0 so they never reach numeric comparisons or display.
func (c Charger) PowerKW() float64 {
	if math.IsNaN(c.MaxPowerKW) || c.MaxPowerKW < 0 {
		return 0
	}
	return c.MaxPowerKW
}

// Station is a physical location containing zero or more chargers.
type Station struct {
	StationID string    `json:"station_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Network   string    `json:"network,omitempty"`
	Amenities []string  `json:"amenities,omitempty"`
	Parking   []string  `json:"parking,omitempty"`
	Chargers  []Charger `json:"chargers"`
}

// MaxPowerKW returns the highest rated power across the station's chargers,
// 0 for a station with no chargers.
func (s Station) MaxPowerKW() float64 {
	var max float64
	for _, c := range s.Chargers {
		if p := c.PowerKW(); p > max {
			max = p
		}
	}
	return max
}

// Status derives the aggregate station status: any available charger wins,
// then any in-use charger, otherwise out of order.
func (s Station) Status() StationStatus {
	if len(s.Chargers) == 0 {
		return StationOutOfOrder
	}
	inUse := false
	for _, c := range s.Chargers {
		switch c.Status {
		case StatusAvailable:
			return StationAvailable
		case StatusInUse:
			inUse = true
		}
	}
	if inUse {
		return StationInUse
	}
	return StationOutOfOrder
}

// HasAmenities reports whether the station offers every requested amenity.
func (s Station) HasAmenities(wanted []string) bool {
	return containsAll(s.Amenities, wanted)
}

// HasParking reports whether the station offers every requested parking option.
func (s Station) HasParking(wanted []string) bool {
	return containsAll(s.Parking, wanted)
}

func containsAll(have, wanted []string) bool {
	for _, w := range wanted {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Bounds is a geographic rectangle scoping station queries to a map viewport.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Contains reports whether the point lies inside the box, edges included.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.South && lat <= b.North && lon >= b.West && lon <= b.East
}
