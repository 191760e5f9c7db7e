// Package filter implements the pure station filtering and ranking pipeline.
// It performs no I/O and never mutates its inputs, so callers can re-run it
// on every filter edit.
package filter

import (
	"sort"
	"strings"

	"chargesure/internal/geo"
	"chargesure/internal/models"
)

// Apply filters the station set by the given state and orders the result:
// by ascending distance when a user location is supplied, otherwise by
// station status priority then PlugScore descending. The returned slice is
// always freshly allocated.
func Apply(stations []models.Station, f models.FilterState, userLocation *geo.Coordinates) []models.Station {
	out := make([]models.Station, 0, len(stations))
	for _, s := range stations {
		if matches(s, f) {
			out = append(out, s)
		}
	}
	rank(out, userLocation)
	return out
}

func matches(s models.Station, f models.FilterState) bool {
	if q := strings.ToLower(strings.TrimSpace(f.SearchText)); q != "" && !matchesSearch(s, q) {
		return false
	}

	if len(f.PlugTypes) > 0 && !hasAnyPlugType(s, f) {
		return false
	}

	if f.AvailabilityOnly && !hasAvailableRelevantCharger(s, f) {
		return false
	}

	if f.HasKilowattConstraint() {
		if len(s.Chargers) == 0 {
			return false
		}
		max := s.MaxPowerKW()
		if max < f.KilowattRange[0] {
			return false
		}
		// The slider's top bound means "that much or more".
		if f.KilowattRange[1] < models.KilowattRangeMax && max > f.KilowattRange[1] {
			return false
		}
	}

	if f.MinChargerCount > 0 && len(s.Chargers) < f.MinChargerCount {
		return false
	}

	if !s.HasAmenities(f.Amenities) {
		return false
	}
	if !s.HasParking(f.Parking) {
		return false
	}

	if f.MinPlugScore > 0 && s.PlugScore() < f.MinPlugScore {
		return false
	}

	return true
}

func matchesSearch(s models.Station, query string) bool {
	if strings.Contains(strings.ToLower(s.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(s.Address), query) {
		return true
	}
	for _, c := range s.Chargers {
		if strings.Contains(strings.ToLower(string(c.PlugType)), query) {
			return true
		}
	}
	return false
}

func hasAnyPlugType(s models.Station, f models.FilterState) bool {
	for _, c := range s.Chargers {
		if f.WantsPlugType(c.PlugType) {
			return true
		}
	}
	return false
}

// hasAvailableRelevantCharger checks availability only among chargers that
// pass the plug-type selection, so a station is not kept because an
// unselected plug happens to be free.
func hasAvailableRelevantCharger(s models.Station, f models.FilterState) bool {
	for _, c := range s.Chargers {
		if f.WantsPlugType(c.PlugType) && c.Status == models.StatusAvailable {
			return true
		}
	}
	return false
}

func rank(stations []models.Station, userLocation *geo.Coordinates) {
	if userLocation != nil {
		sort.SliceStable(stations, func(i, j int) bool {
			di := geo.Distance(*userLocation, geo.Coordinates{Latitude: stations[i].Latitude, Longitude: stations[i].Longitude})
			dj := geo.Distance(*userLocation, geo.Coordinates{Latitude: stations[j].Latitude, Longitude: stations[j].Longitude})
			return di < dj
		})
		return
	}

	sort.SliceStable(stations, func(i, j int) bool {
		ri, rj := stations[i].Status().Rank(), stations[j].Status().Rank()
		if ri != rj {
			return ri < rj
		}
		return stations[i].PlugScore() > stations[j].PlugScore()
	})
}
