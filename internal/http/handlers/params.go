package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"chargesure/internal/geo"
	"chargesure/internal/models"
)

// parseBounds reads an optional bounding box from north/south/east/west
// query parameters. All four must be present together.
func parseBounds(q url.Values) (*models.Bounds, error) {
	keys := []string{"north", "south", "east", "west"}
	present := 0
	for _, k := range keys {
		if q.Get(k) != "" {
			present++
		}
	}
	if present == 0 {
		return nil, nil
	}
	if present != len(keys) {
		return nil, errBadBounds
	}

	values := make([]float64, len(keys))
	for i, k := range keys {
		v, err := strconv.ParseFloat(q.Get(k), 64)
		if err != nil {
			return nil, errBadBounds
		}
		values[i] = v
	}
	return &models.Bounds{North: values[0], South: values[1], East: values[2], West: values[3]}, nil
}

// parseLocation reads an optional user location from lat/lon query
// parameters.
func parseLocation(q url.Values) (*geo.Coordinates, error) {
	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, errBadLocation
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, errBadLocation
	}
	return &geo.Coordinates{Latitude: lat, Longitude: lon}, nil
}

// parseFilter reads the filter state from query parameters; absent
// parameters mean "no constraint".
func parseFilter(q url.Values) models.FilterState {
	f := models.DefaultFilterState()

	f.SearchText = q.Get("q")
	f.AvailabilityOnly = q.Get("available") == "true"

	if v, err := strconv.Atoi(q.Get("min_score")); err == nil {
		f.MinPlugScore = v
	}
	if v, err := strconv.Atoi(q.Get("min_chargers")); err == nil {
		f.MinChargerCount = v
	}
	if v, err := strconv.ParseFloat(q.Get("min_kw"), 64); err == nil {
		f.KilowattRange[0] = v
	}
	if v, err := strconv.ParseFloat(q.Get("max_kw"), 64); err == nil {
		f.KilowattRange[1] = v
	}
	for _, raw := range splitCSV(q.Get("plug_types")) {
		f.PlugTypes = append(f.PlugTypes, models.NormalizePlugType(raw))
	}
	f.Amenities = splitCSV(q.Get("amenities"))
	f.Parking = splitCSV(q.Get("parking"))

	return f
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
