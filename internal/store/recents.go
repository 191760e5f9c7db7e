package store

import (
	"encoding/json"
	"time"
)

const (
	recentStationsKey = "ev-charger-recent-stations"
	maxRecentStations = 5
)

// RecentStation is one entry in the recently viewed list.
type RecentStation struct {
	StationID string    `json:"station_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	VisitedAt time.Time `json:"visitedAt"`
}

// Recents keeps the short list of recently viewed stations, most recent
// first, capped and deduplicated by station id.
type Recents struct {
	kv KV
}

// NewRecents returns the recents list backed by kv.
func NewRecents(kv KV) *Recents {
	return &Recents{kv: kv}
}

// List returns the stored entries, most recent first. A corrupt blob reads
// as an empty list.
func (r *Recents) List() []RecentStation {
	raw, ok := r.kv.Get(recentStationsKey)
	if !ok {
		return nil
	}
	var entries []RecentStation
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		r.kv.Delete(recentStationsKey)
		return nil
	}
	return entries
}

// Add records a visit, moving an existing entry to the front and trimming
// the list to its cap.
func (r *Recents) Add(stationID, name, address string) error {
	entry := RecentStation{
		StationID: stationID,
		Name:      name,
		Address:   address,
		VisitedAt: time.Now().UTC(),
	}

	updated := []RecentStation{entry}
	for _, existing := range r.List() {
		if existing.StationID == stationID {
			continue
		}
		updated = append(updated, existing)
		if len(updated) == maxRecentStations {
			break
		}
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return err
	}
	return r.kv.Set(recentStationsKey, string(data))
}

// Clear drops the whole list.
func (r *Recents) Clear() {
	r.kv.Delete(recentStationsKey)
}
