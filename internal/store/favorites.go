package store

import "encoding/json"

const favoritesKey = "ev-charger-favorites"

// Favorites keeps the user's favorite station ids.
type Favorites struct {
	kv KV
}

// NewFavorites returns the favorites set backed by kv.
func NewFavorites(kv KV) *Favorites {
	return &Favorites{kv: kv}
}

// List returns all favorite station ids in insertion order.
func (f *Favorites) List() []string {
	raw, ok := f.kv.Get(favoritesKey)
	if !ok {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		f.kv.Delete(favoritesKey)
		return nil
	}
	return ids
}

// Contains reports whether the station is a favorite.
func (f *Favorites) Contains(stationID string) bool {
	for _, id := range f.List() {
		if id == stationID {
			return true
		}
	}
	return false
}

// Add marks a station as favorite; adding twice is a no-op.
func (f *Favorites) Add(stationID string) error {
	ids := f.List()
	for _, id := range ids {
		if id == stationID {
			return nil
		}
	}
	return f.save(append(ids, stationID))
}

// Remove unmarks a station; removing a non-favorite is a no-op.
func (f *Favorites) Remove(stationID string) error {
	ids := f.List()
	kept := ids[:0]
	for _, id := range ids {
		if id != stationID {
			kept = append(kept, id)
		}
	}
	return f.save(kept)
}

func (f *Favorites) save(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return f.kv.Set(favoritesKey, string(data))
}
