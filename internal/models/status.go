package models

// ChargerStatus is the closed live-status enum for a single charging port.
// Unrecognized input from the data source maps to StatusUnknown rather than
// leaking free-form strings into the domain.
type ChargerStatus string

const (
	StatusAvailable    ChargerStatus = "Available"
	StatusInUse        ChargerStatus = "In Use"
	StatusOutOfService ChargerStatus = "Out of Service"
	StatusUnknown      ChargerStatus = "Unknown"
)

// ParseChargerStatus maps a raw status string to the closed enum. Empty and
// unrecognized values become StatusUnknown.
func ParseChargerStatus(raw string) ChargerStatus {
	switch ChargerStatus(raw) {
	case StatusAvailable, StatusInUse, StatusOutOfService:
		return ChargerStatus(raw)
	default:
		return StatusUnknown
	}
}

// Valid reports whether the status is one a client may submit in a status
// update. Unknown is a read-side fallback, never an accepted mutation.
func (s ChargerStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusInUse, StatusOutOfService:
		return true
	}
	return false
}

// StationStatus is the aggregate status derived from a station's chargers.
type StationStatus string

const (
	StationAvailable  StationStatus = "available"
	StationInUse      StationStatus = "in-use"
	StationRestricted StationStatus = "restricted"
	StationOutOfOrder StationStatus = "out-of-order"
)

// statusRank orders station statuses for the no-location ranking mode.
var statusRank = map[StationStatus]int{
	StationAvailable:  0,
	StationInUse:      1,
	StationRestricted: 2,
	StationOutOfOrder: 3,
}

// Rank returns the sort priority of the status, lower is better.
func (s StationStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return len(statusRank)
}
