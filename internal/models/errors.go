package models

import "errors"

// ErrChargerNotFound is the permanent rejection for a status mutation
// against an unknown charger id. Callers must not retry it.
var ErrChargerNotFound = errors.New("charger not found")

// ErrStationNotFound reports a lookup for an unknown station id.
var ErrStationNotFound = errors.New("station not found")
