package models

// KilowattRangeMax is the filter slider's top bound; a range ending there is
// treated as open-ended above.
const KilowattRangeMax = 350

// FilterState is the complete set of user-selected station filters. It is a
// pure value object replaced wholesale on each edit; the zero value means
// "no constraint" for every predicate.
type FilterState struct {
	MinPlugScore     int         `json:"min_plug_score"`
	KilowattRange    [2]float64  `json:"kilowatt_range"`
	MinChargerCount  int         `json:"min_charger_count"`
	Amenities        []string    `json:"amenities"`
	Parking          []string    `json:"parking"`
	PlugTypes        []PlugType  `json:"plug_types"`
	SearchText       string      `json:"search_text"`
	AvailabilityOnly bool        `json:"availability_only"`
}

// DefaultFilterState returns the unconstrained filter.
func DefaultFilterState() FilterState {
	return FilterState{
		KilowattRange: [2]float64{0, KilowattRangeMax},
	}
}

// HasKilowattConstraint reports whether the range restricts anything beyond
// the full slider span.
func (f FilterState) HasKilowattConstraint() bool {
	return f.KilowattRange[0] > 0 || (f.KilowattRange[1] > 0 && f.KilowattRange[1] < KilowattRangeMax)
}

// WantsPlugType reports whether the plug-type filter admits the given type.
// An empty selection admits everything.
func (f FilterState) WantsPlugType(p PlugType) bool {
	if len(f.PlugTypes) == 0 {
		return true
	}
	for _, t := range f.PlugTypes {
		if t == p {
			return true
		}
	}
	return false
}
