// Package model defines the canonical data types shared across the
// charger-correlation pipeline: places, normalized chargers, and the
// filter criteria snapshot consumed by the filter pipeline.
package model

// Coordinate is a WGS84 lat/lng pair, used as a value type throughout.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PowerTier is the coarse charging-speed classification derived from the
// maximum reported connector power.
type PowerTier string

const (
	PowerTierLevel1  PowerTier = "level1"
	PowerTierLevel2  PowerTier = "level2"
	PowerTierDCFast  PowerTier = "dc_fast"
	PowerTierUnknown PowerTier = "unknown"
)

// AccessCategory classifies who can use a charger.
type AccessCategory string

const (
	AccessPublic     AccessCategory = "public"
	AccessRestricted AccessCategory = "restricted"
	AccessPermit     AccessCategory = "permit"
	AccessParking    AccessCategory = "parking"
	AccessPrivate    AccessCategory = "private"
	AccessUnknown    AccessCategory = "unknown"
)

// OperationalStatus is a three-valued status. Unknown is distinct from
// NotOperational and must never collapse into it in filtering logic.
type OperationalStatus string

const (
	Operational        OperationalStatus = "operational"
	NotOperational     OperationalStatus = "not_operational"
	OperationalUnknown OperationalStatus = "unknown"
)

// Connector is one charging connection on a charger.
type Connector struct {
	Type       string            `json:"type"`
	PowerKW    float64           `json:"power_kw"`
	LevelLabel string            `json:"level_label,omitempty"`
	Status     string            `json:"status,omitempty"`
	Raw        OperationalStatus `json:"raw_operational"`
}

// Charger is a normalized EV charging station derived from one raw
// upstream POI record. Every derived field is always populated, even when
// every upstream signal is absent.
type Charger struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Address    string     `json:"address"`
	Coordinate Coordinate `json:"coordinate"`

	Connectors []Connector `json:"connectors"`

	MaxPowerKW             float64 `json:"max_power_kw"`
	MinPowerKW             float64 `json:"min_power_kw"`
	HasMultiplePowerLevels bool    `json:"has_multiple_power_levels"`

	PowerTier PowerTier `json:"power_tier"`

	IsFree    bool   `json:"is_free"`
	CostLabel string `json:"cost_label"`

	OperationalStatus OperationalStatus `json:"operational_status"`
	AccessCategory    AccessCategory    `json:"access_category"`

	// HasLiveStatus reports whether any connector carried a live status
	// string upstream. Display fidelity only, never filtered on.
	HasLiveStatus bool `json:"has_live_status"`

	Operator        string `json:"operator,omitempty"`
	Comments        string `json:"comments,omitempty"`
	LastStatusCheck string `json:"last_status_check,omitempty"`
	NumberOfPoints  int    `json:"number_of_points,omitempty"`

	// Assigned by the correlation engine, zero-valued before that.
	PlaceID             string  `json:"place_id,omitempty"`
	DistanceFromPlaceKm float64 `json:"distance_from_place_km,omitempty"`
}

// Place is one search result the user is evaluating for charging
// convenience. The derived fields are recomputed every time the charger
// set or filter criteria change.
type Place struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Address    string     `json:"address"`
	Coordinate Coordinate `json:"coordinate"`

	Rating      float64  `json:"rating,omitempty"`
	RatingCount int      `json:"rating_count,omitempty"`
	Types       []string `json:"types,omitempty"`

	// Origin distance, produced by the distance-matrix collaborator.
	// DistanceMeters <= 0 means no value: such places sort last.
	DistanceText    string `json:"distance_text,omitempty"`
	DistanceMeters  int    `json:"distance_meters,omitempty"`
	DurationText    string `json:"duration_text,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`

	ChargerCount    int      `json:"charger_count"`
	FeaturedCharger *Charger `json:"featured_charger,omitempty"`
}

// HasCoordinate reports whether the place carries a usable coordinate.
// Places without one are excluded from correlation rather than failing
// the whole pass.
func (p Place) HasCoordinate() bool {
	return p.Coordinate.Lat != 0 || p.Coordinate.Lng != 0
}

// CostFilter selects free, paid, or all chargers.
type CostFilter string

const (
	CostAll  CostFilter = "all"
	CostFree CostFilter = "free"
	CostPaid CostFilter = "paid"
)

// FilterCriteria is an immutable snapshot of the user's filter controls,
// consumed once per filter pass and passed by value into the core.
type FilterCriteria struct {
	OperationalOnly bool            `json:"operational_only"`
	Access          AccessCategory  `json:"access"` // AccessAll passes everything
	Cost            CostFilter      `json:"cost"`
	Speed           PowerTier       `json:"speed"` // SpeedAll passes everything
	Connectors      map[string]bool `json:"connectors,omitempty"`

	// WalkingTimeMinutes caps the charger-to-place walking time. A
	// non-positive value disables the filter-time re-gate entirely (the
	// correlation threshold already applied at fetch time still holds);
	// there is no zero-budget "nothing passes" setting.
	WalkingTimeMinutes float64 `json:"walking_time_minutes"`

	SearchRadiusMiles float64 `json:"search_radius_miles"`
}

// Wildcard values for the access and speed criteria.
const (
	AccessAll AccessCategory = "all"
	SpeedAll  PowerTier      = "all"
)

// DefaultCriteria returns an all-pass criteria snapshot with the product
// defaults for walking time and search radius.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{
		Access:             AccessAll,
		Cost:               CostAll,
		Speed:              SpeedAll,
		WalkingTimeMinutes: 10,
		SearchRadiusMiles:  5,
	}
}
