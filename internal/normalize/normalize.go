// Package normalize maps raw upstream charging POIs into canonical
// model.Charger values. Every derivation is total: missing or
// contradictory upstream fields degrade to defined fallbacks, never
// errors.
package normalize

import (
	"strings"

	"github.com/sells-group/charge-scout/internal/model"
	"github.com/sells-group/charge-scout/pkg/ocm"
)

// Power-tier boundaries in kW over the maximum reported connector power.
// Zero or absent power falls through to level 1.
const (
	level1MaxKW = 3.7
	level2MaxKW = 22.0
)

// downStatusWords mark a station-level status title as not operational.
var downStatusWords = []string{"unavailable", "planned", "removed", "decommissioned"}

// Charger normalizes one raw POI into a canonical charger. PlaceID and
// DistanceFromPlaceKm are left zero; the correlation engine assigns them.
func Charger(poi ocm.POI) model.Charger {
	c := model.Charger{
		ID:              poi.ID,
		Comments:        poi.GeneralComments,
		LastStatusCheck: poi.DateLastStatusUpdate,
	}

	if poi.AddressInfo != nil {
		c.Name = poi.AddressInfo.Title
		c.Address = formatAddress(poi.AddressInfo)
		c.Coordinate = model.Coordinate{
			Lat: poi.AddressInfo.Latitude,
			Lng: poi.AddressInfo.Longitude,
		}
	}
	if c.Name == "" {
		c.Name = "EV Charging Station"
	}
	if poi.OperatorInfo != nil {
		c.Operator = poi.OperatorInfo.Title
	}
	if poi.NumberOfPoints != nil {
		c.NumberOfPoints = *poi.NumberOfPoints
	}

	c.Connectors = connectors(poi.Connections)
	c.MaxPowerKW, c.MinPowerKW, c.HasMultiplePowerLevels = powerRange(c.Connectors)
	c.PowerTier = powerTier(c.MaxPowerKW)
	c.IsFree, c.CostLabel = costInfo(poi)
	c.OperationalStatus = operationalStatus(poi)
	c.AccessCategory = accessCategory(poi.UsageType)
	c.HasLiveStatus = hasLiveStatus(c.Connectors)

	return c
}

func connectors(conns []ocm.Connection) []model.Connector {
	out := make([]model.Connector, 0, len(conns))
	for _, cn := range conns {
		mc := model.Connector{Raw: model.OperationalUnknown}
		if cn.ConnectionType != nil {
			mc.Type = cn.ConnectionType.Title
		}
		if cn.PowerKW != nil {
			mc.PowerKW = *cn.PowerKW
		}
		if cn.Level != nil {
			mc.LevelLabel = cn.Level.Title
		}
		if cn.StatusType != nil {
			mc.Status = cn.StatusType.Title
			if cn.StatusType.IsOperational != nil {
				if *cn.StatusType.IsOperational {
					mc.Raw = model.Operational
				} else {
					mc.Raw = model.NotOperational
				}
			}
		}
		out = append(out, mc)
	}
	return out
}

// powerRange returns the max and min reported connector power and whether
// at least two distinct positive power values exist. Min equals max when
// only one distinct positive value was reported, and both are zero when
// nothing was.
func powerRange(conns []model.Connector) (maxKW, minKW float64, multiple bool) {
	distinct := map[float64]bool{}
	for _, cn := range conns {
		if cn.PowerKW <= 0 {
			continue
		}
		distinct[cn.PowerKW] = true
		if cn.PowerKW > maxKW {
			maxKW = cn.PowerKW
		}
		if minKW == 0 || cn.PowerKW < minKW {
			minKW = cn.PowerKW
		}
	}
	return maxKW, minKW, len(distinct) >= 2
}

// powerTier classifies the maximum reported power. The boundaries are
// contractual: <=3.7 level 1, <=22 level 2, above that DC fast. Absent or
// non-positive power lands in level 1 via the first branch.
func powerTier(maxKW float64) model.PowerTier {
	switch {
	case maxKW <= level1MaxKW:
		return model.PowerTierLevel1
	case maxKW <= level2MaxKW:
		return model.PowerTierLevel2
	default:
		return model.PowerTierDCFast
	}
}

// costInfo derives the free/paid flag and display label. Absence of cost
// information is never treated as free: chargers must not be over-reported
// as free.
func costInfo(poi ocm.POI) (isFree bool, label string) {
	costText := ""
	if poi.UsageCost != nil {
		costText = strings.TrimSpace(*poi.UsageCost)
	}
	payAtLocation := poi.UsageType != nil &&
		poi.UsageType.IsPayAtLocation != nil && *poi.UsageType.IsPayAtLocation

	if costText != "" && strings.Contains(strings.ToLower(costText), "free") && !payAtLocation {
		isFree = true
	}

	switch {
	case costText != "":
		label = costText
	case isFree:
		label = "Free"
	case payAtLocation:
		label = "Pay At Location"
	default:
		label = "Paid"
	}
	return isFree, label
}

// operationalStatus derives the tri-state status. Priority: an explicit
// down signal wins, then an explicit up signal, then any connector
// reporting itself operational; with no signals at all the status is
// unknown, which filtering must treat distinctly from not-operational.
func operationalStatus(poi ocm.POI) model.OperationalStatus {
	if poi.StatusType != nil {
		title := strings.ToLower(poi.StatusType.Title)
		for _, w := range downStatusWords {
			if strings.Contains(title, w) {
				return model.NotOperational
			}
		}
		if poi.StatusType.IsOperational != nil {
			if !*poi.StatusType.IsOperational {
				return model.NotOperational
			}
			return model.Operational
		}
	}

	for _, cn := range poi.Connections {
		if cn.StatusType != nil && cn.StatusType.IsOperational != nil && *cn.StatusType.IsOperational {
			return model.Operational
		}
	}

	return model.OperationalUnknown
}

// accessCategory derives who can use the charger; first matching rule
// wins.
func accessCategory(ut *ocm.UsageType) model.AccessCategory {
	if ut == nil {
		return model.AccessUnknown
	}
	if ut.IsMembershipRequired != nil && *ut.IsMembershipRequired {
		return model.AccessPermit
	}
	if ut.IsAccessKeyRequired != nil && *ut.IsAccessKeyRequired {
		return model.AccessRestricted
	}

	title := strings.ToLower(ut.Title)
	switch {
	case strings.Contains(title, "parking"):
		return model.AccessParking
	case strings.Contains(title, "public"):
		return model.AccessPublic
	case strings.Contains(title, "private"):
		return model.AccessPrivate
	case strings.Contains(title, "restricted"):
		return model.AccessRestricted
	default:
		return model.AccessUnknown
	}
}

func hasLiveStatus(conns []model.Connector) bool {
	for _, cn := range conns {
		if cn.Status != "" {
			return true
		}
	}
	return false
}

func formatAddress(ai *ocm.AddressInfo) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{ai.AddressLine1, ai.Town, ai.StateOrProvince, ai.Postcode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
