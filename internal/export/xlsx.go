// Package export writes filtered search results to spreadsheet files.
package export

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/charge-scout/internal/geomath"
	"github.com/sells-group/charge-scout/internal/model"
)

var chargerHeader = []string{
	"Name", "Address", "Place", "Walk Time", "Power Tier", "Max kW",
	"Cost", "Status", "Access", "Connectors",
}

var placeHeader = []string{
	"Name", "Address", "Distance", "Chargers", "Featured Charger",
}

// WriteXLSX writes one sheet of filtered chargers and one of annotated
// places to path.
func WriteXLSX(path string, chargers []model.Charger, placeList []model.Place) error {
	f := xlsx.NewFile()

	placeNames := make(map[string]string, len(placeList))
	for _, p := range placeList {
		placeNames[p.ID] = p.Name
	}

	chargerSheet, err := f.AddSheet("Chargers")
	if err != nil {
		return eris.Wrap(err, "export: add chargers sheet")
	}
	writeRow(chargerSheet, chargerHeader)
	for _, c := range chargers {
		writeRow(chargerSheet, []string{
			c.Name,
			c.Address,
			placeNames[c.PlaceID],
			geomath.WalkingTimeLabel(c.DistanceFromPlaceKm),
			string(c.PowerTier),
			fmt.Sprintf("%.1f", c.MaxPowerKW),
			c.CostLabel,
			string(c.OperationalStatus),
			string(c.AccessCategory),
			connectorSummary(c.Connectors),
		})
	}

	placeSheet, err := f.AddSheet("Places")
	if err != nil {
		return eris.Wrap(err, "export: add places sheet")
	}
	writeRow(placeSheet, placeHeader)
	for _, p := range placeList {
		featured := ""
		if p.FeaturedCharger != nil {
			featured = p.FeaturedCharger.Name
		}
		writeRow(placeSheet, []string{
			p.Name,
			p.Address,
			p.DistanceText,
			fmt.Sprintf("%d", p.ChargerCount),
			featured,
		})
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save file")
	}
	return nil
}

func writeRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func connectorSummary(conns []model.Connector) string {
	out := ""
	for i, cn := range conns {
		if i > 0 {
			out += ", "
		}
		if cn.PowerKW > 0 {
			out += fmt.Sprintf("%s (%.1f kW)", cn.Type, cn.PowerKW)
		} else {
			out += cn.Type
		}
	}
	return out
}
