package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/charge-scout/internal/export"
	"github.com/sells-group/charge-scout/internal/geomath"
	"github.com/sells-group/charge-scout/internal/model"
	"github.com/sells-group/charge-scout/internal/search"
)

var (
	searchLat         float64
	searchLng         float64
	searchWalkMinutes float64
	searchRadiusMiles float64
	searchOperational bool
	searchCost        string
	searchSpeed       string
	searchAccess      string
	searchConnectors  []string
	searchOut         string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search places and correlate nearby chargers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "search: open store")
		}
		defer st.Close() //nolint:errcheck

		criteria := criteriaFromFlags()
		searcher := newSearcher(st)

		origin := model.Coordinate{Lat: searchLat, Lng: searchLng}
		result, err := searcher.Search(ctx, args[0], origin, criteria)
		if err != nil {
			return err
		}

		printResult(result)

		if searchOut != "" {
			if err := export.WriteXLSX(searchOut, result.Filtered.Chargers, result.Filtered.Places); err != nil {
				return err
			}
			fmt.Printf("\nwrote %s\n", searchOut)
		}

		zap.L().Info("search complete",
			zap.String("session_id", result.Session.ID),
			zap.Int("places", len(result.Filtered.Places)),
			zap.Int("chargers", len(result.Filtered.Chargers)),
		)
		return nil
	},
}

func criteriaFromFlags() model.FilterCriteria {
	criteria := model.DefaultCriteria()
	criteria.OperationalOnly = searchOperational
	if searchWalkMinutes > 0 {
		criteria.WalkingTimeMinutes = searchWalkMinutes
	} else if cfg.Search.WalkingTimeMinutes > 0 {
		criteria.WalkingTimeMinutes = cfg.Search.WalkingTimeMinutes
	}
	if searchRadiusMiles > 0 {
		criteria.SearchRadiusMiles = searchRadiusMiles
	} else if cfg.Search.RadiusMiles > 0 {
		criteria.SearchRadiusMiles = cfg.Search.RadiusMiles
	}
	if searchCost != "" {
		criteria.Cost = model.CostFilter(searchCost)
	}
	if searchSpeed != "" {
		criteria.Speed = model.PowerTier(searchSpeed)
	}
	if searchAccess != "" {
		criteria.Access = model.AccessCategory(searchAccess)
	}
	if len(searchConnectors) > 0 {
		criteria.Connectors = make(map[string]bool, len(searchConnectors))
		for _, c := range searchConnectors {
			criteria.Connectors[c] = true
		}
	}
	return criteria
}

func printResult(result *search.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "PLACE\tDISTANCE\tCHARGERS\tFEATURED")
	for _, p := range result.Filtered.Places {
		featured := "-"
		if p.FeaturedCharger != nil {
			featured = fmt.Sprintf("%s (%.1f kW, %s walk)",
				p.FeaturedCharger.Name,
				p.FeaturedCharger.MaxPowerKW,
				geomath.WalkingTimeLabel(p.FeaturedCharger.DistanceFromPlaceKm),
			)
		}
		dist := p.DistanceText
		if dist == "" {
			dist = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.Name, dist, p.ChargerCount, featured)
	}
	w.Flush() //nolint:errcheck
}

func init() {
	searchCmd.Flags().Float64Var(&searchLat, "lat", 0, "origin latitude (required)")
	searchCmd.Flags().Float64Var(&searchLng, "lng", 0, "origin longitude (required)")
	searchCmd.Flags().Float64Var(&searchWalkMinutes, "walk", 0, "max walking time from place to charger, minutes")
	searchCmd.Flags().Float64Var(&searchRadiusMiles, "radius", 0, "charger search radius around each place, miles")
	searchCmd.Flags().BoolVar(&searchOperational, "operational", false, "only confirmed-operational chargers")
	searchCmd.Flags().StringVar(&searchCost, "cost", "", "free|paid|all")
	searchCmd.Flags().StringVar(&searchSpeed, "speed", "", "level1|level2|dc_fast|all")
	searchCmd.Flags().StringVar(&searchAccess, "access", "", "public|restricted|permit|parking|private|all")
	searchCmd.Flags().StringSliceVar(&searchConnectors, "connector", nil, "connector types to match (repeatable)")
	searchCmd.Flags().StringVar(&searchOut, "out", "", "write results to an .xlsx file")
	_ = searchCmd.MarkFlagRequired("lat")
	_ = searchCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(searchCmd)
}
