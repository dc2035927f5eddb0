package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/charge-scout/internal/config"
	"github.com/sells-group/charge-scout/internal/search"
	"github.com/sells-group/charge-scout/internal/store"
	"github.com/sells-group/charge-scout/pkg/ocm"
	"github.com/sells-group/charge-scout/pkg/places"
	"github.com/sells-group/charge-scout/pkg/routes"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "charge-scout",
	Short: "Find places with convenient EV charging nearby",
	Long:  "Searches for places matching a query, correlates them with nearby EV charging stations, and filters by charging speed, cost, access, and walking distance.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// openStore builds the configured store backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// newSearcher wires the upstream clients and store into a Searcher.
func newSearcher(st store.Store) *search.Searcher {
	pc := places.NewClient(cfg.Places.Key)
	cc := ocm.NewClient(cfg.OCM.Key,
		ocm.WithBaseURL(cfg.OCM.BaseURL),
		ocm.WithRateLimit(cfg.OCM.RatePerSecond, cfg.OCM.RateBurst),
	)

	opts := []search.Option{
		search.WithFetchConcurrency(cfg.Search.FetchConcurrency),
		search.WithMaxChargersPerPlace(cfg.OCM.MaxResults),
		search.WithCacheTTL(time.Duration(cfg.OCM.CacheTTLHours) * time.Hour),
	}
	if st != nil {
		opts = append(opts, search.WithStore(st))
	}
	if cfg.Routes.Key != "" {
		opts = append(opts, search.WithRoutes(routes.NewClient(cfg.Routes.Key)))
	}

	return search.NewSearcher(pc, cc, opts...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
