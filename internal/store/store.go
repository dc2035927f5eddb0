// Package store persists search sessions and caches raw charger fetches
// so repeated searches near the same coordinates skip the upstream API.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sells-group/charge-scout/internal/model"
	"github.com/sells-group/charge-scout/pkg/ocm"
)

// Store defines the persistence interface for the charger search app.
type Store interface {
	// Sessions
	SaveSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	ListSessions(ctx context.Context, limit int) ([]model.SessionSummary, error)

	// Charger fetch cache
	GetCachedChargers(ctx context.Context, key string) ([]ocm.POI, error)
	SetCachedChargers(ctx context.Context, key string, pois []ocm.POI, ttl time.Duration) error
	DeleteExpired(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// CacheKey identifies one charger fetch by rounded coordinate and radius.
// Four decimal places (~11 m) is well inside the walking threshold, so
// nearby repeat fetches share an entry.
func CacheKey(lat, lng, radiusMiles float64) string {
	return fmt.Sprintf("%.4f,%.4f,%.1f", lat, lng, radiusMiles)
}
