package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/charge-scout/internal/db"
	"github.com/sells-group/charge-scout/internal/model"
	"github.com/sells-group/charge-scout/pkg/ocm"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	query         TEXT NOT NULL,
	origin        JSONB NOT NULL,
	criteria      JSONB NOT NULL,
	chargers      JSONB NOT NULL,
	places        JSONB NOT NULL,
	place_count   INTEGER NOT NULL DEFAULT 0,
	charger_count INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS charger_cache (
	key        TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_charger_cache_expires ON charger_cache (expires_at);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// SaveSession upserts a session with its full canonical payload.
func (s *PostgresStore) SaveSession(ctx context.Context, sess *model.Session) error {
	origin, err := json.Marshal(sess.Origin)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal origin")
	}
	criteria, err := json.Marshal(sess.Criteria)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal criteria")
	}
	chargers, err := json.Marshal(sess.Chargers)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal chargers")
	}
	places, err := json.Marshal(sess.Places)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal places")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO sessions (id, query, origin, criteria, chargers, places, place_count, charger_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			criteria = EXCLUDED.criteria,
			chargers = EXCLUDED.chargers,
			places = EXCLUDED.places,
			place_count = EXCLUDED.place_count,
			charger_count = EXCLUDED.charger_count`,
		sess.ID, sess.Query, origin, criteria, chargers, places,
		len(sess.Places), len(sess.Chargers), sess.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrap(err, "postgres: save session")
	}
	return nil
}

// GetSession loads a session by ID. Returns nil, nil when not found.
func (s *PostgresStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var (
		sess                               model.Session
		origin, criteria, chargers, places []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, query, origin, criteria, chargers, places, created_at
		FROM sessions WHERE id = $1`, id,
	).Scan(&sess.ID, &sess.Query, &origin, &criteria, &chargers, &places, &sess.CreatedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get session")
	}

	if err := json.Unmarshal(origin, &sess.Origin); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal origin")
	}
	if err := json.Unmarshal(criteria, &sess.Criteria); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal criteria")
	}
	if err := json.Unmarshal(chargers, &sess.Chargers); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal chargers")
	}
	if err := json.Unmarshal(places, &sess.Places); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal places")
	}
	return &sess, nil
}

// ListSessions returns summaries for the most recent sessions.
func (s *PostgresStore) ListSessions(ctx context.Context, limit int) ([]model.SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, query, place_count, charger_count, created_at
		FROM sessions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sessions")
	}
	defer rows.Close()

	var out []model.SessionSummary
	for rows.Next() {
		var sum model.SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Query, &sum.PlaceCount, &sum.ChargerCount, &sum.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan session summary")
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate sessions")
	}
	return out, nil
}

// GetCachedChargers returns the cached raw POIs for a key, or nil, nil
// when absent or expired.
func (s *PostgresStore) GetCachedChargers(ctx context.Context, key string) ([]ocm.POI, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT payload FROM charger_cache
		WHERE key = $1 AND expires_at > now()`, key,
	).Scan(&payload)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached chargers")
	}

	var pois []ocm.POI
	if err := json.Unmarshal(payload, &pois); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached chargers")
	}
	return pois, nil
}

// SetCachedChargers stores raw POIs under the key with a TTL.
func (s *PostgresStore) SetCachedChargers(ctx context.Context, key string, pois []ocm.POI, ttl time.Duration) error {
	payload, err := json.Marshal(pois)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal cached chargers")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO charger_cache (key, payload, cached_at, expires_at)
		VALUES ($1, $2, now(), $3)
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			cached_at = EXCLUDED.cached_at,
			expires_at = EXCLUDED.expires_at`,
		key, payload, time.Now().UTC().Add(ttl),
	)
	if err != nil {
		return eris.Wrap(err, "postgres: set cached chargers")
	}
	return nil
}

// DeleteExpired removes expired cache entries and returns the count.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM charger_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired")
	}
	return int(tag.RowsAffected()), nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
