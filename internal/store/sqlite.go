package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/charge-scout/internal/model"
	"github.com/sells-group/charge-scout/pkg/ocm"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	query         TEXT NOT NULL,
	origin        TEXT NOT NULL,
	criteria      TEXT NOT NULL,
	chargers      TEXT NOT NULL,
	places        TEXT NOT NULL,
	place_count   INTEGER NOT NULL DEFAULT 0,
	charger_count INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS charger_cache (
	key        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_charger_cache_expires ON charger_cache (expires_at);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// SaveSession upserts a session with its full canonical payload.
func (s *SQLiteStore) SaveSession(ctx context.Context, sess *model.Session) error {
	origin, err := json.Marshal(sess.Origin)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal origin")
	}
	criteria, err := json.Marshal(sess.Criteria)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal criteria")
	}
	chargers, err := json.Marshal(sess.Chargers)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal chargers")
	}
	places, err := json.Marshal(sess.Places)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal places")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, query, origin, criteria, chargers, places, place_count, charger_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			criteria = excluded.criteria,
			chargers = excluded.chargers,
			places = excluded.places,
			place_count = excluded.place_count,
			charger_count = excluded.charger_count`,
		sess.ID, sess.Query, string(origin), string(criteria), string(chargers), string(places),
		len(sess.Places), len(sess.Chargers), sess.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: save session")
	}
	return nil
}

// GetSession loads a session by ID. Returns nil, nil when not found.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var (
		sess                               model.Session
		origin, criteria, chargers, places string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, query, origin, criteria, chargers, places, created_at
		FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Query, &origin, &criteria, &chargers, &places, &sess.CreatedAt)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get session")
	}

	if err := json.Unmarshal([]byte(origin), &sess.Origin); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal origin")
	}
	if err := json.Unmarshal([]byte(criteria), &sess.Criteria); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal criteria")
	}
	if err := json.Unmarshal([]byte(chargers), &sess.Chargers); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal chargers")
	}
	if err := json.Unmarshal([]byte(places), &sess.Places); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal places")
	}
	return &sess, nil
}

// ListSessions returns summaries for the most recent sessions.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]model.SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, place_count, charger_count, created_at
		FROM sessions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close()

	var out []model.SessionSummary
	for rows.Next() {
		var sum model.SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Query, &sum.PlaceCount, &sum.ChargerCount, &sum.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan session summary")
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate sessions")
	}
	return out, nil
}

// GetCachedChargers returns the cached raw POIs for a key, or nil, nil
// when absent or expired.
func (s *SQLiteStore) GetCachedChargers(ctx context.Context, key string) ([]ocm.POI, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM charger_cache
		WHERE key = ? AND expires_at > datetime('now')`, key,
	).Scan(&payload)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get cached chargers")
	}

	var pois []ocm.POI
	if err := json.Unmarshal([]byte(payload), &pois); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached chargers")
	}
	return pois, nil
}

// SetCachedChargers stores raw POIs under the key with a TTL.
func (s *SQLiteStore) SetCachedChargers(ctx context.Context, key string, pois []ocm.POI, ttl time.Duration) error {
	payload, err := json.Marshal(pois)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal cached chargers")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO charger_cache (key, payload, cached_at, expires_at)
		VALUES (?, ?, datetime('now'), ?)
		ON CONFLICT (key) DO UPDATE SET
			payload = excluded.payload,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at`,
		key, string(payload), time.Now().UTC().Add(ttl),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: set cached chargers")
	}
	return nil
}

// DeleteExpired removes expired cache entries and returns the count.
func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM charger_cache WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
