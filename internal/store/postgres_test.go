package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/charge-scout/pkg/ocm"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgres_Migrate(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS sessions`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveSession(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	sess := testSession()
	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(sess.ID, sess.Query, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			len(sess.Places), len(sess.Chargers), sess.CreatedAt.UTC()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, st.SaveSession(context.Background(), sess))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetSession(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	want := testSession()
	origin, _ := json.Marshal(want.Origin)
	criteria, _ := json.Marshal(want.Criteria)
	chargers, _ := json.Marshal(want.Chargers)
	places, _ := json.Marshal(want.Places)

	mock.ExpectQuery(`SELECT id, query, origin, criteria, chargers, places, created_at`).
		WithArgs(want.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "query", "origin", "criteria", "chargers", "places", "created_at"}).
			AddRow(want.ID, want.Query, origin, criteria, chargers, places, want.CreatedAt))

	got, err := st.GetSession(context.Background(), want.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, want.Query, got.Query)
	assert.Equal(t, want.Origin, got.Origin)
	assert.Equal(t, want.Criteria, got.Criteria)
	assert.Equal(t, want.Chargers, got.Chargers)
	assert.Equal(t, want.Places, got.Places)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetSession_NotFound(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, query, origin, criteria, chargers, places, created_at`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := st.GetSession(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListSessions(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, query, place_count, charger_count, created_at`).
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "query", "place_count", "charger_count", "created_at"}).
			AddRow("b", "coffee", 3, 7, now).
			AddRow("a", "grocery", 2, 4, now.Add(-time.Hour)))

	sessions, err := st.ListSessions(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "b", sessions[0].ID)
	assert.Equal(t, 7, sessions[0].ChargerCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ChargerCache(t *testing.T) {
	st, mock := newMockPostgresStore(t)
	ctx := context.Background()

	pois := []ocm.POI{{ID: 9, GeneralComments: "24/7"}}
	payload, _ := json.Marshal(pois)
	key := CacheKey(45, 7, 5)

	mock.ExpectExec(`INSERT INTO charger_cache`).
		WithArgs(key, payload, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, st.SetCachedChargers(ctx, key, pois, time.Hour))

	mock.ExpectQuery(`SELECT payload FROM charger_cache`).
		WithArgs(key).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := st.GetCachedChargers(ctx, key)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(9), got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ChargerCache_Miss(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT payload FROM charger_cache`).
		WithArgs("cold").
		WillReturnError(pgx.ErrNoRows)

	got, err := st.GetCachedChargers(context.Background(), "cold")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteExpired(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM charger_cache WHERE expires_at`).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := st.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
