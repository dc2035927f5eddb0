package ocm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearby_Success(t *testing.T) {
	op := true
	kw := 150.0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/poi", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "json", q.Get("output"))
		assert.Equal(t, "45.070000", q.Get("latitude"))
		assert.Equal(t, "7.690000", q.Get("longitude"))
		assert.Equal(t, "5.000000", q.Get("distance"))
		assert.Equal(t, "Miles", q.Get("distanceunit"))
		assert.Equal(t, "25", q.Get("maxresults"))
		assert.Equal(t, "test-key", q.Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]POI{
			{
				ID:          12345,
				AddressInfo: &AddressInfo{Title: "Central Garage", Latitude: 45.071, Longitude: 7.691},
				StatusType:  &StatusType{Title: "Operational", IsOperational: &op},
				Connections: []Connection{{
					ConnectionType: &ConnectionType{Title: "CCS (Type 2)"},
					PowerKW:        &kw,
				}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	pois, err := client.Nearby(context.Background(), 45.07, 7.69, 5, 25)

	require.NoError(t, err)
	require.Len(t, pois, 1)
	assert.Equal(t, int64(12345), pois[0].ID)
	assert.Equal(t, "Central Garage", pois[0].AddressInfo.Title)
	require.Len(t, pois[0].Connections, 1)
	require.NotNil(t, pois[0].Connections[0].PowerKW)
	assert.InDelta(t, 150.0, *pois[0].Connections[0].PowerKW, 0.001)
}

func TestNearby_NoKeyOmitsParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasKey := r.URL.Query()["key"]
		assert.False(t, hasKey)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	pois, err := client.Nearby(context.Background(), 45.07, 7.69, 5, 25)

	require.NoError(t, err)
	assert.Empty(t, pois)
}

func TestNearby_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	pois, err := client.Nearby(context.Background(), 45.07, 7.69, 5, 25)

	assert.Error(t, err)
	assert.Nil(t, pois)
	assert.Contains(t, err.Error(), "403")
}

func TestNearby_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{not json`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Nearby(context.Background(), 45.07, 7.69, 5, 25)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestNearby_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Nearby(ctx, 45.07, 7.69, 5, 25)
	assert.Error(t, err)
}
