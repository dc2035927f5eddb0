package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/charge-scout/internal/filter"
	"github.com/sells-group/charge-scout/internal/model"
	"github.com/sells-group/charge-scout/internal/search"
	"github.com/sells-group/charge-scout/internal/spatial"
	"github.com/sells-group/charge-scout/internal/store"
)

var servePort int

// sessionCache keeps recent sessions and their spatial indexes in memory
// so refilter and marker queries skip the store on the hot path.
type sessionCache struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
}

type sessionEntry struct {
	session *model.Session
	index   *spatial.Index
}

func newSessionCache() *sessionCache {
	return &sessionCache{entries: map[string]*sessionEntry{}}
}

func (c *sessionCache) put(sess *model.Session) *sessionEntry {
	e := &sessionEntry{session: sess, index: spatial.NewIndex(sess.Chargers)}
	c.mu.Lock()
	c.entries[sess.ID] = e
	c.mu.Unlock()
	return e
}

// get returns the cached entry, falling back to the store and re-indexing
// on miss.
func (c *sessionCache) get(r *http.Request, st store.Store, id string) *sessionEntry {
	c.mu.RLock()
	e := c.entries[id]
	c.mu.RUnlock()
	if e != nil {
		return e
	}

	sess, err := st.GetSession(r.Context(), id)
	if err != nil {
		zap.L().Warn("serve: session load failed", zap.String("session_id", id), zap.Error(err))
		return nil
	}
	if sess == nil {
		return nil
	}
	return c.put(sess)
}

// buildRouter constructs the HTTP API over a searcher, a store, and the
// in-memory session cache.
func buildRouter(searcher *search.Searcher, st store.Store, cache *sessionCache) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/search", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query    string                `json:"query"`
			Origin   model.Coordinate      `json:"origin"`
			Criteria *model.FilterCriteria `json:"criteria"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if req.Query == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
			return
		}

		criteria := model.DefaultCriteria()
		if req.Criteria != nil {
			criteria = *req.Criteria
		}

		result, err := searcher.Search(r.Context(), req.Query, req.Origin, criteria)
		if err != nil {
			zap.L().Error("serve: search failed", zap.String("query", req.Query), zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "search failed"})
			return
		}

		cache.put(result.Session)
		writeJSON(w, http.StatusOK, result)
	})

	r.Get("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		sessions, err := st.ListSessions(r.Context(), 20)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	})

	r.Post("/api/sessions/{id}/filter", func(w http.ResponseWriter, r *http.Request) {
		e := cache.get(r, st, chi.URLParam(r, "id"))
		if e == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}

		var criteria model.FilterCriteria
		if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid criteria"})
			return
		}

		result, changed := searcher.Refilter(e.session, criteria)
		writeJSON(w, http.StatusOK, map[string]any{
			"changed":   changed,
			"signature": filter.Signature(result.Places),
			"chargers":  result.Chargers,
			"places":    result.Places,
		})
	})

	r.Get("/api/sessions/{id}/markers", func(w http.ResponseWriter, r *http.Request) {
		e := cache.get(r, st, chi.URLParam(r, "id"))
		if e == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}

		minLat, err1 := parseCoord(r, "min_lat")
		minLng, err2 := parseCoord(r, "min_lng")
		maxLat, err3 := parseCoord(r, "max_lat")
		maxLng, err4 := parseCoord(r, "max_lng")
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "min_lat, min_lng, max_lat, max_lng are required"})
			return
		}

		chargers, err := e.index.SearchBBox(minLat, minLng, maxLat, maxLng)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid bounding box"})
			return
		}
		writeJSON(w, http.StatusOK, chargers)
	})

	return r
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(newSearcher(st), st, newSessionCache()),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown. The signal context is already cancelled by
		// the time we get here, so Shutdown drains under a fresh timeout.
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("server listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseCoord(r *http.Request, name string) (float64, error) {
	return strconv.ParseFloat(r.URL.Query().Get(name), 64)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
