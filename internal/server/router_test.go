package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicRouter(t *testing.T) {
	tag := func(name string, order *[]string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				*order = append(*order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	t.Run("middleware runs in the order added", func(t *testing.T) {
		var order []string
		r := NewBasicRouter()
		r.Use(tag("log", &order), tag("metrics", &order))
		r.Handle(http.MethodGet, "/api/playlists/{id}", ok)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/playlists/p1", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []string{"log", "metrics"}, order)
	})

	t.Run("group adds middleware only to its own routes", func(t *testing.T) {
		var order []string
		r := NewBasicRouter()
		r.Use(tag("log", &order))
		authed := r.Group(tag("auth", &order))
		r.Handle(http.MethodPost, "/api/login", ok)
		authed.Handle(http.MethodGet, "/api/me", ok)

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/login", nil))
		assert.Equal(t, []string{"log"}, order)

		order = nil
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/me", nil))
		assert.Equal(t, []string{"log", "auth"}, order)

		assert.Equal(t, []string{"POST /api/login", "GET /api/me"}, r.Routes())
	})

	t.Run("unknown route is a JSON 404", func(t *testing.T) {
		var order []string
		r := NewBasicRouter()
		r.Use(tag("log", &order))
		r.Handle(http.MethodGet, "/api/search", ok)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var body errorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "Route not found", body.Error)
		assert.Equal(t, []string{"log"}, order)
	})

	t.Run("wrong method is a JSON 405 with Allow", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/api/player", ok)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/player", nil))

		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Contains(t, rec.Header().Get("Allow"), http.MethodGet)
		var body errorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "Method not allowed", body.Error)
	})
}
