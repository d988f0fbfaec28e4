package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulaze/blocos/internal/api"
	"github.com/pulaze/blocos/internal/favorites"
	"github.com/pulaze/blocos/internal/feed"
	"github.com/pulaze/blocos/internal/weather"
)

// fakeBackend stands in for both the feed's listing fetcher and the detail
// and proximity source.
type fakeBackend struct {
	blocos      []api.Bloco
	listErr     error
	detail      *api.Bloco
	detailErr   error
	services    []api.Service
	servicesErr error
}

func (f *fakeBackend) FetchBlocos(context.Context, api.BlocoQuery) (*api.BlocosResponse, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &api.BlocosResponse{Blocos: f.blocos}, nil
}

func (f *fakeBackend) FetchBloco(context.Context, string) (*api.Bloco, error) {
	return f.detail, f.detailErr
}

func (f *fakeBackend) FetchRestrooms(context.Context, float64, float64, float64) ([]api.Service, error) {
	return f.services, f.servicesErr
}

func (f *fakeBackend) FetchHospitals(context.Context, float64, float64, float64) ([]api.Service, error) {
	return f.services, f.servicesErr
}

type fakeWeather struct {
	current weather.Current
	err     error
}

func (f *fakeWeather) Fetch(context.Context, float64, float64) (weather.Current, error) {
	return f.current, f.err
}

func newTestServer(t *testing.T, backend *fakeBackend, weatherSource WeatherSource) *Server {
	t.Helper()

	logger := hclog.NewNullLogger()
	orch := feed.NewOrchestrator(backend, -19.932, -43.938, 10, 50,
		[]string{"2026-02-14", "2026-02-15"}, logger)
	service := feed.NewService(orch, []string{"2026-02-14"}, nil, logger)
	t.Cleanup(service.Close)

	store, err := favorites.Open(filepath.Join(t.TempDir(), "favorites.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	if weatherSource == nil {
		weatherSource = &fakeWeather{}
	}
	return NewServer(service, backend, store, weatherSource, -19.932, -43.938, nil, logger)
}

func doRequest(t *testing.T, server *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleFeed(t *testing.T) {
	t.Run("refresh fetches and sections the feed", func(t *testing.T) {
		server := newTestServer(t, &fakeBackend{blocos: []api.Bloco{
			{ID: "1", Nome: "Bloco A", Hora: "09:00"},
			{ID: "2", Nome: "Bloco B", Hora: "14:00"},
		}}, nil)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/feed?refresh=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, "ready", body["state"])
		assert.Len(t, body["sections"], 2)
	})

	t.Run("backend failure on refresh is a bad gateway", func(t *testing.T) {
		server := newTestServer(t, &fakeBackend{listErr: errors.New("down")}, nil)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/feed?refresh=1", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("filter params reshape without refetching", func(t *testing.T) {
		server := newTestServer(t, &fakeBackend{blocos: []api.Bloco{
			{ID: "1", Nome: "Manhã", Hora: "09:00"},
			{ID: "2", Nome: "Noite", Hora: "19:00"},
		}}, nil)

		require.Equal(t, http.StatusOK,
			doRequest(t, server, http.MethodGet, "/api/v1/feed?refresh=1", nil).Code)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/feed?timeOfDay=night", nil)
		body := decodeBody(t, rec)
		assert.Len(t, body["sections"], 1)

		filter := body["filter"].(map[string]interface{})
		assert.Equal(t, "night", filter["timeOfDay"])
	})
}

func TestHandleToggleDate(t *testing.T) {
	t.Run("adding a date refetches", func(t *testing.T) {
		server := newTestServer(t, &fakeBackend{}, nil)

		rec := doRequest(t, server, http.MethodPost, "/api/v1/feed/dates/2026-02-15", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Len(t, body["selectedDates"], 2)
	})

	t.Run("removing the last date conflicts", func(t *testing.T) {
		server := newTestServer(t, &fakeBackend{}, nil)

		rec := doRequest(t, server, http.MethodPost, "/api/v1/feed/dates/2026-02-14", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandleBlocoDetail(t *testing.T) {
	t.Run("detail carries transit link cascades", func(t *testing.T) {
		server := newTestServer(t, &fakeBackend{detail: &api.Bloco{
			Nome: "Bloco do Trem", Latitude: -19.9, Longitude: -43.9,
		}}, nil)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/blocos/42", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		transit := body["transit"].(map[string]interface{})
		assert.Len(t, transit, 3)
		assert.Len(t, transit["uber"], 3)
	})

	t.Run("upstream failure is a bad gateway", func(t *testing.T) {
		server := newTestServer(t, &fakeBackend{detailErr: errors.New("not found")}, nil)
		rec := doRequest(t, server, http.MethodGet, "/api/v1/blocos/42", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestHandleFavorites(t *testing.T) {
	server := newTestServer(t, &fakeBackend{}, nil)
	event, err := json.Marshal(feed.Event{ID: "42", Name: "Bloco do Trem"})
	require.NoError(t, err)

	t.Run("toggle on", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodPost, "/api/v1/favorites/toggle", event)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decodeBody(t, rec)["favorite"])
	})

	t.Run("list shows the favorite", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodGet, "/api/v1/favorites", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var list []feed.Event
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, "42", list[0].ID)
	})

	t.Run("toggle off", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodPost, "/api/v1/favorites/toggle", event)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, decodeBody(t, rec)["favorite"])
	})

	t.Run("missing id is a bad request", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodPost, "/api/v1/favorites/toggle", []byte(`{}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleWeather(t *testing.T) {
	t.Run("reading is passed through", func(t *testing.T) {
		server := newTestServer(t, &fakeBackend{},
			&fakeWeather{current: weather.Current{Temperature: 28.4, WindSpeed: 12}})

		rec := doRequest(t, server, http.MethodGet, "/api/v1/weather", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["available"])
		assert.Equal(t, "28.4°C", body["display"])
	})

	t.Run("lookup failure degrades to the placeholder", func(t *testing.T) {
		server := newTestServer(t, &fakeBackend{}, &fakeWeather{err: errors.New("offline")})

		rec := doRequest(t, server, http.MethodGet, "/api/v1/weather", nil)
		require.Equal(t, http.StatusOK, rec.Code, "weather failures are never surfaced as errors")

		body := decodeBody(t, rec)
		assert.Equal(t, false, body["available"])
		assert.Equal(t, weather.Placeholder, body["display"])
	})
}

func TestHandleServices(t *testing.T) {
	server := newTestServer(t, &fakeBackend{services: []api.Service{
		{Nome: "Banheiro Praça Sete", CabinCount: 8},
	}}, nil)

	for _, path := range []string{"/api/v1/services/restrooms", "/api/v1/services/hospitals"} {
		rec := doRequest(t, server, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var services []api.Service
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &services))
		assert.Len(t, services, 1)
	}
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, &fakeBackend{}, nil)
	rec := doRequest(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
