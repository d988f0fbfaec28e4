// Package httpapi exposes the assembled feed over a local HTTP API. This is
// the presentation adapter: a UI talks JSON to it and never touches the
// pipeline directly.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pulaze/blocos/internal/api"
	"github.com/pulaze/blocos/internal/deeplink"
	"github.com/pulaze/blocos/internal/favorites"
	"github.com/pulaze/blocos/internal/feed"
	"github.com/pulaze/blocos/internal/weather"
)

// BlocoSource is the part of the API client the detail and proximity
// handlers need.
type BlocoSource interface {
	FetchBloco(ctx context.Context, id string) (*api.Bloco, error)
	FetchRestrooms(ctx context.Context, lat, lng, radiusKm float64) ([]api.Service, error)
	FetchHospitals(ctx context.Context, lat, lng, radiusKm float64) ([]api.Service, error)
}

// WeatherSource is the weather lookup the handlers consume.
type WeatherSource interface {
	Fetch(ctx context.Context, lat, lng float64) (weather.Current, error)
}

// Server wires the feed service, favorites store and upstream clients into
// an HTTP surface.
type Server struct {
	feed      *feed.Service
	source    BlocoSource
	favorites *favorites.Store
	weather   WeatherSource
	refLat    float64
	refLng    float64
	registry  *prometheus.Registry
	logger    hclog.Logger
}

// NewServer creates the HTTP surface. registry may be nil when metrics are
// not exposed.
func NewServer(
	feedService *feed.Service,
	source BlocoSource,
	favStore *favorites.Store,
	weatherSource WeatherSource,
	refLat, refLng float64,
	registry *prometheus.Registry,
	logger hclog.Logger,
) *Server {
	return &Server{
		feed:      feedService,
		source:    source,
		favorites: favStore,
		weather:   weatherSource,
		refLat:    refLat,
		refLng:    refLng,
		registry:  registry,
		logger:    logger,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.requestLogger)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.HandleFunc("/feed", s.handleFeed).Methods(http.MethodGet)
	apiRouter.HandleFunc("/feed/dates/{date}", s.handleToggleDate).Methods(http.MethodPost, http.MethodDelete)
	apiRouter.HandleFunc("/blocos/{id}", s.handleBlocoDetail).Methods(http.MethodGet)
	apiRouter.HandleFunc("/services/restrooms", s.handleRestrooms).Methods(http.MethodGet)
	apiRouter.HandleFunc("/services/hospitals", s.handleHospitals).Methods(http.MethodGet)
	apiRouter.HandleFunc("/favorites", s.handleFavoritesList).Methods(http.MethodGet)
	apiRouter.HandleFunc("/favorites/toggle", s.handleFavoriteToggle).Methods(http.MethodPost)
	apiRouter.HandleFunc("/weather", s.handleWeather).Methods(http.MethodGet)

	return router
}

// requestLogger logs every request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleFeed applies filter query parameters and returns the sectioned feed.
// Filter changes never refetch; ?refresh=1 forces a synchronous fetch cycle.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if query.Has("search") {
		// The debounce timer outlives this request, so it must not inherit
		// the request context.
		s.feed.SetSearchText(context.Background(), query.Get("search"))
	}
	if query.Has("timeOfDay") {
		s.feed.SetTimeOfDay(feed.TimeOfDay(query.Get("timeOfDay")))
	}
	if query.Has("neighborhood") {
		s.feed.SetNeighborhood(query.Get("neighborhood"))
	}
	if query.Has("sort") {
		s.feed.SetSortKey(feed.SortKey(query.Get("sort")))
	}

	if query.Get("refresh") == "1" {
		if err := s.feed.Refresh(r.Context()); err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
	}

	state, stateErr := s.feed.State()
	resp := map[string]interface{}{
		"state":    state,
		"sections": s.feed.Snapshot(),
		"filter":   filterView(s.feed.Filter()),
	}
	if stateErr != nil {
		resp["error"] = stateErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleToggleDate toggles one selected date and restarts the fetch cycle.
// Removing the last selected date is rejected with 409.
func (s *Server) handleToggleDate(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]

	if err := s.feed.ToggleDate(date); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}

	if err := s.feed.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"selectedDates": s.feed.Filter().SelectedDates,
		"sections":      s.feed.Snapshot(),
	})
}

// handleBlocoDetail returns one bloco plus constructed transit deep links.
func (s *Server) handleBlocoDetail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	bloco, err := s.source.FetchBloco(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	platform := deeplink.Platform(r.URL.Query().Get("platform"))
	if platform != deeplink.PlatformIOS {
		platform = deeplink.PlatformAndroid
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bloco":   bloco,
		"transit": deeplink.Links(platform, bloco.Latitude, bloco.Longitude, bloco.Nome),
	})
}

func (s *Server) handleRestrooms(w http.ResponseWriter, r *http.Request) {
	lat, lng := s.coordinates(r)
	services, err := s.source.FetchRestrooms(r.Context(), lat, lng, floatParam(r, "raio", 0))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (s *Server) handleHospitals(w http.ResponseWriter, r *http.Request) {
	lat, lng := s.coordinates(r)
	services, err := s.source.FetchHospitals(r.Context(), lat, lng, floatParam(r, "raio", 0))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (s *Server) handleFavoritesList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.favorites.List())
}

func (s *Server) handleFavoriteToggle(w http.ResponseWriter, r *http.Request) {
	var ev feed.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if ev.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing event id"})
		return
	}

	nowFavorite, err := s.favorites.Toggle(ev)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"favorite": nowFavorite})
}

// handleWeather never fails the response: an upstream error degrades to the
// placeholder display value.
func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	current, err := s.weather.Fetch(r.Context(), s.refLat, s.refLng)
	if err != nil {
		s.logger.Debug("weather lookup failed, serving placeholder", "error", err.Error())
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"available": false,
			"display":   weather.Placeholder,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"available":   true,
		"temperature": current.Temperature,
		"windSpeed":   current.WindSpeed,
		"display":     current.Display(),
	})
}

func (s *Server) coordinates(r *http.Request) (float64, float64) {
	return floatParam(r, "lat", s.refLat), floatParam(r, "lng", s.refLng)
}

func floatParam(r *http.Request, name string, def float64) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return f
}

func filterView(f feed.FilterState) map[string]interface{} {
	return map[string]interface{}{
		"searchText":    f.SearchText,
		"timeOfDay":     f.TimeOfDay,
		"neighborhood":  f.Neighborhood,
		"sort":          f.SortKey,
		"selectedDates": f.SelectedDates,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
