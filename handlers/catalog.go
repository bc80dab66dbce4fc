package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"reelpick/models"
	"reelpick/services/catalog"

	"github.com/gorilla/mux"
)

type catalogService interface {
	SearchByGenre(ctx context.Context, genre string, opts catalog.GenreSearchOptions) []models.Movie
	SearchByTitle(ctx context.Context, query string, page, limit int) []models.Movie
	SearchByDirector(ctx context.Context, name string) []models.Movie
	SearchByActor(ctx context.Context, name string) []models.Movie
	GetDetails(ctx context.Context, id string) (*models.Movie, error)
	GetWatchProviders(ctx context.Context, id string) (*models.WatchProviderOffers, error)
	GetCuratedSeedSet(ctx context.Context) []models.Movie
}

var _ catalogService = (*catalog.Service)(nil)

// CatalogHandler serves browse and lookup endpoints backed by the external
// movie catalog.
type CatalogHandler struct {
	catalog catalogService
}

func NewCatalogHandler(catalog catalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) Genre(w http.ResponseWriter, r *http.Request) {
	genre := mux.Vars(r)["genre"]
	q := r.URL.Query()
	opts := catalog.GenreSearchOptions{
		MinYear:   queryInt(q.Get("minYear"), 0),
		MaxYear:   queryInt(q.Get("maxYear"), 0),
		MinRating: queryFloat(q.Get("minRating"), 0),
		Page:      queryInt(q.Get("page"), 1),
		Limit:     queryInt(q.Get("limit"), 0),
		SortBy:    q.Get("sortBy"),
	}
	movies := h.catalog.SearchByGenre(r.Context(), genre, opts)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"movies": movies})
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSONError(w, "q is required", http.StatusBadRequest)
		return
	}
	page := queryInt(r.URL.Query().Get("page"), 1)
	limit := queryInt(r.URL.Query().Get("limit"), 0)
	movies := h.catalog.SearchByTitle(r.Context(), query, page, limit)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"movies": movies})
}

func (h *CatalogHandler) Person(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeJSONError(w, "name is required", http.StatusBadRequest)
		return
	}
	var movies []models.Movie
	switch role := r.URL.Query().Get("role"); role {
	case "", "director":
		movies = h.catalog.SearchByDirector(r.Context(), name)
	case "actor":
		movies = h.catalog.SearchByActor(r.Context(), name)
	default:
		writeJSONError(w, "role must be director or actor", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"movies": movies})
}

func (h *CatalogHandler) Details(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["movieID"]
	movie, err := h.catalog.GetDetails(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrMovieNotFound) {
			writeJSONError(w, "movie not found", http.StatusNotFound)
			return
		}
		writeJSONError(w, "failed to load movie", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(movie)
}

func (h *CatalogHandler) Providers(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["movieID"]
	offers, err := h.catalog.GetWatchProviders(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNoProviders) {
			writeJSONError(w, "no watch providers available", http.StatusNotFound)
			return
		}
		writeJSONError(w, "failed to load watch providers", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(offers)
}

func (h *CatalogHandler) Seed(w http.ResponseWriter, r *http.Request) {
	movies := h.catalog.GetCuratedSeedSet(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"movies": movies})
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryFloat(raw string, fallback float64) float64 {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
