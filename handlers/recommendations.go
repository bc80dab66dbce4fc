package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"reelpick/models"
	"reelpick/services/recommend"
)

type recommender interface {
	Recommend(ctx context.Context, req recommend.Request) []models.Movie
}

var _ recommender = (*recommend.Service)(nil)

type libraryReader interface {
	Load(userID string) (models.UserLibrary, error)
	WatchedRefs(userID string) ([]models.WatchedRef, error)
}

// RecommendationsHandler assembles a user's taste signals from their library
// and returns a ranked shelf.
type RecommendationsHandler struct {
	recommender recommender
	library     libraryReader
	users       userChecker
}

func NewRecommendationsHandler(rec recommender, library libraryReader, users userChecker) *RecommendationsHandler {
	return &RecommendationsHandler{recommender: rec, library: library, users: users}
}

func (h *RecommendationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := strings.TrimSpace(q.Get("userId"))
	if userID == "" {
		writeJSONError(w, "userId is required", http.StatusBadRequest)
		return
	}
	if !h.users.Exists(userID) {
		writeJSONError(w, "user not found", http.StatusNotFound)
		return
	}

	lib, err := h.library.Load(userID)
	if err != nil {
		writeJSONError(w, "failed to load library", http.StatusInternalServerError)
		return
	}
	watched, err := h.library.WatchedRefs(userID)
	if err != nil {
		writeJSONError(w, "failed to load watch history", http.StatusInternalServerError)
		return
	}

	req := recommend.Request{
		Favorites:   entryMovies(lib.Favorites),
		Watched:     watched,
		Inventory:   entryMovies(lib.WantToWatch),
		Lookup:      lookupMovies(lib),
		Ratings:     lib.Ratings,
		Limit:       queryInt(q.Get("limit"), 0),
		UseExternal: q.Get("external") != "false",
	}
	movies := h.recommender.Recommend(r.Context(), req)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"movies": movies})
}

func entryMovies(entries []models.LibraryEntry) []models.Movie {
	movies := make([]models.Movie, 0, len(entries))
	for _, e := range entries {
		movies = append(movies, e.Movie)
	}
	return movies
}

// lookupMovies flattens every bucket so bare watched IDs can be resolved to
// full records during preference extraction.
func lookupMovies(lib models.UserLibrary) []models.Movie {
	movies := entryMovies(lib.Favorites)
	movies = append(movies, entryMovies(lib.Watched)...)
	movies = append(movies, entryMovies(lib.WantToWatch)...)
	return movies
}
