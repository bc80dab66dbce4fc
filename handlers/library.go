package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"reelpick/models"
	"reelpick/services/library"

	"github.com/gorilla/mux"
)

type libraryService interface {
	ListBucket(userID, bucket string) ([]models.LibraryEntry, error)
	AddToBucket(userID, bucket string, movie models.Movie) (models.LibraryEntry, error)
	RemoveFromBucket(userID, bucket, movieID string) (bool, error)
	SetRating(userID, movieID string, rating float64) error
	RemoveRating(userID, movieID string) (bool, error)
	Load(userID string) (models.UserLibrary, error)
}

var _ libraryService = (*library.Service)(nil)

type userChecker interface {
	Exists(id string) bool
}

// LibraryHandler manages the per-user movie buckets and ratings.
type LibraryHandler struct {
	library libraryService
	users   userChecker
}

func NewLibraryHandler(library libraryService, users userChecker) *LibraryHandler {
	return &LibraryHandler{library: library, users: users}
}

func (h *LibraryHandler) requireUser(w http.ResponseWriter, userID string) bool {
	if !h.users.Exists(userID) {
		writeJSONError(w, "user not found", http.StatusNotFound)
		return false
	}
	return true
}

func (h *LibraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	if !h.requireUser(w, userID) {
		return
	}
	lib, err := h.library.Load(userID)
	if err != nil {
		log.Printf("[library] load failed for %s: %v", userID, err)
		writeJSONError(w, "failed to load library", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lib)
}

func (h *LibraryHandler) ListBucket(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, bucket := vars["userID"], vars["bucket"]
	if !h.requireUser(w, userID) {
		return
	}
	entries, err := h.library.ListBucket(userID, bucket)
	if err != nil {
		if errors.Is(err, library.ErrUnknownBucket) {
			writeJSONError(w, "unknown bucket", http.StatusNotFound)
			return
		}
		writeJSONError(w, "failed to list bucket", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"entries": entries})
}

func (h *LibraryHandler) Add(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, bucket := vars["userID"], vars["bucket"]
	if !h.requireUser(w, userID) {
		return
	}
	var movie models.Movie
	if err := json.NewDecoder(r.Body).Decode(&movie); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	entry, err := h.library.AddToBucket(userID, bucket, movie)
	if err != nil {
		switch {
		case errors.Is(err, library.ErrUnknownBucket):
			writeJSONError(w, "unknown bucket", http.StatusNotFound)
		case errors.Is(err, library.ErrMovieIDRequired):
			writeJSONError(w, "movie id is required", http.StatusBadRequest)
		default:
			log.Printf("[library] add failed for %s/%s: %v", userID, bucket, err)
			writeJSONError(w, "failed to save entry", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entry)
}

func (h *LibraryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, bucket, movieID := vars["userID"], vars["bucket"], vars["movieID"]
	if !h.requireUser(w, userID) {
		return
	}
	removed, err := h.library.RemoveFromBucket(userID, bucket, movieID)
	if err != nil {
		if errors.Is(err, library.ErrUnknownBucket) {
			writeJSONError(w, "unknown bucket", http.StatusNotFound)
			return
		}
		writeJSONError(w, "failed to remove entry", http.StatusInternalServerError)
		return
	}
	if !removed {
		writeJSONError(w, "entry not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "removed"})
}

func (h *LibraryHandler) SetRating(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, movieID := vars["userID"], vars["movieID"]
	if !h.requireUser(w, userID) {
		return
	}
	var payload struct {
		Rating float64 `json:"rating"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.library.SetRating(userID, movieID, payload.Rating); err != nil {
		switch {
		case errors.Is(err, library.ErrInvalidRating):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, library.ErrMovieIDRequired):
			writeJSONError(w, "movie id is required", http.StatusBadRequest)
		default:
			log.Printf("[library] rating failed for %s/%s: %v", userID, movieID, err)
			writeJSONError(w, "failed to save rating", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"movieId": movieID, "rating": payload.Rating})
}

func (h *LibraryHandler) RemoveRating(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, movieID := vars["userID"], vars["movieID"]
	if !h.requireUser(w, userID) {
		return
	}
	removed, err := h.library.RemoveRating(userID, movieID)
	if err != nil {
		writeJSONError(w, "failed to remove rating", http.StatusInternalServerError)
		return
	}
	if !removed {
		writeJSONError(w, "rating not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "removed"})
}
