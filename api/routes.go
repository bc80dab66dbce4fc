package api

import (
	"net/http"

	"reelpick/handlers"

	"github.com/gorilla/mux"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	recommendationsHandler *handlers.RecommendationsHandler,
	catalogHandler *handlers.CatalogHandler,
	usersHandler *handlers.UsersHandler,
	libraryHandler *handlers.LibraryHandler,
) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	// Recommendations
	api.HandleFunc("/recommendations", recommendationsHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/recommendations", handleOptions).Methods(http.MethodOptions)

	// Catalog browse and lookup
	api.HandleFunc("/catalog/genre/{genre}", catalogHandler.Genre).Methods(http.MethodGet)
	api.HandleFunc("/catalog/search", catalogHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/catalog/person", catalogHandler.Person).Methods(http.MethodGet)
	api.HandleFunc("/catalog/seed", catalogHandler.Seed).Methods(http.MethodGet)
	api.HandleFunc("/catalog/movie/{movieID}", catalogHandler.Details).Methods(http.MethodGet)
	api.HandleFunc("/catalog/movie/{movieID}/providers", catalogHandler.Providers).Methods(http.MethodGet)

	// User profiles
	api.HandleFunc("/users", usersHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/users", usersHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/users", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/users/{userID}", usersHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}", usersHandler.Rename).Methods(http.MethodPatch)
	api.HandleFunc("/users/{userID}", usersHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/users/{userID}", handleOptions).Methods(http.MethodOptions)

	// Per-user library buckets and ratings
	api.HandleFunc("/users/{userID}/library", libraryHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/library/{bucket}", libraryHandler.ListBucket).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/library/{bucket}", libraryHandler.Add).Methods(http.MethodPost)
	api.HandleFunc("/users/{userID}/library/{bucket}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/users/{userID}/library/{bucket}/{movieID}", libraryHandler.Remove).Methods(http.MethodDelete)
	api.HandleFunc("/users/{userID}/library/{bucket}/{movieID}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/users/{userID}/ratings/{movieID}", libraryHandler.SetRating).Methods(http.MethodPut)
	api.HandleFunc("/users/{userID}/ratings/{movieID}", libraryHandler.RemoveRating).Methods(http.MethodDelete)
	api.HandleFunc("/users/{userID}/ratings/{movieID}", handleOptions).Methods(http.MethodOptions)
}
