package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Movie source origins. Every movie ID carries a source prefix so IDs can
// never collide across origins.
const (
	SourceLocal    = "local"
	SourceExternal = "external"

	LocalIDPrefix    = "local_"
	ExternalIDPrefix = "tmdb_"
)

// Movie is the canonical record shape every catalog source is normalized
// into. Immutable once constructed.
type Movie struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Year             int      `json:"year,omitempty"`
	ReleaseDate      string   `json:"releaseDate,omitempty"` // YYYY-MM-DD, more precise than Year
	Genre            string   `json:"genre,omitempty"`       // primary display genre
	Genres           []string `json:"genres,omitempty"`      // up to 3 genre names
	GenreIDs         []int    `json:"genreIds,omitempty"`    // source-native ids, preserved for filtering
	Director         string   `json:"director,omitempty"`
	Cast             []string `json:"cast,omitempty"` // up to 5 actor names
	Rating           float64  `json:"rating"`         // 0.0-10.0, one decimal
	OriginalLanguage string   `json:"originalLanguage,omitempty"`
	Overview         string   `json:"overview,omitempty"`
	PosterURL        string   `json:"posterUrl,omitempty"`
	Source           string   `json:"source"` // local | external
	TMDBID           int64    `json:"tmdbId,omitempty"`
}

// ExternalMovieID builds the canonical ID for a TMDB-sourced movie.
func ExternalMovieID(tmdbID int64) string {
	return ExternalIDPrefix + strconv.FormatInt(tmdbID, 10)
}

// IsLocal reports whether the ID belongs to a locally-added movie, which has
// no external detail endpoint.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// ParseExternalID extracts the TMDB numeric id from a canonical external ID.
func ParseExternalID(id string) (int64, bool) {
	trimmed := strings.TrimPrefix(id, ExternalIDPrefix)
	if trimmed == id {
		return 0, false
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// FormatRating renders a 0-10 vote average with one decimal, the shape the
// UI and scoring layers expect.
func FormatRating(v float64) float64 {
	s := fmt.Sprintf("%.1f", v)
	out, _ := strconv.ParseFloat(s, 64)
	return out
}
