package models

import "time"

// Library bucket names. Each user owns one list per bucket plus a rating map.
const (
	BucketFavorites   = "favorites"
	BucketWatched     = "watched"
	BucketWantToWatch = "wantToWatch"
)

// LibraryEntry is a movie snapshot saved into one of a user's library
// buckets. The snapshot keeps enough of the movie to derive preferences
// without a catalog round-trip.
type LibraryEntry struct {
	Movie   Movie     `json:"movie"`
	AddedAt time.Time `json:"addedAt"`
}

// UserLibrary is everything the persistence collaborator holds for one user.
type UserLibrary struct {
	Favorites   []LibraryEntry     `json:"favorites,omitempty"`
	Watched     []LibraryEntry     `json:"watched,omitempty"`
	WantToWatch []LibraryEntry     `json:"wantToWatch,omitempty"`
	Ratings     map[string]float64 `json:"ratings,omitempty"` // movie ID -> 0.5-5.0 in half-star steps
}

// WatchedRef is a watched-history reference as the UI submits it: either a
// bare movie ID or an embedded movie record.
type WatchedRef struct {
	ID    string `json:"id,omitempty"`
	Movie *Movie `json:"movie,omitempty"`
}

// Ref returns the movie ID the reference points at.
func (w WatchedRef) Ref() string {
	if w.Movie != nil && w.Movie.ID != "" {
		return w.Movie.ID
	}
	return w.ID
}
