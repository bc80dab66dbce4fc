package models

// PreferenceProfile summarizes a user's taste, derived deterministically from
// their favorites, watched history, and explicit ratings. Profiles are
// rebuilt when the underlying lists change; callers may rely on pointer
// identity to detect an unchanged profile.
type PreferenceProfile struct {
	// Normalized (lowercase, trimmed, punctuation-stripped) labels ordered
	// most frequent first.
	Genres    []string `json:"genres"`
	Directors []string `json:"directors"`
	Actors    []string `json:"actors"`

	// Occurrence counts keyed by the raw display label, used as scoring
	// multipliers and for choosing which catalog queries to issue.
	GenreFrequency    map[string]int `json:"genreFrequency,omitempty"`
	DirectorFrequency map[string]int `json:"directorFrequency,omitempty"`
	ActorFrequency    map[string]int `json:"actorFrequency,omitempty"`

	// MinRating is the floor applied to external candidate queries.
	MinRating float64 `json:"minRating"`

	// UserAvgRating is set once the user has rated at least one movie
	// (0-10 scale); it takes precedence over history-derived averages for
	// rating-proximity bonuses.
	UserAvgRating *float64 `json:"userAvgRating,omitempty"`
}

// IsEmpty reports whether the profile carries no recommendation signal.
func (p *PreferenceProfile) IsEmpty() bool {
	return p == nil || (len(p.Genres) == 0 && len(p.Directors) == 0 && len(p.Actors) == 0)
}

// ScoreBreakdown records which criteria contributed to a candidate's score,
// kept for auditability and tests.
type ScoreBreakdown struct {
	GenreHighScore  bool `json:"genreHighScore"`
	GenreMatch      bool `json:"genreMatch"`
	DirectorMatch   bool `json:"directorMatch"`
	ActorMatch      bool `json:"actorMatch"`
	MultipleMatches bool `json:"multipleMatches"`
}

// ScoredMovie pairs a candidate with its recommendation score. Transient:
// produced per scoring pass, never persisted.
type ScoredMovie struct {
	Movie         Movie          `json:"movie"`
	Score         float64        `json:"score"`
	MatchedRating float64        `json:"matchedRating"`
	MatchCount    int            `json:"matchCount"` // 0..3 of {genre, director, actor}
	Breakdown     ScoreBreakdown `json:"breakdown"`
}

// WatchProviderOffers lists the allowed providers per offer type for one
// movie in the operator's region.
type WatchProviderOffers struct {
	Region       string   `json:"region"`
	Subscription []string `json:"subscription,omitempty"`
	Rent         []string `json:"rent,omitempty"`
	Buy          []string `json:"buy,omitempty"`
}

// Available reports whether any allowed provider appears in any bucket.
func (w *WatchProviderOffers) Available() bool {
	return w != nil && (len(w.Subscription) > 0 || len(w.Rent) > 0 || len(w.Buy) > 0)
}
