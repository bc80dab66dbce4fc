package recommend

import (
	"sort"
	"strings"
	"sync"

	"reelpick/models"
	"reelpick/utils/similarity"
)

// minRatingFloor is the lowest candidate-rating threshold a non-empty
// profile ever produces.
const minRatingFloor = 7.5

// favoriteRatingWeight biases the rating baseline toward favorites, which
// signal stronger affinity than a bare watched entry.
const favoriteRatingWeight = 1.5

// Extractor derives preference profiles from a user's library. The last
// profile is memoized by a key over the input ids, so unchanged inputs
// return the identical profile pointer and downstream consumers can skip
// recomputation.
type Extractor struct {
	mu      sync.Mutex
	lastKey string
	last    *models.PreferenceProfile
}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract builds a profile from favorites, watched history, and explicit
// ratings. Watched entries may be bare ids; they resolve against lookup and
// unresolvable ids drop out of preference derivation.
func (e *Extractor) Extract(favorites []models.Movie, watched []models.WatchedRef, lookup []models.Movie, ratings map[string]float64) *models.PreferenceProfile {
	key := profileKey(favorites, watched, ratings)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last != nil && e.lastKey == key {
		return e.last
	}

	working := workingSet(favorites, watched, lookup)

	genreFreq := make(map[string]int)
	directorFreq := make(map[string]int)
	actorFreq := make(map[string]int)
	for _, m := range working {
		for _, g := range movieGenres(m) {
			genreFreq[g]++
		}
		if d := strings.TrimSpace(m.Director); d != "" {
			directorFreq[d]++
		}
		for _, a := range m.Cast {
			if a = strings.TrimSpace(a); a != "" {
				actorFreq[a]++
			}
		}
	}

	profile := &models.PreferenceProfile{
		Genres:            normalizedByFrequency(genreFreq),
		Directors:         normalizedByFrequency(directorFreq),
		Actors:            normalizedByFrequency(actorFreq),
		GenreFrequency:    genreFreq,
		DirectorFrequency: directorFreq,
		ActorFrequency:    actorFreq,
	}

	// Explicit ratings (half-star 0.5-5 scale, doubled to the catalog's
	// 0-10 scale) supersede the history-derived baseline entirely.
	baseline, hasBaseline := historyBaseline(favorites, working)
	if len(ratings) > 0 {
		var sum float64
		for _, r := range ratings {
			sum += r * 2
		}
		avg := sum / float64(len(ratings))
		profile.UserAvgRating = &avg
		baseline, hasBaseline = avg, true
	}
	if hasBaseline {
		profile.MinRating = minRatingFloor
		if floor := baseline - 0.5; floor > minRatingFloor {
			profile.MinRating = floor
		}
	}

	e.lastKey = key
	e.last = profile
	return profile
}

// workingSet unions favorites with resolved watched entries, deduplicated
// by id with favorites taking precedence.
func workingSet(favorites []models.Movie, watched []models.WatchedRef, lookup []models.Movie) []models.Movie {
	byID := make(map[string]bool, len(favorites))
	working := make([]models.Movie, 0, len(favorites)+len(watched))
	for _, m := range favorites {
		if m.ID == "" || byID[m.ID] {
			continue
		}
		byID[m.ID] = true
		working = append(working, m)
	}
	for _, ref := range watched {
		m, ok := resolveWatched(ref, lookup)
		if !ok || byID[m.ID] {
			continue
		}
		byID[m.ID] = true
		working = append(working, m)
	}
	return working
}

func resolveWatched(ref models.WatchedRef, lookup []models.Movie) (models.Movie, bool) {
	if ref.Movie != nil && ref.Movie.ID != "" {
		return *ref.Movie, true
	}
	if ref.ID == "" {
		return models.Movie{}, false
	}
	for _, m := range lookup {
		if m.ID == ref.ID {
			return m, true
		}
	}
	return models.Movie{}, false
}

// historyBaseline averages the working set's catalog ratings, weighting
// favorites more heavily than watched-only entries.
func historyBaseline(favorites, working []models.Movie) (float64, bool) {
	favIDs := make(map[string]bool, len(favorites))
	for _, m := range favorites {
		favIDs[m.ID] = true
	}

	var sum, weight float64
	for _, m := range working {
		if m.Rating <= 0 {
			continue
		}
		w := 1.0
		if favIDs[m.ID] {
			w = favoriteRatingWeight
		}
		sum += m.Rating * w
		weight += w
	}
	if weight == 0 {
		return 0, false
	}
	return sum / weight, true
}

func movieGenres(m models.Movie) []string {
	if len(m.Genres) > 0 {
		out := make([]string, 0, len(m.Genres))
		for _, g := range m.Genres {
			if g = strings.TrimSpace(g); g != "" {
				out = append(out, g)
			}
		}
		return out
	}
	if g := strings.TrimSpace(m.Genre); g != "" {
		return []string{g}
	}
	return nil
}

// normalizedByFrequency returns the normalized labels ordered most frequent
// first (ties alphabetical), deduplicated after normalization.
func normalizedByFrequency(freq map[string]int) []string {
	labels := make([]string, 0, len(freq))
	for label := range freq {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if freq[labels[i]] != freq[labels[j]] {
			return freq[labels[i]] > freq[labels[j]]
		}
		return labels[i] < labels[j]
	})

	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		n := similarity.Normalize(label)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// profileKey composes the memoization key from the sorted favorite ids,
// watched ids, and rating keys.
func profileKey(favorites []models.Movie, watched []models.WatchedRef, ratings map[string]float64) string {
	favIDs := make([]string, 0, len(favorites))
	for _, m := range favorites {
		favIDs = append(favIDs, m.ID)
	}
	watchedIDs := make([]string, 0, len(watched))
	for _, ref := range watched {
		watchedIDs = append(watchedIDs, ref.Ref())
	}
	ratingKeys := make([]string, 0, len(ratings))
	for id := range ratings {
		ratingKeys = append(ratingKeys, id)
	}
	sort.Strings(favIDs)
	sort.Strings(watchedIDs)
	sort.Strings(ratingKeys)

	var b strings.Builder
	b.WriteString(strings.Join(favIDs, ","))
	b.WriteString("|")
	b.WriteString(strings.Join(watchedIDs, ","))
	b.WriteString("|")
	b.WriteString(strings.Join(ratingKeys, ","))
	return b.String()
}
