package recommend

import (
	"time"

	"reelpick/models"
	"reelpick/utils/similarity"
)

// Score weights. Frequency multipliers are capped so one binged genre or
// director cannot drown out everything else.
const (
	genreHighPoints = 100 // genre match on a highly rated candidate
	genreBasePoints = 50
	directorPoints  = 30
	actorPoints     = 20

	genreFreqCap  = 2.0
	personFreqCap = 1.5

	highRatingThreshold = 8.0

	multiMatchBonus = 25 // two of genre/director/actor matched
	tripleBonus     = 50 // all three, stacks with the multi-match bonus

	ratingCloseBonus = 15 // within 0.5 of the user's own average
	ratingNearBonus  = 10 // within 1.0

	recentBonus = 5 // released within the last 5 years
	modernBonus = 3 // within the last 10
	recentYears = 5
	modernYears = 10
)

// scoreNow supplies "now" for recency bonuses; tests pin it.
var scoreNow = time.Now

// Scorer evaluates candidates against one preference profile. Matching is
// case- and punctuation-insensitive on both sides; the normalized lookup
// tables are built once per profile.
type Scorer struct {
	profile   *models.PreferenceProfile
	genres    map[string]int
	directors map[string]int
	actors    map[string]int
}

func NewScorer(profile *models.PreferenceProfile) *Scorer {
	return &Scorer{
		profile:   profile,
		genres:    normalizeFreq(profile.GenreFrequency),
		directors: normalizeFreq(profile.DirectorFrequency),
		actors:    normalizeFreq(profile.ActorFrequency),
	}
}

// Score is a pure function of the candidate and the profile. Candidates
// matching nothing score exactly zero: proximity and recency bonuses only
// apply on top of at least one genre/director/actor match.
func (s *Scorer) Score(m models.Movie) models.ScoredMovie {
	scored := models.ScoredMovie{Movie: m, MatchedRating: m.Rating}

	genreFreq := 0
	for _, g := range movieGenres(m) {
		if f := s.genres[similarity.Normalize(g)]; f > genreFreq {
			genreFreq = f
		}
	}
	directorFreq := 0
	if m.Director != "" {
		directorFreq = s.directors[similarity.Normalize(m.Director)]
	}
	actorFreq := 0
	for _, a := range m.Cast {
		if f := s.actors[similarity.Normalize(a)]; f > actorFreq {
			actorFreq = f
		}
	}

	if genreFreq > 0 {
		scored.Breakdown.GenreMatch = true
		scored.MatchCount++
		mult := capFloat(float64(genreFreq), genreFreqCap)
		if m.Rating >= highRatingThreshold {
			scored.Breakdown.GenreHighScore = true
			scored.Score += genreHighPoints * mult
		} else {
			scored.Score += genreBasePoints * mult
		}
	}
	if directorFreq > 0 {
		scored.Breakdown.DirectorMatch = true
		scored.MatchCount++
		scored.Score += directorPoints * capFloat(float64(directorFreq), personFreqCap)
	}
	if actorFreq > 0 {
		scored.Breakdown.ActorMatch = true
		scored.MatchCount++
		scored.Score += actorPoints * capFloat(float64(actorFreq), personFreqCap)
	}

	if scored.MatchCount == 0 {
		return scored
	}

	if scored.MatchCount >= 2 {
		scored.Breakdown.MultipleMatches = true
		scored.Score += multiMatchBonus
	}
	if scored.MatchCount == 3 {
		scored.Score += tripleBonus
	}

	if s.profile.UserAvgRating != nil && m.Rating > 0 {
		diff := m.Rating - *s.profile.UserAvgRating
		if diff < 0 {
			diff = -diff
		}
		switch {
		case diff <= 0.5:
			scored.Score += ratingCloseBonus
		case diff <= 1.0:
			scored.Score += ratingNearBonus
		}
	}

	if m.Year > 0 {
		age := scoreNow().Year() - m.Year
		switch {
		case age <= recentYears:
			scored.Score += recentBonus
		case age <= modernYears:
			scored.Score += modernBonus
		}
	}

	return scored
}

func normalizeFreq(freq map[string]int) map[string]int {
	out := make(map[string]int, len(freq))
	for label, count := range freq {
		n := similarity.Normalize(label)
		if n == "" {
			continue
		}
		if count > out[n] {
			out[n] = count
		}
	}
	return out
}

func capFloat(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
