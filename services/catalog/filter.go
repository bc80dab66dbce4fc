package catalog

import (
	"strings"
	"time"

	"reelpick/models"
)

// Title substrings that never belong on a discovery shelf, matched against
// the lowercased title.
var blockedTitleParts = []string{
	"untitled",
	"making of",
	"behind the scenes",
	"(tv)",
}

// Original languages excluded by product policy: the catalog is curated as
// English-only and these two dominate the provider's non-English noise.
var blockedLanguages = map[string]bool{
	"tr": true,
	"es": true,
}

// filterNow supplies "today" for the released check; tests pin it.
var filterNow = time.Now

// applyStandardFilters runs the exclusion pipeline every catalog query
// result passes through. targetGenre is the display genre the query asked
// for ("" for title/person/detail queries); several steps depend on it.
// Locally-added movies bypass the external-only steps (genre-id presence,
// language policy) since they never carried provider semantics.
func applyStandardFilters(movies []models.Movie, targetGenre string) []models.Movie {
	targetIDs := resolveDisplayGenre(targetGenre)
	comedyTarget := containsID(targetIDs, genreComedy)

	kept := make([]models.Movie, 0, len(movies))
	for _, m := range movies {
		if m.Source == models.SourceLocal {
			if blockedTitle(m.Title) {
				continue
			}
			if !isReleased(m) {
				continue
			}
			kept = append(kept, m)
			continue
		}

		if len(m.GenreIDs) == 0 {
			continue
		}
		if !isReleased(m) {
			continue
		}
		if blockedTitle(m.Title) {
			continue
		}
		if blockedLanguages[strings.ToLower(m.OriginalLanguage)] {
			continue
		}
		if containsID(m.GenreIDs, genreMusic) {
			continue
		}
		// Family content is deliberately scoped to the Comedy shelf.
		if containsID(m.GenreIDs, genreFamily) && !comedyTarget {
			continue
		}
		if incompatibleGenreMix(m.GenreIDs, targetIDs) {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// isReleased reports whether a movie is out: release date on or before
// today, or (date unknown) year not in the future. Missing both is treated
// as released.
func isReleased(m models.Movie) bool {
	now := filterNow()
	if date := strings.TrimSpace(m.ReleaseDate); date != "" {
		t, err := time.Parse("2006-01-02", date)
		if err == nil {
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			return !t.After(today)
		}
	}
	if m.Year > 0 {
		return m.Year <= now.Year()
	}
	return true
}

func blockedTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, part := range blockedTitleParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

// incompatibleGenreMix drops genre pairings that read as noise on their
// shelf: animated dramas/horror on the Animation shelf, animated or family
// comedies on the Horror shelf, and so on. Animation+Documentary is dropped
// on every shelf.
func incompatibleGenreMix(genreIDs, targetIDs []int) bool {
	has := func(id int) bool { return containsID(genreIDs, id) }
	target := func(id int) bool { return containsID(targetIDs, id) }

	if has(genreAnimation) && has(genreDocumentary) {
		return true
	}
	if target(genreAnimation) && has(genreAnimation) &&
		(has(genreDrama) || has(genreHorror) || has(genreCrime) || has(genreDocumentary) || has(genreMystery)) {
		return true
	}
	if target(genreHorror) && has(genreHorror) &&
		(has(genreAnimation) || has(genreFamily) || has(genreComedy) || has(genreMusic)) {
		return true
	}
	if target(genreDrama) && has(genreDrama) && has(genreAnimation) {
		return true
	}
	return false
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
