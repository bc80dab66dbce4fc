package catalog

import (
	"strconv"
	"strings"
	"time"

	"reelpick/models"
)

const (
	maxGenreNames  = 3
	maxCastMembers = 5
)

// movieFromList converts a discover/search result into the canonical shape.
// List records carry no credits, so Director and Cast stay empty until a
// detail fetch enriches them.
func movieFromList(r tmdbMovie) models.Movie {
	names := genreNamesFor(r.GenreIDs, maxGenreNames)
	m := models.Movie{
		ID:               models.ExternalMovieID(r.ID),
		Title:            strings.TrimSpace(r.Title),
		Year:             yearFromDate(r.ReleaseDate),
		ReleaseDate:      strings.TrimSpace(r.ReleaseDate),
		Genres:           names,
		GenreIDs:         append([]int(nil), r.GenreIDs...),
		Rating:           models.FormatRating(r.VoteAverage),
		OriginalLanguage: strings.TrimSpace(r.OriginalLanguage),
		Overview:         r.Overview,
		PosterURL:        buildPosterURL(r.PosterPath),
		Source:           models.SourceExternal,
		TMDBID:           r.ID,
	}
	if len(names) > 0 {
		m.Genre = names[0]
	}
	return m
}

// movieFromDetail converts a detail+credits response, resolving the director
// from the crew list and keeping the top-billed cast.
func movieFromDetail(d *tmdbMovieDetail) models.Movie {
	ids := make([]int, 0, len(d.Genres))
	names := make([]string, 0, maxGenreNames)
	for _, g := range d.Genres {
		ids = append(ids, g.ID)
		if len(names) < maxGenreNames && strings.TrimSpace(g.Name) != "" {
			names = append(names, strings.TrimSpace(g.Name))
		}
	}

	m := models.Movie{
		ID:               models.ExternalMovieID(d.ID),
		Title:            strings.TrimSpace(d.Title),
		Year:             yearFromDate(d.ReleaseDate),
		ReleaseDate:      strings.TrimSpace(d.ReleaseDate),
		Genres:           names,
		GenreIDs:         ids,
		Director:         directorFromCrew(d.Credits.Crew),
		Cast:             castNames(d.Credits.Cast, maxCastMembers),
		Rating:           models.FormatRating(d.VoteAverage),
		OriginalLanguage: strings.TrimSpace(d.OriginalLanguage),
		Overview:         d.Overview,
		PosterURL:        buildPosterURL(d.PosterPath),
		Source:           models.SourceExternal,
		TMDBID:           d.ID,
	}
	if len(names) > 0 {
		m.Genre = names[0]
	}
	return m
}

func directorFromCrew(crew []tmdbCrewMember) string {
	for _, member := range crew {
		if strings.EqualFold(strings.TrimSpace(member.Job), "director") {
			return strings.TrimSpace(member.Name)
		}
	}
	return ""
}

func castNames(cast []tmdbCastMember, max int) []string {
	names := make([]string, 0, max)
	for _, member := range cast {
		name := strings.TrimSpace(member.Name)
		if name == "" {
			continue
		}
		names = append(names, name)
		if len(names) >= max {
			break
		}
	}
	return names
}

func yearFromDate(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t.Year()
	}
	if y, err := strconv.Atoi(date[:4]); err == nil {
		return y
	}
	return 0
}

// NormalizeLocal brings a locally-added movie into the canonical shape:
// prefixed id, local source marker, formatted rating, derived year. Local
// records never carry provider genre ids and are exempt from the
// external-only filter steps.
func NormalizeLocal(m models.Movie) models.Movie {
	if strings.HasPrefix(m.ID, models.ExternalIDPrefix) {
		m.Source = models.SourceExternal
		if id, ok := models.ParseExternalID(m.ID); ok {
			m.TMDBID = id
		}
	} else {
		if !strings.HasPrefix(m.ID, models.LocalIDPrefix) {
			m.ID = models.LocalIDPrefix + m.ID
		}
		m.Source = models.SourceLocal
	}
	m.Title = strings.TrimSpace(m.Title)
	m.Rating = models.FormatRating(m.Rating)
	if m.Year == 0 {
		m.Year = yearFromDate(m.ReleaseDate)
	}
	if m.Genre == "" && len(m.Genres) > 0 {
		m.Genre = m.Genres[0]
	}
	if m.Genre != "" && len(m.Genres) == 0 {
		m.Genres = []string{m.Genre}
	}
	return m
}
