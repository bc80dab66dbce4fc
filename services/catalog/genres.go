package catalog

import "strings"

// TMDB genre ids used by the filter pipeline and the display-genre mapping.
const (
	genreAction      = 28
	genreAdventure   = 12
	genreAnimation   = 16
	genreComedy      = 35
	genreCrime       = 80
	genreDocumentary = 99
	genreDrama       = 18
	genreFamily      = 10751
	genreFantasy     = 14
	genreHistory     = 36
	genreHorror      = 27
	genreMusic       = 10402
	genreMystery     = 9648
	genreRomance     = 10749
	genreSciFi       = 878
	genreTVMovie     = 10770
	genreThriller    = 53
	genreWar         = 10752
	genreWestern     = 37
)

// displayGenres maps the product's shelf names to one or more TMDB genre
// ids. Merged categories (two ids) are queried independently and unioned.
var displayGenres = map[string][]int{
	"Action/Adventure": {genreAction, genreAdventure},
	"Comedy":           {genreComedy},
	"Drama":            {genreDrama},
	"Horror":           {genreHorror},
	"Science-Fiction":  {genreSciFi, genreFantasy},
	"Thriller":         {genreThriller, genreMystery},
	"Romance":          {genreRomance},
	"Animation":        {genreAnimation},
	"Documentary":      {genreDocumentary},
	"Crime":            {genreCrime},
}

var genreNames = map[int]string{
	genreAction:      "Action",
	genreAdventure:   "Adventure",
	genreAnimation:   "Animation",
	genreComedy:      "Comedy",
	genreCrime:       "Crime",
	genreDocumentary: "Documentary",
	genreDrama:       "Drama",
	genreFamily:      "Family",
	genreFantasy:     "Fantasy",
	genreHistory:     "History",
	genreHorror:      "Horror",
	genreMusic:       "Music",
	genreMystery:     "Mystery",
	genreRomance:     "Romance",
	genreSciFi:       "Science Fiction",
	genreTVMovie:     "TV Movie",
	genreThriller:    "Thriller",
	genreWar:         "War",
	genreWestern:     "Western",
}

// resolveDisplayGenre returns the TMDB ids for a shelf name. Lookup is
// case-insensitive on the canonical names and also accepts a bare TMDB genre
// name ("Action", "Fantasy") so preference-derived queries resolve too.
func resolveDisplayGenre(name string) []int {
	name = strings.TrimSpace(name)
	if ids, ok := displayGenres[name]; ok {
		return ids
	}
	for display, ids := range displayGenres {
		if strings.EqualFold(display, name) {
			return ids
		}
	}
	for id, genreName := range genreNames {
		if strings.EqualFold(genreName, name) {
			return []int{id}
		}
	}
	return nil
}

// genreNamesFor maps TMDB ids to display names, keeping source order,
// capped at max entries.
func genreNamesFor(ids []int, max int) []string {
	names := make([]string, 0, max)
	for _, id := range ids {
		name, ok := genreNames[id]
		if !ok {
			continue
		}
		names = append(names, name)
		if len(names) >= max {
			break
		}
	}
	return names
}
