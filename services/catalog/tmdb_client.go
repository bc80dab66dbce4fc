package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	tmdbPosterSize   = "w500"
)

// tmdbClient is the raw HTTP layer over the catalog provider. It knows
// endpoints and wire shapes; throttling, caching, and filtering live in the
// Service on top of it.
type tmdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client
}

func newTMDBClient(apiKey, language string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if language = strings.TrimSpace(language); language == "" {
		language = "en-US"
	}
	return &tmdbClient{
		apiKey:   strings.TrimSpace(apiKey),
		language: language,
		httpc:    httpc,
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

// doGET performs an authenticated GET with retry on transient failures.
// 429 and 5xx responses back off and retry; other 4xx fail immediately.
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, query url.Values, v any) error {
	if !c.isConfigured() {
		return fmt.Errorf("tmdb api key not configured")
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	if query.Get("language") == "" {
		query.Set("language", c.language)
	}
	full := endpoint + "?" + query.Encode()

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return fmt.Errorf("tmdb request failed: %s", resp.Status)
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("tmdb request failed: %s", resp.Status))
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(fmt.Errorf("tmdb decode failed: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			log.Printf("[tmdb] retrying (attempt %d/3): %v", attempt+1, err)
		}),
	)
}

// List-shaped movie record returned by discover and search endpoints.
type tmdbMovie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	ReleaseDate      string  `json:"release_date"`
	OriginalLanguage string  `json:"original_language"`
	GenreIDs         []int   `json:"genre_ids"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
}

type tmdbMovieList struct {
	Page    int         `json:"page"`
	Results []tmdbMovie `json:"results"`
}

// Detail-shaped record: genres come as objects and credits are appended.
type tmdbMovieDetail struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	ReleaseDate      string  `json:"release_date"`
	OriginalLanguage string  `json:"original_language"`
	VoteAverage      float64 `json:"vote_average"`
	Genres           []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
	Credits tmdbCredits `json:"credits"`
}

type tmdbCredits struct {
	Cast []tmdbCastMember `json:"cast"`
	Crew []tmdbCrewMember `json:"crew"`
}

type tmdbCastMember struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

type tmdbCrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

type tmdbPerson struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type tmdbPersonList struct {
	Results []tmdbPerson `json:"results"`
}

// Person credits: cast entries are acting roles, crew entries carry a job.
type tmdbPersonCredits struct {
	Cast []tmdbMovie `json:"cast"`
	Crew []struct {
		tmdbMovie
		Job string `json:"job"`
	} `json:"crew"`
}

type tmdbProviderEntry struct {
	ProviderName string `json:"provider_name"`
}

type tmdbProviderRegion struct {
	Flatrate []tmdbProviderEntry `json:"flatrate"`
	Rent     []tmdbProviderEntry `json:"rent"`
	Buy      []tmdbProviderEntry `json:"buy"`
}

type tmdbProvidersResponse struct {
	Results map[string]tmdbProviderRegion `json:"results"`
}

type discoverParams struct {
	genreID   int
	minYear   int
	maxYear   int
	minRating float64
	page      int
	sortBy    string // TMDB sort_by value
}

func (c *tmdbClient) discoverMovies(ctx context.Context, p discoverParams) ([]tmdbMovie, error) {
	q := url.Values{}
	q.Set("with_original_language", "en")
	q.Set("vote_count.gte", "100")
	q.Set("include_adult", "false")
	q.Set("sort_by", p.sortBy)
	q.Set("vote_average.gte", fmt.Sprintf("%.1f", p.minRating))
	if p.genreID > 0 {
		q.Set("with_genres", fmt.Sprintf("%d", p.genreID))
	}
	if p.minYear > 0 {
		q.Set("primary_release_date.gte", fmt.Sprintf("%d-01-01", p.minYear))
	}
	if p.maxYear > 0 {
		q.Set("primary_release_date.lte", fmt.Sprintf("%d-12-31", p.maxYear))
	}
	if p.page > 0 {
		q.Set("page", fmt.Sprintf("%d", p.page))
	}

	var payload tmdbMovieList
	if err := c.doGET(ctx, tmdbBaseURL+"/discover/movie", q, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *tmdbClient) searchMovies(ctx context.Context, query string, page int) ([]tmdbMovie, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("include_adult", "false")
	if page > 0 {
		q.Set("page", fmt.Sprintf("%d", page))
	}

	var payload tmdbMovieList
	if err := c.doGET(ctx, tmdbBaseURL+"/search/movie", q, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *tmdbClient) searchPerson(ctx context.Context, name string) (*tmdbPerson, error) {
	q := url.Values{}
	q.Set("query", name)

	var payload tmdbPersonList
	if err := c.doGET(ctx, tmdbBaseURL+"/search/person", q, &payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}
	// First match wins; same-named people are not disambiguated.
	return &payload.Results[0], nil
}

func (c *tmdbClient) personMovieCredits(ctx context.Context, personID int64) (*tmdbPersonCredits, error) {
	var payload tmdbPersonCredits
	endpoint := fmt.Sprintf("%s/person/%d/movie_credits", tmdbBaseURL, personID)
	if err := c.doGET(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *tmdbClient) movieDetails(ctx context.Context, tmdbID int64) (*tmdbMovieDetail, error) {
	q := url.Values{}
	q.Set("append_to_response", "credits")

	var payload tmdbMovieDetail
	endpoint := fmt.Sprintf("%s/movie/%d", tmdbBaseURL, tmdbID)
	if err := c.doGET(ctx, endpoint, q, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *tmdbClient) watchProviders(ctx context.Context, tmdbID int64) (map[string]tmdbProviderRegion, error) {
	var payload tmdbProvidersResponse
	endpoint := fmt.Sprintf("%s/movie/%d/watch/providers", tmdbBaseURL, tmdbID)
	if err := c.doGET(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *tmdbClient) topRated(ctx context.Context, page int) ([]tmdbMovie, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprintf("%d", page))
	}

	var payload tmdbMovieList
	if err := c.doGET(ctx, tmdbBaseURL+"/movie/top_rated", q, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func buildPosterURL(posterPath string) string {
	trimmed := strings.TrimSpace(posterPath)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", tmdbImageBaseURL, path.Join(tmdbPosterSize, strings.TrimPrefix(trimmed, "/")))
}
