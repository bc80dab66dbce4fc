package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"reelpick/config"
	"reelpick/models"
	"reelpick/utils/similarity"
)

// Sort modes accepted by SearchByGenre.
const (
	SortMostLiked    = "most_liked"
	SortMostRated    = "most_rated"
	SortNewMostRated = "new_most_rated"
)

const (
	defaultMinRating = 6.0
	// Default/new sorts raise the floor to bias toward quality.
	newSortMinRating = 7.0

	defaultSearchLimit = 20
	personCreditLimit  = 20
	personDetailLimit  = 10
	seedSetSize        = 50
	seedPerGenre       = 5
	seedPages          = 3
)

var (
	ErrMovieNotFound = errors.New("movie not found")
	ErrNoProviders   = errors.New("no streaming providers available")
)

// Streaming services surfaced to users, one list per offer type. The ad
// tier reported under the flatrate bucket is deliberately hidden.
var (
	subscriptionProviders = []string{
		"Netflix", "Amazon Prime Video", "Disney Plus", "Hulu",
		"Max", "Apple TV+", "Paramount Plus", "Peacock Premium",
	}
	excludedSubscription = "Netflix Standard with Ads"
	purchaseProviders    = []string{
		"Apple TV", "Amazon Video", "Google Play Movies",
		"YouTube", "Vudu", "Microsoft Store",
	}
)

// Service is the catalog query layer: every public operation validates its
// input, consults the response cache, throttles each outbound call through
// the rate limiter, normalizes provider records into models.Movie, and runs
// the standard filter pipeline. Failures are logged and degrade to empty
// results; list operations never return an error.
type Service struct {
	client  *tmdbClient
	limiter *RateLimiter
	region  string

	movieLists *ResponseCache[[]models.Movie]
	details    *ResponseCache[*models.Movie]
	providers  *ResponseCache[*models.WatchProviderOffers]

	// Person lookup seam: name search does not disambiguate same-named
	// people, so tests pin this to deterministic fixtures.
	searchPerson func(ctx context.Context, name string) (*tmdbPerson, error)

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewService(cfg config.CatalogSettings, cacheTTL time.Duration, limiter *RateLimiter, httpc *http.Client) *Service {
	client := newTMDBClient(cfg.TMDBAPIKey, cfg.Language, httpc)
	if limiter == nil {
		limiter = NewRateLimiter(40, 10*time.Second)
	}
	s := &Service{
		client:     client,
		limiter:    limiter,
		region:     strings.ToUpper(strings.TrimSpace(cfg.Region)),
		movieLists: NewResponseCache[[]models.Movie](cacheTTL),
		details:    NewResponseCache[*models.Movie](cacheTTL),
		providers:  NewResponseCache[*models.WatchProviderOffers](cacheTTL),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.searchPerson = client.searchPerson
	return s
}

// GenreSearchOptions narrows a genre shelf query. Zero values take defaults:
// page 1, limit 20, rating floor 6.0 (7.0 for the default sort).
type GenreSearchOptions struct {
	MinYear   int
	MaxYear   int
	MinRating float64
	Page      int
	Limit     int
	SortBy    string
}

// SearchByGenre resolves a display genre to its provider genre ids, queries
// each id independently, and unions the filtered results with duplicate
// removal. Merged categories ("Action/Adventure", "Science-Fiction") span
// two provider ids.
func (s *Service) SearchByGenre(ctx context.Context, genre string, opts GenreSearchOptions) []models.Movie {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		return nil
	}
	ids := resolveDisplayGenre(genre)
	if len(ids) == 0 {
		log.Printf("[catalog] unknown genre %q", genre)
		return nil
	}

	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultSearchLimit
	}

	sortBy, minRating := resolveSort(opts.SortBy, opts.MinRating)

	key := cacheKey("genre", genre, fmt.Sprint(ids), sortBy,
		fmt.Sprint(opts.MinYear), fmt.Sprint(opts.MaxYear),
		fmt.Sprintf("%.1f", minRating), fmt.Sprint(opts.Page), fmt.Sprint(opts.Limit))
	if cached, ok := s.movieLists.Get(key); ok {
		return cached
	}

	// One discover query per provider id, issued concurrently. A failed
	// sub-query contributes nothing rather than failing the union.
	results := make([][]models.Movie, len(ids))
	failed := make([]bool, len(ids))
	var wg conc.WaitGroup
	for i, id := range ids {
		i, id := i, id
		wg.Go(func() {
			raw, err := s.discover(ctx, discoverParams{
				genreID:   id,
				minYear:   opts.MinYear,
				maxYear:   opts.MaxYear,
				minRating: minRating,
				page:      opts.Page,
				sortBy:    sortBy,
			})
			if err != nil {
				log.Printf("[catalog] genre %q id %d query failed: %v", genre, id, err)
				failed[i] = true
				return
			}
			results[i] = applyStandardFilters(convertList(raw), genre)
		})
	}
	wg.Wait()

	merged := unionByID(results...)
	if len(merged) > opts.Limit {
		merged = merged[:opts.Limit]
	}
	// A fully failed fan-out is transient; caching it would pin the outage
	// for the whole TTL.
	if !allTrue(failed) {
		s.movieLists.Set(key, merged)
	}
	return merged
}

func allTrue(flags []bool) bool {
	for _, f := range flags {
		if !f {
			return false
		}
	}
	return true
}

// SearchByDirector returns filtered movies directed by the first person the
// catalog matches for name.
func (s *Service) SearchByDirector(ctx context.Context, name string) []models.Movie {
	return s.personMovies(ctx, name, "director")
}

// SearchByActor returns filtered movies featuring the first person the
// catalog matches for name.
func (s *Service) SearchByActor(ctx context.Context, name string) []models.Movie {
	return s.personMovies(ctx, name, "actor")
}

func (s *Service) personMovies(ctx context.Context, name, role string) []models.Movie {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	key := cacheKey("person", role, similarity.Normalize(name))
	if cached, ok := s.movieLists.Get(key); ok {
		return cached
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil
	}
	person, err := s.searchPerson(ctx, name)
	if err != nil {
		log.Printf("[catalog] person search %q failed: %v", name, err)
		return nil
	}
	if person == nil {
		return nil
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil
	}
	credits, err := s.client.personMovieCredits(ctx, person.ID)
	if err != nil {
		log.Printf("[catalog] credits for %q failed: %v", name, err)
		return nil
	}

	var raw []tmdbMovie
	if role == "director" {
		for _, c := range credits.Crew {
			if strings.EqualFold(strings.TrimSpace(c.Job), "director") {
				raw = append(raw, c.tmdbMovie)
			}
		}
	} else {
		raw = credits.Cast
	}
	if len(raw) > personCreditLimit {
		raw = raw[:personCreditLimit]
	}

	// Enrich the first few credits with full details (director, cast); the
	// remainder keep their list shape. A failed detail fetch falls back to
	// the list record.
	movies := make([]models.Movie, len(raw))
	var wg conc.WaitGroup
	for i, r := range raw {
		i, r := i, r
		if i >= personDetailLimit {
			movies[i] = movieFromList(r)
			continue
		}
		wg.Go(func() {
			if detail, err := s.fetchDetail(ctx, r.ID); err == nil {
				movies[i] = *detail
			} else {
				movies[i] = movieFromList(r)
			}
		})
	}
	wg.Wait()

	filtered := applyStandardFilters(movies, "")
	s.movieLists.Set(key, filtered)
	return filtered
}

// GetDetails fetches full detail and credits for a canonical movie id.
// Locally-added ids have no external detail endpoint and report not found.
func (s *Service) GetDetails(ctx context.Context, id string) (*models.Movie, error) {
	if models.IsLocalID(id) {
		return nil, ErrMovieNotFound
	}
	tmdbID, ok := models.ParseExternalID(id)
	if !ok {
		return nil, ErrMovieNotFound
	}

	key := cacheKey("details", fmt.Sprint(tmdbID))
	if cached, ok := s.details.Get(key); ok {
		return cached, nil
	}

	movie, err := s.fetchDetail(ctx, tmdbID)
	if err != nil {
		log.Printf("[catalog] details for %s failed: %v", id, err)
		return nil, ErrMovieNotFound
	}
	s.details.Set(key, movie)
	return movie, nil
}

func (s *Service) fetchDetail(ctx context.Context, tmdbID int64) (*models.Movie, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	detail, err := s.client.movieDetails(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	movie := movieFromDetail(detail)
	return &movie, nil
}

// SearchByTitle is free-text search. Results keep their list shape: detail
// enrichment waits until the user opens a specific movie.
func (s *Service) SearchByTitle(ctx context.Context, query string, page, limit int) []models.Movie {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	key := cacheKey("title", strings.ToLower(query), fmt.Sprint(page), fmt.Sprint(limit))
	if cached, ok := s.movieLists.Get(key); ok {
		return cached
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil
	}
	raw, err := s.client.searchMovies(ctx, query, page)
	if err != nil {
		log.Printf("[catalog] title search %q failed: %v", query, err)
		return nil
	}

	filtered := applyStandardFilters(convertList(raw), "")
	rankByTitleMatch(filtered, query)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	s.movieLists.Set(key, filtered)
	return filtered
}

// rankByTitleMatch orders search results by how closely each title matches
// the query, breaking ties by rating so remakes sort sensibly.
func rankByTitleMatch(movies []models.Movie, query string) {
	type scored struct {
		movie models.Movie
		score float64
	}
	ranked := make([]scored, len(movies))
	for i, m := range movies {
		ranked[i] = scored{movie: m, score: similarity.Similarity(query, m.Title)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].movie.Rating > ranked[j].movie.Rating
	})
	for i, r := range ranked {
		movies[i] = r.movie
	}
}

// GetWatchProviders reports where a movie streams in the operator's region,
// falling back to the first region with data. Only the provider allow-lists
// surface; ErrNoProviders means no allowed provider in any bucket.
func (s *Service) GetWatchProviders(ctx context.Context, id string) (*models.WatchProviderOffers, error) {
	tmdbID, ok := models.ParseExternalID(id)
	if !ok {
		return nil, ErrMovieNotFound
	}

	key := cacheKey("providers", fmt.Sprint(tmdbID))
	if cached, ok := s.providers.Get(key); ok {
		if cached == nil {
			return nil, ErrNoProviders
		}
		return cached, nil
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, ErrNoProviders
	}
	regions, err := s.client.watchProviders(ctx, tmdbID)
	if err != nil {
		log.Printf("[catalog] providers for %s failed: %v", id, err)
		return nil, ErrNoProviders
	}

	region, data, ok := pickRegion(regions, s.region)
	if !ok {
		s.providers.Set(key, nil)
		return nil, ErrNoProviders
	}

	offers := &models.WatchProviderOffers{
		Region:       region,
		Subscription: allowedProviders(data.Flatrate, subscriptionProviders, excludedSubscription),
		Rent:         allowedProviders(data.Rent, purchaseProviders, ""),
		Buy:          allowedProviders(data.Buy, purchaseProviders, ""),
	}
	if !offers.Available() {
		s.providers.Set(key, nil)
		return nil, ErrNoProviders
	}
	s.providers.Set(key, offers)
	return offers, nil
}

// GetCuratedSeedSet assembles an onboarding sample for first-time users:
// top-rated pages bucketed by primary genre, a few picks per bucket,
// backfilled by rating and shuffled.
func (s *Service) GetCuratedSeedSet(ctx context.Context) []models.Movie {
	if cached, ok := s.movieLists.Get(cacheKey("seed")); ok {
		return cached
	}
	return s.buildCuratedSeedSet(ctx)
}

// RefreshCuratedSeedSet rebuilds the curated shelf regardless of cache
// state, re-filling the cache with the fresh result.
func (s *Service) RefreshCuratedSeedSet(ctx context.Context) []models.Movie {
	return s.buildCuratedSeedSet(ctx)
}

func (s *Service) buildCuratedSeedSet(ctx context.Context) []models.Movie {
	pages := make([][]models.Movie, seedPages)
	var wg conc.WaitGroup
	for i := 0; i < seedPages; i++ {
		i := i
		wg.Go(func() {
			if err := s.limiter.Acquire(ctx); err != nil {
				return
			}
			raw, err := s.client.topRated(ctx, i+1)
			if err != nil {
				log.Printf("[catalog] top rated page %d failed: %v", i+1, err)
				return
			}
			pages[i] = applyStandardFilters(convertList(raw), "")
		})
	}
	wg.Wait()

	pool := unionByID(pages...)
	if len(pool) == 0 {
		return nil
	}

	buckets := make(map[string][]models.Movie)
	for _, m := range pool {
		buckets[m.Genre] = append(buckets[m.Genre], m)
	}

	picked := make([]models.Movie, 0, seedSetSize)
	selected := make(map[string]bool)
	genres := make([]string, 0, len(buckets))
	for g := range buckets {
		genres = append(genres, g)
	}
	sort.Strings(genres)
	for _, g := range genres {
		bucket := buckets[g]
		s.shuffle(bucket)
		for i := 0; i < len(bucket) && i < seedPerGenre; i++ {
			picked = append(picked, bucket[i])
			selected[bucket[i].ID] = true
		}
	}

	// Backfill from the whole pool, best rated first, when the buckets
	// under-supply.
	if len(picked) < seedSetSize {
		rest := make([]models.Movie, 0, len(pool))
		for _, m := range pool {
			if !selected[m.ID] {
				rest = append(rest, m)
			}
		}
		sort.SliceStable(rest, func(i, j int) bool { return rest[i].Rating > rest[j].Rating })
		for _, m := range rest {
			if len(picked) >= seedSetSize {
				break
			}
			picked = append(picked, m)
		}
	}

	s.shuffle(picked)
	if len(picked) > seedSetSize {
		picked = picked[:seedSetSize]
	}
	s.movieLists.Set(cacheKey("seed"), picked)
	return picked
}

func (s *Service) discover(ctx context.Context, p discoverParams) ([]tmdbMovie, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	return s.client.discoverMovies(ctx, p)
}

func (s *Service) shuffle(movies []models.Movie) {
	s.rngMu.Lock()
	s.rng.Shuffle(len(movies), func(i, j int) {
		movies[i], movies[j] = movies[j], movies[i]
	})
	s.rngMu.Unlock()
}

func resolveSort(sortBy string, minRating float64) (string, float64) {
	if minRating <= 0 {
		minRating = defaultMinRating
	}
	switch sortBy {
	case SortMostLiked:
		return "popularity.desc", minRating
	case SortMostRated:
		return "vote_average.desc", minRating
	default: // new_most_rated and unset
		return "vote_average.desc", newSortMinRating
	}
}

func convertList(raw []tmdbMovie) []models.Movie {
	movies := make([]models.Movie, len(raw))
	for i, r := range raw {
		movies[i] = movieFromList(r)
	}
	return movies
}

// unionByID merges result sets in order with duplicate-id removal: a movie
// appearing under two provider genre ids is kept once.
func unionByID(sets ...[]models.Movie) []models.Movie {
	seen := make(map[string]bool)
	var merged []models.Movie
	for _, set := range sets {
		for _, m := range set {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			merged = append(merged, m)
		}
	}
	return merged
}

func pickRegion(regions map[string]tmdbProviderRegion, preferred string) (string, tmdbProviderRegion, bool) {
	if len(regions) == 0 {
		return "", tmdbProviderRegion{}, false
	}
	if preferred != "" {
		if data, ok := regions[preferred]; ok {
			return preferred, data, true
		}
	}
	codes := make([]string, 0, len(regions))
	for code := range regions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes[0], regions[codes[0]], true
}

func allowedProviders(entries []tmdbProviderEntry, allow []string, exclude string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, e := range entries {
		name := strings.TrimSpace(e.ProviderName)
		if name == "" || name == exclude || seen[name] {
			continue
		}
		for _, a := range allow {
			if name == a || strings.HasPrefix(name, a+" ") {
				names = append(names, name)
				seen[name] = true
				break
			}
		}
	}
	return names
}
