package recommend

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/sourcegraph/conc"

	"reelpick/config"
	"reelpick/models"
	"reelpick/services/catalog"
	"reelpick/utils/similarity"
)

const (
	genreQueryLimit  = 3
	personQueryLimit = 2
	genreFetchCount  = 10
	personFetchCount = 5

	maxDirectorRepeats = 3
	maxActorRepeats    = 2
)

// CatalogSearcher is the slice of the catalog service the assembler drives.
type CatalogSearcher interface {
	SearchByGenre(ctx context.Context, genre string, opts catalog.GenreSearchOptions) []models.Movie
	SearchByDirector(ctx context.Context, name string) []models.Movie
	SearchByActor(ctx context.Context, name string) []models.Movie
}

// Service assembles ranked recommendations: profile-driven catalog fan-out,
// exclusion of seen movies, scoring, and a diversity pass over the ranking.
type Service struct {
	catalog   CatalogSearcher
	extractor *Extractor

	defaultLimit int
	maxLimit     int
	batchSize    int
}

func NewService(searcher CatalogSearcher, cfg config.RecommendSettings) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 50
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Service{
		catalog:      searcher,
		extractor:    NewExtractor(),
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
		batchSize:    cfg.BatchSize,
	}
}

// Request carries everything one recommendation pass needs. Inventory is
// the caller's local movie collection; Lookup is every movie currently
// known to the caller, used to resolve bare watched ids.
type Request struct {
	Inventory   []models.Movie
	Favorites   []models.Movie
	UseExternal bool
	Limit       int
	Watched     []models.WatchedRef
	Lookup      []models.Movie
	Ratings     map[string]float64
}

// Recommend returns up to Limit ranked movies. It never fails: any internal
// error degrades to fewer (or zero) results.
func (s *Service) Recommend(ctx context.Context, req Request) []models.Movie {
	if len(req.Favorites) == 0 && len(req.Watched) == 0 {
		return []models.Movie{}
	}

	profile := s.extractor.Extract(req.Favorites, req.Watched, req.Lookup, req.Ratings)
	if profile.IsEmpty() {
		return []models.Movie{}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	candidates := make([]models.Movie, 0, len(req.Inventory))
	for _, m := range req.Inventory {
		candidates = append(candidates, catalog.NormalizeLocal(m))
	}
	if req.UseExternal {
		candidates = s.mergeExternal(ctx, profile, candidates)
	}

	excludedIDs, excludedTitles := exclusionSets(req.Favorites, req.Watched, req.Lookup)

	scored := s.scoreCandidates(profile, candidates, excludedIDs, excludedTitles, limit)

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Movie.Rating > scored[j].Movie.Rating
	})

	diverse := diversityPass(scored)
	if len(diverse) > limit {
		diverse = diverse[:limit]
	}

	out := make([]models.Movie, len(diverse))
	for i, sm := range diverse {
		out[i] = sm.Movie
	}
	return out
}

// mergeExternal fans out catalog queries for the top preferred genres,
// directors, and actors, all concurrently, and merges the results into the
// local candidates with title-based deduplication; local entries win. A
// panic anywhere in the fan-out falls back to local-only candidates.
func (s *Service) mergeExternal(ctx context.Context, profile *models.PreferenceProfile, local []models.Movie) []models.Movie {
	genres := topLabels(profile.GenreFrequency, genreQueryLimit)
	directors := topLabels(profile.DirectorFrequency, personQueryLimit)
	actors := topLabels(profile.ActorFrequency, personQueryLimit)

	var (
		mu      sync.Mutex
		fetched []models.Movie
	)
	add := func(movies []models.Movie) {
		mu.Lock()
		fetched = append(fetched, movies...)
		mu.Unlock()
	}

	var wg conc.WaitGroup
	// Genre queries carry the profile's rating floor so the catalog only
	// returns candidates at the user's standard.
	genreOpts := catalog.GenreSearchOptions{
		Limit:     genreFetchCount,
		MinRating: profile.MinRating,
		SortBy:    catalog.SortMostRated,
	}
	for _, g := range genres {
		g := g
		wg.Go(func() {
			add(s.catalog.SearchByGenre(ctx, g, genreOpts))
		})
	}
	for _, d := range directors {
		d := d
		wg.Go(func() {
			add(truncate(s.catalog.SearchByDirector(ctx, d), personFetchCount))
		})
	}
	for _, a := range actors {
		a := a
		wg.Go(func() {
			add(truncate(s.catalog.SearchByActor(ctx, a), personFetchCount))
		})
	}
	if recovered := wg.WaitAndRecover(); recovered != nil {
		log.Printf("[recommend] catalog fan-out failed, using local candidates only: %v", recovered.Value)
		return local
	}

	seen := make(map[string]bool, len(local))
	for _, m := range local {
		seen[titleKey(m.Title)] = true
	}
	merged := local
	for _, m := range fetched {
		key := titleKey(m.Title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, m)
	}
	return merged
}

// scoreCandidates walks candidates in fixed-size batches, dropping excluded
// and zero-score entries, and stops early once twice the requested limit of
// positive candidates has accumulated. A later batch could hold a higher
// scorer than what was kept; that throughput tradeoff is intentional.
func (s *Service) scoreCandidates(profile *models.PreferenceProfile, candidates []models.Movie, excludedIDs, excludedTitles map[string]bool, limit int) []models.ScoredMovie {
	scorer := NewScorer(profile)
	target := 2 * limit

	scored := make([]models.ScoredMovie, 0, target)
	for start := 0; start < len(candidates); start += s.batchSize {
		end := start + s.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		for _, m := range candidates[start:end] {
			if excludedIDs[m.ID] || excludedTitles[titleKey(m.Title)] {
				continue
			}
			sm := scorer.Score(m)
			if sm.Score <= 0 {
				continue
			}
			scored = append(scored, sm)
		}
		if len(scored) >= target {
			break
		}
	}
	return scored
}

// exclusionSets collects the ids and normalized titles of everything the
// user has already favorited or watched, so the same film is excluded even
// when it reappears under a different origin's id.
func exclusionSets(favorites []models.Movie, watched []models.WatchedRef, lookup []models.Movie) (map[string]bool, map[string]bool) {
	ids := make(map[string]bool, len(favorites)+len(watched))
	titles := make(map[string]bool, len(favorites)+len(watched))

	for _, m := range favorites {
		if m.ID != "" {
			ids[m.ID] = true
		}
		if key := titleKey(m.Title); key != "" {
			titles[key] = true
		}
	}
	for _, ref := range watched {
		if id := ref.Ref(); id != "" {
			ids[id] = true
		}
		if m, ok := resolveWatched(ref, lookup); ok {
			if key := titleKey(m.Title); key != "" {
				titles[key] = true
			}
		}
	}
	return ids, titles
}

// diversityPass walks the ranking in order and drops candidates once their
// director has 3 accepted entries or any cast member has 2. Greedy and
// order-preserving: an earlier entry can use up a quota a later, lower-
// ranked entry then misses.
func diversityPass(scored []models.ScoredMovie) []models.ScoredMovie {
	directorCounts := make(map[string]int)
	actorCounts := make(map[string]int)

	kept := make([]models.ScoredMovie, 0, len(scored))
	for _, sm := range scored {
		director := similarity.Normalize(sm.Movie.Director)
		if director != "" && directorCounts[director] >= maxDirectorRepeats {
			continue
		}
		blocked := false
		for _, a := range sm.Movie.Cast {
			if actorCounts[similarity.Normalize(a)] >= maxActorRepeats {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}

		if director != "" {
			directorCounts[director]++
		}
		for _, a := range sm.Movie.Cast {
			if n := similarity.Normalize(a); n != "" {
				actorCounts[n]++
			}
		}
		kept = append(kept, sm)
	}
	return kept
}

// topLabels returns the n most frequent raw labels, ties alphabetical.
func topLabels(freq map[string]int, n int) []string {
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
	if len(labels) > n {
		labels = labels[:n]
	}
	return labels
}

func truncate(movies []models.Movie, n int) []models.Movie {
	if len(movies) > n {
		return movies[:n]
	}
	return movies
}

func titleKey(title string) string {
	return similarity.Normalize(title)
}
