package recommend

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"reelpick/config"
	"reelpick/models"
	"reelpick/services/catalog"
)

type fakeSearcher struct {
	mu            sync.Mutex
	genreQueries  []string
	genreOpts     []catalog.GenreSearchOptions
	personQueries []string

	genreResults  map[string][]models.Movie
	personResults map[string][]models.Movie
	panicOn       string
}

func (f *fakeSearcher) SearchByGenre(ctx context.Context, genre string, opts catalog.GenreSearchOptions) []models.Movie {
	f.mu.Lock()
	f.genreQueries = append(f.genreQueries, genre)
	f.genreOpts = append(f.genreOpts, opts)
	f.mu.Unlock()
	if f.panicOn == genre {
		panic("searcher exploded")
	}
	return f.genreResults[genre]
}

func (f *fakeSearcher) SearchByDirector(ctx context.Context, name string) []models.Movie {
	f.mu.Lock()
	f.personQueries = append(f.personQueries, "director:"+name)
	f.mu.Unlock()
	return f.personResults["director:"+name]
}

func (f *fakeSearcher) SearchByActor(ctx context.Context, name string) []models.Movie {
	f.mu.Lock()
	f.personQueries = append(f.personQueries, "actor:"+name)
	f.mu.Unlock()
	return f.personResults["actor:"+name]
}

func newTestService(searcher CatalogSearcher) *Service {
	return NewService(searcher, config.RecommendSettings{DefaultLimit: 20, MaxLimit: 50, BatchSize: 50})
}

func dramaFavorite() models.Movie {
	return models.Movie{
		ID: "local_fav", Title: "The Anchor", Genres: []string{"Drama"},
		Director: "Jane Doe", Cast: []string{"Sam Lead"}, Rating: 8.5,
	}
}

func TestRecommendNoSignalReturnsEmpty(t *testing.T) {
	svc := newTestService(&fakeSearcher{})

	got := svc.Recommend(context.Background(), Request{
		Inventory: []models.Movie{{ID: "local_1", Title: "X", Genres: []string{"Drama"}}},
	})
	if len(got) != 0 {
		t.Errorf("expected empty result without favorites or history, got %v", got)
	}
}

func TestRecommendLocalOnlyScenario(t *testing.T) {
	inventory := make([]models.Movie, 5000)
	for i := range inventory {
		inventory[i] = models.Movie{
			ID:     fmt.Sprintf("local_%d", i),
			Title:  fmt.Sprintf("Drama Piece %d", i),
			Genres: []string{"Drama"},
			Rating: 8.0,
		}
	}

	svc := newTestService(&fakeSearcher{})
	start := time.Now()
	got := svc.Recommend(context.Background(), Request{
		Inventory: inventory,
		Favorites: []models.Movie{dramaFavorite()},
		Limit:     20,
	})
	elapsed := time.Since(start)

	if len(got) != 20 {
		t.Fatalf("expected exactly 20 recommendations, got %d", len(got))
	}
	if elapsed > time.Second {
		t.Errorf("expected early termination to keep this fast, took %v", elapsed)
	}
}

func TestRecommendExternalFanOut(t *testing.T) {
	favorites := []models.Movie{
		{ID: "local_1", Title: "One", Genres: []string{"Drama"}, Director: "Jane Doe", Cast: []string{"Sam Lead"}, Rating: 8.0},
		{ID: "local_2", Title: "Two", Genres: []string{"Drama", "Crime"}, Director: "Jane Doe", Cast: []string{"Ana Third"}, Rating: 8.0},
		{ID: "local_3", Title: "Three", Genres: []string{"Thriller"}, Director: "Pat Reel", Cast: []string{"Sam Lead"}, Rating: 8.0},
		{ID: "local_4", Title: "Four", Genres: []string{"Romance"}, Director: "New Name", Cast: []string{"Extra Face"}, Rating: 8.0},
	}

	searcher := &fakeSearcher{
		genreResults: map[string][]models.Movie{
			"Drama": {
				{ID: "tmdb_10", Title: "Fresh Drama", Genres: []string{"Drama"}, Rating: 8.2},
				{ID: "tmdb_11", Title: "Shadow Copy", Genres: []string{"Drama"}, Rating: 8.9},
			},
		},
		personResults: map[string][]models.Movie{
			"director:Jane Doe": {
				{ID: "tmdb_12", Title: "Doe Cut", Genres: []string{"Drama"}, Director: "Jane Doe", Rating: 7.7},
			},
		},
	}
	svc := newTestService(searcher)

	// Shadow Copy duplicates a local inventory title: local wins.
	inventory := []models.Movie{
		{ID: "local_9", Title: "Shadow Copy", Genres: []string{"Drama"}, Rating: 7.0},
	}

	got := svc.Recommend(context.Background(), Request{
		Inventory:   inventory,
		Favorites:   favorites,
		UseExternal: true,
		Limit:       10,
	})

	if len(searcher.genreQueries) != 3 {
		t.Errorf("expected 3 genre queries, got %v", searcher.genreQueries)
	}
	if len(searcher.personQueries) != 4 {
		t.Errorf("expected 2 director + 2 actor queries, got %v", searcher.personQueries)
	}
	// All favorites rate 8.0, so the profile floor is max(7.5, 8.0-0.5) and
	// every genre query must carry it.
	for _, opts := range searcher.genreOpts {
		if opts.MinRating != 7.5 {
			t.Errorf("expected genre query rating floor 7.5, got %+v", opts)
		}
		if opts.SortBy != catalog.SortMostRated {
			t.Errorf("expected most_rated sort for genre queries, got %+v", opts)
		}
	}

	byID := make(map[string]models.Movie)
	for _, m := range got {
		byID[m.ID] = m
	}
	if _, ok := byID["tmdb_10"]; !ok {
		t.Errorf("expected external candidate recommended, got %v", got)
	}
	if _, ok := byID["tmdb_11"]; ok {
		t.Errorf("expected duplicate-title external candidate dropped, got %v", got)
	}
	if _, ok := byID["local_9"]; !ok {
		t.Errorf("expected local duplicate to win, got %v", got)
	}
}

func TestRecommendFanOutPanicFallsBackToLocal(t *testing.T) {
	searcher := &fakeSearcher{panicOn: "Drama"}
	svc := newTestService(searcher)

	inventory := []models.Movie{
		{ID: "local_1", Title: "Backup Plan", Genres: []string{"Drama"}, Rating: 7.5},
	}

	got := svc.Recommend(context.Background(), Request{
		Inventory:   inventory,
		Favorites:   []models.Movie{dramaFavorite()},
		UseExternal: true,
		Limit:       10,
	})
	if len(got) != 1 || got[0].ID != "local_1" {
		t.Fatalf("expected local-only fallback, got %v", got)
	}
}

func TestRecommendExclusionInvariant(t *testing.T) {
	favorite := dramaFavorite()
	watchedMovie := models.Movie{ID: "tmdb_50", Title: "Seen It", Genres: []string{"Drama"}, Rating: 8.0}

	inventory := []models.Movie{
		// Same title as the favorite under a different origin id.
		{ID: "tmdb_99", Title: "The Anchor", Genres: []string{"Drama"}, Rating: 9.0},
		// Watched by id.
		watchedMovie,
		// Watched title under another id.
		{ID: "local_77", Title: "Seen It", Genres: []string{"Drama"}, Rating: 8.8},
		{ID: "local_88", Title: "Still New", Genres: []string{"Drama"}, Rating: 8.1},
	}

	svc := newTestService(&fakeSearcher{})
	got := svc.Recommend(context.Background(), Request{
		Inventory: inventory,
		Favorites: []models.Movie{favorite},
		Watched:   []models.WatchedRef{{ID: "tmdb_50"}},
		Lookup:    []models.Movie{watchedMovie},
		Limit:     10,
	})

	if len(got) != 1 || got[0].ID != "local_88" {
		t.Fatalf("expected only the unseen movie, got %v", got)
	}
}

func TestRecommendRankingAndDiversity(t *testing.T) {
	inventory := []models.Movie{}
	// Six movies by the same director: only three may surface.
	for i := 0; i < 6; i++ {
		inventory = append(inventory, models.Movie{
			ID: fmt.Sprintf("local_d%d", i), Title: fmt.Sprintf("Doe Film %d", i),
			Genres: []string{"Drama"}, Director: "Jane Doe",
			Rating: 8.0 + float64(i)*0.1,
		})
	}
	// Four movies sharing a cast member: only two may surface.
	for i := 0; i < 4; i++ {
		inventory = append(inventory, models.Movie{
			ID: fmt.Sprintf("local_a%d", i), Title: fmt.Sprintf("Lead Film %d", i),
			Genres: []string{"Drama"}, Cast: []string{"Sam Lead"},
			Rating: 7.0 + float64(i)*0.1,
		})
	}

	svc := newTestService(&fakeSearcher{})
	got := svc.Recommend(context.Background(), Request{
		Inventory: inventory,
		Favorites: []models.Movie{dramaFavorite()},
		Limit:     20,
	})

	directorCounts := make(map[string]int)
	actorCounts := make(map[string]int)
	for _, m := range got {
		if m.Director != "" {
			directorCounts[m.Director]++
		}
		for _, a := range m.Cast {
			actorCounts[a]++
		}
	}
	if directorCounts["Jane Doe"] > 3 {
		t.Errorf("director cap violated: %v", directorCounts)
	}
	if actorCounts["Sam Lead"] > 2 {
		t.Errorf("actor cap violated: %v", actorCounts)
	}

	// Ranking is score-descending: the director matches outrank the
	// actor-only matches, and within them higher ratings come first.
	if len(got) < 2 {
		t.Fatalf("expected multiple results, got %v", got)
	}
	if got[0].Director != "Jane Doe" {
		t.Errorf("expected top result from matched director, got %+v", got[0])
	}
}
