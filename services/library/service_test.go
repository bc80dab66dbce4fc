package library

import (
	"testing"

	"reelpick/models"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	svc, err := NewService(dir)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, dir
}

func TestAddToBucketAndList(t *testing.T) {
	svc, _ := newTestService(t)

	movie := models.Movie{ID: "tmdb_1", Title: "Heat", Genres: []string{"Crime"}}
	if _, err := svc.AddToBucket("u1", models.BucketFavorites, movie); err != nil {
		t.Fatalf("AddToBucket: %v", err)
	}

	entries, err := svc.ListBucket("u1", models.BucketFavorites)
	if err != nil {
		t.Fatalf("ListBucket: %v", err)
	}
	if len(entries) != 1 || entries[0].Movie.Title != "Heat" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	// Re-adding refreshes the snapshot without duplicating.
	movie.Rating = 8.3
	if _, err := svc.AddToBucket("u1", models.BucketFavorites, movie); err != nil {
		t.Fatalf("AddToBucket again: %v", err)
	}
	entries, _ = svc.ListBucket("u1", models.BucketFavorites)
	if len(entries) != 1 || entries[0].Movie.Rating != 8.3 {
		t.Fatalf("expected single refreshed entry, got %+v", entries)
	}
}

func TestBucketsAreIsolatedPerUser(t *testing.T) {
	svc, _ := newTestService(t)

	svc.AddToBucket("u1", models.BucketWatched, models.Movie{ID: "tmdb_1", Title: "A"})
	svc.AddToBucket("u2", models.BucketWatched, models.Movie{ID: "tmdb_2", Title: "B"})

	u1, _ := svc.ListBucket("u1", models.BucketWatched)
	u2, _ := svc.ListBucket("u2", models.BucketWatched)
	if len(u1) != 1 || len(u2) != 1 || u1[0].Movie.ID == u2[0].Movie.ID {
		t.Fatalf("expected isolated buckets, got %v / %v", u1, u2)
	}
}

func TestUnknownBucketRejected(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.AddToBucket("u1", "later", models.Movie{ID: "tmdb_1"}); err != ErrUnknownBucket {
		t.Errorf("expected ErrUnknownBucket, got %v", err)
	}
	if _, err := svc.ListBucket("u1", "later"); err != ErrUnknownBucket {
		t.Errorf("expected ErrUnknownBucket, got %v", err)
	}
}

func TestRemoveFromBucket(t *testing.T) {
	svc, _ := newTestService(t)
	svc.AddToBucket("u1", models.BucketWantToWatch, models.Movie{ID: "tmdb_1", Title: "A"})

	removed, err := svc.RemoveFromBucket("u1", models.BucketWantToWatch, "tmdb_1")
	if err != nil || !removed {
		t.Fatalf("expected removal, got removed=%v err=%v", removed, err)
	}
	removed, err = svc.RemoveFromBucket("u1", models.BucketWantToWatch, "tmdb_1")
	if err != nil || removed {
		t.Fatalf("expected no-op on second removal, got removed=%v err=%v", removed, err)
	}
}

func TestRatings(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.SetRating("u1", "tmdb_1", 4.5); err != nil {
		t.Fatalf("SetRating: %v", err)
	}
	for _, invalid := range []float64{0, 0.4, 5.5, 3.3} {
		if err := svc.SetRating("u1", "tmdb_1", invalid); err != ErrInvalidRating {
			t.Errorf("rating %v: expected ErrInvalidRating, got %v", invalid, err)
		}
	}

	lib, err := svc.Load("u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lib.Ratings["tmdb_1"] != 4.5 {
		t.Errorf("unexpected ratings: %v", lib.Ratings)
	}

	removed, err := svc.RemoveRating("u1", "tmdb_1")
	if err != nil || !removed {
		t.Fatalf("expected rating removed, got removed=%v err=%v", removed, err)
	}
}

func TestPersistenceAcrossReload(t *testing.T) {
	svc, dir := newTestService(t)
	svc.AddToBucket("u1", models.BucketFavorites, models.Movie{ID: "tmdb_1", Title: "Kept"})
	svc.SetRating("u1", "tmdb_1", 5)

	reloaded, err := NewService(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	lib, err := reloaded.Load("u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(lib.Favorites) != 1 || lib.Favorites[0].Movie.Title != "Kept" {
		t.Errorf("favorites lost across reload: %+v", lib)
	}
	if lib.Ratings["tmdb_1"] != 5 {
		t.Errorf("ratings lost across reload: %v", lib.Ratings)
	}
}

func TestWatchedRefs(t *testing.T) {
	svc, _ := newTestService(t)
	svc.AddToBucket("u1", models.BucketWatched, models.Movie{ID: "tmdb_1", Title: "Seen", Genres: []string{"Drama"}})

	refs, err := svc.WatchedRefs("u1")
	if err != nil {
		t.Fatalf("WatchedRefs: %v", err)
	}
	if len(refs) != 1 || refs[0].Ref() != "tmdb_1" || refs[0].Movie == nil {
		t.Fatalf("unexpected refs: %+v", refs)
	}
}
