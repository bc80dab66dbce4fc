package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"reelpick/models"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrUserIDRequired     = errors.New("user id is required")
	ErrMovieIDRequired    = errors.New("movie id is required")
	ErrUnknownBucket      = errors.New("unknown library bucket")
	ErrInvalidRating      = errors.New("rating must be between 0.5 and 5 in half-star steps")
)

// Service persists each user's library: favorites, watched history,
// want-to-watch list, and explicit ratings.
type Service struct {
	mu    sync.RWMutex
	path  string
	users map[string]*models.UserLibrary
}

// NewService creates a library service storing data inside the provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}

	svc := &Service{
		path:  filepath.Join(storageDir, "library.json"),
		users: make(map[string]*models.UserLibrary),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// Load returns a copy of everything stored for one user.
func (s *Service) Load(userID string) (models.UserLibrary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.UserLibrary{}, ErrUserIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	lib, ok := s.users[userID]
	if !ok {
		return models.UserLibrary{}, nil
	}
	return copyLibrary(lib), nil
}

// ListBucket returns one bucket sorted by most recent additions first.
func (s *Service) ListBucket(userID, bucket string) ([]models.LibraryEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	lib, ok := s.users[userID]
	if !ok {
		if _, err := bucketSlice(&models.UserLibrary{}, bucket); err != nil {
			return nil, err
		}
		return []models.LibraryEntry{}, nil
	}

	entries, err := bucketSlice(lib, bucket)
	if err != nil {
		return nil, err
	}

	out := append([]models.LibraryEntry(nil), *entries...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].Movie.ID < out[j].Movie.ID
		}
		return out[i].AddedAt.After(out[j].AddedAt)
	})
	return out, nil
}

// AddToBucket inserts a movie snapshot into a bucket. Re-adding an already
// present movie refreshes its snapshot without duplicating the entry.
func (s *Service) AddToBucket(userID, bucket string, movie models.Movie) (models.LibraryEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.LibraryEntry{}, ErrUserIDRequired
	}
	if strings.TrimSpace(movie.ID) == "" {
		return models.LibraryEntry{}, ErrMovieIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lib := s.ensureUserLocked(userID)
	entries, err := bucketSlice(lib, bucket)
	if err != nil {
		return models.LibraryEntry{}, err
	}

	entry := models.LibraryEntry{Movie: movie, AddedAt: time.Now().UTC()}
	replaced := false
	for i, existing := range *entries {
		if existing.Movie.ID == movie.ID {
			entry.AddedAt = existing.AddedAt
			(*entries)[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		*entries = append(*entries, entry)
	}

	if err := s.saveLocked(); err != nil {
		return models.LibraryEntry{}, err
	}
	return entry, nil
}

// RemoveFromBucket deletes a movie from a bucket, reporting whether it was present.
func (s *Service) RemoveFromBucket(userID, bucket, movieID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrUserIDRequired
	}
	if strings.TrimSpace(movieID) == "" {
		return false, ErrMovieIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lib := s.ensureUserLocked(userID)
	entries, err := bucketSlice(lib, bucket)
	if err != nil {
		return false, err
	}

	for i, existing := range *entries {
		if existing.Movie.ID == movieID {
			*entries = append((*entries)[:i], (*entries)[i+1:]...)
			if err := s.saveLocked(); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// SetRating stores an explicit half-star rating (0.5-5) for a movie.
func (s *Service) SetRating(userID, movieID string, rating float64) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}
	if strings.TrimSpace(movieID) == "" {
		return ErrMovieIDRequired
	}
	if rating < 0.5 || rating > 5 || math.Mod(rating*2, 1) != 0 {
		return ErrInvalidRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lib := s.ensureUserLocked(userID)
	if lib.Ratings == nil {
		lib.Ratings = make(map[string]float64)
	}
	lib.Ratings[movieID] = rating

	return s.saveLocked()
}

// RemoveRating clears a rating, reporting whether one existed.
func (s *Service) RemoveRating(userID, movieID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrUserIDRequired
	}
	if strings.TrimSpace(movieID) == "" {
		return false, ErrMovieIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lib := s.ensureUserLocked(userID)
	if _, ok := lib.Ratings[movieID]; !ok {
		return false, nil
	}
	delete(lib.Ratings, movieID)

	if err := s.saveLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteUser drops every trace of a user's library.
func (s *Service) DeleteUser(userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil
	}
	delete(s.users, userID)
	return s.saveLocked()
}

// WatchedRefs adapts the watched bucket into the reference shape the
// recommendation pipeline consumes.
func (s *Service) WatchedRefs(userID string) ([]models.WatchedRef, error) {
	entries, err := s.ListBucket(userID, models.BucketWatched)
	if err != nil {
		return nil, err
	}
	refs := make([]models.WatchedRef, len(entries))
	for i := range entries {
		movie := entries[i].Movie
		refs[i] = models.WatchedRef{ID: movie.ID, Movie: &movie}
	}
	return refs, nil
}

func (s *Service) ensureUserLocked(userID string) *models.UserLibrary {
	lib, ok := s.users[userID]
	if !ok {
		lib = &models.UserLibrary{}
		s.users[userID] = lib
	}
	return lib
}

func bucketSlice(lib *models.UserLibrary, bucket string) (*[]models.LibraryEntry, error) {
	switch bucket {
	case models.BucketFavorites:
		return &lib.Favorites, nil
	case models.BucketWatched:
		return &lib.Watched, nil
	case models.BucketWantToWatch:
		return &lib.WantToWatch, nil
	}
	return nil, ErrUnknownBucket
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.users = make(map[string]*models.UserLibrary)
		return nil
	}
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read library: %w", err)
	}
	if len(data) == 0 {
		s.users = make(map[string]*models.UserLibrary)
		return nil
	}

	var byUser map[string]*models.UserLibrary
	if err := json.Unmarshal(data, &byUser); err != nil {
		return fmt.Errorf("decode library: %w", err)
	}

	s.users = make(map[string]*models.UserLibrary, len(byUser))
	for userID, lib := range byUser {
		userID = strings.TrimSpace(userID)
		if userID == "" || lib == nil {
			continue
		}
		s.users[userID] = lib
	}
	return nil
}

func (s *Service) saveLocked() error {
	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create library temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.users); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode library: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync library: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close library temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace library file: %w", err)
	}

	return nil
}

func copyLibrary(lib *models.UserLibrary) models.UserLibrary {
	out := models.UserLibrary{
		Favorites:   append([]models.LibraryEntry(nil), lib.Favorites...),
		Watched:     append([]models.LibraryEntry(nil), lib.Watched...),
		WantToWatch: append([]models.LibraryEntry(nil), lib.WantToWatch...),
	}
	if len(lib.Ratings) > 0 {
		out.Ratings = make(map[string]float64, len(lib.Ratings))
		for id, r := range lib.Ratings {
			out.Ratings[id] = r
		}
	}
	return out
}
