package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"reelpick/api"
	"reelpick/config"
	"reelpick/handlers"
	"reelpick/services/catalog"
	"reelpick/services/library"
	"reelpick/services/recommend"
	"reelpick/services/refresh"
	"reelpick/services/users"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("reelpick backend starting...")

	// Determine config path (env or default)
	configPath := os.Getenv("REELPICK_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			// Redirect standard log to both console and file
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	if settings.Catalog.TMDBAPIKey == "" {
		settings.Catalog.TMDBAPIKey = os.Getenv("TMDB_API_KEY")
	}
	if settings.Catalog.TMDBAPIKey == "" {
		log.Printf("Warning: no TMDB API key configured, catalog queries will fail")
	}

	storageDir := settings.Cache.Directory
	if err := os.MkdirAll(storageDir, 0755); err != nil {
		log.Fatalf("failed to create storage directory %s: %v", storageDir, err)
	}

	usersSvc, err := users.NewService(storageDir)
	if err != nil {
		log.Fatalf("failed to init users service: %v", err)
	}
	librarySvc, err := library.NewService(storageDir)
	if err != nil {
		log.Fatalf("failed to init library service: %v", err)
	}

	limiter := catalog.NewRateLimiter(settings.RateLimit.Requests,
		time.Duration(settings.RateLimit.WindowMS)*time.Millisecond)
	cacheTTL := time.Duration(settings.Cache.ResponseTTLMinutes) * time.Minute
	catalogSvc := catalog.NewService(settings.Catalog, cacheTTL, limiter, nil)
	recommendSvc := recommend.NewService(catalogSvc, settings.Recommend)

	// Re-warm the curated shelf a little faster than the cache expires.
	refreshSvc := refresh.NewService(catalogSvc, cacheTTL*4/5)
	if settings.Catalog.TMDBAPIKey != "" {
		refreshSvc.Start(context.Background())
	}

	r := mux.NewRouter()
	api.Register(r,
		handlers.NewRecommendationsHandler(recommendSvc, librarySvc, usersSvc),
		handlers.NewCatalogHandler(catalogSvc),
		handlers.NewUsersHandler(usersSvc, librarySvc),
		handlers.NewLibraryHandler(librarySvc, usersSvc),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	refreshSvc.Stop(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
}
