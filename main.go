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

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"reelgrab/api"
	"reelgrab/config"
	"reelgrab/handlers"
	"reelgrab/internal/database"
	"reelgrab/services/acquire"
	"reelgrab/services/catalog"
	"reelgrab/services/history"
	"reelgrab/services/metadata"
	"reelgrab/services/search"
	"reelgrab/services/torrents"
	"reelgrab/services/uploader"
	"reelgrab/services/watchlist"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("reelgrab backend starting...")

	// Credentials live in .env during development; missing file is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env: %v", err)
	}

	configPath := os.Getenv("REELGRAB_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	db, err := database.Open(settings.Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	catalogService, err := catalog.NewService(settings.Library.DataDir)
	if err != nil {
		log.Fatalf("failed to initialise catalog: %v", err)
	}
	watchlistService, err := watchlist.NewService(settings.Library.ListsDir)
	if err != nil {
		log.Fatalf("failed to initialise watch lists: %v", err)
	}

	osFs := afero.NewOsFs()
	torrentStore, err := torrents.NewStore(osFs, settings.Library.TorrentsDir)
	if err != nil {
		log.Fatalf("failed to initialise torrent store: %v", err)
	}

	requestTimeout := time.Duration(settings.Acquire.RequestTimeout) * time.Second
	metadataService := metadata.NewService(catalogService, requestTimeout)
	historyService := history.NewService(db)

	scrapers := search.BuildScrapers(settings.Indexers, requestTimeout)
	if len(scrapers) == 0 {
		log.Printf("warning: no indexers enabled; acquisition will find nothing")
	}
	acquireService := acquire.NewService(
		scrapers,
		torrentStore,
		historyService,
		settings.Acquire.MaxResults,
		settings.Acquire.Workers,
		time.Duration(settings.Acquire.DelayMs)*time.Millisecond,
	)
	uploadService := uploader.NewService(settings.RuTorrent, torrentStore, catalogService, osFs, settings.Library.TorrentsDir)

	r := mux.NewRouter()
	api.Register(
		r,
		handlers.NewSettingsHandler(cfgManager),
		handlers.NewWatchlistHandler(watchlistService),
		handlers.NewCatalogHandler(catalogService),
		handlers.NewMetadataHandler(metadataService),
		handlers.NewAcquireHandler(acquireService, historyService, watchlistService),
		handlers.NewTorrentsHandler(torrentStore, watchlistService),
		handlers.NewUploadHandler(uploadService),
	)
	api.RegisterStatic(r, settings.Server.StaticDir)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // acquisition runs are slow
		IdleTimeout:  120 * time.Second,
	}

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

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
}
