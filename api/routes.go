package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"reelgrab/handlers"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	settingsHandler *handlers.SettingsHandler,
	watchlistHandler *handlers.WatchlistHandler,
	catalogHandler *handlers.CatalogHandler,
	metadataHandler *handlers.MetadataHandler,
	acquireHandler *handlers.AcquireHandler,
	torrentsHandler *handlers.TorrentsHandler,
	uploadHandler *handlers.UploadHandler,
) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	// Settings
	api.HandleFunc("/settings", settingsHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/settings", settingsHandler.Put).Methods(http.MethodPut)
	api.HandleFunc("/settings", settingsHandler.Options).Methods(http.MethodOptions)

	// Watch lists
	api.HandleFunc("/watchlists", watchlistHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/watchlists/{name}", watchlistHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/watchlists/{name}", watchlistHandler.Put).Methods(http.MethodPut)
	api.HandleFunc("/watchlists/{name}", watchlistHandler.Options).Methods(http.MethodOptions)

	// Catalog lists and search
	api.HandleFunc("/lists", catalogHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/lists/{name}", catalogHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/search", catalogHandler.Search).Methods(http.MethodGet)

	// Metadata scraping
	api.HandleFunc("/metadata/scrape/{year}", metadataHandler.ScrapeYear).Methods(http.MethodPost)
	api.HandleFunc("/metadata/scrape", metadataHandler.ScrapeRange).Methods(http.MethodPost)

	// Acquisition
	api.HandleFunc("/acquire", acquireHandler.AcquireOne).Methods(http.MethodPost)
	api.HandleFunc("/acquire", acquireHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/acquire/run/{name}", acquireHandler.Run).Methods(http.MethodPost)
	api.HandleFunc("/acquisitions", acquireHandler.ListHistory).Methods(http.MethodGet)

	// Torrent store
	api.HandleFunc("/torrents", torrentsHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/torrents/collect/{name}", torrentsHandler.Collect).Methods(http.MethodPost)
	api.HandleFunc("/torrents/collect/{name}", torrentsHandler.Options).Methods(http.MethodOptions)

	// Uploads
	api.HandleFunc("/uploads/run", uploadHandler.Run).Methods(http.MethodPost)
	api.HandleFunc("/uploads/run", uploadHandler.Options).Methods(http.MethodOptions)
}

// RegisterStatic mounts the bundled frontend as a catch-all fallback. It
// must be registered after the API routes so /api keeps precedence.
func RegisterStatic(r *mux.Router, dir string) {
	if dir == "" {
		return
	}
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(dir)))
}
