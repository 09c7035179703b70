package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"reelgrab/models"
	"reelgrab/services/torrents"
	"reelgrab/services/watchlist"
)

type torrentService interface {
	ListSizes() ([]torrents.TorrentInfo, error)
	CopyMatching(entries []models.WatchlistEntry, subdir string) (torrents.CopyReport, error)
}

var _ torrentService = (*torrents.Store)(nil)

type TorrentsHandler struct {
	Service    torrentService
	Watchlists watchlistService
}

func NewTorrentsHandler(service torrentService, watchlists watchlistService) *TorrentsHandler {
	return &TorrentsHandler{Service: service, Watchlists: watchlists}
}

// List reports every stored torrent with the payload size its metadata
// describes, largest first.
func (h *TorrentsHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.Service.ListSizes()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if infos == nil {
		infos = []torrents.TorrentInfo{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(infos)
}

// Collect copies the stored torrents matching a watch list into a
// subdirectory named after the list and reports what matched.
func (h *TorrentsHandler) Collect(w http.ResponseWriter, r *http.Request) {
	name, ok := requireName(w, r)
	if !ok {
		return
	}

	entries, err := h.Watchlists.Load(name)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, watchlist.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	report, err := h.Service.CopyMatching(entries, name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (h *TorrentsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
