package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"reelgrab/models"
	"reelgrab/services/watchlist"
)

type watchlistService interface {
	ListNames() ([]string, error)
	Load(name string) ([]models.WatchlistEntry, error)
	Save(name string, entries []models.WatchlistEntry) error
}

var _ watchlistService = (*watchlist.Service)(nil)

type WatchlistHandler struct {
	Service watchlistService
}

func NewWatchlistHandler(service watchlistService) *WatchlistHandler {
	return &WatchlistHandler{Service: service}
}

func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.Service.ListNames()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(names)
}

func (h *WatchlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	name, ok := requireName(w, r)
	if !ok {
		return
	}

	entries, err := h.Service.Load(name)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, watchlist.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	if entries == nil {
		entries = []models.WatchlistEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (h *WatchlistHandler) Put(w http.ResponseWriter, r *http.Request) {
	name, ok := requireName(w, r)
	if !ok {
		return
	}

	var entries []models.WatchlistEntry
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.Save(name, entries); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WatchlistHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func requireName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := strings.TrimSpace(mux.Vars(r)["name"])
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return "", false
	}
	return name, true
}
