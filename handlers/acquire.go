package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"reelgrab/models"
	"reelgrab/services/acquire"
	"reelgrab/services/history"
	"reelgrab/services/watchlist"
)

type acquireService interface {
	AcquireOne(ctx context.Context, entry models.WatchlistEntry) models.Acquisition
	Run(ctx context.Context, entries []models.WatchlistEntry) []models.Acquisition
}

var _ acquireService = (*acquire.Service)(nil)

type historyService interface {
	List(ctx context.Context, limit int) ([]models.Acquisition, error)
}

var _ historyService = (*history.Service)(nil)

type AcquireHandler struct {
	Service    acquireService
	History    historyService
	Watchlists watchlistService
}

func NewAcquireHandler(service acquireService, hist historyService, watchlists watchlistService) *AcquireHandler {
	return &AcquireHandler{Service: service, History: hist, Watchlists: watchlists}
}

// AcquireOne handles a single-movie acquisition request.
func (h *AcquireHandler) AcquireOne(w http.ResponseWriter, r *http.Request) {
	var entry models.WatchlistEntry
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entry); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if entry.Title == "" || entry.Year == 0 {
		http.Error(w, "title and year are required", http.StatusBadRequest)
		return
	}

	result := h.Service.AcquireOne(r.Context(), entry)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// Run acquires an entire named watch list.
func (h *AcquireHandler) Run(w http.ResponseWriter, r *http.Request) {
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

	results := h.Service.Run(r.Context(), entries)
	if results == nil {
		results = []models.Acquisition{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// ListHistory returns recent acquisition records.
func (h *AcquireHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := h.History.List(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.Acquisition{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (h *AcquireHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
