package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"reelgrab/models"
	"reelgrab/services/metadata"
)

type metadataService interface {
	SaveYear(ctx context.Context, year int) (models.MovieList, error)
	ScrapeRange(ctx context.Context, start, end int, delay time.Duration) error
}

var _ metadataService = (*metadata.Service)(nil)

type MetadataHandler struct {
	Service metadataService
}

func NewMetadataHandler(service metadataService) *MetadataHandler {
	return &MetadataHandler{Service: service}
}

// ScrapeYear fetches and stores the top movies for one year.
func (h *MetadataHandler) ScrapeYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(strings.TrimSpace(mux.Vars(r)["year"]))
	if err != nil || year < 1880 || year > 2200 {
		http.Error(w, "year must be a valid 4-digit year", http.StatusBadRequest)
		return
	}

	list, err := h.Service.SaveYear(r.Context(), year)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// ScrapeRange fetches every missing year in the requested span.
func (h *MetadataHandler) ScrapeRange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Start int `json:"start"`
		End   int `json:"end"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Start == 0 || req.End == 0 || req.End < req.Start {
		http.Error(w, "start and end years are required", http.StatusBadRequest)
		return
	}

	if err := h.Service.ScrapeRange(r.Context(), req.Start, req.End, time.Second); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MetadataHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
