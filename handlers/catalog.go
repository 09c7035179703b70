package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"reelgrab/models"
	"reelgrab/services/catalog"
)

type catalogService interface {
	ListNames() ([]string, error)
	Load(name string) (models.MovieList, error)
	Search(query string) ([]models.Movie, error)
}

var _ catalogService = (*catalog.Service)(nil)

type CatalogHandler struct {
	Service catalogService
}

func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{Service: service}
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
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

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	name, ok := requireName(w, r)
	if !ok {
		return
	}

	list, err := h.Service.Load(name)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, catalog.ErrListNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "query parameter q is required", http.StatusBadRequest)
		return
	}

	movies, err := h.Service.Search(query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(movies)
}

func (h *CatalogHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
