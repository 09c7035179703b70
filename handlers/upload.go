package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"reelgrab/services/uploader"
)

type uploadService interface {
	UploadPending(ctx context.Context) ([]uploader.Outcome, error)
}

var _ uploadService = (*uploader.Service)(nil)

type UploadHandler struct {
	Service uploadService
}

func NewUploadHandler(service uploadService) *UploadHandler {
	return &UploadHandler{Service: service}
}

// Run pushes all pending torrents to ruTorrent.
func (h *UploadHandler) Run(w http.ResponseWriter, r *http.Request) {
	outcomes, err := h.Service.UploadPending(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, uploader.ErrNotConfigured) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}
	if outcomes == nil {
		outcomes = []uploader.Outcome{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcomes)
}

func (h *UploadHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
