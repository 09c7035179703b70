package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgrab/models"
	"reelgrab/services/acquire"
)

type fakeAcquire struct {
	calls []models.WatchlistEntry
}

func (f *fakeAcquire) AcquireOne(ctx context.Context, entry models.WatchlistEntry) models.Acquisition {
	f.calls = append(f.calls, entry)
	return models.Acquisition{Title: entry.Title, Year: entry.Year, Status: acquire.StatusDownloaded}
}

func (f *fakeAcquire) Run(ctx context.Context, entries []models.WatchlistEntry) []models.Acquisition {
	var out []models.Acquisition
	for _, e := range entries {
		out = append(out, f.AcquireOne(ctx, e))
	}
	return out
}

type fakeHistoryLister struct {
	records []models.Acquisition
}

func (f *fakeHistoryLister) List(ctx context.Context, limit int) ([]models.Acquisition, error) {
	return f.records, nil
}

func newAcquireRouter(svc acquireService, hist historyService, wl watchlistService) *mux.Router {
	h := NewAcquireHandler(svc, hist, wl)
	r := mux.NewRouter()
	r.HandleFunc("/api/acquire", h.AcquireOne).Methods(http.MethodPost)
	r.HandleFunc("/api/acquire/run/{name}", h.Run).Methods(http.MethodPost)
	r.HandleFunc("/api/acquisitions", h.ListHistory).Methods(http.MethodGet)
	return r
}

func TestAcquireOneEndpoint(t *testing.T) {
	svc := &fakeAcquire{}
	router := newAcquireRouter(svc, &fakeHistoryLister{}, &fakeWatchlists{})

	body := `{"title":"Heat","year":1995}`
	req := httptest.NewRequest(http.MethodPost, "/api/acquire", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result models.Acquisition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, acquire.StatusDownloaded, result.Status)
	require.Len(t, svc.calls, 1)
}

func TestAcquireOneRequiresTitleAndYear(t *testing.T) {
	router := newAcquireRouter(&fakeAcquire{}, &fakeHistoryLister{}, &fakeWatchlists{})

	req := httptest.NewRequest(http.MethodPost, "/api/acquire", strings.NewReader(`{"title":"Heat"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAcquireRunEndpoint(t *testing.T) {
	svc := &fakeAcquire{}
	wl := &fakeWatchlists{lists: map[string][]models.WatchlistEntry{
		"movies": {{Title: "Heat", Year: 1995}, {Title: "The Matrix", Year: 1999}},
	}}
	router := newAcquireRouter(svc, &fakeHistoryLister{}, wl)

	req := httptest.NewRequest(http.MethodPost, "/api/acquire/run/movies", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var results []models.Acquisition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Len(t, results, 2)
}

func TestAcquireRunUnknownList(t *testing.T) {
	router := newAcquireRouter(&fakeAcquire{}, &fakeHistoryLister{}, &fakeWatchlists{})

	req := httptest.NewRequest(http.MethodPost, "/api/acquire/run/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListHistoryEndpoint(t *testing.T) {
	hist := &fakeHistoryLister{records: []models.Acquisition{
		{Title: "Heat", Year: 1995, Status: acquire.StatusDownloaded},
	}}
	router := newAcquireRouter(&fakeAcquire{}, hist, &fakeWatchlists{})

	req := httptest.NewRequest(http.MethodGet, "/api/acquisitions?limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var records []models.Acquisition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 1)

	req = httptest.NewRequest(http.MethodGet, "/api/acquisitions?limit=bogus", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
