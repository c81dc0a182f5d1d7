package runlog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzcvm/nzcvm-webapp/internal/typeid"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func addRuns(t *testing.T, s Store, n int) []Run {
	t.Helper()
	var runs []Run
	for i := 0; i < n; i++ {
		run := Run{
			ID:          typeid.NewRunID(),
			Status:      StatusSucceeded,
			TotalPoints: int64(i),
			CreatedAt:   time.Date(2024, 5, 1, 12, 0, i, 0, time.UTC),
		}
		require.NoError(t, s.Add(context.Background(), run))
		runs = append(runs, run)
		// typeids generated in the same millisecond are not ordered
		time.Sleep(2 * time.Millisecond)
	}
	return runs
}

func TestBoltStoreAddGet(t *testing.T) {
	s := newTestStore(t)
	run := Run{
		ID:           typeid.NewRunID(),
		Fingerprint:  "abc",
		ModelVersion: "2.03",
		Status:       StatusFailed,
		Error:        "generator exited with status 1",
		CreatedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Add(context.Background(), run))

	got, err := s.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)

	_, err = s.Get(context.Background(), "run_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoltStoreListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	runs := addRuns(t, s, 4)

	got, err := s.List(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, runs[3].ID, got[0].ID)
	assert.Equal(t, runs[1].ID, got[2].ID)

	all, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestBoltStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := NewBoltStore(path)
	require.NoError(t, err)
	run := Run{ID: typeid.NewRunID(), Status: StatusRefused, CreatedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, s.Add(context.Background(), run))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRefused, got.Status)
}

func TestHandler(t *testing.T) {
	s := newTestStore(t)
	runs := addRuns(t, s, 2)
	r := mux.NewRouter()
	NewHandler(s).InitRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs?limit=1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Runs []Run `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Runs, 1)
	assert.Equal(t, runs[1].ID, body.Runs[0].ID)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/"+runs[0].ID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var run Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	assert.Equal(t, runs[0].ID, run.ID)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/run_nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
