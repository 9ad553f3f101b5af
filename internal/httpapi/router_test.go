package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nans28/eywa/internal/config"
	"github.com/nans28/eywa/pkg/eywa"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.NewConfig()
	cfg.ContentRoot = t.TempDir()
	require.NoError(t, cfg.EnsureLayout())

	e, err := eywa.OpenOffline(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	return NewServer(e)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHandleIngestThenSearch(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/ingest", ingestRequest{
		SourceID: "docs",
		Documents: []documentPayload{
			{Title: "Alpha", Content: "the quick brown fox jumps over the lazy dog"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/search", searchRequest{Query: "quick fox", Limit: 5})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["results"])
}

func TestHandleSearch_EmptyQueryReturnsInvalidInput(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/search", searchRequest{Query: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQueue_ReturnsJobIDThatCompletes(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/queue", ingestRequest{
		SourceID:  "docs",
		Documents: []documentPayload{{Title: "One", Content: "async body"}},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	jobID := resp["job_id"]
	require.NotEmpty(t, jobID)

	require.Eventually(t, func() bool {
		rec := doJSON(t, s, http.MethodGet, "/api/jobs/"+jobID, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		var job map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &job)
		return job["status"] == "done" || job["status"] == "failed" || job["Status"] == "done"
	}, 2*time.Second, time.Millisecond)
}

func TestHandleGetJob_UnknownReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSourcesAndDocsAndDelete(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/ingest", ingestRequest{
		SourceID:  "docs",
		Documents: []documentPayload{{Title: "Alpha", Content: "alpha body text"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/sources", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/sources/docs/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var docsResp map[string][]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docsResp))
	require.Len(t, docsResp["documents"], 1)
	docID, _ := docsResp["documents"][0]["DocID"].(string)
	require.NotEmpty(t, docID)

	rec = doJSON(t, s, http.MethodGet, "/api/docs/"+docID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/docs/"+docID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/sources/docs", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleReset(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodDelete, "/api/reset", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleInfo(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/info", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
