package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	engineerrors "github.com/nans28/eywa/internal/errors"
	"github.com/nans28/eywa/internal/ingest"
)

type searchRequest struct {
	Query   string   `json:"query"`
	Limit   int      `json:"limit"`
	Sources []string `json:"sources"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, engineerrors.InvalidInput("decode request body", err))
		return
	}
	if req.Query == "" {
		writeError(w, engineerrors.InvalidInput("query must not be empty", nil))
		return
	}

	hits, err := s.engine.Query(r.Context(), req.Query, req.Limit, req.Sources)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": hits})
}

type documentPayload struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	MimeHint string `json:"mime_hint"`
	Language string `json:"language"`
}

type ingestRequest struct {
	SourceID  string            `json:"source_id"`
	Documents []documentPayload `json:"documents"`
}

func toDocInputs(payloads []documentPayload) []*ingest.DocInput {
	docs := make([]*ingest.DocInput, len(payloads))
	for i, p := range payloads {
		docs[i] = &ingest.DocInput{Title: p.Title, Content: p.Content, MimeHint: p.MimeHint, Language: p.Language}
	}
	return docs
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, engineerrors.InvalidInput("decode request body", err))
		return
	}
	if req.SourceID == "" {
		writeError(w, engineerrors.InvalidInput("source_id must not be empty", nil))
		return
	}

	report, err := s.engine.IngestSync(r.Context(), req.SourceID, toDocInputs(req.Documents))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleQueue implements POST /api/queue: the async counterpart of
// /api/ingest, returning {job_id} immediately (spec.md §6).
func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, engineerrors.InvalidInput("decode request body", err))
		return
	}
	if req.SourceID == "" {
		writeError(w, engineerrors.InvalidInput("source_id must not be empty", nil))
		return
	}

	jobID, err := s.engine.IngestAsync(r.Context(), req.SourceID, toDocInputs(req.Documents))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.engine.JobStatus(id)
	if !ok {
		writeError(w, engineerrors.NotFound("job not found: "+id, nil))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sources": s.engine.ListSources()})
}

func (s *Server) handleListDocs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	docs, err := s.engine.ListDocuments(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.engine.DeleteSource(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleGetDoc(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.engine.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDoc(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.engine.DeleteDocument(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Info())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps err to its taxonomy HTTP status (spec.md §7) and writes
// {"error": "<message>"}. Errors with no taxonomy code (unexpected
// internal errors escaping the Engine) default to 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if code := engineerrors.GetCode(err); code != "" {
		status = code.HTTPStatus()
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
