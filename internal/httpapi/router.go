// Package httpapi implements the HTTP surface of spec.md §6: a thin JSON
// layer over pkg/eywa.Engine. Grounded on the corpus's
// fbrzx-airplane-chat/internal/server package (chi router, per-handler
// methods on a Server wrapping a single backing service, writeJSON/
// writeError helpers), with status codes driven by internal/errors'
// taxonomy-to-HTTP-status mapping instead of hardcoded literals per
// handler.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nans28/eywa/pkg/eywa"
)

// Server wires HTTP handlers to an Engine.
type Server struct {
	engine *eywa.Engine
	router http.Handler
}

// NewServer builds a Server with every route of spec.md §6 registered.
func NewServer(engine *eywa.Engine) *Server {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)

	s := &Server{engine: engine, router: mux}

	mux.Post("/api/search", s.handleSearch)
	mux.Post("/api/ingest", s.handleIngest)
	mux.Post("/api/queue", s.handleQueue)
	mux.Get("/api/jobs/{id}", s.handleGetJob)
	mux.Get("/api/sources", s.handleListSources)
	mux.Get("/api/sources/{id}/docs", s.handleListDocs)
	mux.Delete("/api/sources/{id}", s.handleDeleteSource)
	mux.Get("/api/docs/{id}", s.handleGetDoc)
	mux.Delete("/api/docs/{id}", s.handleDeleteDoc)
	mux.Delete("/api/reset", s.handleReset)
	mux.Get("/api/info", s.handleInfo)

	return s
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
