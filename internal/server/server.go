// Package server exposes the record store over a small JSON API used by the
// browser front end.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Tiliavir/rapportini/internal/logging"
	"github.com/Tiliavir/rapportini/internal/model"
)

// maxImportBytes bounds the size of an uploaded CSV.
const maxImportBytes = 10 << 20

// Store is the record store the handlers operate on.
type Store interface {
	LoadAll() ([]model.Record, error)
	Insert(r model.Record) (model.Record, error)
	Update(id string, r model.Record) (model.Record, error)
	Remove(id string) error
	Import(records []model.Record) (int, error)
	ExportCSV() ([]byte, error)
}

// Server is the HTTP server for the work-report API.
type Server struct {
	store  Store
	router *chi.Mux
	server *http.Server
}

// New creates a Server listening on addr.
func New(store Store, addr string) *Server {
	s := &Server{
		store:  store,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logging.Middleware)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/interventi", s.handleList)
		r.Post("/interventi", s.handleCreate)
		r.Put("/interventi/{id}", s.handleUpdate)
		r.Delete("/interventi/{id}", s.handleDelete)

		r.Get("/export-csv", s.handleExport)
		r.Post("/import-csv", s.handleImport)
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
