package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aluiziolira/go-books-api/catalog"
)

// HealthResponse reports service liveness and snapshot state.
type HealthResponse struct {
	Status     string `json:"status"`
	Populated  bool   `json:"populated"`
	TotalBooks int    `json:"total_books"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := s.catalog.Stats()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Populated:  stats.Populated,
		TotalBooks: stats.TotalBooks,
	}, s.logger)
}

// GET /books?page=&per_page=
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := catalog.DefaultPage
	if query.Has("page") {
		page = query.Get("page")
	}
	perPage := catalog.DefaultPerPage
	if query.Has("per_page") {
		perPage = query.Get("per_page")
	}

	result, err := s.catalog.List(r.Context(), page, perPage)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result, s.logger)
}

// GET /books/search?title=
func (s *Server) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	result, err := s.catalog.Search(r.Context(), r.URL.Query().Get("title"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result, s.logger)
}

// GET /books/{id}
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		// Only integer ids route to a book.
		writeError(w, http.StatusNotFound, catalog.MsgBookNotFound, s.logger)
		return
	}

	book, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book, s.logger)
}
