// Package catalog serves read queries over the scraped book snapshot.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aluiziolira/go-books-api/models"
)

// Default pagination values applied when a parameter is absent.
const (
	DefaultPage    = "1"
	DefaultPerPage = "20"
)

// Collector produces the ordered record sequence. *scraper.Scraper satisfies it.
type Collector interface {
	Collect(ctx context.Context, maxPages int) (*models.CollectResult, error)
}

// ListResult is one page of the catalogue.
type ListResult struct {
	Page       int           `json:"page"`
	PerPage    int           `json:"per_page"`
	TotalBooks int           `json:"total_books"`
	Books      []models.Book `json:"books"`
}

// SearchResult holds every record whose title matched the query.
type SearchResult struct {
	Query        string        `json:"query"`
	TotalResults int           `json:"total_results"`
	Books        []models.Book `json:"books"`
}

// Stats describes the snapshot without triggering population.
type Stats struct {
	Populated  bool
	TotalBooks int
}

// Service owns the in-memory snapshot. The first query populates it by running the
// collector once; afterwards the snapshot is read-only.
type Service struct {
	collector Collector
	maxPages  int
	logger    *slog.Logger
	searches  *lru.Cache[string, []models.Book]

	// populateMu serialises collector runs; mu guards the published snapshot.
	populateMu sync.Mutex
	mu         sync.RWMutex
	populated  bool
	books      []models.Book
}

// NewService builds a service that will collect up to maxPages listing pages.
func NewService(collector Collector, maxPages, cacheSize int, logger *slog.Logger) (*Service, error) {
	if collector == nil {
		return nil, fmt.Errorf("collector is required")
	}
	if maxPages <= 0 {
		return nil, fmt.Errorf("max pages must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}

	searches, err := lru.New[string, []models.Book](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create search cache: %w", err)
	}

	return &Service{
		collector: collector,
		maxPages:  maxPages,
		logger:    logger,
		searches:  searches,
	}, nil
}

// Populate runs the collector unless the snapshot already exists. Concurrent callers
// block until the first run finishes. A collector error leaves the service unpopulated.
func (s *Service) Populate(ctx context.Context) error {
	s.populateMu.Lock()
	defer s.populateMu.Unlock()

	if s.Stats().Populated {
		return nil
	}

	s.logger.Info("scraping books from website", slog.Int("max_pages", s.maxPages))
	start := time.Now()

	// The snapshot outlives the request that triggered it.
	result, err := s.collector.Collect(context.WithoutCancel(ctx), s.maxPages)
	if err != nil {
		return fmt.Errorf("populate catalogue: %w", err)
	}

	books := result.Books
	if books == nil {
		books = []models.Book{}
	}
	s.mu.Lock()
	s.books = books
	s.populated = true
	s.mu.Unlock()

	s.logger.Info("scraped books",
		slog.Int("books", len(books)),
		slog.Int("pages", result.PageCount),
		slog.Int("skipped", result.SkippedCount),
		slog.Bool("truncated", result.Truncated),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// Stats reports whether the snapshot exists and how many records it holds. It never
// waits for a running population.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Populated: s.populated, TotalBooks: len(s.books)}
}

// Snapshot returns the populated sequence, populating it first if needed.
// The slice is shared and must not be modified.
func (s *Service) Snapshot(ctx context.Context) ([]models.Book, error) {
	if err := s.Populate(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.books, nil
}

// List returns the window [(page-1)*perPage, page*perPage) of the snapshot. Both values
// arrive as text; a window outside the data yields an empty page.
func (s *Service) List(ctx context.Context, page, perPage string) (*ListResult, error) {
	pageNum, err := parseInt(page)
	if err != nil {
		return nil, &ValidationError{Field: "page", Message: MsgInvalidPagination}
	}
	perPageNum, err := parseInt(perPage)
	if err != nil {
		return nil, &ValidationError{Field: "per_page", Message: MsgInvalidPagination}
	}

	books, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	start, end := window(len(books), pageNum, perPageNum)
	out := make([]models.Book, end-start)
	copy(out, books[start:end])

	return &ListResult{
		Page:       pageNum,
		PerPage:    perPageNum,
		TotalBooks: len(books),
		Books:      out,
	}, nil
}

// Search returns every record whose title contains title, ignoring case, in
// snapshot order.
func (s *Service) Search(ctx context.Context, title string) (*SearchResult, error) {
	query := strings.TrimSpace(title)
	if query == "" {
		return nil, &ValidationError{Field: "title", Message: MsgTitleRequired}
	}

	books, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	key := fold(query)
	matches, ok := s.searches.Get(key)
	if !ok {
		matches = make([]models.Book, 0)
		for _, book := range books {
			if strings.Contains(fold(book.Title), key) {
				matches = append(matches, book)
			}
		}
		s.searches.Add(key, matches)
	}

	out := make([]models.Book, len(matches))
	copy(out, matches)

	return &SearchResult{
		Query:        query,
		TotalResults: len(out),
		Books:        out,
	}, nil
}

// Get returns the record with the given id.
func (s *Service) Get(ctx context.Context, id int) (*models.Book, error) {
	books, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	for i := range books {
		if books[i].ID == id {
			book := books[i]
			return &book, nil
		}
	}
	return nil, &NotFoundError{ID: id}
}

func parseInt(raw string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(raw))
}

// window returns slice bounds for a page. Pages past the data are empty.
func window(total, page, perPage int) (int, int) {
	if page < 1 || perPage < 1 || total == 0 {
		return 0, 0
	}
	pages := total / perPage
	if total%perPage != 0 {
		pages++
	}
	if page-1 >= pages {
		return 0, 0
	}
	start := (page - 1) * perPage
	end := total
	if perPage < total-start {
		end = start + perPage
	}
	return start, end
}

// fold lowercases s without language-specific rules. Full case folding is avoided so
// that "ss" does not match "ß". A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Lower(language.Und).String(s)
}
