package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aluiziolira/go-books-api/config"
	"github.com/aluiziolira/go-books-api/models"
	"github.com/aluiziolira/go-books-api/parser"
	"github.com/aluiziolira/go-books-api/pipeline"
	"github.com/gocolly/colly/v2"
)

const (
	phaseListing = "listing"
	phaseDetail  = "detail"
)

// Scraper walks the catalogue listing pages and follows every entry to its detail page.
// Requests are issued one at a time.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	Metrics   *Metrics

	mu           sync.Mutex
	requestCount int
	errorsByType map[string]int
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Scraper{
		cfg:          cfg,
		collector:    collector,
		Metrics:      NewMetrics(),
		errorsByType: make(map[string]int),
	}, nil
}

// WithTransport replaces the HTTP transport used for every fetch.
func (s *Scraper) WithTransport(rt http.RoundTripper) {
	s.collector.WithTransport(rt)
}

// ListingURL returns the address of a numbered catalogue page.
func (s *Scraper) ListingURL(page int) string {
	return fmt.Sprintf("%s/catalogue/page-%d.html", strings.TrimRight(s.cfg.BaseURL, "/"), page)
}

// Collect visits listing pages 1..maxPages in order and returns the assembled records.
// A failed listing page ends the run; a failed detail page drops only that entry.
// Neither is reported as an error. The error return is reserved for ctx cancellation,
// in which case the partial result is still returned.
func (s *Scraper) Collect(ctx context.Context, maxPages int) (*models.CollectResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.resetCounters()

	assembler := pipeline.NewAssembler()
	result := &models.CollectResult{StartTime: time.Now()}

	finish := func() *models.CollectResult {
		assembler.Close()
		result.Books = assembler.Books()
		result.EndTime = time.Now()
		result.RequestCount, result.ErrorsByType = s.snapshotCounters()
		return result
	}

	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return finish(), fmt.Errorf("collect: %w", err)
		}

		entries, err := s.fetchListing(s.ListingURL(page))
		if err != nil {
			s.truncate(result, page, err)
			break
		}
		result.PageCount++

		for i := range entries {
			if err := ctx.Err(); err != nil {
				return finish(), fmt.Errorf("collect: %w", err)
			}

			entry := &entries[i]
			detail, err := s.fetchDetail(entry.URL)
			if err != nil {
				s.skip(result, entry, err)
				continue
			}
			entry.Description = detail.Description
			entry.ImageURL = detail.ImageURL

			accepted, err := assembler.Add(entry)
			if err != nil {
				return finish(), fmt.Errorf("assemble %s: %w", entry.URL, err)
			}
			if accepted {
				s.Metrics.IncItems()
			}
		}
	}

	return finish(), nil
}

// truncate records a failed listing page; later pages are never attempted.
func (s *Scraper) truncate(result *models.CollectResult, page int, err error) {
	result.Truncated = true
	result.TruncatedAtPage = page
	s.Metrics.IncTruncated()
	slog.Debug("listing page unavailable, stopping collection",
		slog.Int("page", page),
		slog.Any("error", err),
	)
}

// skip records a failed detail page; the listing entry is dropped without a record.
func (s *Scraper) skip(result *models.CollectResult, entry *models.Book, err error) {
	result.SkippedCount++
	s.Metrics.IncSkipped()
	slog.Debug("detail page unavailable, skipping entry",
		slog.String("title", entry.Title),
		slog.Any("error", err),
	)
}

func (s *Scraper) fetchListing(pageURL string) ([]models.Book, error) {
	c := s.collector.Clone()

	var entries []models.Book
	c.OnHTML("article.product_pod", func(e *colly.HTMLElement) {
		entries = append(entries, extractSummary(e))
	})

	if err := s.visit(c, phaseListing, pageURL); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Scraper) fetchDetail(detailURL string) (parser.Detail, error) {
	c := s.collector.Clone()

	detail := parser.Detail{Description: models.NoDescription}
	c.OnHTML("html", func(e *colly.HTMLElement) {
		detail = parser.ExtractDetail(e.DOM, s.cfg.BaseURL)
	})

	if err := s.visit(c, phaseDetail, detailURL); err != nil {
		return parser.Detail{}, err
	}
	return detail, nil
}

// visit performs one blocking request on c and converts any failure into a *FetchError.
// Only 200 counts as success; error responses are parsed so their status reaches OnResponse.
func (s *Scraper) visit(c *colly.Collector, phase, target string) error {
	status := 0
	c.ParseHTTPErrorResponse = true

	c.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		s.mu.Lock()
		s.requestCount++
		s.mu.Unlock()
		s.Metrics.IncRequest(phase)
	})

	c.OnResponse(func(r *colly.Response) {
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			s.Metrics.ObserveDuration(phase, time.Since(start))
		}
		if r.StatusCode != http.StatusOK {
			status = r.StatusCode
		}
	})

	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	err := c.Visit(target)
	if err == nil {
		if status == 0 {
			return nil
		}
		err = fmt.Errorf("unexpected http status %d", status)
	}

	classified := classifyError(err, status)
	category := errorTypeLabel(classified)
	s.mu.Lock()
	s.errorsByType[category]++
	s.mu.Unlock()
	s.Metrics.IncError(category)

	return &FetchError{URL: target, Status: status, Err: classified}
}

func extractSummary(e *colly.HTMLElement) models.Book {
	href := e.ChildAttr("h3 a", "href")
	bookURL := ""
	if href != "" {
		bookURL = e.Request.AbsoluteURL(href)
	}

	return models.Book{
		Title:        e.ChildAttr("h3 a", "title"),
		Price:        parser.NormalizeText(e.ChildText("p.price_color")),
		Rating:       parser.RatingCode(e.ChildAttr("p.star-rating", "class")),
		URL:          bookURL,
		Availability: parser.NormalizeText(e.ChildText("p.instock.availability")),
	}
}

func (s *Scraper) resetCounters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestCount = 0
	s.errorsByType = make(map[string]int)
}

func (s *Scraper) snapshotCounters() (int, map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return s.requestCount, out
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
	}

	if err == nil {
		return nil
	}
	return err
}
