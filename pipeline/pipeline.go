package pipeline

import (
	"errors"
	"sync"

	"github.com/aluiziolira/go-books-api/models"
	"github.com/aluiziolira/go-books-api/parser"
)

var (
	// ErrAssemblerClosed is returned when Add is called after Close.
	ErrAssemblerClosed = errors.New("pipeline: closed")
)

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(books []models.Book) error
	Close() error
	Validate() error
}

// Assembler validates, de-duplicates and numbers records in arrival order.
// Ids start at 1 and only accepted records consume one.
type Assembler struct {
	mu     sync.Mutex
	books  []models.Book
	seen   map[string]struct{}
	closed bool

	metrics metrics
}

// NewAssembler returns an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{
		seen:    make(map[string]struct{}),
		metrics: newMetrics(),
	}
}

// Add normalises book, assigns it the next id and appends it. The bool reports
// whether the record was accepted.
func (a *Assembler) Add(book *models.Book) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return false, ErrAssemblerClosed
	}

	if err := parser.ValidateBook(book); err != nil {
		a.metrics.addValidation("invalid_record")
		return false, nil
	}
	if _, ok := a.seen[book.URL]; ok {
		a.metrics.addValidation("duplicate_url")
		return false, nil
	}
	a.seen[book.URL] = struct{}{}

	record := *book
	record.Title = parser.NormalizeText(record.Title)
	record.Price = parser.NormalizeText(record.Price)
	record.Availability = parser.NormalizeText(record.Availability)
	record.ID = len(a.books) + 1
	a.books = append(a.books, record)

	a.metrics.incrementProcessed()
	return true, nil
}

// Close prevents further additions.
func (a *Assembler) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}

// Books returns a copy of the accumulated sequence.
func (a *Assembler) Books() []models.Book {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.Book, len(a.books))
	copy(out, a.books)
	return out
}

// Len returns the number of accepted records.
func (a *Assembler) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.books)
}

// GetMetrics returns a snapshot of the internal counters.
func (a *Assembler) GetMetrics() map[string]interface{} {
	return a.metrics.snapshot()
}

type metrics struct {
	mu         sync.Mutex
	processed  int64
	validation map[string]int
}

func newMetrics() metrics {
	return metrics{
		validation: make(map[string]int),
	}
}

func (m *metrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_books":   m.processed,
		"validation_errors": copyValidation,
	}
}
