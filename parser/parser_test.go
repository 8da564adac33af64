package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-books-api/models"
)

func TestValidateBook(t *testing.T) {
	tests := []struct {
		name    string
		book    *models.Book
		wantErr bool
	}{
		{
			name: "valid book",
			book: &models.Book{
				Title:        "Test Book",
				Price:        "£10.00",
				Rating:       "Five",
				Availability: "In stock",
				URL:          "http://example.com",
			},
			wantErr: false,
		},
		{
			name:    "nil book",
			book:    nil,
			wantErr: true,
		},
		{
			name: "missing title",
			book: &models.Book{
				Title: "  ",
				URL:   "http://example.com",
			},
			wantErr: true,
		},
		{
			name: "missing url",
			book: &models.Book{
				Title: "Test Book",
			},
			wantErr: true,
		},
		{
			name: "missing rating is allowed",
			book: &models.Book{
				Title: "Test Book",
				URL:   "http://example.com",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBook(tt.book)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBook() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRatingCode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "three", input: "star-rating Three", expected: "Three"},
		{name: "extra whitespace", input: "  star-rating   One ", expected: "One"},
		{name: "verbatim case", input: "star-rating five", expected: "five"},
		{name: "single token", input: "star-rating", expected: ""},
		{name: "three tokens", input: "star-rating Two extra", expected: ""},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RatingCode(tt.input); got != tt.expected {
				t.Errorf("RatingCode(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestResolveImageURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		src      string
		expected string
	}{
		{
			name:     "relative gallery path",
			base:     "http://books.toscrape.com",
			src:      "../../media/cache/fe/72/fe72.jpg",
			expected: "http://books.toscrape.com/media/cache/fe/72/fe72.jpg",
		},
		{
			name:     "base with trailing slash",
			base:     "http://books.toscrape.com/",
			src:      "../media/x.jpg",
			expected: "http://books.toscrape.com/media/x.jpg",
		},
		{
			name:     "no prefix",
			base:     "http://example.test",
			src:      "media/x.jpg",
			expected: "http://example.test/media/x.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveImageURL(tt.base, tt.src); got != tt.expected {
				t.Errorf("ResolveImageURL(%q, %q) = %q, want %q", tt.base, tt.src, got, tt.expected)
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "with whitespace", input: "\n  In stock (22 available)  ", expected: "In stock (22 available)"},
		{name: "price kept verbatim", input: " £51.77 ", expected: "£51.77"},
		{name: "empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.input); got != tt.expected {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		name        string
		html        string
		description string
		imageURL    string // "" means absent
	}{
		{
			name: "full page",
			html: `<article class="product_page">
				<div id="product_gallery"><div class="item active"><img src="../../media/cache/ab/cd.jpg" alt="x"></div></div>
				<div id="product_description" class="sub-header"><h2>Product Description</h2></div>
				<p>  A poem collection.  </p>
				<p>Second paragraph</p>
			</article>`,
			description: "A poem collection.",
			imageURL:    "http://example.test/media/cache/ab/cd.jpg",
		},
		{
			name:        "no description anchor",
			html:        `<div class="item active"><img src="../../media/a.jpg"></div><p>Orphan</p>`,
			description: models.NoDescription,
			imageURL:    "http://example.test/media/a.jpg",
		},
		{
			name:        "image without src",
			html:        `<div class="item active"><img alt="none"></div>`,
			description: models.NoDescription,
		},
		{
			name:        "inactive gallery item only",
			html:        `<div class="item"><img src="../../media/a.jpg"></div>`,
			description: models.NoDescription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + tt.html + "</body></html>"))
			if err != nil {
				t.Fatalf("parse html: %v", err)
			}

			detail := ExtractDetail(doc.Selection, "http://example.test")
			if detail.Description != tt.description {
				t.Errorf("description = %q, want %q", detail.Description, tt.description)
			}
			switch {
			case tt.imageURL == "" && detail.ImageURL != nil:
				t.Errorf("image url = %q, want absent", *detail.ImageURL)
			case tt.imageURL != "" && detail.ImageURL == nil:
				t.Errorf("image url absent, want %q", tt.imageURL)
			case tt.imageURL != "" && *detail.ImageURL != tt.imageURL:
				t.Errorf("image url = %q, want %q", *detail.ImageURL, tt.imageURL)
			}
		})
	}
}
