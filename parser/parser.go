package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-books-api/models"
)

const (
	descriptionSelector = "#product_description + p"
	imageSelector       = "div.item.active img"
)

// Detail holds the fields only available on a book's detail page.
type Detail struct {
	Description string
	ImageURL    *string
}

// ValidateBook ensures the scraper captured the required fields.
func ValidateBook(b *models.Book) error {
	if b == nil {
		return fmt.Errorf("book is nil")
	}
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("book missing title")
	}
	if strings.TrimSpace(b.URL) == "" {
		return fmt.Errorf("book missing url for %s", b.Title)
	}
	return nil
}

// NormalizeText trims spacing from scraped text such as price or availability.
func NormalizeText(text string) string {
	return strings.TrimSpace(text)
}

// RatingCode returns the star tier from a "star-rating Three" class attribute.
// Anything other than a two-token attribute yields "".
func RatingCode(class string) string {
	parts := strings.Fields(class)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// ResolveImageURL turns a gallery src like "../../media/cache/x.jpg" into an absolute URL
// rooted at baseURL.
func ResolveImageURL(baseURL, src string) string {
	path := strings.TrimLeft(strings.ReplaceAll(src, "../", ""), "/")
	return strings.TrimRight(baseURL, "/") + "/" + path
}

// ExtractDetail reads the description and gallery image from a detail page.
func ExtractDetail(doc *goquery.Selection, baseURL string) Detail {
	detail := Detail{Description: models.NoDescription}

	if desc := doc.Find(descriptionSelector).First(); desc.Length() > 0 {
		detail.Description = strings.TrimSpace(desc.Text())
	}

	if img := doc.Find(imageSelector).First(); img.Length() > 0 {
		if src, ok := img.Attr("src"); ok && src != "" {
			resolved := ResolveImageURL(baseURL, src)
			detail.ImageURL = &resolved
		}
	}

	return detail
}
