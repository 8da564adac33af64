// Package models defines data structures for the scraper and catalogue.
package models

import "time"

// NoDescription is stored when a detail page has no description paragraph.
const NoDescription = "No description available"

// Book is one catalogue record assembled from a listing entry and its detail page.
type Book struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Price        string  `json:"price"`
	Rating       string  `json:"rating"`
	URL          string  `json:"url"`
	Availability string  `json:"availability"`
	Description  string  `json:"description"`
	ImageURL     *string `json:"image_url"`
}

// CollectResult holds the outcome of one collection run.
type CollectResult struct {
	Books           []Book
	StartTime       time.Time
	EndTime         time.Time
	PageCount       int
	RequestCount    int
	SkippedCount    int
	Truncated       bool
	TruncatedAtPage int
	ErrorsByType    map[string]int
}
