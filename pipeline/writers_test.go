package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aluiziolira/go-books-api/models"
)

func sampleBook() models.Book {
	image := "http://example.test/media/img.jpg"
	return models.Book{
		ID:           1,
		Title:        "Test Book",
		Price:        "£10.00",
		Rating:       "Two",
		URL:          "http://example.test/book/1",
		Availability: "In stock",
		Description:  "A book, with a comma",
		ImageURL:     &image,
	}
}

func TestCSVWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}

	noImage := sampleBook()
	noImage.ID = 2
	noImage.URL = "http://example.test/book/2"
	noImage.ImageURL = nil

	if err := writer.Write([]models.Book{sampleBook(), noImage}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records=%d, want 3", len(records))
	}
	if records[0][0] != "id" || records[0][1] != "title" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][6] != "A book, with a comma" {
		t.Fatalf("description=%q", records[1][6])
	}
	if records[2][7] != "" {
		t.Fatalf("image_url=%q, want empty for missing image", records[2][7])
	}
}

func TestJSONWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}

	if err := writer.Write([]models.Book{sampleBook()}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		var decoded models.Book
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		if decoded.ID != 1 || decoded.ImageURL == nil {
			t.Fatalf("unexpected decoded book: %+v", decoded)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	if count != 1 {
		t.Fatalf("json lines=%d, want 1", count)
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "books.csv")

	writer, err := NewWriter("csv", path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := Export(writer, []models.Book{sampleBook()}); err != nil {
		t.Fatalf("export: %v", err)
	}

	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("export file missing or empty")
	}

	if _, err := NewWriter("xml", filepath.Join(dir, "books.xml")); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
