package extractor

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
)

type memStorage struct {
	files map[string][]byte
}

func (s *memStorage) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[key] = raw
	return nil
}

func (s *memStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.files[key])), nil
}

func TestNormalizeText(t *testing.T) {
	in := "first line  \r\nsecond line\t\r\n\r\n\r\n\r\nthird line\r"
	want := "first line\nsecond line\n\nthird line"
	if got := NormalizeText(in); got != want {
		t.Fatalf("unexpected normalization:\n%q\nwant:\n%q", got, want)
	}
}

func TestExtractPlainText(t *testing.T) {
	body := strings.Repeat("Line of meaningful corpus text.\n", 20)
	storage := &memStorage{files: map[string][]byte{"key1": []byte(body)}}
	d := NewDispatcher(storage)

	text, err := d.Extract(context.Background(), &domain.Document{
		Filename:    "notes.txt",
		MimeType:    "text/plain",
		StoragePath: "key1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(text, "Line of meaningful corpus text.") {
		t.Fatalf("unexpected extracted text: %q", text)
	}
}

func TestExtractRejectsTooShortDocuments(t *testing.T) {
	storage := &memStorage{files: map[string][]byte{"key1": []byte("tiny")}}
	d := NewDispatcher(storage)

	_, err := d.Extract(context.Background(), &domain.Document{
		Filename:    "tiny.txt",
		StoragePath: "key1",
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for short document, got %v", err)
	}
}

func TestExtractRejectsBinaryAsPlaintext(t *testing.T) {
	storage := &memStorage{files: map[string][]byte{"key1": {0xff, 0xfe, 0x00, 0x01}}}
	d := NewDispatcher(storage)

	_, err := d.Extract(context.Background(), &domain.Document{
		Filename:    "blob.bin",
		StoragePath: "key1",
	})
	if err == nil {
		t.Fatalf("expected error for non-utf8 payload")
	}
}

func TestParserSelectionByExtensionAndMime(t *testing.T) {
	d := NewDispatcher(&memStorage{})

	cases := []struct {
		filename string
		mime     string
		want     formatParser
	}{
		{"report.PDF", "", d.pdf},
		{"sheet.xlsx", "", d.excel},
		{"data", "application/pdf", d.pdf},
		{"data", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", d.excel},
		{"notes.md", "text/markdown", d.plain},
	}
	for _, tc := range cases {
		got := d.parserFor(&domain.Document{Filename: tc.filename, MimeType: tc.mime})
		if got != tc.want {
			t.Fatalf("wrong parser for %s (%s)", tc.filename, tc.mime)
		}
	}
}
