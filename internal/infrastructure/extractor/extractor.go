// Package extractor routes stored documents to a format-specific parser and
// normalizes whatever text comes back before it reaches the chunker.
package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
	"github.com/antonkuzmin/citedoc/internal/core/ports"
	"github.com/antonkuzmin/citedoc/internal/infrastructure/extractor/excel"
	"github.com/antonkuzmin/citedoc/internal/infrastructure/extractor/pdf"
	"github.com/antonkuzmin/citedoc/internal/infrastructure/extractor/plaintext"
)

// minTextChars rejects documents whose extracted text is too short to carry
// an answerable passage; indexing them only adds noise to retrieval.
const minTextChars = 200

type formatParser interface {
	Parse(filename string, raw []byte) (string, error)
}

type Dispatcher struct {
	storage ports.ObjectStorage
	pdf     formatParser
	excel   formatParser
	plain   formatParser
}

func NewDispatcher(storage ports.ObjectStorage) *Dispatcher {
	return &Dispatcher{
		storage: storage,
		pdf:     pdf.New(),
		excel:   excel.New(),
		plain:   plaintext.New(),
	}
}

func (d *Dispatcher) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := d.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	text, err := d.parserFor(doc).Parse(doc.Filename, raw)
	if err != nil {
		return "", err
	}

	text = NormalizeText(text)
	if len(text) < minTextChars {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract document",
			fmt.Errorf("%s: extracted %d chars, need at least %d", doc.Filename, len(text), minTextChars))
	}
	return text, nil
}

func (d *Dispatcher) parserFor(doc *domain.Document) formatParser {
	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".pdf":
		return d.pdf
	case ".xlsx", ".xlsm":
		return d.excel
	}

	switch doc.MimeType {
	case "application/pdf":
		return d.pdf
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return d.excel
	}
	return d.plain
}

// NormalizeText unifies line endings, strips trailing whitespace per line and
// collapses runs of blank lines, so chunk boundaries do not depend on which
// editor or exporter produced the file.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
