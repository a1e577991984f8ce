// Package docpipe extracts plain text from uploaded lease documents.
//
// Supported formats:
//   - .pdf : text-layer extraction with pdfcpu (no OCR)
//   - .txt : plain text, UTF-8 or Windows-1252
//   - .md  : treated as plain text
//
// A PDF without a text layer is not an error here: Extract returns a
// Document with empty text and quality metrics flagging the need for OCR.
// Deciding whether the text is usable is the caller's job.
//
// Usage:
//
//	pipe := docpipe.New(docpipe.Config{})
//	doc, err := pipe.ExtractBytes(ctx, "bail.pdf", data)
//	fmt.Println(doc.Pages, len(doc.RawText))
package docpipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for extensions other than pdf/txt/md.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrTooLarge is returned when the input exceeds Config.MaxFileSize.
	ErrTooLarge = errors.New("file too large")
)

// Pipeline is the document extraction engine.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Detect returns the document format based on file extension.
func (p *Pipeline) Detect(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".txt", ".text":
		return FormatTXT, nil
	case ".md", ".markdown":
		return FormatMD, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Extract reads the file at path and extracts its text.
func (p *Pipeline) Extract(ctx context.Context, path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), p.cfg.MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := p.ExtractBytes(ctx, filepath.Base(path), data)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// ExtractBytes extracts text from an in-memory document. The format is
// detected from name.
func (p *Pipeline) ExtractBytes(ctx context.Context, name string, data []byte) (*Document, error) {
	if int64(len(data)) > p.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), p.cfg.MaxFileSize)
	}
	format, err := p.Detect(name)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("extracting document", "name", name, "format", format, "bytes", len(data))

	var pages []string
	var quality *ExtractionQuality
	switch format {
	case FormatPDF:
		pages, quality, err = extractPDF(ctx, data)
	case FormatTXT, FormatMD:
		pages = extractText(data)
	default:
		return nil, fmt.Errorf("%w: no parser for %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s (%s): %w", name, format, err)
	}

	sections := make([]Section, 0, len(pages))
	var texts []string
	for i, text := range pages {
		sections = append(sections, Section{Page: i + 1, Text: text})
		if text != "" {
			texts = append(texts, text)
		}
	}
	raw := strings.Join(texts, "\n\n")

	return &Document{
		Name:     name,
		Format:   format,
		Title:    firstLine(raw),
		Pages:    max(1, len(pages)),
		Sections: sections,
		RawText:  raw,
		Quality:  quality,
	}, nil
}

// SupportedFormats returns all supported format extensions.
func SupportedFormats() []string {
	return []string{"pdf", "txt", "md"}
}
