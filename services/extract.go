package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// Format is an input document type, derived from the file name suffix.
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// SupportedFormats lists the accepted upload suffixes.
var SupportedFormats = []Format{FormatPDF, FormatDOCX, FormatText}

// FormatFromName maps a file name to its Format. Unknown suffixes wrap
// ErrUnsupportedFormat.
func FormatFromName(name string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, f := range SupportedFormats {
		if string(f) == ext {
			return f, nil
		}
	}
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no file extension", ErrUnsupportedFormat, name)
	}
	return "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
}

// Extraction is the flat text of one document and how it was obtained.
type Extraction struct {
	Text     string
	Format   Format
	Strategy string
}

// extractStrategy turns raw document bytes into text.
type extractStrategy struct {
	name string
	fn   func([]byte) (string, error)
}

// TextExtractor pulls plain text out of uploaded documents. Each format has
// an ordered list of strategies; the first one that succeeds wins.
type TextExtractor struct {
	logger     *zap.Logger
	strategies map[Format][]extractStrategy
}

// NewTextExtractor returns an extractor for every supported format.
func NewTextExtractor(logger *zap.Logger) *TextExtractor {
	return &TextExtractor{
		logger: logger,
		strategies: map[Format][]extractStrategy{
			FormatText: {
				{"utf-8", decodeUTF8},
				{"windows-1252", decodeWindows1252},
			},
			FormatPDF: {
				{"pdfcpu", extractPDFWithPdfcpu},
				{"content-scan", extractPDFContentScan},
			},
			FormatDOCX: {
				{"document-xml", extractDOCX},
			},
		},
	}
}

// Extract reads r fully and returns its text. The format comes from name.
func (x *TextExtractor) Extract(name string, r io.Reader) (Extraction, error) {
	format, err := FormatFromName(name)
	if err != nil {
		return Extraction{}, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Extraction{}, fmt.Errorf("read upload: %w", err)
	}
	return x.ExtractBytes(format, data)
}

// ExtractBytes runs the strategies for format over data.
func (x *TextExtractor) ExtractBytes(format Format, data []byte) (Extraction, error) {
	strategies, ok := x.strategies[format]
	if !ok {
		return Extraction{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	extErr := &ExtractionError{Format: format}
	for _, s := range strategies {
		text, err := s.fn(data)
		if err == nil {
			return Extraction{Text: normalizeNewlines(text), Format: format, Strategy: s.name}, nil
		}
		x.logger.Warn("extraction strategy failed",
			zap.String("format", string(format)),
			zap.String("strategy", s.name),
			zap.Error(err),
		)
		extErr.Failures = append(extErr.Failures, StrategyFailure{Strategy: s.name, Err: err})
	}
	return Extraction{}, extErr
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

var errInvalidUTF8 = errors.New("input is not valid UTF-8")

func decodeUTF8(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if !utf8.Valid(data) {
		return "", errInvalidUTF8
	}
	return string(data), nil
}

func decodeWindows1252(data []byte) (string, error) {
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("windows-1252 decode: %w", err)
	}
	return string(out), nil
}

// extractDOCX returns one line per paragraph of word/document.xml, table
// cell paragraphs included. Tabs and breaks inside a paragraph become spaces.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	var (
		out       strings.Builder
		paragraph strings.Builder
		inText    bool
		depth     int
	)
	decoder := xml.NewDecoder(rc)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					paragraph.Reset()
				}
				depth++
			case "t":
				inText = true
			case "tab", "br":
				if depth > 0 {
					paragraph.WriteByte(' ')
				}
			}
		case xml.CharData:
			if inText && depth > 0 {
				paragraph.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				depth--
				if depth == 0 {
					out.WriteString(paragraph.String())
					out.WriteByte('\n')
				}
			}
		}
	}

	if strings.TrimSpace(out.String()) == "" {
		return "", fmt.Errorf("document has no text")
	}
	return out.String(), nil
}
