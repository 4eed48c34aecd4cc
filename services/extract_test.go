package services

import (
	"archive/zip"
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFormatFromName(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"audit.pdf", FormatPDF, false},
		{"Audit.PDF", FormatPDF, false},
		{"notes.txt", FormatText, false},
		{"report.final.docx", FormatDOCX, false},
		{"legacy.doc", "", true},
		{"scan.png", "", true},
		{"README", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatFromName(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_PlainText(t *testing.T) {
	x := NewTextExtractor(zap.NewNop())

	got, err := x.Extract("audit.txt", strings.NewReader("\xEF\xBB\xBFline one\r\nline two\rline three"))

	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\nline three", got.Text)
	assert.Equal(t, FormatText, got.Format)
	assert.Equal(t, "utf-8", got.Strategy)
}

func TestExtract_PlainTextFallsBackToWindows1252(t *testing.T) {
	x := NewTextExtractor(zap.NewNop())

	got, err := x.Extract("audit.txt", bytes.NewReader([]byte("Caf\xe9 signage \x96 km 4")))

	require.NoError(t, err)
	assert.Equal(t, "windows-1252", got.Strategy)
	assert.Equal(t, "Café signage – km 4", got.Text)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	x := NewTextExtractor(zap.NewNop())

	_, err := x.Extract("audit.odt", strings.NewReader("anything"))

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	var extErr *ExtractionError
	assert.False(t, errors.As(err, &extErr))
}

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>%s</w:body></w:document>`, body)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtract_DOCX(t *testing.T) {
	doc := buildDOCX(t,
		`<w:p><w:r><w:t>Install rumble strip</w:t></w:r><w:r><w:t xml:space="preserve"> at km 10.5, 25 m</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Speed hump</w:t><w:tab/><w:t>2 nos</w:t></w:r></w:p>`+
			`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Guard rail 60 m</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`)
	x := NewTextExtractor(zap.NewNop())

	got, err := x.Extract("audit.docx", bytes.NewReader(doc))

	require.NoError(t, err)
	assert.Equal(t, "document-xml", got.Strategy)
	assert.Equal(t, "Install rumble strip at km 10.5, 25 m\nSpeed hump 2 nos\nGuard rail 60 m\n", got.Text)
}

func TestExtract_DOCXWithoutDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = NewTextExtractor(zap.NewNop()).Extract("audit.docx", &buf)

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, FormatDOCX, extErr.Format)
	require.Len(t, extErr.Failures, 1)
	assert.Contains(t, extErr.Error(), "word/document.xml not found")
}

func TestExtract_PDFAllStrategiesFail(t *testing.T) {
	_, err := NewTextExtractor(zap.NewNop()).Extract("audit.pdf", strings.NewReader("definitely not a pdf"))

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, FormatPDF, extErr.Format)
	require.Len(t, extErr.Failures, 2)
	assert.Equal(t, "pdfcpu", extErr.Failures[0].Strategy)
	assert.Equal(t, "content-scan", extErr.Failures[1].Strategy)
}

func TestExtractPDFContentScan_FlateStream(t *testing.T) {
	content := "BT /F1 12 Tf 72 712 Td (Install rumble strip at km 10.5, 25 m) Tj ET\n" +
		"BT 72 700 Td [(Speed) -250 ( hump 2 nos)] TJ ET"
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	_, err := zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var pdf bytes.Buffer
	pdf.WriteString("%PDF-1.4\n4 0 obj\n<< /Length ")
	pdf.WriteString(fmt.Sprint(z.Len()))
	pdf.WriteString(" /Filter /FlateDecode >>\nstream\n")
	pdf.Write(z.Bytes())
	pdf.WriteString("\nendstream\nendobj\n%%EOF\n")

	got, err := extractPDFContentScan(pdf.Bytes())

	require.NoError(t, err)
	assert.Equal(t, "Install rumble strip at km 10.5, 25 m\nSpeed hump 2 nos\n", got)
}

func TestContentStreamText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		expect  string
	}{
		{"same baseline joins with space", "BT 10 700 Td (Guard) Tj 40 0 Td (rail) Tj ET", "Guard rail"},
		{"new baseline breaks line", "BT 10 700 Td (one) Tj ET BT 10 680 Td (two) Tj ET", "one\ntwo"},
		{"T star breaks line", "BT 10 700 Td 12 TL (one) Tj T* (two) Tj ET", "one\ntwo"},
		{"quote operator breaks line", "BT 10 700 Td (one) Tj (two) ' ET", "one\ntwo"},
		{"text matrix", "BT 1 0 0 1 50 500 Tm (a) Tj 1 0 0 1 50 480 Tm (b) Tj ET", "a\nb"},
		{"hex string", "BT <5369676E616765> Tj ET", "Signage"},
		{"escapes and nesting", `BT (a \(b\) c\\d (e)) Tj ET`, `a (b) c\d (e)`},
		{"octal escape", `BT (caf\351) Tj ET`, "café"},
		{"no text", "q 1 0 0 1 0 0 cm Q", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, contentStreamText([]byte(tt.content)))
		})
	}
}

func TestExtract_GeneratedReportRoundTrip(t *testing.T) {
	c := NewCalculator(DefaultTunables()).WithClock(fixedClock(2025))
	items := c.Price([]MatchedItem{matched("Signage", "Signage", 5000, 2)}, "Kerala", 2024)
	data := NewReportData(DefaultReportOptions(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)), items, c.GSTRate())
	pdf, err := GenerateReportPDF(data)
	require.NoError(t, err)

	got, err := NewTextExtractor(zap.NewNop()).ExtractBytes(FormatPDF, pdf)

	require.NoError(t, err)
	assert.Contains(t, got.Text, "Executive Summary")
	assert.Contains(t, got.Text, "IRC Code References")
}
