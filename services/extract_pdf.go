package services

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
)

var errNoPDFText = errors.New("no text content found in PDF")

// extractPDFWithPdfcpu reads and validates the document with pdfcpu and
// decodes each page's content stream. Pages are separated by a newline.
func extractPDFWithPdfcpu(data []byte) (string, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return "", fmt.Errorf("pdfcpu validate: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return "", fmt.Errorf("pdfcpu page count: %w", err)
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			continue
		}
		if text := contentStreamText(content); text != "" {
			sb.WriteString(text)
			sb.WriteByte('\n')
		}
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", errNoPDFText
	}
	return sb.String(), nil
}

var streamRe = regexp.MustCompile(`(?s)stream\r?\n(.*?)\r?\nendstream`)

// extractPDFContentScan ignores the document structure and inflates every
// stream it can find, keeping the ones that contain text operators. It
// recovers text from files whose cross-reference table is damaged.
func extractPDFContentScan(data []byte) (string, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("%PDF")) {
		return "", fmt.Errorf("missing %%PDF header")
	}

	var sb strings.Builder
	for _, m := range streamRe.FindAllSubmatch(data, -1) {
		raw := m[1]
		content := raw
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			if inflated, err := io.ReadAll(zr); err == nil || len(inflated) > 0 {
				content = inflated
			}
			zr.Close()
		}
		if !bytes.Contains(content, []byte("BT")) {
			continue
		}
		if text := contentStreamText(content); text != "" {
			sb.WriteString(text)
			sb.WriteByte('\n')
		}
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", errNoPDFText
	}
	return sb.String(), nil
}

// textState tracks where shown text lands so that runs on the same baseline
// are joined with a space and runs on a new baseline start a new line.
type textState struct {
	sb         strings.Builder
	lineY      float64
	y          float64
	lastY      float64
	started    bool
	gap        bool
	forceBreak bool
}

func (s *textState) show(text string) {
	if text == "" {
		return
	}
	if s.started {
		switch {
		case s.forceBreak || math.Abs(s.y-s.lastY) > 0.5:
			s.sb.WriteByte('\n')
		case s.gap:
			s.sb.WriteByte(' ')
		}
	}
	s.sb.WriteString(text)
	s.lastY = s.y
	s.started = true
	s.gap = false
	s.forceBreak = false
}

func (s *textState) moveTo(y float64) {
	s.lineY = y
	s.y = y
	s.gap = true
}

func (s *textState) nextLine() {
	s.forceBreak = true
}

// contentStreamText interprets the text operators of a page content stream.
// Strings are decoded as Windows-1252, the encoding of the standard fonts.
func contentStreamText(content []byte) string {
	var (
		st       textState
		strs     []string
		nums     []float64
		decoder  = charmap.Windows1252.NewDecoder()
		decodeFn = func(b []byte) string {
			out, err := decoder.Bytes(b)
			if err != nil {
				return string(b)
			}
			return string(out)
		}
	)

	for i := 0; i < len(content); {
		c := content[i]
		switch {
		case isPDFSpace(c):
			i++
		case c == '%':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case c == '(':
			raw, next := readLiteralString(content, i)
			strs = append(strs, decodeFn(raw))
			i = next
		case c == '<' && i+1 < len(content) && content[i+1] == '<':
			i += 2
		case c == '>' && i+1 < len(content) && content[i+1] == '>':
			i += 2
		case c == '<':
			raw, next := readHexString(content, i)
			strs = append(strs, decodeFn(raw))
			i = next
		case c == '[' || c == ']' || c == '{' || c == '}':
			i++
		case c == '/':
			i++
			for i < len(content) && !isPDFSpace(content[i]) && !isPDFDelimiter(content[i]) {
				i++
			}
		default:
			start := i
			for i < len(content) && !isPDFSpace(content[i]) && !isPDFDelimiter(content[i]) {
				i++
			}
			if i == start {
				i++
				continue
			}
			word := string(content[start:i])
			if n, err := strconv.ParseFloat(word, 64); err == nil {
				nums = append(nums, n)
				continue
			}
			applyTextOperator(&st, word, strs, nums)
			strs, nums = strs[:0], nums[:0]
		}
	}
	return strings.TrimSpace(st.sb.String())
}

func applyTextOperator(st *textState, op string, strs []string, nums []float64) {
	switch op {
	case "BT":
		st.lineY = 0
	case "Td", "TD":
		if len(nums) >= 2 {
			st.moveTo(st.lineY + nums[len(nums)-1])
		}
	case "Tm":
		if len(nums) >= 6 {
			st.moveTo(nums[len(nums)-1])
		}
	case "T*":
		st.nextLine()
	case "Tj", "TJ":
		st.show(strings.Join(strs, ""))
	case "'", `"`:
		st.nextLine()
		st.show(strings.Join(strs, ""))
	}
}

func isPDFSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == 0
}

func isPDFDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

// readLiteralString reads a balanced (...) string starting at content[i]
// and resolves its escapes. It returns the bytes and the index after ')'.
func readLiteralString(content []byte, i int) ([]byte, int) {
	var out []byte
	depth := 0
	for i < len(content) {
		c := content[i]
		switch {
		case c == '\\' && i+1 < len(content):
			i++
			e := content[i]
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for k := 0; k < 2 && i+1 < len(content) && content[i+1] >= '0' && content[i+1] <= '7'; k++ {
						i++
						val = val*8 + int(content[i]-'0')
					}
					out = append(out, byte(val))
				} else {
					out = append(out, e)
				}
			}
			i++
		case c == '(':
			if depth > 0 {
				out = append(out, c)
			}
			depth++
			i++
		case c == ')':
			depth--
			i++
			if depth == 0 {
				return out, i
			}
			out = append(out, c)
		default:
			out = append(out, c)
			i++
		}
	}
	return out, i
}

// readHexString reads <...> starting at content[i]. An odd trailing digit
// is padded with zero.
func readHexString(content []byte, i int) ([]byte, int) {
	i++
	var digits []byte
	for i < len(content) && content[i] != '>' {
		if isHexDigit(content[i]) {
			digits = append(digits, content[i])
		}
		i++
	}
	if i < len(content) {
		i++
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for k := 0; k < len(digits); k += 2 {
		v, _ := strconv.ParseUint(string(digits[k:k+2]), 16, 8)
		out = append(out, byte(v))
	}
	return out, i
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
