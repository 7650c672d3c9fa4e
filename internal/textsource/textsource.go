// Package textsource reads detection input from files: plain UTF-8 text or
// the vector text layer of a PDF.
package textsource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dslipak/pdf"
)

// DefaultMaxBytes caps how much plain text is read from a single source.
const DefaultMaxBytes = 8 << 20

var (
	// ErrNotText is returned for plain-text input that is not valid UTF-8.
	ErrNotText = errors.New("input is not valid UTF-8 text")
	// ErrTooLarge is returned when input exceeds the configured limit.
	ErrTooLarge = errors.New("input exceeds size limit")
)

// Document is text extracted from a source together with where it came from.
type Document struct {
	Path  string
	Kind  string // "text" or "pdf"
	Pages int    // number of pages read, 0 for plain text
	Text  string
}

// ReadFile reads path, dispatching on its extension. pageRange selects PDF
// pages ("1-3,5"); it is ignored for plain text.
func ReadFile(path, pageRange string) (*Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return ReadPDF(path, pageRange)
	}

	f, err := os.Open(path) //nolint:gosec // path is supplied by the user on purpose
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	text, err := Read(f, DefaultMaxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return &Document{Path: path, Kind: "text", Text: text}, nil
}

// Read reads at most maxBytes of UTF-8 text from r. A leading byte order
// mark is dropped.
func Read(r io.Reader, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", ErrNotText
	}
	return string(data), nil
}

// ReadPDF extracts the text layer of the selected pages. Pages without
// extractable text are skipped; an image-only PDF yields empty text.
func ReadPDF(path, pageRange string) (*Document, error) {
	pageNumbers, err := ParsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %q: %w", path, err)
	}

	totalPages := reader.NumPage()
	pages := selectPages(pageNumbers, totalPages)

	var b strings.Builder
	read := 0
	for _, pageNum := range pages {
		text, err := pageText(reader, pageNum)
		if err != nil {
			continue
		}
		read++
		if strings.TrimSpace(text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
	}

	return &Document{Path: path, Kind: "pdf", Pages: read, Text: b.String()}, nil
}

func selectPages(requested []int, total int) []int {
	if len(requested) == 0 {
		pages := make([]int, 0, total)
		for i := 1; i <= total; i++ {
			pages = append(pages, i)
		}
		return pages
	}
	pages := make([]int, 0, len(requested))
	seen := make(map[int]bool, len(requested))
	for _, p := range requested {
		if p >= 1 && p <= total && !seen[p] {
			seen[p] = true
			pages = append(pages, p)
		}
	}
	return pages
}

// pageText extracts the text of one page, row by row when the layout is
// available and as plain text otherwise.
func pageText(reader *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: malformed content: %v", pageNum, r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d is null", pageNum)
	}

	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		var b strings.Builder
		for _, row := range rows {
			for i, word := range row.Content {
				if i > 0 {
					b.WriteString(" ")
				}
				b.WriteString(word.S)
			}
			b.WriteString("\n")
		}
		return b.String(), nil
	}

	return page.GetPlainText(nil)
}

// ParsePageRange parses a page selection like "1-3,5". Empty means all pages.
func ParsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}

	var pages []int
	for _, part := range strings.Split(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		pages = append(pages, tokenPages...)
	}
	return pages, nil
}

// parseRangeToken parses either a single page token (e.g., "3") or a range token (e.g., "1-5").
func parseRangeToken(part string) ([]int, error) {
	if start, end, ok := strings.Cut(part, "-"); ok {
		from, err := strconv.Atoi(strings.TrimSpace(start))
		if err != nil || from < 1 {
			return nil, fmt.Errorf("invalid start page: %s", start)
		}
		to, err := strconv.Atoi(strings.TrimSpace(end))
		if err != nil || to < 1 {
			return nil, fmt.Errorf("invalid end page: %s", end)
		}
		if from > to {
			return nil, fmt.Errorf("start page %d greater than end page %d", from, to)
		}
		out := make([]int, 0, to-from+1)
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	page, err := strconv.Atoi(part)
	if err != nil || page < 1 {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	return []int{page}, nil
}
