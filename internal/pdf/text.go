// Package pdf extracts digital text from PDFs, decides whether that text is
// usable, and rasterizes scanned pages to JPEG for vision extraction.
package pdf

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	ltpdf "github.com/ledongthuc/pdf"
)

// TextExtractor pulls the embedded text layer out of a PDF.
type TextExtractor interface {
	ExtractText(data []byte) (string, int, error)
}

type textExtractor struct{}

func NewTextExtractor() TextExtractor {
	return textExtractor{}
}

// ExtractText returns the concatenated text of every page plus the page
// count. Pages whose text layer is broken are skipped rather than failing the
// whole document; a scanned PDF legitimately yields empty text.
func (textExtractor) ExtractText(data []byte) (text string, pages int, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := ltpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	pages = reader.NumPage()
	var parts []string
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if s := strings.TrimSpace(content); s != "" {
			parts = append(parts, s)
		}
	}

	return strings.Join(parts, "\n\n"), pages, nil
}

// Compiled letter-run patterns, keyed by run length. The threshold is config
// and constant per process, so this stays a one-entry map in practice.
var letterRunRes sync.Map

func letterRunRegexp(n int) *regexp.Regexp {
	if re, ok := letterRunRes.Load(n); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(fmt.Sprintf(`[A-Za-zÁÉÍÓÚáéíóúÑñ]{%d,}`, n))
	letterRunRes.Store(n, re)
	return re
}

// HasMeaningfulText reports whether extracted text is good enough to skip the
// vision path: at least minChars characters after trimming, and at least one
// run of letterRun consecutive letters. Scanned PDFs often carry a few stray
// glyphs in their text layer; the letter-run check rejects that noise.
// Accented Spanish text is multi-byte, so characters are counted as runes.
func HasMeaningfulText(text string, minChars, letterRun int) bool {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < minChars {
		return false
	}
	return letterRunRegexp(letterRun).MatchString(trimmed)
}
