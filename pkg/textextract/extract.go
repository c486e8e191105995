// Package textextract pulls plain text out of raw source content. Both
// extraction paths always return sanitized text: content that cannot be
// read yields a descriptive placeholder instead of an error, so callers
// surface "nothing useful found" through a low token count rather than
// a hard failure.
package textextract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/mementolabs/deckgen/pkg/sanitize"
)

var (
	textShowBlocks = regexp.MustCompile(`(?s)BT\s.*?ET`)
	pdfOperators   = regexp.MustCompile(`BT|ET|Tf|Td|TJ|Tj|'`)
	numericArgs    = regexp.MustCompile(`\d+\.?\d*\s+`)
	pdfDelimiters  = regexp.MustCompile(`[()<>\[\]{}/]`)
	nonPrintable   = regexp.MustCompile(`[^\x20-\x7E\s]`)
)

// Placeholder is the text substituted when nothing could be extracted.
func Placeholder(title string) string {
	return sanitize.Text(fmt.Sprintf("Document: %s - Content could not be extracted", title))
}

// FromPDF extracts text from a PDF byte buffer. It tries the real PDF
// reader first, then a scan for text-show operator blocks in the raw
// buffer, then a printable-ASCII salvage pass, and finally falls back
// to the title placeholder. It never returns an error or empty text.
func FromPDF(data []byte, title string) string {
	if text := pdfReaderText(data); text != "" {
		return text
	}
	if text := operatorScanText(data); text != "" {
		return text
	}
	if text := salvageText(data); text != "" {
		return text
	}
	return Placeholder(title)
}

func pdfReaderText(data []byte) string {
	defer func() {
		// The PDF parser panics on some malformed cross-reference
		// tables; a panic here just means we move on to the raw scan.
		_ = recover()
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return sanitize.Text(buf.String())
}

// operatorScanText treats the buffer as text and collects everything
// between BT/ET text-show markers, stripping drawing operators, numeric
// positioning arguments and structural delimiters.
func operatorScanText(data []byte) string {
	raw := string(data)

	blocks := textShowBlocks.FindAllString(raw, -1)
	if len(blocks) == 0 {
		return ""
	}

	cleaned := make([]string, 0, len(blocks))
	for _, block := range blocks {
		block = pdfOperators.ReplaceAllString(block, " ")
		block = numericArgs.ReplaceAllString(block, " ")
		block = pdfDelimiters.ReplaceAllString(block, " ")
		cleaned = append(cleaned, block)
	}
	return sanitize.Text(strings.Join(cleaned, " "))
}

func salvageText(data []byte) string {
	return sanitize.Text(nonPrintable.ReplaceAllString(string(data), " "))
}
