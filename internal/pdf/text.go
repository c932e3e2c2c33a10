package pdf

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dslipak/pdf"
)

// MinTextLayerChars is how many letters and digits a text layer needs
// before it is trusted over OCR. Scanned PDFs often carry a few stray
// characters from the scanner's stamp.
const MinTextLayerChars = 20

// TextLayer returns the embedded text of the selected pages, one line per
// text row and pages separated by a blank line.
func TextLayer(filename string, pageRange string) (text string, err error) {
	pageNumbers, err := ParsePageRange(pageRange)
	if err != nil {
		return "", fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	// the reader panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("failed to read PDF text layer: %v", r)
		}
	}()

	reader, err := pdf.Open(filename)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %q: %w", filename, err)
	}

	total := reader.NumPage()
	if len(pageNumbers) == 0 {
		for i := 1; i <= total; i++ {
			pageNumbers = append(pageNumbers, i)
		}
	}

	var pages []string
	for _, n := range pageNumbers {
		if n > total {
			continue
		}
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		if t := strings.TrimSpace(pageText(page)); t != "" {
			pages = append(pages, t)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

func pageText(page pdf.Page) string {
	var b strings.Builder
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, t := range row.Content {
				words = append(words, t.S)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteByte('\n')
		}
		return b.String()
	}

	plain, _ := page.GetPlainText(make(map[string]*pdf.Font))
	return plain
}

// UsableText reports whether a text layer carries enough content to skip
// OCR.
func UsableText(text string) bool {
	n := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
			if n >= MinTextLayerChars {
				return true
			}
		}
	}
	return false
}
