package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// loadDoc parses a file of testdata.
func loadDoc(t *testing.T, name string) *goquery.Document {
	t.Helper()

	f, err := os.Open(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to open %s: %v", name, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		t.Fatalf("failed to parse %s: %v", name, err)
	}
	return doc
}

// parseDoc parses an inline HTML snippet.
func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse html: %v", err)
	}
	return doc
}

// companyPage wraps rows in a company page table headed by name.
func companyPage(name string, rows ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="menub">`)
	b.WriteString(`<tr class="ttr"><td colspan="7">` + name + `</td></tr>`)
	for _, r := range rows {
		b.WriteString(r)
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}

// tr builds a data row from cell texts.
func tr(cells ...string) string {
	var b strings.Builder
	b.WriteString("<tr>")
	for _, c := range cells {
		b.WriteString("<td>" + c + "</td>")
	}
	b.WriteString("</tr>")
	return b.String()
}

// heading builds a section heading row.
func heading(text string) string {
	return `<tr class="ttr"><td colspan="7">` + text + `</td></tr>`
}
