package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/secregistry/internal/model"
	"github.com/nao1215/secregistry/internal/normalize"
)

// indexCellSelector selects the cells of the category index that hold
// the category tree.
const indexCellSelector = ".ms-rteTable-sec tr td:last-child"

// Depth markers of the category index. The first one is a Cyrillic
// small o, not a Latin one.
const (
	markerLevel2 = "\u043e"
	markerLevel3 = "\u2022"
)

// ParseIndex returns the listings linked from the category index.
func ParseIndex(doc *goquery.Document) ([]model.LinkRecord, error) {
	cells := doc.Find(indexCellSelector)
	if cells.Length() == 0 {
		return nil, ErrNoIndexCells
	}

	links := make([]model.LinkRecord, 0)
	cells.Each(func(_ int, cell *goquery.Selection) {
		links = append(links, ParseIndexCell(cell)...)
	})
	return links, nil
}

// ParseIndexCell returns the links of one index cell.
//
// Each div of the cell is one line of the category tree. Lines without
// a link are category headings and are pushed on the breadcrumb; lines
// with a link become LinkRecords under the current breadcrumb.
func ParseIndexCell(cell *goquery.Selection) []model.LinkRecord {
	var (
		links  = make([]model.LinkRecord, 0)
		levels []string
	)
	cell.Find("div").Each(func(_ int, div *goquery.Selection) {
		level, title := indexLine(normalize.Collapse(div.Text()))
		levels = truncateLevels(levels, level)

		if a := div.Find("a[href]").First(); a.Length() > 0 {
			links = append(links, model.LinkRecord{
				Title:   title,
				Parents: append([]string{}, levels...),
				URL:     strings.TrimSpace(a.AttrOr("href", "")),
			})
			return
		}
		levels = append(levels, title)
	})
	return links
}

// indexLine splits the depth marker off a line of the category tree.
func indexLine(text string) (int, string) {
	switch {
	case strings.HasPrefix(text, markerLevel2):
		return 2, normalize.Strip(strings.TrimLeft(text, markerLevel2))
	case strings.HasPrefix(text, markerLevel3):
		return 3, normalize.Strip(strings.TrimLeft(text, markerLevel3))
	default:
		return 1, text
	}
}

// truncateLevels drops the breadcrumb entries at or below level.
// A line at the depth of the last entry replaces it as a sibling.
func truncateLevels(levels []string, level int) []string {
	switch {
	case level == len(levels):
		return levels[:len(levels)-1]
	case level < len(levels):
		return levels[:level-1]
	default:
		return levels
	}
}
