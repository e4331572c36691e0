package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/secregistry/internal/model"
	"github.com/nao1215/secregistry/internal/normalize"
)

// nameChangeHeaderRows is the number of caption rows above the names.
const nameChangeHeaderRows = 2

// ParseNameChangePage returns the former names listed on a name history
// page, in page order. Rows that are not a (name, date) pair are skipped.
func ParseNameChangePage(doc *goquery.Document) []model.NameChangeRecord {
	names := make([]model.NameChangeRecord, 0)
	rows := doc.Find(companyRowSelector)
	if rows.Length() <= nameChangeHeaderRows {
		return names
	}
	rows.Slice(nameChangeHeaderRows, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row)
		if len(cells) != 2 || cells[0] == "" {
			return
		}
		names = append(names, model.NameChangeRecord{
			Name:  normalize.Strip(cells[0]),
			Until: model.OptionalDate(cells[1]),
		})
	})
	return names
}
