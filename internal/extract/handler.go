package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/nao1215/secregistry/internal/model"
	"github.com/nao1215/secregistry/internal/normalize"
)

// Cell counts of the data rows of each section.
const (
	licenseCells     = 6
	shareholderCells = 3
	executiveCells   = 4
	fundManagerCells = 7
	complianceCells  = 2
)

var hundred = decimal.NewFromInt(100)

// cellTexts returns the collapsed text of the row's own cells.
func cellTexts(row *goquery.Selection) []string {
	cells := row.ChildrenFiltered("td")
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, normalize.Collapse(cell.Text()))
	})
	return texts
}

// blankLicenseRow is the license carry at the start of a section.
func blankLicenseRow() []string {
	return make([]string, licenseCells)
}

// licenseRow merges a license row into the carried row and returns the
// new carry with the license it describes. Rows of the wrong shape leave
// the carry untouched.
func licenseRow(carry, cells []string) ([]string, model.LicenseRecord, bool) {
	if len(cells) != licenseCells {
		return carry, model.LicenseRecord{}, false
	}

	merged := HungryMerge(carry, cells)
	if len(merged) != licenseCells {
		// The carry was not a license row; start over from this one.
		merged = HungryMerge(cells)
	}

	number, effective, typ, business, start, remark := merged[0], merged[1], merged[2], merged[3], merged[4], merged[5]
	return merged, model.LicenseRecord{
		Number:        number,
		Type:          typ,
		Business:      business,
		EffectiveDate: model.OptionalDate(effective),
		StartDate:     model.OptionalDate(start),
		Remark:        remark,
	}, true
}

func shareholderRow(cells []string) (model.ShareholderRecord, bool) {
	if len(cells) != shareholderCells {
		return model.ShareholderRecord{}, false
	}

	pct, ok := parsePercentage(cells[2])
	if !ok {
		return model.ShareholderRecord{}, false
	}
	return model.ShareholderRecord{
		Name:       normalize.Title(cells[1]),
		Percentage: pct,
	}, true
}

// parsePercentage reads "25.06%" as 25.06. The percent sign is required
// and the value must lie within [0, 100].
func parsePercentage(text string) (float64, bool) {
	text = normalize.Strip(text)
	if !strings.HasSuffix(text, "%") {
		return 0, false
	}

	v, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(text, "%")))
	if err != nil {
		return 0, false
	}
	if v.IsNegative() || v.GreaterThan(hundred) {
		return 0, false
	}
	return v.InexactFloat64(), true
}

func executiveRow(cells []string) (model.ExecutiveRecord, bool) {
	if len(cells) != executiveCells {
		return model.ExecutiveRecord{}, false
	}
	return model.ExecutiveRecord{
		Name:        normalize.Title(cells[1]),
		Position:    cells[2],
		Nationality: normalize.Title(cells[3]),
	}, true
}

// fundManagerRow reads a fund manager row. A mark in the mutual fund
// column makes a mutual fund manager, anything else a derivatives one.
func fundManagerRow(cells []string) (model.FundManagerRecord, bool) {
	if len(cells) != fundManagerCells {
		return model.FundManagerRecord{}, false
	}

	typ := model.FundTypeDerivative
	if cells[2] != "" {
		typ = model.FundTypeMutual
	}
	return model.FundManagerRecord{
		Name:             normalize.Title(cells[1]),
		Type:             typ,
		ApprovalDate:     model.OptionalDate(cells[4]),
		AppointedDate:    model.OptionalDate(cells[5]),
		TrainingDeadline: model.OptionalDate(cells[6]),
	}, true
}

func complianceRow(cells []string) (model.ComplianceRecord, bool) {
	if len(cells) != complianceCells {
		return model.ComplianceRecord{}, false
	}
	return model.ComplianceRecord{
		Name:      normalize.Title(cells[0]),
		StartDate: model.OptionalDate(cells[1]),
	}, true
}
