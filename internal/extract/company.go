package extract

import (
	"errors"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/secregistry/internal/model"
	"github.com/nao1215/secregistry/internal/normalize"
)

const (
	// companyRowSelector selects every row of a company page, headings included.
	companyRowSelector = ".menub tr"

	// companyNameSelector selects the heading carrying the company name.
	companyNameSelector = ".menub .ttr"

	headingClass    = "ttr"
	subheadingClass = "ttr01"
)

// pageFold is the state threaded through the rows of a company page.
type pageFold struct {
	section Section

	// license is the running license row merged into the next one.
	license []string

	errs []*FieldError
}

// ParseCompanyPage extracts the record of a company detail page.
//
// The record is returned whenever the page has a company name. Fields
// that were found but could not be read are reported in a *PageErrors
// returned with the record; those fields keep their zero value.
func ParseCompanyPage(doc *goquery.Document) (*model.CompanyRecord, error) {
	name := normalize.Collapse(doc.Find(companyNameSelector).First().Text())
	if name == "" {
		return nil, ErrNoCompanyName
	}

	rec := model.NewCompanyRecord(name)
	fold := pageFold{section: SectionNone, license: blankLicenseRow()}
	doc.Find(companyRowSelector).Each(func(_ int, row *goquery.Selection) {
		fold = foldRow(fold, rec, row)
	})

	if len(fold.errs) > 0 {
		return rec, &PageErrors{Fields: fold.errs}
	}
	return rec, nil
}

// foldRow applies one row to the record and returns the next state.
func foldRow(fold pageFold, rec *model.CompanyRecord, row *goquery.Selection) pageFold {
	switch {
	case row.HasClass(headingClass):
		return pageFold{
			section: ClassifyHeading(normalize.Collapse(row.Text()), rec.Name),
			license: blankLicenseRow(),
			errs:    fold.errs,
		}
	case row.HasClass(subheadingClass):
		return fold
	}

	switch fold.section {
	case SectionBasicInfo:
		var fe *FieldError
		if err := matchBasicInfo(rec, row); errors.As(err, &fe) {
			fold.errs = append(fold.errs, fe)
		}
	case SectionSecuritiesLicense, SectionDerivativesLicense:
		carry, license, ok := licenseRow(fold.license, cellTexts(row))
		if ok {
			fold.license = carry
			rec.Licenses = append(rec.Licenses, license)
		}
	case SectionShareholders:
		if sh, ok := shareholderRow(cellTexts(row)); ok {
			rec.MajorShareholders = append(rec.MajorShareholders, sh)
		}
	case SectionExecutives:
		if ex, ok := executiveRow(cellTexts(row)); ok {
			rec.Executives = append(rec.Executives, ex)
		}
	case SectionFundManagers:
		if fm, ok := fundManagerRow(cellTexts(row)); ok {
			rec.FundManagers = append(rec.FundManagers, fm)
		}
	case SectionCompliance:
		if hc, ok := complianceRow(cellTexts(row)); ok {
			rec.HeadOfCompliance = append(rec.HeadOfCompliance, hc)
		}
	case SectionNone, SectionUnknown:
	}
	return fold
}
