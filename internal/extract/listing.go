package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/secregistry/internal/model"
	"github.com/nao1215/secregistry/internal/normalize"
)

// listingRowSelector covers both listing layouts: the nested grid and
// the plain table.
const listingRowSelector = ".rgMasterTable .rgMasterTable tr, .menub tr"

const listingCells = 3

var listingAddressRegex = regexp.MustCompile(`^(?P<address>.*?)\s*Tel\.\s*(?P<tel>.*?)\s*Fax\.\s*(?P<fax>.*)$`)

// ParseListing returns the companies of a category listing, in page order.
func ParseListing(doc *goquery.Document) []model.CompanyLink {
	links := make([]model.CompanyLink, 0)
	doc.Find(listingRowSelector).Each(func(_ int, row *goquery.Selection) {
		if link, ok := ParseListingRow(row); ok {
			links = append(links, link)
		}
	})
	return links
}

// ParseListingRow reads one listing row. Only rows of three cells whose
// second cell links to the company page are accepted.
func ParseListingRow(row *goquery.Selection) (model.CompanyLink, bool) {
	cells := row.ChildrenFiltered("td")
	if cells.Length() != listingCells {
		return model.CompanyLink{}, false
	}

	a := cells.Eq(1).Find("a[href]").First()
	if a.Length() == 0 {
		return model.CompanyLink{}, false
	}

	link := model.CompanyLink{
		Name: normalize.Collapse(a.Text()),
		URL:  strings.TrimSpace(a.AttrOr("href", "")),
	}

	contact := normalize.Collapse(cells.Eq(2).Text())
	if m := listingAddressRegex.FindStringSubmatch(contact); m != nil {
		link.Address = m[listingAddressRegex.SubexpIndex("address")]
		link.Tel = strings.Trim(m[listingAddressRegex.SubexpIndex("tel")], "- ")
		link.Fax = strings.Trim(m[listingAddressRegex.SubexpIndex("fax")], "- ")
	} else {
		link.Address = contact
	}
	return link, true
}
