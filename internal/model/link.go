package model

// LinkRecord is an entry of the business operator index.
type LinkRecord struct {
	// Title is the link text.
	Title string `json:"title"`

	// Parents holds the category headings above the entry, outermost
	// first. It never includes Title.
	Parents []string `json:"parents"`

	// URL is the listing page the entry points to.
	URL string `json:"url"`
}

// Category returns the breadcrumb including the entry itself.
func (l LinkRecord) Category() []string {
	out := make([]string, 0, len(l.Parents)+1)
	out = append(out, l.Parents...)
	return append(out, l.Title)
}

// CompanyLink is a row of a category listing.
type CompanyLink struct {
	// Name is the company name as shown in the listing.
	Name string `json:"name"`

	// URL is the company detail page.
	URL string `json:"url"`

	// Address, Tel and Fax come from the listing's address column.
	Address string `json:"address,omitempty"`
	Tel     string `json:"tel,omitempty"`
	Fax     string `json:"fax,omitempty"`

	// Category is the breadcrumb of the listing, set by the crawler.
	Category []string `json:"category,omitempty"`
}
