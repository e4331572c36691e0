package model

import (
	"github.com/shopspring/decimal"
)

// FundType tells which fund register a fund manager is approved for.
type FundType string

const (
	// FundTypeMutual is a mutual fund manager.
	FundTypeMutual FundType = "mutual"

	// FundTypeDerivative is a derivatives fund manager.
	FundTypeDerivative FundType = "derivative"
)

// CompanyRecord is everything extracted about one business operator.
// It is built row by row from the company detail page and, when the
// page links to one, the name history page.
type CompanyRecord struct {
	// Name is the company name taken from the page's first heading.
	Name string `json:"name"`

	// Address is the head office address without phone numbers.
	Address string `json:"address"`

	// Tel is the head office phone number. Empty when the page shows "-".
	Tel string `json:"tel"`

	// Fax is the head office fax number. Empty when the page shows "-".
	Fax string `json:"fax"`

	// Website is the company website URL.
	Website string `json:"website"`

	// DateIncorporated is absent when the page has no readable date.
	DateIncorporated Date `json:"date_incorporated"`

	// RegisteredCapital is the literal text, unit included
	// (e.g. "1,331.72 Million Baht").
	RegisteredCapital string `json:"registered_capital"`

	// PaidUpCapital is the literal text, unit included.
	PaidUpCapital string `json:"paid_up_capital"`

	// RegisteredCapitalAmount is RegisteredCapital in baht.
	// Nil when the text could not be read as an amount.
	RegisteredCapitalAmount *decimal.Decimal `json:"registered_capital_amount"`

	// PaidUpCapitalAmount is PaidUpCapital in baht.
	PaidUpCapitalAmount *decimal.Decimal `json:"paid_up_capital_amount"`

	// AntiCorruption is nil when the page shows no progress indicator.
	AntiCorruption *AntiCorruptionInfo `json:"anti_corruption"`

	Licenses          []LicenseRecord     `json:"licenses"`
	MajorShareholders []ShareholderRecord `json:"major_shareholders"`
	Executives        []ExecutiveRecord   `json:"executives"`
	FundManagers      []FundManagerRecord `json:"fund_managers"`
	HeadOfCompliance  []ComplianceRecord  `json:"head_of_compliance"`
	OldNames          []NameChangeRecord  `json:"old_names"`

	// SourceURL is the detail page the record was extracted from.
	SourceURL string `json:"source_url,omitempty"`

	// Category is the index breadcrumb of the listing the company was
	// found in, outermost first, ending with the listing title.
	Category []string `json:"category,omitempty"`

	// NameHistoryURL links to the page listing former names.
	// It is followed by the crawler and not part of the output.
	NameHistoryURL string `json:"-"`
}

// NewCompanyRecord returns a record whose lists are empty rather than
// nil, so every list field encodes as [] instead of null.
func NewCompanyRecord(name string) *CompanyRecord {
	return &CompanyRecord{
		Name:              name,
		Licenses:          make([]LicenseRecord, 0),
		MajorShareholders: make([]ShareholderRecord, 0),
		Executives:        make([]ExecutiveRecord, 0),
		FundManagers:      make([]FundManagerRecord, 0),
		HeadOfCompliance:  make([]ComplianceRecord, 0),
		OldNames:          make([]NameChangeRecord, 0),
	}
}

// LicenseRecord is one licensed business line.
type LicenseRecord struct {
	Number        string `json:"number"`
	Type          string `json:"type"`
	Business      string `json:"business"`
	EffectiveDate Date   `json:"effective_date"`
	StartDate     Date   `json:"start_date"`
	Remark        string `json:"remark"`
}

// ShareholderRecord is an approved major shareholder.
type ShareholderRecord struct {
	Name string `json:"name"`

	// Percentage is the holding in percent, between 0 and 100.
	Percentage float64 `json:"percentage"`
}

// ExecutiveRecord is a director or manager of the company.
type ExecutiveRecord struct {
	Name        string `json:"name"`
	Position    string `json:"position"`
	Nationality string `json:"nationality"`
}

// FundManagerRecord is a person on the fund manager register.
type FundManagerRecord struct {
	Name             string   `json:"name"`
	Type             FundType `json:"type"`
	ApprovalDate     Date     `json:"approval_date"`
	AppointedDate    Date     `json:"appointed_date"`
	TrainingDeadline Date     `json:"training_deadline"`
}

// ComplianceRecord is a head of compliance.
type ComplianceRecord struct {
	Name      string `json:"name"`
	StartDate Date   `json:"start_date"`
}

// AntiCorruptionInfo is the anti-corruption progress indicator.
type AntiCorruptionInfo struct {
	// Rating is the level as printed, e.g. "3A".
	Rating string `json:"rating"`

	// Description is nil for ratings missing from the lookup table.
	Description *string `json:"description"`

	// Date is the "As of" date of the rating.
	Date Date `json:"date"`
}

// NameChangeRecord is a former company name.
type NameChangeRecord struct {
	Name string `json:"name"`

	// Until is the date the name stopped being used.
	Until Date `json:"until"`
}
