package extract

import "strings"

// Section is the part of a company page the current row belongs to.
type Section int

const (
	// SectionNone is the state before the first heading.
	SectionNone Section = iota
	// SectionBasicInfo follows the company name heading.
	SectionBasicInfo
	// SectionSecuritiesLicense lists licenses under the Securities and Exchange Act.
	SectionSecuritiesLicense
	// SectionDerivativesLicense lists licenses under the Derivatives Act.
	SectionDerivativesLicense
	// SectionShareholders lists approved major shareholders.
	SectionShareholders
	// SectionExecutives lists directors and managers.
	SectionExecutives
	// SectionFundManagers lists registered fund managers.
	SectionFundManagers
	// SectionCompliance lists heads of compliance.
	SectionCompliance
	// SectionUnknown follows a heading that is not recognised. Its rows are dropped.
	SectionUnknown
)

var sectionNames = map[Section]string{
	SectionNone:               "none",
	SectionBasicInfo:          "basic info",
	SectionSecuritiesLicense:  "securities license",
	SectionDerivativesLicense: "derivatives license",
	SectionShareholders:       "shareholders",
	SectionExecutives:         "executives",
	SectionFundManagers:       "fund managers",
	SectionCompliance:         "compliance",
	SectionUnknown:            "unknown",
}

// String returns the section name.
func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsLicense reports whether rows of the section are license rows.
func (s Section) IsLicense() bool {
	return s == SectionSecuritiesLicense || s == SectionDerivativesLicense
}

type sectionHeading struct {
	prefix  string
	section Section
}

// sectionHeadings are matched by prefix after the company name heading.
var sectionHeadings = []sectionHeading{
	{prefix: "Under the Securities & Exchange Act", section: SectionSecuritiesLicense},
	{prefix: "Under the Derivatives Act", section: SectionDerivativesLicense},
	{prefix: "Approved Major shareholder", section: SectionShareholders},
	{prefix: "Executives", section: SectionExecutives},
	{prefix: "Register of persons qualified to be Fund Manager", section: SectionFundManagers},
	{prefix: "Head of Compliance", section: SectionCompliance},
}

// ClassifyHeading returns the section introduced by a heading.
// The company name is tried first, so a heading that starts with it
// opens the basic information section.
func ClassifyHeading(heading, companyName string) Section {
	if companyName != "" && strings.HasPrefix(heading, companyName) {
		return SectionBasicInfo
	}
	for _, h := range sectionHeadings {
		if strings.HasPrefix(heading, h.prefix) {
			return h.section
		}
	}
	return SectionUnknown
}
