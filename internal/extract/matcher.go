package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/nao1215/secregistry/internal/model"
	"github.com/nao1215/secregistry/internal/normalize"
)

// ErrNoCapitalAmount is wrapped by FieldError when a capital text has
// no readable amount.
var ErrNoCapitalAmount = errors.New("no capital amount")

// fieldMatcher recognises one kind of basic information row.
// Patterns are anchored at the start of the collapsed row text.
type fieldMatcher struct {
	name    string
	pattern *regexp.Regexp
	apply   func(m fieldMatcher, rec *model.CompanyRecord, match []string, row *goquery.Selection) error
}

// group returns the named capture of match, or "" when the pattern has
// no such group.
func (m fieldMatcher) group(match []string, name string) string {
	i := m.pattern.SubexpIndex(name)
	if i < 0 || i >= len(match) {
		return ""
	}
	return match[i]
}

// basicInfoMatchers are tried in order; the first match wins.
var basicInfoMatchers = []fieldMatcher{
	{
		name:    "address",
		pattern: regexp.MustCompile(`^Head office(?P<address>.+)Tel\.\s*(?P<tel>[-0-9]*)\s*Fax\.\s*(?P<fax>[-0-9]*)\s*\[Click HERE`),
		apply:   applyAddress,
	},
	{
		name:    "date_incorporated",
		pattern: regexp.MustCompile(`^Date of Incorporation :\s*(?P<date>.+?)\s*Registered & Paid-Up Capital`),
		apply:   applyIncorporation,
	},
	{
		name:    "website",
		pattern: regexp.MustCompile(`^\[Click HERE for History of Name Change\]\s*\[Click HERE for Company Website\]`),
		apply:   applyWebsite,
	},
	{
		name:    "name_history",
		pattern: regexp.MustCompile(`^\[Click HERE for History of Name Change\]`),
		apply:   applyWebsite,
	},
	{
		name:    "company_website",
		pattern: regexp.MustCompile(`^\[Click HERE for Company Website\]`),
		apply:   applyWebsite,
	},
	{
		name:    "registered_capital",
		pattern: regexp.MustCompile(`^- Registered (?P<capital>.+ Baht)`),
		apply:   applyRegisteredCapital,
	},
	{
		name:    "paid_up_capital",
		pattern: regexp.MustCompile(`^- Paid-Up Capital (?P<capital>.+ Baht)`),
		apply:   applyPaidUpCapital,
	},
	{
		name:    "anti_corruption",
		pattern: regexp.MustCompile(`^Anti-corruption Progress Indicator :\s*Level (?P<rating>\d\w?)\s+\(As of\s*(?P<date>[\d/]+)\)`),
		apply:   applyAntiCorruption,
	},
}

// matchBasicInfo applies the first matcher that recognises the row.
// Rows no matcher recognises are ignored.
func matchBasicInfo(rec *model.CompanyRecord, row *goquery.Selection) error {
	text := normalize.Collapse(row.Text())
	for _, m := range basicInfoMatchers {
		match := m.pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		return m.apply(m, rec, match, row)
	}
	return nil
}

func applyAddress(m fieldMatcher, rec *model.CompanyRecord, match []string, _ *goquery.Selection) error {
	rec.Address = normalize.Strip(m.group(match, "address"))
	rec.Tel = strings.Trim(m.group(match, "tel"), "-")
	rec.Fax = strings.Trim(m.group(match, "fax"), "-")
	return nil
}

func applyIncorporation(m fieldMatcher, rec *model.CompanyRecord, match []string, _ *goquery.Selection) error {
	text := m.group(match, "date")
	d, err := model.ParseDate(text)
	if err != nil {
		return &FieldError{Field: m.name, Text: text, Err: err}
	}
	rec.DateIncorporated = d
	return nil
}

const (
	nameHistoryLinkText = "History of Name Change"
	websiteLinkText     = "Company Website"
)

// applyWebsite reads the name history and company website links of the
// row. Either one may be missing. Links are told apart by their text;
// unlabelled links fall back to position, name history first.
func applyWebsite(m fieldMatcher, rec *model.CompanyRecord, _ []string, row *goquery.Selection) error {
	links := row.Find("a[href]")
	history := linkWithText(links, nameHistoryLinkText)
	website := linkWithText(links, websiteLinkText)

	switch m.name {
	case "name_history":
		if history == "" && links.Length() > 0 {
			history = hrefOf(links.Eq(0))
		}
	case "company_website":
		if website == "" && links.Length() > 0 {
			website = hrefOf(links.Eq(0))
		}
	default:
		if history == "" && links.Length() > 0 {
			history = hrefOf(links.Eq(0))
		}
		if website == "" && links.Length() > 1 {
			website = hrefOf(links.Eq(1))
		}
	}

	if history != "" {
		rec.NameHistoryURL = history
	}
	if website != "" {
		rec.Website = website
	}
	return nil
}

// linkWithText returns the href of the first link whose text contains
// phrase, or "".
func linkWithText(links *goquery.Selection, phrase string) string {
	var href string
	links.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.Contains(normalize.Collapse(a.Text()), phrase) {
			href = hrefOf(a)
			return false
		}
		return true
	})
	return href
}

func hrefOf(a *goquery.Selection) string {
	return strings.TrimSpace(a.AttrOr("href", ""))
}

func applyRegisteredCapital(m fieldMatcher, rec *model.CompanyRecord, match []string, _ *goquery.Selection) error {
	text, amount, err := readCapital(m, match)
	rec.RegisteredCapital = text
	rec.RegisteredCapitalAmount = amount
	return err
}

func applyPaidUpCapital(m fieldMatcher, rec *model.CompanyRecord, match []string, _ *goquery.Selection) error {
	text, amount, err := readCapital(m, match)
	rec.PaidUpCapital = text
	rec.PaidUpCapitalAmount = amount
	return err
}

// readCapital returns the literal capital text and, when it can be
// read, its amount in baht.
func readCapital(m fieldMatcher, match []string) (string, *decimal.Decimal, error) {
	text := normalize.Strip(m.group(match, "capital"))
	v, err := ParseCapital(text)
	if err != nil {
		return text, nil, &FieldError{Field: m.name, Text: text, Err: err}
	}
	return text, &v, nil
}

func applyAntiCorruption(m fieldMatcher, rec *model.CompanyRecord, match []string, _ *goquery.Selection) error {
	rating := m.group(match, "rating")
	info := &model.AntiCorruptionInfo{
		Rating: rating,
		Date:   model.OptionalDate(m.group(match, "date")),
	}
	if desc, ok := antiCorruptionLevels[rating]; ok {
		info.Description = &desc
	}
	rec.AntiCorruption = info
	return nil
}

// antiCorruptionLevels describes the progress indicator levels.
var antiCorruptionLevels = map[string]string{
	"1":  "Committed",
	"2":  "Declared",
	"3":  "Established",
	"3A": "Established by Declaration of Intent",
	"3B": "Established by Committment and Policy",
	"4":  "Certified Level",
	"5":  "Extended",
}

var capitalRegex = regexp.MustCompile(`(?i)^([0-9][0-9,]*(?:\.[0-9]+)?)\s*(thousand|million|billion)?\s*baht$`)

var capitalUnits = map[string]decimal.Decimal{
	"":         decimal.New(1, 0),
	"thousand": decimal.New(1, 3),
	"million":  decimal.New(1, 6),
	"billion":  decimal.New(1, 9),
}

// ParseCapital reads a capital text such as "1,331.72 Million Baht" as
// an amount in baht.
func ParseCapital(text string) (decimal.Decimal, error) {
	match := capitalRegex.FindStringSubmatch(normalize.Collapse(text))
	if match == nil {
		return decimal.Zero, ErrNoCapitalAmount
	}

	v, err := decimal.NewFromString(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrNoCapitalAmount, err)
	}
	return v.Mul(capitalUnits[strings.ToLower(match[2])]), nil
}
