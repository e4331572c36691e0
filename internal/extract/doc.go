// Package extract turns the regulator's business operator pages into
// records.
//
// The pages are laid out with tables whose meaning depends on position
// and on the heading row above them, not on markup. The extractors here
// are pure functions of a parsed document:
//
//   - ParseIndex reads the category index into LinkRecords
//   - ParseListing reads a category listing into CompanyLinks
//   - ParseCompanyPage folds the rows of a company page into a CompanyRecord
//   - ParseNameChangePage reads the former names of a company
//
// # Company pages
//
// A company page is one long table. Rows with class "ttr" are headings
// and select the active Section; rows with class "ttr01" are column
// captions and are ignored; every other row is data for the active
// section. Rows of the basic information section are matched against an
// ordered list of field patterns, the first match wins. Rows of the other
// sections are accepted only with the expected number of cells.
//
// License tables leave the license number and effective date blank on
// every row after the first one of a group. HungryMerge carries the last
// non-blank value of each column forward to rebuild those rows. The carry
// is reset at every heading so a group never spans two sections.
//
// # Errors
//
// Malformed rows are skipped silently. A page without a company name
// heading fails with ErrNoCompanyName. Fields that were recognised but
// could not be read are collected in a *PageErrors returned next to the
// record, so the caller can log them and still keep the record.
package extract
