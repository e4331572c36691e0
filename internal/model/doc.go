// Package model defines the records produced from the business operator
// registry.
//
// The package contains the following main types:
//   - LinkRecord: an entry of the category index
//   - CompanyLink: a row of a category listing
//   - CompanyRecord: everything read from one company page
//   - Date: a calendar date written as YYYY-MM-DD, or null when absent
//
// Models live in their own package because the extractors, the crawler,
// the pipeline and the report writers all share them.
package model
