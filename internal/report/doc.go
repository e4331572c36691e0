// Package report writes company records and run summaries.
//
// This package contains writers for different output formats:
//   - JSONWriter: one JSON object per record per line (NDJSON)
//   - MarkdownWriter: a Markdown document of all records
//   - SummaryWriter: a plain text summary of a scrape run
//
// JSONWriter streams every record as it is written. MarkdownWriter keeps
// the records and renders the document on Flush.
package report
