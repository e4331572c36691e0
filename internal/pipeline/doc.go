// Package pipeline builds the record of one company in a sequence of
// steps.
//
// A Job carries the listing link of a company and the record built so
// far. CompanyPageStep fetches and parses the company page; it is
// critical and a failure drops the company. NameHistoryStep follows the
// name history link of the page and fills the former names; its
// failures are logged and the record is kept.
//
// Pipeline.Process runs the steps for one link and is the company
// processor of the crawl walker.
package pipeline
