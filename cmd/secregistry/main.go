// Package main provides the entry point for the secregistry CLI.
//
// secregistry scrapes the Thai SEC list of business operators: the
// category index, every listing it links to, and every company page,
// and writes one JSON record per company.
//
// Usage:
//
//	secregistry scrape [root-url]
//	secregistry parse <kind> <file>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
