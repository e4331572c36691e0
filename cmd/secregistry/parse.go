package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/secregistry/internal/extract"
	seclog "github.com/nao1215/secregistry/internal/log"
	"github.com/nao1215/secregistry/internal/report"
)

// Page kinds accepted by the parse command.
const (
	kindIndex   = "index"
	kindListing = "listing"
	kindCompany = "company"
	kindNames   = "names"
)

var parseKinds = []string{kindIndex, kindListing, kindCompany, kindNames}

// NewParseCmd creates the parse command.
func NewParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <kind> <file>",
		Short: "Run one extractor on a saved HTML page",
		Long: `Parse reads a saved page and prints what the extractor of its kind finds.
It is meant for checking pages whose layout changed.

Kinds:
  index    category index, one link per line
  listing  category listing, one company link per line
  company  company page, one record
  names    history of name change, one former name per line

Examples:
  # Print the record of a saved company page
  secregistry parse company resultc.html -p

  # Resolve listing links against the page they were saved from
  secregistry parse listing list.html --base-url http://www.sec.or.th/EN/`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: parseKinds,
		RunE:      runParseCmd,
	}

	cmd.Flags().BoolP("pretty", "p", false,
		"Indent the JSON output")
	cmd.Flags().String("base-url", "",
		"URL the page was saved from, used to resolve relative links")

	return cmd
}

func runParseCmd(cmd *cobra.Command, args []string) error {
	kind, path := args[0], args[1]

	prettyOutput, err := cmd.Flags().GetBool("pretty")
	if err != nil {
		return err
	}
	baseURL, err := cmd.Flags().GetString("base-url")
	if err != nil {
		return err
	}

	doc, err := loadDocument(path, baseURL)
	if err != nil {
		return err
	}

	var opts []report.JSONWriterOption
	if prettyOutput {
		opts = append(opts, report.WithPrettyPrint())
	}
	w := report.NewJSONWriter(cmd.OutOrStdout(), opts...)
	logger := seclog.NewSecureLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))

	var values []any
	switch kind {
	case kindIndex:
		links, err := extract.ParseIndex(doc)
		if err != nil {
			return fmt.Errorf("parse index %s: %w", path, err)
		}
		for _, l := range links {
			l.URL = resolveLink(doc.Url, l.URL)
			values = append(values, l)
		}
	case kindListing:
		for _, l := range extract.ParseListing(doc) {
			l.URL = resolveLink(doc.Url, l.URL)
			values = append(values, l)
		}
	case kindCompany:
		rec, err := extract.ParseCompanyPage(doc)
		if rec == nil {
			return fmt.Errorf("parse company page %s: %w", path, err)
		}
		var pageErrs *extract.PageErrors
		if errors.As(err, &pageErrs) {
			for _, fe := range pageErrs.Fields {
				logger.Warn("unreadable field", "field", fe.Field, "text", fe.Text, "error", fe.Err)
			}
		}
		values = append(values, rec)
	case kindNames:
		for _, n := range extract.ParseNameChangePage(doc) {
			values = append(values, n)
		}
	default:
		return fmt.Errorf("unknown page kind %q (want one of %s)", kind, strings.Join(parseKinds, ", "))
	}

	for _, v := range values {
		if _, err := w.Encode(v); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// loadDocument parses a saved page. The encoding is taken from the
// page's meta tag, UTF-8 if there is none.
func loadDocument(path, baseURL string) (*goquery.Document, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided page path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	r, err := charset.NewReader(f, "")
	if err != nil {
		return nil, fmt.Errorf("failed to detect page encoding: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil || !u.IsAbs() {
			return nil, fmt.Errorf("invalid base URL %q", baseURL)
		}
		doc.Url = u
	}
	return doc, nil
}

// resolveLink resolves href against base. Links are kept as written
// when there is no base or href is malformed.
func resolveLink(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
