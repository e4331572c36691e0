package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"

	"github.com/nao1215/secregistry/internal/extract"
)

// CompanyPageStep fetches the company page of the job's link and parses
// it into the job's record.
type CompanyPageStep struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// CompanyPageStepOption configures a CompanyPageStep.
type CompanyPageStepOption func(*CompanyPageStep)

// WithCompanyPageLogger sets a custom logger for the company page step.
func WithCompanyPageLogger(logger *slog.Logger) CompanyPageStepOption {
	return func(s *CompanyPageStep) {
		s.logger = logger
	}
}

// NewCompanyPageStep creates a new company page step.
func NewCompanyPageStep(fetcher Fetcher, opts ...CompanyPageStepOption) *CompanyPageStep {
	s := &CompanyPageStep{
		fetcher: fetcher,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *CompanyPageStep) Name() string {
	return "company_page"
}

// Do fetches and parses the company page.
//
// Fields the page shows but that could not be read are logged; the
// record is kept. Contact details missing from the page are taken from
// the listing row.
func (s *CompanyPageStep) Do(ctx context.Context, job *Job) error {
	doc, err := s.fetcher.Fetch(ctx, job.Link.URL)
	if err != nil {
		return fmt.Errorf("fetch company page %s: %w", job.Link.URL, err)
	}

	rec, err := extract.ParseCompanyPage(doc)
	if rec == nil {
		return fmt.Errorf("parse company page %s: %w", job.Link.URL, err)
	}

	var pageErrs *extract.PageErrors
	if errors.As(err, &pageErrs) {
		for _, fieldErr := range pageErrs.Fields {
			s.logger.Warn("unreadable field",
				"company", rec.Name,
				"field", fieldErr.Field,
				"text", fieldErr.Text,
				"error", fieldErr.Err,
			)
		}
	}

	rec.SourceURL = job.Link.URL
	if doc.Url != nil {
		rec.SourceURL = doc.Url.String()
	}
	rec.Category = slices.Clone(job.Link.Category)

	if rec.Address == "" {
		rec.Address = job.Link.Address
	}
	if rec.Tel == "" {
		rec.Tel = job.Link.Tel
	}
	if rec.Fax == "" {
		rec.Fax = job.Link.Fax
	}

	job.Record = rec
	return nil
}

// NameHistoryStep follows the name history link of a company page and
// records the former names of the company.
type NameHistoryStep struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NameHistoryStepOption configures a NameHistoryStep.
type NameHistoryStepOption func(*NameHistoryStep)

// WithNameHistoryLogger sets a custom logger for the name history step.
func WithNameHistoryLogger(logger *slog.Logger) NameHistoryStepOption {
	return func(s *NameHistoryStep) {
		s.logger = logger
	}
}

// NewNameHistoryStep creates a new name history step.
func NewNameHistoryStep(fetcher Fetcher, opts ...NameHistoryStepOption) *NameHistoryStep {
	s := &NameHistoryStep{
		fetcher: fetcher,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *NameHistoryStep) Name() string {
	return "name_history"
}

// Do fills the former names of the job's record. A record without a
// name history link is left alone. Fetch failures are logged and do not
// fail the job unless the context is done.
func (s *NameHistoryStep) Do(ctx context.Context, job *Job) error {
	if job.Record == nil || job.Record.NameHistoryURL == "" {
		return nil
	}

	historyURL, err := resolveAgainst(job.Record.SourceURL, job.Record.NameHistoryURL)
	if err != nil {
		s.logger.Warn("invalid name history link",
			"company", job.Record.Name,
			"href", job.Record.NameHistoryURL,
			"error", err,
		)
		return nil
	}

	doc, err := s.fetcher.Fetch(ctx, historyURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.logger.Warn("name history failed",
			"company", job.Record.Name,
			"url", historyURL,
			"error", err,
		)
		return nil
	}

	job.Record.OldNames = extract.ParseNameChangePage(doc)
	return nil
}

// resolveAgainst resolves ref against the absolute URL base.
func resolveAgainst(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if base == "" {
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
