package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Summary describes a finished scrape run.
type Summary struct {
	RunID     string
	RootURL   string
	StartedAt time.Time
	Elapsed   time.Duration

	Listings   int
	Companies  int
	Duplicates int
	Skipped    int
	Failed     int

	// Err is the error that ended the run early, if any.
	Err error
}

// SummaryWriter outputs human-readable run summaries.
type SummaryWriter struct {
	baseWriter
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer) *SummaryWriter {
	return &SummaryWriter{baseWriter: newBaseWriter(output)}
}

// WriteSummary outputs the summary of one run.
func (w *SummaryWriter) WriteSummary(s Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 50))
	sb.WriteString("\n")
	sb.WriteString("SECREGISTRY RUN SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 50))
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Run ID:     %s\n", s.RunID)
	fmt.Fprintf(&sb, "Root URL:   %s\n", s.RootURL)
	fmt.Fprintf(&sb, "Started:    %s\n", s.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Elapsed:    %s\n", s.Elapsed.Round(time.Second))
	fmt.Fprintf(&sb, "Listings:   %d\n", s.Listings)
	fmt.Fprintf(&sb, "Companies:  %d\n", s.Companies)
	fmt.Fprintf(&sb, "Duplicates: %d\n", s.Duplicates)
	fmt.Fprintf(&sb, "Skipped:    %d\n", s.Skipped)
	fmt.Fprintf(&sb, "Failed:     %d\n", s.Failed)

	switch {
	case s.Err != nil:
		fmt.Fprintf(&sb, "Status:     ERROR - %v\n", s.Err)
	case s.Failed > 0:
		sb.WriteString("Status:     Complete with failures\n")
	default:
		sb.WriteString("Status:     Complete\n")
	}

	return w.output.Write([]byte(sb.String()))
}
