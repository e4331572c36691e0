package report

import (
	"cmp"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/secregistry/internal/model"
)

// maxChartSlices is the number of business kinds drawn in the license
// chart. The rest are summed as "Other".
const maxChartSlices = 8

// MarkdownWriter renders records as a Markdown document.
// Records are kept until Flush.
type MarkdownWriter struct {
	baseWriter

	title   string
	records []*model.CompanyRecord
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithTitle sets the document heading.
func WithTitle(title string) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.title = title
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		title:      "SEC Business Operators",
	}

	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write keeps the record for the document. Nothing is written yet.
func (w *MarkdownWriter) Write(rec *model.CompanyRecord) (int, error) {
	w.records = append(w.records, rec)
	return 0, nil
}

// Flush renders the document of all records written so far.
func (w *MarkdownWriter) Flush() (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md)
	for _, rec := range w.records {
		w.writeCompany(md, rec)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the document heading and the summary.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown) {
	md.H1(w.title)
	md.PlainText("")

	licenses := 0
	for _, rec := range w.records {
		licenses += len(rec.Licenses)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Companies", strconv.Itoa(len(w.records))},
			{"Licenses", strconv.Itoa(licenses)},
		},
	})
	md.PlainText("")

	if len(w.records) == 0 {
		md.Note("No company records.")
		md.PlainText("")
		return
	}

	if licenses > 0 {
		w.writePieChart(md)
	}
}

// writePieChart writes a mermaid pie chart of licenses by business.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown) {
	type slice struct {
		label string
		count int
	}

	counts := make(map[string]int)
	for _, rec := range w.records {
		for _, l := range rec.Licenses {
			counts[businessLabel(l.Business)]++
		}
	}

	parts := make([]slice, 0, len(counts))
	for label, count := range counts {
		parts = append(parts, slice{label: label, count: count})
	}
	slices.SortFunc(parts, func(a, b slice) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return strings.Compare(a.label, b.label)
	})

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Licenses by Business"),
		piechart.WithShowData(true),
	)

	other := 0
	for i, s := range parts {
		if i >= maxChartSlices {
			other += s.count
			continue
		}
		chart.LabelAndIntValue(s.label, uint64(s.count)) //nolint:gosec // counts are never negative
	}
	if other > 0 {
		chart.LabelAndIntValue("Other", uint64(other)) //nolint:gosec // counts are never negative
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeCompany writes the section of one company.
func (w *MarkdownWriter) writeCompany(md *markdown.Markdown, rec *model.CompanyRecord) {
	md.H2(rec.Name)
	md.PlainText("")

	rows := [][]string{
		{"Address", orDash(rec.Address)},
		{"Tel", orDash(rec.Tel)},
		{"Fax", orDash(rec.Fax)},
		{"Website", orDash(rec.Website)},
		{"Date of Incorporation", orDash(rec.DateIncorporated.String())},
		{"Registered Capital", orDash(rec.RegisteredCapital)},
		{"Paid-Up Capital", orDash(rec.PaidUpCapital)},
	}
	if rec.AntiCorruption != nil {
		rows = append(rows, []string{"Anti-corruption", antiCorruptionText(rec.AntiCorruption)})
	}
	if len(rec.Category) > 0 {
		rows = append(rows, []string{"Category", strings.Join(rec.Category, " > ")})
	}
	if rec.SourceURL != "" {
		rows = append(rows, []string{"Source", "<" + rec.SourceURL + ">"})
	}
	w.table(md, []string{"Property", "Value"}, rows)

	if len(rec.Licenses) > 0 {
		rows := make([][]string, len(rec.Licenses))
		for i, l := range rec.Licenses {
			rows[i] = []string{l.Number, orDash(l.Type), l.Business, orDash(l.EffectiveDate.String()), orDash(l.StartDate.String()), orDash(l.Remark)}
		}
		w.subsection(md, "Licenses")
		w.table(md, []string{"No.", "Type", "Business", "Effective", "Start", "Remark"}, rows)
	}

	if len(rec.MajorShareholders) > 0 {
		rows := make([][]string, len(rec.MajorShareholders))
		for i, s := range rec.MajorShareholders {
			rows[i] = []string{s.Name, strconv.FormatFloat(s.Percentage, 'f', -1, 64) + "%"}
		}
		w.subsection(md, "Major Shareholders")
		w.table(md, []string{"Name", "Shares"}, rows)
	}

	if len(rec.Executives) > 0 {
		rows := make([][]string, len(rec.Executives))
		for i, e := range rec.Executives {
			rows[i] = []string{e.Name, orDash(e.Position), orDash(e.Nationality)}
		}
		w.subsection(md, "Executives")
		w.table(md, []string{"Name", "Position", "Nationality"}, rows)
	}

	if len(rec.FundManagers) > 0 {
		rows := make([][]string, len(rec.FundManagers))
		for i, f := range rec.FundManagers {
			rows[i] = []string{f.Name, string(f.Type), orDash(f.ApprovalDate.String()), orDash(f.AppointedDate.String()), orDash(f.TrainingDeadline.String())}
		}
		w.subsection(md, "Fund Managers")
		w.table(md, []string{"Name", "Type", "Approved", "Appointed", "Training Deadline"}, rows)
	}

	if len(rec.HeadOfCompliance) > 0 {
		rows := make([][]string, len(rec.HeadOfCompliance))
		for i, c := range rec.HeadOfCompliance {
			rows[i] = []string{c.Name, orDash(c.StartDate.String())}
		}
		w.subsection(md, "Head of Compliance")
		w.table(md, []string{"Name", "Start"}, rows)
	}

	if len(rec.OldNames) > 0 {
		rows := make([][]string, len(rec.OldNames))
		for i, n := range rec.OldNames {
			rows[i] = []string{n.Name, orDash(n.Until.String())}
		}
		w.subsection(md, "Former Names")
		w.table(md, []string{"Name", "Used Until"}, rows)
	}
}

func (w *MarkdownWriter) subsection(md *markdown.Markdown, title string) {
	md.PlainText("### " + title)
	md.PlainText("")
}

// table writes a table with its cells escaped.
func (w *MarkdownWriter) table(md *markdown.Markdown, header []string, rows [][]string) {
	for _, row := range rows {
		for i, cell := range row {
			row[i] = escapeCell(cell)
		}
	}
	md.Table(markdown.TableSet{
		Header: header,
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the document footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [secregistry](https://github.com/nao1215/secregistry)*")
}

func antiCorruptionText(info *model.AntiCorruptionInfo) string {
	text := "Level " + info.Rating
	if info.Description != nil {
		text += " (" + *info.Description + ")"
	}
	if info.Date.Valid() {
		text += ", as of " + info.Date.String()
	}
	return text
}

// businessLabel returns the chart legend of a business.
func businessLabel(business string) string {
	if business == "" {
		return "Unspecified"
	}
	// Mermaid labels are quoted.
	return strings.ReplaceAll(business, `"`, "'")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
