package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/tidwall/pretty"

	"github.com/nao1215/secregistry/internal/model"
)

// JSONWriter outputs records in JSON format, one compact object per line.
// HTML characters in values are written as is.
type JSONWriter struct {
	baseWriter

	// pretty enables indented output. The result is no longer NDJSON.
	pretty bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables indented JSON output.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.pretty = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs one record as a JSON line.
func (w *JSONWriter) Write(rec *model.CompanyRecord) (int, error) {
	return w.Encode(rec)
}

// Flush is a no-op; records are written as they come.
func (w *JSONWriter) Flush() (int, error) {
	return 0, nil
}

// Encode writes any value followed by a newline.
func (w *JSONWriter) Encode(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return 0, err
	}

	data := buf.Bytes()
	if w.pretty {
		data = pretty.PrettyOptions(data, &pretty.Options{
			Width:    80,
			Prefix:   "",
			Indent:   "  ",
			SortKeys: false,
		})
	}
	return w.output.Write(data)
}
