package report

import (
	"io"

	"github.com/nao1215/secregistry/internal/model"
)

// Writer defines the interface for record output.
type Writer interface {
	// Write outputs one record.
	// Returns the number of bytes written and any error encountered.
	Write(rec *model.CompanyRecord) (int, error)

	// Flush writes anything the writer holds back until the end of the run.
	Flush() (int, error)
}

// MultiWriter writes to multiple Writers.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the record to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(rec *model.CompanyRecord) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(rec)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Flush flushes all configured Writers.
func (m *MultiWriter) Flush() (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Flush()
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
