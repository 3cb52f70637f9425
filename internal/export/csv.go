// Package export writes company records as CSV in the layout downstream
// spreadsheets expect.
package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/domain-scraper/internal/company"
)

const (
	// NotFound fills a column the source had no value for
	NotFound = "Not Found"
	// Failed fills every data column of a row whose scrape errored
	Failed = "Error"
)

var baseHeader = []string{
	"Company", "Address", "City", "State", "Zip", "CompanyDomain", "EmployeeSize", "AnnualRevenue",
}

// Header returns the column names, with the trailing ParseStatus column when
// withStatus is set
func Header(withStatus bool) []string {
	header := append([]string(nil), baseHeader...)
	if withStatus {
		header = append(header, "ParseStatus")
	}
	return header
}

// Row converts a record to CSV fields
func Row(rec company.Record, withStatus bool) []string {
	orNotFound := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return NotFound
		}
		return s
	}

	var row []string
	if rec.Failed() {
		row = []string{Failed, Failed, Failed, Failed, Failed, rec.Domain, Failed, Failed}
	} else {
		a := rec.Address
		row = []string{
			orNotFound(rec.Company),
			orNotFound(a.StreetAddress),
			orNotFound(a.City),
			orNotFound(a.StateCode),
			orNotFound(a.PostalCode),
			rec.Domain,
			orNotFound(rec.EmployeeSize),
			orNotFound(rec.AnnualRevenue),
		}
	}
	if withStatus {
		row = append(row, rec.Address.Status.String())
	}
	return row
}

// Writer appends quoted CSV rows and flushes after each one so a crashed
// run keeps everything written so far. Safe for concurrent use.
type Writer struct {
	mu         sync.Mutex
	buf        *bufio.Writer
	closer     io.Closer
	withStatus bool
	rows       int
}

// Create truncates path and writes the header
func Create(path string, withStatus bool) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	w, err := NewWriter(f, withStatus)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// NewWriter writes the header to out
func NewWriter(out io.Writer, withStatus bool) (*Writer, error) {
	w := &Writer{buf: bufio.NewWriter(out), withStatus: withStatus}
	if err := w.writeLine(Header(withStatus)); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return w, nil
}

// Write appends one record
func (w *Writer) Write(_ context.Context, rec company.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.writeLine(Row(rec, w.withStatus)); err != nil {
		return fmt.Errorf("failed to write row for %s: %w", rec.Domain, err)
	}
	w.rows++
	return nil
}

// Rows is the number of data rows written
func (w *Writer) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Close flushes and closes the underlying file, if Create opened one
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// writeLine quotes every field, doubling embedded quotes
func (w *Writer) writeLine(fields []string) error {
	for i, field := range fields {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		w.buf.WriteByte('"')
		w.buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
		w.buf.WriteByte('"')
	}
	w.buf.WriteString("\r\n")
	return w.buf.Flush()
}
