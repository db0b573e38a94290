package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/ports"
)

// Field is one line of a printed record and one column of the summary table.
type Field struct {
	Label string
	Value func(*domain.CommunityRecord) string
	// Width caps the summary column; zero leaves it unbounded.
	Width int
}

// Reporter prints accepted records as they arrive and, in verbose mode,
// every filter decision.
type Reporter struct {
	w        io.Writer
	fields   []Field
	verbose  bool
	accepted []*domain.CommunityRecord
}

var (
	_ ports.RecordSink = (*Reporter)(nil)
	_ ports.Tracer     = (*Reporter)(nil)
)

func NewReporter(w io.Writer, fields []Field, verbose bool) *Reporter {
	return &Reporter{w: w, fields: fields, verbose: verbose}
}

// Accept implements ports.RecordSink.
func (r *Reporter) Accept(record *domain.CommunityRecord) error {
	r.accepted = append(r.accepted, record)

	var b strings.Builder
	fmt.Fprintf(&b, "Found community %d: %s\n", len(r.accepted), heading(record))
	for _, f := range r.fields {
		if v := f.Value(record); v != "" {
			fmt.Fprintf(&b, "    %s: %s\n", f.Label, oneLine(v))
		}
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

// Trace implements ports.Tracer.
func (r *Reporter) Trace(index int, record *domain.CommunityRecord, verdict domain.Verdict) {
	if !r.verbose {
		return
	}
	if verdict.Accepted {
		fmt.Fprintf(r.w, "[%d] %s: accepted\n", index, heading(record))
		return
	}
	fmt.Fprintf(r.w, "[%d] %s: rejected by %s (%s)\n", index, heading(record), verdict.Check, verdict.Reason)
}

// Summary renders every accepted record as a table. Nothing is printed when none were accepted.
func (r *Reporter) Summary() {
	if len(r.accepted) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.w)

	header := make(table.Row, len(r.fields))
	var configs []table.ColumnConfig
	for i, f := range r.fields {
		header[i] = f.Label
		if f.Width > 0 {
			configs = append(configs, table.ColumnConfig{Number: i + 1, WidthMax: f.Width})
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, record := range r.accepted {
		row := make(table.Row, len(r.fields))
		for i, f := range r.fields {
			row[i] = oneLine(f.Value(record))
		}
		t.AppendRow(row)
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

// Accepted is the number of records printed so far.
func (r *Reporter) Accepted() int {
	return len(r.accepted)
}

func heading(record *domain.CommunityRecord) string {
	if record.Title != "" && record.Title != record.Identifier {
		return record.Identifier + " (" + record.Title + ")"
	}
	return record.Identifier
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
