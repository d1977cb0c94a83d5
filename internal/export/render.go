package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	frame "github.com/dysregnet/dysregnet-explorer/internal/table"
)

// Output formats accepted by WriteTable.
const (
	FormatTable    = "table"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// WriteTable renders rows for a terminal in the given format.
func WriteTable(w io.Writer, rows []EdgeRow, format string) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if rows == nil {
			rows = []EdgeRow{}
		}
		return enc.Encode(rows)
	}
	t := ToTable(rows)
	return WriteFrame(w, &frame.Frame{Header: t[0], Rows: t[1:]}, format, "edges")
}

// WriteFrame renders any frame in the given format. noun labels the row
// count printed under a table. JSON output is a list of objects keyed by
// the header.
func WriteFrame(w io.Writer, f *frame.Frame, format, noun string) error {
	switch format {
	case FormatJSON:
		objs := make([]map[string]string, 0, len(f.Rows))
		for _, row := range f.Rows {
			obj := make(map[string]string, len(f.Header))
			for i, h := range f.Header {
				if i < len(row) {
					obj[h] = row[i]
				}
			}
			objs = append(objs, obj)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(objs)
	case FormatCSV:
		return frame.WriteCSV(w, f)
	case FormatMarkdown, "md":
		renderMarkdown(w, f)
		return nil
	case FormatTable, "":
		renderTable(w, f, noun)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderTable(w io.Writer, f *frame.Frame, noun string) {
	if len(f.Rows) == 0 {
		_, _ = fmt.Fprintf(w, "(0 %s)\n", noun)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(f.Header))
	for i, h := range f.Header {
		header[i] = h
	}
	t.AppendHeader(header)

	for _, r := range f.Rows {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d %s)\n", len(f.Rows), noun)
}

func renderMarkdown(w io.Writer, f *frame.Frame) {
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(f.Header, " | "))
	seps := make([]string, len(f.Header))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))
	for _, row := range f.Rows {
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(row, " | "))
	}
}
