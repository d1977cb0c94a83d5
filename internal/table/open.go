package table

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format is a supported input file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
	FormatGCT  Format = "gct"
)

// DetectFormat infers the format from a file name. A trailing ".gz" is ignored.
// Unknown extensions read as CSV, which is what uploads most often are.
func DetectFormat(name string) Format {
	lower := strings.ToLower(strings.TrimSuffix(strings.ToLower(name), ".gz"))
	switch filepath.Ext(lower) {
	case ".tsv", ".txt", ".tab":
		return FormatTSV
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".gct":
		return FormatGCT
	default:
		return FormatCSV
	}
}

// Loader reads named tables. Delimited files go through DuckDB when a
// DuckDBReader is configured.
type Loader struct {
	duck *DuckDBReader
}

// NewLoader creates a loader; duck may be nil for the native readers.
func NewLoader(duck *DuckDBReader) *Loader {
	return &Loader{duck: duck}
}

// Read parses r according to the format implied by name.
func (l *Loader) Read(ctx context.Context, name string, r io.Reader) (*Frame, error) {
	format := DetectFormat(name)
	if l != nil && l.duck != nil && (format == FormatCSV || format == FormatTSV) {
		return l.duck.Read(ctx, name, r)
	}

	switch format {
	case FormatTSV:
		return ReadTSV(r)
	case FormatXLSX:
		return ReadXLSX(r)
	case FormatGCT:
		return ReadGCT(r)
	default:
		return ReadCSV(r)
	}
}

// ReadFile opens and parses path.
func (l *Loader) ReadFile(ctx context.Context, path string) (*Frame, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	frame, err := l.Read(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return frame, nil
}
